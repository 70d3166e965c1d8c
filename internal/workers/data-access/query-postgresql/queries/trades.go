// internal/workers/data-access/query-postgresql/queries/trades.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

func ListTrades(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := stringParam(params, "userId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	query := `
		SELECT id, user_id, name, is_active
		FROM trades
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY name`
	if boolFilter(params, "includeInactive") {
		query = `
		SELECT id, user_id, name, is_active
		FROM trades
		WHERE user_id = $1
		ORDER BY name`
	}

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, uid, name string
		var isActive bool
		if err := rows.Scan(&id, &uid, &name, &isActive); err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":       id,
			"userId":   uid,
			"name":     name,
			"isActive": isActive,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

// CreateTrade is idempotent on (user, name) ignoring case. Re-running a
// workflow that already created the trade returns the existing row.
func CreateTrade(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := stringParam(params, "userId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	tradeName, ok := stringParam(params, "tradeName")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var existingID string
	err := db.QueryRowContext(ctx, `
		SELECT id FROM trades
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)`, userID, tradeName).Scan(&existingID)
	if err == nil {
		result := map[string]interface{}{
			"id":      existingID,
			"name":    tradeName,
			"created": false,
		}
		return result, 1, time.Since(start).Milliseconds(), nil
	}
	if err != sql.ErrNoRows {
		return nil, 0, 0, err
	}

	tradeID := uuid.New().String()
	_, err = db.ExecContext(ctx, `
		INSERT INTO trades (id, user_id, name, is_active)
		VALUES ($1, $2, $3, TRUE)`, tradeID, userID, tradeName)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":      tradeID,
		"name":    tradeName,
		"created": true,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

// DeactivateTrade is a soft delete. Proposals already recorded against the
// trade keep their trade_id, the trade just stops matching new filenames.
func DeactivateTrade(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := stringParam(params, "userId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	tradeID, ok := stringParam(params, "tradeId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, name string
	err := db.QueryRowContext(ctx, `
		UPDATE trades
		SET is_active = FALSE
		WHERE id = $1 AND user_id = $2
		RETURNING id, name`, tradeID, userID).Scan(&id, &name)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":       id,
		"name":     name,
		"isActive": false,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func ListProjectTrades(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := stringParam(params, "projectId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT pt.id, pt.project_id, pt.trade_id, t.name, pt.custom_name, pt.is_active
		FROM project_trades pt
		JOIN trades t ON t.id = pt.trade_id
		WHERE pt.project_id = $1 AND pt.is_active = TRUE
		ORDER BY t.name`, projectID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, pid, tradeID, tradeName string
		var customName sql.NullString
		var isActive bool
		err := rows.Scan(&id, &pid, &tradeID, &tradeName, &customName, &isActive)
		if err != nil {
			return nil, 0, 0, err
		}
		displayName := tradeName
		if customName.Valid && customName.String != "" {
			displayName = customName.String
		}
		results = append(results, map[string]interface{}{
			"id":          id,
			"projectId":   pid,
			"tradeId":     tradeID,
			"tradeName":   tradeName,
			"displayName": displayName,
			"isActive":    isActive,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
