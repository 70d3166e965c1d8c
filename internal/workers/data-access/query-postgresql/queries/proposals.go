// internal/workers/data-access/query-postgresql/queries/proposals.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

// ListProposals lists a project's proposals, optionally narrowed to one
// trade via the tradeId filter. The metadata column stays out of the
// listing so the process variables stay small.
func ListProposals(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := stringParam(params, "projectId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	query := `
		SELECT id, project_id, trade_id, company_name, drive_file_id,
		       drive_file_name, email_source, received_at
		FROM proposals
		WHERE project_id = $1
		ORDER BY received_at DESC`
	args := []interface{}{projectID}

	if tradeID, ok := stringParam(params, "tradeId"); ok {
		query = `
		SELECT id, project_id, trade_id, company_name, drive_file_id,
		       drive_file_name, email_source, received_at
		FROM proposals
		WHERE project_id = $1 AND trade_id = $2
		ORDER BY received_at DESC`
		args = append(args, tradeID)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, pid, companyName, receivedAt string
		var tradeID, driveFileID, driveFileName, emailSource sql.NullString
		err := rows.Scan(&id, &pid, &tradeID, &companyName,
			&driveFileID, &driveFileName, &emailSource, &receivedAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":            id,
			"projectId":     pid,
			"tradeId":       tradeID.String,
			"companyName":   companyName,
			"driveFileId":   driveFileID.String,
			"driveFileName": driveFileName.String,
			"emailSource":   emailSource.String,
			"receivedAt":    receivedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

// GetBidderStats reads the precomputed bid leveling board. The rows are
// maintained by the stats refresh task, this query never aggregates.
func GetBidderStats(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := stringParam(params, "projectId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT project_id, trade_id, trade_name, display_name,
		       bidder_count, proposal_count, last_bid_received
		FROM bidder_stats
		WHERE project_id = $1
		ORDER BY display_name`, projectID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var pid, tradeID, tradeName, displayName string
		var bidderCount, proposalCount int
		var lastBidReceived sql.NullString
		err := rows.Scan(&pid, &tradeID, &tradeName, &displayName,
			&bidderCount, &proposalCount, &lastBidReceived)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"projectId":       pid,
			"tradeId":         tradeID,
			"tradeName":       tradeName,
			"displayName":     displayName,
			"bidderCount":     bidderCount,
			"proposalCount":   proposalCount,
			"lastBidReceived": lastBidReceived.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
