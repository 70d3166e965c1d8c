// internal/workers/data-access/query-postgresql/queries/projects.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

func ListProjects(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := stringParam(params, "userId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, name, enabled, drive_folder_id, drive_folder_name,
		       is_drive_folder, last_modified_time, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY name`, userID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, uid, name, createdAt, updatedAt string
		var enabled, isDriveFolder bool
		var driveFolderID, driveFolderName, lastModifiedTime sql.NullString
		err := rows.Scan(&id, &uid, &name, &enabled, &driveFolderID, &driveFolderName,
			&isDriveFolder, &lastModifiedTime, &createdAt, &updatedAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":               id,
			"userId":           uid,
			"name":             name,
			"enabled":          enabled,
			"driveFolderId":    driveFolderID.String,
			"driveFolderName":  driveFolderName.String,
			"isDriveFolder":    isDriveFolder,
			"lastModifiedTime": lastModifiedTime.String,
			"createdAt":        createdAt,
			"updatedAt":        updatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func GetProject(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := stringParam(params, "projectId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, userID, name, createdAt, updatedAt string
	var enabled, isDriveFolder bool
	var driveFolderID, driveFolderName, lastModifiedTime sql.NullString

	err := db.QueryRowContext(ctx, `
		SELECT id, user_id, name, enabled, drive_folder_id, drive_folder_name,
		       is_drive_folder, last_modified_time, created_at, updated_at
		FROM projects
		WHERE id = $1`, projectID).Scan(
		&id, &userID, &name, &enabled,
		&driveFolderID, &driveFolderName,
		&isDriveFolder, &lastModifiedTime,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":               id,
		"userId":           userID,
		"name":             name,
		"enabled":          enabled,
		"driveFolderId":    driveFolderID.String,
		"driveFolderName":  driveFolderName.String,
		"isDriveFolder":    isDriveFolder,
		"lastModifiedTime": lastModifiedTime.String,
		"createdAt":        createdAt,
		"updatedAt":        updatedAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func ToggleProject(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := stringParam(params, "projectId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	enabled, ok := params["enabled"].(bool)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, name string
	var nowEnabled bool

	err := db.QueryRowContext(ctx, `
		UPDATE projects
		SET enabled = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, enabled`, projectID, enabled).Scan(&id, &name, &nowEnabled)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":      id,
		"name":    name,
		"enabled": nowEnabled,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

// GetSyncStatus aggregates how far a project's proposal intake has come.
// The LEFT JOIN keeps projects with zero proposals visible instead of
// turning them into a not-found error.
func GetSyncStatus(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	projectID, ok := stringParam(params, "projectId")
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var projectName string
	var totalProposals, uniqueBidders, tradesWithBids, totalTrades int

	err := db.QueryRowContext(ctx, `
		SELECT pr.name,
		       COUNT(p.id),
		       COUNT(DISTINCT p.company_name),
		       COUNT(DISTINCT p.trade_id),
		       (SELECT COUNT(*) FROM project_trades pt
		        WHERE pt.project_id = pr.id AND pt.is_active)
		FROM projects pr
		LEFT JOIN proposals p ON p.project_id = pr.id
		WHERE pr.id = $1
		GROUP BY pr.id, pr.name`, projectID).Scan(
		&projectName, &totalProposals, &uniqueBidders, &tradesWithBids, &totalTrades,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"projectName":    projectName,
		"totalProposals": totalProposals,
		"uniqueBidders":  uniqueBidders,
		"tradesWithBids": tradesWithBids,
		"totalTrades":    totalTrades,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}
