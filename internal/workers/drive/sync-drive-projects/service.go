// internal/workers/drive/sync-drive-projects/service.go
package syncdriveprojects

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"

	"github.com/google/uuid"
)

type Service struct {
	config *Config
	logger logger.Logger
	drive  DriveService
	db     *sql.DB
	sns    SNSPublisher
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		drive:  deps.Drive,
		db:     deps.DB,
		sns:    deps.SNS,
	}
}

type existingProject struct {
	id   string
	name string
}

// Execute mirrors the user's Drive folder tree into the projects table.
// New folders arrive as disabled projects so nothing shows up on the
// dashboard until the user opts in.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "userId is required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	accessToken, rootFolderID, err := s.loadProfile(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	folders, err := s.drive.ListFolders(ctx, accessToken, rootFolderID)
	if err != nil {
		if googledrive.IsAuthError(err) {
			return nil, errors.NewDriveAuthExpiredError(err.Error())
		}
		return nil, errors.NewDriveAPIError("list_folders", err)
	}

	existing, err := s.loadExistingProjects(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	var added, updated, removed int
	seen := make(map[string]bool, len(folders))

	for _, folder := range folders {
		seen[folder.ID] = true

		if project, ok := existing[folder.ID]; ok {
			if project.name == folder.Name {
				continue
			}
			_, err := s.db.ExecContext(ctx, `
				UPDATE projects
				SET name = $2, last_modified_time = $3, updated_at = NOW()
				WHERE id = $1`, project.id, folder.Name, nullable(folder.ModifiedTime))
			if err != nil {
				return nil, errors.NewQueryExecutionFailedError("project_sync", err)
			}
			updated++
			metrics.DriveFilesSynced.WithLabelValues("updated").Inc()
			continue
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO projects (
				id, user_id, name, enabled, drive_folder_id, drive_folder_name,
				is_drive_folder, last_modified_time, created_at, updated_at
			) VALUES ($1, $2, $3, FALSE, $4, $5, TRUE, $6, NOW(), NOW())`,
			uuid.New().String(), input.UserID, folder.Name,
			folder.ID, folder.Name, nullable(folder.ModifiedTime))
		if err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
		added++
		metrics.DriveFilesSynced.WithLabelValues("added").Inc()
	}

	for folderID, project := range existing {
		if seen[folderID] {
			continue
		}
		_, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, project.id)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("project_sync", err)
		}
		removed++
		metrics.DriveFilesSynced.WithLabelValues("removed").Inc()
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE profiles SET last_sync_at = NOW() WHERE id = $1`, input.UserID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("sync_stamp", err)
	}

	output := &Output{
		Success:  true,
		Added:    added,
		Updated:  updated,
		Removed:  removed,
		Total:    len(folders),
		SyncedAt: time.Now().UTC().Format(time.RFC3339),
	}

	s.logger.Info("drive projects synced", map[string]interface{}{
		"userId":  input.UserID,
		"added":   added,
		"updated": updated,
		"removed": removed,
		"total":   len(folders),
	})

	s.notify(ctx, input.UserID, output)

	return output, nil
}

func (s *Service) loadProfile(ctx context.Context, userID string) (string, string, error) {
	var accessToken, rootFolderID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT google_access_token, drive_root_folder_id
		FROM profiles
		WHERE id = $1`, userID).Scan(&accessToken, &rootFolderID)
	if err == sql.ErrNoRows {
		return "", "", errors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return "", "", errors.NewQueryExecutionFailedError("profile_lookup", err)
	}

	if !accessToken.Valid || accessToken.String == "" {
		return "", "", errors.NewDriveAuthExpiredError("no access token on profile")
	}
	if !rootFolderID.Valid || rootFolderID.String == "" {
		return "", "", errors.NewBusinessRuleError(
			"no Drive root folder configured",
			fmt.Sprintf("userId: %s", userID),
		)
	}

	return accessToken.String, rootFolderID.String, nil
}

func (s *Service) loadExistingProjects(ctx context.Context, userID string) (map[string]existingProject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, drive_folder_id, name
		FROM projects
		WHERE user_id = $1 AND is_drive_folder = TRUE`, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("project_sync", err)
	}
	defer rows.Close()

	existing := make(map[string]existingProject)
	for rows.Next() {
		var id, name string
		var folderID sql.NullString
		if err := rows.Scan(&id, &folderID, &name); err != nil {
			return nil, errors.NewQueryExecutionFailedError("project_sync", err)
		}
		if folderID.Valid {
			existing[folderID.String] = existingProject{id: id, name: name}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("project_sync", err)
	}

	return existing, nil
}

// notify publishes the sync summary. Failures are logged and swallowed,
// the sync itself already happened.
func (s *Service) notify(ctx context.Context, userID string, output *Output) {
	if s.config.NotifyTopicARN == "" || s.sns == nil {
		return
	}
	if output.Added+output.Updated+output.Removed == 0 {
		return
	}

	err := s.sns.PublishJSON(ctx, s.config.NotifyTopicARN, "drive-sync", map[string]interface{}{
		"userId":  userID,
		"added":   output.Added,
		"updated": output.Updated,
		"removed": output.Removed,
		"total":   output.Total,
	})
	if err != nil {
		s.logger.Warn("sns publish failed", map[string]interface{}{
			"topicArn": s.config.NotifyTopicARN,
			"error":    err.Error(),
		})
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
