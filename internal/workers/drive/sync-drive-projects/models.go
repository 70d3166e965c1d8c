// internal/workers/drive/sync-drive-projects/models.go
package syncdriveprojects

import (
	"context"
	"database/sql"

	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
)

// DriveService is the slice of the Google Drive client this worker uses.
type DriveService interface {
	ListFolders(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error)
}

// SNSPublisher publishes the sync summary. Optional.
type SNSPublisher interface {
	PublishJSON(ctx context.Context, topicARN, subject string, payload interface{}) error
}

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Success  bool   `json:"success"`
	Added    int    `json:"added"`
	Updated  int    `json:"updated"`
	Removed  int    `json:"removed"`
	Total    int    `json:"total"`
	SyncedAt string `json:"syncedAt"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Drive  DriveService
	DB     *sql.DB
	SNS    SNSPublisher
	Logger logger.Logger
}
