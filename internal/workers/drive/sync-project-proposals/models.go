// internal/workers/drive/sync-project-proposals/models.go
package syncprojectproposals

import (
	"context"
	"database/sql"

	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/filename"
)

// DriveService is the slice of the Google Drive client this worker uses.
type DriveService interface {
	ListFiles(ctx context.Context, accessToken, folderID, mimeType string) ([]googledrive.File, error)
}

type Input struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
}

// FileError is one file the sync could not turn into proposals. The batch
// keeps going, the workflow decides what to do with the list.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

type Output struct {
	Success        bool        `json:"success"`
	FilesProcessed int         `json:"filesProcessed"`
	NewProposals   int         `json:"newProposals"`
	Skipped        int         `json:"skipped"`
	TradesCreated  int         `json:"tradesCreated"`
	Errors         []FileError `json:"errors,omitempty"`
	SyncedAt       string      `json:"syncedAt"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Drive  DriveService
	DB     *sql.DB
	Parser *filename.Parser
	Logger logger.Logger
}
