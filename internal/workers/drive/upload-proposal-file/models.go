// internal/workers/drive/upload-proposal-file/models.go
package uploadproposalfile

import (
	"context"
	"database/sql"

	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
)

// DriveService is the slice of the Google Drive client this worker uses.
type DriveService interface {
	ListFolders(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error)
	FindFolderByName(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error)
	CreateFolder(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error)
	UploadFile(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error)
}

// GoogleTokenService refreshes the access token when an upload comes
// back 401 mid-flight.
type GoogleTokenService interface {
	RefreshToken(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error)
}

type Input struct {
	UserID      string `json:"userId"`
	ProjectName string `json:"projectName"`
	TradeName   string `json:"tradeName,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Filename    string `json:"filename"`
	// Content is the base64-encoded file body, usually handed over by
	// the fetch-email-attachment step.
	Content     string `json:"content"`
	ContentType string `json:"contentType,omitempty"`
}

type Output struct {
	Success    bool   `json:"success"`
	FileID     string `json:"fileId"`
	FileName   string `json:"fileName"`
	FolderID   string `json:"folderId"`
	FolderName string `json:"folderName"`
	// UsedFallback is true when the file went to the uncertain-bids
	// folder instead of a matched project folder.
	UsedFallback bool   `json:"usedFallback"`
	UploadedAt   string `json:"uploadedAt"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Drive  DriveService
	Google GoogleTokenService
	DB     *sql.DB
	Logger logger.Logger
}
