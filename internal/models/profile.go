// internal/models/profile.go
package models

import "time"

// Profile holds per-user settings and the Google OAuth tokens used for
// Drive access. Tokens are stored server-side so webhook-triggered
// workflows can act without a browser session.
type Profile struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	GoogleAccessToken   string     `json:"googleAccessToken,omitempty"`
	GoogleRefreshToken  string     `json:"googleRefreshToken,omitempty"`
	TokenExpiresAt      *time.Time `json:"tokenExpiresAt,omitempty"`
	DriveRootFolderID   string     `json:"driveRootFolderId,omitempty"`
	DriveRootFolderName string     `json:"driveRootFolderName,omitempty"`
	LastSyncAt          *time.Time `json:"lastSyncAt,omitempty"`
}

// SessionUser is the identity resolved from a dashboard bearer token.
type SessionUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	AccessToken string `json:"-"`
}
