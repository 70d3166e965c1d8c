// internal/workers/auth/google-oauth-exchange/models.go
package googleoauthexchange

import (
	"context"
	"database/sql"

	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
)

// GoogleAuthService is the slice of the Google client this worker uses.
type GoogleAuthService interface {
	ExchangeCode(ctx context.Context, code, redirectURI string) (*googledrive.TokenResponse, error)
	UserInfo(ctx context.Context, accessToken string) (*googledrive.UserInfo, error)
}

type Input struct {
	AuthCode string `json:"authCode"`
	// RedirectURI must match the one used on the consent screen. Empty
	// falls back to the configured value.
	RedirectURI string `json:"redirectUri,omitempty"`
	State       string `json:"state,omitempty"`
}

// Output deliberately carries no tokens. They are stored on the profile
// row so the drive sync workflows can use them without a browser session.
type Output struct {
	Success   bool   `json:"success"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	IsNewUser bool   `json:"isNewUser"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Google GoogleAuthService
	DB     *sql.DB
	Logger logger.Logger
}
