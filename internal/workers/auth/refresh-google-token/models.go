// internal/workers/auth/refresh-google-token/models.go
package refreshgoogletoken

import (
	"context"
	"database/sql"

	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// GoogleTokenService is the slice of the Google client this worker uses.
type GoogleTokenService interface {
	RefreshToken(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error)
}

type Input struct {
	UserID string `json:"userId"`
	// ForceRefresh bypasses the validity cache, used on the retry path
	// after a drive call came back 401.
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

const (
	SourceCache     = "cache"
	SourceRefreshed = "refreshed"
)

// Output carries no token material. The fresh token lands on the profile
// row where the drive workers read it.
type Output struct {
	Success     bool   `json:"success"`
	UserID      string `json:"userId"`
	Source      string `json:"source"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
	RefreshedAt string `json:"refreshedAt"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Google GoogleTokenService
	DB     *sql.DB
	Redis  *redis.Client
	Logger logger.Logger
}
