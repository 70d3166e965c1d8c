// internal/workers/auth/resolve-user-session/models.go
package resolveusersession

import (
	"context"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"
)

// IdentityService resolves a dashboard bearer token to a user.
type IdentityService interface {
	ResolveToken(ctx context.Context, accessToken string) (*models.SessionUser, error)
}

type Input struct {
	AccessToken string `json:"accessToken"`
}

type Output struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	Identity IdentityService
	Logger   logger.Logger
}
