// internal/workers/auth/resolve-user-session/service.go
package resolveusersession

import (
	"context"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
)

type Service struct {
	config   *Config
	logger   logger.Logger
	identity IdentityService
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:   config,
		logger:   deps.Logger,
		identity: deps.Identity,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AccessToken == "" {
		return nil, errors.NewSessionInvalidError("request carried no access token")
	}

	user, err := s.identity.ResolveToken(ctx, input.AccessToken)
	if err != nil {
		return nil, err
	}

	s.logger.Info("session resolved", map[string]interface{}{
		"userId": user.ID,
	})

	return &Output{
		Success: true,
		UserID:  user.ID,
		Email:   user.Email,
	}, nil
}
