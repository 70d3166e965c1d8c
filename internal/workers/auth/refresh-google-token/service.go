// internal/workers/auth/refresh-google-token/service.go
package refreshgoogletoken

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "google_token:"

type Service struct {
	config *Config
	logger logger.Logger
	google GoogleTokenService
	db     *sql.DB
	redis  *redis.Client
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		google: deps.Google,
		db:     deps.DB,
		redis:  deps.Redis,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "userId is required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	cacheKey := cacheKeyPrefix + input.UserID

	// The cache key lives exactly as long as the stored token is valid
	// (minus slack), so its presence means no refresh is needed.
	if !input.ForceRefresh && s.tokenStillValid(ctx, cacheKey) {
		return &Output{
			Success:     true,
			UserID:      input.UserID,
			Source:      SourceCache,
			RefreshedAt: time.Now().UTC().Format(time.RFC3339),
		}, nil
	}

	refreshToken, err := s.loadRefreshToken(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.google.RefreshToken(ctx, refreshToken)
	if err != nil {
		// invalid_grant means the refresh token itself was revoked. Only a
		// fresh consent screen fixes that, retrying will not.
		var apiErr *googledrive.APIError
		if stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return nil, errors.NewDriveAuthExpiredError(fmt.Sprintf("refresh token rejected for user %s: %s", input.UserID, apiErr.Body))
		}
		return nil, errors.NewTokenRefreshFailedError(err)
	}

	expiresAt := time.Now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	_, err = s.db.ExecContext(ctx,
		`UPDATE profiles
		 SET google_access_token = $2, token_expires_at = $3, updated_at = NOW()
		 WHERE id = $1`,
		input.UserID, tokens.AccessToken, expiresAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.cacheToken(ctx, cacheKey, tokens)

	s.logger.Info("google token refreshed", map[string]interface{}{
		"userId":    input.UserID,
		"expiresAt": expiresAt.Format(time.RFC3339),
	})

	return &Output{
		Success:     true,
		UserID:      input.UserID,
		Source:      SourceRefreshed,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
		RefreshedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (s *Service) tokenStillValid(ctx context.Context, cacheKey string) bool {
	err := s.redis.Get(ctx, cacheKey).Err()
	if err == nil {
		return true
	}
	if err != redis.Nil {
		// A broken cache only costs an extra refresh.
		s.logger.Warn("token cache lookup failed", map[string]interface{}{
			"key":   cacheKey,
			"error": err.Error(),
		})
	}
	return false
}

func (s *Service) loadRefreshToken(ctx context.Context, userID string) (string, error) {
	var refreshToken sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT google_refresh_token FROM profiles WHERE id = $1`,
		userID,
	).Scan(&refreshToken)

	switch {
	case err == sql.ErrNoRows:
		return "", errors.NewProfileNotFoundError(userID)
	case err != nil:
		return "", errors.NewQueryExecutionFailedError("profile_lookup", err)
	}

	if !refreshToken.Valid || refreshToken.String == "" {
		return "", errors.NewDriveAuthExpiredError(fmt.Sprintf("user %s has no refresh token on file", userID))
	}
	return refreshToken.String, nil
}

func (s *Service) cacheToken(ctx context.Context, cacheKey string, tokens *googledrive.TokenResponse) {
	ttl := time.Duration(tokens.ExpiresIn)*time.Second - s.config.ExpirySlack
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, cacheKey, tokens.AccessToken, ttl).Err(); err != nil {
		s.logger.Warn("failed to cache token validity", map[string]interface{}{
			"key":   cacheKey,
			"error": err.Error(),
		})
	}
}
