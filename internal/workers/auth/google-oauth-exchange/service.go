// internal/workers/auth/google-oauth-exchange/service.go
package googleoauthexchange

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"

	"github.com/google/uuid"
)

type Service struct {
	config *Config
	logger logger.Logger
	google GoogleAuthService
	db     *sql.DB
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		google: deps.Google,
		db:     deps.DB,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AuthCode == "" {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "authCode is required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	redirectURI := input.RedirectURI
	if redirectURI == "" {
		redirectURI = s.config.RedirectURI
	}

	tokens, err := s.google.ExchangeCode(ctx, input.AuthCode, redirectURI)
	if err != nil {
		return nil, errors.NewTokenExchangeFailedError(err)
	}

	profile, err := s.google.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, errors.NewExternalServiceError("google", err)
	}

	if profile.Email == "" {
		return nil, errors.NewAuthenticationError("google profile carried no email address")
	}
	if !profile.VerifiedEmail {
		return nil, errors.NewAuthenticationError(fmt.Sprintf("email %s is not verified with google", profile.Email))
	}

	expiresAt := time.Now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)

	userID, isNew, err := s.upsertProfile(ctx, profile.Email, profile.Name, tokens.AccessToken, tokens.RefreshToken, expiresAt)
	if err != nil {
		return nil, err
	}

	s.logger.Info("google account linked", map[string]interface{}{
		"userId":    userID,
		"email":     profile.Email,
		"isNewUser": isNew,
	})

	return &Output{
		Success:   true,
		UserID:    userID,
		Email:     profile.Email,
		Name:      profile.Name,
		IsNewUser: isNew,
	}, nil
}

// upsertProfile writes the tokens onto the profile row keyed by email.
// Google omits the refresh token on repeat consent, so an empty one never
// overwrites a stored one.
func (s *Service) upsertProfile(ctx context.Context, email, name, accessToken, refreshToken string, expiresAt time.Time) (string, bool, error) {
	var userID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM profiles WHERE LOWER(email) = LOWER($1)`,
		email,
	).Scan(&userID)

	switch {
	case err == sql.ErrNoRows:
		userID = uuid.New().String()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO profiles (id, email, display_name, google_access_token, google_refresh_token, token_expires_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
			userID, email, name, accessToken, refreshToken, expiresAt,
		)
		if err != nil {
			return "", false, errors.NewDatabaseInsertFailedError(err)
		}
		return userID, true, nil

	case err != nil:
		return "", false, errors.NewQueryExecutionFailedError("profile_lookup", err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE profiles
		 SET google_access_token = $2,
		     google_refresh_token = COALESCE(NULLIF($3, ''), google_refresh_token),
		     token_expires_at = $4,
		     updated_at = NOW()
		 WHERE id = $1`,
		userID, accessToken, refreshToken, expiresAt,
	)
	if err != nil {
		return "", false, errors.NewDatabaseInsertFailedError(err)
	}
	return userID, false, nil
}
