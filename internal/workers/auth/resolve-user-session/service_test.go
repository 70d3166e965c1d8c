// internal/workers/auth/resolve-user-session/service_test.go
package resolveusersession

import (
	"context"
	"fmt"
	"testing"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock Implementations

type MockIdentityService struct {
	ResolveTokenFunc func(ctx context.Context, accessToken string) (*models.SessionUser, error)
}

func (m *MockIdentityService) ResolveToken(ctx context.Context, accessToken string) (*models.SessionUser, error) {
	return m.ResolveTokenFunc(ctx, accessToken)
}

func createTestService(t *testing.T, identity IdentityService) *Service {
	t.Helper()
	return NewService(ServiceDependencies{
		Identity: identity,
		Logger:   logger.NewTestLogger(t),
	}, DefaultConfig())
}

func TestExecute_ResolvesSession(t *testing.T) {
	identity := &MockIdentityService{
		ResolveTokenFunc: func(ctx context.Context, accessToken string) (*models.SessionUser, error) {
			assert.Equal(t, "bearer-token-1", accessToken)
			return &models.SessionUser{ID: "user-1", Email: "owner@example.com"}, nil
		},
	}
	service := createTestService(t, identity)

	output, err := service.Execute(context.Background(), &Input{AccessToken: "bearer-token-1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "user-1", output.UserID)
	assert.Equal(t, "owner@example.com", output.Email)
}

func TestExecute_EmptyToken(t *testing.T) {
	service := createTestService(t, &MockIdentityService{})

	_, err := service.Execute(context.Background(), &Input{})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSessionInvalid, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecute_ExpiredToken(t *testing.T) {
	identity := &MockIdentityService{
		ResolveTokenFunc: func(ctx context.Context, accessToken string) (*models.SessionUser, error) {
			return nil, errors.NewSessionInvalidError("token expired")
		},
	}
	service := createTestService(t, identity)

	_, err := service.Execute(context.Background(), &Input{AccessToken: "stale-token"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSessionInvalid, stdErr.Code)
	assert.Equal(t, 0, errors.GetRetryCount(stdErr.Code))
}

func TestExecute_IdentityServiceDown(t *testing.T) {
	identity := &MockIdentityService{
		ResolveTokenFunc: func(ctx context.Context, accessToken string) (*models.SessionUser, error) {
			return nil, errors.NewExternalServiceError("identity", fmt.Errorf("status 503"))
		},
	}
	service := createTestService(t, identity)

	_, err := service.Execute(context.Background(), &Input{AccessToken: "bearer-token-1"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", string(stdErr.Code))
	assert.True(t, stdErr.Retryable)
}
