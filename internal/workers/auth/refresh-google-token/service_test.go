// internal/workers/auth/refresh-google-token/service_test.go
package refreshgoogletoken

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock Implementations

type MockGoogleTokenService struct {
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error)
}

func (m *MockGoogleTokenService) RefreshToken(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func createTestService(t *testing.T, google GoogleTokenService) (*Service, sqlmock.Sqlmock, redismock.ClientMock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	redisClient, redisMock := redismock.NewClientMock()

	service := NewService(ServiceDependencies{
		Google: google,
		DB:     db,
		Redis:  redisClient,
		Logger: logger.NewTestLogger(t),
	}, DefaultConfig())

	return service, dbMock, redisMock
}

func TestExecute_CacheHitSkipsRefresh(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			t.Fatal("refresh should not be reached on a cache hit")
			return nil, nil
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	redisMock.ExpectGet("google_token:user-1").SetVal("cached-access-token")

	output, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, SourceCache, output.Source)
	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_CacheMissRefreshes(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			assert.Equal(t, "refresh-token-1", refreshToken)
			return &googledrive.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	redisMock.ExpectGet("google_token:user-1").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow("refresh-token-1"))
	dbMock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	redisMock.ExpectSet("google_token:user-1", "fresh-token", 3540*time.Second).SetVal("OK")

	output, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceRefreshed, output.Source)
	assert.NotEmpty(t, output.ExpiresAt)
	assert.NoError(t, dbMock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_ForceRefreshBypassesCache(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			return &googledrive.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	// No ExpectGet: the cache must not even be consulted.
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow("refresh-token-1"))
	dbMock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	redisMock.ExpectSet("google_token:user-1", "fresh-token", 3540*time.Second).SetVal("OK")

	output, err := service.Execute(context.Background(), &Input{UserID: "user-1", ForceRefresh: true})

	require.NoError(t, err)
	assert.Equal(t, SourceRefreshed, output.Source)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestExecute_ProfileNotFound(t *testing.T) {
	service, dbMock, redisMock := createTestService(t, &MockGoogleTokenService{})

	redisMock.ExpectGet("google_token:ghost").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}))

	_, err := service.Execute(context.Background(), &Input{UserID: "ghost"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeProfileNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecute_NoRefreshTokenOnFile(t *testing.T) {
	service, dbMock, redisMock := createTestService(t, &MockGoogleTokenService{})

	redisMock.ExpectGet("google_token:user-1").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow(""))

	_, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDriveAuthExpired, stdErr.Code)
}

func TestExecute_RevokedRefreshToken(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			return nil, &googledrive.APIError{StatusCode: 400, Body: `{"error": "invalid_grant"}`}
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	redisMock.ExpectGet("google_token:user-1").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow("revoked-token"))

	_, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDriveAuthExpired, stdErr.Code)
	assert.Equal(t, 0, errors.GetRetryCount(stdErr.Code))
}

func TestExecute_TransientRefreshFailure(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			return nil, fmt.Errorf("connection reset")
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	redisMock.ExpectGet("google_token:user-1").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow("refresh-token-1"))

	_, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTokenRefreshFailed, stdErr.Code)
	assert.Equal(t, 2, errors.GetRetryCount(stdErr.Code))
}

func TestExecute_CacheWriteFailureDoesNotFailJob(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			return &googledrive.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	redisMock.ExpectGet("google_token:user-1").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow("refresh-token-1"))
	dbMock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	redisMock.ExpectSet("google_token:user-1", "fresh-token", 3540*time.Second).
		SetErr(fmt.Errorf("redis down"))

	output, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
}

func TestExecute_ShortLivedTokenNotCached(t *testing.T) {
	google := &MockGoogleTokenService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			return &googledrive.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 30}, nil
		},
	}
	service, dbMock, redisMock := createTestService(t, google)

	redisMock.ExpectGet("google_token:user-1").RedisNil()
	dbMock.ExpectQuery("SELECT google_refresh_token FROM profiles").
		WillReturnRows(sqlmock.NewRows([]string{"google_refresh_token"}).AddRow("refresh-token-1"))
	dbMock.ExpectExec("UPDATE profiles").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// No ExpectSet: a token that expires inside the slack window is not cached.

	output, err := service.Execute(context.Background(), &Input{UserID: "user-1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}
