// internal/common/auth/identity.go
package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/errors"
	commonhttp "bidbuddy-workers/internal/common/http"
	"bidbuddy-workers/internal/models"
)

// IdentityClient resolves dashboard bearer tokens against the identity
// service's introspection endpoint.
type IdentityClient struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
}

func NewIdentityClient(baseURL, apiKey string) *IdentityClient {
	return &IdentityClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: commonhttp.NewClient(30 * time.Second),
	}
}

// ResolveToken introspects an access token and returns the user it belongs
// to. Rejected, expired and malformed tokens all come back as
// SESSION_INVALID so the workflow can route to re-authentication.
func (c *IdentityClient) ResolveToken(ctx context.Context, accessToken string) (*models.SessionUser, error) {
	userURL := fmt.Sprintf("%s/auth/v1/user", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, "GET", userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create introspection request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := c.httpClient.DoJSON(ctx, req, &user); err != nil {
		var statusErr *commonhttp.StatusError
		if stderrors.As(err, &statusErr) {
			if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
				return nil, errors.NewSessionInvalidError(statusErr.Body)
			}
			if isTransientHTTPError(statusErr.StatusCode) {
				return nil, errors.NewExternalServiceError("identity", statusErr)
			}
		}
		return nil, fmt.Errorf("failed to execute introspection request: %w", err)
	}

	if user.ID == "" {
		return nil, errors.NewSessionInvalidError("introspection response carried no user id")
	}

	return &models.SessionUser{
		ID:          user.ID,
		Email:       user.Email,
		AccessToken: accessToken,
	}, nil
}

func isTransientHTTPError(statusCode int) bool {
	switch statusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
