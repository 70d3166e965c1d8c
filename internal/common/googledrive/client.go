// internal/common/googledrive/client.go
package googledrive

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	commonhttp "bidbuddy-workers/internal/common/http"
)

// Client talks to the Google OAuth2 and Drive v3 HTTP APIs. Access tokens
// are passed per call rather than held on the client because each job
// carries the tokens of the profile it runs for.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	userInfoURL  string
	apiURL       string
	uploadURL    string
	httpClient   *commonhttp.Client
}

func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     "https://oauth2.googleapis.com/token",
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		apiURL:       "https://www.googleapis.com/drive/v3",
		uploadURL:    "https://www.googleapis.com/upload/drive/v3",
		httpClient:   commonhttp.NewClient(60 * time.Second),
	}
}

// TokenResponse is the Google OAuth token endpoint response for both the
// authorization-code and refresh-token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope"`
	IDToken      string `json:"id_token,omitempty"`
}

// UserInfo is the Google profile for the authenticated user.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
}

// File is a Drive file or folder.
type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	CreatedTime  string `json:"createdTime,omitempty"`
}

const (
	MimeTypeFolder = "application/vnd.google-apps.folder"
	MimeTypePDF    = "application/pdf"
)

// APIError is a non-2xx response from the OAuth or Drive endpoints.
// Callers inspect StatusCode to route 401s through a token refresh.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google api error %d: %s", e.StatusCode, e.Body)
}

// IsAuthError reports whether err is a 401 from Google, meaning the access
// token has expired or been revoked.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ExchangeCode exchanges an OAuth authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("redirect_uri", redirectURI)
	data.Set("grant_type", "authorization_code")

	return c.requestToken(ctx, data)
}

// RefreshToken exchanges a stored refresh token for a fresh access token.
// Google does not return a new refresh token on this grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	data := url.Values{}
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("grant_type", "refresh_token")

	return c.requestToken(ctx, data)
}

func (c *Client) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tokenResp TokenResponse
	if err := c.doJSON(ctx, req, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}
	return &tokenResp, nil
}

// UserInfo fetches the Google profile behind an access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var info UserInfo
	if err := c.doJSON(ctx, req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListFolders returns every non-trashed folder directly under parentID,
// following nextPageToken to the end.
func (c *Client) ListFolders(ctx context.Context, accessToken, parentID string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		escapeQueryValue(parentID), MimeTypeFolder)
	return c.listAll(ctx, accessToken, query)
}

// ListFiles returns every non-trashed file of the given MIME type directly
// under folderID. An empty mimeType lists all files.
func (c *Client) ListFiles(ctx context.Context, accessToken, folderID, mimeType string) ([]File, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryValue(folderID))
	if mimeType != "" {
		query += fmt.Sprintf(" and mimeType = '%s'", escapeQueryValue(mimeType))
	}
	return c.listAll(ctx, accessToken, query)
}

// FindFolderByName returns the first non-trashed folder under parentID with
// an exact name match, or nil when none exists.
func (c *Client) FindFolderByName(ctx context.Context, accessToken, parentID, name string) (*File, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and name = '%s' and trashed = false",
		escapeQueryValue(parentID), MimeTypeFolder, escapeQueryValue(name))
	folders, err := c.listAll(ctx, accessToken, query)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		return nil, nil
	}
	return &folders[0], nil
}

func (c *Client) listAll(ctx context.Context, accessToken, query string) ([]File, error) {
	var files []File
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("q", query)
		params.Set("fields", "files(id,name,mimeType,modifiedTime,createdTime),nextPageToken")
		params.Set("pageSize", "100")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		listURL := fmt.Sprintf("%s/files?%s", c.apiURL, params.Encode())
		req, err := http.NewRequestWithContext(ctx, "GET", listURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create list request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)

		var page struct {
			Files         []File `json:"files"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := c.doJSON(ctx, req, &page); err != nil {
			return nil, err
		}

		files = append(files, page.Files...)
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// CreateFolder creates a folder under parentID and returns it.
func (c *Client) CreateFolder(ctx context.Context, accessToken, parentID, name string) (*File, error) {
	metadata := map[string]interface{}{
		"name":     name,
		"mimeType": MimeTypeFolder,
		"parents":  []string{parentID},
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal folder metadata: %w", err)
	}

	createURL := fmt.Sprintf("%s/files?fields=id,name,mimeType,modifiedTime", c.apiURL)
	req, err := http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create folder request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	var folder File
	if err := c.doJSON(ctx, req, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UploadFile uploads data as a new file in folderID using a multipart
// related request (metadata part plus media part).
func (c *Client) UploadFile(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*File, error) {
	metadata := map[string]interface{}{
		"name":    name,
		"parents": []string{folderID},
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal file metadata: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata part: %w", err)
	}
	if _, err := metaPart.Write(metadataJSON); err != nil {
		return nil, fmt.Errorf("failed to write metadata part: %w", err)
	}

	mediaHeader := textproto.MIMEHeader{}
	mediaHeader.Set("Content-Type", contentType)
	mediaPart, err := writer.CreatePart(mediaHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create media part: %w", err)
	}
	if _, err := mediaPart.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write media part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/files?uploadType=multipart&fields=id,name,mimeType,modifiedTime", c.uploadURL)
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	var file File
	if err := c.doJSON(ctx, req, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadFile returns the raw content of a Drive file.
func (c *Client) DownloadFile(ctx context.Context, accessToken, fileID string) ([]byte, error) {
	dlURL := fmt.Sprintf("%s/files/%s?alt=media", c.apiURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, "GET", dlURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute download request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return io.ReadAll(resp.Body)
}

// doJSON executes the request and surfaces non-2xx responses as *APIError.
func (c *Client) doJSON(ctx context.Context, req *http.Request, out interface{}) error {
	if err := c.httpClient.DoJSON(ctx, req, out); err != nil {
		var statusErr *commonhttp.StatusError
		if stderrors.As(err, &statusErr) {
			return &APIError{StatusCode: statusErr.StatusCode, Body: statusErr.Body}
		}
		return err
	}
	return nil
}

// escapeQueryValue escapes single quotes and backslashes inside Drive
// search query literals.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
