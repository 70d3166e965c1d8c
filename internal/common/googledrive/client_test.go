// internal/common/googledrive/client_test.go
package googledrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "bidbuddy-workers/internal/common/http"
)

func newTestClient(serverURL string) *Client {
	return &Client{
		clientID:     "test-client-id",
		clientSecret: "test-client-secret",
		tokenURL:     serverURL + "/token",
		userInfoURL:  serverURL + "/userinfo",
		apiURL:       serverURL + "/drive/v3",
		uploadURL:    serverURL + "/upload/drive/v3",
		httpClient:   commonhttp.NewClient(5 * time.Second),
	}
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "auth-code-123", r.Form.Get("code"))
		assert.Equal(t, "test-client-id", r.Form.Get("client_id"))

		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			ExpiresIn:    3599,
			TokenType:    "Bearer",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	tokens, err := client.ExchangeCode(context.Background(), "auth-code-123", "http://localhost/callback")

	require.NoError(t, err)
	assert.Equal(t, "access-token", tokens.AccessToken)
	assert.Equal(t, "refresh-token", tokens.RefreshToken)
	assert.Equal(t, 3599, tokens.ExpiresIn)
}

func TestExchangeCode_EmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ExchangeCode(context.Background(), "code", "uri")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty access token")
}

func TestRefreshToken_InvalidGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.RefreshToken(context.Background(), "revoked-token")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid_grant")
}

func TestListFolders_FollowsPagination(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/drive/v3/files", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		queries = append(queries, r.URL.Query().Get("q"))

		if r.URL.Query().Get("pageToken") == "" {
			fmt.Fprint(w, `{"files":[{"id":"f1","name":"Mercy Hospital"},{"id":"f2","name":"Oak Street Lofts"}],"nextPageToken":"page-2"}`)
			return
		}
		fmt.Fprint(w, `{"files":[{"id":"f3","name":"Depot Remodel"}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	folders, err := client.ListFolders(context.Background(), "token-abc", "root-folder")

	require.NoError(t, err)
	require.Len(t, folders, 3)
	assert.Equal(t, "f1", folders[0].ID)
	assert.Equal(t, "Depot Remodel", folders[2].Name)
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "'root-folder' in parents")
	assert.Contains(t, queries[0], MimeTypeFolder)
}

func TestListFiles_ExpiredToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ListFiles(context.Background(), "stale-token", "folder-1", MimeTypePDF)

	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestUploadFile_MultipartRelated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload/drive/v3/files", r.URL.Path)
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/related; boundary="))

		fmt.Fprint(w, `{"id":"file-9","name":"Plumbing_Apex Mechanical.pdf","mimeType":"application/pdf"}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	file, err := client.UploadFile(context.Background(), "token", "folder-1",
		"Plumbing_Apex Mechanical.pdf", MimeTypePDF, []byte("%PDF-1.4 test"))

	require.NoError(t, err)
	assert.Equal(t, "file-9", file.ID)
	assert.Equal(t, "Plumbing_Apex Mechanical.pdf", file.Name)
}

func TestDownloadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/drive/v3/files/file-42", r.URL.Path)
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		w.Write([]byte("%PDF-1.4 content"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	data, err := client.DownloadFile(context.Background(), "token", "file-42")

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 content"), data)
}

func TestEscapeQueryValue(t *testing.T) {
	assert.Equal(t, `O\'Brien Builders`, escapeQueryValue("O'Brien Builders"))
	assert.Equal(t, `path\\name`, escapeQueryValue(`path\name`))
	assert.Equal(t, "plain", escapeQueryValue("plain"))
}
