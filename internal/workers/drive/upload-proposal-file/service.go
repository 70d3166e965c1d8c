// internal/workers/drive/upload-proposal-file/service.go
package uploadproposalfile

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
)

type Service struct {
	config *Config
	logger logger.Logger
	drive  DriveService
	google GoogleTokenService
	db     *sql.DB
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		drive:  deps.Drive,
		google: deps.Google,
		db:     deps.DB,
	}
}

// profile is the slice of the profiles row the upload needs.
type profile struct {
	accessToken  string
	refreshToken string
	rootFolderID string
}

// Execute uploads one attachment into the user's Drive tree. The
// destination is the project folder whose name best matches the extracted
// project name; when nothing matches well enough the file goes to the
// fallback folder, created on demand, and the workflow notifies the user
// to file it manually.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	content, err := base64.StdEncoding.DecodeString(input.Content)
	if err != nil {
		return nil, validationError(fmt.Sprintf("content is not valid base64: %s", err))
	}

	prof, err := s.loadProfile(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	folder, usedFallback, err := s.pickFolder(ctx, prof, input.ProjectName)
	if err != nil {
		return nil, err
	}

	name := buildUploadName(input.TradeName, input.CompanyName, input.Filename)
	contentType := input.ContentType
	if contentType == "" {
		contentType = contentTypeFor(name)
	}

	file, err := s.uploadWithRefresh(ctx, input.UserID, prof, folder.ID, name, contentType, content)
	if err != nil {
		return nil, err
	}

	metrics.DriveFilesSynced.WithLabelValues("uploaded").Inc()

	s.logger.Info("proposal file uploaded", map[string]interface{}{
		"userId":       input.UserID,
		"fileId":       file.ID,
		"fileName":     name,
		"folderName":   folder.Name,
		"usedFallback": usedFallback,
	})

	return &Output{
		Success:      true,
		FileID:       file.ID,
		FileName:     name,
		FolderID:     folder.ID,
		FolderName:   folder.Name,
		UsedFallback: usedFallback,
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// pickFolder scores every folder under the Drive root against the project
// name and returns the best one above the threshold. Otherwise the
// fallback folder is looked up by exact name and created if missing.
func (s *Service) pickFolder(ctx context.Context, prof *profile, projectName string) (*googledrive.File, bool, error) {
	folders, err := s.drive.ListFolders(ctx, prof.accessToken, prof.rootFolderID)
	if err != nil {
		if googledrive.IsAuthError(err) {
			return nil, false, errors.NewDriveAuthExpiredError(err.Error())
		}
		return nil, false, errors.NewDriveAPIError("list_folders", err)
	}

	var best *googledrive.File
	bestScore := 0.0
	for i := range folders {
		score := folderScore(projectName, folders[i].Name)
		if score > bestScore {
			best = &folders[i]
			bestScore = score
		}
	}

	if best != nil && bestScore >= s.config.MatchThreshold {
		s.logger.Debug("project folder matched", map[string]interface{}{
			"projectName": projectName,
			"folderName":  best.Name,
			"score":       bestScore,
		})
		return best, false, nil
	}

	fallback, err := s.drive.FindFolderByName(ctx, prof.accessToken, prof.rootFolderID, s.config.FallbackFolderName)
	if err != nil {
		if googledrive.IsAuthError(err) {
			return nil, false, errors.NewDriveAuthExpiredError(err.Error())
		}
		return nil, false, errors.NewDriveAPIError("find_folder", err)
	}
	if fallback == nil {
		fallback, err = s.drive.CreateFolder(ctx, prof.accessToken, prof.rootFolderID, s.config.FallbackFolderName)
		if err != nil {
			return nil, false, errors.NewDriveAPIError("create_folder", err)
		}
		s.logger.Info("fallback folder created", map[string]interface{}{
			"folderName": s.config.FallbackFolderName,
		})
	}

	return fallback, true, nil
}

// uploadWithRefresh tries the upload once and, on a 401, refreshes the
// access token and tries again. A second 401 means the grant itself is
// gone and the workflow has to send the user back through OAuth.
func (s *Service) uploadWithRefresh(ctx context.Context, userID string, prof *profile, folderID, name, contentType string, content []byte) (*googledrive.File, error) {
	file, err := s.drive.UploadFile(ctx, prof.accessToken, folderID, name, contentType, content)
	if err == nil {
		return file, nil
	}
	if !googledrive.IsAuthError(err) {
		return nil, errors.NewDriveUploadFailedError(name, err)
	}

	if prof.refreshToken == "" {
		return nil, errors.NewDriveAuthExpiredError("no refresh token on profile")
	}

	tokens, err := s.google.RefreshToken(ctx, prof.refreshToken)
	if err != nil {
		return nil, errors.NewTokenRefreshFailedError(err)
	}
	prof.accessToken = tokens.AccessToken

	expiresAt := time.Now().UTC().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	_, err = s.db.ExecContext(ctx,
		`UPDATE profiles
		 SET google_access_token = $2, token_expires_at = $3, updated_at = NOW()
		 WHERE id = $1`,
		userID, tokens.AccessToken, expiresAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("access token refreshed mid-upload", map[string]interface{}{
		"userId": userID,
	})

	file, err = s.drive.UploadFile(ctx, prof.accessToken, folderID, name, contentType, content)
	if err != nil {
		if googledrive.IsAuthError(err) {
			return nil, errors.NewDriveAuthExpiredError("upload rejected after token refresh")
		}
		return nil, errors.NewDriveUploadFailedError(name, err)
	}
	return file, nil
}

func (s *Service) loadProfile(ctx context.Context, userID string) (*profile, error) {
	var accessToken, refreshToken, rootFolderID sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT google_access_token, google_refresh_token, drive_root_folder_id
		FROM profiles WHERE id = $1`, userID).
		Scan(&accessToken, &refreshToken, &rootFolderID)
	if err == sql.ErrNoRows {
		return nil, errors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("profile_lookup", err)
	}
	if !accessToken.Valid || accessToken.String == "" {
		return nil, errors.NewDriveAuthExpiredError("no access token on profile")
	}
	if !rootFolderID.Valid || rootFolderID.String == "" {
		return nil, errors.NewBusinessRuleError(
			"no Drive root folder configured",
			fmt.Sprintf("userId: %s", userID),
		)
	}

	return &profile{
		accessToken:  accessToken.String,
		refreshToken: refreshToken.String,
		rootFolderID: rootFolderID.String,
	}, nil
}

// folderScore rates how well a folder name matches the project name.
// Containment either way guarantees at least 0.8, so "Elm St" still
// matches the "Elm St Office Building" folder.
func folderScore(projectName, folderName string) float64 {
	a := strings.ToLower(strings.TrimSpace(projectName))
	b := strings.ToLower(strings.TrimSpace(folderName))
	if a == "" || b == "" {
		return 0
	}

	score := levenshteinRatio(a, b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		if score < 0.8 {
			score = 0.8
		}
	}
	return score
}

// levenshteinRatio is 1 minus the normalized edit distance over runes.
func levenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	dist := prev[len(rb)]
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1 - float64(dist)/float64(maxLen)
}

// buildUploadName renames the attachment to {trade}_{company}{ext} so the
// sync worker can parse it straight back. Extensions outside the
// whitelist collapse to .pdf.
func buildUploadName(tradeName, companyName, originalName string) string {
	trade := cleanNamePart(tradeName)
	company := cleanNamePart(companyName)

	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".pdf", ".docx", ".doc":
	default:
		ext = ".pdf"
	}

	return fmt.Sprintf("%s_%s%s", trade, company, ext)
}

var nameCleaner = strings.NewReplacer("/", "-", "\\", "-", ":", "-")

func cleanNamePart(s string) string {
	cleaned := strings.TrimSpace(nameCleaner.Replace(s))
	if cleaned == "" {
		return "unknown"
	}
	return cleaned
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	default:
		return "application/pdf"
	}
}

func validateInput(input *Input) error {
	if input.UserID == "" {
		return validationError("userId is required")
	}
	if input.ProjectName == "" {
		return validationError("projectName is required")
	}
	if input.Filename == "" {
		return validationError("filename is required")
	}
	if input.Content == "" {
		return validationError("content is required")
	}
	return nil
}

func validationError(message string) *errors.StandardError {
	return &errors.StandardError{
		Code:      "VALIDATION_FAILED",
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
