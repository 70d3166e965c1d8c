// internal/workers/drive/sync-project-proposals/service.go
package syncprojectproposals

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/filename"

	"github.com/google/uuid"
)

type Service struct {
	config *Config
	logger logger.Logger
	drive  DriveService
	db     *sql.DB
	parser *filename.Parser
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		drive:  deps.Drive,
		db:     deps.DB,
		parser: deps.Parser,
	}
}

// Execute scans a project's Drive folder and records every parseable PDF
// as proposals, one row per trade named in the filename. Files already
// tracked by their Drive file id are not re-recorded, but their trades
// are still linked to the project so the bid sheet stays complete.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserID == "" {
		return nil, validationError("userId is required")
	}
	if input.ProjectID == "" {
		return nil, validationError("projectId is required")
	}

	accessToken, err := s.loadAccessToken(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	folderID, projectName, err := s.loadProjectFolder(ctx, input.ProjectID, input.UserID)
	if err != nil {
		return nil, err
	}

	files, err := s.drive.ListFiles(ctx, accessToken, folderID, googledrive.MimeTypePDF)
	if err != nil {
		if googledrive.IsAuthError(err) {
			return nil, errors.NewDriveAuthExpiredError(err.Error())
		}
		return nil, errors.NewDriveAPIError("list_files", err)
	}

	knownFiles, err := s.loadKnownFileIDs(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	tradesByName, err := s.loadTrades(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	output := &Output{FilesProcessed: len(files)}

	for _, file := range files {
		parsed, err := s.parser.Parse(file.Name)
		if err != nil {
			output.Errors = append(output.Errors, FileError{Filename: file.Name, Error: err.Error()})
			metrics.DriveFilesSynced.WithLabelValues("parse_failed").Inc()
			continue
		}

		if knownFiles[file.ID] {
			output.Skipped++
			metrics.DriveFilesSynced.WithLabelValues("skipped").Inc()
			if err := s.linkKnownTrades(ctx, input.ProjectID, parsed.TradeNames, tradesByName); err != nil {
				return nil, err
			}
			continue
		}

		created, tradesCreated, err := s.recordFile(ctx, input, file, parsed, tradesByName)
		if err != nil {
			output.Errors = append(output.Errors, FileError{Filename: file.Name, Error: err.Error()})
			metrics.DriveFilesSynced.WithLabelValues("record_failed").Inc()
			continue
		}
		output.NewProposals += created
		output.TradesCreated += tradesCreated
		metrics.DriveFilesSynced.WithLabelValues("recorded").Inc()
	}

	output.Success = true
	output.SyncedAt = time.Now().UTC().Format(time.RFC3339)

	s.logger.Info("project proposals synced", map[string]interface{}{
		"projectId":      input.ProjectID,
		"projectName":    projectName,
		"filesProcessed": output.FilesProcessed,
		"newProposals":   output.NewProposals,
		"skipped":        output.Skipped,
		"errors":         len(output.Errors),
	})

	return output, nil
}

// recordFile writes one proposal row per trade named in the filename.
// Duplicate rows are absorbed by the unique constraint on
// (project_id, company_name, trade_id).
func (s *Service) recordFile(ctx context.Context, input *Input, file googledrive.File, parsed *filename.Result, tradesByName map[string]string) (int, int, error) {
	var created, tradesCreated int

	for _, tradeName := range parsed.TradeNames {
		tradeID, ok := tradesByName[strings.ToLower(tradeName)]
		if !ok {
			newID, err := s.createTrade(ctx, input.UserID, tradeName)
			if err != nil {
				return created, tradesCreated, err
			}
			tradeID = newID
			tradesByName[strings.ToLower(tradeName)] = tradeID
			tradesCreated++
			metrics.TradesResolved.WithLabelValues("created").Inc()
		} else {
			metrics.TradesResolved.WithLabelValues("existing").Inc()
		}

		if err := s.linkTradeToProject(ctx, input.ProjectID, tradeID); err != nil {
			return created, tradesCreated, err
		}

		metadata, err := json.Marshal(map[string]interface{}{
			"parsedTrades":      parsed.TradeNames,
			"rawTrades":         parsed.RawTrades,
			"matchedTrade":      tradeName,
			"driveCreatedTime":  file.CreatedTime,
			"driveModifiedTime": file.ModifiedTime,
		})
		if err != nil {
			return created, tradesCreated, errors.NewDatabaseInsertFailedError(err)
		}

		result, err := s.db.ExecContext(ctx, `
			INSERT INTO proposals (
				id, project_id, trade_id, company_name,
				drive_file_id, drive_file_name, metadata, received_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			ON CONFLICT (project_id, company_name, trade_id) DO NOTHING`,
			uuid.New().String(), input.ProjectID, tradeID, parsed.CompanyName,
			file.ID, file.Name, metadata)
		if err != nil {
			return created, tradesCreated, errors.NewDatabaseInsertFailedError(err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return created, tradesCreated, errors.NewDatabaseInsertFailedError(err)
		}
		if rows > 0 {
			created++
			metrics.ProposalsRecorded.Inc()
		}
	}

	return created, tradesCreated, nil
}

// linkKnownTrades re-links the trades of an already recorded file. Only
// trades the user already has are linked, a skipped file never creates
// new ones.
func (s *Service) linkKnownTrades(ctx context.Context, projectID string, tradeNames []string, tradesByName map[string]string) error {
	for _, tradeName := range tradeNames {
		tradeID, ok := tradesByName[strings.ToLower(tradeName)]
		if !ok {
			continue
		}
		if err := s.linkTradeToProject(ctx, projectID, tradeID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) createTrade(ctx context.Context, userID, tradeName string) (string, error) {
	tradeID := uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, user_id, name, is_active)
		VALUES ($1, $2, $3, true)`,
		tradeID, userID, tradeName)
	if err != nil {
		return "", errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("trade auto-created", map[string]interface{}{
		"tradeId":   tradeID,
		"tradeName": tradeName,
	})
	return tradeID, nil
}

func (s *Service) linkTradeToProject(ctx context.Context, projectID, tradeID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_trades (id, project_id, trade_id, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (project_id, trade_id) DO NOTHING`,
		uuid.New().String(), projectID, tradeID)
	if err != nil {
		return errors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

func (s *Service) loadAccessToken(ctx context.Context, userID string) (string, error) {
	var accessToken sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT google_access_token FROM profiles WHERE id = $1`, userID).Scan(&accessToken)
	if err == sql.ErrNoRows {
		return "", errors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return "", errors.NewQueryExecutionFailedError("profile_lookup", err)
	}
	if !accessToken.Valid || accessToken.String == "" {
		return "", errors.NewDriveAuthExpiredError("no access token on profile")
	}

	return accessToken.String, nil
}

func (s *Service) loadProjectFolder(ctx context.Context, projectID, userID string) (string, string, error) {
	var folderID sql.NullString
	var name string

	err := s.db.QueryRowContext(ctx, `
		SELECT drive_folder_id, name FROM projects
		WHERE id = $1 AND user_id = $2`, projectID, userID).Scan(&folderID, &name)
	if err == sql.ErrNoRows {
		return "", "", errors.NewResourceNotFoundError("postgres", fmt.Sprintf("project %s not found", projectID))
	}
	if err != nil {
		return "", "", errors.NewQueryExecutionFailedError("project_lookup", err)
	}
	if !folderID.Valid || folderID.String == "" {
		return "", "", errors.NewBusinessRuleError(
			"project has no Drive folder",
			fmt.Sprintf("projectId: %s", projectID),
		)
	}

	return folderID.String, name, nil
}

func (s *Service) loadKnownFileIDs(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT drive_file_id FROM proposals
		WHERE project_id = $1 AND drive_file_id IS NOT NULL`, projectID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("proposal_lookup", err)
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var fileID string
		if err := rows.Scan(&fileID); err != nil {
			return nil, errors.NewQueryExecutionFailedError("proposal_lookup", err)
		}
		known[fileID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("proposal_lookup", err)
	}

	return known, nil
}

func (s *Service) loadTrades(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name FROM trades WHERE user_id = $1`, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("trade_lookup", err)
	}
	defer rows.Close()

	trades := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errors.NewQueryExecutionFailedError("trade_lookup", err)
		}
		trades[strings.ToLower(name)] = id
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("trade_lookup", err)
	}

	return trades, nil
}

func validationError(message string) *errors.StandardError {
	return &errors.StandardError{
		Code:      "VALIDATION_FAILED",
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
