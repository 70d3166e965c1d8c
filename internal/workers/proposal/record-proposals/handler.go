// internal/workers/proposal/record-proposals/handler.go
package recordproposals

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "record-proposals"
)

var (
	ErrInvalidInput         = errors.New("PROPOSAL_VALIDATION_FAILED")
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		retries := int32(0)
		if errors.Is(err, ErrInvalidInput) {
			errorCode = "PROPOSAL_VALIDATION_FAILED"
		} else if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
			retries = 3
		}
		h.failJob(client, job, errorCode, err.Error(), retries)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ProjectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidInput)
	}
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if len(input.Proposals) == 0 {
		return nil, fmt.Errorf("%w: proposals list is empty", ErrInvalidInput)
	}

	receivedAt := input.ReceivedAt
	if receivedAt == "" {
		receivedAt = time.Now().UTC().Format(time.RFC3339)
	}

	metadataJSON, err := json.Marshal(input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal metadata: %v", ErrDatabaseInsertFailed, err)
	}

	output := &Output{
		RecordedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, proposal := range input.Proposals {
		tradeID, created, err := h.resolveTrade(ctx, input.UserID, proposal.TradeName)
		if err != nil {
			return nil, err
		}
		if created {
			output.TradesCreated++
			metrics.TradesResolved.WithLabelValues("created").Inc()
		} else {
			metrics.TradesResolved.WithLabelValues("existing").Inc()
		}

		if err := h.linkTradeToProject(ctx, input.ProjectID, tradeID); err != nil {
			return nil, err
		}

		proposalID := uuid.New().String()
		result, err := h.db.ExecContext(ctx, `
			INSERT INTO proposals (
				id, project_id, trade_id, company_name,
				drive_file_id, drive_file_name, email_source, metadata, received_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (project_id, company_name, trade_id) DO NOTHING`,
			proposalID,
			input.ProjectID,
			tradeID,
			proposal.CompanyName,
			nullable(input.DriveFileID),
			nullable(input.DriveFileName),
			nullable(input.EmailSource),
			metadataJSON,
			receivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: insert proposal for trade %q: %v", ErrDatabaseInsertFailed, proposal.TradeName, err)
		}

		// The unique constraint is the duplicate check: zero rows means
		// this company already bid this trade on this project.
		rows, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("%w: rows affected: %v", ErrDatabaseInsertFailed, err)
		}
		if rows == 0 {
			output.Skipped++
			continue
		}

		output.Created++
		output.ProposalIDs = append(output.ProposalIDs, proposalID)
		metrics.ProposalsRecorded.Inc()
	}

	h.writeAuditLog(ctx, input, output)

	h.logger.Info("proposals recorded", map[string]interface{}{
		"projectId":     input.ProjectID,
		"created":       output.Created,
		"skipped":       output.Skipped,
		"tradesCreated": output.TradesCreated,
	})

	output.Success = true
	return output, nil
}

// resolveTrade finds the user's trade by name, creating it when the
// filename named a trade the user has never tracked before.
func (h *Handler) resolveTrade(ctx context.Context, userID, tradeName string) (string, bool, error) {
	var tradeID string
	err := h.db.QueryRowContext(ctx, `
		SELECT id FROM trades
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)`,
		userID, tradeName).Scan(&tradeID)
	if err == nil {
		return tradeID, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("%w: trade lookup for %q: %v", ErrDatabaseInsertFailed, tradeName, err)
	}

	tradeID = uuid.New().String()
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO trades (id, user_id, name, is_active)
		VALUES ($1, $2, $3, true)`,
		tradeID, userID, tradeName)
	if err != nil {
		return "", false, fmt.Errorf("%w: create trade %q: %v", ErrDatabaseInsertFailed, tradeName, err)
	}

	h.logger.Info("trade auto-created", map[string]interface{}{
		"tradeId":   tradeID,
		"tradeName": tradeName,
	})
	return tradeID, true, nil
}

func (h *Handler) linkTradeToProject(ctx context.Context, projectID, tradeID string) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO project_trades (id, project_id, trade_id, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (project_id, trade_id) DO NOTHING`,
		uuid.New().String(), projectID, tradeID)
	if err != nil {
		return fmt.Errorf("%w: link trade to project: %v", ErrDatabaseInsertFailed, err)
	}
	return nil
}

// writeAuditLog records the batch outcome. Failures are logged and
// swallowed so bookkeeping never fails the job.
func (h *Handler) writeAuditLog(ctx context.Context, input *Input, output *Output) {
	details, err := json.Marshal(map[string]interface{}{
		"projectId":     input.ProjectID,
		"created":       output.Created,
		"skipped":       output.Skipped,
		"tradesCreated": output.TradesCreated,
		"source":        input.EmailSource,
		"driveFileId":   input.DriveFileID,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		details = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"proposals_recorded",
		"project",
		input.ProjectID,
		details,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":     err,
			"projectId": input.ProjectID,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// failJob retries transient failures through the engine and throws BPMN
// errors for everything the workflow has to route on.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, retries int32) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
		"retries":      retries,
	})

	if retries > 0 && job.Retries > 1 {
		_, err := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(job.Retries - 1).
			ErrorMessage(fmt.Sprintf("[%s] %s", errorCode, errorMessage)).
			Send(context.Background())
		if err != nil {
			h.logger.Error("failed to fail job", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return
	}

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Execute exposes the recording step for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
