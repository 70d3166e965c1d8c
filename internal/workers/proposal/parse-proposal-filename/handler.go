// internal/workers/proposal/parse-proposal-filename/handler.go
package parseproposalfilename

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/filename"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "parse-proposal-filename"
)

type Handler struct {
	config *Config
	parser *filename.Parser
	logger logger.Logger
}

func NewHandler(config *Config, parser *filename.Parser, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		parser: parser,
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
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		outcome := "failed"
		if errors.Is(err, filename.ErrMalformedFilename) {
			errorCode = "MALFORMED_FILENAME"
			outcome = "malformed"
		} else if errors.Is(err, filename.ErrMissingCompanyName) {
			errorCode = "MISSING_COMPANY_NAME"
			outcome = "missing_company"
		}
		metrics.FilenamesParsed.WithLabelValues(outcome).Inc()
		h.failJob(client, job, errorCode, err.Error())
		return err
	}

	metrics.FilenamesParsed.WithLabelValues("parsed").Inc()
	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Filename == "" {
		return nil, fmt.Errorf("%w: filename variable is empty", filename.ErrMalformedFilename)
	}

	result, err := h.parser.Parse(input.Filename)
	if err != nil {
		return nil, err
	}

	h.logger.Info("filename parsed", map[string]interface{}{
		"filename":   input.Filename,
		"company":    result.CompanyName,
		"tradeCount": len(result.TradeNames),
	})

	return &Output{
		Success:     true,
		CompanyName: result.CompanyName,
		TradeNames:  result.TradeNames,
		RawTrades:   result.RawTrades,
		TradeCount:  len(result.TradeNames),
		Proposals:   result.Proposals(),
	}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

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

// Execute exposes the parse step for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
