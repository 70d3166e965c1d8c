// internal/workers/intake/classify-inbound-email/handler.go
package classifyinboundemail

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-inbound-email"

	buildingConnectedDomain = "buildingconnected.com"
	proposalSubjectPrefix   = "proposal submitted"
)

// proposalExtensions are the attachment types treated as bid documents.
var proposalExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
}

var proposalContentTypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/msword": true,
}

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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

	output := h.classify(&input)
	metrics.EmailsProcessed.WithLabelValues(output.Classification).Inc()

	h.logger.Info("email classified", map[string]interface{}{
		"messageId":      input.MessageID,
		"from":           input.From,
		"classification": output.Classification,
		"reason":         output.Reason,
	})

	h.completeJob(client, job, output)
	return nil
}

// classify applies the deterministic intake rules in priority order.
// There is no error path: any message lands in one of the four buckets.
func (h *Handler) classify(input *Input) *Output {
	output := &Output{
		Success:         true,
		AttachmentCount: len(input.Attachments),
	}

	from := strings.ToLower(input.From)
	subject := strings.ToLower(strings.TrimSpace(input.Subject))

	if strings.Contains(from, buildingConnectedDomain) && strings.HasPrefix(subject, proposalSubjectPrefix) {
		output.Classification = ClassificationBuildingConnected
		output.Reason = "BuildingConnected proposal notification"
		return output
	}

	proposalAttachments := filterProposalAttachments(input.Attachments)
	if len(proposalAttachments) > 0 {
		output.Classification = ClassificationBidProposal
		output.Reason = fmt.Sprintf("%d proposal document(s) attached", len(proposalAttachments))
		output.ProposalAttachments = proposalAttachments
		return output
	}

	if isAutomatedSender(from) {
		output.Classification = ClassificationSkip
		output.Reason = "automated sender with no proposal documents"
		return output
	}

	output.Classification = ClassificationQuestion
	output.Reason = "no proposal documents, forwarding to the account owner"
	return output
}

func filterProposalAttachments(attachments []models.EmailAttachment) []models.EmailAttachment {
	var out []models.EmailAttachment
	for _, att := range attachments {
		ext := strings.ToLower(filepath.Ext(att.Filename))
		if proposalExtensions[ext] || proposalContentTypes[strings.ToLower(att.ContentType)] {
			out = append(out, att)
		}
	}
	return out
}

func isAutomatedSender(from string) bool {
	for _, marker := range []string{"no-reply", "noreply", "donotreply", "mailer-daemon"} {
		if strings.Contains(from, marker) {
			return true
		}
	}
	return false
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

// Classify exposes the classification rules for tests.
func (h *Handler) Classify(input *Input) *Output {
	return h.classify(input)
}
