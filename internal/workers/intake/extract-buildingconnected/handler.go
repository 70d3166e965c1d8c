// internal/workers/intake/extract-buildingconnected/handler.go
package extractbuildingconnected

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "extract-buildingconnected"
)

var (
	ErrExtractionFailed = errors.New("EXTRACTION_FAILED")
)

// The notification format is not an API contract, so every pattern has a
// label fallback. Subject: "Proposal Submitted for {project}" with "- " and
// ": " variants. Company: bolded in the HTML body, or a plain-text label.
var (
	subjectProjectPattern = regexp.MustCompile(`(?i)^proposal submitted(?:\s+for)?\s*[:\-]?\s+(.+)$`)
	companyStrongPattern  = regexp.MustCompile(`(?is)<strong>\s*([^<]+?)\s*</strong>\s*has submitted`)
	companyLabelPattern   = regexp.MustCompile(`(?im)^\s*(?:Subcontractor|Company)\s*:\s*([^\r\n<]+)`)
	tradeLabelPattern     = regexp.MustCompile(`(?im)(?:Trade|Scope|Category)\s*:\s*([^\r\n<]+)`)
	downloadLinkPattern   = regexp.MustCompile(`https?://[^\s"'<>]+/download/[^\s"'<>]*`)
)

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

	output, err := h.execute(&input)
	if err != nil {
		h.failJob(client, job, "EXTRACTION_FAILED", err.Error())
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

// execute pulls project, company, trade and download links out of the
// notification. Partial hits are fine; only a message yielding neither
// project nor company is an extraction failure.
func (h *Handler) execute(input *Input) (*Output, error) {
	extraction := models.BCExtraction{
		ProjectName:   extractProjectName(input.Subject),
		CompanyName:   extractCompanyName(input.HTML, input.Text),
		Trade:         extractTrade(input.HTML, input.Text),
		ProposalLinks: extractDownloadLinks(input.HTML, input.Text),
	}

	if extraction.ProjectName == "" && extraction.CompanyName == "" {
		return nil, fmt.Errorf("%w: neither project nor company found in message %q",
			ErrExtractionFailed, input.MessageID)
	}

	h.logger.Info("notification extracted", map[string]interface{}{
		"messageId": input.MessageID,
		"project":   extraction.ProjectName,
		"company":   extraction.CompanyName,
		"trade":     extraction.Trade,
		"links":     len(extraction.ProposalLinks),
	})

	return &Output{
		Success:    true,
		Extraction: extraction,
		FoundAll:   extraction.ProjectName != "" && extraction.CompanyName != "" && extraction.Trade != "",
	}, nil
}

func extractProjectName(subject string) string {
	m := subjectProjectPattern.FindStringSubmatch(strings.TrimSpace(subject))
	if m == nil {
		return ""
	}
	return cleanValue(m[1])
}

func extractCompanyName(htmlBody, textBody string) string {
	if m := companyStrongPattern.FindStringSubmatch(htmlBody); m != nil {
		return cleanValue(m[1])
	}
	for _, body := range []string{htmlBody, textBody} {
		if m := companyLabelPattern.FindStringSubmatch(body); m != nil {
			return cleanValue(m[1])
		}
	}
	return ""
}

func extractTrade(htmlBody, textBody string) string {
	for _, body := range []string{htmlBody, textBody} {
		if m := tradeLabelPattern.FindStringSubmatch(body); m != nil {
			return cleanValue(m[1])
		}
	}
	return ""
}

func extractDownloadLinks(htmlBody, textBody string) []string {
	seen := make(map[string]bool)
	var links []string
	for _, body := range []string{htmlBody, textBody} {
		for _, link := range downloadLinkPattern.FindAllString(body, -1) {
			link = html.UnescapeString(link)
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
	}
	return links
}

func cleanValue(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
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

// Execute exposes the extraction step for tests.
func (h *Handler) Execute(input *Input) (*Output, error) {
	return h.execute(input)
}
