// internal/workers/proposal/refresh-bidder-stats/handler.go
package refreshbidderstats

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/metrics"
	"bidbuddy-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "refresh-bidder-stats"

	cacheKeyPrefix = "bidder_stats:"
)

var (
	ErrInvalidInput       = errors.New("PROPOSAL_VALIDATION_FAILED")
	ErrStatsRefreshFailed = errors.New("STATS_REFRESH_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  redisClient,
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
		} else if errors.Is(err, ErrStatsRefreshFailed) {
			errorCode = "STATS_REFRESH_FAILED"
			// Concurrent refreshes of the same project resolve on one retry.
			retries = 1
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

	if err := h.rebuildStats(ctx, input.ProjectID); err != nil {
		return nil, err
	}

	stats, err := h.loadStats(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}

	h.refreshCache(ctx, input.ProjectID, stats)

	totalProposals := 0
	for _, s := range stats {
		totalProposals += s.ProposalCount
	}

	h.logger.Info("bidder stats refreshed", map[string]interface{}{
		"projectId":      input.ProjectID,
		"tradeCount":     len(stats),
		"totalProposals": totalProposals,
	})

	return &Output{
		Success:        true,
		ProjectID:      input.ProjectID,
		TradeCount:     len(stats),
		TotalProposals: totalProposals,
		Stats:          stats,
		RefreshedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// rebuildStats recomputes the project's rows inside one transaction so
// dashboard reads never see a half-rebuilt board.
func (h *Handler) rebuildStats(ctx context.Context, projectID string) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStatsRefreshFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bidder_stats WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("%w: clear stats: %v", ErrStatsRefreshFailed, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bidder_stats (
			project_id, trade_id, trade_name, display_name,
			bidder_count, proposal_count, last_bid_received
		)
		SELECT
			p.project_id,
			p.trade_id,
			t.name,
			COALESCE(pt.custom_name, t.name),
			COUNT(DISTINCT p.company_name),
			COUNT(*),
			MAX(p.received_at)
		FROM proposals p
		JOIN trades t ON t.id = p.trade_id
		LEFT JOIN project_trades pt
			ON pt.project_id = p.project_id AND pt.trade_id = p.trade_id
		WHERE p.project_id = $1
		GROUP BY p.project_id, p.trade_id, t.name, pt.custom_name`,
		projectID); err != nil {
		return fmt.Errorf("%w: rebuild stats: %v", ErrStatsRefreshFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStatsRefreshFailed, err)
	}
	return nil
}

func (h *Handler) loadStats(ctx context.Context, projectID string) ([]models.BidderStats, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT project_id, trade_id, trade_name, display_name,
		       bidder_count, proposal_count, COALESCE(last_bid_received, '')
		FROM bidder_stats
		WHERE project_id = $1
		ORDER BY trade_name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: load stats: %v", ErrStatsRefreshFailed, err)
	}
	defer rows.Close()

	stats := make([]models.BidderStats, 0, 8)
	for rows.Next() {
		var s models.BidderStats
		if err := rows.Scan(&s.ProjectID, &s.TradeID, &s.TradeName, &s.DisplayName,
			&s.BidderCount, &s.ProposalCount, &s.LastBidReceived); err != nil {
			return nil, fmt.Errorf("%w: scan stats: %v", ErrStatsRefreshFailed, err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate stats: %v", ErrStatsRefreshFailed, err)
	}
	return stats, nil
}

// refreshCache drops the stale entry and primes the fresh one. Cache
// trouble is logged and ignored, the table already holds the truth.
func (h *Handler) refreshCache(ctx context.Context, projectID string, stats []models.BidderStats) {
	key := cacheKeyPrefix + projectID

	if err := h.redis.Del(ctx, key).Err(); err != nil {
		h.logger.Warn("failed to invalidate stats cache", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	data, err := json.Marshal(stats)
	if err != nil {
		h.logger.Warn("failed to marshal stats for cache", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := h.redis.Set(ctx, key, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("failed to prime stats cache", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
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

// Execute exposes the refresh step for tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
