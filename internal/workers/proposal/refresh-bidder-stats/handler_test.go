// internal/workers/proposal/refresh-bidder-stats/handler_test.go
package refreshbidderstats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"
)

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	config := &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       10 * time.Second,
		CacheTTL:      5 * time.Minute,
	}
	return NewHandler(config, db, redisClient, logger.NewTestLogger(t)), mock, mr
}

func expectRebuild(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bidder_stats").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO bidder_stats").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
}

func statsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"project_id", "trade_id", "trade_name", "display_name",
		"bidder_count", "proposal_count", "last_bid_received",
	}).
		AddRow("project-1", "trade-1", "Plumbing", "Plumbing", 3, 4, "2026-08-20T10:00:00Z").
		AddRow("project-1", "trade-2", "Roofing", "Roofing & Sheet Metal", 2, 2, "2026-08-19T16:30:00Z")
}

func TestHandler_Execute_RefreshesStats(t *testing.T) {
	handler, mock, mr := createTestHandler(t)

	expectRebuild(mock)
	mock.ExpectQuery("SELECT project_id, trade_id, trade_name").
		WithArgs("project-1").
		WillReturnRows(statsRows())

	output, err := handler.Execute(context.Background(), &Input{ProjectID: "project-1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, 2, output.TradeCount)
	assert.Equal(t, 6, output.TotalProposals)
	require.Len(t, output.Stats, 2)
	assert.Equal(t, "Roofing & Sheet Metal", output.Stats[1].DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())

	// Fresh rows are primed into the cache with a TTL
	cached, err := mr.Get("bidder_stats:project-1")
	require.NoError(t, err)
	var stats []models.BidderStats
	require.NoError(t, json.Unmarshal([]byte(cached), &stats))
	assert.Len(t, stats, 2)
	assert.Equal(t, 3, stats[0].BidderCount)
	assert.InDelta(t, (5 * time.Minute).Seconds(), mr.TTL("bidder_stats:project-1").Seconds(), 1)
}

func TestHandler_Execute_InvalidatesStaleCache(t *testing.T) {
	handler, mock, mr := createTestHandler(t)

	require.NoError(t, mr.Set("bidder_stats:project-1", `[{"tradeName":"stale"}]`))

	expectRebuild(mock)
	mock.ExpectQuery("SELECT project_id, trade_id, trade_name").
		WillReturnRows(statsRows())

	_, err := handler.Execute(context.Background(), &Input{ProjectID: "project-1"})
	require.NoError(t, err)

	cached, err := mr.Get("bidder_stats:project-1")
	require.NoError(t, err)
	assert.NotContains(t, cached, "stale")
}

func TestHandler_Execute_EmptyProject(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	expectRebuild(mock)
	mock.ExpectQuery("SELECT project_id, trade_id, trade_name").
		WillReturnRows(sqlmock.NewRows([]string{
			"project_id", "trade_id", "trade_name", "display_name",
			"bidder_count", "proposal_count", "last_bid_received",
		}))

	output, err := handler.Execute(context.Background(), &Input{ProjectID: "project-1"})

	require.NoError(t, err)
	assert.Equal(t, 0, output.TradeCount)
	assert.Equal(t, 0, output.TotalProposals)
}

func TestHandler_Execute_RebuildFailureRollsBack(t *testing.T) {
	handler, mock, _ := createTestHandler(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bidder_stats").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	output, err := handler.Execute(context.Background(), &Input{ProjectID: "project-1"})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.ErrorIs(t, err, ErrStatsRefreshFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MissingProjectID(t *testing.T) {
	handler, _, _ := createTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHandler_Execute_CacheFailureDoesNotFailJob(t *testing.T) {
	handler, mock, mr := createTestHandler(t)

	expectRebuild(mock)
	mock.ExpectQuery("SELECT project_id, trade_id, trade_name").
		WillReturnRows(statsRows())

	// Kill the redis server; refresh must still succeed off the table.
	mr.Close()

	output, err := handler.Execute(context.Background(), &Input{ProjectID: "project-1"})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, 2, output.TradeCount)
}
