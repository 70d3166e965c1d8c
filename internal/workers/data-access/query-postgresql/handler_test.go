// internal/workers/data-access/query-postgresql/handler_test.go
package querypostgresql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/workers/data-access/query-postgresql/queries"
)

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	config := &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       5 * time.Second,
	}
	return NewHandler(config, db, logger.NewTestLogger(t)), mock
}

func createValidInput(queryType models.QueryType) *Input {
	input := &Input{
		QueryType: string(queryType),
	}

	switch queryType {
	case models.QueryTypeListProjects, models.QueryTypeListTrades:
		input.UserID = "user-1"
	case models.QueryTypeGetProject, models.QueryTypeListProjectTrades,
		models.QueryTypeListProposals, models.QueryTypeGetBidderStats,
		models.QueryTypeGetSyncStatus:
		input.ProjectID = "project-1"
	case models.QueryTypeToggleProject:
		input.ProjectID = "project-1"
		enabled := true
		input.Enabled = &enabled
	case models.QueryTypeCreateTrade:
		input.UserID = "user-1"
		input.TradeName = "Plumbing"
	case models.QueryTypeDeactivateTrade:
		input.UserID = "user-1"
		input.TradeID = "trade-1"
	}

	return input
}

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name           string
		queryType      models.QueryType
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "list projects",
			queryType: models.QueryTypeListProjects,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "user_id", "name", "enabled", "drive_folder_id", "drive_folder_name",
					"is_drive_folder", "last_modified_time", "created_at", "updated_at",
				}).AddRow(
					"project-1", "user-1", "Elm Street Office", true,
					"folder-1", "Elm Street Office", true,
					"2026-01-10T10:00:00Z", "2026-01-01", "2026-01-10",
				).AddRow(
					"project-2", "user-1", "Riverside Clinic", false,
					nil, nil, false, nil, "2026-01-02", "2026-01-02",
				)
				mock.ExpectQuery(`FROM projects WHERE user_id = \$1`).
					WithArgs("user-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "Elm Street Office", data[0]["name"])
				assert.Equal(t, true, data[0]["enabled"])
				assert.Equal(t, "folder-1", data[0]["driveFolderId"])
				assert.Equal(t, "", data[1]["driveFolderId"])
				assert.Equal(t, false, data[1]["enabled"])
			},
		},
		{
			name:      "get project",
			queryType: models.QueryTypeGetProject,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "user_id", "name", "enabled", "drive_folder_id", "drive_folder_name",
					"is_drive_folder", "last_modified_time", "created_at", "updated_at",
				}).AddRow(
					"project-1", "user-1", "Elm Street Office", true,
					"folder-1", "Elm Street Office", true,
					"2026-01-10T10:00:00Z", "2026-01-01", "2026-01-10",
				)
				mock.ExpectQuery(`FROM projects WHERE id = \$1`).
					WithArgs("project-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "project-1", data["id"])
				assert.Equal(t, "Elm Street Office", data["name"])
				assert.Equal(t, true, data["isDriveFolder"])
			},
		},
		{
			name:      "toggle project",
			queryType: models.QueryTypeToggleProject,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name", "enabled"}).
					AddRow("project-1", "Elm Street Office", true)
				mock.ExpectQuery(`UPDATE projects SET enabled = \$2`).
					WithArgs("project-1", true).
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, true, data["enabled"])
			},
		},
		{
			name:      "list trades",
			queryType: models.QueryTypeListTrades,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "user_id", "name", "is_active"}).
					AddRow("trade-1", "user-1", "Electrical", true).
					AddRow("trade-2", "user-1", "Plumbing", true)
				mock.ExpectQuery(`FROM trades WHERE user_id = \$1 AND is_active = TRUE`).
					WithArgs("user-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "Electrical", data[0]["name"])
			},
		},
		{
			name:      "create trade",
			queryType: models.QueryTypeCreateTrade,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id FROM trades`).
					WithArgs("user-1", "Plumbing").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectExec(`INSERT INTO trades`).
					WithArgs(sqlmock.AnyArg(), "user-1", "Plumbing").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, true, data["created"])
				assert.NotEmpty(t, data["id"])
			},
		},
		{
			name:      "deactivate trade",
			queryType: models.QueryTypeDeactivateTrade,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name"}).
					AddRow("trade-1", "Plumbing")
				mock.ExpectQuery(`UPDATE trades SET is_active = FALSE`).
					WithArgs("trade-1", "user-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				data := output.Data.(map[string]interface{})
				assert.Equal(t, false, data["isActive"])
			},
		},
		{
			name:      "list project trades",
			queryType: models.QueryTypeListProjectTrades,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "project_id", "trade_id", "name", "custom_name", "is_active",
				}).AddRow(
					"pt-1", "project-1", "trade-1", "Electrical", nil, true,
				).AddRow(
					"pt-2", "project-1", "trade-2", "Plumbing", "Plumbing & Gas", true,
				)
				mock.ExpectQuery(`FROM project_trades pt`).
					WithArgs("project-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "Electrical", data[0]["displayName"])
				assert.Equal(t, "Plumbing & Gas", data[1]["displayName"])
				assert.Equal(t, "Plumbing", data[1]["tradeName"])
			},
		},
		{
			name:      "list proposals",
			queryType: models.QueryTypeListProposals,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"id", "project_id", "trade_id", "company_name", "drive_file_id",
					"drive_file_name", "email_source", "received_at",
				}).AddRow(
					"prop-1", "project-1", "trade-1", "Apex Mechanical",
					"file-1", "Plumbing_Apex Mechanical.pdf", nil, "2026-02-01T09:00:00Z",
				)
				mock.ExpectQuery(`FROM proposals WHERE project_id = \$1 ORDER BY`).
					WithArgs("project-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, "Apex Mechanical", data[0]["companyName"])
				assert.Equal(t, "", data[0]["emailSource"])
			},
		},
		{
			name:      "get bidder stats",
			queryType: models.QueryTypeGetBidderStats,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"project_id", "trade_id", "trade_name", "display_name",
					"bidder_count", "proposal_count", "last_bid_received",
				}).AddRow(
					"project-1", "trade-1", "Electrical", "Electrical", 3, 4, "2026-02-01T09:00:00Z",
				).AddRow(
					"project-1", "trade-2", "Plumbing", "Plumbing & Gas", 2, 2, nil,
				)
				mock.ExpectQuery(`FROM bidder_stats WHERE project_id = \$1`).
					WithArgs("project-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)

				data := output.Data.([]map[string]interface{})
				assert.Equal(t, 3, data[0]["bidderCount"])
				assert.Equal(t, "", data[1]["lastBidReceived"])
			},
		},
		{
			name:      "get sync status",
			queryType: models.QueryTypeGetSyncStatus,
			mockQuery: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{
					"name", "count", "bidders", "trades", "total_trades",
				}).AddRow("Elm Street Office", 12, 7, 4, 9)
				mock.ExpectQuery(`LEFT JOIN proposals p ON`).
					WithArgs("project-1").
					WillReturnRows(rows)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1, output.RowCount)

				data := output.Data.(map[string]interface{})
				assert.Equal(t, "Elm Street Office", data["projectName"])
				assert.Equal(t, 12, data["totalProposals"])
				assert.Equal(t, 7, data["uniqueBidders"])
				assert.Equal(t, 4, data["tradesWithBids"])
				assert.Equal(t, 9, data["totalTrades"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := createTestHandler(t)
			tt.mockQuery(mock)

			output, err := handler.Execute(context.Background(), createValidInput(tt.queryType))
			require.NoError(t, err)
			require.NotNil(t, output)
			assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			tt.validateOutput(t, output)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_CreateTradeIdempotent(t *testing.T) {
	handler, mock := createTestHandler(t)

	mock.ExpectQuery(`SELECT id FROM trades`).
		WithArgs("user-1", "Plumbing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("trade-1"))

	output, err := handler.Execute(context.Background(), createValidInput(models.QueryTypeCreateTrade))
	require.NoError(t, err)

	data := output.Data.(map[string]interface{})
	assert.Equal(t, "trade-1", data["id"])
	assert.Equal(t, false, data["created"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ListTradesIncludesInactive(t *testing.T) {
	handler, mock := createTestHandler(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "is_active"}).
		AddRow("trade-1", "user-1", "Electrical", true).
		AddRow("trade-3", "user-1", "Roofing", false)
	mock.ExpectQuery(`FROM trades WHERE user_id = \$1 ORDER BY name`).
		WithArgs("user-1").
		WillReturnRows(rows)

	input := createValidInput(models.QueryTypeListTrades)
	input.Filters = map[string]interface{}{"includeInactive": true}

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ListProposalsByTrade(t *testing.T) {
	handler, mock := createTestHandler(t)

	rows := sqlmock.NewRows([]string{
		"id", "project_id", "trade_id", "company_name", "drive_file_id",
		"drive_file_name", "email_source", "received_at",
	}).AddRow(
		"prop-1", "project-1", "trade-1", "Apex Mechanical",
		nil, nil, "bids@agentmail.to", "2026-02-01T09:00:00Z",
	)
	mock.ExpectQuery(`WHERE project_id = \$1 AND trade_id = \$2`).
		WithArgs("project-1", "trade-1").
		WillReturnRows(rows)

	input := createValidInput(models.QueryTypeListProposals)
	input.TradeID = "trade-1"

	output, err := handler.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InvalidQueryType(t *testing.T) {
	handler, _ := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{QueryType: "drop_tables"})
	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, ErrInvalidQueryType))
}

func TestHandler_Execute_MissingParam(t *testing.T) {
	handler, _ := createTestHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(models.QueryTypeListProjects),
	})
	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, queries.ErrMissingParam))
}

func TestHandler_Execute_ProjectNotFound(t *testing.T) {
	handler, mock := createTestHandler(t)

	mock.ExpectQuery(`FROM projects WHERE id = \$1`).
		WithArgs("project-1").
		WillReturnError(sql.ErrNoRows)

	output, err := handler.Execute(context.Background(), createValidInput(models.QueryTypeGetProject))
	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestHandler_Execute_QueryTimeout(t *testing.T) {
	handler, mock := createTestHandler(t)

	mock.ExpectQuery(`FROM projects WHERE user_id = \$1`).
		WithArgs("user-1").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "enabled", "drive_folder_id", "drive_folder_name",
			"is_drive_folder", "last_modified_time", "created_at", "updated_at",
		}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	output, err := handler.Execute(ctx, createValidInput(models.QueryTypeListProjects))
	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, ErrQueryTimeout))
}

func TestHandler_Execute_QueryError(t *testing.T) {
	handler, mock := createTestHandler(t)

	mock.ExpectQuery(`FROM bidder_stats WHERE project_id = \$1`).
		WithArgs("project-1").
		WillReturnError(errors.New("connection reset by peer"))

	output, err := handler.Execute(context.Background(), createValidInput(models.QueryTypeGetBidderStats))
	require.Error(t, err)
	assert.Nil(t, output)
	assert.Contains(t, err.Error(), "connection reset")
}
