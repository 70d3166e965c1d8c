// internal/workers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bidbuddy-workers/internal/models"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeListProjects:      ListProjects,
	models.QueryTypeGetProject:        GetProject,
	models.QueryTypeToggleProject:     ToggleProject,
	models.QueryTypeListTrades:        ListTrades,
	models.QueryTypeCreateTrade:       CreateTrade,
	models.QueryTypeDeactivateTrade:   DeactivateTrade,
	models.QueryTypeListProjectTrades: ListProjectTrades,
	models.QueryTypeListProposals:     ListProposals,
	models.QueryTypeGetBidderStats:    GetBidderStats,
	models.QueryTypeGetSyncStatus:     GetSyncStatus,
}

func Execute(ctx context.Context, db *sql.DB, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, db, params)
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func boolFilter(params map[string]interface{}, key string) bool {
	filters, ok := params["filters"].(map[string]interface{})
	if !ok {
		return false
	}
	v, ok := filters[key].(bool)
	return ok && v
}
