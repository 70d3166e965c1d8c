// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "bidbuddy-workers/internal/models"

// Input names a query from the registry plus whatever scoping fields it
// needs. Unused fields are simply left empty by the process.
type Input struct {
	QueryType string                 `json:"queryType"`
	UserID    string                 `json:"userId,omitempty"`
	ProjectID string                 `json:"projectId,omitempty"`
	TradeID   string                 `json:"tradeId,omitempty"`
	TradeName string                 `json:"tradeName,omitempty"`
	Enabled   *bool                  `json:"enabled,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

// Export constants for external use
var (
	QueryTypeListProjects      = models.QueryTypeListProjects
	QueryTypeGetProject        = models.QueryTypeGetProject
	QueryTypeToggleProject     = models.QueryTypeToggleProject
	QueryTypeListTrades        = models.QueryTypeListTrades
	QueryTypeCreateTrade       = models.QueryTypeCreateTrade
	QueryTypeDeactivateTrade   = models.QueryTypeDeactivateTrade
	QueryTypeListProjectTrades = models.QueryTypeListProjectTrades
	QueryTypeListProposals     = models.QueryTypeListProposals
	QueryTypeGetBidderStats    = models.QueryTypeGetBidderStats
	QueryTypeGetSyncStatus     = models.QueryTypeGetSyncStatus
)
