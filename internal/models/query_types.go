// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeListProjects      QueryType = "list_projects"
	QueryTypeGetProject        QueryType = "get_project"
	QueryTypeToggleProject     QueryType = "toggle_project"
	QueryTypeListTrades        QueryType = "list_trades"
	QueryTypeCreateTrade       QueryType = "create_trade"
	QueryTypeDeactivateTrade   QueryType = "deactivate_trade"
	QueryTypeListProjectTrades QueryType = "list_project_trades"
	QueryTypeListProposals     QueryType = "list_proposals"
	QueryTypeGetBidderStats    QueryType = "get_bidder_stats"
	QueryTypeGetSyncStatus     QueryType = "get_sync_status"
)
