package refreshbidderstats

import "bidbuddy-workers/internal/models"

type Input struct {
	ProjectID string `json:"projectId"`
}

type Output struct {
	Success        bool                 `json:"success"`
	ProjectID      string               `json:"projectId"`
	TradeCount     int                  `json:"tradeCount"`
	TotalProposals int                  `json:"totalProposals"`
	Stats          []models.BidderStats `json:"stats,omitempty"`
	RefreshedAt    string               `json:"refreshedAt"`
}
