package parseproposalfilename

import "bidbuddy-workers/internal/models"

// Input carries the filename to parse. ProjectID and source metadata are
// passed through untouched so downstream recording tasks see them.
type Input struct {
	Filename  string `json:"filename"`
	ProjectID string `json:"projectId,omitempty"`
	Source    string `json:"source,omitempty"`
}

type Output struct {
	Success     bool                    `json:"success"`
	CompanyName string                  `json:"companyName"`
	TradeNames  []string                `json:"tradeNames"`
	RawTrades   string                  `json:"rawTrades"`
	TradeCount  int                     `json:"tradeCount"`
	Proposals   []models.ParsedProposal `json:"proposals"`
}
