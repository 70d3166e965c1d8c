// internal/models/proposal.go
package models

// ParsedProposal is the result of parsing one trade out of a proposal
// filename. A filename naming several trades yields several of these,
// all sharing the same company and raw filename.
type ParsedProposal struct {
	CompanyName string `json:"companyName"`
	TradeName   string `json:"tradeName"`
	RawFilename string `json:"rawFilename"`
}

type Proposal struct {
	ID            string                 `json:"id"`
	ProjectID     string                 `json:"projectId"`
	TradeID       string                 `json:"tradeId,omitempty"`
	CompanyName   string                 `json:"companyName"`
	DriveFileID   string                 `json:"driveFileId,omitempty"`
	DriveFileName string                 `json:"driveFileName,omitempty"`
	EmailSource   string                 `json:"emailSource,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	ReceivedAt    string                 `json:"receivedAt"`
}

// BidderStats is one row of the per-project bid leveling board: how many
// distinct companies have bid a given trade.
type BidderStats struct {
	ProjectID       string `json:"projectId"`
	TradeID         string `json:"tradeId"`
	TradeName       string `json:"tradeName"`
	DisplayName     string `json:"displayName"`
	BidderCount     int    `json:"bidderCount"`
	ProposalCount   int    `json:"proposalCount"`
	LastBidReceived string `json:"lastBidReceived,omitempty"`
}
