package indexproposal

// Input is the proposal document to index for dashboard search. Fields are
// denormalized (project and trade names included) so searches never need a
// join back to Postgres.
type Input struct {
	ProposalID    string `json:"proposalId"`
	ProjectID     string `json:"projectId"`
	ProjectName   string `json:"projectName,omitempty"`
	TradeID       string `json:"tradeId,omitempty"`
	TradeName     string `json:"tradeName"`
	CompanyName   string `json:"companyName"`
	DriveFileID   string `json:"driveFileId,omitempty"`
	DriveFileName string `json:"driveFileName,omitempty"`
	EmailSource   string `json:"emailSource,omitempty"`
	ReceivedAt    string `json:"receivedAt,omitempty"`
}

type Output struct {
	Success    bool   `json:"success"`
	Indexed    bool   `json:"indexed"`
	Index      string `json:"index"`
	DocumentID string `json:"documentId"`
	IndexedAt  string `json:"indexedAt"`
}
