package recordproposals

import "bidbuddy-workers/internal/models"

// Input is one parsed proposal batch: every element of Proposals becomes
// its own proposals row. Drive and email fields describe where the file
// came from and are stored on each row.
type Input struct {
	ProjectID     string                  `json:"projectId"`
	UserID        string                  `json:"userId"`
	Proposals     []models.ParsedProposal `json:"proposals"`
	DriveFileID   string                  `json:"driveFileId,omitempty"`
	DriveFileName string                  `json:"driveFileName,omitempty"`
	EmailSource   string                  `json:"emailSource,omitempty"`
	ReceivedAt    string                  `json:"receivedAt,omitempty"`
	Metadata      map[string]interface{}  `json:"metadata,omitempty"`
}

type Output struct {
	Success       bool     `json:"success"`
	Created       int      `json:"created"`
	Skipped       int      `json:"skipped"`
	TradesCreated int      `json:"tradesCreated"`
	ProposalIDs   []string `json:"proposalIds,omitempty"`
	RecordedAt    string   `json:"recordedAt"`
}
