// internal/models/project.go
package models

type Project struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	Enabled          bool   `json:"enabled"`
	DriveFolderID    string `json:"driveFolderId,omitempty"`
	DriveFolderName  string `json:"driveFolderName,omitempty"`
	IsDriveFolder    bool   `json:"isDriveFolder"`
	LastModifiedTime string `json:"lastModifiedTime,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type ProjectToggle struct {
	Enabled bool `json:"enabled"`
}

// SyncStatus summarizes how far along a project's proposal intake is.
type SyncStatus struct {
	ProjectName    string `json:"projectName"`
	TotalProposals int    `json:"totalProposals"`
	UniqueBidders  int    `json:"uniqueBidders"`
	TradesWithBids int    `json:"tradesWithBids"`
	TotalTrades    int    `json:"totalTrades"`
}
