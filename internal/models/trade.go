// internal/models/trade.go
package models

type Trade struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// ProjectTrade links a trade to a project, optionally under a custom
// display name for that project's bid sheet.
type ProjectTrade struct {
	ID         string `json:"id"`
	ProjectID  string `json:"projectId"`
	TradeID    string `json:"tradeId"`
	CustomName string `json:"customName,omitempty"`
	IsActive   bool   `json:"isActive"`
}

// TradeAlias maps a token as it appears in filenames ("bath", "cleanup")
// to the canonical trade name it should resolve to.
type TradeAlias struct {
	ID        string `json:"id"`
	UserID    string `json:"userId,omitempty"`
	Alias     string `json:"alias"`
	Canonical string `json:"canonical"`
}
