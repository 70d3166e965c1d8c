package extractbuildingconnected

import "bidbuddy-workers/internal/models"

type Input struct {
	MessageID string `json:"messageId,omitempty"`
	Subject   string `json:"subject"`
	HTML      string `json:"html,omitempty"`
	Text      string `json:"text,omitempty"`
}

type Output struct {
	Success    bool                `json:"success"`
	Extraction models.BCExtraction `json:"extraction"`
	FoundAll   bool                `json:"foundAll"`
}
