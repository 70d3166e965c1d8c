// internal/models/email.go
package models

// InboundEmail mirrors the message payload delivered by the AgentMail
// webhook on message.received events.
type InboundEmail struct {
	MessageID   string            `json:"messageId"`
	InboxID     string            `json:"inboxId"`
	ThreadID    string            `json:"threadId,omitempty"`
	From        string            `json:"from"`
	To          []string          `json:"to,omitempty"`
	Subject     string            `json:"subject"`
	Text        string            `json:"text,omitempty"`
	HTML        string            `json:"html,omitempty"`
	Attachments []EmailAttachment `json:"attachments,omitempty"`
}

type EmailAttachment struct {
	AttachmentID string `json:"attachmentId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// BCExtraction is what the BuildingConnected notification extractor pulls
// out of a "Proposal Submitted" email.
type BCExtraction struct {
	ProjectName   string   `json:"projectName,omitempty"`
	CompanyName   string   `json:"companyName,omitempty"`
	Trade         string   `json:"trade,omitempty"`
	ProposalLinks []string `json:"proposalLinks,omitempty"`
}
