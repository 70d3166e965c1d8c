// internal/workers/intake/fetch-email-attachment/models.go
package fetchemailattachment

import (
	"context"

	"bidbuddy-workers/internal/common/agentmail"
	"bidbuddy-workers/internal/common/logger"
)

// AgentMailService is the slice of the AgentMail client this worker uses.
type AgentMailService interface {
	GetMessage(ctx context.Context, inboxID, messageID string) (*agentmail.Message, error)
	DownloadAttachment(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error)
}

type Input struct {
	InboxID      string `json:"inboxId"`
	MessageID    string `json:"messageId"`
	AttachmentID string `json:"attachmentId"`
	Filename     string `json:"filename,omitempty"`
}

type Output struct {
	Success      bool   `json:"success"`
	AttachmentID string `json:"attachmentId"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size"`
	Content      string `json:"content"`
	FetchedAt    string `json:"fetchedAt"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	AgentMail AgentMailService
	Logger    logger.Logger
}
