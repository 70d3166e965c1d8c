// internal/workers/intake/forward-email/models.go
package forwardemail

import (
	"context"

	"bidbuddy-workers/internal/common/agentmail"
	"bidbuddy-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// AgentMailService is the slice of the AgentMail client this worker uses.
type AgentMailService interface {
	GetMessage(ctx context.Context, inboxID, messageID string) (*agentmail.Message, error)
	DownloadAttachment(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error)
}

type SESService interface {
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error)
}

type Input struct {
	InboxID   string `json:"inboxId"`
	MessageID string `json:"messageId"`
	// ForwardTo overrides the configured destination, normally the
	// account owner's address looked up earlier in the process.
	ForwardTo string `json:"forwardTo,omitempty"`
	Note      string `json:"note,omitempty"`
}

type Output struct {
	Success       bool   `json:"success"`
	ForwardedTo   string `json:"forwardedTo"`
	SESMessageID  string `json:"sesMessageId,omitempty"`
	AttachmentCnt int    `json:"attachmentCount"`
	ForwardedAt   string `json:"forwardedAt"`
}

// ServiceDependencies contains all external dependencies for the service
type ServiceDependencies struct {
	AgentMail AgentMailService
	SES       SESService
	Logger    logger.Logger
}
