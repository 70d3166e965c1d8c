// internal/workers/communication/email-send/models.go
package emailsend

import (
	"context"
	"time"

	"bidbuddy-workers/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type SESService interface {
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error)
}

type Input struct {
	From        string                 `json:"from,omitempty"`
	To          string                 `json:"to"`
	CC          string                 `json:"cc,omitempty"`
	BCC         string                 `json:"bcc,omitempty"`
	ReplyTo     string                 `json:"replyTo,omitempty"`
	Subject     string                 `json:"subject"`
	Body        string                 `json:"body"`
	IsHTML      bool                   `json:"isHtml"`
	Priority    string                 `json:"priority,omitempty"`
	Attachments []Attachment           `json:"attachments,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"` // Base64 encoded
}

type Output struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	MessageID string    `json:"messageId,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	SentAt    time.Time `json:"sentAt,omitempty"`
}

type ServiceDependencies struct {
	SES    SESService
	Logger logger.Logger
}
