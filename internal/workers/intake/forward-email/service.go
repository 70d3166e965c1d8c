// internal/workers/intake/forward-email/service.go
package forwardemail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/agentmail"
	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	agentMail AgentMailService
	sesClient SESService
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    deps.Logger,
		agentMail: deps.AgentMail,
		sesClient: deps.SES,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.InboxID == "" || input.MessageID == "" {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "inboxId and messageId are required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	forwardTo := input.ForwardTo
	if forwardTo == "" {
		forwardTo = s.config.ForwardTo
	}
	if forwardTo == "" {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "no forwarding destination configured",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	if !validation.ValidateEmail(forwardTo) {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   fmt.Sprintf("invalid forwarding address: %s", forwardTo),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	message, err := s.agentMail.GetMessage(ctx, input.InboxID, input.MessageID)
	if err != nil {
		return nil, err
	}

	attachments, err := s.downloadAttachments(ctx, input, message)
	if err != nil {
		return nil, err
	}

	raw, err := s.buildForwardMessage(message, forwardTo, input.Note, attachments)
	if err != nil {
		return nil, errors.NewEmailSendFailedError("ses", err)
	}

	result, err := s.sesClient.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: raw},
		Source:       aws.String(s.config.ForwardFrom),
		Destinations: []string{forwardTo},
	})
	if err != nil {
		return nil, errors.NewEmailSendFailedError("ses", err)
	}

	s.logger.Info("email forwarded", map[string]interface{}{
		"messageId":    input.MessageID,
		"forwardedTo":  forwardTo,
		"attachments":  len(attachments),
		"sesMessageId": aws.ToString(result.MessageId),
	})

	return &Output{
		Success:       true,
		ForwardedTo:   forwardTo,
		SESMessageID:  aws.ToString(result.MessageId),
		AttachmentCnt: len(attachments),
		ForwardedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

type forwardAttachment struct {
	filename    string
	contentType string
	data        []byte
}

func (s *Service) downloadAttachments(ctx context.Context, input *Input, message *agentmail.Message) ([]forwardAttachment, error) {
	var result []forwardAttachment
	for i, att := range message.Attachments {
		if i >= s.config.MaxAttachments {
			s.logger.Warn("attachment limit reached, forwarding without the rest", map[string]interface{}{
				"messageId": input.MessageID,
				"limit":     s.config.MaxAttachments,
				"total":     len(message.Attachments),
			})
			break
		}

		data, err := s.agentMail.DownloadAttachment(ctx, input.InboxID, input.MessageID, att.AttachmentID)
		if err != nil {
			return nil, err
		}

		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		result = append(result, forwardAttachment{
			filename:    att.Filename,
			contentType: contentType,
			data:        data,
		})
	}
	return result, nil
}

// buildForwardMessage assembles a multipart/mixed MIME message. Reply-To
// points at the original sender so the owner can answer them directly.
func (s *Service) buildForwardMessage(message *agentmail.Message, forwardTo, note string, attachments []forwardAttachment) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("create text part: %w", err)
	}
	if _, err := textPart.Write([]byte(s.buildForwardBody(message, note))); err != nil {
		return nil, fmt.Errorf("write text part: %w", err)
	}

	if message.HTML != "" {
		htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type": {"text/html; charset=UTF-8"},
		})
		if err != nil {
			return nil, fmt.Errorf("create html part: %w", err)
		}
		if _, err := htmlPart.Write([]byte(message.HTML)); err != nil {
			return nil, fmt.Errorf("write html part: %w", err)
		}
	}

	for _, att := range attachments {
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", att.contentType, att.filename)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		if err := writeBase64Wrapped(part, att.data); err != nil {
			return nil, fmt.Errorf("write attachment %s: %w", att.filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.ForwardFrom)
	fmt.Fprintf(&msg, "To: %s\r\n", forwardTo)
	if message.From != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", message.From)
	}
	fmt.Fprintf(&msg, "Subject: %s%s\r\n", s.config.SubjectPrefix, message.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n", writer.Boundary())
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

func (s *Service) buildForwardBody(message *agentmail.Message, note string) string {
	var b strings.Builder
	if note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}
	b.WriteString("---------- Forwarded message ----------\n")
	fmt.Fprintf(&b, "From: %s\n", message.From)
	fmt.Fprintf(&b, "Subject: %s\n\n", message.Subject)
	b.WriteString(message.Text)
	return b.String()
}

// writeBase64Wrapped encodes data at the 76-column limit MIME requires.
func writeBase64Wrapped(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 0 {
		n := 76
		if len(encoded) < n {
			n = len(encoded)
		}
		if _, err := io.WriteString(w, encoded[:n]); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return err
		}
		encoded = encoded[n:]
	}
	return nil
}
