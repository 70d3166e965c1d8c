// internal/workers/communication/email-send/service.go
package emailsend

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	sesClient SESService

	// Seam for tests, defaults to smtp.SendMail.
	smtpSendFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:       config,
		logger:       deps.Logger,
		sesClient:    deps.SES,
		smtpSendFunc: smtp.SendMail,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.From == "" {
		input.From = s.config.DefaultFrom
	}

	s.logger.Info("sending email", map[string]interface{}{
		"to":          input.To,
		"subject":     input.Subject,
		"isHtml":      input.IsHTML,
		"attachments": len(input.Attachments),
	})

	if err := s.validateEmailAddresses(input); err != nil {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "Email validation failed",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	message, err := s.buildMessage(input)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "Failed to assemble email message",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	recipients := buildRecipients(input)

	if s.config.Provider == ProviderSES {
		messageID, err := s.sendSES(ctx, input.From, recipients, message)
		if err != nil {
			return nil, errors.NewEmailSendFailedError("ses", err)
		}
		return s.successOutput(messageID, ProviderSES), nil
	}

	if err := s.sendSMTP(ctx, input.From, recipients, message); err != nil {
		if s.config.FallbackToSES && s.sesClient != nil {
			s.logger.Warn("smtp send failed, falling back to ses", map[string]interface{}{
				"to":    input.To,
				"error": err.Error(),
			})
			messageID, sesErr := s.sendSES(ctx, input.From, recipients, message)
			if sesErr == nil {
				return s.successOutput(messageID, ProviderSES), nil
			}
			s.logger.Error("ses fallback failed", map[string]interface{}{
				"error": sesErr.Error(),
			})
		}
		return nil, errors.NewEmailSendFailedError("smtp", err)
	}

	return s.successOutput(s.generateMessageID(input), ProviderSMTP), nil
}

func (s *Service) successOutput(messageID, provider string) *Output {
	s.logger.Info("email sent", map[string]interface{}{
		"messageId": messageID,
		"provider":  provider,
	})
	return &Output{
		Success:   true,
		Message:   "Email sent successfully",
		MessageID: messageID,
		Provider:  provider,
		SentAt:    time.Now().UTC(),
	}
}

func (s *Service) validateEmailAddresses(input *Input) error {
	if !validation.ValidateEmail(input.To) {
		return fmt.Errorf("invalid 'to' email address: %s", input.To)
	}
	if !validation.ValidateEmail(input.From) {
		return fmt.Errorf("invalid 'from' email address: %s", input.From)
	}
	for _, field := range []struct{ name, value string }{
		{"cc", input.CC},
		{"bcc", input.BCC},
	} {
		for _, addr := range validation.SplitAddressList(field.value) {
			if !validation.ValidateEmail(addr) {
				return fmt.Errorf("invalid '%s' email address: %s", field.name, addr)
			}
		}
	}
	if input.ReplyTo != "" && !validation.ValidateEmail(input.ReplyTo) {
		return fmt.Errorf("invalid 'replyTo' email address: %s", input.ReplyTo)
	}
	if input.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if input.Body == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

func buildRecipients(input *Input) []string {
	recipients := []string{input.To}
	for _, group := range []string{input.CC, input.BCC} {
		recipients = append(recipients, validation.SplitAddressList(group)...)
	}
	return recipients
}

// buildMessage assembles the full MIME message. Without attachments this is
// a single-part message, with them a multipart/mixed envelope.
func (s *Service) buildMessage(input *Input) ([]byte, error) {
	var msg bytes.Buffer

	fmt.Fprintf(&msg, "From: %s\r\n", input.From)
	fmt.Fprintf(&msg, "To: %s\r\n", input.To)
	if input.CC != "" {
		fmt.Fprintf(&msg, "Cc: %s\r\n", input.CC)
	}
	if input.ReplyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", input.ReplyTo)
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n", input.Subject)

	switch strings.ToLower(input.Priority) {
	case "high":
		msg.WriteString("X-Priority: 1\r\n")
		msg.WriteString("Importance: high\r\n")
	case "low":
		msg.WriteString("X-Priority: 5\r\n")
		msg.WriteString("Importance: low\r\n")
	case "":
	default:
		msg.WriteString("X-Priority: 3\r\n")
	}

	msg.WriteString("MIME-Version: 1.0\r\n")

	contentType := "text/plain; charset=UTF-8"
	if input.IsHTML {
		contentType = "text/html; charset=UTF-8"
	}

	if len(input.Attachments) == 0 {
		fmt.Fprintf(&msg, "Content-Type: %s\r\n\r\n", contentType)
		msg.WriteString(input.Body)
		return msg.Bytes(), nil
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	bodyPart, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
	if err != nil {
		return nil, fmt.Errorf("create body part: %w", err)
	}
	if _, err := bodyPart.Write([]byte(input.Body)); err != nil {
		return nil, fmt.Errorf("write body part: %w", err)
	}

	for _, att := range input.Attachments {
		data, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return nil, fmt.Errorf("attachment %s is not valid base64: %w", att.Filename, err)
		}

		attContentType := att.ContentType
		if attContentType == "" {
			attContentType = "application/octet-stream"
		}
		part, err := writer.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", attContentType, att.Filename)},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", att.Filename)},
			"Content-Transfer-Encoding": {"base64"},
		})
		if err != nil {
			return nil, fmt.Errorf("create attachment part: %w", err)
		}
		if err := writeBase64Wrapped(part, data); err != nil {
			return nil, fmt.Errorf("write attachment %s: %w", att.Filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", writer.Boundary())
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
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

func (s *Service) sendSMTP(ctx context.Context, from string, recipients []string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if s.config.UseTLS {
		return s.sendWithTLS(addr, auth, from, recipients, message)
	}
	return s.smtpSendFunc(addr, auth, from, recipients, message)
}

func (s *Service) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName: s.config.SMTPHost,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (s *Service) sendSES(ctx context.Context, from string, recipients []string, message []byte) (string, error) {
	result, err := s.sesClient.SendRawEmail(ctx, &awsses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: message},
		Source:       aws.String(from),
		Destinations: recipients,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.MessageId), nil
}

func (s *Service) generateMessageID(input *Input) string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("<%d.%s@%s>", timestamp, sanitizeEmail(input.To), s.config.SMTPHost)
}

func sanitizeEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 {
		local := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, parts[0])

		if len(local) > 10 {
			local = local[:10]
		}
		return local
	}
	return "user"
}

func (s *Service) TestConnection(ctx context.Context) error {
	if s.config.Provider == ProviderSES {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.SMTPHost,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	return client.Quit()
}
