// internal/common/agentmail/client.go
package agentmail

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bidbuddy-workers/internal/common/errors"
	commonhttp "bidbuddy-workers/internal/common/http"
)

// Client talks to the AgentMail REST API. Every proposal inbox is an
// AgentMail inbox; inbound mail arrives as message.received webhooks and
// this client fetches the full message bodies and attachments behind them.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *commonhttp.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: commonhttp.NewClient(30 * time.Second),
	}
}

// Message is the API representation of one inbound or sent email.
type Message struct {
	MessageID   string       `json:"message_id"`
	ThreadID    string       `json:"thread_id,omitempty"`
	From        string       `json:"from"`
	To          []string     `json:"to,omitempty"`
	ReplyTo     string       `json:"reply_to,omitempty"`
	Subject     string       `json:"subject"`
	Text        string       `json:"text,omitempty"`
	HTML        string       `json:"html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	AttachmentID string `json:"attachment_id"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type,omitempty"`
	Size         int64  `json:"size,omitempty"`
}

// SendRequest is the payload for sending a message from an inbox.
type SendRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// GetMessage fetches the full message, including body text and attachment
// metadata, for a webhook-delivered message id.
func (c *Client) GetMessage(ctx context.Context, inboxID, messageID string) (*Message, error) {
	msgURL := fmt.Sprintf("%s/inboxes/%s/messages/%s",
		c.baseURL, url.PathEscape(inboxID), url.PathEscape(messageID))

	req, err := http.NewRequestWithContext(ctx, "GET", msgURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create message request: %w", err)
	}
	c.setAuthHeaders(req)

	var msg Message
	if err := c.httpClient.DoJSON(ctx, req, &msg); err != nil {
		return nil, c.mapError("fetch message", err)
	}
	return &msg, nil
}

// DownloadAttachment returns the raw bytes of one attachment.
func (c *Client) DownloadAttachment(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error) {
	attURL := fmt.Sprintf("%s/inboxes/%s/messages/%s/attachments/%s",
		c.baseURL, url.PathEscape(inboxID), url.PathEscape(messageID), url.PathEscape(attachmentID))

	req, err := http.NewRequestWithContext(ctx, "GET", attURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create attachment request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, errors.NewAttachmentDownloadFailedError(attachmentID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.NewAttachmentDownloadFailedError(attachmentID,
			fmt.Errorf("attachment download failed with status %d: %s", resp.StatusCode, string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewAttachmentDownloadFailedError(attachmentID, err)
	}
	return data, nil
}

// SendMessage sends a new message from the given inbox and returns the id
// assigned by the API.
func (c *Client) SendMessage(ctx context.Context, inboxID string, send *SendRequest) (string, error) {
	sendURL := fmt.Sprintf("%s/inboxes/%s/messages/send", c.baseURL, url.PathEscape(inboxID))

	payload, err := json.Marshal(send)
	if err != nil {
		return "", fmt.Errorf("failed to marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", sendURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create send request: %w", err)
	}
	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := c.httpClient.DoJSON(ctx, req, &result); err != nil {
		return "", errors.NewEmailSendFailedError("agentmail", err)
	}
	return result.MessageID, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) mapError(operation string, err error) error {
	var statusErr *commonhttp.StatusError
	if stderrors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return errors.NewAuthenticationError(
				fmt.Sprintf("agentmail rejected the API key during %s: %s", operation, statusErr.Body))
		case statusErr.StatusCode == http.StatusNotFound:
			return errors.NewResourceNotFoundError("agentmail", statusErr.Body)
		}
	}
	return errors.NewEmailFetchFailedError(fmt.Errorf("%s: %w", operation, err))
}
