// internal/workers/intake/fetch-email-attachment/service.go
package fetchemailattachment

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"
)

type Service struct {
	config    *Config
	logger    logger.Logger
	agentMail AgentMailService
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config:    config,
		logger:    deps.Logger,
		agentMail: deps.AgentMail,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.InboxID == "" || input.MessageID == "" || input.AttachmentID == "" {
		return nil, &errors.StandardError{
			Code:      "VALIDATION_FAILED",
			Message:   "inboxId, messageId and attachmentId are required",
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	filename := input.Filename
	contentType := ""

	// The process usually carries the filename from the classification step.
	// When it doesn't, look the attachment up on the message itself.
	if filename == "" {
		message, err := s.agentMail.GetMessage(ctx, input.InboxID, input.MessageID)
		if err != nil {
			return nil, err
		}

		found := false
		for _, att := range message.Attachments {
			if att.AttachmentID == input.AttachmentID {
				filename = att.Filename
				contentType = att.ContentType
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NewResourceNotFoundError("agentmail",
				fmt.Sprintf("attachment %s is not on message %s", input.AttachmentID, input.MessageID))
		}
	}

	data, err := s.agentMail.DownloadAttachment(ctx, input.InboxID, input.MessageID, input.AttachmentID)
	if err != nil {
		return nil, err
	}

	size := int64(len(data))
	if size > s.config.MaxSizeBytes {
		return nil, &errors.StandardError{
			Code:      "ATTACHMENT_TOO_LARGE",
			Message:   fmt.Sprintf("attachment is %d bytes, limit is %d", size, s.config.MaxSizeBytes),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}

	s.logger.Info("attachment fetched", map[string]interface{}{
		"messageId":    input.MessageID,
		"attachmentId": input.AttachmentID,
		"filename":     filename,
		"size":         size,
	})

	return &Output{
		Success:      true,
		AttachmentID: input.AttachmentID,
		Filename:     filename,
		ContentType:  contentType,
		Size:         size,
		Content:      base64.StdEncoding.EncodeToString(data),
		FetchedAt:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}
