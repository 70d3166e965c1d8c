// internal/workers/intake/fetch-email-attachment/service_test.go
package fetchemailattachment

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"bidbuddy-workers/internal/common/agentmail"
	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock Implementations

type MockAgentMailService struct {
	GetMessageFunc         func(ctx context.Context, inboxID, messageID string) (*agentmail.Message, error)
	DownloadAttachmentFunc func(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error)
}

func (m *MockAgentMailService) GetMessage(ctx context.Context, inboxID, messageID string) (*agentmail.Message, error) {
	return m.GetMessageFunc(ctx, inboxID, messageID)
}

func (m *MockAgentMailService) DownloadAttachment(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error) {
	return m.DownloadAttachmentFunc(ctx, inboxID, messageID, attachmentID)
}

func createTestService(t *testing.T, mock *MockAgentMailService) *Service {
	t.Helper()
	return NewService(ServiceDependencies{
		AgentMail: mock,
		Logger:    logger.NewTestLogger(t),
	}, DefaultConfig())
}

func TestExecute_DownloadsAttachment(t *testing.T) {
	content := []byte("%PDF-1.7 fake proposal bytes")
	mock := &MockAgentMailService{
		DownloadAttachmentFunc: func(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error) {
			assert.Equal(t, "inbox-1", inboxID)
			assert.Equal(t, "msg-1", messageID)
			assert.Equal(t, "att-1", attachmentID)
			return content, nil
		},
	}
	service := createTestService(t, mock)

	output, err := service.Execute(context.Background(), &Input{
		InboxID:      "inbox-1",
		MessageID:    "msg-1",
		AttachmentID: "att-1",
		Filename:     "Roofing_ACME.pdf",
	})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "Roofing_ACME.pdf", output.Filename)
	assert.Equal(t, int64(len(content)), output.Size)

	decoded, err := base64.StdEncoding.DecodeString(output.Content)
	require.NoError(t, err)
	assert.Equal(t, content, decoded)
}

func TestExecute_ResolvesFilenameFromMessage(t *testing.T) {
	mock := &MockAgentMailService{
		GetMessageFunc: func(ctx context.Context, inboxID, messageID string) (*agentmail.Message, error) {
			return &agentmail.Message{
				MessageID: messageID,
				Attachments: []agentmail.Attachment{
					{AttachmentID: "att-other", Filename: "notes.txt", ContentType: "text/plain"},
					{AttachmentID: "att-2", Filename: "Drywall_Summit.pdf", ContentType: "application/pdf"},
				},
			}, nil
		},
		DownloadAttachmentFunc: func(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error) {
			return []byte("pdf"), nil
		},
	}
	service := createTestService(t, mock)

	output, err := service.Execute(context.Background(), &Input{
		InboxID:      "inbox-1",
		MessageID:    "msg-2",
		AttachmentID: "att-2",
	})

	require.NoError(t, err)
	assert.Equal(t, "Drywall_Summit.pdf", output.Filename)
	assert.Equal(t, "application/pdf", output.ContentType)
}

func TestExecute_AttachmentNotOnMessage(t *testing.T) {
	mock := &MockAgentMailService{
		GetMessageFunc: func(ctx context.Context, inboxID, messageID string) (*agentmail.Message, error) {
			return &agentmail.Message{MessageID: messageID}, nil
		},
	}
	service := createTestService(t, mock)

	_, err := service.Execute(context.Background(), &Input{
		InboxID:      "inbox-1",
		MessageID:    "msg-3",
		AttachmentID: "att-missing",
	})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, "RESOURCE_NOT_FOUND", string(stdErr.Code))
	assert.False(t, stdErr.Retryable)
}

func TestExecute_DownloadFailureIsRetryable(t *testing.T) {
	mock := &MockAgentMailService{
		DownloadAttachmentFunc: func(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error) {
			return nil, errors.NewAttachmentDownloadFailedError(attachmentID, fmt.Errorf("connection reset"))
		},
	}
	service := createTestService(t, mock)

	_, err := service.Execute(context.Background(), &Input{
		InboxID:      "inbox-1",
		MessageID:    "msg-4",
		AttachmentID: "att-4",
		Filename:     "Plumbing_Apex.pdf",
	})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAttachmentDownloadFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 3, errors.GetRetryCount(stdErr.Code))
}

func TestExecute_RejectsOversizedAttachment(t *testing.T) {
	mock := &MockAgentMailService{
		DownloadAttachmentFunc: func(ctx context.Context, inboxID, messageID, attachmentID string) ([]byte, error) {
			return make([]byte, 64), nil
		},
	}
	service := createTestService(t, mock)
	service.config.MaxSizeBytes = 32

	_, err := service.Execute(context.Background(), &Input{
		InboxID:      "inbox-1",
		MessageID:    "msg-5",
		AttachmentID: "att-5",
		Filename:     "huge.pdf",
	})

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, "ATTACHMENT_TOO_LARGE", string(stdErr.Code))
	assert.False(t, stdErr.Retryable)
}

func TestExecute_ValidationErrors(t *testing.T) {
	service := createTestService(t, &MockAgentMailService{})

	tests := []struct {
		name  string
		input *Input
	}{
		{name: "missing inbox", input: &Input{MessageID: "m", AttachmentID: "a"}},
		{name: "missing message", input: &Input{InboxID: "i", AttachmentID: "a"}},
		{name: "missing attachment", input: &Input{InboxID: "i", MessageID: "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Execute(context.Background(), tt.input)
			require.Error(t, err)
			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_FAILED", string(stdErr.Code))
		})
	}
}
