// internal/workers/intake/extract-buildingconnected/handler_test.go
package extractbuildingconnected

import (
	"errors"
	"testing"

	"bidbuddy-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(DefaultConfig(), logger.NewTestLogger(t))
}

func TestExecute_FullNotification(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(&Input{
		MessageID: "msg-1",
		Subject:   "Proposal Submitted for Riverside Medical Center",
		HTML: `<html><body>
			<p><strong>Apex Mechanical&amp;Sons</strong> has submitted a proposal.</p>
			<p>Trade: HVAC</p>
			<p><a href="https://app.buildingconnected.com/files/abc123/download/proposal.pdf">Download</a></p>
		</body></html>`,
	})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.True(t, output.FoundAll)
	assert.Equal(t, "Riverside Medical Center", output.Extraction.ProjectName)
	assert.Equal(t, "Apex Mechanical&Sons", output.Extraction.CompanyName)
	assert.Equal(t, "HVAC", output.Extraction.Trade)
	require.Len(t, output.Extraction.ProposalLinks, 1)
	assert.Equal(t, "https://app.buildingconnected.com/files/abc123/download/proposal.pdf",
		output.Extraction.ProposalLinks[0])
}

func TestExecute_SubjectVariants(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{
			name:    "for separator",
			subject: "Proposal Submitted for Downtown Plaza",
			want:    "Downtown Plaza",
		},
		{
			name:    "colon separator",
			subject: "Proposal submitted: Downtown Plaza",
			want:    "Downtown Plaza",
		},
		{
			name:    "dash separator",
			subject: "Proposal Submitted - Downtown Plaza",
			want:    "Downtown Plaza",
		},
		{
			name:    "leading whitespace",
			subject: "  Proposal Submitted for Downtown Plaza",
			want:    "Downtown Plaza",
		},
		{
			name:    "unrelated subject",
			subject: "Weekly digest",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractProjectName(tt.subject))
		})
	}
}

func TestExecute_CompanyFromTextLabel(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(&Input{
		MessageID: "msg-2",
		Subject:   "Proposal Submitted for Harbor View Lofts",
		Text:      "A new proposal has arrived.\nSubcontractor: Summit Electric\nScope: Electrical\n",
	})

	require.NoError(t, err)
	assert.Equal(t, "Summit Electric", output.Extraction.CompanyName)
	assert.Equal(t, "Electrical", output.Extraction.Trade)
	assert.True(t, output.FoundAll)
}

func TestExecute_StrongTagBeatsLabel(t *testing.T) {
	handler := createTestHandler(t)

	output, err := handler.Execute(&Input{
		MessageID: "msg-3",
		Subject:   "Proposal Submitted for Harbor View Lofts",
		HTML:      `<strong>Hudson Interiors</strong> has submitted a proposal.<br>Company: Wrong Name LLC`,
	})

	require.NoError(t, err)
	assert.Equal(t, "Hudson Interiors", output.Extraction.CompanyName)
}

func TestExecute_PartialExtraction(t *testing.T) {
	handler := createTestHandler(t)

	// No trade label anywhere. Still a usable extraction, just not complete.
	output, err := handler.Execute(&Input{
		MessageID: "msg-4",
		Subject:   "Proposal Submitted for Cedar Ridge Apartments",
		Text:      "Company: Greenfield Landscaping",
	})

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.False(t, output.FoundAll)
	assert.Equal(t, "Cedar Ridge Apartments", output.Extraction.ProjectName)
	assert.Equal(t, "Greenfield Landscaping", output.Extraction.CompanyName)
	assert.Empty(t, output.Extraction.Trade)
}

func TestExecute_DeduplicatesLinks(t *testing.T) {
	handler := createTestHandler(t)

	link := "https://app.buildingconnected.com/files/xyz/download/bid.pdf"
	output, err := handler.Execute(&Input{
		MessageID: "msg-5",
		Subject:   "Proposal Submitted for Cedar Ridge Apartments",
		HTML:      `<a href="` + link + `">Download</a> <a href="` + link + `">Download again</a>`,
		Text:      "Download your copy: " + link,
	})

	require.NoError(t, err)
	require.Len(t, output.Extraction.ProposalLinks, 1)
	assert.Equal(t, link, output.Extraction.ProposalLinks[0])
}

func TestExecute_NothingFound(t *testing.T) {
	handler := createTestHandler(t)

	_, err := handler.Execute(&Input{
		MessageID: "msg-6",
		Subject:   "Lunch on Friday?",
		Text:      "Are you free around noon?",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
}
