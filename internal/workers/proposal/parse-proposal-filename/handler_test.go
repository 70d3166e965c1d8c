// internal/workers/proposal/parse-proposal-filename/handler_test.go
package parseproposalfilename

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidbuddy-workers/internal/common/logger"
	"bidbuddy-workers/internal/filename"
	"bidbuddy-workers/internal/trades"
)

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	config := &Config{
		Enabled:       true,
		MaxJobsActive: 10,
		Timeout:       5 * time.Second,
	}
	resolver := trades.NewResolver(trades.DefaultAliases())
	parser := filename.NewParser(resolver)
	return NewHandler(config, parser, logger.NewTestLogger(t))
}

func TestHandler_Execute_Success(t *testing.T) {
	handler := createTestHandler(t)

	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "single trade",
			input: &Input{Filename: "Plumbing_Apex Mechanical.pdf"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "Apex Mechanical", output.CompanyName)
				assert.Equal(t, []string{"Plumbing"}, output.TradeNames)
				assert.Equal(t, 1, output.TradeCount)
				require.Len(t, output.Proposals, 1)
				assert.Equal(t, "Plumbing_Apex Mechanical.pdf", output.Proposals[0].RawFilename)
			},
		},
		{
			name:  "multiple trades with mixed delimiters",
			input: &Input{Filename: "Plumbing, Drywall & Roofing_Summit Corp.pdf"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "Summit Corp", output.CompanyName)
				assert.Equal(t, []string{"Plumbing", "Drywall", "Roofing"}, output.TradeNames)
				assert.Equal(t, 3, output.TradeCount)
				assert.Len(t, output.Proposals, 3)
			},
		},
		{
			name:  "alias resolution",
			input: &Input{Filename: "bath_Hudson Interiors.pdf"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{"Bathrooms"}, output.TradeNames)
				assert.Equal(t, "bath", output.RawTrades)
			},
		},
		{
			name:  "unknown trade falls back to title case",
			input: &Input{Filename: "gazebo work_Outdoor Structures LLC.pdf"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{"Gazebo Work"}, output.TradeNames)
			},
		},
		{
			name:  "company keeps its own underscores",
			input: &Input{Filename: "Roofing_ACME_Inc.pdf"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "ACME_Inc", output.CompanyName)
				assert.Equal(t, []string{"Roofing"}, output.TradeNames)
			},
		},
		{
			name:  "word and joins trades but not inside words",
			input: &Input{Filename: "Sitework and Landscaping_Greenfield.pdf"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{"Sitework", "Landscaping"}, output.TradeNames)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			require.NotNil(t, output)
			assert.True(t, output.Success)
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_Errors(t *testing.T) {
	handler := createTestHandler(t)

	tests := []struct {
		name     string
		input    *Input
		expected error
	}{
		{
			name:     "empty filename",
			input:    &Input{Filename: ""},
			expected: filename.ErrMalformedFilename,
		},
		{
			name:     "no underscore",
			input:    &Input{Filename: "Plumbing Apex Mechanical.pdf"},
			expected: filename.ErrMalformedFilename,
		},
		{
			name:     "missing company segment",
			input:    &Input{Filename: "Plumbing_.pdf"},
			expected: filename.ErrMissingCompanyName,
		},
		{
			name:     "empty trade segment",
			input:    &Input{Filename: "_Apex Mechanical.pdf"},
			expected: filename.ErrMalformedFilename,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
