// internal/filename/parser_test.go
package filename

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/trades"
)

func newTestParser() *Parser {
	return NewParser(trades.NewResolver(trades.DefaultAliases()))
}

func TestParser_Parse(t *testing.T) {
	parser := newTestParser()

	tests := []struct {
		name            string
		filename        string
		expectedCompany string
		expectedTrades  []string
		expectedErr     error
	}{
		{
			name:            "single trade",
			filename:        "framing_ABC.pdf",
			expectedCompany: "ABC",
			expectedTrades:  []string{"Framing"},
		},
		{
			name:            "aliases resolve to canonical names",
			filename:        "bath, cleanup_XYZ Corp.pdf",
			expectedCompany: "XYZ Corp",
			expectedTrades:  []string{"Bathrooms", "Final Cleaning"},
		},
		{
			name:            "comma separated list",
			filename:        "concrete, framing, electrical_company.pdf",
			expectedCompany: "company",
			expectedTrades:  []string{"Concrete", "Framing", "Electrical"},
		},
		{
			name:            "oxford ampersand",
			filename:        "concrete, framing, & electrical_company.pdf",
			expectedCompany: "company",
			expectedTrades:  []string{"Concrete", "Framing", "Electrical"},
		},
		{
			name:            "ampersand pair",
			filename:        "concrete & framing_company.pdf",
			expectedCompany: "company",
			expectedTrades:  []string{"Concrete", "Framing"},
		},
		{
			name:            "word and as delimiter",
			filename:        "concrete and framing_company.pdf",
			expectedCompany: "company",
			expectedTrades:  []string{"Concrete", "Framing"},
		},
		{
			name:            "and inside a word is not a delimiter",
			filename:        "landscaping_GreenCo.pdf",
			expectedCompany: "GreenCo",
			expectedTrades:  []string{"Landscaping"},
		},
		{
			name:            "company keeps its own underscores",
			filename:        "framing_ABC_Construction.pdf",
			expectedCompany: "ABC_Construction",
			expectedTrades:  []string{"Framing"},
		},
		{
			name:            "repeated trade deduplicates",
			filename:        "framing, framing_ABC.pdf",
			expectedCompany: "ABC",
			expectedTrades:  []string{"Framing"},
		},
		{
			name:            "aliases converging on one trade deduplicate",
			filename:        "doors & windows_GlassCo.pdf",
			expectedCompany: "GlassCo",
			expectedTrades:  []string{"Doors & Windows"},
		},
		{
			name:            "unknown trade falls back to title case",
			filename:        "gazebo_ABC.pdf",
			expectedCompany: "ABC",
			expectedTrades:  []string{"Gazebo"},
		},
		{
			name:            "trailing ampersand is ignored",
			filename:        "concrete, framing, &_company.pdf",
			expectedCompany: "company",
			expectedTrades:  []string{"Concrete", "Framing"},
		},
		{
			name:            "no extension",
			filename:        "framing_ABC",
			expectedCompany: "ABC",
			expectedTrades:  []string{"Framing"},
		},
		{
			name:        "missing delimiter",
			filename:    "nounderscore.pdf",
			expectedErr: ErrMalformedFilename,
		},
		{
			name:        "missing company",
			filename:    "framing_.pdf",
			expectedErr: ErrMissingCompanyName,
		},
		{
			name:        "whitespace company",
			filename:    "framing_   .pdf",
			expectedErr: ErrMissingCompanyName,
		},
		{
			name:        "empty filename",
			filename:    "",
			expectedErr: ErrMalformedFilename,
		},
		{
			name:        "whitespace filename",
			filename:    "   ",
			expectedErr: ErrMalformedFilename,
		},
		{
			name:        "extension only",
			filename:    ".pdf",
			expectedErr: ErrMalformedFilename,
		},
		{
			name:        "empty trade segment",
			filename:    "_ABC.pdf",
			expectedErr: ErrMalformedFilename,
		},
		{
			name:        "punctuation only trade segment",
			filename:    "&, ,_ABC.pdf",
			expectedErr: ErrMalformedFilename,
		},
		{
			name:        "both segments empty reports missing company",
			filename:    "_.pdf",
			expectedErr: ErrMissingCompanyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.Parse(tt.filename)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedErr),
					"expected %v, got %v", tt.expectedErr, err)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedCompany, result.CompanyName)
			assert.Equal(t, tt.expectedTrades, result.TradeNames)
			assert.Equal(t, tt.filename, result.Filename)
		})
	}
}

func TestParser_ParseProposalRecords(t *testing.T) {
	parser := newTestParser()

	result, err := parser.Parse("framing_ABC.pdf")
	require.NoError(t, err)

	assert.Equal(t, []models.ParsedProposal{
		{CompanyName: "ABC", TradeName: "Framing", RawFilename: "framing_ABC.pdf"},
	}, result.Proposals())
}

func TestParser_MultiTradeSharesCompanyAndFilename(t *testing.T) {
	parser := newTestParser()

	result, err := parser.Parse("framing, painting, drywall_ABC_Company.pdf")
	require.NoError(t, err)

	records := result.Proposals()
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, "ABC_Company", rec.CompanyName)
		assert.Equal(t, "framing, painting, drywall_ABC_Company.pdf", rec.RawFilename)
	}
	assert.Equal(t, "Framing", records[0].TradeName)
	assert.Equal(t, "Painting", records[1].TradeName)
	assert.Equal(t, "Drywall", records[2].TradeName)
}

func TestParser_RawTradesPreserved(t *testing.T) {
	parser := newTestParser()

	result, err := parser.Parse("bath, cleanup_XYZ.pdf")
	require.NoError(t, err)
	assert.Equal(t, "bath, cleanup", result.RawTrades)
}

func TestParser_ParseIsIdempotent(t *testing.T) {
	parser := newTestParser()

	first, err := parser.Parse("concrete & framing_Acme Builders.pdf")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := parser.Parse("concrete & framing_Acme Builders.pdf")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParser_ErrorMessagesCarryFilename(t *testing.T) {
	parser := newTestParser()

	_, err := parser.Parse("nounderscore.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nounderscore.pdf")

	_, err = parser.Parse("framing_.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "framing_.pdf")
}
