// internal/trades/resolver_test.go
package trades

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := NewResolver(DefaultAliases())

	tests := []struct {
		name     string
		token    string
		expected string
	}{
		{
			name:     "direct canonical name",
			token:    "concrete",
			expected: "Concrete",
		},
		{
			name:     "short alias",
			token:    "bath",
			expected: "Bathrooms",
		},
		{
			name:     "cleanup collapses to final cleaning",
			token:    "cleanup",
			expected: "Final Cleaning",
		},
		{
			name:     "carpentry collapses to framing",
			token:    "carpentry",
			expected: "Framing",
		},
		{
			name:     "mixed case input",
			token:    "CONCRETE",
			expected: "Concrete",
		},
		{
			name:     "surrounding whitespace",
			token:    "  framing  ",
			expected: "Framing",
		},
		{
			name:     "multi word alias",
			token:    "trash service",
			expected: "Dumpster Service",
		},
		{
			name:     "acronym stays uppercase",
			token:    "tpo",
			expected: "TPO",
		},
		{
			name:     "test and balance",
			token:    "test and balance",
			expected: "TAB",
		},
		{
			name:     "unknown token falls back to title case",
			token:    "gazebo",
			expected: "Gazebo",
		},
		{
			name:     "unknown multi word token",
			token:    "solar panels",
			expected: "Solar Panels",
		},
		{
			name:     "unknown token with odd casing",
			token:    "gAZeBo",
			expected: "Gazebo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolver.Resolve(tt.token))
		})
	}
}

func TestResolver_ResolveIsDeterministic(t *testing.T) {
	resolver := NewResolver(DefaultAliases())

	first := resolver.Resolve("bath")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, resolver.Resolve("bath"))
	}
}

func TestResolver_CustomAliasesOverrideNothingElse(t *testing.T) {
	resolver := NewResolver(map[string]string{
		"Sparkies": "Electrical",
	})

	// Custom key resolves case-insensitively.
	assert.Equal(t, "Electrical", resolver.Resolve("sparkies"))
	// Defaults are not present in a custom table.
	assert.Equal(t, "Bath", resolver.Resolve("bath"))
	assert.Equal(t, 1, resolver.Len())
}

func TestResolver_TableIsCopied(t *testing.T) {
	source := map[string]string{"bath": "Bathrooms"}
	resolver := NewResolver(source)

	source["bath"] = "Mutated"

	assert.Equal(t, "Bathrooms", resolver.Resolve("bath"))
}

func TestDefaultAliases_ReturnsCopy(t *testing.T) {
	a := DefaultAliases()
	a["bath"] = "Mutated"

	b := DefaultAliases()
	assert.Equal(t, "Bathrooms", b["bath"])
}

func TestLoadAliases(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"alias", "canonical"}).
		AddRow("sparkies", "Electrical").
		AddRow("BATH", "Bathroom Remodel")

	mock.ExpectQuery(`SELECT alias, canonical FROM trade_aliases`).
		WillReturnRows(rows)

	merged, err := LoadAliases(context.Background(), db)
	require.NoError(t, err)

	// Database rows win over the seed.
	assert.Equal(t, "Bathroom Remodel", merged["bath"])
	assert.Equal(t, "Electrical", merged["sparkies"])
	// Untouched defaults survive the merge.
	assert.Equal(t, "Final Cleaning", merged["cleanup"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAliases_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT alias, canonical FROM trade_aliases`).
		WillReturnError(assert.AnError)

	_, err = LoadAliases(context.Background(), db)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
