// internal/trades/resolver.go
package trades

import (
	"context"
	"database/sql"
	"strings"
	"unicode"
)

// Resolver maps raw trade tokens to canonical trade names. The alias table
// is copied at construction and never mutated afterwards, so a single
// Resolver is safe to share across workers.
type Resolver struct {
	aliases map[string]string
}

// NewResolver builds a resolver from the given alias table. Keys are
// normalized to lowercase; pass DefaultAliases() for the standard seed.
func NewResolver(aliases map[string]string) *Resolver {
	normalized := make(map[string]string, len(aliases))
	for k, v := range aliases {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Resolver{aliases: normalized}
}

// Resolve returns the canonical trade name for a raw token. Lookup is
// case-insensitive. Tokens with no alias entry come back title-cased
// ("gazebo" -> "Gazebo") so an unknown trade still lands on the bid sheet
// under a readable name. Resolve never fails for a non-empty token.
func (r *Resolver) Resolve(token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	if canonical, ok := r.aliases[key]; ok {
		return canonical
	}
	return titleCase(strings.TrimSpace(token))
}

// Len reports the number of alias entries. Used by startup logging.
func (r *Resolver) Len() int {
	return len(r.aliases)
}

// titleCase capitalizes the first rune of each whitespace-separated word
// and lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// LoadAliases reads user-managed alias rows and merges them over the
// built-in defaults, database rows winning on conflict. Deployments
// without the table (or with it empty) just get the defaults.
func LoadAliases(ctx context.Context, db *sql.DB) (map[string]string, error) {
	merged := DefaultAliases()

	rows, err := db.QueryContext(ctx, `SELECT alias, canonical FROM trade_aliases`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var alias, canonical string
		if err := rows.Scan(&alias, &canonical); err != nil {
			return nil, err
		}
		merged[strings.ToLower(strings.TrimSpace(alias))] = canonical
	}
	return merged, rows.Err()
}
