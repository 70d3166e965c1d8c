// internal/filename/parser.go
package filename

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"bidbuddy-workers/internal/models"
	"bidbuddy-workers/internal/trades"
)

// Proposal filenames follow "{trade-list}_{company}.{ext}". The first
// underscore separates trades from company, so company names keep any
// underscores of their own. The trade list may name several trades
// separated by commas, ampersands, or the word "and".
const tradeCompanyDelimiter = "_"

var (
	ErrMalformedFilename  = errors.New("MALFORMED_FILENAME")
	ErrMissingCompanyName = errors.New("MISSING_COMPANY_NAME")
)

// andDelimiter matches "and" only as a standalone word, so tokens like
// "Sand" or "Landscaping" are never split apart.
var andDelimiter = regexp.MustCompile(`(?i)\band\b`)

// Parser turns proposal filenames into per-trade records. It is pure:
// no I/O, no state beyond the injected resolver, safe for concurrent use.
type Parser struct {
	resolver *trades.Resolver
}

func NewParser(resolver *trades.Resolver) *Parser {
	return &Parser{resolver: resolver}
}

// Result carries everything parsed out of one filename. TradeNames are
// resolved canonical names, deduplicated in first-seen order; RawTrades is
// the trade segment exactly as written, kept for sync metadata.
type Result struct {
	Filename    string   `json:"filename"`
	CompanyName string   `json:"companyName"`
	TradeNames  []string `json:"tradeNames"`
	RawTrades   string   `json:"rawTrades"`
}

// Proposals expands the result into one record per resolved trade.
func (r *Result) Proposals() []models.ParsedProposal {
	out := make([]models.ParsedProposal, 0, len(r.TradeNames))
	for _, trade := range r.TradeNames {
		out = append(out, models.ParsedProposal{
			CompanyName: r.CompanyName,
			TradeName:   trade,
			RawFilename: r.Filename,
		})
	}
	return out
}

// Parse splits a filename into company and trades. Failures are reported
// as errors wrapping ErrMalformedFilename or ErrMissingCompanyName so a
// batch sync can match on the taxonomy, log the detail, and keep going.
func (p *Parser) Parse(name string) (*Result, error) {
	ext := filepath.Ext(name)
	body := strings.TrimSpace(strings.TrimSuffix(name, ext))

	if body == "" {
		return nil, fmt.Errorf("%w: empty filename %q", ErrMalformedFilename, name)
	}

	tradeSegment, companySegment, found := strings.Cut(body, tradeCompanyDelimiter)
	if !found {
		return nil, fmt.Errorf("%w: missing %q delimiter in %q, expected {trade}_{company}",
			ErrMalformedFilename, tradeCompanyDelimiter, name)
	}

	company := strings.TrimSpace(companySegment)
	if company == "" {
		return nil, fmt.Errorf("%w: no company after %q in %q", ErrMissingCompanyName, tradeCompanyDelimiter, name)
	}

	rawTrades := strings.TrimSpace(tradeSegment)

	resolved := make([]string, 0, 4)
	seen := make(map[string]bool)
	for _, token := range splitTrades(rawTrades) {
		canonical := p.resolver.Resolve(token)
		if canonical == "" || seen[canonical] {
			continue
		}
		seen[canonical] = true
		resolved = append(resolved, canonical)
	}

	if len(resolved) == 0 {
		return nil, fmt.Errorf("%w: no trades in %q", ErrMalformedFilename, name)
	}

	return &Result{
		Filename:    name,
		CompanyName: company,
		TradeNames:  resolved,
		RawTrades:   rawTrades,
	}, nil
}

// splitTrades breaks a trade segment into raw tokens on commas,
// ampersands, and the standalone word "and". Tokens that are empty or
// carry no letters or digits are dropped silently.
func splitTrades(segment string) []string {
	tokens := make([]string, 0, 4)
	for _, part := range strings.Split(segment, ",") {
		for _, sub := range strings.Split(part, "&") {
			for _, token := range andDelimiter.Split(sub, -1) {
				token = strings.TrimSpace(token)
				if hasWordContent(token) {
					tokens = append(tokens, token)
				}
			}
		}
	}
	return tokens
}

func hasWordContent(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
