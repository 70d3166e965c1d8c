// internal/common/validation/address.go

// Package validation holds small format checks for values that arrive in
// process variables. Anything structural is validated against JSON schemas
// by the callers; these helpers cover the string formats schemas express
// poorly.
package validation

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether addr looks like a deliverable address.
// Deliberately looser than RFC 5322; the mail provider does the
// authoritative check.
func ValidateEmail(addr string) bool {
	return emailPattern.MatchString(strings.TrimSpace(addr))
}

// SplitAddressList splits a comma-separated recipient list, trimming
// whitespace and dropping empty entries.
func SplitAddressList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
