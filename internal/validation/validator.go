// Package validation gates card text before it is shown to a table.
//
// SYSTEM ARCHITECTURE ROLE:
// This module is the acceptance layer for any text that did not come
// straight out of the curated catalog, which today means AI-rewritten
// cards. It normalizes raw model output and applies the word-budget and
// spice-gated content rules.
//
// KEY RESPONSIBILITIES:
// - Sanitize raw text: collapse whitespace, trim, strip wrapping quotes
// - Enforce per-template word budgets
// - Block denylisted terms when the session's spice level is tame
//
// INTEGRATION POINTS:
// - internal/augment: every generated rewrite passes through Sanitize and
//   Accepts before it can replace the original card
// - internal/config: the denylist is loaded from configuration
//
// All checks are pure and report outcomes as booleans; boundary conditions
// are never errors.
package validation

import "strings"

// Validator applies content rules to candidate card text.
type Validator struct {
	denylist []string
}

// NewValidator creates a validator with the given denylist. Entries are
// matched case-insensitively as substrings.
func NewValidator(denylist []string) *Validator {
	lowered := make([]string, 0, len(denylist))
	for _, w := range denylist {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			lowered = append(lowered, w)
		}
	}
	return &Validator{denylist: lowered}
}

// Sanitize collapses runs of whitespace to single spaces, trims the result,
// and strips one leading and one trailing quote character if present.
func (v *Validator) Sanitize(text string) string {
	s := strings.Join(strings.Fields(text), " ")
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}

// Accepts reports whether text fits the word budget and, at spice levels of
// one or below, contains no denylisted term.
func (v *Validator) Accepts(text string, maxWords, spice int) bool {
	if len(strings.Fields(text)) > maxWords {
		return false
	}
	if spice <= 1 && v.containsDenylisted(text) {
		return false
	}
	return true
}

func (v *Validator) containsDenylisted(text string) bool {
	lowered := strings.ToLower(text)
	for _, bad := range v.denylist {
		if strings.Contains(lowered, bad) {
			return true
		}
	}
	return false
}
