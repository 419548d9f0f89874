package indexer

import "strings"

// DefaultSensitiveKeywords is the stock denylist. Matching is plain
// case-insensitive substring containment, so it can false-positive
// ("authority" contains "auth") — a deliberate recall-over-precision
// tradeoff for privacy.
var DefaultSensitiveKeywords = []string{
	"password",
	"passwd",
	"secret",
	"token",
	"api_key",
	"apikey",
	"api-key",
	"private_key",
	"credential",
	"auth",
	"bearer",
}

// Redactor decides whether extracted text may be indexed. A redactor
// with no keywords fails closed: every entry is blocked, because an
// unevaluable denylist must not default to leaking.
type Redactor struct {
	keywords []string
}

// NewRedactor creates a redactor over the given keyword denylist. Pass
// DefaultSensitiveKeywords for the stock list; pass nothing to block all
// indexing.
func NewRedactor(keywords []string) Redactor {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(strings.ToLower(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return Redactor{keywords: lowered}
}

// Evaluable reports whether the redactor has a usable denylist.
func (r Redactor) Evaluable() bool { return len(r.keywords) > 0 }

// Blocked reports whether text must be excluded from the index. Blocked
// entries are dropped entirely; not even a truncated preview is stored.
func (r Redactor) Blocked(text string) bool {
	if !r.Evaluable() {
		return true
	}
	lowered := strings.ToLower(text)
	for _, k := range r.keywords {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}
