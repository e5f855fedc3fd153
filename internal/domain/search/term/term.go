package term

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMinLength is the minimum term length that triggers a search.
// Shorter input yields an empty result set without querying the backend.
const DefaultMinLength = 2

// Term is a validated free-text search term.
type Term struct {
	raw string
}

// New trims and validates a search term against the minimum length.
// minLength <= 0 falls back to DefaultMinLength. ok is false when the
// term is too short to search.
func New(raw string, minLength int) (t Term, ok bool) {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) < minLength {
		return Term{}, false
	}
	return Term{raw: trimmed}, true
}

// Raw returns the trimmed term as typed.
func (t Term) Raw() string { return t.raw }

// Lower returns the lowercase form, used against keyword indexes and
// lowercase-normalized name fields.
func (t Term) Lower() string { return strings.ToLower(t.raw) }

// Upper returns the uppercase form, used against code-like document-number
// fields which are stored uppercased.
func (t Term) Upper() string { return strings.ToUpper(t.raw) }

// Tokens returns the whitespace-delimited words of the term.
func (t Term) Tokens() []string { return strings.Fields(t.raw) }

// LooksLikePersonName reports whether the term resembles a
// "first-name last-name" input: two or more space-separated tokens,
// none containing a digit. Such terms fan out one sub-query per token.
func (t Term) LooksLikePersonName() bool {
	tokens := t.Tokens()
	if len(tokens) < 2 {
		return false
	}
	for _, tok := range tokens {
		for _, r := range tok {
			if unicode.IsDigit(r) {
				return false
			}
		}
	}
	return true
}
