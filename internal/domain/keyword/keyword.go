// Package keyword derives the searchable keyword set persisted alongside a
// document. The backend only supports equality and array-membership queries,
// so "contains"-style lookup is emulated by indexing each field's lowercase
// value, its individual words, and, for code-like values, every prefix.
package keyword

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinLength is the shortest keyword worth indexing. Single runes are noise.
const MinLength = 2

// codePattern matches alphanumeric document codes such as "KBN-ACC-0001",
// for which left-anchored prefixes are indexed.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Compute returns the deduplicated keyword set for the named fields of a
// record. Non-string and empty values are skipped silently; missing fields
// are not an error. The result is computed at write time and consumed
// read-only at search time via array-membership queries.
func Compute(record map[string]any, fields []string) []string {
	seen := make(map[string]struct{})
	var keywords []string

	add := func(kw string) {
		if utf8.RuneCountInString(kw) < MinLength {
			return
		}
		if _, ok := seen[kw]; ok {
			return
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
	}

	for _, field := range fields {
		raw, ok := record[field].(string)
		if !ok {
			continue
		}
		value := norm.NFC.String(strings.TrimSpace(raw))
		if value == "" {
			continue
		}

		add(strings.ToLower(value))

		for _, token := range strings.Fields(value) {
			if utf8.RuneCountInString(token) > 1 {
				add(strings.ToLower(token))
			}
		}

		// codePattern is ASCII-only, so byte slicing is rune-safe here.
		if codePattern.MatchString(value) {
			lower := strings.ToLower(value)
			for i := MinLength; i <= len(lower); i++ {
				add(lower[:i])
			}
		}
	}

	return keywords
}
