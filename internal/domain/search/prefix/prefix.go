// Package prefix emulates "starts with" search on an indexed string field
// using an inclusive range query and lexicographic ordering.
package prefix

// HighSentinel sorts after any realistic input under byte-lexicographic
// ordering (the maximum private-use codepoint). The backend must honor this
// ordering; it is an external contract, not an implementation detail.
const HighSentinel = "\uf8ff"

// Range returns inclusive bounds selecting every string that starts with
// term. The term must already be case-normalized for the target field and
// must be non-empty (guarded upstream by the minimum-length check).
func Range(term string) (lower, upper string) {
	return term, term + HighSentinel
}
