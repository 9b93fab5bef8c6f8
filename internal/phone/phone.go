// Package phone canonicalizes US phone numbers to the +1XXXXXXXXXX form used
// as the lead identity key and for all gateway traffic.
package phone

import (
	"strings"
)

// Normalize strips all non-digit characters, drops a leading US country code
// when the number has exactly 11 digits, and prefixes +1. Only ASCII digits
// survive; digits from other scripts are stripped like any other character.
//
// It is pure and total: malformed input yields a syntactically well-formed
// canonical string whose real-world validity is not this function's concern.
// Output already in canonical form passes through unchanged, so Normalize is
// idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}

	return "+1" + digits
}

// IsCanonical reports whether the value is already in the canonical form
// produced by Normalize.
func IsCanonical(s string) bool {
	return s == Normalize(s)
}
