package types

import "strings"

// PostalCodeDigits is the length of a complete CEP.
const PostalCodeDigits = 8

// OnlyDigits drops every non-digit rune.
func OnlyDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
