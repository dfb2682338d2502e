// Package sanitizer normalizes user-supplied booking fields before
// validation. It only cleans input; rejection is the validator's job.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize collapses interior whitespace runs to a single space and
// trims the ends.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeName trims, collapses whitespace, and strips control characters
// from a customer name.
func NormalizeName(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return TrimAndNormalize(cleaned)
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone strips spaces, dashes, dots, and parentheses so a phone
// number can be validated as E.164.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
