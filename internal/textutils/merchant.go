// Package textutils cleans free-form statement text.
package textutils

import (
	"regexp"
	"strings"
)

// BoilerplatePrefixes are stripped from the start of merchant descriptions,
// case-insensitively. Longer prefixes are listed before the shorter ones
// they contain.
var BoilerplatePrefixes = []string{
	"POS Transaction at ",
	"Card Payment to ",
	"Direct Debit to ",
	"Transfer from ",
	"Transfer to ",
	"Purchase at ",
	"Payment to ",
}

// trailingReference matches a run of six or more digits at the end of a
// description, typically a transaction reference number.
var trailingReference = regexp.MustCompile(`\s*\d{6,}\s*$`)

// CleanMerchant trims the description, strips one boilerplate prefix and a
// trailing reference number, then trims again.
func CleanMerchant(raw string) string {
	s := strings.TrimSpace(raw)
	s = StripPrefixFold(s, BoilerplatePrefixes)
	s = trailingReference.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// StripPrefixFold removes the first prefix of prefixes that s starts with,
// ignoring case.
func StripPrefixFold(s string, prefixes []string) string {
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return s[len(p):]
		}
	}
	return s
}
