// Package dateutils parses the date cells found in bank statement exports
// and normalizes them to a single canonical layout.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Common layouts.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutUS       = "01/02/2006"
	DateLayoutEuropean = "02/01/2006"
	DateLayoutSwiss    = "02.01.2006"
	DateLayoutFull     = "2006-01-02 15:04:05"
)

// StatementFormats is the ordered list of layouts tried for statement dates.
// Order matters for ambiguous values such as 03/04/2024: month-first wins.
var StatementFormats = []string{
	DateLayoutUS,       // MM/dd/yyyy
	DateLayoutEuropean, // dd/MM/yyyy
	DateLayoutISO,      // yyyy-MM-dd
	"01-02-2006",       // MM-dd-yyyy
	"1/2/2006",         // M/d/yyyy
	"2/1/2006",         // d/M/yyyy
	DateLayoutFull,
	time.RFC3339,
	"2006/01/02",
	DateLayoutSwiss,
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var whitespace = regexp.MustCompile(`\s+`)

// CleanDateString trims the value, strips surrounding quotes and collapses
// internal whitespace.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	dateStr = strings.Trim(dateStr, `"'`)
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}

// ParseDate tries each layout of StatementFormats in order and returns the
// first successful parse together with the matching layout.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("empty date")
	}
	for _, layout := range StatementFormats {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// Normalizer converts raw date cells to a canonical layout. When no layout
// matches, the current processing date is used instead; callers can detect
// that through the returned bool.
type Normalizer struct {
	Layout string
	Now    func() time.Time
}

// NewNormalizer returns a Normalizer emitting layout (ISO when empty).
func NewNormalizer(layout string) *Normalizer {
	if layout == "" {
		layout = DateLayoutISO
	}
	return &Normalizer{Layout: layout, Now: time.Now}
}

// Normalize returns the canonical date string for raw and whether parsing
// succeeded. On failure the result is the processing date.
func (n *Normalizer) Normalize(raw string) (string, bool) {
	t, _, err := ParseDate(raw)
	if err != nil {
		now := time.Now
		if n.Now != nil {
			now = n.Now
		}
		return now().Format(n.Layout), false
	}
	return t.Format(n.Layout), true
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}
