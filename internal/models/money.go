package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyAmount is returned by ParseAmount for blank cells.
var ErrEmptyAmount = errors.New("empty amount")

var currencyTokens = []string{
	"CHF", "USD", "EUR", "GBP", "CAD", "AUD",
	"$", "€", "£", "¥",
}

// ParseAmount parses a statement amount cell, keeping its sign. It strips
// surrounding quotes, currency symbols and codes, spaces and thousands
// separators. "(12.50)" and "12.50-" are read as negative.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	upper := strings.ToUpper(s)
	for _, tok := range currencyTokens {
		upper = strings.ReplaceAll(upper, tok, "")
	}
	s = upper

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "'", "")

	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if s == "" || s == "-" {
		return decimal.Zero, ErrEmptyAmount
	}

	dec, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount '%s': %w", raw, err)
	}
	if negative {
		dec = dec.Neg()
	}
	return dec, nil
}
