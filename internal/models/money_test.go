package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "5.50", "5.5"},
		{"negative", "-42.10", "-42.1"},
		{"explicit plus", "+3", "3"},
		{"dollar sign", "$1,234.56", "1234.56"},
		{"negative dollar", "-$12.00", "-12"},
		{"euro suffix", "99.99 €", "99.99"},
		{"currency code", "CHF 1'200.00", "1200"},
		{"quoted", `"1,000.00"`, "1000"},
		{"parentheses negative", "(25.00)", "-25"},
		{"trailing minus", "18.40-", "-18.4"},
		{"non-breaking space", "1\u00a0000.00", "1000"},
		{"zero", "0.00", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmount_Errors(t *testing.T) {
	_, err := ParseAmount("")
	assert.True(t, errors.Is(err, ErrEmptyAmount))

	_, err = ParseAmount("  $ ")
	assert.True(t, errors.Is(err, ErrEmptyAmount))

	_, err = ParseAmount("n/a")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyAmount))
}
