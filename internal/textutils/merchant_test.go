package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanMerchant(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trailing reference", "STARBUCKS #123 000445", "STARBUCKS #123"},
		{"short number kept", "SHELL 12345", "SHELL 12345"},
		{"purchase prefix", "Purchase at Whole Foods", "Whole Foods"},
		{"prefix is case-insensitive", "PAYMENT TO Landlord LLC", "Landlord LLC"},
		{"transfer from", "Transfer from Savings 99887766", "Savings"},
		{"pos prefix", "pos transaction at Corner Deli", "Corner Deli"},
		{"card payment", "Card Payment to NETFLIX.COM", "NETFLIX.COM"},
		{"direct debit", "Direct Debit to City Water", "City Water"},
		{"surrounding whitespace", "   AMAZON   ", "AMAZON"},
		{"only reference", "1234567", ""},
		{"prefix and reference", "Payment to Acme 123456", "Acme"},
		{"only one prefix stripped", "Payment to Transfer to Bob", "Transfer to Bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanMerchant(tt.input))
		})
	}
}

func TestStripPrefixFold(t *testing.T) {
	assert.Equal(t, "x", StripPrefixFold("ab x", []string{"AB "}))
	assert.Equal(t, "a", StripPrefixFold("a", []string{"abc"}))
}
