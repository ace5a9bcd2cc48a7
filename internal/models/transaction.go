package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ExtractedTransaction is a semi-structured record produced from one input
// row. Category stays empty until the standardizer or categorizer fills it.
type ExtractedTransaction struct {
	Date     string          `json:"date"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category,omitempty"`

	// Provenance, used for diagnostics only.
	SourceFile string `json:"source_file,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// HasCategory reports whether a category has been assigned.
func (t ExtractedTransaction) HasCategory() bool {
	return t.Category != ""
}

// IsInflow reports whether money came in.
func (t ExtractedTransaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// Direction returns "inflow" or "outflow".
func (t ExtractedTransaction) Direction() string {
	if t.IsInflow() {
		return DirectionInflow
	}
	return DirectionOutflow
}

// DedupKey identifies exact duplicates: same date, amount and merchant.
// Amounts compare at cent precision, like NaturalKey and stable ids.
func (t ExtractedTransaction) DedupKey() string {
	return fmt.Sprintf("%s|%s|%s", t.Date, AmountKey(t.Amount), t.Merchant)
}

// AmountKey renders an amount the way every identity key sees it.
func AmountKey(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Transaction is the canonical, taxonomy-conformant record handed to the
// persistence layer. It is created once by the assembler and never mutated.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

// NaturalKey is the (date, amount, description) tuple persistence backends
// use for their own duplicate suppression.
func (t Transaction) NaturalKey() string {
	return fmt.Sprintf("%s|%s|%s", t.Date, AmountKey(t.Amount), t.Description)
}

// Direction constants used in prompts and logs.
const (
	DirectionInflow  = "inflow"
	DirectionOutflow = "outflow"
)

// SaveResult reports what a persistence backend did with a batch.
type SaveResult struct {
	Inserted int `json:"inserted"`
	// Skipped counts records the backend already held.
	Skipped int `json:"skipped"`
}
