// Package resolver removes exact duplicates and internal transfer pairs
// from a categorized transaction list.
package resolver

import (
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the largest |a+b| still treated as a transfer pair.
var DefaultTolerance = decimal.NewFromFloat(0.01)

// Stats counts what was removed.
type Stats struct {
	ExactDuplicates  int `json:"exact_duplicates"`
	TransferPairs    int `json:"transfer_pairs"`
	TransfersRemoved int `json:"transfers_removed"`
}

// Resolver applies duplicate and transfer removal.
type Resolver struct {
	tolerance decimal.Decimal
	logger    logging.Logger
}

// New creates a Resolver. A non-positive tolerance uses DefaultTolerance.
func New(tolerance decimal.Decimal, logger logging.Logger) *Resolver {
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}
	return &Resolver{tolerance: tolerance, logger: logging.OrDefault(logger)}
}

// Resolve returns txs without exact duplicates and without any transaction
// taking part in a transfer pair. Survivors keep their input order.
func (r *Resolver) Resolve(txs []models.ExtractedTransaction) ([]models.ExtractedTransaction, Stats) {
	var stats Stats

	unique, dups := Dedup(txs)
	stats.ExactDuplicates = dups

	legs, pairs := r.TransferLegs(unique)
	stats.TransferPairs = pairs
	stats.TransfersRemoved = len(legs)

	out := make([]models.ExtractedTransaction, 0, len(unique)-len(legs))
	for i, tx := range unique {
		if !legs[i] {
			out = append(out, tx)
		}
	}

	r.logger.Info("Duplicates and transfers resolved",
		logging.F(logging.FieldCount, len(out)),
		logging.F("exact_duplicates", stats.ExactDuplicates),
		logging.F("transfer_pairs", stats.TransferPairs),
		logging.F("transfers_removed", stats.TransfersRemoved))
	return out, stats
}

// Dedup keeps the first occurrence of each (date, amount, merchant) key.
func Dedup(txs []models.ExtractedTransaction) ([]models.ExtractedTransaction, int) {
	seen := make(map[string]bool, len(txs))
	out := make([]models.ExtractedTransaction, 0, len(txs))
	for _, tx := range txs {
		key := tx.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tx)
	}
	return out, len(txs) - len(out)
}

// TransferLegs finds every pair (i, j), i<j, with the same date and
// category whose amounts cancel within the tolerance. It returns the set of
// indices taking part in at least one pair and the number of pairs.
// Candidates are bucketed by date and category first, which gives the
// same result as comparing all pairs.
func (r *Resolver) TransferLegs(txs []models.ExtractedTransaction) (map[int]bool, int) {
	buckets := make(map[string][]int)
	for i, tx := range txs {
		key := tx.Date + "|" + tx.Category
		buckets[key] = append(buckets[key], i)
	}

	legs := make(map[int]bool)
	pairs := 0
	for _, idx := range buckets {
		for a := 0; a < len(idx); a++ {
			for b := a + 1; b < len(idx); b++ {
				i, j := idx[a], idx[b]
				if txs[i].Amount.Add(txs[j].Amount).Abs().LessThan(r.tolerance) {
					legs[i], legs[j] = true, true
					pairs++
				}
			}
		}
	}
	return legs, pairs
}
