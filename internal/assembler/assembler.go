// Package assembler builds canonical transactions and hands them to the
// persistence backend.
package assembler

import (
	"context"
	"errors"

	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/parsererror"
	"fjacquet/stmt-ingest/internal/taxonomy"

	"github.com/google/uuid"
)

// Namespace seeds transaction identifiers.
var Namespace = uuid.MustParse("6f1c9a54-2b7e-4d0a-9c1e-5a7b3e8d2f10")

// Persister durably stores canonical transactions. Implementations
// suppress records whose (date, amount, description) they already hold.
type Persister interface {
	Save(ctx context.Context, txs []models.Transaction) (models.SaveResult, error)
}

// StableID derives the identifier of a transaction from its natural key,
// so replays of the same input produce the same identifiers.
func StableID(date, description string, amount string) string {
	return uuid.NewSHA1(Namespace, []byte(date+"|"+amount+"|"+description)).String()
}

// Assembler converts and emits transactions.
type Assembler struct {
	logger logging.Logger
}

// New creates an Assembler.
func New(logger logging.Logger) *Assembler {
	return &Assembler{logger: logging.OrDefault(logger)}
}

// Assemble converts every extracted transaction. Missing or unknown
// categories become Other.
func (a *Assembler) Assemble(txs []models.ExtractedTransaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		category, ok := taxonomy.Normalize(tx.Category)
		if !ok {
			if tx.HasCategory() {
				a.logger.Warn("Unknown category replaced with Other",
					logging.F(logging.FieldCategory, tx.Category),
					logging.F(logging.FieldMerchant, tx.Merchant))
			}
			category = taxonomy.Other
		}
		amount := models.AmountKey(tx.Amount)
		out = append(out, models.Transaction{
			ID:          StableID(tx.Date, tx.Merchant, amount),
			Date:        tx.Date,
			Description: tx.Merchant,
			Amount:      tx.Amount,
			Category:    category,
		})
	}
	return out
}

// Emit hands txs to p in a single call. Backend failures are reported as
// *parsererror.PersistenceError.
func (a *Assembler) Emit(ctx context.Context, p Persister, txs []models.Transaction) (models.SaveResult, error) {
	res, err := p.Save(ctx, txs)
	if err != nil {
		var pe *parsererror.PersistenceError
		if !errors.As(err, &pe) {
			err = &parsererror.PersistenceError{Backend: "unknown", Err: err}
		}
		a.logger.WithError(err).Error("Failed to persist transactions",
			logging.F(logging.FieldCount, len(txs)))
		return res, err
	}
	a.logger.Info("Transactions persisted",
		logging.F("inserted", res.Inserted),
		logging.F("skipped", res.Skipped))
	return res, nil
}
