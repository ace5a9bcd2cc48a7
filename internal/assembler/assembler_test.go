package assembler

import (
	"context"
	"errors"
	"testing"

	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/parsererror"
	"fjacquet/stmt-ingest/internal/taxonomy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPersister struct {
	calls [][]models.Transaction
	err   error
}

func (p *recordingPersister) Save(_ context.Context, txs []models.Transaction) (models.SaveResult, error) {
	p.calls = append(p.calls, txs)
	if p.err != nil {
		return models.SaveResult{}, p.err
	}
	return models.SaveResult{Inserted: len(txs)}, nil
}

func extracted(merchant, amount, category string) models.ExtractedTransaction {
	return models.ExtractedTransaction{
		Date:     "2024-01-15",
		Merchant: merchant,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
	}
}

func TestAssemble(t *testing.T) {
	logger := logging.NewMockLogger()
	a := New(logger)

	out := a.Assemble([]models.ExtractedTransaction{
		extracted("STARBUCKS #123", "-5.5", "Food & Dining"),
		extracted("MYSTERY", "-1.00", ""),
		extracted("ODD", "-2.00", "Groceries"),
		extracted("EMPLOYER", "3000", "income"),
	})

	require.Len(t, out, 4)
	assert.Equal(t, "STARBUCKS #123", out[0].Description)
	assert.Equal(t, "2024-01-15", out[0].Date)
	assert.Equal(t, taxonomy.FoodDining, out[0].Category)
	assert.Equal(t, taxonomy.Other, out[1].Category)
	assert.Equal(t, taxonomy.Other, out[2].Category)
	assert.Equal(t, taxonomy.Income, out[3].Category)
	assert.True(t, logger.HasEntry("WARN", "Unknown category replaced with Other"))

	for _, tx := range out {
		assert.True(t, taxonomy.IsValid(tx.Category))
		_, err := uuid.Parse(tx.ID)
		assert.NoError(t, err)
	}
}

func TestStableID(t *testing.T) {
	a := New(nil)
	first := a.Assemble([]models.ExtractedTransaction{extracted("ACME", "-5.50", "")})
	again := a.Assemble([]models.ExtractedTransaction{extracted("ACME", "-5.5", "Shopping")})

	assert.Equal(t, first[0].ID, again[0].ID, "same natural key, same id")
	assert.NotEqual(t, StableID("2024-01-15", "ACME", "-5.50"), StableID("2024-01-15", "ACME", "5.50"))

	id, err := uuid.Parse(first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), id.Version())
}

func TestEmit(t *testing.T) {
	p := &recordingPersister{}
	a := New(nil)
	txs := a.Assemble([]models.ExtractedTransaction{extracted("A", "-1", ""), extracted("B", "-2", "")})

	res, err := a.Emit(context.Background(), p, txs)
	require.NoError(t, err)
	assert.Len(t, p.calls, 1, "one call for the whole batch")
	assert.Equal(t, 2, res.Inserted)
}

func TestEmit_WrapsFailures(t *testing.T) {
	cause := errors.New("disk full")
	p := &recordingPersister{err: cause}

	_, err := New(nil).Emit(context.Background(), p, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrPersistenceFailure))
	assert.True(t, errors.Is(err, cause))

	typed := &parsererror.PersistenceError{Backend: "sqlite", Err: cause}
	p.err = typed
	_, err = New(nil).Emit(context.Background(), p, nil)
	var pe *parsererror.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "sqlite", pe.Backend)
}
