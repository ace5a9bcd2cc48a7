package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/parsererror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		{ID: "id-1", Date: "2024-01-15", Description: "STARBUCKS #123", Amount: decimal.RequireFromString("-5.5"), Category: "Food & Dining"},
		{ID: "id-2", Date: "2024-01-16", Description: "EMPLOYER", Amount: decimal.RequireFromString("3000"), Category: "Income"},
	}
}

func TestSQLiteStore_SaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "stmt.db")

	s, err := OpenSQLite(path, logging.NewMockLogger())
	require.NoError(t, err)

	res, err := s.Save(ctx, sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, models.SaveResult{Inserted: 2}, res)

	res, err = s.Save(ctx, sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, models.SaveResult{Skipped: 2}, res)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "STARBUCKS #123", list[0].Description)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("-5.50")))
	require.NoError(t, s.Close())

	// Reopening applies no migration and keeps the data.
	s, err = OpenSQLite(path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_NaturalKeyWinsOverID(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "stmt.db"), nil)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	first := sampleTransactions()[:1]
	_, err = s.Save(ctx, first)
	require.NoError(t, err)

	same := first[0]
	same.ID = "another-id"
	res, err := s.Save(ctx, []models.Transaction{same})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
}

func TestSQLiteStore_FailureIsPersistenceError(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "stmt.db"), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Save(context.Background(), sampleTransactions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrPersistenceFailure))

	var pe *parsererror.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, DriverSQLite, pe.Backend)
}

func TestCSVStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "transactions.csv")
	s := NewCSVStore(path, nil)

	res, err := s.Save(ctx, sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	more := append(sampleTransactions(), models.Transaction{
		ID: "id-3", Date: "2024-01-17", Description: "RENT", Amount: decimal.NewFromInt(-1200), Category: "Housing",
	})
	res, err = s.Save(ctx, more)
	require.NoError(t, err)
	assert.Equal(t, models.SaveResult{Inserted: 1, Skipped: 2}, res)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "id,date,description,amount,category")
	assert.Contains(t, string(data), "-5.50")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "RENT", list[2].Description)
	assert.NoError(t, s.Close())
}

func TestCSVStore_UnreadableFile(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0600))
	s := NewCSVStore(filepath.Join(parent, "transactions.csv"), nil)

	_, err := s.Save(context.Background(), sampleTransactions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, parsererror.ErrPersistenceFailure))
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	res, err := m.Save(ctx, sampleTransactions())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)

	dup := sampleTransactions()[1]
	dup.Amount = decimal.RequireFromString("3000.00")
	res, err = m.Save(ctx, []models.Transaction{dup})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, m.Transactions(), 2)
	assert.Equal(t, 2, m.Saves())

	m.SaveErr = errors.New("boom")
	_, err = m.Save(ctx, nil)
	assert.True(t, errors.Is(err, parsererror.ErrPersistenceFailure))
}

func TestBigQueryRow(t *testing.T) {
	row := bqRow{tx: sampleTransactions()[0]}
	values, insertID, err := row.Save()
	require.NoError(t, err)
	assert.Equal(t, "id-1", insertID)
	assert.Equal(t, "-5.50", values["amount"])
	assert.Equal(t, "STARBUCKS #123", values["description"])
}

func TestNewBigQueryStore_RequiresTable(t *testing.T) {
	_, err := NewBigQueryStore(context.Background(), "proj", "", "tx", nil)
	assert.True(t, errors.Is(err, parsererror.ErrPersistenceFailure))
}
