package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fjacquet/stmt-ingest/internal/fileutils"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// csvRow is the on-disk layout of CSVStore.
type csvRow struct {
	ID          string `csv:"id"`
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
}

func (r csvRow) key() string {
	return r.Date + "|" + r.Amount + "|" + r.Description
}

func toCSVRow(t models.Transaction) csvRow {
	return csvRow{
		ID:          t.ID,
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Category:    t.Category,
	}
}

// CSVStore keeps transactions in a single CSV file, rewritten on every
// save.
type CSVStore struct {
	path   string
	logger logging.Logger
	mu     sync.Mutex
}

// NewCSVStore returns a store writing to path.
func NewCSVStore(path string, logger logging.Logger) *CSVStore {
	return &CSVStore{path: path, logger: logging.OrDefault(logger)}
}

func (s *CSVStore) load() ([]csvRow, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && info.Size() == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return rows, nil
}

// Save appends the transactions not yet present in the file.
func (s *CSVStore) Save(_ context.Context, txs []models.Transaction) (models.SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res models.SaveResult
	rows, err := s.load()
	if err != nil {
		return res, fail(DriverCSV, err)
	}

	seen := make(map[string]bool, len(rows)+len(txs))
	for _, r := range rows {
		seen[r.key()] = true
	}
	for _, t := range txs {
		r := toCSVRow(t)
		if seen[r.key()] {
			res.Skipped++
			continue
		}
		seen[r.key()] = true
		rows = append(rows, r)
		res.Inserted++
	}
	if res.Inserted == 0 && len(rows) > 0 {
		return res, nil
	}

	if err := fileutils.EnsureDirectoryExists(filepath.Dir(s.path)); err != nil {
		return models.SaveResult{}, fail(DriverCSV, err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return models.SaveResult{}, fail(DriverCSV, err)
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		_ = f.Close()
		return models.SaveResult{}, fail(DriverCSV, err)
	}
	if err := f.Close(); err != nil {
		return models.SaveResult{}, fail(DriverCSV, err)
	}

	s.logger.Debug("CSV store written",
		logging.F(logging.FieldFile, s.path),
		logging.F(logging.FieldCount, len(rows)))
	return res, nil
}

// List returns the transactions in file order.
func (s *CSVStore) List(_ context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.load()
	if err != nil {
		return nil, fail(DriverCSV, err)
	}
	out := make([]models.Transaction, 0, len(rows))
	for _, r := range rows {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, fail(DriverCSV, fmt.Errorf("stored amount %q: %w", r.Amount, err))
		}
		out = append(out, models.Transaction{
			ID:          r.ID,
			Date:        r.Date,
			Description: r.Description,
			Amount:      amount,
			Category:    r.Category,
		})
	}
	return out, nil
}

// Close is a no-op; every Save rewrites the file.
func (s *CSVStore) Close() error { return nil }
