// Package store holds the persistence backends that receive canonical
// transactions. Every backend suppresses records whose (date, amount,
// description) it already holds and reports failures as
// *parsererror.PersistenceError.
package store

import (
	"context"

	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/parsererror"
)

// Backend names.
const (
	DriverSQLite   = "sqlite"
	DriverCSV      = "csv"
	DriverBigQuery = "bigquery"
	DriverMemory   = "memory"
)

// Backend is a persistence backend owning its resources.
type Backend interface {
	Save(ctx context.Context, txs []models.Transaction) (models.SaveResult, error)
	Close() error
}

func fail(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &parsererror.PersistenceError{Backend: backend, Err: err}
}
