package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"fjacquet/stmt-ingest/internal/fileutils"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrations embed.FS

const insertTransaction = `INSERT OR IGNORE INTO transactions (id, date, description, amount, category)
VALUES (?, ?, ?, ?, ?)`

// SQLiteStore persists transactions in a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger logging.Logger
}

// OpenSQLite opens or creates the database at path and applies pending
// migrations.
func OpenSQLite(path string, logger logging.Logger) (*SQLiteStore, error) {
	logger = logging.OrDefault(logger)
	if dir := filepath.Dir(path); dir != "." {
		if err := fileutils.EnsureDirectoryExists(dir); err != nil {
			return nil, fail(DriverSQLite, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fail(DriverSQLite, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, path: path, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fail(DriverSQLite, err)
	}
	logger.Debug("SQLite store ready", logging.F(logging.FieldFile, path))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	// m.Close would also close s.db; only the source is released here.
	defer func() { _ = src.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Save inserts txs in one SQL transaction, skipping natural-key duplicates.
func (s *SQLiteStore) Save(ctx context.Context, txs []models.Transaction) (models.SaveResult, error) {
	var res models.SaveResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fail(DriverSQLite, err)
	}
	stmt, err := tx.PrepareContext(ctx, insertTransaction)
	if err != nil {
		_ = tx.Rollback()
		return res, fail(DriverSQLite, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range txs {
		r, err := stmt.ExecContext(ctx, t.ID, t.Date, t.Description, t.Amount.StringFixed(2), t.Category)
		if err != nil {
			_ = tx.Rollback()
			return models.SaveResult{}, fail(DriverSQLite, fmt.Errorf("insert %s: %w", t.ID, err))
		}
		n, err := r.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return models.SaveResult{}, fail(DriverSQLite, err)
		}
		if n > 0 {
			res.Inserted++
		} else {
			res.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return models.SaveResult{}, fail(DriverSQLite, err)
	}
	return res, nil
}

// List returns every stored transaction ordered by date and description.
func (s *SQLiteStore) List(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, description, amount, category FROM transactions ORDER BY date, description, id`)
	if err != nil {
		return nil, fail(DriverSQLite, err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &amount, &t.Category); err != nil {
			return nil, fail(DriverSQLite, err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fail(DriverSQLite, fmt.Errorf("stored amount %q: %w", amount, err))
		}
		out = append(out, t)
	}
	return out, fail(DriverSQLite, rows.Err())
}

// Count returns the number of stored transactions.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fail(DriverSQLite, err)
	}
	return n, nil
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
