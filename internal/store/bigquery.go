package store

import (
	"context"
	"errors"
	"fmt"

	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// bqRow streams one transaction. The transaction ID doubles as the
// streaming insert ID, so BigQuery drops retried or replayed rows on a
// best-effort basis.
type bqRow struct {
	tx models.Transaction
}

// Save implements bigquery.ValueSaver, using the transaction id as the
// streaming insert id.
func (r bqRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"transaction_id": r.tx.ID,
		"date":           r.tx.Date,
		"description":    r.tx.Description,
		"amount":         r.tx.Amount.StringFixed(2),
		"category":       r.tx.Category,
	}, r.tx.ID, nil
}

// BigQueryStore streams transactions into a BigQuery table.
type BigQueryStore struct {
	client *bigquery.Client
	table  *bigquery.Table
	logger logging.Logger
}

// NewBigQueryStore connects to project and targets dataset.table.
func NewBigQueryStore(ctx context.Context, project, dataset, table string, logger logging.Logger, opts ...option.ClientOption) (*BigQueryStore, error) {
	if project == "" || dataset == "" || table == "" {
		return nil, fail(DriverBigQuery, errors.New("project, dataset and table are required"))
	}
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fail(DriverBigQuery, fmt.Errorf("bigquery client: %w", err))
	}
	return &BigQueryStore{
		client: client,
		table:  client.DatasetInProject(project, dataset).Table(table),
		logger: logging.OrDefault(logger),
	}, nil
}

// Save streams txs in one insert call.
func (s *BigQueryStore) Save(ctx context.Context, txs []models.Transaction) (models.SaveResult, error) {
	if len(txs) == 0 {
		return models.SaveResult{}, nil
	}
	rows := make([]bqRow, len(txs))
	for i, t := range txs {
		rows[i] = bqRow{tx: t}
	}
	if err := s.table.Inserter().Put(ctx, rows); err != nil {
		return models.SaveResult{}, fail(DriverBigQuery, fmt.Errorf("inserting rows: %w", err))
	}
	s.logger.Debug("Rows streamed to BigQuery",
		logging.F(logging.FieldCount, len(rows)),
		logging.F("table", s.table.FullyQualifiedName()))
	return models.SaveResult{Inserted: len(rows)}, nil
}

// Close closes the BigQuery client.
func (s *BigQueryStore) Close() error {
	return s.client.Close()
}
