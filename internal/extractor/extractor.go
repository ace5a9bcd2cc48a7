// Package extractor turns raw rows into ExtractedTransactions using a
// resolved column mapping.
package extractor

import (
	"time"

	"fjacquet/stmt-ingest/internal/columnmap"
	"fjacquet/stmt-ingest/internal/dateutils"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/source"
	"fjacquet/stmt-ingest/internal/textutils"

	"github.com/shopspring/decimal"
)

// Reasons a row is dropped, or flagged while kept.
const (
	ReasonBadAmount     = "bad_amount"
	ReasonZeroAmount    = "zero_amount"
	ReasonEmptyMerchant = "empty_merchant"
	ReasonDateFallback  = "date_fallback"
)

// Stats describes one extraction.
type Stats struct {
	Rows    int            `json:"rows"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped,omitempty"`
	// DateFallbacks counts kept rows whose date could not be parsed and
	// was replaced by the processing date.
	DateFallbacks int `json:"date_fallbacks"`
	// CreditOverrides counts rows with both debit and credit populated.
	CreditOverrides int `json:"credit_overrides"`
}

// DroppedTotal sums the dropped rows over all reasons.
func (s Stats) DroppedTotal() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Merge adds o into s.
func (s *Stats) Merge(o Stats) {
	s.Rows += o.Rows
	s.Kept += o.Kept
	s.DateFallbacks += o.DateFallbacks
	s.CreditOverrides += o.CreditOverrides
	for k, v := range o.Dropped {
		s.drop(k, v)
	}
}

func (s *Stats) drop(reason string, n int) {
	if s.Dropped == nil {
		s.Dropped = make(map[string]int)
	}
	s.Dropped[reason] += n
}

// Extractor converts mapped rows.
type Extractor struct {
	dates  *dateutils.Normalizer
	logger logging.Logger
}

// New creates an Extractor writing dates in layout (ISO when empty).
func New(layout string, logger logging.Logger) *Extractor {
	return &Extractor{dates: dateutils.NewNormalizer(layout), logger: logging.OrDefault(logger)}
}

// WithClock sets the clock used for the processing-date fallback.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.dates.Now = now
	return e
}

// Extract converts every row of table. Rows lacking a merchant or a
// non-zero amount are dropped and counted, never reported as errors.
func (e *Extractor) Extract(table *source.Table, mapping *columnmap.Mapping) ([]models.ExtractedTransaction, Stats) {
	var stats Stats
	out := make([]models.ExtractedTransaction, 0, len(table.Rows))
	log := e.logger.WithField(logging.FieldFile, table.Path)

	for i, row := range table.Rows {
		stats.Rows++
		rowNum := i + 1

		amount, reason, override := e.amount(row, mapping)
		if override {
			stats.CreditOverrides++
			log.Debug("Debit and credit both populated, credit wins", logging.F(logging.FieldRow, rowNum))
		}
		if reason == "" && amount.IsZero() {
			reason = ReasonZeroAmount
		}

		rawMerchant, _ := mapping.Cell(row, columnmap.Merchant)
		merchant := textutils.CleanMerchant(rawMerchant)
		if reason == "" && merchant == "" {
			reason = ReasonEmptyMerchant
		}

		if reason != "" {
			stats.drop(reason, 1)
			log.Debug("Dropping row",
				logging.F(logging.FieldRow, rowNum),
				logging.F(logging.FieldReason, reason))
			continue
		}

		rawDate, _ := mapping.Cell(row, columnmap.Date)
		date, parsed := e.dates.Normalize(rawDate)
		if !parsed {
			stats.DateFallbacks++
			log.Debug("Unparseable date, using processing date",
				logging.F(logging.FieldRow, rowNum),
				logging.F(logging.FieldReason, ReasonDateFallback))
		}

		category, _ := mapping.Cell(row, columnmap.Category)

		out = append(out, models.ExtractedTransaction{
			Date:       date,
			Merchant:   merchant,
			Amount:     amount,
			Category:   category,
			SourceFile: table.Path,
			Line:       rowNum,
		})
		stats.Kept++
	}

	log.Debug("Rows extracted",
		logging.F(logging.FieldCount, stats.Kept),
		logging.F("dropped", stats.DroppedTotal()))
	return out, stats
}

// amount returns the signed amount of row. With separate columns a
// non-zero debit is negative and a non-zero credit positive; when both
// are set the credit value is applied last and wins.
func (e *Extractor) amount(row []string, mapping *columnmap.Mapping) (amt decimal.Decimal, reason string, override bool) {
	if cell, ok := mapping.Cell(row, columnmap.Amount); ok {
		v, err := models.ParseAmount(cell)
		if err != nil {
			return decimal.Zero, ReasonBadAmount, false
		}
		return v, "", false
	}

	debit, err := optionalAmount(mapping, row, columnmap.Debit)
	if err != nil {
		return decimal.Zero, ReasonBadAmount, false
	}
	credit, err := optionalAmount(mapping, row, columnmap.Credit)
	if err != nil {
		return decimal.Zero, ReasonBadAmount, false
	}

	amt = decimal.Zero
	if !debit.IsZero() {
		amt = debit.Abs().Neg()
	}
	if !credit.IsZero() {
		override = !amt.IsZero()
		amt = credit.Abs()
	}
	return amt, "", override
}

// optionalAmount parses the cell of r; an empty or absent cell is zero.
func optionalAmount(mapping *columnmap.Mapping, row []string, r columnmap.Role) (decimal.Decimal, error) {
	cell, ok := mapping.Cell(row, r)
	if !ok || cell == "" {
		return decimal.Zero, nil
	}
	return models.ParseAmount(cell)
}
