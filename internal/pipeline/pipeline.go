// Package pipeline drives one ingestion run from queued files to persisted
// transactions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fjacquet/stmt-ingest/internal/assembler"
	"fjacquet/stmt-ingest/internal/categorizer"
	"fjacquet/stmt-ingest/internal/columnmap"
	"fjacquet/stmt-ingest/internal/extractor"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/parsererror"
	"fjacquet/stmt-ingest/internal/resolver"
	"fjacquet/stmt-ingest/internal/source"
	"fjacquet/stmt-ingest/internal/standardizer"
)

// ErrRunInProgress is returned when Run is called while another run on the
// same Pipeline has not finished.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// Components are the stages a Pipeline drives. Nil stages get a
// heuristic-only default; Persister is required.
type Components struct {
	Opener       source.Opener
	Mapper       *columnmap.Mapper
	Extractor    *extractor.Extractor
	Standardizer *standardizer.Standardizer
	Categorizer  *categorizer.Categorizer
	Resolver     *resolver.Resolver
	Assembler    *assembler.Assembler
	Persister    assembler.Persister
}

// Options tunes input decoding.
type Options struct {
	// Delimiter separates fields; zero means comma.
	Delimiter rune
	// DateLayout is the canonical date layout, used for the report's
	// date range.
	DateLayout string
}

// Pipeline runs ingestion. It holds at most one active run.
type Pipeline struct {
	c      Components
	opts   Options
	logger logging.Logger

	mu      sync.Mutex
	state   State
	running bool
}

// New creates a Pipeline.
func New(c Components, opts Options, logger logging.Logger) (*Pipeline, error) {
	if c.Persister == nil {
		return nil, fmt.Errorf("pipeline requires a persister")
	}
	logger = logging.OrDefault(logger)
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "2006-01-02"
	}
	if c.Opener == nil {
		c.Opener = source.FileOpener{}
	}
	if c.Mapper == nil {
		c.Mapper = columnmap.NewMapper(nil, logger)
	}
	if c.Extractor == nil {
		c.Extractor = extractor.New(opts.DateLayout, logger)
	}
	if c.Standardizer == nil {
		c.Standardizer = standardizer.New(nil, nil, logger)
	}
	if c.Categorizer == nil {
		c.Categorizer = categorizer.New(nil, nil, logger, categorizer.Options{})
	}
	if c.Resolver == nil {
		c.Resolver = resolver.New(resolver.DefaultTolerance, logger)
	}
	if c.Assembler == nil {
		c.Assembler = assembler.New(logger)
	}
	return &Pipeline{c: c, opts: opts, logger: logger}, nil
}

// State returns the stage the current run is in, or Idle.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Progress returns the categorization progress of the current or last run.
func (p *Pipeline) Progress() float64 {
	return p.c.Categorizer.Progress()
}

func (p *Pipeline) enter(s State) {
	p.mu.Lock()
	from := p.state
	if !from.next(s) {
		p.mu.Unlock()
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", from, s))
	}
	p.state = s
	p.mu.Unlock()

	p.logger.Debug("Pipeline state changed",
		logging.F("from", from.String()),
		logging.F(logging.FieldStage, s.String()))
}

func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	return true
}

func (p *Pipeline) finish() {
	p.enter(Idle)
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// loaded is one file that reached a stage.
type loaded struct {
	table   *source.Table
	mapping *columnmap.Mapping
}

// Run ingests files. A file that cannot be read or whose essential columns
// cannot be resolved is recorded in the report and skipped; the run fails
// only when no file survives, when ctx is cancelled or when persistence
// fails. The returned report is non-nil whenever files is non-empty.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Report, error) {
	if len(files) == 0 {
		return nil, parsererror.ErrNoFilesQueued
	}
	if !p.begin() {
		return nil, ErrRunInProgress
	}
	defer p.finish()

	start := time.Now()
	report := &Report{Files: len(files)}
	defer func() { report.Duration = time.Since(start) }()

	p.logger.Info("Starting pipeline run", logging.F(logging.FieldCount, len(files)))

	p.enter(ReadingFiles)
	tables, err := p.readFiles(ctx, files, report)
	if err != nil {
		return report, err
	}

	p.enter(DetectingColumns)
	mapped, err := p.detectColumns(ctx, tables, report)
	if err != nil {
		return report, err
	}
	if len(mapped) == 0 {
		first := report.FileErrors[0]
		return report, fmt.Errorf("no file could be ingested: %s: %w", first.Path, first.err)
	}

	p.enter(ExtractingData)
	txs := p.extract(mapped, report)

	p.enter(MappingCategories)
	std := p.c.Standardizer.Standardize(ctx, txs)
	report.LabelsMapped = len(std.Mapping)

	p.enter(CategorizingTransactions)
	cache := categorizer.NewMerchantCache()
	stats, err := p.c.Categorizer.Categorize(ctx, txs, cache)
	report.Categorization = stats
	if err != nil {
		return report, p.aborted(err)
	}
	stats.LogSummary(p.logger)

	p.enter(Deduplicating)
	survivors, res := p.c.Resolver.Resolve(txs)
	report.Resolution = res
	report.DateRange = p.dateRange(survivors)

	if err := ctx.Err(); err != nil {
		return report, p.aborted(err)
	}

	p.enter(Saving)
	saved, err := p.c.Assembler.Emit(ctx, p.c.Persister, p.c.Assembler.Assemble(survivors))
	report.Persisted = saved.Inserted
	report.AlreadyPresent = saved.Skipped
	if err != nil {
		return report, err
	}

	p.enter(Complete)
	p.logger.Info("Pipeline run complete",
		logging.F("files_failed", len(report.FileErrors)),
		logging.F("rows", report.Extraction.Rows),
		logging.F("kept", len(survivors)),
		logging.F("persisted", report.Persisted),
		logging.F("already_present", report.AlreadyPresent))
	return report, nil
}

func (p *Pipeline) aborted(err error) error {
	stage := p.State()
	p.logger.WithError(err).Warn("Pipeline run cancelled", logging.F(logging.FieldStage, stage.String()))
	return fmt.Errorf("run cancelled while %s: %w", stage, err)
}

func (p *Pipeline) readFiles(ctx context.Context, files []string, report *Report) ([]*source.Table, error) {
	tables := make([]*source.Table, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, p.aborted(err)
		}
		table, err := source.LoadDelimited(ctx, p.c.Opener, path, p.opts.Delimiter)
		if err != nil {
			p.logger.WithError(err).Warn("Skipping unreadable file", logging.F(logging.FieldFile, path))
			report.fail(path, err)
			continue
		}
		report.MismatchedRows += table.MismatchedRows
		p.logger.Debug("File read",
			logging.F(logging.FieldFile, path),
			logging.F("rows", len(table.Rows)))
		tables = append(tables, table)
	}
	return tables, nil
}

func (p *Pipeline) detectColumns(ctx context.Context, tables []*source.Table, report *Report) ([]loaded, error) {
	out := make([]loaded, 0, len(tables))
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, p.aborted(err)
		}
		mapping, err := p.c.Mapper.MapTable(ctx, table)
		if err != nil {
			p.logger.WithError(err).Warn("Skipping file with unresolved columns",
				logging.F(logging.FieldFile, table.Path))
			report.fail(table.Path, err)
			continue
		}
		out = append(out, loaded{table: table, mapping: mapping})
	}
	return out, nil
}

func (p *Pipeline) extract(files []loaded, report *Report) []models.ExtractedTransaction {
	var txs []models.ExtractedTransaction
	for _, f := range files {
		got, stats := p.c.Extractor.Extract(f.table, f.mapping)
		report.Extraction.Merge(stats)
		txs = append(txs, got...)
	}
	return txs
}

func (p *Pipeline) dateRange(txs []models.ExtractedTransaction) DateRange {
	var dr DateRange
	for _, tx := range txs {
		if t, err := time.Parse(p.opts.DateLayout, tx.Date); err == nil {
			dr = dr.Include(t)
		}
	}
	return dr
}
