// Package container provides dependency injection for stmt-ingest.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"fjacquet/stmt-ingest/internal/assembler"
	"fjacquet/stmt-ingest/internal/categorizer"
	"fjacquet/stmt-ingest/internal/columnmap"
	"fjacquet/stmt-ingest/internal/config"
	"fjacquet/stmt-ingest/internal/extractor"
	"fjacquet/stmt-ingest/internal/inference"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/pipeline"
	"fjacquet/stmt-ingest/internal/resolver"
	"fjacquet/stmt-ingest/internal/source"
	"fjacquet/stmt-ingest/internal/standardizer"
	"fjacquet/stmt-ingest/internal/store"
	"fjacquet/stmt-ingest/internal/taxonomy"

	"github.com/shopspring/decimal"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation; dependencies are reached through
// getter methods only.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	client   inference.Client
	taxonomy *taxonomy.Taxonomy
	rules    *taxonomy.Store
	backend  store.Backend
	opener   *source.MultiOpener

	mapper      *columnmap.Mapper
	categorizer *categorizer.Categorizer
	pipeline    *pipeline.Pipeline

	closers []io.Closer
}

// Option overrides a dependency before wiring. Tests use it to inject
// fakes.
type Option func(*Container)

// WithLogger replaces the configured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// WithClient replaces the inference client. The client is used as is,
// without timeout or rate limiting.
func WithClient(client inference.Client) Option {
	return func(c *Container) { c.client = client }
}

// WithBackend replaces the configured persistence backend.
func WithBackend(b store.Backend) Option {
	return func(c *Container) { c.backend = b }
}

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	c := &Container{config: cfg}
	for _, opt := range opts {
		opt(c)
	}

	// Create logger first as it's needed by other components
	if c.logger == nil {
		c.logger = config.NewLogger(cfg)
	}

	if err := c.wire(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.logger.Info("Container initialized successfully",
		logging.F("ai_enabled", c.client != nil),
		logging.F(logging.FieldBackend, cfg.Store.Driver),
		logging.F("taxonomy_version", taxonomy.Version))
	return c, nil
}

func (c *Container) wire(ctx context.Context) error {
	cfg := c.config

	c.rules = taxonomy.NewStore(cfg.Taxonomy.KeywordsFile, c.logger)
	tax, err := c.rules.Load()
	if err != nil {
		return fmt.Errorf("failed to load taxonomy rules: %w", err)
	}
	c.taxonomy = tax

	if c.client == nil && cfg.AI.Enabled {
		client, err := c.newClient(ctx)
		if err != nil {
			return err
		}
		c.client = client
		c.logger.Info("AI categorization enabled",
			logging.F("provider", cfg.AI.Provider),
			logging.F("model", cfg.AI.Model))
	} else if c.client == nil {
		c.logger.Info("AI categorization disabled, using heuristics only")
	}

	if c.backend == nil {
		backend, err := NewBackend(ctx, cfg, c.logger)
		if err != nil {
			return err
		}
		c.backend = backend
	}
	c.closers = append(c.closers, c.backend)

	c.opener = source.NewMultiOpener(c.logger)
	c.closers = append(c.closers, c.opener)

	c.mapper = columnmap.NewMapper(c.client, c.logger)
	c.categorizer = categorizer.New(c.client, tax, c.logger, categorizer.Options{
		BatchSize:   cfg.Pipeline.BatchSize,
		Concurrency: cfg.AI.Concurrency,
		OnProgress: func(p float64) {
			c.logger.Debug("Categorization progress", logging.F(logging.FieldProgress, p))
		},
	})

	p, err := pipeline.New(pipeline.Components{
		Opener:       c.opener,
		Mapper:       c.mapper,
		Extractor:    extractor.New(cfg.Pipeline.DateLayout, c.logger),
		Standardizer: standardizer.New(c.client, tax, c.logger),
		Categorizer:  c.categorizer,
		Resolver:     resolver.New(decimal.NewFromFloat(cfg.Pipeline.TransferTolerance), c.logger),
		Assembler:    assembler.New(c.logger),
		Persister:    c.backend,
	}, pipeline.Options{
		Delimiter:  cfg.DelimiterRune(),
		DateLayout: cfg.Pipeline.DateLayout,
	}, c.logger)
	if err != nil {
		return err
	}
	c.pipeline = p
	return nil
}

// newClient builds the configured provider behind a per-call timeout and
// a rate limit. The limiter wait does not count against the timeout.
func (c *Container) newClient(ctx context.Context) (inference.Client, error) {
	cfg := c.config
	var raw inference.Client
	switch cfg.AI.Provider {
	case config.ProviderGenAI:
		client, err := inference.NewGenAIClient(ctx, cfg.AI.APIKey, cfg.AI.Model, c.logger)
		if err != nil {
			return nil, err
		}
		raw = client
	default:
		client, err := inference.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client)
		raw = client
	}

	timed := inference.WithTimeout(raw, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	return inference.WithRateLimit(timed, cfg.AI.RequestsPerMinute), nil
}

// NewBackend opens the persistence backend named by cfg.Store.Driver.
func NewBackend(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.Backend, error) {
	switch cfg.Store.Driver {
	case store.DriverSQLite, "":
		return store.OpenSQLite(cfg.Store.SQLitePath, logger)
	case store.DriverCSV:
		return store.NewCSVStore(cfg.Store.CSVPath, logger), nil
	case store.DriverBigQuery:
		bq := cfg.Store.BigQuery
		return store.NewBigQueryStore(ctx, bq.Project, bq.Dataset, bq.Table, logger)
	case store.DriverMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetAIClient returns the inference client, or nil when AI is disabled.
func (c *Container) GetAIClient() inference.Client {
	return c.client
}

// GetTaxonomy returns the taxonomy with any configured keyword rules.
func (c *Container) GetTaxonomy() *taxonomy.Taxonomy {
	return c.taxonomy
}

// GetRuleStore returns the store holding user keyword rules.
func (c *Container) GetRuleStore() *taxonomy.Store {
	return c.rules
}

// GetStore returns the persistence backend.
func (c *Container) GetStore() store.Backend {
	return c.backend
}

// GetOpener returns the input opener for local and gs:// files.
func (c *Container) GetOpener() source.Opener {
	return c.opener
}

// GetMapper returns the column mapper.
func (c *Container) GetMapper() *columnmap.Mapper {
	return c.mapper
}

// GetCategorizer returns the categorizer.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetPipeline returns the ingestion pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Close releases the backend, the opener and the inference client.
func (c *Container) Close() error {
	var first error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	if c.logger != nil {
		c.logger.Info("Container closed")
	}
	return first
}
