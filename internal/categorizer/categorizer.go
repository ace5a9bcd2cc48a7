// Package categorizer assigns a taxonomy label to every transaction that
// still lacks one, resolving repeat merchants from a run-scoped cache and
// sending the rest to the inference service in fixed-size batches.
package categorizer

import (
	"context"
	"strings"
	"sync"
	"time"

	"fjacquet/stmt-ingest/internal/inference"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/taxonomy"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 4
)

// Options tunes a Categorizer.
type Options struct {
	BatchSize int
	// Concurrency bounds the per-item requests in flight after a batch
	// reply is rejected.
	Concurrency int
	// OnProgress receives the completed share of batches, in [0,1].
	OnProgress func(float64)
}

// Categorizer resolves missing categories.
type Categorizer struct {
	client inference.Client
	tax    *taxonomy.Taxonomy
	opts   Options
	logger logging.Logger

	mu       sync.Mutex
	progress float64
}

// New creates a Categorizer. A nil client resolves everything with the
// taxonomy heuristics.
func New(client inference.Client, tax *taxonomy.Taxonomy, logger logging.Logger, opts Options) *Categorizer {
	if tax == nil {
		tax = taxonomy.New()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Categorizer{client: client, tax: tax, opts: opts, logger: logging.OrDefault(logger)}
}

// Progress returns the completed share of the current or last run.
func (c *Categorizer) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

func (c *Categorizer) setProgress(p float64) {
	c.mu.Lock()
	if p > c.progress {
		c.progress = p
	}
	p = c.progress
	c.mu.Unlock()
	if c.opts.OnProgress != nil {
		c.opts.OnProgress(p)
	}
}

// outcome is the label chosen for one transaction and how it was found.
type outcome struct {
	label     string
	inferred  bool
	itemCall  bool
	heuristic bool
}

// Categorize fills the category of every uncategorized transaction in txs.
// Batches run sequentially; cache is updated after each batch, so merchants
// seen earlier in the run are never sent again. It returns early only when
// ctx is cancelled, leaving later batches untouched.
func (c *Categorizer) Categorize(ctx context.Context, txs []models.ExtractedTransaction, cache *MerchantCache) (models.CategorizationStats, error) {
	var stats models.CategorizationStats
	if cache == nil {
		cache = NewMerchantCache()
	}

	c.mu.Lock()
	c.progress = 0
	c.mu.Unlock()

	var pendingIdx []int
	for i := range txs {
		if !txs[i].HasCategory() {
			pendingIdx = append(pendingIdx, i)
		}
	}
	stats.Total = len(pendingIdx)
	if len(pendingIdx) == 0 {
		c.setProgress(1)
		return stats, nil
	}

	size := c.opts.BatchSize
	batches := (len(pendingIdx) + size - 1) / size
	start := time.Now()

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			c.logger.WithError(err).Warn("Categorization cancelled",
				logging.F(logging.FieldBatch, b+1))
			return stats, err
		}

		end := (b + 1) * size
		if end > len(pendingIdx) {
			end = len(pendingIdx)
		}
		batch := pendingIdx[b*size : end]

		var aiBound []int
		for _, i := range batch {
			if label, ok := cache.Get(txs[i].Merchant); ok {
				txs[i].Category = label
				stats.CacheHits++
				continue
			}
			aiBound = append(aiBound, i)
		}

		if len(aiBound) > 0 {
			outcomes := c.classifyBatch(ctx, txs, aiBound, &stats)
			for k, i := range aiBound {
				txs[i].Category = outcomes[k].label
				c.count(&stats, outcomes[k])
			}
			for _, i := range aiBound {
				cache.Put(txs[i].Merchant, txs[i].Category)
			}
		}

		c.setProgress(float64(b+1) / float64(batches))
		c.logger.Debug("Batch categorized",
			logging.F(logging.FieldBatch, b+1),
			logging.F(logging.FieldCount, len(batch)),
			logging.F(logging.FieldProgress, c.Progress()))
	}

	c.logger.Debug("Categorization finished",
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	return stats, nil
}

func (c *Categorizer) count(stats *models.CategorizationStats, o outcome) {
	if o.itemCall {
		stats.ItemCalls++
	}
	switch {
	case o.inferred:
		stats.AIAssigned++
	case o.heuristic:
		stats.Heuristic++
	}
}

// classifyBatch returns one outcome per index in idx, in order.
func (c *Categorizer) classifyBatch(ctx context.Context, txs []models.ExtractedTransaction, idx []int, stats *models.CategorizationStats) []outcome {
	out := make([]outcome, len(idx))
	if c.client == nil {
		for k, i := range idx {
			out[k] = outcome{label: c.tax.Fallback(txs[i].Merchant), heuristic: true}
		}
		return out
	}

	items := make([]inference.Descriptor, len(idx))
	for k, i := range idx {
		items[k] = descriptor(txs[i])
	}

	stats.BatchCalls++
	reply, err := c.client.Complete(ctx, inference.BatchClassifyPrompt(items, c.tax.Labels()))
	var labels []string
	if err == nil {
		labels, err = inference.Decode[[]string]("batch classification", inference.ArrayKind, reply)
	}
	if err == nil && len(labels) != len(idx) {
		c.logger.Warn("Batch classification returned wrong number of labels",
			logging.F("expected", len(idx)),
			logging.F("received", len(labels)))
		labels = nil
	} else if err != nil {
		c.logger.WithError(err).Warn("Batch classification failed, classifying individually")
	}

	if labels != nil {
		for k, i := range idx {
			label, inferred := c.resolve(labels[k], txs[i].Merchant)
			out[k] = outcome{label: label, inferred: inferred, heuristic: !inferred}
		}
		return out
	}

	stats.BatchRetries++
	return c.classifyEach(ctx, txs, idx)
}

// classifyEach issues one request per transaction, bounded by the
// configured concurrency, and returns outcomes in input order.
func (c *Categorizer) classifyEach(ctx context.Context, txs []models.ExtractedTransaction, idx []int) []outcome {
	out := make([]outcome, len(idx))

	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for k, i := range idx {
		g.Go(func() error {
			out[k] = c.classifyOne(ctx, txs[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

type singleLabel struct {
	Category string `json:"category"`
}

func (c *Categorizer) classifyOne(ctx context.Context, tx models.ExtractedTransaction) outcome {
	log := c.logger.WithField(logging.FieldMerchant, tx.Merchant)

	reply, err := c.client.Complete(ctx, inference.ClassifyPrompt(descriptor(tx), c.tax.Labels()))
	if err != nil {
		log.WithError(err).Warn("Classification failed, using keyword fallback")
		return outcome{label: c.tax.Fallback(tx.Merchant), itemCall: true, heuristic: true}
	}

	proposed := ""
	if parsed, derr := inference.Decode[singleLabel]("classification", inference.ObjectKind, reply); derr == nil {
		proposed = parsed.Category
	} else {
		proposed = strings.Trim(strings.TrimSpace(reply), `"'.`)
		log.WithError(derr).Debug("Classification reply was not JSON, trying it as a bare label")
	}

	label, inferred := c.resolve(proposed, tx.Merchant)
	return outcome{label: label, inferred: inferred, heuristic: !inferred, itemCall: true}
}

// resolve turns a proposed label into a taxonomy member. Near misses are
// corrected; anything unrecognisable is replaced by the merchant
// heuristics, in which case inferred is false.
func (c *Categorizer) resolve(proposed, merchant string) (label string, inferred bool) {
	if strings.TrimSpace(proposed) != "" {
		l := c.tax.Resolve(proposed)
		if _, valid := taxonomy.Normalize(proposed); valid || l != taxonomy.Other {
			return l, true
		}
	}
	return c.tax.Fallback(merchant), false
}

func descriptor(tx models.ExtractedTransaction) inference.Descriptor {
	return inference.Descriptor{
		Merchant:  tx.Merchant,
		Amount:    tx.Amount.Abs().StringFixed(2),
		Direction: tx.Direction(),
	}
}

// CategorizeOne classifies a single merchant and amount outside a run.
func (c *Categorizer) CategorizeOne(ctx context.Context, merchant string, amount decimal.Decimal) (string, error) {
	txs := []models.ExtractedTransaction{{Merchant: merchant, Amount: amount}}
	if _, err := c.Categorize(ctx, txs, NewMerchantCache()); err != nil {
		return "", err
	}
	return txs[0].Category, nil
}
