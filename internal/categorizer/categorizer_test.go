package categorizer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"fjacquet/stmt-ingest/internal/inference"
	"fjacquet/stmt-ingest/internal/logging"
	"fjacquet/stmt-ingest/internal/models"
	"fjacquet/stmt-ingest/internal/taxonomy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var merchantField = regexp.MustCompile(`"merchant":"([^"]*)"`)

func merchantsIn(prompt string) []string {
	var out []string
	for _, m := range merchantField.FindAllStringSubmatch(prompt, -1) {
		out = append(out, m[1])
	}
	return out
}

func isBatchPrompt(prompt string) bool {
	return strings.Contains(prompt, "JSON array")
}

// labelFor is the category the scripted service assigns to a merchant.
func labelFor(merchant string) string {
	switch {
	case strings.Contains(merchant, "UBER"):
		return taxonomy.Transportation
	case strings.Contains(merchant, "AMAZON"):
		return taxonomy.Shopping
	default:
		return taxonomy.FoodDining
	}
}

// wellBehaved answers batch prompts with one label per merchant and single
// prompts with a JSON object.
func wellBehaved(prompt string) (string, error) {
	merchants := merchantsIn(prompt)
	if isBatchPrompt(prompt) {
		labels := make([]string, len(merchants))
		for i, m := range merchants {
			labels[i] = fmt.Sprintf("%q", labelFor(m))
		}
		return "[" + strings.Join(labels, ",") + "]", nil
	}
	return fmt.Sprintf(`{"category": %q}`, labelFor(merchants[0])), nil
}

func tx(merchant, amount string) models.ExtractedTransaction {
	return models.ExtractedTransaction{Date: "2024-01-01", Merchant: merchant, Amount: decimal.RequireFromString(amount)}
}

func TestCategorize_CacheAcrossBatches(t *testing.T) {
	fake := inference.NewFakeClient(wellBehaved)
	c := New(fake, taxonomy.New(), logging.NewMockLogger(), Options{BatchSize: 10})

	txs := []models.ExtractedTransaction{tx("AMAZON", "-20.00")}
	for i := 0; i < 9; i++ {
		txs = append(txs, tx(fmt.Sprintf("CAFE %d", i), "-3.00"))
	}
	txs = append(txs, tx("AMAZON", "-45.00"), tx("UBER", "-12.00"))

	cache := NewMerchantCache()
	stats, err := c.Categorize(context.Background(), txs, cache)
	require.NoError(t, err)

	prompts := fake.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, merchantsIn(prompts[0]), "AMAZON")
	assert.Equal(t, []string{"UBER"}, merchantsIn(prompts[1]), "cached merchant is not sent again")

	assert.Equal(t, taxonomy.Shopping, txs[0].Category)
	assert.Equal(t, taxonomy.Shopping, txs[10].Category)
	assert.Equal(t, taxonomy.Transportation, txs[11].Category)

	assert.Equal(t, 12, stats.Total)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 2, stats.BatchCalls)
	assert.Zero(t, stats.ItemCalls)
	assert.Equal(t, 11, stats.AIAssigned)
	assert.Equal(t, 11, cache.Len())
}

func TestCategorize_RepeatsWithinBatchAreSent(t *testing.T) {
	fake := inference.NewFakeClient(wellBehaved)
	c := New(fake, nil, nil, Options{})

	txs := []models.ExtractedTransaction{tx("AMAZON", "-1.00"), tx("AMAZON", "-2.00")}
	_, err := c.Categorize(context.Background(), txs, NewMerchantCache())
	require.NoError(t, err)

	require.Equal(t, 1, fake.Calls())
	assert.Equal(t, []string{"AMAZON", "AMAZON"}, merchantsIn(fake.Prompts()[0]))
}

func TestCategorize_LengthMismatchFallsBackPerItem(t *testing.T) {
	fake := inference.NewFakeClient(func(prompt string) (string, error) {
		if isBatchPrompt(prompt) {
			return `["Travel"]`, nil
		}
		return wellBehaved(prompt)
	})
	logger := logging.NewMockLogger()
	c := New(fake, taxonomy.New(), logger, Options{Concurrency: 2})

	txs := []models.ExtractedTransaction{tx("UBER TRIP", "-9.00"), tx("BAKERY", "-4.00"), tx("AMAZON MKTP", "-30.00")}
	stats, err := c.Categorize(context.Background(), txs, NewMerchantCache())
	require.NoError(t, err)

	assert.Equal(t, taxonomy.Transportation, txs[0].Category)
	assert.Equal(t, taxonomy.FoodDining, txs[1].Category)
	assert.Equal(t, taxonomy.Shopping, txs[2].Category)

	assert.Equal(t, 4, fake.Calls())
	assert.Equal(t, 1, stats.BatchCalls)
	assert.Equal(t, 1, stats.BatchRetries)
	assert.Equal(t, 3, stats.ItemCalls)
	assert.Equal(t, 3, stats.AIAssigned)
	assert.True(t, logger.HasEntry("WARN", "Batch classification returned wrong number of labels"))
}

func TestCategorize_MalformedBatchAndFailingItems(t *testing.T) {
	fake := inference.NewFakeClient(func(prompt string) (string, error) {
		if isBatchPrompt(prompt) {
			return "Sorry, I cannot do that.", nil
		}
		return "", errors.New("service unavailable")
	})
	c := New(fake, taxonomy.New(), logging.NewMockLogger(), Options{})

	txs := []models.ExtractedTransaction{tx("SHELL FUEL 42", "-60.00"), tx("ZZZ", "-1.00")}
	stats, err := c.Categorize(context.Background(), txs, NewMerchantCache())
	require.NoError(t, err)

	assert.Equal(t, taxonomy.Transportation, txs[0].Category)
	assert.Equal(t, taxonomy.Other, txs[1].Category)
	assert.Equal(t, 2, stats.Heuristic)
	assert.Equal(t, 2, stats.ItemCalls)
}

func TestCategorize_InvalidLabelsAreResolved(t *testing.T) {
	fake := inference.NewFakeClient(func(string) (string, error) {
		return `["groceries", "N/A", "food and dining"]`, nil
	})
	c := New(fake, taxonomy.New(), nil, Options{})

	txs := []models.ExtractedTransaction{tx("MIGROS", "-50.00"), tx("NETFLIX STREAM", "-15.00"), tx("CAFE", "-3.00")}
	stats, err := c.Categorize(context.Background(), txs, NewMerchantCache())
	require.NoError(t, err)

	assert.Equal(t, taxonomy.FoodDining, txs[0].Category)
	assert.Equal(t, taxonomy.Entertainment, txs[1].Category, "unusable label falls back to the merchant")
	assert.Equal(t, taxonomy.FoodDining, txs[2].Category)
	assert.Equal(t, 2, stats.AIAssigned)
	assert.Equal(t, 1, stats.Heuristic)
}

func TestCategorize_BareLabelReply(t *testing.T) {
	fake := inference.NewFakeClient(func(prompt string) (string, error) {
		if isBatchPrompt(prompt) {
			return "[]", nil
		}
		return `"Healthcare".`, nil
	})
	c := New(fake, nil, nil, Options{})

	txs := []models.ExtractedTransaction{tx("DR SMITH", "-80.00")}
	_, err := c.Categorize(context.Background(), txs, NewMerchantCache())
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Healthcare, txs[0].Category)
}

func TestCategorize_HeuristicOnly(t *testing.T) {
	c := New(nil, taxonomy.New(), nil, Options{})

	txs := []models.ExtractedTransaction{tx("ACME PAYROLL", "2500.00"), tx("CITY PARKING", "-4.00")}
	stats, err := c.Categorize(context.Background(), txs, nil)
	require.NoError(t, err)

	assert.Equal(t, taxonomy.Income, txs[0].Category)
	assert.Equal(t, taxonomy.Transportation, txs[1].Category)
	assert.Zero(t, stats.InferenceCalls())
	assert.Equal(t, 2, stats.Heuristic)
}

func TestCategorize_SkipsCategorizedAndReportsProgress(t *testing.T) {
	var progress []float64
	fake := inference.NewFakeClient(wellBehaved)
	c := New(fake, nil, nil, Options{BatchSize: 2, OnProgress: func(p float64) { progress = append(progress, p) }})

	txs := []models.ExtractedTransaction{tx("A", "-1"), tx("B", "-1"), tx("C", "-1")}
	txs = append(txs, models.ExtractedTransaction{Merchant: "RENT", Amount: decimal.NewFromInt(-900), Category: taxonomy.Housing})

	stats, err := c.Categorize(context.Background(), txs, NewMerchantCache())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, taxonomy.Housing, txs[3].Category)
	assert.Equal(t, []float64{0.5, 1}, progress)
	assert.Equal(t, 1.0, c.Progress())
}

func TestCategorize_NothingToDo(t *testing.T) {
	c := New(inference.NewFakeClient(nil), nil, nil, Options{})
	stats, err := c.Categorize(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Equal(t, 1.0, c.Progress())
}

func TestCategorize_Cancelled(t *testing.T) {
	fake := inference.NewFakeClient(wellBehaved)
	c := New(fake, nil, nil, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := []models.ExtractedTransaction{tx("A", "-1")}
	_, err := c.Categorize(ctx, txs, NewMerchantCache())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fake.Calls())
	assert.Empty(t, txs[0].Category)
}

func TestCategorizeOne(t *testing.T) {
	c := New(inference.NewFakeClient(wellBehaved), nil, nil, Options{})
	label, err := c.CategorizeOne(context.Background(), "UBER", decimal.NewFromInt(-10))
	require.NoError(t, err)
	assert.Equal(t, taxonomy.Transportation, label)
}
