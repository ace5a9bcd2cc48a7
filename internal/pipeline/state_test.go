package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "categorizing_transactions", CategorizingTransactions.String())
	assert.Equal(t, "complete", Complete.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestState_Next(t *testing.T) {
	order := []State{Idle, ReadingFiles, DetectingColumns, ExtractingData, MappingCategories,
		CategorizingTransactions, Deduplicating, Saving, Complete, Idle}
	for i := 0; i+1 < len(order); i++ {
		assert.True(t, order[i].next(order[i+1]), "%s -> %s", order[i], order[i+1])
	}

	assert.False(t, Saving.next(ExtractingData), "no back-edges")
	assert.False(t, ReadingFiles.next(ExtractingData), "no skipping")
	assert.False(t, Complete.next(ReadingFiles))
	assert.True(t, Deduplicating.next(Idle), "aborted runs reset")
}

func TestDateRange(t *testing.T) {
	var dr DateRange
	assert.Empty(t, dr.String())
}
