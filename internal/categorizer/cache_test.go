package categorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerchantCache(t *testing.T) {
	cache := NewMerchantCache()
	assert.Zero(t, cache.Len())

	cache.Put("AMAZON", "Shopping")
	cache.Put(" amazon ", "Shopping")
	cache.Put("", "Other")
	cache.Put("NETFLIX", "")

	label, ok := cache.Get("Amazon")
	assert.True(t, ok)
	assert.Equal(t, "Shopping", label)
	assert.Equal(t, 1, cache.Len())

	_, ok = cache.Get("NETFLIX")
	assert.False(t, ok)

	cache.Put("AMAZON", "Entertainment")
	label, _ = cache.Get("AMAZON")
	assert.Equal(t, "Entertainment", label)
}
