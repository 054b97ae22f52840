package id

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSortsByMintOrder(t *testing.T) {
	t.Parallel()

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = New()
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.Len(t, id, 26)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids must sort in mint order")
}
