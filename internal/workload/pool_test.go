package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stressql/stressql/internal/config"
)

func TestBuildPoolFrequencyExpansion(t *testing.T) {
	w := &config.Workload{
		Queries: []config.QueryTemplate{
			{QueryText: "SELECT 1", Frequency: 3},
			{QueryText: "SELECT 2", Frequency: 1},
			{QueryText: "SELECT 3"},                // unset clamps to 1
			{QueryText: "SELECT 4", Frequency: -2}, // negative clamps to 1
		},
	}

	pool, err := BuildPool(w)
	require.NoError(t, err)
	require.Equal(t, 6, pool.Size())

	counts := map[string]int{}
	for i := 0; i < pool.Size(); i++ {
		counts[pool.Entry(i).QueryText]++
	}
	assert.Equal(t, 3, counts["SELECT 1"])
	assert.Equal(t, 1, counts["SELECT 2"])
	assert.Equal(t, 1, counts["SELECT 3"])
	assert.Equal(t, 1, counts["SELECT 4"])
}

func TestBuildPoolDuplicateGroupName(t *testing.T) {
	w := &config.Workload{
		Queries: []config.QueryTemplate{{QueryGroup: "g"}},
		QueryGroups: []config.QueryGroup{
			{Name: "g", Queries: []string{"SELECT 1"}},
			{Name: "g", Queries: []string{"SELECT 2"}},
		},
	}
	_, err := BuildPool(w)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate query group name")
}

func TestPoolGroupLookup(t *testing.T) {
	w := &config.Workload{
		Queries:     []config.QueryTemplate{{QueryGroup: "g"}},
		QueryGroups: []config.QueryGroup{{Name: "g", Queries: []string{"SELECT 1"}}},
	}
	pool, err := BuildPool(w)
	require.NoError(t, err)

	g, ok := pool.Group("g")
	require.True(t, ok)
	assert.Equal(t, []string{"SELECT 1"}, g.Queries)

	_, ok = pool.Group("missing")
	assert.False(t, ok)
}
