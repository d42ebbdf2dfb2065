package workload

import (
	"fmt"

	"github.com/stressql/stressql/internal/config"
)

// Pool is the frequency-expanded, flat list of query templates used for
// index-based selection. A template with frequency f appears max(f, 1) times,
// so uniform index selection implements frequency-weighted sampling. Entries
// are immutable after construction.
type Pool struct {
	entries []*config.QueryTemplate
	groups  map[string]*config.QueryGroup
}

// BuildPool expands a workload into a Pool. A duplicate group name is a
// fatal configuration error.
func BuildPool(w *config.Workload) (*Pool, error) {
	groups := make(map[string]*config.QueryGroup, len(w.QueryGroups))
	for i := range w.QueryGroups {
		g := &w.QueryGroups[i]
		if _, ok := groups[g.Name]; ok {
			return nil, fmt.Errorf("duplicate query group name '%s'", g.Name)
		}
		groups[g.Name] = g
	}

	var entries []*config.QueryTemplate
	for i := range w.Queries {
		q := &w.Queries[i]
		n := q.Frequency
		if n < 1 {
			n = 1
		}
		for j := 0; j < n; j++ {
			entries = append(entries, q)
		}
	}

	return &Pool{entries: entries, groups: groups}, nil
}

// Size returns the number of entries in the expanded pool.
func (p *Pool) Size() int {
	return len(p.entries)
}

// Entry returns the template at the given pool index.
func (p *Pool) Entry(i int) *config.QueryTemplate {
	return p.entries[i]
}

// Group looks up a query group by name.
func (p *Pool) Group(name string) (*config.QueryGroup, bool) {
	g, ok := p.groups[name]
	return g, ok
}
