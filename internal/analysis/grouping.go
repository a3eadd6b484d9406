package analysis

import "convlab/domain/record"

// groupIndex is an ordered mapping from category key to the numeric values
// observed under it. Iteration follows record.CompareCategories.
type groupIndex struct {
	keys   []string
	values map[string][]float64
}

func newGroupIndex(keys []string, data []float64) *groupIndex {
	g := &groupIndex{values: make(map[string][]float64)}
	for i, k := range keys {
		if _, ok := g.values[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.values[k] = append(g.values[k], data[i])
	}
	record.SortCategories(g.keys)
	return g
}

func (g *groupIndex) Len() int { return len(g.keys) }

func (g *groupIndex) Each(fn func(key string, values []float64)) {
	for _, k := range g.keys {
		fn(k, g.values[k])
	}
}
