package dataset

import (
	"convlab/domain/record"
)

// UnseenCode is the category code of a level the encoder was not fitted on.
const UnseenCode = -1

// Matrix is the numeric view of a Record Table handed to classifiers.
type Matrix struct {
	X            [][]float64
	Y            []int
	FeatureNames []string
}

// Rows returns the number of samples.
func (m *Matrix) Rows() int { return len(m.X) }

// Subset returns the samples at the given indices. Feature rows are shared.
func (m *Matrix) Subset(indices []int) *Matrix {
	out := &Matrix{
		X:            make([][]float64, len(indices)),
		Y:            make([]int, len(indices)),
		FeatureNames: m.FeatureNames,
	}
	for i, idx := range indices {
		out.X[i] = m.X[idx]
		out.Y[i] = m.Y[idx]
	}
	return out
}

// Encoder maps categorical levels to category codes: the 0-based position of
// the level in natural ascending order.
type Encoder struct {
	levels map[record.Field][]string
	codes  map[record.Field]map[string]int
}

// NewEncoder learns the levels of every categorical feature in table.
func NewEncoder(table *record.Table) *Encoder {
	e := &Encoder{
		levels: make(map[record.Field][]string, len(record.CategoricalFields)),
		codes:  make(map[record.Field]map[string]int, len(record.CategoricalFields)),
	}
	for _, f := range record.CategoricalFields {
		levels, _ := table.Levels(f)
		codes := make(map[string]int, len(levels))
		for i, l := range levels {
			codes[l] = i
		}
		e.levels[f] = levels
		e.codes[f] = codes
	}
	return e
}

// Levels returns the fitted levels of f in code order.
func (e *Encoder) Levels(f record.Field) []string {
	return e.levels[f]
}

// Code returns the category code of value, or UnseenCode.
func (e *Encoder) Code(f record.Field, value string) int {
	if c, ok := e.codes[f][value]; ok {
		return c
	}
	return UnseenCode
}

// FeatureNames lists the matrix columns: the categorical fields, then Hours.
func FeatureNames() []string {
	names := make([]string, len(record.SourceColumns))
	for i, f := range record.SourceColumns {
		names[i] = f.String()
	}
	return names
}

// Transform encodes table with the fitted levels.
func (e *Encoder) Transform(table *record.Table) *Matrix {
	m := &Matrix{
		X:            make([][]float64, table.Len()),
		Y:            table.Labels(),
		FeatureNames: FeatureNames(),
	}
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		x := make([]float64, 0, len(record.SourceColumns))
		for _, f := range record.CategoricalFields {
			v, _ := row.Category(f)
			x = append(x, float64(e.Code(f, v)))
		}
		x = append(x, row.Hours)
		m.X[i] = x
	}
	return m
}

// Encode fits an encoder on table and transforms it.
func Encode(table *record.Table) (*Encoder, *Matrix) {
	e := NewEncoder(table)
	return e, e.Transform(table)
}
