package record

import (
	"slices"
	"strconv"

	"convlab/domain/core"
)

// Table is the assembled, read-only Record Table.
type Table struct {
	rows []Record
}

// NewTable copies rows into a new table.
func NewTable(rows []Record) *Table {
	return &Table{rows: slices.Clone(rows)}
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns row i.
func (t *Table) Row(i int) Record {
	return t.rows[i]
}

// Rows returns a copy of all rows.
func (t *Table) Rows() []Record {
	return slices.Clone(t.rows)
}

// Subset returns an independent table holding the rows at the given indices.
func (t *Table) Subset(indices []int) *Table {
	rows := make([]Record, len(indices))
	for i, idx := range indices {
		rows[i] = t.rows[idx]
	}
	return &Table{rows: rows}
}

// Labels returns the Conversion column.
func (t *Table) Labels() []int {
	out := make([]int, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Conversion
	}
	return out
}

// Fingerprint hashes every row in order, so two tables with the same
// records in the same order share a fingerprint.
func (t *Table) Fingerprint() core.Hash {
	w := core.NewHashWriter()
	for _, r := range t.rows {
		for _, f := range CategoricalFields {
			v, _ := r.Category(f)
			w.WriteField(v)
		}
		w.WriteField(strconv.FormatFloat(r.Hours, 'g', -1, 64))
		w.WriteField(strconv.Itoa(r.Conversion))
		w.EndRecord()
	}
	return w.Sum()
}

// NumericColumn extracts a numeric field.
func (t *Table) NumericColumn(f Field) ([]float64, error) {
	if !f.IsNumeric() {
		return nil, core.NewMissingFieldError(string(f))
	}
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i], _ = r.Numeric(f)
	}
	return out, nil
}

// CategoryColumn extracts a categorical field.
func (t *Table) CategoryColumn(f Field) ([]string, error) {
	if !f.IsCategorical() {
		return nil, core.NewMissingFieldError(string(f))
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i], _ = r.Category(f)
	}
	return out, nil
}

// Levels returns the distinct values of a categorical field in natural order.
func (t *Table) Levels(f Field) ([]string, error) {
	values, err := t.CategoryColumn(f)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, 16)
	levels := make([]string, 0, 16)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		levels = append(levels, v)
	}
	SortCategories(levels)
	return levels, nil
}

// CompareCategories orders category keys: numerically when both parse as
// numbers, lexically otherwise. Numeric keys sort before non-numeric ones.
func CompareCategories(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa < fb {
			return -1
		}
		if fa > fb {
			return 1
		}
		// "1" and "1.0" are distinct keys
		return compareStrings(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return compareStrings(a, b)
}

// SortCategories sorts keys in place using CompareCategories.
func SortCategories(keys []string) {
	slices.SortFunc(keys, CompareCategories)
}

func compareStrings(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
