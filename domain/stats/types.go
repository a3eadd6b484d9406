package stats

import (
	"math"
	"strconv"
)

// ============================================================================
// DESCRIPTIVE STATISTICS
// ============================================================================

// StatsRow holds the moments of one numeric series.
// INVARIANTS:
// - Count always > 0
// - StdDev is NaN when Count < 2; Skew when Count < 3; Kurtosis when Count < 4
type StatsRow struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Skew     float64 `json:"skew"`
	Kurtosis float64 `json:"kurtosis"` // excess kurtosis
}

// StatsResult is a keyed table of StatsRows.
// Global results have an empty GroupBy and one row keyed by Field.
type StatsResult struct {
	Field   string     `json:"field"`
	GroupBy string     `json:"group_by,omitempty"`
	Rows    []StatsRow `json:"rows"`
}

// IsGrouped reports whether the result is partitioned by a categorical field
func (r StatsResult) IsGrouped() bool {
	return r.GroupBy != ""
}

// Row looks up a row by key.
func (r StatsResult) Row(key string) (StatsRow, bool) {
	for _, row := range r.Rows {
		if row.Key == key {
			return row, true
		}
	}
	return StatsRow{}, false
}

// TotalCount sums the per-row observation counts.
func (r StatsResult) TotalCount() int {
	total := 0
	for _, row := range r.Rows {
		total += row.Count
	}
	return total
}

// Header returns the column names used when the result is tabulated.
func (r StatsResult) Header() []string {
	key := "Variable"
	if r.IsGrouped() {
		key = r.GroupBy
	}
	return []string{key, "Count", "Mean", "Median", "StdDev", "Skew", "Kurtosis"}
}

// Records renders the rows as strings, NaN as empty cells.
func (r StatsResult) Records() [][]string {
	out := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, []string{
			row.Key,
			strconv.Itoa(row.Count),
			FormatFloat(row.Mean),
			FormatFloat(row.Median),
			FormatFloat(row.StdDev),
			FormatFloat(row.Skew),
			FormatFloat(row.Kurtosis),
		})
	}
	return out
}

// FormatFloat prints v with 6 significant digits; NaN prints empty.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// ValueCount summarizes one level of a categorical field.
type ValueCount struct {
	Level          string  `json:"level"`
	Count          int     `json:"count"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ============================================================================
// CATEGORY MEANS
// ============================================================================

// CategoryMeanSeries is the data behind a category-mean bar chart.
type CategoryMeanSeries struct {
	Title            string    `json:"title"`
	CategoricalField string    `json:"categorical_field"`
	NumericField     string    `json:"numeric_field"`
	Labels           []string  `json:"labels"`
	Means            []float64 `json:"means"`
	Total            int       `json:"total"` // distinct categories before slicing
}

// Len returns the number of selected categories
func (s CategoryMeanSeries) Len() int {
	return len(s.Labels)
}
