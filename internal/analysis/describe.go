package analysis

import (
	"math"

	"convlab/domain/core"
	"convlab/domain/record"
	"convlab/domain/stats"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// constantTolerance treats a relative spread below this as zero variance.
const constantTolerance = 1e-12

// GlobalStats computes the moments of numericField across every row.
// The result has a single row keyed by the field name.
func GlobalStats(table *record.Table, numericField record.Field) (stats.StatsResult, error) {
	data, err := numericColumn(table, numericField)
	if err != nil {
		return stats.StatsResult{}, err
	}
	return stats.StatsResult{
		Field: numericField.String(),
		Rows:  []stats.StatsRow{Summarize(numericField.String(), data)},
	}, nil
}

// GroupedStats computes the moments of numericField for each distinct value
// of categoricalField. Rows follow the natural ascending order of the keys.
func GroupedStats(table *record.Table, numericField, categoricalField record.Field) (stats.StatsResult, error) {
	data, err := numericColumn(table, numericField)
	if err != nil {
		return stats.StatsResult{}, err
	}
	keys, err := table.CategoryColumn(categoricalField)
	if err != nil {
		return stats.StatsResult{}, err
	}

	groups := newGroupIndex(keys, data)
	result := stats.StatsResult{
		Field:   numericField.String(),
		GroupBy: categoricalField.String(),
		Rows:    make([]stats.StatsRow, 0, groups.Len()),
	}
	groups.Each(func(key string, values []float64) {
		result.Rows = append(result.Rows, Summarize(key, values))
	})
	return result, nil
}

// Describe runs GlobalStats over every numeric field of the schema.
func Describe(table *record.Table) (stats.StatsResult, error) {
	result := stats.StatsResult{Field: "*"}
	for _, f := range record.Schema {
		if !f.IsNumeric() {
			continue
		}
		single, err := GlobalStats(table, f)
		if err != nil {
			return stats.StatsResult{}, err
		}
		result.Rows = append(result.Rows, single.Rows...)
	}
	return result, nil
}

// ValueCounts lists the levels of categoricalField with their row counts and
// conversion rates, in natural ascending order.
func ValueCounts(table *record.Table, categoricalField record.Field) ([]stats.ValueCount, error) {
	if table.Len() == 0 {
		return nil, core.ErrEmptyTable
	}
	keys, err := table.CategoryColumn(categoricalField)
	if err != nil {
		return nil, err
	}
	labels := make([]float64, table.Len())
	for i, l := range table.Labels() {
		labels[i] = float64(l)
	}

	groups := newGroupIndex(keys, labels)
	out := make([]stats.ValueCount, 0, groups.Len())
	groups.Each(func(key string, values []float64) {
		conversions, _ := mstats.Sum(values)
		out = append(out, stats.ValueCount{
			Level:          key,
			Count:          len(values),
			Conversions:    int(conversions),
			ConversionRate: conversions / float64(len(values)),
		})
	})
	return out, nil
}

// Summarize computes count, mean, median, sample standard deviation,
// skewness (G1) and excess kurtosis (G2) of data. data must not be empty.
func Summarize(key string, data []float64) stats.StatsRow {
	row := stats.StatsRow{
		Key:      key,
		Count:    len(data),
		StdDev:   math.NaN(),
		Skew:     math.NaN(),
		Kurtosis: math.NaN(),
	}
	row.Mean, _ = mstats.Mean(data)
	row.Median, _ = mstats.Median(data)

	n := len(data)
	if n < 2 {
		return row
	}
	row.StdDev, _ = mstats.StandardDeviationSample(data)

	constant := row.StdDev <= constantTolerance*math.Max(math.Abs(row.Mean), 1)
	if constant {
		row.StdDev = 0
	}
	if n >= 3 {
		row.Skew = 0
		if !constant {
			row.Skew = stat.Skew(data, nil)
		}
	}
	if n >= 4 {
		row.Kurtosis = 0
		if !constant {
			row.Kurtosis = stat.ExKurtosis(data, nil)
		}
	}
	return row
}

func numericColumn(table *record.Table, f record.Field) ([]float64, error) {
	data, err := table.NumericColumn(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, core.ErrEmptyTable
	}
	return data, nil
}
