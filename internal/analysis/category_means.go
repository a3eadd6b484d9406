package analysis

import (
	"fmt"

	"convlab/domain/core"
	"convlab/domain/record"
	"convlab/domain/stats"
	"convlab/internal"
	"convlab/ports"

	mstats "github.com/montanaflynn/stats"
)

// CategoryMeans computes the mean of numericField for every distinct value of
// categoricalField, sorts the categories by value and keeps the half-open
// range [start, end) with slice semantics: an end past the last category
// truncates, negative indices count back from the end and an empty range
// gives an empty series. Only a start past the last category is an error.
func CategoryMeans(table *record.Table, categoricalField, numericField record.Field, start, end int) (stats.CategoryMeanSeries, error) {
	data, err := numericColumn(table, numericField)
	if err != nil {
		return stats.CategoryMeanSeries{}, err
	}
	keys, err := table.CategoryColumn(categoricalField)
	if err != nil {
		return stats.CategoryMeanSeries{}, err
	}

	groups := newGroupIndex(keys, data)
	total := groups.Len()
	if start > total {
		return stats.CategoryMeanSeries{}, core.NewIndexRangeError(start, end, total)
	}
	start, end = sliceBound(start, total), sliceBound(end, total)
	if end < start {
		end = start
	}

	series := stats.CategoryMeanSeries{
		Title:            fmt.Sprintf("Mean %s by %s", numericField, categoricalField),
		CategoricalField: categoricalField.String(),
		NumericField:     numericField.String(),
		Labels:           make([]string, 0, end-start),
		Means:            make([]float64, 0, end-start),
		Total:            total,
	}
	for _, key := range groups.keys[start:end] {
		mean, _ := mstats.Mean(groups.values[key])
		series.Labels = append(series.Labels, key)
		series.Means = append(series.Means, mean)
	}
	return series, nil
}

// PlotCategoryMeans computes the category means and renders them as a bar
// chart at path.
func PlotCategoryMeans(renderer ports.ChartRenderer, table *record.Table, categoricalField, numericField record.Field, start, end int, path string) (stats.CategoryMeanSeries, error) {
	series, err := CategoryMeans(table, categoricalField, numericField, start, end)
	if err != nil {
		return series, err
	}
	if series.Len() < series.Total {
		internal.DefaultLogger.Debug("[CategoryMeans] %s: showing %d of %d categories", series.Title, series.Len(), series.Total)
	}
	if err := renderer.BarChart(series, path); err != nil {
		return series, fmt.Errorf("failed to render %q: %w", series.Title, err)
	}
	return series, nil
}

// sliceBound resolves a selection index the way a slice expression does:
// negative values count back from the end and the result is clamped to
// [0, n].
func sliceBound(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}
