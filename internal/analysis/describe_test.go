package analysis

import (
	"errors"
	"math"
	"testing"

	"convlab/domain/core"
	"convlab/domain/record"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableWithHours(os []string, hours []float64) *record.Table {
	rows := make([]record.Record, len(hours))
	for i := range hours {
		rows[i] = record.Record{Site: "1", OS: os[i], Hours: hours[i], Conversion: i % 2}
	}
	return record.NewTable(rows)
}

func TestSummarizeKnownMoments(t *testing.T) {
	row := Summarize("Hours", []float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.Equal(t, 8, row.Count)
	assert.InDelta(t, 5.0, row.Mean, 1e-12)
	assert.InDelta(t, 4.5, row.Median, 1e-12)
	assert.InDelta(t, 2.138089935299395, row.StdDev, 1e-9)
	assert.InDelta(t, 0.8184875533567997, row.Skew, 1e-9)
	assert.InDelta(t, 0.940625, row.Kurtosis, 1e-9)
}

func TestSummarizeSmallSamples(t *testing.T) {
	single := Summarize("x", []float64{42})
	assert.Equal(t, 42.0, single.Mean)
	assert.Equal(t, 42.0, single.Median)
	assert.True(t, math.IsNaN(single.StdDev))
	assert.True(t, math.IsNaN(single.Skew))
	assert.True(t, math.IsNaN(single.Kurtosis))

	three := Summarize("x", []float64{3, 7, 11})
	assert.InDelta(t, 4.0, three.StdDev, 1e-12)
	assert.InDelta(t, 0.0, three.Skew, 1e-12)
	assert.True(t, math.IsNaN(three.Kurtosis))
}

func TestSummarizeConstantData(t *testing.T) {
	row := Summarize("x", []float64{2.1, 2.1, 2.1, 2.1, 2.1})
	assert.Equal(t, 0.0, row.StdDev)
	assert.Equal(t, 0.0, row.Skew)
	assert.Equal(t, 0.0, row.Kurtosis)
}

func TestGlobalStats(t *testing.T) {
	hours := []float64{1, 2, 3, 10}
	table := tableWithHours([]string{"ios", "ios", "android", "linux"}, hours)

	result, err := GlobalStats(table, record.Hours)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.False(t, result.IsGrouped())

	row, ok := result.Row("Hours")
	require.True(t, ok)
	assert.InDelta(t, 4.0, row.Mean, 1e-12)
	assert.InDelta(t, 2.5, row.Median, 1e-12)
	assert.InDelta(t, 4.08248290463863, row.StdDev, 1e-9)
	assert.InDelta(t, 1.7636326148038879, row.Skew, 1e-9)
	assert.InDelta(t, 3.228, row.Kurtosis, 1e-9)

	// mean lies between min and max
	assert.GreaterOrEqual(t, row.Mean, 1.0)
	assert.LessOrEqual(t, row.Mean, 10.0)
}

func TestGlobalStatsSingleRow(t *testing.T) {
	table := tableWithHours([]string{"ios"}, []float64{6.5})

	result, err := GlobalStats(table, record.Hours)
	require.NoError(t, err)
	row := result.Rows[0]
	assert.Equal(t, 6.5, row.Mean)
	assert.Equal(t, row.Mean, row.Median)
	assert.True(t, math.IsNaN(row.StdDev))
	assert.True(t, math.IsNaN(row.Skew))
	assert.True(t, math.IsNaN(row.Kurtosis))
}

func TestGlobalStatsErrors(t *testing.T) {
	table := tableWithHours([]string{"ios"}, []float64{1})

	_, err := GlobalStats(table, record.OS)
	assert.True(t, errors.Is(err, core.ErrMissingField))

	_, err = GlobalStats(table, record.Field("Age"))
	assert.True(t, errors.Is(err, core.ErrMissingField))

	_, err = GlobalStats(record.NewTable(nil), record.Hours)
	assert.True(t, errors.Is(err, core.ErrEmptyTable))
}

func TestGroupedStats(t *testing.T) {
	oses := []string{"windows", "ios", "android", "ios", "windows", "windows"}
	hours := []float64{1, 5, 8, 7, 3, 5}
	table := tableWithHours(oses, hours)

	result, err := GroupedStats(table, record.Hours, record.OS)
	require.NoError(t, err)
	assert.True(t, result.IsGrouped())
	assert.Equal(t, "OS", result.GroupBy)

	// one row per distinct level, ascending, counts add up
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "android", result.Rows[0].Key)
	assert.Equal(t, "ios", result.Rows[1].Key)
	assert.Equal(t, "windows", result.Rows[2].Key)
	assert.Equal(t, table.Len(), result.TotalCount())

	android := result.Rows[0]
	assert.Equal(t, 8.0, android.Mean)
	assert.True(t, math.IsNaN(android.StdDev), "single observation has undefined std dev")

	ios := result.Rows[1]
	assert.Equal(t, 6.0, ios.Mean)
	assert.InDelta(t, math.Sqrt2, ios.StdDev, 1e-12)
	assert.True(t, math.IsNaN(ios.Skew))

	windows := result.Rows[2]
	assert.Equal(t, 3.0, windows.Mean)
	assert.Equal(t, 3.0, windows.Median)
	assert.InDelta(t, 2.0, windows.StdDev, 1e-12)
	assert.InDelta(t, 0.0, windows.Skew, 1e-12)
}

func TestGroupedStatsByConversion(t *testing.T) {
	table := tableWithHours([]string{"a", "b", "c", "d"}, []float64{1, 2, 3, 4})

	result, err := GroupedStats(table, record.Hours, record.Conversion)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "0", result.Rows[0].Key)
	assert.Equal(t, 2.0, result.Rows[0].Mean)
	assert.Equal(t, "1", result.Rows[1].Key)
	assert.Equal(t, 3.0, result.Rows[1].Mean)
}

func TestGroupedStatsMissingField(t *testing.T) {
	table := tableWithHours([]string{"a"}, []float64{1})

	_, err := GroupedStats(table, record.Hours, record.Field("Country"))
	assert.True(t, core.IsMissingFieldError(err))

	_, err = GroupedStats(table, record.Site, record.OS)
	assert.True(t, core.IsMissingFieldError(err))
}

func TestDescribe(t *testing.T) {
	table := tableWithHours([]string{"a", "b", "c", "d"}, []float64{1, 2, 3, 4})

	result, err := Describe(table)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Hours", result.Rows[0].Key)
	assert.Equal(t, "Conversion", result.Rows[1].Key)
	assert.Equal(t, 0.5, result.Rows[1].Mean)
}

func TestValueCounts(t *testing.T) {
	table := record.NewTable([]record.Record{
		{OS: "ios", Conversion: 1},
		{OS: "ios", Conversion: 0},
		{OS: "android", Conversion: 1},
		{OS: "ios", Conversion: 1},
	})

	counts, err := ValueCounts(table, record.OS)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "android", counts[0].Level)
	assert.Equal(t, 1, counts[0].Count)
	assert.Equal(t, 1.0, counts[0].ConversionRate)
	assert.Equal(t, "ios", counts[1].Level)
	assert.Equal(t, 3, counts[1].Count)
	assert.Equal(t, 2, counts[1].Conversions)
	assert.InDelta(t, 2.0/3.0, counts[1].ConversionRate, 1e-12)

	_, err = ValueCounts(record.NewTable(nil), record.OS)
	assert.ErrorIs(t, err, core.ErrEmptyTable)
}
