package record

import (
	"errors"
	"testing"

	"convlab/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Record {
	return []Record{
		{Site: "12", Format: "banner", Browser: "chrome", Vendor: "v1", Metro: "501", OS: "ios", Hours: 3, Conversion: 1},
		{Site: "3", Format: "video", Browser: "safari", Vendor: "v2", Metro: "501", OS: "android", Hours: 7, Conversion: 0},
		{Site: "12", Format: "banner", Browser: "firefox", Vendor: "v1", Metro: "803", OS: "windows", Hours: 11, Conversion: 0},
	}
}

func TestParseField(t *testing.T) {
	f, err := ParseField(" hours ")
	require.NoError(t, err)
	assert.Equal(t, Hours, f)

	f, err = ParseField("os")
	require.NoError(t, err)
	assert.Equal(t, OS, f)

	_, err = ParseField("Age")
	assert.True(t, errors.Is(err, core.ErrMissingField))
}

func TestFieldKinds(t *testing.T) {
	assert.True(t, Hours.IsNumeric())
	assert.False(t, Hours.IsCategorical())
	assert.True(t, Conversion.IsNumeric())
	assert.True(t, Conversion.IsCategorical())
	for _, f := range CategoricalFields {
		assert.True(t, f.IsCategorical(), f)
		assert.False(t, f.IsNumeric(), f)
	}
}

func TestTableColumns(t *testing.T) {
	table := NewTable(sampleRows())
	require.Equal(t, 3, table.Len())

	hours, err := table.NumericColumn(Hours)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7, 11}, hours)

	_, err = table.NumericColumn(OS)
	assert.True(t, core.IsMissingFieldError(err))

	_, err = table.CategoryColumn(Hours)
	assert.True(t, core.IsMissingFieldError(err))

	conv, err := table.CategoryColumn(Conversion)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0", "0"}, conv)
	assert.Equal(t, []int{1, 0, 0}, table.Labels())
}

func TestTableIsIndependentOfSource(t *testing.T) {
	rows := sampleRows()
	table := NewTable(rows)
	rows[0].Hours = 999

	assert.Equal(t, 3.0, table.Row(0).Hours)

	out := table.Rows()
	out[1].OS = "changed"
	assert.Equal(t, "android", table.Row(1).OS)
}

func TestSubset(t *testing.T) {
	table := NewTable(sampleRows())
	sub := table.Subset([]int{2, 0})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, "windows", sub.Row(0).OS)
	assert.Equal(t, "ios", sub.Row(1).OS)
}

func TestLevelsNaturalOrder(t *testing.T) {
	table := NewTable(sampleRows())

	sites, err := table.Levels(Site)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "12"}, sites)

	oses, err := table.Levels(OS)
	require.NoError(t, err)
	assert.Equal(t, []string{"android", "ios", "windows"}, oses)
}

func TestCompareCategories(t *testing.T) {
	keys := []string{"b", "10", "a", "2", "unknown", "1.5"}
	SortCategories(keys)
	assert.Equal(t, []string{"1.5", "2", "10", "a", "b", "unknown"}, keys)

	assert.Equal(t, 0, CompareCategories("x", "x"))
	assert.NotEqual(t, 0, CompareCategories("1", "1.0"))
}

func TestFingerprint(t *testing.T) {
	a := NewTable(sampleRows())
	b := NewTable(sampleRows())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint().String(), 64)

	changed := sampleRows()
	changed[2].Hours = 11.5
	assert.NotEqual(t, a.Fingerprint(), NewTable(changed).Fingerprint())

	// field boundaries are part of the digest
	left := NewTable([]Record{{Site: "ab", Format: "c"}})
	right := NewTable([]Record{{Site: "a", Format: "bc"}})
	assert.NotEqual(t, left.Fingerprint(), right.Fingerprint())

	reordered := NewTable(sampleRows()).Subset([]int{1, 0, 2})
	assert.NotEqual(t, a.Fingerprint(), reordered.Fingerprint())
}
