package testkit

import (
	"context"
	"strconv"
	"testing"

	"convlab/domain/record"
	"convlab/internal/analysis"
	"convlab/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Conversions, cfg.NonConversions = 50, 80

	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 50, a.Conversions.Len())
	assert.Equal(t, 80, a.NonConversions.Len())
	assert.Len(t, a.Conversions.Headers, len(record.SourceColumns))

	cfg.Seed++
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Conversions.Rows, c.Conversions.Rows)
}

func TestGenerateValidation(t *testing.T) {
	_, err := Generate(Config{Conversions: 0, NonConversions: 5, Sites: 1, Metros: 1})
	assert.Error(t, err)
	_, err = Generate(Config{Conversions: 5, NonConversions: 5})
	assert.Error(t, err)
	_, err = Generate(Config{Conversions: 5, NonConversions: 5, Sites: 1, Metros: 1, BlankRate: 1})
	assert.Error(t, err)
}

func TestGeneratedHoursAreNumeric(t *testing.T) {
	ds, err := Generate(DefaultConfig())
	require.NoError(t, err)
	for _, row := range ds.NonConversions.Rows {
		v, err := strconv.ParseFloat(row[6], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestWriteAndLoad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Conversions, cfg.NonConversions = 120, 200
	ds, err := Generate(cfg)
	require.NoError(t, err)

	for _, ext := range []string{"csv", "xlsx"} {
		convPath, nonPath, err := Write(t.TempDir(), ext, ds)
		require.NoError(t, err, ext)

		table, err := dataset.Load(context.Background(), convPath, nonPath)
		require.NoError(t, err, ext)
		assert.Equal(t, 320, table.Len(), ext)

		byLabel, err := analysis.GroupedStats(table, record.Hours, record.Conversion)
		require.NoError(t, err)
		require.Len(t, byLabel.Rows, 2)
		// converters act sooner after the impression
		assert.Less(t, byLabel.Rows[1].Mean, byLabel.Rows[0].Mean, ext)
	}

	_, _, err = Write(t.TempDir(), "json", ds)
	assert.Error(t, err)
}
