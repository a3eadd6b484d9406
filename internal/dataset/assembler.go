// Package dataset assembles, encodes and partitions the conversion record table.
package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"convlab/adapters/tabular"
	"convlab/domain/core"
	"convlab/domain/record"
	"convlab/internal"
	"convlab/internal/errors"

	"golang.org/x/sync/errgroup"
)

// UnknownLevel replaces blank categorical cells.
const UnknownLevel = "unknown"

// Load reads both input files concurrently and assembles them.
func Load(ctx context.Context, conversionsPath, nonConversionsPath string) (*record.Table, error) {
	var conv, nonConv *tabular.RawTable

	g, gctx := errgroup.WithContext(ctx)
	read := func(path, role string, dst **tabular.RawTable) func() error {
		return func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := tabular.NewReader(path).Read()
			if err != nil {
				return errors.Wrapf(err, "failed to read %s file", role)
			}
			*dst = t
			return nil
		}
	}
	g.Go(read(conversionsPath, "conversions", &conv))
	g.Go(read(nonConversionsPath, "non-conversions", &nonConv))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Assemble(conv, nonConv)
}

// Assemble tags conversions with label 1 and non-conversions with label 0 and
// concatenates them, conversions first. Source columns are mapped by
// position, so header names are ignored.
func Assemble(conversions, nonConversions *tabular.RawTable) (*record.Table, error) {
	rows := make([]record.Record, 0, conversions.Len()+nonConversions.Len())

	for _, src := range []struct {
		table *tabular.RawTable
		label int
	}{
		{conversions, 1},
		{nonConversions, 0},
	} {
		converted, err := convert(src.table, src.label)
		if err != nil {
			return nil, err
		}
		rows = append(rows, converted...)
	}

	table := record.NewTable(rows)
	internal.DefaultLogger.Info("[Assembler] %d conversions + %d non-conversions = %d records (%s)",
		conversions.Len(), nonConversions.Len(), len(rows), table.Fingerprint().Short())
	return table, nil
}

func convert(t *tabular.RawTable, label int) ([]record.Record, error) {
	width := len(record.SourceColumns)
	if len(t.Headers) < width {
		return nil, core.NewSchemaError(t.Source, 1,
			fmt.Sprintf("expected %d columns, header has %d", width, len(t.Headers)))
	}
	if len(t.Headers) > width {
		internal.DefaultLogger.Warn("[Assembler] %s: ignoring %d extra columns", t.Source, len(t.Headers)-width)
	}

	out := make([]record.Record, 0, t.Len())
	for i := range t.Rows {
		rowNum := i + 2 // 1-based, after the header
		rec, err := parseRow(t, i)
		if err != nil {
			return nil, core.NewSchemaError(t.Source, rowNum, err.Error())
		}
		rec.Conversion = label
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(t *tabular.RawTable, i int) (record.Record, error) {
	cats := make([]string, len(record.CategoricalFields))
	for j := range record.CategoricalFields {
		v, _ := t.Cell(i, j)
		if v == "" {
			v = UnknownLevel
		}
		cats[j] = v
	}

	raw, ok := t.Cell(i, len(record.CategoricalFields))
	if !ok || raw == "" {
		return record.Record{}, fmt.Errorf("missing %s", record.Hours)
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return record.Record{}, fmt.Errorf("%s %q is not a number", record.Hours, raw)
	}

	return record.Record{
		Site:    cats[0],
		Format:  cats[1],
		Browser: cats[2],
		Vendor:  cats[3],
		Metro:   cats[4],
		OS:      cats[5],
		Hours:   hours,
	}, nil
}
