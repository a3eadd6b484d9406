package tabular

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"convlab/domain/stats"
	"convlab/internal"
	"convlab/internal/errors"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// Write stores table at path as CSV or XLSX depending on the extension.
// Parent directories are created as needed.
func Write(path string, table *RawTable) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(path, err)
	}

	var err error
	switch fileTypeOf(path) {
	case fileTypeCSV:
		err = writeCSV(path, table)
	default:
		err = writeExcel(path, table)
	}
	if err != nil {
		return errors.IOError(path, err)
	}
	internal.DefaultLogger.Debug("[Writer] wrote %d rows to %s", table.Len(), path)
	return nil
}

// WriteStats exports a statistics result; undefined values become empty cells.
func WriteStats(path string, result stats.StatsResult) error {
	return Write(path, &RawTable{
		Source:  path,
		Headers: result.Header(),
		Rows:    result.Records(),
	})
}

func writeCSV(path string, table *RawTable) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if err := w.Write(table.Headers); err != nil {
		file.Close()
		return err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeExcel(path string, table *RawTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, table.Headers, false); err != nil {
		return err
	}
	for i, row := range table.Rows {
		if err := setRow(f, i+2, row, true); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// setRow writes one sheet row. When typed is set, cells whose text is a
// canonical number are stored as numbers so identifiers like "007" survive.
func setRow(f *excelize.File, rowNum int, cells []string, typed bool) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
		if !typed {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) &&
			strconv.FormatFloat(v, 'f', -1, 64) == c {
			values[i] = v
		}
	}
	return f.SetSheetRow(defaultSheet, cell, &values)
}
