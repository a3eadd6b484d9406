package tabular

// RawTable is a spreadsheet read as strings, columns kept in file order.
type RawTable struct {
	Source  string     // file the table was read from
	Headers []string   // header row, trimmed
	Rows    [][]string // data rows; may be ragged
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns the cell at row i, column j; ok is false when the row is short.
func (t *RawTable) Cell(i, j int) (value string, ok bool) {
	row := t.Rows[i]
	if j >= len(row) {
		return "", false
	}
	return row[j], true
}
