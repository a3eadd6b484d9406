// Package record defines the canonical conversion Record Table.
package record

import (
	"strconv"
	"strings"

	"convlab/domain/core"
)

// Field identifies a column of the canonical schema.
type Field string

const (
	Site       Field = "Site"
	Format     Field = "Format"
	Browser    Field = "Browser"
	Vendor     Field = "Vendor"
	Metro      Field = "Metro"
	OS         Field = "OS"
	Hours      Field = "Hours"
	Conversion Field = "Conversion"
)

// Schema is the fixed column order of every Record Table.
var Schema = []Field{Site, Format, Browser, Vendor, Metro, OS, Hours, Conversion}

// SourceColumns is the column order expected in the input files.
var SourceColumns = []Field{Site, Format, Browser, Vendor, Metro, OS, Hours}

// CategoricalFields are the unordered identifier columns used as features.
var CategoricalFields = []Field{Site, Format, Browser, Vendor, Metro, OS}

// ParseField resolves a column name case-insensitively.
func ParseField(name string) (Field, error) {
	trimmed := strings.TrimSpace(name)
	for _, f := range Schema {
		if strings.EqualFold(string(f), trimmed) {
			return f, nil
		}
	}
	return "", core.NewMissingFieldError(name)
}

// IsNumeric reports whether the field carries numeric values.
func (f Field) IsNumeric() bool {
	return f == Hours || f == Conversion
}

// IsCategorical reports whether the field can be used as a grouping key.
// Conversion groups as "0"/"1".
func (f Field) IsCategorical() bool {
	switch f {
	case Site, Format, Browser, Vendor, Metro, OS, Conversion:
		return true
	}
	return false
}

func (f Field) String() string { return string(f) }

// Record is one marketing touchpoint.
type Record struct {
	Site       string  `json:"site"`
	Format     string  `json:"format"`
	Browser    string  `json:"browser"`
	Vendor     string  `json:"vendor"`
	Metro      string  `json:"metro"`
	OS         string  `json:"os"`
	Hours      float64 `json:"hours"`
	Conversion int     `json:"conversion"`
}

// Category returns the categorical value of field f.
func (r Record) Category(f Field) (string, bool) {
	switch f {
	case Site:
		return r.Site, true
	case Format:
		return r.Format, true
	case Browser:
		return r.Browser, true
	case Vendor:
		return r.Vendor, true
	case Metro:
		return r.Metro, true
	case OS:
		return r.OS, true
	case Conversion:
		return strconv.Itoa(r.Conversion), true
	}
	return "", false
}

// Numeric returns the numeric value of field f.
func (r Record) Numeric(f Field) (float64, bool) {
	switch f {
	case Hours:
		return r.Hours, true
	case Conversion:
		return float64(r.Conversion), true
	}
	return 0, false
}
