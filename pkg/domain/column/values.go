// Package column defines the Column bounded context: columns of numeric
// cells, the cells themselves, and the directory tree that holds columns.
package column

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/plot451/plot/pkg/domain"
)

// ---------------------------------------------------------------------------
// Identifiers
// ---------------------------------------------------------------------------

// ID identifies a Column.
type ID string

// CellID identifies a Cell.
type CellID string

// DirectoryID identifies a Directory.
type DirectoryID string

func (id ID) String() string          { return string(id) }
func (id CellID) String() string      { return string(id) }
func (id DirectoryID) String() string { return string(id) }

// ---------------------------------------------------------------------------
// Names
// ---------------------------------------------------------------------------

// Name is a column name: non-empty after trimming.
type Name struct {
	value string
}

// NewName validates and trims a column name.
func NewName(raw string) (Name, error) {
	v, err := domain.ParseName(raw, domain.NoLengthLimit)
	if err != nil {
		return Name{}, fmt.Errorf("column name: %w", err)
	}
	return Name{value: v}, nil
}

func (n Name) String() string { return n.value }

// DirectoryName is a directory name: non-empty after trimming.
type DirectoryName struct {
	value string
}

// NewDirectoryName validates and trims a directory name.
func NewDirectoryName(raw string) (DirectoryName, error) {
	v, err := domain.ParseName(raw, domain.NoLengthLimit)
	if err != nil {
		return DirectoryName{}, fmt.Errorf("directory name: %w", err)
	}
	return DirectoryName{value: v}, nil
}

func (n DirectoryName) String() string { return n.value }

// ---------------------------------------------------------------------------
// CellValue
// ---------------------------------------------------------------------------

// CellValue is an optional float64. The zero value is "no value".
type CellValue struct {
	value float64
	valid bool
}

// NewCellValue wraps a present value.
func NewCellValue(v float64) CellValue { return CellValue{value: v, valid: true} }

// EmptyCellValue returns a value representing an empty cell.
func EmptyCellValue() CellValue { return CellValue{} }

// CellValueFromPtr converts a nullable float, as decoded from JSON or SQL.
func CellValueFromPtr(v *float64) CellValue {
	if v == nil {
		return CellValue{}
	}
	return NewCellValue(*v)
}

// ParseCellValue reads a cell value from text. Surrounding whitespace
// (full-width space included) is ignored and blank text means no value.
// Only finite decimal numbers are accepted.
func ParseCellValue(raw string) (CellValue, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return CellValue{}, nil
	}
	if isHexLiteral(s) {
		return CellValue{}, &CellValueParseError{Input: raw, Err: ErrNotDecimal}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return CellValue{}, &CellValueParseError{Input: raw, Err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return CellValue{}, &CellValueParseError{Input: raw, Err: ErrNotFinite}
	}
	return NewCellValue(v), nil
}

func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Float returns the value and whether it is present.
func (v CellValue) Float() (float64, bool) { return v.value, v.valid }

// Ptr returns the value as a nullable float.
func (v CellValue) Ptr() *float64 {
	if !v.valid {
		return nil
	}
	f := v.value
	return &f
}

// IsEmpty reports whether the cell holds no value.
func (v CellValue) IsEmpty() bool { return !v.valid }

func (v CellValue) String() string {
	if !v.valid {
		return ""
	}
	return strconv.FormatFloat(v.value, 'g', -1, 64)
}
