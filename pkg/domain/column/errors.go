package column

import (
	"fmt"
	"strings"

	"github.com/plot451/plot/pkg/domain"
)

// ColumnError is a sentinel error of the column bounded context.
type ColumnError string

func (e ColumnError) Error() string { return string(e) }

const (
	ErrInvalidOrder      ColumnError = "invalid order"
	ErrColumnNotFound    ColumnError = "column not found"
	ErrCellNotFound      ColumnError = "cell not found"
	ErrDirectoryNotFound ColumnError = "directory not found"
	ErrDirectoryCycle    ColumnError = "directory cannot be moved into itself or a descendant"
	ErrCellNotInColumn   ColumnError = "cell does not belong to column"
	ErrNotFinite         ColumnError = "cell value must be finite"
	ErrNotDecimal        ColumnError = "cell value must be a decimal number"
)

// CellValueParseError reports text that is neither blank nor a number.
type CellValueParseError struct {
	Input string
	Err   error
}

func (e *CellValueParseError) Error() string {
	return fmt.Sprintf("cell value parse error: [%s]: %v", e.Input, e.Err)
}

func (e *CellValueParseError) Unwrap() error { return e.Err }

// NotAllColumnsFoundError is returned by batch lookups when at least one
// requested column is missing. IDs holds the full request.
type NotAllColumnsFoundError struct {
	IDs []ID
}

func (e *NotAllColumnsFoundError) Error() string {
	return "not all columns found: [" + strings.Join(domain.Strings(e.IDs), ", ") + "]"
}

func (e *NotAllColumnsFoundError) Is(target error) bool { return target == ErrColumnNotFound }

// NotAllCellsFoundError is the cell counterpart of NotAllColumnsFoundError.
type NotAllCellsFoundError struct {
	IDs []CellID
}

func (e *NotAllCellsFoundError) Error() string {
	return "not all cells found: [" + strings.Join(domain.Strings(e.IDs), ", ") + "]"
}

func (e *NotAllCellsFoundError) Is(target error) bool { return target == ErrCellNotFound }

func notFound[T ~string](sentinel ColumnError, id T) error {
	return fmt.Errorf("%w: %s", sentinel, string(id))
}

// ColumnNotFound wraps ErrColumnNotFound with the missing id.
func ColumnNotFound(id ID) error { return notFound(ErrColumnNotFound, id) }

// CellNotFound wraps ErrCellNotFound with the missing id.
func CellNotFound(id CellID) error { return notFound(ErrCellNotFound, id) }

// DirectoryNotFound wraps ErrDirectoryNotFound with the missing id.
func DirectoryNotFound(id DirectoryID) error { return notFound(ErrDirectoryNotFound, id) }
