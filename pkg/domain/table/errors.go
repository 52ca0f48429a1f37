package table

import (
	"fmt"

	"github.com/plot451/plot/pkg/domain/column"
)

// TableError is a sentinel error of the table bounded context.
type TableError string

func (e TableError) Error() string { return string(e) }

const (
	ErrEmptyColumnList      TableError = "column list is empty"
	ErrTableNotFound        TableError = "table not found"
	ErrColumnNotInTable     TableError = "column not found in table"
	ErrDuplicatedColumnName TableError = "column names are duplicated"
)

// ColumnNotFoundError names the column a move or insert could not locate.
type ColumnNotFoundError struct {
	ColumnID column.ID
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("%s, column_id: %s", ErrColumnNotInTable, e.ColumnID)
}

func (e *ColumnNotFoundError) Is(target error) bool { return target == ErrColumnNotInTable }

// DuplicatedColumnNamesError names the first column name that repeats.
type DuplicatedColumnNamesError struct {
	Name column.Name
}

func (e *DuplicatedColumnNamesError) Error() string {
	return fmt.Sprintf("%s, duplicated column name: %s", ErrDuplicatedColumnName, e.Name)
}

func (e *DuplicatedColumnNamesError) Is(target error) bool {
	return target == ErrDuplicatedColumnName
}

// NotFound wraps ErrTableNotFound with the missing id.
func NotFound(id ID) error { return fmt.Errorf("%w: %s", ErrTableNotFound, id) }
