package app

import "fmt"

// AppError is a sentinel error for rules that span bounded contexts.
type AppError string

func (e AppError) Error() string { return string(e) }

const (
	ErrColumnInUse AppError = "column is the only column of a table"
)

// ColumnInUseError names the table that would be left without columns.
type ColumnInUseError struct {
	ColumnID string
	TableID  string
}

func (e *ColumnInUseError) Error() string {
	return fmt.Sprintf("%s, column_id: %s, table_id: %s", ErrColumnInUse, e.ColumnID, e.TableID)
}

func (e *ColumnInUseError) Is(target error) bool { return target == ErrColumnInUse }
