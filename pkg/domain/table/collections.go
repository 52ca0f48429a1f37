package table

import (
	"slices"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
)

// ---------------------------------------------------------------------------
// TableColumns: a table's column order joined with the resolved columns
// ---------------------------------------------------------------------------

// TableColumns pairs a table with its columns, in table order.
type TableColumns struct {
	columns []*column.Column
}

// NewTableColumns checks that columns are exactly the table's columns, in order.
func NewTableColumns(t *Table, columns []*column.Column) (*TableColumns, error) {
	got := make([]column.ID, len(columns))
	for i, col := range columns {
		id, ok := col.ID().Value()
		if !ok {
			return nil, domain.Inconsistent("table columns", "column at position %d has no identity", i)
		}
		got[i] = id
	}
	if !slices.Equal(t.columns, got) {
		return nil, domain.Inconsistent("table columns",
			"table %s references columns %v, got %v", t.ID(), t.columns, got)
	}
	out := make([]*column.Column, len(columns))
	for i, col := range columns {
		out[i] = col.Clone()
	}
	return &TableColumns{columns: out}, nil
}

// ColumnNames returns the column names in table order.
func (tc *TableColumns) ColumnNames() []column.Name {
	names := make([]column.Name, len(tc.columns))
	for i, col := range tc.columns {
		names[i] = col.Name()
	}
	return names
}

// ---------------------------------------------------------------------------
// TableWithColumnsAndCells: the fully resolved table
// ---------------------------------------------------------------------------

// TableWithColumnsAndCells is a persisted table with every column and cell resolved.
type TableWithColumnsAndCells struct {
	id      ID
	name    Name
	columns []*column.ColumnWithCells
}

// NewTableWithColumnsAndCells checks that columns follow the table's column
// order exactly.
func NewTableWithColumnsAndCells(t *Table, columns []*column.ColumnWithCells) (*TableWithColumnsAndCells, error) {
	id, ok := t.ID().Value()
	if !ok {
		return nil, domain.Inconsistent("table with columns and cells", "table has no identity")
	}
	got := make([]column.ID, len(columns))
	for i, col := range columns {
		got[i] = col.ID()
	}
	if !slices.Equal(t.columns, got) {
		return nil, domain.Inconsistent("table with columns and cells",
			"table %s references columns %v, got %v", id, t.columns, got)
	}
	return &TableWithColumnsAndCells{id: id, name: t.name, columns: slices.Clone(columns)}, nil
}

func (t *TableWithColumnsAndCells) ID() ID     { return t.id }
func (t *TableWithColumnsAndCells) Name() Name { return t.name }

// Columns returns the resolved columns in table order.
func (t *TableWithColumnsAndCells) Columns() []*column.ColumnWithCells {
	return slices.Clone(t.columns)
}

// ---------------------------------------------------------------------------
// Specifications
// ---------------------------------------------------------------------------

// NoDuplicatedColumnNames holds when every column of a table has a distinct name.
type NoDuplicatedColumnNames struct{}

// IsSatisfiedBy reports the first name, in table order, that repeats an earlier one.
func (NoDuplicatedColumnNames) IsSatisfiedBy(tc *TableColumns) error {
	seen := make(map[column.Name]struct{}, len(tc.columns))
	for _, name := range tc.ColumnNames() {
		if _, dup := seen[name]; dup {
			return &DuplicatedColumnNamesError{Name: name}
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Compile-time verification
var _ domain.Specification[TableColumns] = NoDuplicatedColumnNames{}
