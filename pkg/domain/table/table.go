// Package table defines the Table bounded context. A Table is an ordered,
// non-empty list of references to columns of the column context.
package table

import (
	"fmt"
	"slices"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
)

// MaxNameLength bounds table names, in characters.
const MaxNameLength = 100

// ID identifies a Table.
type ID string

func (id ID) String() string { return string(id) }

// Name is a table name: non-empty after trimming, at most MaxNameLength characters.
type Name struct {
	value string
}

// NewName validates and trims a table name.
func NewName(raw string) (Name, error) {
	v, err := domain.ParseName(raw, MaxNameLength)
	if err != nil {
		return Name{}, fmt.Errorf("table name: %w", err)
	}
	return Name{value: v}, nil
}

func (n Name) String() string { return n.value }

// ---------------------------------------------------------------------------
// Table entity
// ---------------------------------------------------------------------------

// Table is an ordered list of column references.
type Table struct {
	id      domain.Identity[ID]
	name    Name
	columns []column.ID
}

// New reconstitutes a Table. It fails with ErrEmptyColumnList when columns is empty.
func New(id domain.Identity[ID], name Name, columns []column.ID) (*Table, error) {
	if len(columns) == 0 {
		return nil, ErrEmptyColumnList
	}
	return &Table{id: id, name: name, columns: slices.Clone(columns)}, nil
}

func (t *Table) ID() domain.Identity[ID] { return t.id }
func (t *Table) Name() Name              { return t.name }

// SetID assigns the identity handed out by a repository.
func (t *Table) SetID(id ID) error { return t.id.Assign(id) }

// Columns returns a copy of the ordered column references.
func (t *Table) Columns() []column.ID { return slices.Clone(t.columns) }

// Contains reports whether the table references the column.
func (t *Table) Contains(id column.ID) bool { return slices.Contains(t.columns, id) }

// ChangeName renames the table.
func (t *Table) ChangeName(name Name) { t.name = name }

func (t *Table) indexOf(id column.ID) (int, error) {
	i := slices.Index(t.columns, id)
	if i < 0 {
		return -1, &ColumnNotFoundError{ColumnID: id}
	}
	return i, nil
}

func (t *Table) positions(target, destination column.ID) (int, int, error) {
	ti, err := t.indexOf(target)
	if err != nil {
		return 0, 0, err
	}
	di, err := t.indexOf(destination)
	if err != nil {
		return 0, 0, err
	}
	return ti, di, nil
}

// MoveColumnInFrontOf moves target so that it sits directly before destination.
// Moving a column in front of itself is a no-op.
func (t *Table) MoveColumnInFrontOf(target, destination column.ID) error {
	ti, di, err := t.positions(target, destination)
	if err != nil {
		return err
	}
	switch {
	case di < ti:
		t.columns = slices.Delete(t.columns, ti, ti+1)
		t.columns = slices.Insert(t.columns, di, target)
	case ti < di:
		t.columns = slices.Insert(t.columns, di, target)
		t.columns = slices.Delete(t.columns, ti, ti+1)
	}
	return nil
}

// MoveColumnBehind moves target so that it sits directly after destination.
// Moving a column behind itself is a no-op.
func (t *Table) MoveColumnBehind(target, destination column.ID) error {
	ti, di, err := t.positions(target, destination)
	if err != nil {
		return err
	}
	switch {
	case di < ti:
		t.columns = slices.Delete(t.columns, ti, ti+1)
		t.columns = slices.Insert(t.columns, di+1, target)
	case ti < di:
		t.columns = slices.Insert(t.columns, di+1, target)
		t.columns = slices.Delete(t.columns, ti, ti+1)
	}
	return nil
}

// InsertColumnInFrontOf inserts newColumn directly before destination.
func (t *Table) InsertColumnInFrontOf(destination, newColumn column.ID) error {
	di, err := t.indexOf(destination)
	if err != nil {
		return err
	}
	t.columns = slices.Insert(t.columns, di, newColumn)
	return nil
}

// InsertColumnBehind inserts newColumn directly after destination.
func (t *Table) InsertColumnBehind(destination, newColumn column.ID) error {
	di, err := t.indexOf(destination)
	if err != nil {
		return err
	}
	t.columns = slices.Insert(t.columns, di+1, newColumn)
	return nil
}

// RemoveColumn drops every reference to the column. Absent ids are ignored.
// A removal that would leave the table without columns fails with
// ErrEmptyColumnList and changes nothing.
func (t *Table) RemoveColumn(id column.ID) error {
	rest := slices.DeleteFunc(slices.Clone(t.columns), func(c column.ID) bool { return c == id })
	if len(rest) == 0 {
		return ErrEmptyColumnList
	}
	t.columns = rest
	return nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return &Table{id: t.id, name: t.name, columns: slices.Clone(t.columns)}
}
