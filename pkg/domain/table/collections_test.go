package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
)

func namedColumn(t *testing.T, id column.ID, name string, cells ...column.CellID) *column.Column {
	t.Helper()
	n, err := column.NewName(name)
	require.NoError(t, err)
	return column.NewColumn(domain.Assigned(id), n, "0", cells)
}

func TestNoDuplicatedColumnNames(t *testing.T) {
	tbl := newTestTable(t, "1", "2", "3")

	unique, err := NewTableColumns(tbl, []*column.Column{
		namedColumn(t, "1", "x"), namedColumn(t, "2", "y"), namedColumn(t, "3", "z"),
	})
	require.NoError(t, err)
	assert.NoError(t, NoDuplicatedColumnNames{}.IsSatisfiedBy(unique))

	dup, err := NewTableColumns(tbl, []*column.Column{
		namedColumn(t, "1", "x"), namedColumn(t, "2", "y"), namedColumn(t, "3", " x "),
	})
	require.NoError(t, err)

	err = NoDuplicatedColumnNames{}.IsSatisfiedBy(dup)
	var de *DuplicatedColumnNamesError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "x", de.Name.String())
	assert.ErrorIs(t, err, ErrDuplicatedColumnName)
}

func TestNewTableColumnsRequiresExactOrder(t *testing.T) {
	tbl := newTestTable(t, "1", "2")

	var ce *domain.ConsistencyError
	_, err := NewTableColumns(tbl, []*column.Column{namedColumn(t, "2", "b"), namedColumn(t, "1", "a")})
	assert.ErrorAs(t, err, &ce)

	_, err = NewTableColumns(tbl, []*column.Column{namedColumn(t, "1", "a")})
	assert.ErrorAs(t, err, &ce)

	unsaved := column.NewColumn(domain.Unassigned[column.ID](), namedColumn(t, "x", "b").Name(), "0", nil)
	_, err = NewTableColumns(tbl, []*column.Column{namedColumn(t, "1", "a"), unsaved})
	assert.ErrorAs(t, err, &ce)
}

func TestNewTableWithColumnsAndCells(t *testing.T) {
	tbl := newTestTable(t, "1", "2")
	cell := column.NewCell(domain.Assigned[column.CellID]("c1"), column.NewCellValue(4))

	first, err := column.NewColumnWithCells(namedColumn(t, "1", "a", "c1"), []*column.Cell{cell})
	require.NoError(t, err)
	second, err := column.NewColumnWithCells(namedColumn(t, "2", "b"), nil)
	require.NoError(t, err)

	full, err := NewTableWithColumnsAndCells(tbl, []*column.ColumnWithCells{first, second})
	require.NoError(t, err)
	assert.Equal(t, ID("1"), full.ID())
	require.Len(t, full.Columns(), 2)
	assert.Equal(t, column.ID("2"), full.Columns()[1].ID())

	var ce *domain.ConsistencyError
	_, err = NewTableWithColumnsAndCells(tbl, []*column.ColumnWithCells{second, first})
	assert.ErrorAs(t, err, &ce)

	name, err := NewName("unsaved")
	require.NoError(t, err)
	unsaved, err := New(domain.Unassigned[ID](), name, []column.ID{"1", "2"})
	require.NoError(t, err)
	_, err = NewTableWithColumnsAndCells(unsaved, []*column.ColumnWithCells{first, second})
	assert.ErrorAs(t, err, &ce)
}
