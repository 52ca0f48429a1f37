package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/domain"
)

func persistedCell(id CellID, v float64) *Cell {
	return NewCell(domain.Assigned(id), NewCellValue(v))
}

func TestNewColumnWithCells(t *testing.T) {
	col := newTestColumn(t, "c1", "c2")

	cwc, err := NewColumnWithCells(col, []*Cell{persistedCell("c1", 1), persistedCell("c2", 2)})
	require.NoError(t, err)
	assert.Equal(t, ID("column_id"), cwc.ID())
	assert.Equal(t, "column_name", cwc.Name().String())
	require.Len(t, cwc.Cells(), 2)
	assert.Equal(t, CellID("c2"), cwc.Cells()[1].ID().MustValue())
}

func TestNewColumnWithCellsRejectsMismatch(t *testing.T) {
	col := newTestColumn(t, "c1", "c2")

	tests := []struct {
		name  string
		cells []*Cell
	}{
		{name: "wrong order", cells: []*Cell{persistedCell("c2", 2), persistedCell("c1", 1)}},
		{name: "missing cell", cells: []*Cell{persistedCell("c1", 1)}},
		{name: "extra cell", cells: []*Cell{persistedCell("c1", 1), persistedCell("c2", 2), persistedCell("c3", 3)}},
		{name: "foreign cell", cells: []*Cell{persistedCell("c1", 1), persistedCell("c9", 2)}},
		{name: "unpersisted cell", cells: []*Cell{persistedCell("c1", 1), NewCell(domain.Unassigned[CellID](), EmptyCellValue())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwc, err := NewColumnWithCells(col, tt.cells)
			var ce *domain.ConsistencyError
			assert.ErrorAs(t, err, &ce)
			assert.Nil(t, cwc)
		})
	}
}

func TestNewColumnWithCellsRequiresPersistedColumn(t *testing.T) {
	col := NewColumn(domain.Unassigned[ID](), mustName(t, "c"), "0", nil)
	_, err := NewColumnWithCells(col, nil)
	var ce *domain.ConsistencyError
	assert.ErrorAs(t, err, &ce)
}

func TestNewDirectoryContents(t *testing.T) {
	name, err := NewDirectoryName("dir")
	require.NoError(t, err)
	root := DirectoryID("1")
	other := DirectoryID("9")
	dir := NewDirectory(domain.Assigned(root), name, nil)

	inRoot := NewColumn(domain.Assigned[ID]("c1"), mustName(t, "a"), root, nil)
	elsewhere := NewColumn(domain.Assigned[ID]("c2"), mustName(t, "b"), other, nil)
	child := NewDirectory(domain.Assigned[DirectoryID]("2"), name, &root)
	stranger := NewDirectory(domain.Assigned[DirectoryID]("3"), name, &other)

	contents, err := NewDirectoryContents(dir, []*Column{inRoot}, []*Directory{child})
	require.NoError(t, err)
	assert.Equal(t, root, contents.DirectoryID())
	assert.Len(t, contents.Columns(), 1)
	assert.Len(t, contents.Directories(), 1)

	var ce *domain.ConsistencyError
	_, err = NewDirectoryContents(dir, []*Column{inRoot, elsewhere}, nil)
	assert.ErrorAs(t, err, &ce)

	_, err = NewDirectoryContents(dir, nil, []*Directory{child, stranger})
	assert.ErrorAs(t, err, &ce)

	_, err = NewDirectoryContents(dir, nil, []*Directory{dir})
	assert.ErrorAs(t, err, &ce, "a root directory is not its own child")
}
