// Package repotest holds behavioural tests every column.Repository and
// table.Repository implementation must pass.
package repotest

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

// ColumnFactory returns a fresh, empty repository for each subtest.
type ColumnFactory func(t *testing.T) column.Repository

// TableFactory returns a fresh, empty repository for each subtest.
type TableFactory func(t *testing.T) table.Repository

// RunColumnRepository exercises newRepo against the column.Repository contract.
func RunColumnRepository(t *testing.T, newRepo ColumnFactory) {
	t.Run("SaveAssignsIDWithoutMutating", func(t *testing.T) { testSaveAssignsID(t, newRepo(t)) })
	t.Run("SaveUpdatesExisting", func(t *testing.T) { testSaveUpdates(t, newRepo(t)) })
	t.Run("FindMissing", func(t *testing.T) { testFindMissing(t, newRepo(t)) })
	t.Run("FindByIDs", func(t *testing.T) { testFindByIDs(t, newRepo(t)) })
	t.Run("Cells", func(t *testing.T) { testCells(t, newRepo(t)) })
	t.Run("DeleteColumnRemovesCells", func(t *testing.T) { testDeleteColumn(t, newRepo(t)) })
	t.Run("DirectoryTree", func(t *testing.T) { testDirectoryTree(t, newRepo(t)) })
	t.Run("DeleteDirectoryCascades", func(t *testing.T) { testDeleteDirectoryCascades(t, newRepo(t)) })
	t.Run("DeleteDirectoryInParentCycle", func(t *testing.T) { testDeleteDirectoryInParentCycle(t, newRepo(t)) })
	t.Run("ReturnsCopies", func(t *testing.T) { testReturnsCopies(t, newRepo(t)) })
}

// Fixture builds and persists entities, applying the returned ids.
type Fixture struct {
	t    *testing.T
	ctx  context.Context
	repo column.Repository
}

func NewFixture(t *testing.T, repo column.Repository) *Fixture {
	return &Fixture{t: t, ctx: context.Background(), repo: repo}
}

func (f *Fixture) Directory(name string, parent *column.DirectoryID) column.DirectoryID {
	f.t.Helper()
	n, err := column.NewDirectoryName(name)
	require.NoError(f.t, err)
	id, err := f.repo.SaveDirectory(f.ctx, column.NewDirectory(domain.Unassigned[column.DirectoryID](), n, parent))
	require.NoError(f.t, err)
	return id
}

func (f *Fixture) Cell(v float64) column.CellID {
	f.t.Helper()
	id, err := f.repo.SaveCell(f.ctx, column.NewCell(domain.Unassigned[column.CellID](), column.NewCellValue(v)))
	require.NoError(f.t, err)
	return id
}

func (f *Fixture) Column(name string, dir column.DirectoryID, cells ...column.CellID) column.ID {
	f.t.Helper()
	n, err := column.NewName(name)
	require.NoError(f.t, err)
	id, err := f.repo.Save(f.ctx, column.NewColumn(domain.Unassigned[column.ID](), n, dir, cells))
	require.NoError(f.t, err)
	return id
}

func columnIDs(cols []*column.Column) []column.ID {
	out := make([]column.ID, len(cols))
	for i, c := range cols {
		out[i] = c.ID().MustValue()
	}
	return out
}

func cellIDs(cells []*column.Cell) []column.CellID {
	out := make([]column.CellID, len(cells))
	for i, c := range cells {
		out[i] = c.ID().MustValue()
	}
	return out
}

func dirIDs(dirs []*column.Directory) []column.DirectoryID {
	out := make([]column.DirectoryID, len(dirs))
	for i, d := range dirs {
		out[i] = d.ID().MustValue()
	}
	return out
}

func testSaveAssignsID(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	name, err := column.NewName("price")
	require.NoError(t, err)
	col := column.NewColumn(domain.Unassigned[column.ID](), name, "dir", []column.CellID{"a", "b"})

	id, err := repo.Save(ctx, col)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.False(t, col.ID().IsAssigned(), "Save must not mutate its argument")

	other, err := repo.Save(ctx, col)
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "each unassigned save gets a fresh id")

	got, err := repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID().MustValue())
	assert.Equal(t, "price", got.Name().String())
	assert.Equal(t, column.DirectoryID("dir"), got.DirectoryID())
	assert.Equal(t, []column.CellID{"a", "b"}, got.Cells())
}

func testSaveUpdates(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)
	id := f.Column("before", "d1", "x", "y")

	col, err := repo.Find(ctx, id)
	require.NoError(t, err)
	renamed, err := column.NewName("after")
	require.NoError(t, err)
	col.ChangeName(renamed)
	col.MoveTo("d2")
	require.NoError(t, col.ChangeOrder([]column.CellID{"y", "x"}))

	saved, err := repo.Save(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, id, saved)

	got, err := repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Name().String())
	assert.Equal(t, column.DirectoryID("d2"), got.DirectoryID())
	assert.Equal(t, []column.CellID{"y", "x"}, got.Cells())

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testFindMissing(t *testing.T, repo column.Repository) {
	ctx := context.Background()

	_, err := repo.Find(ctx, "nope")
	assert.ErrorIs(t, err, column.ErrColumnNotFound)
	_, err = repo.FindCell(ctx, "nope")
	assert.ErrorIs(t, err, column.ErrCellNotFound)
	_, err = repo.FindDirectory(ctx, "nope")
	assert.ErrorIs(t, err, column.ErrDirectoryNotFound)
	_, err = repo.FindCellsByColumnID(ctx, "nope")
	assert.ErrorIs(t, err, column.ErrColumnNotFound)
}

func testFindByIDs(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)
	a := f.Column("a", "d")
	b := f.Column("b", "d")
	c := f.Column("c", "d")

	got, err := repo.FindByIDs(ctx, []column.ID{c, a, b})
	require.NoError(t, err)
	if diff := cmp.Diff([]column.ID{c, a, b}, columnIDs(got)); diff != "" {
		t.Errorf("FindByIDs order mismatch (-want +got):\n%s", diff)
	}

	requested := []column.ID{a, "missing", b}
	got, err = repo.FindByIDs(ctx, requested)
	assert.Nil(t, got)
	var nf *column.NotAllColumnsFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, requested, nf.IDs)
	assert.ErrorIs(t, err, column.ErrColumnNotFound)

	x := f.Cell(1)
	y := f.Cell(2)
	cells, err := repo.FindCellsByIDs(ctx, []column.CellID{y, x})
	require.NoError(t, err)
	assert.Equal(t, []column.CellID{y, x}, cellIDs(cells))

	_, err = repo.FindCellsByIDs(ctx, []column.CellID{x, "missing"})
	var cnf *column.NotAllCellsFoundError
	require.ErrorAs(t, err, &cnf)
	assert.Equal(t, []column.CellID{x, "missing"}, cnf.IDs)
	assert.ErrorIs(t, err, column.ErrCellNotFound)
}

func testCells(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)

	c1 := f.Cell(1.5)
	emptyID, err := repo.SaveCell(ctx, column.NewCell(domain.Unassigned[column.CellID](), column.EmptyCellValue()))
	require.NoError(t, err)
	c3 := f.Cell(-3)
	col := f.Column("col", "d", c3, c1, emptyID)

	cells, err := repo.FindCellsByColumnID(ctx, col)
	require.NoError(t, err)
	assert.Equal(t, []column.CellID{c3, c1, emptyID}, cellIDs(cells), "column order")

	got, err := repo.FindCell(ctx, emptyID)
	require.NoError(t, err)
	assert.True(t, got.Value().IsEmpty())

	cell, err := repo.FindCell(ctx, c1)
	require.NoError(t, err)
	cell.EditValue(column.NewCellValue(9))
	_, err = repo.SaveCell(ctx, cell)
	require.NoError(t, err)
	cell, err = repo.FindCell(ctx, c1)
	require.NoError(t, err)
	v, ok := cell.Value().Float()
	assert.True(t, ok)
	assert.Equal(t, 9.0, v)

	require.NoError(t, repo.DeleteCell(ctx, cell))
	_, err = repo.FindCell(ctx, c1)
	assert.ErrorIs(t, err, column.ErrCellNotFound)
}

func testDeleteColumn(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)
	c1, c2, keep := f.Cell(1), f.Cell(2), f.Cell(3)
	id := f.Column("gone", "d", c1, c2)
	other := f.Column("kept", "d", keep)

	col, err := repo.Find(ctx, id)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, col))

	_, err = repo.Find(ctx, id)
	assert.ErrorIs(t, err, column.ErrColumnNotFound)
	for _, c := range []column.CellID{c1, c2} {
		_, err = repo.FindCell(ctx, c)
		assert.ErrorIs(t, err, column.ErrCellNotFound)
	}
	_, err = repo.FindCell(ctx, keep)
	assert.NoError(t, err)
	_, err = repo.Find(ctx, other)
	assert.NoError(t, err)
}

func testDirectoryTree(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)
	root1 := f.Directory("root1", nil)
	root2 := f.Directory("root2", nil)
	child1 := f.Directory("child1", &root1)
	child2 := f.Directory("child2", &root1)
	f.Directory("grandchild", &child1)

	roots, err := repo.FindRootDirectories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []column.DirectoryID{root1, root2}, dirIDs(roots))

	children, err := repo.FindChildrenDirectories(ctx, root1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []column.DirectoryID{child1, child2}, dirIDs(children))

	children, err = repo.FindChildrenDirectories(ctx, root2)
	require.NoError(t, err)
	assert.Empty(t, children)

	dir, err := repo.FindDirectory(ctx, child2)
	require.NoError(t, err)
	parent, ok := dir.ParentID()
	require.True(t, ok)
	assert.Equal(t, root1, parent)

	dir.MoveTo(&root2)
	_, err = repo.SaveDirectory(ctx, dir)
	require.NoError(t, err)
	children, err = repo.FindChildrenDirectories(ctx, root2)
	require.NoError(t, err)
	assert.Equal(t, []column.DirectoryID{child2}, dirIDs(children))

	col1 := f.Column("in-root1", root1)
	f.Column("in-root2", root2)
	cols, err := repo.FindByDirectoryID(ctx, root1)
	require.NoError(t, err)
	assert.Equal(t, []column.ID{col1}, columnIDs(cols))
}

// testDeleteDirectoryCascades builds
//
//	root ─ dir1 ─ dir2 ─ column1 (c1, c2)
//	   │      └─ column2 (c3)
//	   └─ sibling ─ column4 (c5)
//	other ─ column3 (c4)
//
// and deletes dir1.
func testDeleteDirectoryCascades(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)

	root := f.Directory("root", nil)
	dir1 := f.Directory("dir1", &root)
	dir2 := f.Directory("dir2", &dir1)
	c1, c2, c3, c4 := f.Cell(1), f.Cell(2), f.Cell(3), f.Cell(4)
	column1 := f.Column("column1", dir2, c1, c2)
	column2 := f.Column("column2", dir1, c3)
	other := f.Directory("other", nil)
	column3 := f.Column("column3", other, c4)
	sibling := f.Directory("sibling", &root)
	c5 := f.Cell(5)
	column4 := f.Column("column4", sibling, c5)

	target, err := repo.FindDirectory(ctx, dir1)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteDirectory(ctx, target))

	for _, id := range []column.DirectoryID{dir1, dir2} {
		_, err := repo.FindDirectory(ctx, id)
		assert.ErrorIs(t, err, column.ErrDirectoryNotFound, "directory %s", id)
	}
	for _, id := range []column.ID{column1, column2} {
		_, err := repo.Find(ctx, id)
		assert.ErrorIs(t, err, column.ErrColumnNotFound, "column %s", id)
	}
	for _, id := range []column.CellID{c1, c2, c3} {
		_, err := repo.FindCell(ctx, id)
		assert.ErrorIs(t, err, column.ErrCellNotFound, "cell %s", id)
	}

	_, err = repo.FindDirectory(ctx, root)
	assert.NoError(t, err)
	_, err = repo.FindDirectory(ctx, other)
	assert.NoError(t, err)
	_, err = repo.Find(ctx, column3)
	assert.NoError(t, err)
	_, err = repo.FindCell(ctx, c4)
	assert.NoError(t, err)

	_, err = repo.FindDirectory(ctx, sibling)
	assert.NoError(t, err)
	survivor, err := repo.Find(ctx, column4)
	require.NoError(t, err)
	assert.Equal(t, []column.CellID{c5}, survivor.Cells())
	cells, err := repo.FindCellsByColumnID(ctx, column4)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, c5, cells[0].ID().MustValue())

	children, err := repo.FindChildrenDirectories(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []column.DirectoryID{sibling}, dirIDs(children))
}

// testDeleteDirectoryInParentCycle saves a <-> b parent links directly,
// bypassing the service-level cycle check, and deletes a.
func testDeleteDirectoryInParentCycle(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)

	a := f.Directory("a", nil)
	b := f.Directory("b", &a)
	cell := f.Cell(1)
	col := f.Column("in-b", b, cell)
	bystander := f.Directory("bystander", nil)

	dirA, err := repo.FindDirectory(ctx, a)
	require.NoError(t, err)
	dirA.MoveTo(&b)
	_, err = repo.SaveDirectory(ctx, dirA)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDirectory(ctx, dirA))

	for _, id := range []column.DirectoryID{a, b} {
		_, err := repo.FindDirectory(ctx, id)
		assert.ErrorIs(t, err, column.ErrDirectoryNotFound, "directory %s", id)
	}
	_, err = repo.Find(ctx, col)
	assert.ErrorIs(t, err, column.ErrColumnNotFound)
	_, err = repo.FindCell(ctx, cell)
	assert.ErrorIs(t, err, column.ErrCellNotFound)
	_, err = repo.FindDirectory(ctx, bystander)
	assert.NoError(t, err)
}

func testReturnsCopies(t *testing.T, repo column.Repository) {
	ctx := context.Background()
	f := NewFixture(t, repo)
	id := f.Column("col", "d", "a", "b")

	got, err := repo.Find(ctx, id)
	require.NoError(t, err)
	got.RemoveCell("a")
	got.MoveTo("elsewhere")

	again, err := repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []column.CellID{"a", "b"}, again.Cells())
	assert.Equal(t, column.DirectoryID("d"), again.DirectoryID())
}

// ---------------------------------------------------------------------------
// Table repository contract
// ---------------------------------------------------------------------------

// RunTableRepository exercises newRepo against the table.Repository contract.
func RunTableRepository(t *testing.T, newRepo TableFactory) {
	t.Run("SaveAndFind", func(t *testing.T) { testTableSaveAndFind(t, newRepo(t)) })
	t.Run("ParentTables", func(t *testing.T) { testParentTables(t, newRepo(t)) })
	t.Run("Delete", func(t *testing.T) { testTableDelete(t, newRepo(t)) })
}

func saveTable(t *testing.T, repo table.Repository, name string, columns ...column.ID) table.ID {
	t.Helper()
	n, err := table.NewName(name)
	require.NoError(t, err)
	tbl, err := table.NewFactory().CreateTable(n, columns)
	require.NoError(t, err)
	id, err := repo.Save(context.Background(), tbl)
	require.NoError(t, err)
	assert.False(t, tbl.ID().IsAssigned(), "Save must not mutate its argument")
	return id
}

func testTableSaveAndFind(t *testing.T, repo table.Repository) {
	ctx := context.Background()
	id := saveTable(t, repo, "sales", "A", "B", "C")

	got, err := repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sales", got.Name().String())
	assert.Equal(t, []column.ID{"A", "B", "C"}, got.Columns())

	require.NoError(t, got.MoveColumnBehind("A", "C"))
	_, err = repo.Save(ctx, got)
	require.NoError(t, err)

	got, err = repo.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []column.ID{"B", "C", "A"}, got.Columns())

	_, err = repo.Find(ctx, "missing")
	assert.ErrorIs(t, err, table.ErrTableNotFound)
}

func testParentTables(t *testing.T, repo table.Repository) {
	ctx := context.Background()
	t1 := saveTable(t, repo, "t1", "A", "B")
	t2 := saveTable(t, repo, "t2", "B", "C")
	saveTable(t, repo, "t3", "C")

	parents, err := repo.FindParentTablesByColumnID(ctx, "B")
	require.NoError(t, err)
	ids := make([]table.ID, len(parents))
	for i, p := range parents {
		ids[i] = p.ID().MustValue()
	}
	assert.ElementsMatch(t, []table.ID{t1, t2}, ids)

	parents, err = repo.FindParentTablesByColumnID(ctx, "Z")
	require.NoError(t, err)
	assert.Empty(t, parents)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testTableDelete(t *testing.T, repo table.Repository) {
	ctx := context.Background()
	id := saveTable(t, repo, "t", "A")
	kept := saveTable(t, repo, "k", "A")

	tbl, err := repo.Find(ctx, id)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, tbl))

	_, err = repo.Find(ctx, id)
	assert.ErrorIs(t, err, table.ErrTableNotFound)
	_, err = repo.Find(ctx, kept)
	assert.NoError(t, err)

	parents, err := repo.FindParentTablesByColumnID(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, parents, 1)
}
