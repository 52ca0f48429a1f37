package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plot451/plot/pkg/domain"
)

func mustName(t *testing.T, raw string) Name {
	t.Helper()
	n, err := NewName(raw)
	require.NoError(t, err)
	return n
}

func newTestColumn(t *testing.T, cells ...CellID) *Column {
	t.Helper()
	return NewColumn(domain.Assigned[ID]("column_id"), mustName(t, "column_name"), "0", cells)
}

func TestChangeOrder(t *testing.T) {
	tests := []struct {
		name     string
		newOrder []CellID
		wantErr  bool
	}{
		{name: "permutation", newOrder: []CellID{"cell3", "cell1", "cell2"}},
		{name: "identity", newOrder: []CellID{"cell1", "cell2", "cell3"}},
		{name: "missing id", newOrder: []CellID{"cell3", "cell1"}, wantErr: true},
		{name: "duplicate replaces id", newOrder: []CellID{"cell3", "cell1", "cell3"}, wantErr: true},
		{name: "foreign id", newOrder: []CellID{"cell3", "cell1", "cell4"}, wantErr: true},
		{name: "extra duplicate", newOrder: []CellID{"cell1", "cell2", "cell3", "cell3"}, wantErr: true},
		{name: "extra id", newOrder: []CellID{"cell1", "cell2", "cell3", "cell4"}, wantErr: true},
		{name: "empty", newOrder: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col := newTestColumn(t, "cell1", "cell2", "cell3")
			err := col.ChangeOrder(tt.newOrder)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidOrder)
				assert.Equal(t, []CellID{"cell1", "cell2", "cell3"}, col.Cells(), "order must be unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.newOrder, col.Cells())
		})
	}
}

func TestChangeOrderDoesNotAliasArgument(t *testing.T) {
	col := newTestColumn(t, "a", "b")
	order := []CellID{"b", "a"}
	require.NoError(t, col.ChangeOrder(order))
	order[0] = "zzz"
	assert.Equal(t, []CellID{"b", "a"}, col.Cells())
}

func TestInsertAndRemoveCells(t *testing.T) {
	col := newTestColumn(t)
	col.InsertCell("a")
	col.InsertCell("b")
	col.InsertCell("a")
	assert.Equal(t, []CellID{"a", "b", "a"}, col.Cells())

	col.RemoveCell("a")
	assert.Equal(t, []CellID{"b"}, col.Cells())

	col.RemoveCell("missing")
	assert.Equal(t, []CellID{"b"}, col.Cells())
}

func TestColumnMoveAndRename(t *testing.T) {
	col := newTestColumn(t)
	col.MoveTo("dir2")
	col.ChangeName(mustName(t, "renamed"))
	assert.Equal(t, DirectoryID("dir2"), col.DirectoryID())
	assert.Equal(t, "renamed", col.Name().String())
}

func TestSetIDIsWriteOnce(t *testing.T) {
	name := mustName(t, "c")
	dirName, err := NewDirectoryName("d")
	require.NoError(t, err)

	col := NewColumn(domain.Unassigned[ID](), name, "0", nil)
	require.NoError(t, col.SetID("1"))
	assert.ErrorIs(t, col.SetID("2"), domain.ErrIdentityAlreadyAssigned)

	cell := NewCell(domain.Unassigned[CellID](), EmptyCellValue())
	require.NoError(t, cell.SetID("1"))
	assert.ErrorIs(t, cell.SetID("2"), domain.ErrIdentityAlreadyAssigned)

	dir := NewDirectory(domain.Unassigned[DirectoryID](), dirName, nil)
	require.NoError(t, dir.SetID("1"))
	assert.ErrorIs(t, dir.SetID("2"), domain.ErrIdentityAlreadyAssigned)
	assert.Equal(t, DirectoryID("1"), dir.ID().MustValue())
}

func TestNames(t *testing.T) {
	n, err := NewName("  price ")
	require.NoError(t, err)
	assert.Equal(t, "price", n.String())

	_, err = NewName("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyName)

	_, err = NewDirectoryName("")
	assert.ErrorIs(t, err, domain.ErrEmptyName)
}

func TestParseCellValue(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      float64
		wantEmpty bool
		wantErr   bool
	}{
		{name: "number with padding", raw: " 1.0　", want: 1.0},
		{name: "negative", raw: "-2.5", want: -2.5},
		{name: "empty", raw: "", wantEmpty: true},
		{name: "whitespace", raw: " ", wantEmpty: true},
		{name: "full-width whitespace", raw: "　", wantEmpty: true},
		{name: "text", raw: "a", wantErr: true},
		{name: "exponent", raw: "1e3", want: 1000},
		{name: "nan", raw: "NaN", wantErr: true},
		{name: "lowercase nan", raw: "nan", wantErr: true},
		{name: "inf", raw: "Inf", wantErr: true},
		{name: "negative infinity", raw: "-infinity", wantErr: true},
		{name: "overflow", raw: "1e400", wantErr: true},
		{name: "hex float", raw: "0x1p3", wantErr: true},
		{name: "signed hex", raw: "-0X10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseCellValue(tt.raw)
			if tt.wantErr {
				var pe *CellValueParseError
				assert.ErrorAs(t, err, &pe)
				return
			}
			require.NoError(t, err)
			if tt.wantEmpty {
				assert.True(t, v.IsEmpty())
				assert.Nil(t, v.Ptr())
				return
			}
			f, ok := v.Float()
			assert.True(t, ok)
			assert.Equal(t, tt.want, f)
		})
	}
}

func TestParseCellValueReasons(t *testing.T) {
	_, err := ParseCellValue("NaN")
	assert.ErrorIs(t, err, ErrNotFinite)
	_, err = ParseCellValue(" +Inf ")
	assert.ErrorIs(t, err, ErrNotFinite)
	_, err = ParseCellValue("0x1p3")
	assert.ErrorIs(t, err, ErrNotDecimal)
}

func TestCellValuePtrRoundTrip(t *testing.T) {
	f := 3.5
	v := CellValueFromPtr(&f)
	require.NotNil(t, v.Ptr())
	assert.Equal(t, 3.5, *v.Ptr())
	assert.True(t, CellValueFromPtr(nil).IsEmpty())
	assert.Equal(t, "3.5", v.String())
}

func TestEditCellValue(t *testing.T) {
	cell := NewCell(domain.Assigned[CellID]("1"), NewCellValue(1))
	cell.EditValue(EmptyCellValue())
	assert.True(t, cell.Value().IsEmpty())
}

func TestDirectoryTreeLinks(t *testing.T) {
	name, err := NewDirectoryName("child")
	require.NoError(t, err)
	parent := DirectoryID("1")
	dir := NewDirectory(domain.Assigned[DirectoryID]("2"), name, &parent)

	parent = "changed"
	got, ok := dir.ParentID()
	require.True(t, ok)
	assert.Equal(t, DirectoryID("1"), got, "parent pointer is copied")
	assert.True(t, dir.IsChildOf("1"))
	assert.False(t, dir.IsRoot())

	dir.MoveTo(nil)
	assert.True(t, dir.IsRoot())
	assert.False(t, dir.IsChildOf("1"))
}

func TestFactoryCreatesUnpersistedEntities(t *testing.T) {
	f := NewFactory()
	dirName, err := NewDirectoryName("d")
	require.NoError(t, err)

	col, err := f.CreateColumn(mustName(t, "c"), "1", []CellID{"x"})
	require.NoError(t, err)
	assert.False(t, col.ID().IsAssigned())
	assert.Equal(t, []CellID{"x"}, col.Cells())

	cell, err := f.CreateCell(NewCellValue(2))
	require.NoError(t, err)
	assert.False(t, cell.ID().IsAssigned())

	dir, err := f.CreateDirectory(dirName, nil)
	require.NoError(t, err)
	assert.False(t, dir.ID().IsAssigned())
	assert.True(t, dir.IsRoot())
}
