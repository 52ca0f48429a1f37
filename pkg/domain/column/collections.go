package column

import (
	"slices"

	"github.com/plot451/plot/pkg/domain"
)

// ---------------------------------------------------------------------------
// ColumnWithCells: a column joined with its resolved cells
// ---------------------------------------------------------------------------

// ColumnWithCells is a read-only view of a persisted column and its cells,
// in column order.
type ColumnWithCells struct {
	id          ID
	name        Name
	directoryID DirectoryID
	cells       []*Cell
}

// NewColumnWithCells joins a persisted column with its cells. The cell ids
// must match the column's cell list exactly, order included.
func NewColumnWithCells(col *Column, cells []*Cell) (*ColumnWithCells, error) {
	id, ok := col.ID().Value()
	if !ok {
		return nil, domain.Inconsistent("column with cells", "column has no identity")
	}
	got := make([]CellID, len(cells))
	for i, cell := range cells {
		cid, ok := cell.ID().Value()
		if !ok {
			return nil, domain.Inconsistent("column with cells", "cell at position %d has no identity", i)
		}
		got[i] = cid
	}
	if !slices.Equal(col.cells, got) {
		return nil, domain.Inconsistent("column with cells",
			"column %s references cells %v, got %v", id, col.cells, got)
	}
	return &ColumnWithCells{
		id:          id,
		name:        col.name,
		directoryID: col.directoryID,
		cells:       cloneCells(cells),
	}, nil
}

func (c *ColumnWithCells) ID() ID                   { return c.id }
func (c *ColumnWithCells) Name() Name               { return c.name }
func (c *ColumnWithCells) DirectoryID() DirectoryID { return c.directoryID }

// Cells returns copies of the cells in column order.
func (c *ColumnWithCells) Cells() []*Cell { return cloneCells(c.cells) }

func cloneCells(cells []*Cell) []*Cell {
	out := make([]*Cell, len(cells))
	for i, cell := range cells {
		out[i] = cell.Clone()
	}
	return out
}

// ---------------------------------------------------------------------------
// DirectoryContents: a directory joined with its direct children
// ---------------------------------------------------------------------------

// DirectoryContents lists the columns and sub-directories directly inside a
// directory.
type DirectoryContents struct {
	directory   *Directory
	columns     []*Column
	directories []*Directory
}

// NewDirectoryContents checks that every column lives in dir and every
// directory is a direct child of dir.
func NewDirectoryContents(dir *Directory, columns []*Column, directories []*Directory) (*DirectoryContents, error) {
	id, ok := dir.ID().Value()
	if !ok {
		return nil, domain.Inconsistent("directory contents", "directory has no identity")
	}
	for _, col := range columns {
		if col.DirectoryID() != id {
			return nil, domain.Inconsistent("directory contents",
				"column %s belongs to directory %s, not %s", col.ID(), col.DirectoryID(), id)
		}
	}
	for _, child := range directories {
		if !child.IsChildOf(id) {
			return nil, domain.Inconsistent("directory contents",
				"directory %s is not a child of %s", child.ID(), id)
		}
	}

	contents := &DirectoryContents{
		directory:   dir.Clone(),
		columns:     make([]*Column, len(columns)),
		directories: make([]*Directory, len(directories)),
	}
	for i, col := range columns {
		contents.columns[i] = col.Clone()
	}
	for i, child := range directories {
		contents.directories[i] = child.Clone()
	}
	return contents, nil
}

// Directory returns the listed directory.
func (d *DirectoryContents) Directory() *Directory { return d.directory.Clone() }

// DirectoryID returns the listed directory's id.
func (d *DirectoryContents) DirectoryID() DirectoryID { return d.directory.ID().MustValue() }

// Columns returns the columns directly inside the directory.
func (d *DirectoryContents) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	for i, col := range d.columns {
		out[i] = col.Clone()
	}
	return out
}

// Directories returns the direct sub-directories.
func (d *DirectoryContents) Directories() []*Directory {
	out := make([]*Directory, len(d.directories))
	for i, child := range d.directories {
		out[i] = child.Clone()
	}
	return out
}
