package column

import (
	"slices"

	"github.com/plot451/plot/pkg/domain"
)

// ---------------------------------------------------------------------------
// Column entity
// ---------------------------------------------------------------------------

// Column is an ordered list of cell references living in one directory.
type Column struct {
	id          domain.Identity[ID]
	name        Name
	directoryID DirectoryID
	cells       []CellID
}

// NewColumn reconstitutes a Column. New columns are built by a Factory.
func NewColumn(id domain.Identity[ID], name Name, directoryID DirectoryID, cells []CellID) *Column {
	return &Column{
		id:          id,
		name:        name,
		directoryID: directoryID,
		cells:       slices.Clone(cells),
	}
}

func (c *Column) ID() domain.Identity[ID]  { return c.id }
func (c *Column) Name() Name               { return c.name }
func (c *Column) DirectoryID() DirectoryID { return c.directoryID }

// SetID assigns the identity handed out by a repository.
func (c *Column) SetID(id ID) error { return c.id.Assign(id) }

// Cells returns a copy of the ordered cell references.
func (c *Column) Cells() []CellID { return slices.Clone(c.cells) }

// ChangeName renames the column.
func (c *Column) ChangeName(name Name) { c.name = name }

// InsertCell appends a cell reference.
func (c *Column) InsertCell(id CellID) { c.cells = append(c.cells, id) }

// RemoveCell drops every reference to the cell. Absent ids are ignored.
func (c *Column) RemoveCell(id CellID) {
	c.cells = slices.DeleteFunc(c.cells, func(cell CellID) bool { return cell == id })
}

// ChangeOrder replaces the cell order. newOrder must hold exactly the same
// ids as the current list, each as many times; otherwise ErrInvalidOrder is
// returned and the column is left untouched.
func (c *Column) ChangeOrder(newOrder []CellID) error {
	if len(newOrder) != len(c.cells) {
		return ErrInvalidOrder
	}
	remaining := make(map[CellID]int, len(c.cells))
	for _, id := range c.cells {
		remaining[id]++
	}
	for _, id := range newOrder {
		if remaining[id] == 0 {
			return ErrInvalidOrder
		}
		remaining[id]--
	}
	c.cells = slices.Clone(newOrder)
	return nil
}

// MoveTo reassigns the owning directory.
func (c *Column) MoveTo(directoryID DirectoryID) { c.directoryID = directoryID }

// Clone returns a deep copy.
func (c *Column) Clone() *Column {
	return NewColumn(c.id, c.name, c.directoryID, c.cells)
}

// ---------------------------------------------------------------------------
// Cell entity
// ---------------------------------------------------------------------------

// Cell holds one optional numeric value.
type Cell struct {
	id    domain.Identity[CellID]
	value CellValue
}

// NewCell reconstitutes a Cell.
func NewCell(id domain.Identity[CellID], value CellValue) *Cell {
	return &Cell{id: id, value: value}
}

func (c *Cell) ID() domain.Identity[CellID] { return c.id }
func (c *Cell) Value() CellValue            { return c.value }

// SetID assigns the identity handed out by a repository.
func (c *Cell) SetID(id CellID) error { return c.id.Assign(id) }

// EditValue replaces the cell value.
func (c *Cell) EditValue(v CellValue) { c.value = v }

// Clone returns a copy.
func (c *Cell) Clone() *Cell { return NewCell(c.id, c.value) }

// ---------------------------------------------------------------------------
// Directory entity
// ---------------------------------------------------------------------------

// Directory is a node of the column tree. It only knows its parent; children
// are found by querying the repository.
type Directory struct {
	id       domain.Identity[DirectoryID]
	name     DirectoryName
	parentID *DirectoryID
}

// NewDirectory reconstitutes a Directory. A nil parent makes it a root.
func NewDirectory(id domain.Identity[DirectoryID], name DirectoryName, parentID *DirectoryID) *Directory {
	return &Directory{id: id, name: name, parentID: clonePtr(parentID)}
}

func (d *Directory) ID() domain.Identity[DirectoryID] { return d.id }
func (d *Directory) Name() DirectoryName              { return d.name }

// ParentID returns the parent directory, if any.
func (d *Directory) ParentID() (DirectoryID, bool) {
	if d.parentID == nil {
		return "", false
	}
	return *d.parentID, true
}

// IsRoot reports whether the directory has no parent.
func (d *Directory) IsRoot() bool { return d.parentID == nil }

// IsChildOf reports whether parent is this directory's parent.
func (d *Directory) IsChildOf(parent DirectoryID) bool {
	return d.parentID != nil && *d.parentID == parent
}

// SetID assigns the identity handed out by a repository.
func (d *Directory) SetID(id DirectoryID) error { return d.id.Assign(id) }

// ChangeName renames the directory.
func (d *Directory) ChangeName(name DirectoryName) { d.name = name }

// MoveTo re-parents the directory. A nil parent makes it a root.
func (d *Directory) MoveTo(parentID *DirectoryID) { d.parentID = clonePtr(parentID) }

// Clone returns a copy.
func (d *Directory) Clone() *Directory { return NewDirectory(d.id, d.name, d.parentID) }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
