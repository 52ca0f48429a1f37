package memory

import (
	"context"
	"sync"

	"github.com/plot451/plot/pkg/domain/column"
)

// ColumnRepository keeps columns, cells and directories in process memory.
// Entities are cloned on the way in and on the way out.
type ColumnRepository struct {
	mu          sync.RWMutex
	columns     *store[column.ID, *column.Column]
	cells       *store[column.CellID, *column.Cell]
	directories *store[column.DirectoryID, *column.Directory]
}

// NewColumnRepository creates an empty repository.
func NewColumnRepository() *ColumnRepository {
	return &ColumnRepository{
		columns:     newStore[column.ID, *column.Column](),
		cells:       newStore[column.CellID, *column.Cell](),
		directories: newStore[column.DirectoryID, *column.Directory](),
	}
}

// ---------------------------------------------------------------------------
// Columns
// ---------------------------------------------------------------------------

func (r *ColumnRepository) Save(_ context.Context, col *column.Column) (column.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := col.Clone()
	id, ok := stored.ID().Value()
	if !ok {
		id = r.columns.nextID()
		if err := stored.SetID(id); err != nil {
			return "", err
		}
	}
	r.columns.put(id, stored)
	return id, nil
}

func (r *ColumnRepository) Find(_ context.Context, id column.ID) (*column.Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	col, ok := r.columns.get(id)
	if !ok {
		return nil, column.ColumnNotFound(id)
	}
	return col.Clone(), nil
}

// FindByIDs returns the columns in request order, or none of them.
func (r *ColumnRepository) FindByIDs(_ context.Context, ids []column.ID) ([]*column.Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*column.Column, 0, len(ids))
	for _, id := range ids {
		col, ok := r.columns.get(id)
		if !ok {
			return nil, &column.NotAllColumnsFoundError{IDs: append([]column.ID(nil), ids...)}
		}
		out = append(out, col.Clone())
	}
	return out, nil
}

func (r *ColumnRepository) FindByDirectoryID(_ context.Context, directoryID column.DirectoryID) ([]*column.Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneColumns(r.columns.filter(func(c *column.Column) bool {
		return c.DirectoryID() == directoryID
	})), nil
}

func (r *ColumnRepository) FindAll(_ context.Context) ([]*column.Column, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneColumns(r.columns.filter(nil)), nil
}

// Delete removes the column and every cell it owns. Deleting an absent
// column is not an error.
func (r *ColumnRepository) Delete(_ context.Context, col *column.Column) error {
	id, ok := col.ID().Value()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteColumnLocked(id, col.Cells())
	return nil
}

func (r *ColumnRepository) deleteColumnLocked(id column.ID, cells []column.CellID) {
	if stored, ok := r.columns.get(id); ok {
		cells = append(cells, stored.Cells()...)
	}
	for _, cellID := range cells {
		r.cells.remove(cellID)
	}
	r.columns.remove(id)
}

// ---------------------------------------------------------------------------
// Cells
// ---------------------------------------------------------------------------

func (r *ColumnRepository) SaveCell(_ context.Context, cell *column.Cell) (column.CellID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cell.Clone()
	id, ok := stored.ID().Value()
	if !ok {
		id = r.cells.nextID()
		if err := stored.SetID(id); err != nil {
			return "", err
		}
	}
	r.cells.put(id, stored)
	return id, nil
}

func (r *ColumnRepository) FindCell(_ context.Context, id column.CellID) (*column.Cell, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cell, ok := r.cells.get(id)
	if !ok {
		return nil, column.CellNotFound(id)
	}
	return cell.Clone(), nil
}

// FindCellsByColumnID returns the stored cells of the column in column order.
func (r *ColumnRepository) FindCellsByColumnID(_ context.Context, columnID column.ID) ([]*column.Cell, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	col, ok := r.columns.get(columnID)
	if !ok {
		return nil, column.ColumnNotFound(columnID)
	}
	ids := col.Cells()
	out := make([]*column.Cell, 0, len(ids))
	for _, id := range ids {
		if cell, ok := r.cells.get(id); ok {
			out = append(out, cell.Clone())
		}
	}
	return out, nil
}

func (r *ColumnRepository) FindCellsByIDs(_ context.Context, ids []column.CellID) ([]*column.Cell, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*column.Cell, 0, len(ids))
	for _, id := range ids {
		cell, ok := r.cells.get(id)
		if !ok {
			return nil, &column.NotAllCellsFoundError{IDs: append([]column.CellID(nil), ids...)}
		}
		out = append(out, cell.Clone())
	}
	return out, nil
}

func (r *ColumnRepository) DeleteCell(_ context.Context, cell *column.Cell) error {
	id, ok := cell.ID().Value()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cells.remove(id)
	return nil
}

// ---------------------------------------------------------------------------
// Directories
// ---------------------------------------------------------------------------

func (r *ColumnRepository) SaveDirectory(_ context.Context, dir *column.Directory) (column.DirectoryID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := dir.Clone()
	id, ok := stored.ID().Value()
	if !ok {
		id = r.directories.nextID()
		if err := stored.SetID(id); err != nil {
			return "", err
		}
	}
	r.directories.put(id, stored)
	return id, nil
}

func (r *ColumnRepository) FindDirectory(_ context.Context, id column.DirectoryID) (*column.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dir, ok := r.directories.get(id)
	if !ok {
		return nil, column.DirectoryNotFound(id)
	}
	return dir.Clone(), nil
}

func (r *ColumnRepository) FindChildrenDirectories(_ context.Context, parentID column.DirectoryID) ([]*column.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneDirectories(r.directories.filter(func(d *column.Directory) bool {
		return d.IsChildOf(parentID)
	})), nil
}

func (r *ColumnRepository) FindRootDirectories(_ context.Context) ([]*column.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneDirectories(r.directories.filter(func(d *column.Directory) bool {
		return d.IsRoot()
	})), nil
}

// DeleteDirectory removes the subtree rooted at dir under a single write lock,
// so readers never observe a half-deleted tree.
func (r *ColumnRepository) DeleteDirectory(_ context.Context, dir *column.Directory) error {
	id, ok := dir.ID().Value()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.deleteDirectoryLocked(id, make(map[column.DirectoryID]bool))
	return nil
}

// deleteDirectoryLocked visits each directory once, so parent links that
// form a cycle still terminate.
func (r *ColumnRepository) deleteDirectoryLocked(id column.DirectoryID, seen map[column.DirectoryID]bool) {
	if seen[id] {
		return
	}
	seen[id] = true
	for _, col := range r.columns.filter(func(c *column.Column) bool { return c.DirectoryID() == id }) {
		r.deleteColumnLocked(col.ID().MustValue(), nil)
	}
	for _, child := range r.directories.filter(func(d *column.Directory) bool { return d.IsChildOf(id) }) {
		r.deleteDirectoryLocked(child.ID().MustValue(), seen)
	}
	r.directories.remove(id)
}

func cloneColumns(in []*column.Column) []*column.Column {
	out := make([]*column.Column, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

func cloneDirectories(in []*column.Directory) []*column.Directory {
	out := make([]*column.Directory, len(in))
	for i, d := range in {
		out[i] = d.Clone()
	}
	return out
}

// Compile-time verification
var _ column.Repository = (*ColumnRepository)(nil)
