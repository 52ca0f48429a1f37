package column

import (
	"context"

	"github.com/plot451/plot/pkg/domain"
)

// ---------------------------------------------------------------------------
// Repository interface
// ---------------------------------------------------------------------------

// Repository persists columns, their cells and the directory tree.
//
// Save methods assign a fresh identifier to entities that have none and return
// the stored identifier; they never mutate the argument, so callers apply the
// returned id with SetID. Single lookups return an error matching
// ErrColumnNotFound, ErrCellNotFound or ErrDirectoryNotFound. Batch lookups
// either return every requested entity in request order or fail with
// *NotAllColumnsFoundError / *NotAllCellsFoundError.
type Repository interface {
	Save(ctx context.Context, col *Column) (ID, error)
	Find(ctx context.Context, id ID) (*Column, error)
	FindByIDs(ctx context.Context, ids []ID) ([]*Column, error)
	FindByDirectoryID(ctx context.Context, directoryID DirectoryID) ([]*Column, error)
	FindAll(ctx context.Context) ([]*Column, error)
	// Delete removes the column together with its cells.
	Delete(ctx context.Context, col *Column) error

	SaveCell(ctx context.Context, cell *Cell) (CellID, error)
	FindCell(ctx context.Context, id CellID) (*Cell, error)
	// FindCellsByColumnID returns the column's cells in column order.
	FindCellsByColumnID(ctx context.Context, columnID ID) ([]*Cell, error)
	FindCellsByIDs(ctx context.Context, ids []CellID) ([]*Cell, error)
	DeleteCell(ctx context.Context, cell *Cell) error

	SaveDirectory(ctx context.Context, dir *Directory) (DirectoryID, error)
	FindDirectory(ctx context.Context, id DirectoryID) (*Directory, error)
	FindChildrenDirectories(ctx context.Context, parentID DirectoryID) ([]*Directory, error)
	FindRootDirectories(ctx context.Context) ([]*Directory, error)
	// DeleteDirectory removes the directory subtree: every column and cell
	// inside it and every descendant directory, children before parents.
	DeleteDirectory(ctx context.Context, dir *Directory) error
}

// ---------------------------------------------------------------------------
// Factory
// ---------------------------------------------------------------------------

// Factory builds new, not yet persisted, entities from validated values.
type Factory interface {
	CreateColumn(name Name, directoryID DirectoryID, cells []CellID) (*Column, error)
	CreateCell(value CellValue) (*Cell, error)
	CreateDirectory(name DirectoryName, parentID *DirectoryID) (*Directory, error)
}

// DefaultFactory is the storage-independent Factory.
type DefaultFactory struct{}

// NewFactory returns the default column factory.
func NewFactory() DefaultFactory { return DefaultFactory{} }

func (DefaultFactory) CreateColumn(name Name, directoryID DirectoryID, cells []CellID) (*Column, error) {
	return NewColumn(domain.Unassigned[ID](), name, directoryID, cells), nil
}

func (DefaultFactory) CreateCell(value CellValue) (*Cell, error) {
	return NewCell(domain.Unassigned[CellID](), value), nil
}

func (DefaultFactory) CreateDirectory(name DirectoryName, parentID *DirectoryID) (*Directory, error) {
	return NewDirectory(domain.Unassigned[DirectoryID](), name, parentID), nil
}

// Compile-time verification
var _ Factory = DefaultFactory{}
