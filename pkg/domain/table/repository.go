package table

import (
	"context"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
)

// Repository persists Table aggregates.
type Repository interface {
	// Save assigns an identifier to a new table and returns the stored id.
	// The argument is never mutated.
	Save(ctx context.Context, t *Table) (ID, error)
	// Find returns an error matching ErrTableNotFound when the table is missing.
	Find(ctx context.Context, id ID) (*Table, error)
	// FindParentTablesByColumnID returns every table that references the column.
	FindParentTablesByColumnID(ctx context.Context, columnID column.ID) ([]*Table, error)
	FindAll(ctx context.Context) ([]*Table, error)
	Delete(ctx context.Context, t *Table) error
}

// Factory builds new, not yet persisted, tables.
type Factory interface {
	CreateTable(name Name, columns []column.ID) (*Table, error)
}

// DefaultFactory is the storage-independent Factory.
type DefaultFactory struct{}

// NewFactory returns the default table factory.
func NewFactory() DefaultFactory { return DefaultFactory{} }

// CreateTable fails with ErrEmptyColumnList when columns is empty.
func (DefaultFactory) CreateTable(name Name, columns []column.ID) (*Table, error) {
	return New(domain.Unassigned[ID](), name, columns)
}

// Compile-time verification
var _ Factory = DefaultFactory{}
