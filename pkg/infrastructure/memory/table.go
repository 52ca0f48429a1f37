package memory

import (
	"context"
	"sync"

	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

// TableRepository keeps tables in process memory.
type TableRepository struct {
	mu     sync.RWMutex
	tables *store[table.ID, *table.Table]
}

// NewTableRepository creates an empty repository.
func NewTableRepository() *TableRepository {
	return &TableRepository{tables: newStore[table.ID, *table.Table]()}
}

func (r *TableRepository) Save(_ context.Context, t *table.Table) (table.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := t.Clone()
	id, ok := stored.ID().Value()
	if !ok {
		id = r.tables.nextID()
		if err := stored.SetID(id); err != nil {
			return "", err
		}
	}
	r.tables.put(id, stored)
	return id, nil
}

func (r *TableRepository) Find(_ context.Context, id table.ID) (*table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tables.get(id)
	if !ok {
		return nil, table.NotFound(id)
	}
	return t.Clone(), nil
}

func (r *TableRepository) FindParentTablesByColumnID(_ context.Context, columnID column.ID) ([]*table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneTables(r.tables.filter(func(t *table.Table) bool { return t.Contains(columnID) })), nil
}

func (r *TableRepository) FindAll(_ context.Context) ([]*table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneTables(r.tables.filter(nil)), nil
}

func (r *TableRepository) Delete(_ context.Context, t *table.Table) error {
	id, ok := t.ID().Value()
	if !ok {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables.remove(id)
	return nil
}

func cloneTables(in []*table.Table) []*table.Table {
	out := make([]*table.Table, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// Compile-time verification
var _ table.Repository = (*TableRepository)(nil)
