package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
	"github.com/plot451/plot/pkg/logger"
)

// maxConcurrentLoads bounds the tables assembled in parallel by ListTables.
const maxConcurrentLoads = 8

// ---------------------------------------------------------------------------
// Table application service
// ---------------------------------------------------------------------------

// TableService orchestrates table use cases.
type TableService struct {
	repo     table.Repository
	columns  column.Repository
	eventBus domain.EventBus
	factory  table.Factory
	names    domain.Specification[table.TableColumns]
}

// NewTableService creates a new table application service.
func NewTableService(repo table.Repository, columns column.Repository, eventBus domain.EventBus) *TableService {
	return &TableService{
		repo:     repo,
		columns:  columns,
		eventBus: eventBus,
		factory:  table.NewFactory(),
		names:    table.NoDuplicatedColumnNames{},
	}
}

// CreateTable builds a table over existing columns whose names are pairwise
// distinct, persists it and returns it fully resolved.
func (s *TableService) CreateTable(ctx context.Context, rawName string, columnIDs []column.ID) (*table.TableWithColumnsAndCells, error) {
	name, err := table.NewName(rawName)
	if err != nil {
		return nil, err
	}
	t, err := s.factory.CreateTable(name, columnIDs)
	if err != nil {
		return nil, err
	}
	if err := s.checkColumns(ctx, t); err != nil {
		return nil, err
	}

	id, err := s.repo.Save(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("save table: %w", err)
	}
	if err := t.SetID(id); err != nil {
		return nil, err
	}

	logger.InfoCF("table", "Table created", map[string]interface{}{
		"id":      string(id),
		"name":    name.String(),
		"columns": len(columnIDs),
	})
	publish(s.eventBus, domain.NewEvent(domain.EventTableCreated, id, map[string]interface{}{
		"name":    name.String(),
		"columns": domain.Strings(columnIDs),
	}))
	return s.assemble(ctx, t)
}

// checkColumns resolves every column of t and applies the naming rule.
func (s *TableService) checkColumns(ctx context.Context, t *table.Table) error {
	cols, err := s.columns.FindByIDs(ctx, t.Columns())
	if err != nil {
		return err
	}
	tc, err := table.NewTableColumns(t, cols)
	if err != nil {
		return err
	}
	return s.names.IsSatisfiedBy(tc)
}

// assemble resolves the columns and cells of a persisted table.
func (s *TableService) assemble(ctx context.Context, t *table.Table) (*table.TableWithColumnsAndCells, error) {
	cols, err := s.columns.FindByIDs(ctx, t.Columns())
	if err != nil {
		return nil, err
	}
	resolved := make([]*column.ColumnWithCells, len(cols))
	for i, c := range cols {
		cells, err := s.columns.FindCellsByColumnID(ctx, c.ID().MustValue())
		if err != nil {
			return nil, err
		}
		if resolved[i], err = column.NewColumnWithCells(c, cells); err != nil {
			return nil, err
		}
	}
	return table.NewTableWithColumnsAndCells(t, resolved)
}

// GetTable loads one table fully resolved.
func (s *TableService) GetTable(ctx context.Context, id table.ID) (*table.TableWithColumnsAndCells, error) {
	t, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, t)
}

// ListTables loads every table fully resolved, assembling them concurrently.
// The result keeps repository order.
func (s *TableService) ListTables(ctx context.Context) ([]*table.TableWithColumnsAndCells, error) {
	tables, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*table.TableWithColumnsAndCells, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, t := range tables {
		g.Go(func() error {
			full, err := s.assemble(gctx, t)
			if err != nil {
				return fmt.Errorf("table %s: %w", t.ID(), err)
			}
			out[i] = full
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RenameTable changes the table name.
func (s *TableService) RenameTable(ctx context.Context, id table.ID, rawName string) (*table.Table, error) {
	name, err := table.NewName(rawName)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	t.ChangeName(name)
	if _, err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save table: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventTableRenamed, id, map[string]interface{}{
		"name": name.String(),
	}))
	return t, nil
}

// MoveColumnInFrontOf moves target directly before destination.
func (s *TableService) MoveColumnInFrontOf(ctx context.Context, id table.ID, target, destination column.ID) (*table.Table, error) {
	return s.mutate(ctx, id, false, func(t *table.Table) error {
		return t.MoveColumnInFrontOf(target, destination)
	})
}

// MoveColumnBehind moves target directly after destination.
func (s *TableService) MoveColumnBehind(ctx context.Context, id table.ID, target, destination column.ID) (*table.Table, error) {
	return s.mutate(ctx, id, false, func(t *table.Table) error {
		return t.MoveColumnBehind(target, destination)
	})
}

// InsertColumnInFrontOf adds an existing column directly before destination.
func (s *TableService) InsertColumnInFrontOf(ctx context.Context, id table.ID, destination, newColumn column.ID) (*table.Table, error) {
	return s.mutate(ctx, id, true, func(t *table.Table) error {
		return t.InsertColumnInFrontOf(destination, newColumn)
	})
}

// InsertColumnBehind adds an existing column directly after destination.
func (s *TableService) InsertColumnBehind(ctx context.Context, id table.ID, destination, newColumn column.ID) (*table.Table, error) {
	return s.mutate(ctx, id, true, func(t *table.Table) error {
		return t.InsertColumnBehind(destination, newColumn)
	})
}

// RemoveColumn drops the column from the table. The last column cannot be
// removed.
func (s *TableService) RemoveColumn(ctx context.Context, id table.ID, columnID column.ID) (*table.Table, error) {
	return s.mutate(ctx, id, false, func(t *table.Table) error {
		if !t.Contains(columnID) {
			return &table.ColumnNotFoundError{ColumnID: columnID}
		}
		return t.RemoveColumn(columnID)
	})
}

// mutate loads, changes and saves a table, re-checking its columns when the
// change may introduce new ones.
func (s *TableService) mutate(ctx context.Context, id table.ID, recheck bool, change func(*table.Table) error) (*table.Table, error) {
	t, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := change(t); err != nil {
		return nil, err
	}
	if recheck {
		if err := s.checkColumns(ctx, t); err != nil {
			return nil, err
		}
	}
	if _, err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save table: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventTableColumnsChanged, id, map[string]interface{}{
		"columns": domain.Strings(t.Columns()),
	}))
	return t, nil
}

// DeleteTable removes the table. Its columns are left untouched.
func (s *TableService) DeleteTable(ctx context.Context, id table.ID) error {
	t, err := s.repo.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, t); err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	logger.InfoCF("table", "Table deleted", map[string]interface{}{"id": string(id)})
	publish(s.eventBus, domain.NewEvent(domain.EventTableDeleted, id, nil))
	return nil
}
