package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
	"github.com/plot451/plot/pkg/logger"
)

// ---------------------------------------------------------------------------
// Column application service
// ---------------------------------------------------------------------------

// ColumnService orchestrates column and cell use cases.
type ColumnService struct {
	repo     column.Repository
	links    *tableLinks
	eventBus domain.EventBus
	factory  column.Factory
}

// NewColumnService creates a new column application service.
func NewColumnService(repo column.Repository, links *tableLinks, eventBus domain.EventBus) *ColumnService {
	return &ColumnService{
		repo:     repo,
		links:    links,
		eventBus: eventBus,
		factory:  column.NewFactory(),
	}
}

// CreateColumn stores one cell per value, then a column referencing them in
// order, inside an existing directory.
func (s *ColumnService) CreateColumn(ctx context.Context, rawName string, directoryID column.DirectoryID, values []column.CellValue) (*column.ColumnWithCells, error) {
	name, err := column.NewName(rawName)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindDirectory(ctx, directoryID); err != nil {
		return nil, err
	}

	cells := make([]*column.Cell, 0, len(values))
	cellIDs := make([]column.CellID, 0, len(values))
	for _, v := range values {
		cell, err := s.saveNewCell(ctx, v)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
		cellIDs = append(cellIDs, cell.ID().MustValue())
	}

	col, err := s.factory.CreateColumn(name, directoryID, cellIDs)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Save(ctx, col)
	if err != nil {
		return nil, fmt.Errorf("save column: %w", err)
	}
	if err := col.SetID(id); err != nil {
		return nil, err
	}

	logger.InfoCF("column", "Column created", map[string]interface{}{
		"id":        string(id),
		"name":      name.String(),
		"directory": string(directoryID),
		"cells":     len(cells),
	})
	publish(s.eventBus, domain.NewEvent(domain.EventColumnCreated, id, map[string]interface{}{
		"name":         name.String(),
		"directory_id": string(directoryID),
		"cells":        domain.Strings(cellIDs),
	}))
	return column.NewColumnWithCells(col, cells)
}

func (s *ColumnService) saveNewCell(ctx context.Context, v column.CellValue) (*column.Cell, error) {
	cell, err := s.factory.CreateCell(v)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.SaveCell(ctx, cell)
	if err != nil {
		return nil, fmt.Errorf("save cell: %w", err)
	}
	if err := cell.SetID(id); err != nil {
		return nil, err
	}
	return cell, nil
}

// GetColumn loads a column with its cells.
func (s *ColumnService) GetColumn(ctx context.Context, id column.ID) (*column.ColumnWithCells, error) {
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCells(ctx, col)
}

func (s *ColumnService) withCells(ctx context.Context, col *column.Column) (*column.ColumnWithCells, error) {
	cells, err := s.repo.FindCellsByColumnID(ctx, col.ID().MustValue())
	if err != nil {
		return nil, err
	}
	return column.NewColumnWithCells(col, cells)
}

// RenameColumn changes the column name. Every table holding the column must
// still have distinct column names afterwards.
func (s *ColumnService) RenameColumn(ctx context.Context, id column.ID, rawName string) (*column.ColumnWithCells, error) {
	name, err := column.NewName(rawName)
	if err != nil {
		return nil, err
	}
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	col.ChangeName(name)

	parents, err := s.links.tables.FindParentTablesByColumnID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range parents {
		if err := s.checkNamesWith(ctx, t, col); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.Save(ctx, col); err != nil {
		return nil, fmt.Errorf("save column: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventColumnRenamed, id, map[string]interface{}{
		"name": name.String(),
	}))
	return s.withCells(ctx, col)
}

// checkNamesWith verifies t's column names with renamed substituted for its
// stored version.
func (s *ColumnService) checkNamesWith(ctx context.Context, t *table.Table, renamed *column.Column) error {
	cols, err := s.repo.FindByIDs(ctx, t.Columns())
	if err != nil {
		return err
	}
	rid := renamed.ID().MustValue()
	for i, c := range cols {
		if c.ID().MustValue() == rid {
			cols[i] = renamed
		}
	}
	tc, err := table.NewTableColumns(t, cols)
	if err != nil {
		return err
	}
	return table.NoDuplicatedColumnNames{}.IsSatisfiedBy(tc)
}

// MoveColumn moves the column into another existing directory.
func (s *ColumnService) MoveColumn(ctx context.Context, id column.ID, directoryID column.DirectoryID) (*column.ColumnWithCells, error) {
	if _, err := s.repo.FindDirectory(ctx, directoryID); err != nil {
		return nil, err
	}
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	col.MoveTo(directoryID)
	if _, err := s.repo.Save(ctx, col); err != nil {
		return nil, fmt.Errorf("save column: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventColumnMoved, id, map[string]interface{}{
		"directory_id": string(directoryID),
	}))
	return s.withCells(ctx, col)
}

// AppendCell stores a new cell and appends it to the column.
func (s *ColumnService) AppendCell(ctx context.Context, id column.ID, value column.CellValue) (*column.Cell, error) {
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	cell, err := s.saveNewCell(ctx, value)
	if err != nil {
		return nil, err
	}
	col.InsertCell(cell.ID().MustValue())
	if _, err := s.repo.Save(ctx, col); err != nil {
		return nil, fmt.Errorf("save column: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventCellAppended, id, map[string]interface{}{
		"cell_id": string(cell.ID().MustValue()),
		"value":   value.Ptr(),
	}))
	return cell, nil
}

func (s *ColumnService) findOwnedCell(ctx context.Context, id column.ID, cellID column.CellID) (*column.Column, *column.Cell, error) {
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !slices.Contains(col.Cells(), cellID) {
		return nil, nil, fmt.Errorf("%w: cell %s, column %s", column.ErrCellNotInColumn, cellID, id)
	}
	cell, err := s.repo.FindCell(ctx, cellID)
	if err != nil {
		return nil, nil, err
	}
	return col, cell, nil
}

// RemoveCell detaches the cell from the column and deletes it.
func (s *ColumnService) RemoveCell(ctx context.Context, id column.ID, cellID column.CellID) error {
	col, cell, err := s.findOwnedCell(ctx, id, cellID)
	if err != nil {
		return err
	}
	col.RemoveCell(cellID)
	if _, err := s.repo.Save(ctx, col); err != nil {
		return fmt.Errorf("save column: %w", err)
	}
	if err := s.repo.DeleteCell(ctx, cell); err != nil {
		return fmt.Errorf("delete cell: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventCellRemoved, id, map[string]interface{}{
		"cell_id": string(cellID),
	}))
	return nil
}

// EditCell replaces the value of a cell of the column.
func (s *ColumnService) EditCell(ctx context.Context, id column.ID, cellID column.CellID, value column.CellValue) (*column.Cell, error) {
	_, cell, err := s.findOwnedCell(ctx, id, cellID)
	if err != nil {
		return nil, err
	}
	cell.EditValue(value)
	if _, err := s.repo.SaveCell(ctx, cell); err != nil {
		return nil, fmt.Errorf("save cell: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventCellEdited, id, map[string]interface{}{
		"cell_id": string(cellID),
		"value":   value.Ptr(),
	}))
	return cell, nil
}

// ReorderCells replaces the cell order; newOrder must be a permutation of the
// current cells.
func (s *ColumnService) ReorderCells(ctx context.Context, id column.ID, newOrder []column.CellID) (*column.ColumnWithCells, error) {
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := col.ChangeOrder(newOrder); err != nil {
		return nil, err
	}
	if _, err := s.repo.Save(ctx, col); err != nil {
		return nil, fmt.Errorf("save column: %w", err)
	}
	publish(s.eventBus, domain.NewEvent(domain.EventColumnReordered, id, map[string]interface{}{
		"cells": domain.Strings(newOrder),
	}))
	return s.withCells(ctx, col)
}

// DeleteColumn removes the column from every table holding it, then deletes
// it with its cells. It fails with ErrColumnInUse when the column is the last
// one of some table.
func (s *ColumnService) DeleteColumn(ctx context.Context, id column.ID) error {
	col, err := s.repo.Find(ctx, id)
	if err != nil {
		return err
	}
	tableEvents, err := s.links.detach(ctx, []column.ID{id})
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, col); err != nil {
		return fmt.Errorf("delete column: %w", err)
	}

	logger.InfoCF("column", "Column deleted", map[string]interface{}{"id": string(id)})
	publish(s.eventBus, tableEvents...)
	publish(s.eventBus, domain.NewEvent(domain.EventColumnDeleted, id, nil))
	return nil
}
