// Package app provides application services that orchestrate domain operations.
// These services sit between the API/CLI layer and the domain layer,
// coordinating use cases across the column and table bounded contexts.
package app

import (
	"context"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

// ---------------------------------------------------------------------------
// Application container: dependency injection root
// ---------------------------------------------------------------------------

// Container holds all application services and their dependencies.
type Container struct {
	EventBus domain.EventBus

	Columns column.Repository
	Tables  table.Repository

	DirectoryService *DirectoryService
	ColumnService    *ColumnService
	TableService     *TableService
}

// NewContainer wires the services over the given repositories.
func NewContainer(eventBus domain.EventBus, columns column.Repository, tables table.Repository) *Container {
	links := &tableLinks{columns: columns, tables: tables}
	return &Container{
		EventBus:         eventBus,
		Columns:          columns,
		Tables:           tables,
		DirectoryService: NewDirectoryService(columns, links, eventBus),
		ColumnService:    NewColumnService(columns, links, eventBus),
		TableService:     NewTableService(tables, columns, eventBus),
	}
}

// publish tolerates a nil bus so services can run without event fan-out.
func publish(bus domain.EventBus, events ...domain.Event) {
	if bus == nil {
		return
	}
	for _, event := range events {
		bus.Publish(event)
	}
}

// ---------------------------------------------------------------------------
// Cross-context links: keeping tables consistent with deleted columns
// ---------------------------------------------------------------------------

type tableLinks struct {
	columns column.Repository
	tables  table.Repository
}

// detach removes every reference to ids from the tables holding them. It
// checks every affected table before saving any, and fails with
// *ColumnInUseError when a table would be left without columns.
func (l *tableLinks) detach(ctx context.Context, ids []column.ID) ([]domain.Event, error) {
	changed := make(map[table.ID]*table.Table)
	var order []table.ID

	for _, colID := range ids {
		parents, err := l.tables.FindParentTablesByColumnID(ctx, colID)
		if err != nil {
			return nil, err
		}
		for _, parent := range parents {
			tid := parent.ID().MustValue()
			t, seen := changed[tid]
			if !seen {
				t = parent
				changed[tid] = t
				order = append(order, tid)
			}
			if err := t.RemoveColumn(colID); err != nil {
				return nil, &ColumnInUseError{ColumnID: string(colID), TableID: string(tid)}
			}
		}
	}

	events := make([]domain.Event, 0, len(order))
	for _, tid := range order {
		t := changed[tid]
		if _, err := l.tables.Save(ctx, t); err != nil {
			return nil, err
		}
		events = append(events, domain.NewEvent(domain.EventTableColumnsChanged, tid, map[string]interface{}{
			"columns": domain.Strings(t.Columns()),
		}))
	}
	return events, nil
}

// subtreeColumns lists the ids of every column inside the directory subtree.
func (l *tableLinks) subtreeColumns(ctx context.Context, root column.DirectoryID) ([]column.ID, error) {
	var ids []column.ID
	queue := []column.DirectoryID{root}
	seen := map[column.DirectoryID]bool{root: true}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		cols, err := l.columns.FindByDirectoryID(ctx, dir)
		if err != nil {
			return nil, err
		}
		for _, c := range cols {
			ids = append(ids, c.ID().MustValue())
		}
		children, err := l.columns.FindChildrenDirectories(ctx, dir)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			cid := child.ID().MustValue()
			if !seen[cid] {
				seen[cid] = true
				queue = append(queue, cid)
			}
		}
	}
	return ids, nil
}
