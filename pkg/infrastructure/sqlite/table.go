package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

// TableRepository stores tables and their ordered column references in SQLite.
type TableRepository struct {
	db *DB
}

// NewTableRepository binds a repository to an opened database.
func NewTableRepository(db *DB) *TableRepository {
	return &TableRepository{db: db}
}

func (r *TableRepository) Save(ctx context.Context, t *table.Table) (table.ID, error) {
	id, ok := t.ID().Value()
	if !ok {
		id = table.ID(newID())
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tables (id, name) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			string(id), t.Name().String()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM table_columns WHERE table_id = ?`, string(id)); err != nil {
			return err
		}
		for pos, colID := range t.Columns() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO table_columns (table_id, position, column_id) VALUES (?, ?, ?)`,
				string(id), pos, string(colID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", domain.Unexpected("save table", err)
	}
	return id, nil
}

func (r *TableRepository) Find(ctx context.Context, id table.ID) (*table.Table, error) {
	tables, err := r.load(ctx, `SELECT id, name FROM tables WHERE id = ?`, string(id))
	if err != nil {
		return nil, domain.Unexpected("find table", err)
	}
	if len(tables) == 0 {
		return nil, table.NotFound(id)
	}
	return tables[0], nil
}

func (r *TableRepository) FindParentTablesByColumnID(ctx context.Context, columnID column.ID) ([]*table.Table, error) {
	tables, err := r.load(ctx, `
		SELECT id, name FROM tables
		WHERE id IN (SELECT table_id FROM table_columns WHERE column_id = ?)
		ORDER BY seq`, string(columnID))
	if err != nil {
		return nil, domain.Unexpected("find parent tables", err)
	}
	return tables, nil
}

func (r *TableRepository) FindAll(ctx context.Context) ([]*table.Table, error) {
	tables, err := r.load(ctx, `SELECT id, name FROM tables ORDER BY seq`)
	if err != nil {
		return nil, domain.Unexpected("find all tables", err)
	}
	return tables, nil
}

func (r *TableRepository) Delete(ctx context.Context, t *table.Table) error {
	id, ok := t.ID().Value()
	if !ok {
		return nil
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, string(id))
		return err
	})
	return domain.Unexpected("delete table", err)
}

func (r *TableRepository) load(ctx context.Context, query string, args ...any) ([]*table.Table, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	type tableRow struct{ id, name string }
	var found []tableRow
	for rows.Next() {
		var row tableRow
		if err := rows.Scan(&row.id, &row.name); err != nil {
			rows.Close()
			return nil, err
		}
		found = append(found, row)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]*table.Table, 0, len(found))
	for _, row := range found {
		ids, err := queryStrings(ctx, r.db.db,
			`SELECT column_id FROM table_columns WHERE table_id = ? ORDER BY position`, row.id)
		if err != nil {
			return nil, err
		}
		name, err := table.NewName(row.name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", row.id, err)
		}
		columns := make([]column.ID, len(ids))
		for i, c := range ids {
			columns[i] = column.ID(c)
		}
		t, err := table.New(domain.Assigned(table.ID(row.id)), name, columns)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", row.id, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Compile-time verification
var _ table.Repository = (*TableRepository)(nil)
