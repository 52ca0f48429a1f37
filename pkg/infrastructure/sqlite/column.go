package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
)

// ColumnRepository stores columns, cells and directories in SQLite.
type ColumnRepository struct {
	db *DB
}

// NewColumnRepository binds a repository to an opened database.
func NewColumnRepository(db *DB) *ColumnRepository {
	return &ColumnRepository{db: db}
}

// ---------------------------------------------------------------------------
// Columns
// ---------------------------------------------------------------------------

func (r *ColumnRepository) Save(ctx context.Context, col *column.Column) (column.ID, error) {
	id, ok := col.ID().Value()
	if !ok {
		id = column.ID(newID())
	}

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO columns (id, name, directory_id) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, directory_id = excluded.directory_id`,
			string(id), col.Name().String(), string(col.DirectoryID())); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM column_cells WHERE column_id = ?`, string(id)); err != nil {
			return err
		}
		for pos, cellID := range col.Cells() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO column_cells (column_id, position, cell_id) VALUES (?, ?, ?)`,
				string(id), pos, string(cellID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", domain.Unexpected("save column", err)
	}
	return id, nil
}

func (r *ColumnRepository) Find(ctx context.Context, id column.ID) (*column.Column, error) {
	cols, err := r.loadColumns(ctx, `SELECT id, name, directory_id FROM columns WHERE id = ?`, string(id))
	if err != nil {
		return nil, domain.Unexpected("find column", err)
	}
	if len(cols) == 0 {
		return nil, column.ColumnNotFound(id)
	}
	return cols[0], nil
}

// FindByIDs returns the columns in request order, or none of them.
func (r *ColumnRepository) FindByIDs(ctx context.Context, ids []column.ID) ([]*column.Column, error) {
	if len(ids) == 0 {
		return []*column.Column{}, nil
	}
	cols, err := r.loadColumns(ctx,
		`SELECT id, name, directory_id FROM columns WHERE id IN (`+placeholders(len(ids))+`)`,
		anySlice(ids)...)
	if err != nil {
		return nil, domain.Unexpected("find columns", err)
	}
	byID := make(map[column.ID]*column.Column, len(cols))
	for _, c := range cols {
		byID[c.ID().MustValue()] = c
	}

	out := make([]*column.Column, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, &column.NotAllColumnsFoundError{IDs: append([]column.ID(nil), ids...)}
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

func (r *ColumnRepository) FindByDirectoryID(ctx context.Context, directoryID column.DirectoryID) ([]*column.Column, error) {
	cols, err := r.loadColumns(ctx,
		`SELECT id, name, directory_id FROM columns WHERE directory_id = ? ORDER BY seq`, string(directoryID))
	if err != nil {
		return nil, domain.Unexpected("find columns by directory", err)
	}
	return cols, nil
}

func (r *ColumnRepository) FindAll(ctx context.Context) ([]*column.Column, error) {
	cols, err := r.loadColumns(ctx, `SELECT id, name, directory_id FROM columns ORDER BY seq`)
	if err != nil {
		return nil, domain.Unexpected("find all columns", err)
	}
	return cols, nil
}

// Delete removes the column and every cell it owns.
func (r *ColumnRepository) Delete(ctx context.Context, col *column.Column) error {
	id, ok := col.ID().Value()
	if !ok {
		return nil
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := deleteCellsByID(ctx, tx, col.Cells()); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cells WHERE id IN (SELECT cell_id FROM column_cells WHERE column_id = ?)`,
			string(id)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM columns WHERE id = ?`, string(id))
		return err
	})
	return domain.Unexpected("delete column", err)
}

type columnRow struct {
	id, name, directoryID string
}

// loadColumns runs a query selecting (id, name, directory_id) and attaches
// each column's ordered cell ids.
func (r *ColumnRepository) loadColumns(ctx context.Context, query string, args ...any) ([]*column.Column, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var found []columnRow
	for rows.Next() {
		var row columnRow
		if err := rows.Scan(&row.id, &row.name, &row.directoryID); err != nil {
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

	out := make([]*column.Column, 0, len(found))
	for _, row := range found {
		cellIDs, err := queryStrings(ctx, r.db.db,
			`SELECT cell_id FROM column_cells WHERE column_id = ? ORDER BY position`, row.id)
		if err != nil {
			return nil, err
		}
		name, err := column.NewName(row.name)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", row.id, err)
		}
		cells := make([]column.CellID, len(cellIDs))
		for i, c := range cellIDs {
			cells[i] = column.CellID(c)
		}
		out = append(out, column.NewColumn(
			domain.Assigned(column.ID(row.id)), name, column.DirectoryID(row.directoryID), cells))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Cells
// ---------------------------------------------------------------------------

func (r *ColumnRepository) SaveCell(ctx context.Context, cell *column.Cell) (column.CellID, error) {
	id, ok := cell.ID().Value()
	if !ok {
		id = column.CellID(newID())
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cells (id, value) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET value = excluded.value`,
			string(id), nullFloat(cell.Value()))
		return err
	})
	if err != nil {
		return "", domain.Unexpected("save cell", err)
	}
	return id, nil
}

func (r *ColumnRepository) FindCell(ctx context.Context, id column.CellID) (*column.Cell, error) {
	cells, err := loadCells(ctx, r.db.db, `SELECT id, value FROM cells WHERE id = ?`, string(id))
	if err != nil {
		return nil, domain.Unexpected("find cell", err)
	}
	if len(cells) == 0 {
		return nil, column.CellNotFound(id)
	}
	return cells[0], nil
}

// FindCellsByColumnID returns the stored cells of the column in column order.
func (r *ColumnRepository) FindCellsByColumnID(ctx context.Context, columnID column.ID) ([]*column.Cell, error) {
	var exists int
	err := r.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM columns WHERE id = ?`, string(columnID)).Scan(&exists)
	if err != nil {
		return nil, domain.Unexpected("find cells by column", err)
	}
	if exists == 0 {
		return nil, column.ColumnNotFound(columnID)
	}
	cells, err := loadCells(ctx, r.db.db, `
		SELECT c.id, c.value FROM column_cells cc
		JOIN cells c ON c.id = cc.cell_id
		WHERE cc.column_id = ?
		ORDER BY cc.position`, string(columnID))
	if err != nil {
		return nil, domain.Unexpected("find cells by column", err)
	}
	return cells, nil
}

func (r *ColumnRepository) FindCellsByIDs(ctx context.Context, ids []column.CellID) ([]*column.Cell, error) {
	if len(ids) == 0 {
		return []*column.Cell{}, nil
	}
	cells, err := loadCells(ctx, r.db.db,
		`SELECT id, value FROM cells WHERE id IN (`+placeholders(len(ids))+`)`, anySlice(ids)...)
	if err != nil {
		return nil, domain.Unexpected("find cells", err)
	}
	byID := make(map[column.CellID]*column.Cell, len(cells))
	for _, c := range cells {
		byID[c.ID().MustValue()] = c
	}

	out := make([]*column.Cell, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, &column.NotAllCellsFoundError{IDs: append([]column.CellID(nil), ids...)}
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

func (r *ColumnRepository) DeleteCell(ctx context.Context, cell *column.Cell) error {
	id, ok := cell.ID().Value()
	if !ok {
		return nil
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		return deleteCellsByID(ctx, tx, []column.CellID{id})
	})
	return domain.Unexpected("delete cell", err)
}

func deleteCellsByID(ctx context.Context, q queryer, ids []column.CellID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `DELETE FROM cells WHERE id IN (`+placeholders(len(ids))+`)`, anySlice(ids)...)
	return err
}

func loadCells(ctx context.Context, q queryer, query string, args ...any) ([]*column.Cell, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*column.Cell
	for rows.Next() {
		var (
			id    string
			value sql.NullFloat64
		)
		if err := rows.Scan(&id, &value); err != nil {
			return nil, err
		}
		v := column.EmptyCellValue()
		if value.Valid {
			v = column.NewCellValue(value.Float64)
		}
		out = append(out, column.NewCell(domain.Assigned(column.CellID(id)), v))
	}
	return out, rows.Err()
}

func nullFloat(v column.CellValue) sql.NullFloat64 {
	f, ok := v.Float()
	return sql.NullFloat64{Float64: f, Valid: ok}
}

// ---------------------------------------------------------------------------
// Directories
// ---------------------------------------------------------------------------

func (r *ColumnRepository) SaveDirectory(ctx context.Context, dir *column.Directory) (column.DirectoryID, error) {
	id, ok := dir.ID().Value()
	if !ok {
		id = column.DirectoryID(newID())
	}
	var parent sql.NullString
	if p, ok := dir.ParentID(); ok {
		parent = sql.NullString{String: string(p), Valid: true}
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO directories (id, name, parent_id) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name, parent_id = excluded.parent_id`,
			string(id), dir.Name().String(), parent)
		return err
	})
	if err != nil {
		return "", domain.Unexpected("save directory", err)
	}
	return id, nil
}

func (r *ColumnRepository) FindDirectory(ctx context.Context, id column.DirectoryID) (*column.Directory, error) {
	dirs, err := r.loadDirectories(ctx, `SELECT id, name, parent_id FROM directories WHERE id = ?`, string(id))
	if err != nil {
		return nil, domain.Unexpected("find directory", err)
	}
	if len(dirs) == 0 {
		return nil, column.DirectoryNotFound(id)
	}
	return dirs[0], nil
}

func (r *ColumnRepository) FindChildrenDirectories(ctx context.Context, parentID column.DirectoryID) ([]*column.Directory, error) {
	dirs, err := r.loadDirectories(ctx,
		`SELECT id, name, parent_id FROM directories WHERE parent_id = ? ORDER BY seq`, string(parentID))
	if err != nil {
		return nil, domain.Unexpected("find children directories", err)
	}
	return dirs, nil
}

func (r *ColumnRepository) FindRootDirectories(ctx context.Context) ([]*column.Directory, error) {
	dirs, err := r.loadDirectories(ctx,
		`SELECT id, name, parent_id FROM directories WHERE parent_id IS NULL ORDER BY seq`)
	if err != nil {
		return nil, domain.Unexpected("find root directories", err)
	}
	return dirs, nil
}

// subtreeCTE binds "subtree" to the directory given as the first argument
// and all of its descendants.
const subtreeCTE = `
WITH RECURSIVE subtree(id) AS (
	SELECT ?
	UNION
	SELECT d.id FROM directories d JOIN subtree s ON d.parent_id = s.id
)
`

// DeleteDirectory removes the subtree rooted at dir in one transaction.
func (r *ColumnRepository) DeleteDirectory(ctx context.Context, dir *column.Directory) error {
	id, ok := dir.ID().Value()
	if !ok {
		return nil
	}
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		steps := []string{
			`DELETE FROM cells WHERE id IN (
				SELECT cc.cell_id FROM column_cells cc
				JOIN columns c ON c.id = cc.column_id
				WHERE c.directory_id IN (SELECT id FROM subtree))`,
			`DELETE FROM columns WHERE directory_id IN (SELECT id FROM subtree)`,
			`DELETE FROM directories WHERE id IN (SELECT id FROM subtree)`,
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, subtreeCTE+step, string(id)); err != nil {
				return err
			}
		}
		return nil
	})
	return domain.Unexpected("delete directory", err)
}

func (r *ColumnRepository) loadDirectories(ctx context.Context, query string, args ...any) ([]*column.Directory, error) {
	rows, err := r.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*column.Directory
	for rows.Next() {
		var (
			id, rawName string
			parent      sql.NullString
		)
		if err := rows.Scan(&id, &rawName, &parent); err != nil {
			return nil, err
		}
		name, err := column.NewDirectoryName(rawName)
		if err != nil {
			return nil, fmt.Errorf("directory %s: %w", id, err)
		}
		var parentID *column.DirectoryID
		if parent.Valid {
			p := column.DirectoryID(parent.String)
			parentID = &p
		}
		out = append(out, column.NewDirectory(domain.Assigned(column.DirectoryID(id)), name, parentID))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []*column.Directory{}
	}
	return out, nil
}

// Compile-time verification
var _ column.Repository = (*ColumnRepository)(nil)
