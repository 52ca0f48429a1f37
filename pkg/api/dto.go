package api

import (
	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

type directoryJSON struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type directoryContentsJSON struct {
	Directory   directoryJSON   `json:"directory"`
	Columns     []columnRefJSON `json:"columns"`
	Directories []directoryJSON `json:"directories"`
}

// columnRefJSON describes a column without resolving its cells.
type columnRefJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DirectoryID string   `json:"directory_id"`
	CellIDs     []string `json:"cell_ids"`
}

type cellJSON struct {
	ID    string   `json:"id"`
	Value *float64 `json:"value"`
}

type columnJSON struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	DirectoryID string     `json:"directory_id"`
	Cells       []cellJSON `json:"cells"`
}

type tableRefJSON struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

type tableJSON struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Columns []columnJSON `json:"columns"`
}

func toDirectoryJSON(d *column.Directory) directoryJSON {
	out := directoryJSON{ID: d.ID().String(), Name: d.Name().String()}
	if p, ok := d.ParentID(); ok {
		s := string(p)
		out.ParentID = &s
	}
	return out
}

func toDirectoriesJSON(dirs []*column.Directory) []directoryJSON {
	out := make([]directoryJSON, len(dirs))
	for i, d := range dirs {
		out[i] = toDirectoryJSON(d)
	}
	return out
}

func toDirectoryContentsJSON(c *column.DirectoryContents) directoryContentsJSON {
	cols := c.Columns()
	refs := make([]columnRefJSON, len(cols))
	for i, col := range cols {
		refs[i] = columnRefJSON{
			ID:          col.ID().String(),
			Name:        col.Name().String(),
			DirectoryID: string(col.DirectoryID()),
			CellIDs:     domain.Strings(col.Cells()),
		}
	}
	return directoryContentsJSON{
		Directory:   toDirectoryJSON(c.Directory()),
		Columns:     refs,
		Directories: toDirectoriesJSON(c.Directories()),
	}
}

func toCellJSON(c *column.Cell) cellJSON {
	return cellJSON{ID: c.ID().String(), Value: c.Value().Ptr()}
}

func toColumnJSON(c *column.ColumnWithCells) columnJSON {
	cells := c.Cells()
	out := columnJSON{
		ID:          string(c.ID()),
		Name:        c.Name().String(),
		DirectoryID: string(c.DirectoryID()),
		Cells:       make([]cellJSON, len(cells)),
	}
	for i, cell := range cells {
		out.Cells[i] = toCellJSON(cell)
	}
	return out
}

func toTableRefJSON(t *table.Table) tableRefJSON {
	return tableRefJSON{ID: t.ID().String(), Name: t.Name().String(), Columns: domain.Strings(t.Columns())}
}

func toTableJSON(t *table.TableWithColumnsAndCells) tableJSON {
	cols := t.Columns()
	out := tableJSON{ID: string(t.ID()), Name: t.Name().String(), Columns: make([]columnJSON, len(cols))}
	for i, c := range cols {
		out.Columns[i] = toColumnJSON(c)
	}
	return out
}
