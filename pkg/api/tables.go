// Table routes:
//   GET    /api/tables                          list tables with resolved columns
//   POST   /api/tables                          create a table from column ids
//   GET    /api/tables/{id}                     table with resolved columns
//   DELETE /api/tables/{id}                     delete (columns are untouched)
//   PUT    /api/tables/{id}/name                rename
//   POST   /api/tables/{id}/columns/move        move a column in front of or behind another
//   POST   /api/tables/{id}/columns/insert      insert a new column in front of or behind another
//   DELETE /api/tables/{id}/columns/{columnID}  drop a column from the table
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
)

const (
	positionFront  = "front"
	positionBehind = "behind"
)

type createTableRequest struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

type moveTableColumnRequest struct {
	Target      string `json:"target"`
	Destination string `json:"destination"`
	Position    string `json:"position"`
}

type insertTableColumnRequest struct {
	Column      string `json:"column"`
	Destination string `json:"destination"`
	Position    string `json:"position"`
}

type tableChange func(ctx context.Context, id table.ID, a, b column.ID) (*table.Table, error)

func tableID(r *http.Request) table.ID { return table.ID(mux.Vars(r)["id"]) }

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.container.TableService.ListTables(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	out := make([]tableJSON, len(tables))
	for i, t := range tables {
		out[i] = toTableJSON(t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": out})
}

func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var req createTableRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	ids := make([]column.ID, len(req.Columns))
	for i, id := range req.Columns {
		ids[i] = column.ID(id)
	}
	t, err := s.container.TableService.CreateTable(r.Context(), req.Name, ids)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTableJSON(t))
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.container.TableService.GetTable(r.Context(), tableID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableJSON(t))
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if err := s.container.TableService.DeleteTable(r.Context(), tableID(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameTable(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	t, err := s.container.TableService.RenameTable(r.Context(), tableID(r), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableRefJSON(t))
}

// pickChange selects the front or behind variant of a table operation.
func pickChange(position string, front, behind tableChange) (tableChange, error) {
	switch position {
	case positionFront:
		return front, nil
	case positionBehind:
		return behind, nil
	default:
		return nil, badRequest(`position must be "front" or "behind"`)
	}
}

func (s *Server) handleMoveTableColumn(w http.ResponseWriter, r *http.Request) {
	var req moveTableColumnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	svc := s.container.TableService
	change, err := pickChange(req.Position, svc.MoveColumnInFrontOf, svc.MoveColumnBehind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := change(r.Context(), tableID(r), column.ID(req.Target), column.ID(req.Destination))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableRefJSON(t))
}

func (s *Server) handleInsertTableColumn(w http.ResponseWriter, r *http.Request) {
	var req insertTableColumnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	svc := s.container.TableService
	change, err := pickChange(req.Position, svc.InsertColumnInFrontOf, svc.InsertColumnBehind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	t, err := change(r.Context(), tableID(r), column.ID(req.Destination), column.ID(req.Column))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTableRefJSON(t))
}

func (s *Server) handleRemoveTableColumn(w http.ResponseWriter, r *http.Request) {
	colID := column.ID(mux.Vars(r)["columnID"])
	t, err := s.container.TableService.RemoveColumn(r.Context(), tableID(r), colID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTableRefJSON(t))
}
