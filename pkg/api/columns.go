// Column routes:
//   POST   /api/columns                        create a column with initial cells
//   GET    /api/columns/{id}                   column with resolved cells
//   DELETE /api/columns/{id}                   delete column and cells
//   PUT    /api/columns/{id}/name              rename
//   PUT    /api/columns/{id}/directory         move to another directory
//   PUT    /api/columns/{id}/order             reorder cells
//   POST   /api/columns/{id}/cells             append a cell
//   PUT    /api/columns/{id}/cells/{cellID}    edit a cell value
//   DELETE /api/columns/{id}/cells/{cellID}    remove a cell
//
// Cell values are JSON numbers; null is an empty cell.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plot451/plot/pkg/domain/column"
)

type createColumnRequest struct {
	Name        string     `json:"name"`
	DirectoryID string     `json:"directory_id"`
	Values      []*float64 `json:"values"`
}

type moveColumnRequest struct {
	DirectoryID string `json:"directory_id"`
}

type reorderRequest struct {
	Cells []string `json:"cells"`
}

type cellValueRequest struct {
	Value *float64 `json:"value"`
}

func columnID(r *http.Request) column.ID { return column.ID(mux.Vars(r)["id"]) }

func (s *Server) handleCreateColumn(w http.ResponseWriter, r *http.Request) {
	var req createColumnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.DirectoryID == "" {
		respondError(w, r, badRequest("directory_id is required"))
		return
	}
	values := make([]column.CellValue, len(req.Values))
	for i, v := range req.Values {
		values[i] = column.CellValueFromPtr(v)
	}
	col, err := s.container.ColumnService.CreateColumn(r.Context(), req.Name, column.DirectoryID(req.DirectoryID), values)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toColumnJSON(col))
}

func (s *Server) handleGetColumn(w http.ResponseWriter, r *http.Request) {
	col, err := s.container.ColumnService.GetColumn(r.Context(), columnID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toColumnJSON(col))
}

func (s *Server) handleDeleteColumn(w http.ResponseWriter, r *http.Request) {
	if err := s.container.ColumnService.DeleteColumn(r.Context(), columnID(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameColumn(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	col, err := s.container.ColumnService.RenameColumn(r.Context(), columnID(r), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toColumnJSON(col))
}

func (s *Server) handleMoveColumn(w http.ResponseWriter, r *http.Request) {
	var req moveColumnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.DirectoryID == "" {
		respondError(w, r, badRequest("directory_id is required"))
		return
	}
	col, err := s.container.ColumnService.MoveColumn(r.Context(), columnID(r), column.DirectoryID(req.DirectoryID))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toColumnJSON(col))
}

func (s *Server) handleReorderCells(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	order := make([]column.CellID, len(req.Cells))
	for i, id := range req.Cells {
		order[i] = column.CellID(id)
	}
	col, err := s.container.ColumnService.ReorderCells(r.Context(), columnID(r), order)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toColumnJSON(col))
}

func (s *Server) handleAppendCell(w http.ResponseWriter, r *http.Request) {
	var req cellValueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cell, err := s.container.ColumnService.AppendCell(r.Context(), columnID(r), column.CellValueFromPtr(req.Value))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCellJSON(cell))
}

func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	var req cellValueRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	cellID := column.CellID(mux.Vars(r)["cellID"])
	cell, err := s.container.ColumnService.EditCell(r.Context(), columnID(r), cellID, column.CellValueFromPtr(req.Value))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCellJSON(cell))
}

func (s *Server) handleRemoveCell(w http.ResponseWriter, r *http.Request) {
	cellID := column.CellID(mux.Vars(r)["cellID"])
	if err := s.container.ColumnService.RemoveCell(r.Context(), columnID(r), cellID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
