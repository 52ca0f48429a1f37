// Directory routes:
//   GET    /api/directories              list root directories
//   POST   /api/directories              create a directory
//   GET    /api/directories/{id}         directory contents
//   DELETE /api/directories/{id}         delete a directory and its subtree
//   PUT    /api/directories/{id}/name    rename
//   PUT    /api/directories/{id}/parent  move under another parent (null for root)
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/plot451/plot/pkg/domain/column"
)

type createDirectoryRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type moveDirectoryRequest struct {
	ParentID *string `json:"parent_id"`
}

func directoryIDPtr(raw *string) *column.DirectoryID {
	if raw == nil {
		return nil
	}
	id := column.DirectoryID(*raw)
	return &id
}

func (s *Server) handleListRootDirectories(w http.ResponseWriter, r *http.Request) {
	dirs, err := s.container.DirectoryService.ListRootDirectories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"directories": toDirectoriesJSON(dirs),
	})
}

func (s *Server) handleCreateDirectory(w http.ResponseWriter, r *http.Request) {
	var req createDirectoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	dir, err := s.container.DirectoryService.CreateDirectory(r.Context(), req.Name, directoryIDPtr(req.ParentID))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDirectoryJSON(dir))
}

func (s *Server) handleDirectoryContents(w http.ResponseWriter, r *http.Request) {
	id := column.DirectoryID(mux.Vars(r)["id"])
	contents, err := s.container.DirectoryService.ListDirectoryContents(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryContentsJSON(contents))
}

func (s *Server) handleDeleteDirectory(w http.ResponseWriter, r *http.Request) {
	id := column.DirectoryID(mux.Vars(r)["id"])
	if err := s.container.DirectoryService.DeleteDirectory(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameDirectory(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id := column.DirectoryID(mux.Vars(r)["id"])
	dir, err := s.container.DirectoryService.RenameDirectory(r.Context(), id, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryJSON(dir))
}

func (s *Server) handleMoveDirectory(w http.ResponseWriter, r *http.Request) {
	var req moveDirectoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	id := column.DirectoryID(mux.Vars(r)["id"])
	dir, err := s.container.DirectoryService.MoveDirectory(r.Context(), id, directoryIDPtr(req.ParentID))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDirectoryJSON(dir))
}
