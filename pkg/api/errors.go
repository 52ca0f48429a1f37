package api

import (
	"errors"
	"net/http"

	"github.com/plot451/plot/pkg/app"
	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
	"github.com/plot451/plot/pkg/logger"
)

// badRequestError marks malformed input detected by the API layer itself.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }

var (
	notFoundErrors = []error{
		column.ErrDirectoryNotFound,
		column.ErrColumnNotFound,
		column.ErrCellNotFound,
		table.ErrTableNotFound,
	}
	conflictErrors = []error{
		app.ErrColumnInUse,
		table.ErrDuplicatedColumnName,
		column.ErrDirectoryCycle,
	}
	invalidErrors = []error{
		domain.ErrEmptyName,
		domain.ErrNameTooLong,
		table.ErrEmptyColumnList,
		table.ErrColumnNotInTable,
		column.ErrInvalidOrder,
		column.ErrCellNotInColumn,
	}
)

func matchesAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// statusOf maps a service error to an HTTP status.
func statusOf(err error) int {
	var (
		bad   *badRequestError
		parse *column.CellValueParseError
	)
	switch {
	case errors.As(err, &bad), errors.As(err, &parse):
		return http.StatusBadRequest
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound
	case matchesAny(err, conflictErrors):
		return http.StatusConflict
	case matchesAny(err, invalidErrors):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its mapped status. Internal errors are logged
// and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logger.ErrorCF("api", "Request failed", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		})
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
