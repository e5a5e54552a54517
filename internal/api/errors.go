package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/go-cardsheet/internal/actor"
	"github.com/ryanbastic/go-cardsheet/internal/cluster"
	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
	"github.com/ryanbastic/go-cardsheet/internal/trigger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

var (
	conflictErrors = []error{
		dataset.ErrSchemaMismatch,
		dataset.ErrDuplicateRowID,
		sheet.ErrPositionOccupied,
		sheet.ErrDuplicateCard,
		sheet.ErrDuplicateName,
		actor.ErrDuplicateKind,
		trigger.ErrDuplicatePlugin,
	}
	notFoundErrors = []error{
		sheet.ErrSheetNotFound,
		sheet.ErrLayerNotFound,
		sheet.ErrCardNotFound,
		dataset.ErrMissingSet,
		dataset.ErrMissingEntry,
		actor.ErrUnknownKind,
		trigger.ErrPluginNotFound,
	}
	badRequestErrors = []error{
		dataset.ErrInvalidValue,
		dataset.ErrInvalidSchema,
		dataset.ErrReadOnly,
		dataset.ErrUnknownColumn,
		sheet.ErrInvalidName,
		sheet.ErrOutOfRange,
		trigger.ErrInvalidPlugin,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// toHTTPError maps domain errors onto huma status errors. Anything
// unrecognised is logged and reported as a 500 without detail.
func toHTTPError(logger *slog.Logger, op string, err error) error {
	switch {
	case isAny(err, conflictErrors):
		return huma.Error409Conflict(err.Error())
	case isAny(err, notFoundErrors):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, cluster.ErrInvalidPosition):
		return huma.Error422UnprocessableEntity(err.Error())
	case isAny(err, badRequestErrors):
		return huma.Error400BadRequest(err.Error())
	}
	logger.Error(op+" failed", "error", err)
	return huma.Error500InternalServerError(op + " failed")
}
