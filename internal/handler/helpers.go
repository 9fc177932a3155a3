package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"droply/internal/domain"
	"droply/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		invalidParent *domain.InvalidParentError
		cycle         *domain.CycleError
		dangling      *domain.DanglingParentError
		storageErr    *domain.StorageIntegrationError
		httpErr       domain.HTTPError
	)

	switch {
	case errors.As(err, &invalidParent):
		httputil.RespondErrorWithExtras(w, invalidParent.StatusCode(), invalidParent.Error(), map[string]any{
			"parent_id": invalidParent.ParentID,
			"problem":   invalidParent.Problem,
		})
	case errors.As(err, &cycle):
		httputil.RespondErrorWithExtras(w, cycle.StatusCode(), cycle.Error(), map[string]any{
			"entry_id":      cycle.EntryID,
			"new_parent_id": cycle.NewParentID,
		})
	case errors.As(err, &dangling):
		httputil.RespondErrorWithExtras(w, dangling.StatusCode(), dangling.Error(), map[string]any{
			"entry_id":  dangling.EntryID,
			"parent_id": dangling.ParentID,
		})
	case errors.As(err, &storageErr):
		// The upstream message may carry bucket details; keep it in the logs
		slog.Error("storage integration failed", "op", storageErr.Op, "error", storageErr.Err)
		httputil.RespondError(w, storageErr.StatusCode(), "file storage is unavailable")
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCycle):
		httputil.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUser returns the authenticated user ID, writing a 401 when absent
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return userID, true
}

// pathID extracts the {id} path value, writing a 400 when it is empty
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Entry ID is required")
		return "", false
	}
	return id, true
}
