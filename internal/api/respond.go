package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/serroba/design-studio/internal/acl"
	"github.com/serroba/design-studio/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("failed to encode response", "error", err)
	}
}

// fail maps err to a status code and writes it. Unexpected errors are
// logged and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, message := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, code, errorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, acl.ErrAccessDenied):
		return http.StatusForbidden, "access denied"
	case errors.Is(err, storage.ErrDesignNotFound):
		return http.StatusNotFound, "design not found"
	case errors.Is(err, acl.ErrPermissionNotFound):
		return http.StatusNotFound, "permission not found"
	case errors.Is(err, storage.ErrDesignExists):
		return http.StatusConflict, "design already exists"
	case errors.Is(err, errBadRequest), errors.Is(err, acl.ErrUnknownRole):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
