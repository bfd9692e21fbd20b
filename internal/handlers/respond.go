package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"netinventory/internal/db"
	"netinventory/internal/devices"
	"netinventory/internal/importer"
	"netinventory/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("json encode", "error", err)
	}
}

// writeError logs err and responds with {"error": message}.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	logger := logging.FromContext(r.Context(), s.logger)
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	s.writeJSON(w, r, status, errorResponse{Error: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, importer.ErrInvalidRequest),
		errors.Is(err, importer.ErrSchema),
		errors.Is(err, devices.ErrInvalidDevice),
		errors.Is(err, db.ErrDuplicateIP):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
