package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/trip-planner/internal/domain"
)

// ErrorResponse is the JSON envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorMapping ties a domain sentinel to its HTTP status and error code.
// exposeDetail controls whether the wrapped message reaches the client.
type errorMapping struct {
	sentinel     error
	status       int
	code         string
	exposeDetail bool
}

var errorMappings = []errorMapping{
	{domain.ErrUserNotFound, http.StatusNotFound, "user_not_found", true},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", true},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error", true},
	{domain.ErrAuthenticationRequired, http.StatusUnauthorized, "unauthorized", true},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden", true},
	{domain.ErrConflict, http.StatusConflict, "conflict", true},
	{domain.ErrUpstream, http.StatusBadGateway, "upstream_error", false},
}

// writeError translates a service error into the JSON error envelope.
// Errors that match no sentinel are logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		msg := m.sentinel.Error()
		if m.exposeDetail {
			msg = unwrapMessage(err, m.sentinel)
		} else {
			s.logger.WarnContext(r.Context(), "upstream failure", "path", r.URL.Path, "error", err)
		}
		writeJSON(w, m.status, ErrorResponse{Error: ErrorDetail{Code: m.code, Message: msg}})
		return
	}

	s.logger.ErrorContext(r.Context(), "unhandled error", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "internal_error", Message: "internal server error"}})
}

// requestError reports a request rejected before reaching the service layer
// (e.g. missing or malformed body, bad path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: message}})
}

// unwrapMessage extracts the human-readable part after the sentinel.
// e.g. "service.TripService.Create: validation error: title is required" → "title is required"
func unwrapMessage(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if _, after, ok := strings.Cut(msg, prefix); ok && after != "" {
		return after
	}
	return sentinel.Error()
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

// decodeJSON reads a JSON request body into dst. On failure it writes the
// error response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		requestError(w, "request body is required")
		return false
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		requestError(w, "request body is required")
		return false
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{Code: "payload_too_large", Message: "request body is too large"}})
		return false
	}
	requestError(w, "malformed request body: "+err.Error())
	return false
}
