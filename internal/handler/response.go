// Package handler holds the HTTP handlers of the API.
//
// Handlers decode and validate requests, call one service method, and write
// the result. They never contain business rules. Every error leaves through
// writeError, which maps the apperror taxonomy to a status code and the
// {"error", "message"} body:
//
//	{"error": "not_found", "message": "sheet not found with id abc123"}
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/codeminder/internal/apperror"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable code, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending request field, when known
}

// MessageResponse is the body of endpoints that only report success.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data with the given status. Headers must be set before
// the body is written, so the order below matters.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone already; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrNotFollowing, http.StatusBadRequest, "not_following"},
	{apperror.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrNotLinked, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrUpstream, http.StatusInternalServerError, "upstream_error"},
	{apperror.ErrMalformedAIResponse, http.StatusInternalServerError, "malformed_ai_response"},
}

// writeError maps err to a status and writes the error body. Server-side
// failures are logged with their cause; clients only see the generic
// AppError message, never the underlying error text.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		for _, m := range errorMappings {
			if !errors.Is(err, m.target) {
				continue
			}
			if m.status >= http.StatusInternalServerError {
				logFailure(r, logger, err, appErr.Cause)
			}
			writeJSON(w, m.status, ErrorResponse{Error: m.code, Message: appErr.Message, Field: appErr.Field})
			return
		}
	}

	logFailure(r, logger, err, nil)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func logFailure(r *http.Request, logger *slog.Logger, err, cause error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	}
	if cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	logger.Error("request failed", attrs...)
}
