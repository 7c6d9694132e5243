// Package respond standardises how JSON responses and errors are written.
//
// It sits below both internal/handler and internal/auth so that the session
// guard and the route handlers produce the same error envelope:
//
//	{"error": "...", "details": ..., "field": "..."}
//
// Only `error` is always present. `details` carries validation messages
// (a list) or the underlying error text on a 500; `field` names the field
// behind a duplicate or a single validation failure.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/dating-profiles/internal/apperror"
)

// Envelope is the error body returned by every endpoint.
type Envelope struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
}

// JSON sends data as a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written; once Encode
// writes, later header changes are silently ignored.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// Error maps a domain error to a status code and writes the envelope.
//
// ERROR MAPPING:
//
//	apperror.ErrValidation   → 400 {error:"Validation Error", details:[...], field?}
//	apperror.ErrConflict     → 400 {error:"Duplicate field value entered", field}
//	apperror.ErrUnauthorized → 401 {error:<message>}
//	apperror.ErrNotFound     → 404 {error:"User not found"}
//	anything else            → 500 {error:fallback, details:<error text>}
//
// fallback names the operation that failed ("Error updating profile") and is
// only used for the 500 case.
func Error(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		Internal(w, r, err, fallback)
		return
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		JSON(w, http.StatusBadRequest, Envelope{
			Error:   apperror.ErrValidation.Error(),
			Details: appErr.Details,
			Field:   appErr.Field,
		})
	case errors.Is(err, apperror.ErrConflict):
		JSON(w, http.StatusBadRequest, Envelope{
			Error: appErr.Message,
			Field: appErr.Field,
		})
	case errors.Is(err, apperror.ErrUnauthorized):
		JSON(w, http.StatusUnauthorized, Envelope{Error: appErr.Message})
	case errors.Is(err, apperror.ErrNotFound):
		// Users are the only resource; the id stays in the logs, not the body.
		JSON(w, http.StatusNotFound, Envelope{Error: "User not found"})
	default:
		Internal(w, r, err, fallback)
	}
}

// Internal writes a 500 with the operation message and the error text,
// and logs the failure with the request id.
func Internal(w http.ResponseWriter, r *http.Request, err error, message string) {
	slog.ErrorContext(r.Context(), message,
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("error", err.Error()),
	)

	JSON(w, http.StatusInternalServerError, Envelope{
		Error:   message,
		Details: err.Error(),
	})
}
