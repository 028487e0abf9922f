package handler

// RESPONSE HELPERS:
// Every API response goes through writeJSON, every API failure through
// writeError, so the wire shapes live in one place:
//
//	success:           the resource itself, e.g. {"id": "...", "title": "...", ...}
//	field validation:  400 {"errors": [{"msg": "Title is required", "field": "title"}, ...]}
//	anything else:     4xx/5xx {"error": "snippet not found with id abc123"}
//
// Clients classify failures by which of the two error keys is present, so a
// handler never invents a third shape.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/codebin/internal/apperror"
)

// msgInternal is all a client learns about an unexpected failure.
const msgInternal = "An internal error occurred"

// ErrorResponse is the single-message error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldError is one entry of a validation error body.
type FieldError struct {
	Msg   string `json:"msg"`
	Field string `json:"field,omitempty"`
}

// ValidationResponse is the field validation error body.
type ValidationResponse struct {
	Errors []FieldError `json:"errors"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone already; logging is all that is left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to a status code and one of the two error bodies.
//
// errors.Is walks the whole chain, so a service error wrapped with
// fmt.Errorf("...: %w", err) still maps correctly. Unknown errors become a
// bare 500: raw messages may carry SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		writeJSON(w, http.StatusBadRequest, ValidationResponse{Errors: fieldErrors(err)})
		return
	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: messageOf(err)})
		return
	case errors.Is(err, apperror.ErrRateLimited):
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: messageOf(err)})
		return
	case errors.Is(err, apperror.ErrConflict):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: messageOf(err)})
		return
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
}

// fieldErrors flattens either a *ValidationErrors or a single field *AppError.
func fieldErrors(err error) []FieldError {
	var many *apperror.ValidationErrors
	if errors.As(err, &many) && !many.Empty() {
		out := make([]FieldError, 0, len(many.Fields))
		for _, f := range many.Fields {
			out = append(out, FieldError{Msg: f.Message, Field: f.Field})
		}
		return out
	}

	var one *apperror.AppError
	if errors.As(err, &one) {
		return []FieldError{{Msg: one.Message, Field: one.Field}}
	}
	return []FieldError{{Msg: err.Error()}}
}

func messageOf(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// RateLimited answers a request the rate limiter turned away.
func RateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.RateLimited())
}
