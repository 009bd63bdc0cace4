package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tmtops/api/internal/records"
	"tmtops/api/internal/tasks"
)

type apiError struct {
	Error struct {
		Message string   `json:"message"`
		Code    string   `json:"code"`
		Fields  []string `json:"fields,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	var e apiError
	e.Error.Code = code
	e.Error.Message = message
	writeJSON(w, status, e)
}

func writeValidation(w http.ResponseWriter, fields []string) {
	var e apiError
	e.Error.Code = "VALIDATION_ERROR"
	e.Error.Message = "missing or invalid: " + strings.Join(fields, ", ")
	e.Error.Fields = fields
	writeJSON(w, http.StatusBadRequest, e)
}

// writeUpstream reports a failed sheet read or script write. The cause is
// logged, not echoed.
func writeUpstream(w http.ResponseWriter, r *http.Request, what string, err error) {
	slog.ErrorContext(r.Context(), what, "error", err, "path", r.URL.Path)
	writeAPIError(w, http.StatusBadGateway, "UPSTREAM", what)
}

func writeInternal(w http.ResponseWriter, r *http.Request, what string, err error) {
	slog.ErrorContext(r.Context(), what, "error", err, "path", r.URL.Path)
	writeAPIError(w, http.StatusInternalServerError, "INTERNAL", what)
}

// writeInvalid maps the validation errors of the domain packages to 400.
func writeInvalid(w http.ResponseWriter, err error) bool {
	var rv *records.ValidationError
	if errors.As(err, &rv) {
		writeValidation(w, rv.Fields)
		return true
	}
	var tv *tasks.ValidationError
	if errors.As(err, &tv) {
		writeValidation(w, tv.Missing)
		return true
	}
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json")
		return false
	}
	return true
}
