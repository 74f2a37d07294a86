// Package httputil provides shared JSON response helpers for all HTTP
// handlers, including the mapping from the error taxonomy to status codes.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/eventra/campaign-engine/internal/pkg/errs"
	"github.com/eventra/campaign-engine/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response with the given data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 response with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes a JSON error response with a fixed status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// FromError maps a domain error to the right HTTP status. Validation
// errors become 400, missing records 404, ownership failures 403;
// everything else is a 500 with the real error kept server-side.
func FromError(w http.ResponseWriter, err error) {
	switch {
	case errs.IsValidation(err):
		Error(w, http.StatusBadRequest, err.Error())
	case errs.IsNotFound(err):
		Error(w, http.StatusNotFound, err.Error())
	case errs.IsPermission(err):
		Error(w, http.StatusForbidden, err.Error())
	default:
		logger.Error("internal error", "error", err)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
