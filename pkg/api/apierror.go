// Package api writes the JSON bodies of the PACT HTTP surface: data
// envelopes and the {code, message} error shape.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Mindburn-Labs/pact-conformance/pkg/pact"
)

// ErrorResponse is the error body of footprint and auth endpoints.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Error mirrors Message on endpoints that historically returned {error}.
	Error string `json:"error,omitempty"`
}

// Data is the {data: ...} envelope of successful footprint responses.
type Data[T any] struct {
	Data T `json:"data"`
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a {code, message} error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, pact.CodeBadRequest, message)
}

// WriteUnauthorized writes a 401 AccessDenied response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Access denied"
	}
	WriteError(w, http.StatusUnauthorized, pact.CodeAccessDenied, message)
}

// WriteTokenExpired writes a 401 TokenExpired response.
func WriteTokenExpired(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, pact.CodeTokenExpired, "The specified access token has expired")
}

// WriteNotFound writes a 404 error response with the given code.
func WriteNotFound(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusNotFound, code, message)
}

// WriteEndpointNotFound answers requests for unknown routes.
func WriteEndpointNotFound(w http.ResponseWriter) {
	WriteNotFound(w, pact.CodeNotFound, "Endpoint not found.")
}

// WriteMethodNotAllowed writes a 405 error response.
func WriteMethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, pact.CodeMethodNotAllowed, "The HTTP method is not supported for this endpoint")
}

// WriteTooManyRequests writes a 429 error response with Retry-After header.
func WriteTooManyRequests(w http.ResponseWriter, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	WriteError(w, http.StatusTooManyRequests, pact.CodeTooManyRequests, "Rate limit exceeded. Retry after the specified interval.")
}

// WriteInternal writes a 500 error response.
// err is logged but never returned to the client.
func WriteInternal(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal server error",
		"error", err, "path", r.URL.Path, "request_id", w.Header().Get("X-Request-ID"))
	WriteError(w, http.StatusInternalServerError, pact.CodeInternalError, "An unexpected error occurred. Please try again later.")
}

// WriteLegacyError writes a {code, message} response that also carries the
// message as error, for clients of the token endpoint.
func WriteLegacyError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Code: code, Message: message, Error: message})
}
