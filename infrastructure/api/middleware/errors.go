package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sourcelore/sourcelore/infrastructure/api/jsonapi"
	"github.com/sourcelore/sourcelore/internal/database"
)

// APIError is a generic HTTP-coded error with an optional cause.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates an APIError with the given HTTP status code and message.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the error message.
func (e *APIError) Message() string { return e.message }

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error { return e.cause }

// ErrAuthentication is the sentinel matched by AuthenticationError via errors.Is.
var ErrAuthentication = errors.New("authentication failed")

// AuthenticationError indicates a request failed authentication.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates an AuthenticationError with the given reason.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.reason)
}

// Is reports whether target is ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// ErrServer is the sentinel matched by ServerError via errors.Is.
var ErrServer = errors.New("server error")

// ServerError indicates an unexpected server-side failure.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a ServerError with the given HTTP status code and message.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{statusCode: statusCode, message: message}
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ServerError) Message() string { return e.message }

// Error implements the error interface.
func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Is reports whether target is ErrServer.
func (e *ServerError) Is(target error) bool {
	return target == ErrServer
}

// JSONAPIErrorResponse documents the error envelope shape for OpenAPI.
type JSONAPIErrorResponse struct {
	Errors []jsonapi.Error `json:"errors"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to an HTTP status code and writes a JSON:API error
// document. Domain not-found errors map to 404; authentication errors map
// to 401; everything else maps to 500 and is logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var apiErr *APIError
	var authErr *AuthenticationError
	var serverErr *ServerError

	switch {
	case errors.As(err, &apiErr):
		WriteJSON(w, apiErr.Code(), jsonapi.NewErrorResponse(jsonapi.NewError(
			fmt.Sprintf("%d", apiErr.Code()), http.StatusText(apiErr.Code()), apiErr.Message())))
	case errors.As(err, &authErr):
		WriteJSON(w, http.StatusUnauthorized, jsonapi.NewErrorResponse(jsonapi.NewError(
			"401", "Unauthorized", authErr.Error())))
	case errors.As(err, &serverErr):
		WriteJSON(w, serverErr.StatusCode(), jsonapi.NewErrorResponse(jsonapi.NewError(
			fmt.Sprintf("%d", serverErr.StatusCode()), "Server Error", serverErr.Message())))
	case errors.Is(err, database.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, jsonapi.NewErrorResponse(jsonapi.NewError(
			"404", "Not Found", err.Error())))
	default:
		if logger != nil {
			logger.Error("unhandled API error", "path", r.URL.Path, "method", r.Method, "error", err)
		}
		WriteJSON(w, http.StatusInternalServerError, jsonapi.NewErrorResponse(jsonapi.NewError(
			"500", "Internal Server Error", "an unexpected error occurred")))
	}
}
