// Package errors provides structured errors with a stable client code, HTTP status
// mapping and the JSON error envelope returned to clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the category of an error. It drives the HTTP status and log level.
type ErrorType string

const (
	// TypeValidation indicates malformed or rejected input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeAuth indicates a missing or insufficient identity (HTTP 403)
	TypeAuth ErrorType = "auth"
	// TypeNotFound indicates a missing entity (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeConflict indicates a uniqueness clash (HTTP 409)
	TypeConflict ErrorType = "conflict"
	// TypeInternal indicates a server-side failure (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Code is the stable tag sent as error.message. Clients branch on it.
type Code string

const (
	CodeParseError       Code = "PARSE_ERROR"
	CodeMethodUnknown    Code = "RPC_METHOD_UNKNOWN"
	CodeMissingParams    Code = "RPC_MISSING_PARAMS"
	CodeInvalidParams    Code = "RPC_INVALID_PARAMS"
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeNoAuth           Code = "NO_AUTH"
	CodeLoginFail        Code = "LOGIN_FAIL"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeEntityNotFound   Code = "ENTITY_NOT_FOUND"
	CodeConflict         Code = "CONFLICT"
	CodeServiceError     Code = "SERVICE_ERROR"
	CodeRateLimited      Code = "RATE_LIMITED"
)

// Error represents a structured error. Context is exposed to clients as the
// envelope detail, except for internal errors which stay opaque.
type Error struct {
	Type    ErrorType
	Code    Code
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeAuth:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, code Code, message string) *Error {
	return &Error{
		Type:    t,
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// ValidationError creates an HTTP 400 error with the given code.
func ValidationError(code Code, message string) *Error {
	return newError(TypeValidation, code, message)
}

// AuthError creates an HTTP 403 error with the given code.
func AuthError(code Code, message string) *Error {
	return newError(TypeAuth, code, message)
}

// NotFoundError creates an ENTITY_NOT_FOUND error carrying the entity name and id.
func NotFoundError(entity string, id any) *Error {
	return newError(TypeNotFound, CodeEntityNotFound, "entity not found").
		WithContext("entity", entity).
		WithContext("id", id)
}

// ConflictError creates an HTTP 409 error.
func ConflictError(message string) *Error {
	return newError(TypeConflict, CodeConflict, message)
}

// InternalError creates an opaque SERVICE_ERROR. The cause is logged, never sent.
func InternalError(message string, cause error) *Error {
	e := newError(TypeInternal, CodeServiceError, message)
	e.Cause = cause
	return e
}

// WithContext adds a detail field (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON error envelope:
// {"error":{"message":CODE,"data":{"req_uuid":...,"detail":...}}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Message Code      `json:"message"`
	Data    ErrorData `json:"data"`
}

type ErrorData struct {
	RequestID string `json:"req_uuid"`
	Detail    any    `json:"detail"`
}

// ToResponse builds the client envelope for this error.
func (e *Error) ToResponse(requestID string) ErrorResponse {
	var detail any
	if e.Type != TypeInternal && len(e.Context) > 0 {
		detail = e.Context
	}
	return ErrorResponse{
		Error: ErrorBody{
			Message: e.Code,
			Data:    ErrorData{RequestID: requestID, Detail: detail},
		},
	}
}

// AsStructuredError returns err as an *Error, wrapping anything unknown as an
// internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
