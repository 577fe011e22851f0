// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
//
// Every classified error carries a stable machine-readable Code; clients must
// branch on Code, not on message wording. Messages for the caja conflicts keep
// the legacy phrasing ("siendo usada", "ya tienes una") because deployed
// clients still substring-match on it.
package apierror

import "net/http"

// Stable error codes for the session lifecycle and shared failures.
const (
	CodeCajaOcupada        = "CAJA_OCUPADA"
	CodeSesionDuplicada    = "SESION_DUPLICADA"
	CodeCajaNoDisponible   = "CAJA_NO_DISPONIBLE"
	CodeSesionNoEncontrada = "SESION_NO_ENCONTRADA"
	CodeValidacion         = "VALIDACION"
	CodePermisos           = "PERMISOS"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeValidacion, Detail: "Error de validacion", Fields: fields}
}

// Error is a classified failure raised by the service layer. Handlers map it
// to its HTTP status and JSON envelope; anything that is not an *Error
// becomes a generic 500.
type Error struct {
	Status int
	Code   string
	Detail string
}

func (e *Error) Error() string { return e.Detail }

// Envelope returns the JSON body for this error.
func (e *Error) Envelope() *APIError {
	return &APIError{Code: e.Code, Detail: e.Detail}
}

func Conflict(code, detail string) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Detail: detail}
}

func NotFound(code, detail string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Detail: detail}
}

func BadRequest(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidacion, Detail: detail}
}

func Forbidden(detail string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodePermisos, Detail: detail}
}

func Unauthorized(detail string) *Error {
	return &Error{Status: http.StatusUnauthorized, Detail: detail}
}
