package domain

import "fmt"

// Kind classifies a domain error so the HTTP layer can map it to a status
// code without inspecting individual error codes.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindValidation
	KindInvalidState
	KindConflict
	KindAuthorization
	KindInfrastructure
)

// Error is the archive's domain error. Code is the short machine-readable
// identifier that ends up in the response envelope; Field is set for
// validation errors that concern one input field.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFoundError(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func ValidationError(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func FieldValidationError(code, message, field string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Field: field}
}

func InvalidStateError(code, message string) *Error {
	return &Error{Kind: KindInvalidState, Code: code, Message: message}
}

func ConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func AuthorizationError(code, message string) *Error {
	return &Error{Kind: KindAuthorization, Code: code, Message: message}
}

func InfrastructureError(code, message string) *Error {
	return &Error{Kind: KindInfrastructure, Code: code, Message: message}
}
