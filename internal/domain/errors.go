package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Persistence-level outcomes, translated by the app layer.
	ErrDuplicate        = errors.New("duplicate entry")
	ErrReferenceMissing = errors.New("referenced row missing")
	ErrInvalidData      = errors.New("invalid data")
)

// Error is a classified failure carrying the message shown to the client.
// Kind is one of the sentinels above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

// NotFound builds the "<Entity> couldn't be found" error.
func NotFound(entity string) *Error {
	return &Error{Kind: ErrNotFound, Message: entity + " couldn't be found"}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

func InvalidData(msg string) *Error {
	return &Error{Kind: ErrInvalidData, Message: msg}
}

// ValidationError reports the first payload field that failed its rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }
