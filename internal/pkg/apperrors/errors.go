package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError so the HTTP layer can pick a status and the UI a presentation.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindBackend      Kind = "BACKEND"
	KindUpload       Kind = "UPLOAD"
	KindAuthRequired Kind = "AUTH_REQUIRED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConfirmation Kind = "CONFIRMATION"
)

type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(kind Kind, message string) error {
	return &AppError{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) error {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

// Validation reports a rejected form field. Raised before any network call.
func Validation(field, message string) error {
	return &AppError{Kind: KindValidation, Message: message, Field: field}
}

func Backend(message string, cause error) error {
	return Wrap(KindBackend, message, cause)
}

func Upload(message string, cause error) error {
	return Wrap(KindUpload, message, cause)
}

func NotFound(message string) error {
	return New(KindNotFound, message)
}

func Forbidden(message string) error {
	return New(KindForbidden, message)
}

func AuthRequired(message string) error {
	return New(KindAuthRequired, message)
}

func Confirmation(message string) error {
	return New(KindConfirmation, message)
}

// KindOf returns the kind of the first AppError in err's chain, or "" for foreign errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing message of an AppError, or fallback for anything else.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// FieldOf returns the offending field of a validation error.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
