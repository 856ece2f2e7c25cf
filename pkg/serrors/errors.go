package serrors

import (
	"errors"
	"fmt"
)

// BaseError is a coded error. Code is a stable machine-readable identifier,
// Message a developer-facing description, LocaleKey the translation key the
// presentation layer may use to render the error to end users.
type BaseError struct {
	Code      string
	Message   string
	LocaleKey string
}

func NewError(code, message, localeKey string) *BaseError {
	return &BaseError{
		Code:      code,
		Message:   message,
		LocaleKey: localeKey,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches by code so wrapped instances compare equal to their sentinel.
func (e *BaseError) Is(target error) bool {
	var be *BaseError
	if !errors.As(target, &be) {
		return false
	}
	return e.Code == be.Code
}

func NewFieldRequiredError(field, localeKey string) *BaseError {
	return &BaseError{
		Code:      "FIELD_REQUIRED",
		Message:   fmt.Sprintf("field %q is required", field),
		LocaleKey: localeKey,
	}
}

// NewNotFoundError reports a missing record of the given kind.
func NewNotFoundError(kind, id string) *BaseError {
	return &BaseError{
		Code:      "NOT_FOUND",
		Message:   fmt.Sprintf("%s %s not found", kind, id),
		LocaleKey: "Errors.NotFound",
	}
}
