package serrors

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationErrors maps struct field names to their validation failures.
type ValidationErrors map[string]*BaseError

// ProcessValidatorErrors converts go-playground validator errors into coded
// errors. getFieldLocaleKey resolves the per-field translation key; it may
// return "" when the field has no localized label.
func ProcessValidatorErrors(errs validator.ValidationErrors, getFieldLocaleKey func(field string) string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		localeKey := ""
		if getFieldLocaleKey != nil {
			localeKey = getFieldLocaleKey(fe.Field())
		}
		out[fe.Field()] = &BaseError{
			Code:      "VALIDATION_" + fe.Tag(),
			Message:   fmt.Sprintf("field %q failed on the %q rule", fe.Field(), fe.Tag()),
			LocaleKey: localeKey,
		}
	}
	return out
}
