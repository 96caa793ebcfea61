package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation marks input the caller must correct. Every FieldError matches it.
	ErrValidation = errors.New("validation error")
	// ErrUnknownField is returned for request keys that are not part of the resource.
	ErrUnknownField = errors.New("unknown field")
	// ErrImmutableField is returned for keys that exist but cannot be changed.
	ErrImmutableField = errors.New("field cannot be changed")
	// ErrRequiredField is returned when a mandatory value is missing.
	ErrRequiredField = errors.New("field is required")
)

// FieldError names the request field that failed validation.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap lets errors.Is match both ErrValidation and the specific cause.
func (e *FieldError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func newFieldError(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}

func fieldErrorf(field, format string, args ...interface{}) error {
	return &FieldError{Field: field, Err: fmt.Errorf(format, args...)}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and reports the first failure as a FieldError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		switch fe.Tag() {
		case "required":
			return newFieldError(fe.Field(), ErrRequiredField)
		case "email":
			return fieldErrorf(fe.Field(), "must be a valid email address")
		default:
			return fieldErrorf(fe.Field(), "failed %q validation", fe.Tag())
		}
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
