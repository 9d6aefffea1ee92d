// Package validation checks domain inputs with go-playground/validator and
// reports failures by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes a single invalid input field.
type FieldError struct {
	Field   string
	Message string
}

// Error is returned when an input fails validation. Subject names what was
// being validated, e.g. "safety rating".
type Error struct {
	Subject string
	Errors  []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid " + e.Subject + ": " + strings.Join(parts, "; ")
}

// Fail builds an Error for a single field.
func Fail(subject, field, message string) *Error {
	return &Error{Subject: subject, Errors: []FieldError{{Field: field, Message: message}}}
}

// phonePattern accepts international and local numbers with common separators.
var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 ()-]{5,18}[0-9]$`)

// Validator wraps a validator.Validate configured for domain inputs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their json tag and knows the
// "phone" rule.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Check validates input and returns an *Error listing every failing field.
func (v *Validator) Check(subject string, input any) error {
	err := v.v.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Fail(subject, "body", err.Error())
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return &Error{Subject: subject, Errors: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "phone":
		return "must be a phone number"
	default:
		return "is invalid"
	}
}
