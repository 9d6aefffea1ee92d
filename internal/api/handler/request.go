package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/safepath/safepath/internal/api/models"
)

const maxBodyBytes = 1 << 20

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// requestError is a client error with optional per-field detail.
type requestError struct {
	detail string
	fields []models.FieldError
}

func (e *requestError) Error() string { return e.detail }

// readJSON decodes the body into dest and validates it.
func readJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	if err := decodeJSON(w, r, dest); err != nil {
		return err
	}
	return validateStruct(r, dest)
}

// decodeJSON decodes the body into dest. Inputs owned by a domain service are
// validated there instead.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return &requestError{detail: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

func validateStruct(r *http.Request, v any) error {
	err := validate.StructCtx(r.Context(), v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &requestError{detail: err.Error()}
	}

	fields := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, models.FieldError{
			Field:   trimNamespace(fe.Namespace()),
			Message: describeTag(fe),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return &requestError{detail: "request validation failed", fields: fields}
}

// trimNamespace drops the struct name validator prefixes to every field path.
func trimNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must have at most " + fe.Param() + " elements or characters"
	default:
		return "is invalid"
	}
}
