package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	pkgerrors "github.com/franchisehub/backoffice/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeJSONBody decodes the request body into dest, rejecting unknown
// fields, then runs struct validation. Failures come back as a validation
// error listing one FieldError per offending field.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return decodeError(err)
	}
	return Struct(dest)
}

// Struct validates an already-populated value.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return pkgerrors.Invalid("Request body is required")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		return pkgerrors.Invalid("Invalid request body", pkgerrors.FieldError{Field: field, Message: fmt.Sprintf("%s has an invalid type", field)})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return pkgerrors.Invalid("Invalid request body", pkgerrors.FieldError{Field: field, Message: fmt.Sprintf("%s is not allowed", field)})
	}
	return pkgerrors.Invalid("Invalid request body", pkgerrors.FieldError{Field: "", Message: err.Error()})
}

func formatValidationErrors(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid request body")
	}
	fields := make([]pkgerrors.FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, pkgerrors.FieldError{Field: fieldPath(fe), Message: validationMessage(fe)})
	}
	return pkgerrors.Invalid(fields[0].Message, fields...)
}

// fieldPath drops the root struct name from the namespace so nested
// fields read like searchCondition.user_id.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", name, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", name)
}
