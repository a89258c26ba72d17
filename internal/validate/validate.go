// Package validate runs struct validation and turns field failures into
// apperr validation errors with readable messages.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"salon/internal/apperr"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return val
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]string, 0, len(ve))
		for _, fe := range ve {
			out = append(out, formatFieldError(fe))
		}
		return apperr.New(apperr.KindValidation, strings.Join(out, ", "))
	}
	return apperr.Wrap(apperr.KindInternal, err, "validation failed")
}

// Var validates a single value against a tag such as "required,email".
func Var(field string, value any, tag string) error {
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return apperr.New(apperr.KindValidation, describe(field, ve[0].Tag(), ve[0].Param()))
	}
	return apperr.Wrap(apperr.KindInternal, err, "validation failed")
}

func formatFieldError(fe validator.FieldError) string {
	return describe(fe.Field(), fe.Tag(), fe.Param())
}

func describe(field, tag, param string) string {
	switch tag {
	case "required", "notblank":
		return fmt.Sprintf("Field '%s' is required", field)
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email", field)
	case "url":
		return fmt.Sprintf("Field '%s' must be a valid URL", field)
	case "gt":
		return fmt.Sprintf("Field '%s' must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("Field '%s' must be at least %s", field, param)
	case "min":
		return fmt.Sprintf("Field '%s' must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", field, param)
	case "eqfield":
		return fmt.Sprintf("Field '%s' must match '%s'", field, param)
	case "numeric":
		return fmt.Sprintf("Field '%s' must be numeric", field)
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", field, tag)
}
