package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator checks request bodies against their `validate` tags.
// It is installed as the echo validator so c.Validate works in handlers.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator reports field errors under their JSON names
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// bindAndValidate decodes the body into req and validates it. A non-nil
// return is the already-written problem response.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, NewValidationError(c, "Invalid request body", nil)
	}
	if c.Echo().Validator == nil {
		return true, nil
	}
	if err := c.Validate(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return false, NewValidationError(c, "Validation failed", toValidationErrors(ve))
		}
		return false, NewValidationError(c, "Invalid request body", nil)
	}
	return true, nil
}

func toValidationErrors(ve validator.ValidationErrors) []ValidationError {
	result := make([]ValidationError, 0, len(ve))
	for _, fe := range ve {
		result = append(result, ValidationError{Field: fe.Field(), Message: validationMessage(fe)})
	}
	return result
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field is required"
	case "max":
		return fmt.Sprintf("Must be %s characters or less", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("Failed %s validation", fe.Tag())
}
