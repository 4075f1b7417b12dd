// ==============================================================================
// VALIDATOR PACKAGE - pkg/validator/validator.go
// ==============================================================================
package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{
		validate: validator.New(),
	}
	// Report fields by their JSON names so details keys match the request body.
	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStructured returns field -> message for every failed rule, or nil
// when i is valid. Messages name the field, e.g. "Password is required".
func (v *Validator) ValidateStructured(i interface{}) map[string]string {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_global": err.Error()}
	}

	errs := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errs[e.Field()] = message(e)
	}
	return errs
}

func message(e validator.FieldError) string {
	label := e.StructField()
	if e.Kind() == reflect.String {
		switch e.Tag() {
		case "min":
			return fmt.Sprintf("%s must be at least %s characters", label, e.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s characters", label, e.Param())
		}
	}
	switch e.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Valid email is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", label, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, e.Param())
	}
	return fmt.Sprintf("%s failed validation on '%s'", label, e.Tag())
}
