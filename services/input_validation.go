package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// inputValidator reads the same `binding` tags gin enforces in
// ShouldBindJSON, so callers that skip HTTP get identical rules.
var inputValidator = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	UseJSONFieldNames(v)
	return v
}()

// UseJSONFieldNames makes field errors report the wire name ("checkInDate")
// instead of the Go field name.
func UseJSONFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateInput(in any) error {
	if err := inputValidator.Struct(in); err != nil {
		return BindingError(err)
	}
	return nil
}

// BindingError turns validator field errors into a ValidationError; any
// other error is returned unchanged.
func BindingError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	switch fe.Tag() {
	case "required":
		return newValidationError("%s es requerido", fe.Field())
	case "oneof":
		return newValidationError("%s debe ser uno de: %s", fe.Field(), fe.Param())
	case "min", "gte":
		return newValidationError("%s debe ser al menos %s", fe.Field(), fe.Param())
	default:
		return newValidationError("%s inválido", fe.Field())
	}
}
