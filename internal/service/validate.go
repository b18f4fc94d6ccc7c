package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// newValidator builds a validator that reports field names by their JSON
// tag, so validation errors match the wire format the frontend sends.
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

// mapValidationError converts the first failing field of a
// validator.ValidationErrors into the domain's typed validation error.
func mapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "datetime":
			msg = "must match format " + fe.Param()
		case "oneof":
			msg = "must be one of: " + fe.Param()
		case "email":
			msg = "must be a valid email"
		}
		return &domain.ErrValidation{Field: fe.Field(), Message: msg}
	}
	return &domain.ErrValidation{Field: "payload", Message: err.Error()}
}
