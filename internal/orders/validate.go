package orders

import (
	"errors"
	"reflect"
	"strings"

	"frankiemoji/backend/internal/pricing"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("packtier", func(fl validator.FieldLevel) bool {
		return pricing.IsKnownTier(fl.Field().String())
	})
	return v
}

// validationError turns the first validator failure into a ValidationError
// that names the offending JSON field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	reason := "is invalid"
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "email":
		reason = "must be a valid email address"
	case "packtier":
		reason = "must be one of starter, standard, premium"
	case "max":
		reason = "is too long"
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}
