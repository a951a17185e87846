// Package validation wraps go-playground/validator with the form rules used across handlers.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var (
	alphaSpacePattern = regexp.MustCompile(`^[A-Za-z\s]{1,50}$`)
	digitPattern      = regexp.MustCompile(`\d`)
)

// Validator validates request structs and renders failures as field → message details.
type Validator struct {
	validate *validator.Validate
}

// New registers the custom rules: alphaspace (person names), nodigits (subsection names) and role.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaSpacePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nodigits", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return strings.TrimSpace(s) != "" && !digitPattern.MatchString(s)
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		_, ok := domain.ParseRole(fl.Field().String())
		return ok
	})
	return &Validator{validate: v}
}

// Struct validates s. Failures come back as a VALIDATION_FAILED DomainError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = message(fe)
	}
	return apperrors.NewValidationError("validation failed", details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "alphaspace":
		return "Only letters and spaces are allowed (max 50)."
	case "nodigits":
		return "Names cannot contain numbers."
	case "role":
		return "Select a valid role."
	case "min":
		return fmt.Sprintf("Ensure this value has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "gt":
		return "Select a valid option!"
	}
	return "Invalid value."
}
