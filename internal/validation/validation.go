// Package validation checks request payloads with struct tags and turns failures into
// VALIDATION_ERROR responses.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"threadline/internal/models"

	"github.com/go-playground/validator/v10"
)

var handleRegex = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

var reservedHandles = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"activity":    {},
	"communities": {},
	"me":          {},
	"metrics":     {},
	"swagger":     {},
	"threads":     {},
	"users":       {},
	"ws":          {},
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
			return ValidateHandle(fl.Field().String()) == nil
		})
		_ = validate.RegisterValidation("threadtext", func(fl validator.FieldLevel) bool {
			return ValidateThreadText(fl.Field().String()) == nil
		})
	})
	return validate
}

// Struct validates v's `validate` tags. The returned error is a *models.AppError.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return models.NewValidationError(err.Error())
	}
	return models.NewValidationError(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "handle":
		if err := ValidateHandle(fmt.Sprint(fe.Value())); err != nil {
			return fmt.Sprintf("%s %s", field, err.Error())
		}
	case "threadtext":
		if err := ValidateThreadText(fmt.Sprint(fe.Value())); err != nil {
			return fmt.Sprintf("%s %s", field, err.Error())
		}
	}
	return fmt.Sprintf("%s is invalid", field)
}

// NormalizeHandle trims and lowercases a username or community handle.
func NormalizeHandle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateHandle checks an already normalized handle.
func ValidateHandle(handle string) error {
	if !handleRegex.MatchString(handle) {
		return errors.New("must be 3-30 characters of lowercase letters, numbers, and underscores")
	}
	if _, reserved := reservedHandles[handle]; reserved {
		return errors.New("is reserved")
	}
	return nil
}

// ValidateThreadText checks that trimmed text is non-empty and fits in a thread.
func ValidateThreadText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return errors.New("must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > models.MaxThreadLength {
		return fmt.Errorf("must be at most %d characters", models.MaxThreadLength)
	}
	return nil
}
