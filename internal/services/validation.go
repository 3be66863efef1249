package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tally/internal/apperr"
	"tally/internal/core"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("category_type", func(fl validator.FieldLevel) bool {
		return core.CategoryType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return core.RepetitionTypes(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		return core.Priority(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := core.ParseDecimalToCents(fl.Field().String())
		return err == nil
	})
	return v
}

// validateInput checks in's struct tags and reports the first failing field
// as an InvalidRange error.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Wrap(apperr.ErrInvalidRange, err)
	}
	fe := fieldErrs[0]
	return apperr.WithMessage(apperr.ErrInvalidRange, fieldMessage(fe))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "datetime":
		return fmt.Sprintf("%s must be formatted as %s", field, fe.Param())
	case "amount":
		return fmt.Sprintf("%s must be a positive amount", field)
	case "category_type":
		return fmt.Sprintf("%s must be income or expense", field)
	case "frequency":
		return fmt.Sprintf("%s must be daily, weekly, monthly or yearly", field)
	case "priority":
		return fmt.Sprintf("%s must be low, normal or high", field)
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// parseAmount converts an already validated decimal string to Money.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}
