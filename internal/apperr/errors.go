// Package apperr provides the error taxonomy shared by storage, services and
// the presentation surfaces. Every error a caller can act on is an *AppError
// of one of four kinds; specialised sentinels narrow the message.
package apperr

import (
	"errors"
	"net/http"
)

// Kind groups errors by how a caller should react to them.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidRange        Kind = "INVALID_RANGE"
	KindConstraintViolation Kind = "CONSTRAINT_VIOLATION"
	KindInternal            Kind = "INTERNAL_ERROR"
)

// AppError represents a structured application error with a kind, a code,
// a human-readable message, an HTTP status and an optional internal error.
type AppError struct {
	Kind       Kind   `json:"kind"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is the same sentinel, or the generic sentinel of
// this error's kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Code == string(t.Kind) {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the sentinel's code and message wrapping internal.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func newKind(kind Kind, message string, status int) *AppError {
	return &AppError{Kind: kind, Code: string(kind), Message: message, StatusCode: status}
}

func notFound(code, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message, StatusCode: http.StatusNotFound}
}

func invalid(code, message string) *AppError {
	return &AppError{Kind: KindInvalidRange, Code: code, Message: message, StatusCode: http.StatusBadRequest}
}

func conflict(code, message string) *AppError {
	return &AppError{Kind: KindConstraintViolation, Code: code, Message: message, StatusCode: http.StatusConflict}
}

// Generic kinds.
var (
	ErrNotFound            = newKind(KindNotFound, "Resource not found", http.StatusNotFound)
	ErrInvalidRange        = newKind(KindInvalidRange, "Invalid input", http.StatusBadRequest)
	ErrConstraintViolation = newKind(KindConstraintViolation, "Constraint violation", http.StatusConflict)
	ErrInternal            = newKind(KindInternal, "An internal error occurred", http.StatusInternalServerError)
)

// Not found.
var (
	ErrCategoryNotFound    = notFound("CATEGORY_NOT_FOUND", "Category not found")
	ErrTransactionNotFound = notFound("TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrBudgetNotFound      = notFound("BUDGET_NOT_FOUND", "Budget not found")
	ErrGoalNotFound        = notFound("GOAL_NOT_FOUND", "Financial goal not found")
	ErrRecurringNotFound   = notFound("RECURRING_NOT_FOUND", "Recurring transaction not found")
	ErrHabitNotFound       = notFound("HABIT_NOT_FOUND", "Habit not found")
	ErrRecipeNotFound      = notFound("RECIPE_NOT_FOUND", "Recipe not found")
)

// Invalid input or range.
var (
	ErrInvalidAmount      = invalid("INVALID_AMOUNT", "Amount must be greater than zero")
	ErrInvalidDate        = invalid("INVALID_DATE", "Date must be formatted as YYYY-MM-DD")
	ErrInvalidMonth       = invalid("INVALID_MONTH", "Month must be formatted as YYYY-MM")
	ErrInvalidPeriod      = invalid("INVALID_PERIOD", "Period start must not be after its end")
	ErrTargetDatePassed   = invalid("TARGET_DATE_PASSED", "Target date has already passed")
	ErrNoFieldsToUpdate   = invalid("NO_FIELDS_TO_UPDATE", "No fields to update")
	ErrSelfParentCategory = invalid("SELF_PARENT_CATEGORY", "A category cannot be its own parent")
	ErrCategoryCycle      = invalid("CATEGORY_CYCLE", "A category cannot be moved under its own descendant")
)

// Constraint violations.
var (
	ErrDuplicateName = conflict("DUPLICATE_NAME", "A record with this name already exists")
)
