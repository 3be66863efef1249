package core

import (
	"strings"
	"time"

	"tally/internal/apperr"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
)

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type (
	RepetitionTypes string
	CategoryType    string
	Priority        string

	Money struct {
		Cents int64
	}

	Category struct {
		ID          int64
		Name        string
		ParentID    *int64 // nil for roots
		Type        CategoryType
		Description string
	}

	Transaction struct {
		ID          int64
		CategoryID  int64
		Amount      Money
		Date        Date
		Description string
	}

	Budget struct {
		ID         int64
		CategoryID int64
		Month      YearMonth
		Planned    Money
	}

	FinancialGoal struct {
		ID          int64
		Name        string
		Target      Money
		Current     Money
		TargetDate  Date
		Priority    Priority
		Description string
	}

	RecurringTransaction struct {
		ID           int64
		CategoryID   int64
		Amount       Money
		Description  string
		Every        RepetitionTypes
		StartDate    Date
		LastExecuted Date // zero when never executed
		Active       bool
	}

	Habit struct {
		ID          int64
		Name        string
		Description string
		Category    string
		Frequency   string
		TargetTime  string
		Active      bool
		CreatedAt   time.Time
	}

	HabitLog struct {
		HabitID   int64
		Date      Date
		Completed bool
		Note      string
	}

	Achievement struct {
		HabitID     int64
		Badge       string
		Description string
		AchievedAt  time.Time
	}

	Recipe struct {
		ID             int64
		Name           string
		Category       string
		Ingredients    string
		CookingMinutes int
		Rating         float64
		Description    string
	}

	BudgetAlert struct {
		MessageID   string
		CategoryID  int64
		Category    string
		Month       YearMonth
		Planned     Money
		Spent       Money
		Utilization float64
		Status      string
		ReceivedAt  time.Time
	}
)

var (
	ErrInvalidAmount    = apperr.ErrInvalidAmount
	ErrInvalidDate      = apperr.ErrInvalidDate
	ErrInvalidMonth     = apperr.ErrInvalidMonth
	ErrEmptyName        = apperr.WithMessage(apperr.ErrInvalidRange, "Name must not be empty")
	ErrInvalidType      = apperr.WithMessage(apperr.ErrInvalidRange, "Category type must be income or expense")
	ErrInvalidFrequency = apperr.WithMessage(apperr.ErrInvalidRange, "Frequency must be daily, weekly, monthly or yearly")
	ErrInvalidPriority  = apperr.WithMessage(apperr.ErrInvalidRange, "Priority must be low, normal or high")
)

// Valid reports whether t is one of the two category types.
func (t CategoryType) Valid() bool {
	return t == Income || t == Expense
}

// Valid reports whether r is a supported repetition.
func (r RepetitionTypes) Valid() bool {
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Rank orders priorities from low (0) to high (2).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityNormal:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	if c.ParentID != nil && c.ID != 0 && *c.ParentID == c.ID {
		return apperr.ErrSelfParentCategory
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Date.Validate()
}

func (re RecurringTransaction) Validate() error {
	if err := re.StartDate.Validate(); err != nil {
		return err
	}
	if !re.Every.Valid() {
		return ErrInvalidFrequency
	}
	if strings.TrimSpace(re.Description) == "" {
		return apperr.WithMessage(apperr.ErrInvalidRange, "Description must not be empty")
	}
	return re.Amount.Validate()
}

func (g FinancialGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.Cents < 0 {
		return ErrInvalidAmount
	}
	if !g.Priority.Valid() {
		return ErrInvalidPriority
	}
	return g.TargetDate.Validate()
}
