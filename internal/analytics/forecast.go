package analytics

import (
	"github.com/shopspring/decimal"

	"tally/internal/apperr"
	"tally/internal/core"
)

const (
	// ForecastWindowDays is the trailing window monthly savings are measured over.
	ForecastWindowDays = 30
	// DaysPerMonth converts days to target into months.
	DaysPerMonth = 30
)

// ForecastInput is everything the projector needs; it reads nothing itself.
type ForecastInput struct {
	Target     core.Money
	Current    core.Money
	TargetDate core.Date
	Income     core.Money // trailing window
	Expense    core.Money // trailing window
	Today      core.Date
}

// Forecast is a linear projection of a goal's balance at its target date.
type Forecast struct {
	MonthlySavings  core.Money `json:"monthly_savings"`
	DaysRemaining   int        `json:"days_remaining"`
	MonthsRemaining float64    `json:"months_remaining"`
	Projected       core.Money `json:"projected"`
	Sufficient      bool       `json:"sufficient"`
	Surplus         core.Money `json:"surplus"`
	Shortfall       core.Money `json:"shortfall"`
}

// Project extends the current savings rate to the target date. A target date
// that is today or earlier is rejected.
func Project(in ForecastInput) (Forecast, error) {
	days := in.Today.DaysUntil(in.TargetDate)
	if days <= 0 {
		return Forecast{}, apperr.ErrTargetDatePassed
	}

	savings := in.Income.Sub(in.Expense)
	months := decimal.NewFromInt(int64(days)).Div(decimal.NewFromInt(DaysPerMonth))
	projected := core.MoneyFromDecimal(in.Current.Decimal().Add(savings.Decimal().Mul(months)))

	f := Forecast{
		MonthlySavings: savings,
		DaysRemaining:  days,
		Projected:      projected,
	}
	f.MonthsRemaining, _ = months.Round(2).Float64()
	if projected.Cents >= in.Target.Cents {
		f.Sufficient = true
		f.Surplus = projected.Sub(in.Target)
	} else {
		f.Shortfall = in.Target.Sub(projected)
	}
	return f, nil
}

// GoalProgress returns how much of the goal is saved, as a percentage rounded
// to one decimal.
func GoalProgress(g core.FinancialGoal) float64 {
	return percentOf(g.Current.Cents, g.Target.Cents)
}
