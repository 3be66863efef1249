package services

import (
	"fmt"
	"time"

	"tally/internal/core"
)

// DuenessChecker decides whether a recurring template should produce a
// transaction today. lastExecuted is zero when the template never ran.
type DuenessChecker interface {
	IsDue(lastExecuted, today, start core.Date) bool
}

// DailyChecker is due once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastExecuted, today, _ core.Date) bool {
	return lastExecuted.IsZero() || lastExecuted.Before(today.Time)
}

// WeeklyChecker is due when 7 or more days have passed since the last run.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastExecuted, today, _ core.Date) bool {
	if lastExecuted.IsZero() {
		return true
	}
	return lastExecuted.DaysUntil(today) >= 7
}

// MonthlyChecker is due once per month, on or after the start date's day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastExecuted, today, start core.Date) bool {
	if lastExecuted.IsZero() {
		return true
	}
	if lastExecuted.YearMonth() == today.YearMonth() {
		return false
	}
	return today.Day() >= clampDay(today.Year(), today.Time.Month(), start.Day())
}

// YearlyChecker is due once per year, on or after the start date's month and day.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastExecuted, today, start core.Date) bool {
	if lastExecuted.IsZero() {
		return true
	}
	if lastExecuted.Year() == today.Year() {
		return false
	}
	switch {
	case today.Month() < start.Month():
		return false
	case today.Month() == start.Month():
		return today.Day() >= clampDay(today.Year(), today.Time.Month(), start.Day())
	default:
		return true
	}
}

// clampDay caps day to the length of the month, so a template started on the
// 31st still runs in 30-day months.
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

var duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker registered for frequency.
func GetDuenessChecker(frequency core.RepetitionTypes) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", frequency)
	}
	return checker, nil
}

// RegisterDuenessChecker adds or replaces the checker for frequency.
func RegisterDuenessChecker(frequency core.RepetitionTypes, checker DuenessChecker) {
	duenessStrategies[frequency] = checker
}
