package services

import (
	"testing"

	"tally/internal/core"
)

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	today := core.NewDate(2024, 1, 15)
	start := core.NewDate(2024, 1, 1)

	tests := []struct {
		name         string
		lastExecuted core.Date
		want         bool
	}{
		{"never executed - is due", core.Date{}, true},
		{"executed today - not due", core.NewDate(2024, 1, 15), false},
		{"executed yesterday - is due", core.NewDate(2024, 1, 14), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecuted, today, start); got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	today := core.NewDate(2024, 1, 15)
	start := core.NewDate(2024, 1, 1)

	tests := []struct {
		name         string
		lastExecuted core.Date
		want         bool
	}{
		{"never executed - is due", core.Date{}, true},
		{"six days ago - not due", core.NewDate(2024, 1, 9), false},
		{"exactly seven days ago - is due", core.NewDate(2024, 1, 8), true},
		{"a month ago - is due", core.NewDate(2023, 12, 15), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecuted, today, start); got != tt.want {
				t.Errorf("WeeklyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name         string
		lastExecuted core.Date
		today        core.Date
		start        core.Date
		want         bool
	}{
		{"never executed - is due", core.Date{}, core.NewDate(2024, 1, 15), core.NewDate(2024, 1, 20), true},
		{"already ran this month", core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 20), core.NewDate(2024, 1, 1), false},
		{"new month before target day", core.NewDate(2024, 1, 20), core.NewDate(2024, 2, 10), core.NewDate(2024, 1, 20), false},
		{"new month on target day", core.NewDate(2024, 1, 20), core.NewDate(2024, 2, 20), core.NewDate(2024, 1, 20), true},
		{"31st clamps to end of february", core.NewDate(2024, 1, 31), core.NewDate(2024, 2, 29), core.NewDate(2023, 12, 31), true},
		{"same month number a year later", core.NewDate(2023, 2, 5), core.NewDate(2024, 2, 5), core.NewDate(2023, 2, 5), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecuted, tt.today, tt.start); got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}
	start := core.NewDate(2022, 6, 15)

	tests := []struct {
		name         string
		lastExecuted core.Date
		today        core.Date
		want         bool
	}{
		{"never executed - is due", core.Date{}, core.NewDate(2024, 1, 1), true},
		{"already ran this year", core.NewDate(2024, 6, 15), core.NewDate(2024, 12, 31), false},
		{"new year before target month", core.NewDate(2023, 6, 15), core.NewDate(2024, 5, 30), false},
		{"target month before target day", core.NewDate(2023, 6, 15), core.NewDate(2024, 6, 14), false},
		{"target month on target day", core.NewDate(2023, 6, 15), core.NewDate(2024, 6, 15), true},
		{"past target month", core.NewDate(2023, 6, 15), core.NewDate(2024, 9, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.lastExecuted, tt.today, start); got != tt.want {
				t.Errorf("YearlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, freq := range []core.RepetitionTypes{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(freq); err != nil {
			t.Errorf("GetDuenessChecker(%s) unexpected error: %v", freq, err)
		}
	}
	if _, err := GetDuenessChecker("hourly"); err == nil {
		t.Errorf("expected error for unknown frequency")
	}
}

type alwaysDue struct{}

func (alwaysDue) IsDue(_, _, _ core.Date) bool { return true }

func TestRegisterDuenessChecker(t *testing.T) {
	const fortnightly core.RepetitionTypes = "fortnightly"
	RegisterDuenessChecker(fortnightly, alwaysDue{})
	t.Cleanup(func() { delete(duenessStrategies, fortnightly) })

	checker, err := GetDuenessChecker(fortnightly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !checker.IsDue(core.Date{}, core.NewDate(2024, 1, 1), core.Date{}) {
		t.Errorf("registered checker not used")
	}
}
