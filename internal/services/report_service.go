package services

import (
	"context"
	"fmt"
	"time"

	"tally/internal/analytics"
	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/storage"
)

// Habit statistic windows, in days.
const (
	WeeklyWindowDays  = 7
	MonthlyWindowDays = 30
)

// GoalStatus is a goal with its completion percentage.
type GoalStatus struct {
	Goal     core.FinancialGoal `json:"goal"`
	Progress float64            `json:"progress"`
}

// HabitReport combines the streak and window statistics of one habit.
type HabitReport struct {
	Habit   core.Habit                `json:"habit"`
	Streak  *analytics.Streak         `json:"longest_streak"`
	Weekly  analytics.CompletionStats `json:"weekly"`
	Monthly analytics.CompletionStats `json:"monthly"`
}

// ReportService reads the store and feeds the analytics engine. Every call
// reads fresh rows; nothing is cached between calls.
type ReportService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage, now: time.Now}
}

// WithClock replaces the clock that decides "today" for forecasts, habit
// windows and reminders.
func (s *ReportService) WithClock(now func() time.Time) *ReportService {
	s.now = now
	return s
}

func (s *ReportService) today() core.Date {
	return core.DateOf(s.now())
}

// CategoryHierarchy returns every category ordered parents first with depths.
func (s *ReportService) CategoryHierarchy(ctx context.Context) ([]analytics.CategoryNode, error) {
	categories, err := s.storage.ListCategories(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return analytics.ResolveHierarchy(categories), nil
}

func (s *ReportService) PeriodReport(ctx context.Context, from, to core.Date) (analytics.PeriodReport, error) {
	if from.After(to.Time) {
		return analytics.PeriodReport{}, apperr.ErrInvalidPeriod
	}
	records, err := s.storage.ListTransactionRecords(ctx, from, to)
	if err != nil {
		return analytics.PeriodReport{}, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.AggregatePeriod(records, from, to)
}

// Transactions lists the transactions dated within [from, to] with their
// category names.
func (s *ReportService) Transactions(ctx context.Context, from, to core.Date) ([]core.TransactionRecord, error) {
	if from.After(to.Time) {
		return nil, apperr.ErrInvalidPeriod
	}
	return s.storage.ListTransactionRecords(ctx, from, to)
}

// BudgetAlerts returns the alerts the alerts worker stored for month.
func (s *ReportService) BudgetAlerts(ctx context.Context, month core.YearMonth) ([]core.BudgetAlert, error) {
	return s.storage.ListBudgetAlerts(ctx, month)
}

// MonthlyDynamics returns income, expense and balance for each month of year
// that has transactions.
func (s *ReportService) MonthlyDynamics(ctx context.Context, year int) ([]analytics.BucketTotal, error) {
	if year < 1 || year > 9999 {
		return nil, apperr.WithMessage(apperr.ErrInvalidRange, "year must be between 1 and 9999")
	}
	records, err := s.storage.ListTransactionRecords(ctx, core.NewDate(year, 1, 1), core.NewDate(year, 12, 31))
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.MonthlyDynamics(records, year), nil
}

// Compare reports per-category change between the bucket containing anchor
// and the bucket before it.
func (s *ReportService) Compare(ctx context.Context, g core.Granularity, anchor core.Date) (analytics.Comparison, error) {
	if !g.Valid() {
		return analytics.ComparePeriods(nil, g, anchor)
	}
	// Wide enough for any bucket pair, including ISO weeks that straddle years.
	from := core.NewDate(anchor.Year()-1, 1, 1)
	to := core.NewDate(anchor.Year()+1, 1, 7)
	records, err := s.storage.ListTransactionRecords(ctx, from, to)
	if err != nil {
		return analytics.Comparison{}, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.ComparePeriods(records, g, anchor)
}

// BudgetAnalysis compares planned and actual spend of every expense category
// for month.
func (s *ReportService) BudgetAnalysis(ctx context.Context, month core.YearMonth) (analytics.BudgetAnalysis, error) {
	categories, err := s.storage.ListCategories(ctx, core.Expense)
	if err != nil {
		return analytics.BudgetAnalysis{}, fmt.Errorf("load categories: %w", err)
	}
	planned, err := s.storage.PlannedByCategory(ctx, month)
	if err != nil {
		return analytics.BudgetAnalysis{}, fmt.Errorf("load budgets: %w", err)
	}
	records, err := s.storage.ListTransactionRecords(ctx, month.First(), month.Last())
	if err != nil {
		return analytics.BudgetAnalysis{}, fmt.Errorf("load transactions: %w", err)
	}
	return analytics.AnalyzeBudget(month, categories, planned, analytics.SpentByCategory(records, month)), nil
}

// Forecast projects a goal's balance at its target date from the last
// ForecastWindowDays of income and expense.
func (s *ReportService) Forecast(ctx context.Context, goalID int64) (analytics.Forecast, error) {
	goal, err := s.storage.GetGoal(ctx, goalID)
	if err != nil {
		return analytics.Forecast{}, err
	}
	today := s.today()
	records, err := s.storage.ListTransactionRecords(ctx, today.AddDays(-analytics.ForecastWindowDays), today)
	if err != nil {
		return analytics.Forecast{}, fmt.Errorf("load transactions: %w", err)
	}
	income, expense := analytics.TrailingTotals(records, today, analytics.ForecastWindowDays)
	return analytics.Project(analytics.ForecastInput{
		Target:     goal.Target,
		Current:    goal.Current,
		TargetDate: goal.TargetDate,
		Income:     income,
		Expense:    expense,
		Today:      today,
	})
}

func (s *ReportService) GoalsProgress(ctx context.Context) ([]GoalStatus, error) {
	goals, err := s.storage.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goals: %w", err)
	}
	out := make([]GoalStatus, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalStatus{Goal: g, Progress: analytics.GoalProgress(g)})
	}
	return out, nil
}

// LongestStreak returns the habit's longest run of completed days. ok is
// false when the habit has never been completed.
func (s *ReportService) LongestStreak(ctx context.Context, habitID int64) (streak analytics.Streak, ok bool, err error) {
	if _, err := s.storage.GetHabit(ctx, habitID); err != nil {
		return analytics.Streak{}, false, err
	}
	dates, err := s.storage.CompletedDates(ctx, habitID)
	if err != nil {
		return analytics.Streak{}, false, fmt.Errorf("load completions: %w", err)
	}
	streak, ok = analytics.LongestStreak(dates)
	return streak, ok, nil
}

// HabitStats summarizes the last days days of a habit's log, today included.
func (s *ReportService) HabitStats(ctx context.Context, habitID int64, days int) (analytics.CompletionStats, error) {
	if days <= 0 {
		return analytics.CompletionStats{}, apperr.WithMessage(apperr.ErrInvalidRange, "days must be at least 1")
	}
	h, err := s.storage.GetHabit(ctx, habitID)
	if err != nil {
		return analytics.CompletionStats{}, err
	}
	return s.habitStats(ctx, h, days)
}

func (s *ReportService) habitStats(ctx context.Context, h core.Habit, days int) (analytics.CompletionStats, error) {
	today := s.today()
	logs, err := s.storage.ListHabitLogs(ctx, h.ID, today.AddDays(-(days - 1)), today)
	if err != nil {
		return analytics.CompletionStats{}, fmt.Errorf("load habit logs: %w", err)
	}
	stats := analytics.SummarizeLogs(logs)
	stats.HabitID = h.ID
	stats.Name = h.Name
	return stats, nil
}

// HabitReport returns streak plus weekly and monthly stats for one habit.
func (s *ReportService) HabitReport(ctx context.Context, habitID int64) (HabitReport, error) {
	h, err := s.storage.GetHabit(ctx, habitID)
	if err != nil {
		return HabitReport{}, err
	}
	report := HabitReport{Habit: h}
	if streak, ok, err := s.LongestStreak(ctx, habitID); err != nil {
		return HabitReport{}, err
	} else if ok {
		report.Streak = &streak
	}
	if report.Weekly, err = s.habitStats(ctx, h, WeeklyWindowDays); err != nil {
		return HabitReport{}, err
	}
	if report.Monthly, err = s.habitStats(ctx, h, MonthlyWindowDays); err != nil {
		return HabitReport{}, err
	}
	return report, nil
}

// AllHabitStats summarizes every active habit over the last days days.
func (s *ReportService) AllHabitStats(ctx context.Context, days int) ([]analytics.CompletionStats, error) {
	if days <= 0 {
		return nil, apperr.WithMessage(apperr.ErrInvalidRange, "days must be at least 1")
	}
	habits, err := s.storage.ListHabits(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	out := make([]analytics.CompletionStats, 0, len(habits))
	for _, h := range habits {
		stats, err := s.habitStats(ctx, h, days)
		if err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

// Reminders lists active habits not completed for more than
// analytics.ReminderAfterDays days.
func (s *ReportService) Reminders(ctx context.Context) ([]analytics.Reminder, error) {
	habits, err := s.storage.ListHabits(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	last, err := s.storage.LastCompletions(ctx)
	if err != nil {
		return nil, err
	}
	activity := make([]analytics.HabitActivity, 0, len(habits))
	for _, h := range habits {
		activity = append(activity, analytics.HabitActivity{Habit: h, LastCompleted: last[h.ID]})
	}
	return analytics.DueReminders(activity, s.today(), analytics.ReminderAfterDays), nil
}
