package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tally/internal/amqp"
	"tally/internal/analytics"
	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/storage"
)

type fakePublisher struct {
	mu     sync.Mutex
	msgs   []*amqp.BudgetAlertMessage
	closed bool
}

func (f *fakePublisher) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func (f *fakePublisher) published() []*amqp.BudgetAlertMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*amqp.BudgetAlertMessage(nil), f.msgs...)
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func fixedClock(date string) func() time.Time {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return d.Add(12 * time.Hour) }
}

func mustCategory(t *testing.T, ledger *LedgerService, name, typ string, parent *int64) core.Category {
	t.Helper()
	c, err := ledger.CreateCategory(context.Background(), CategoryInput{Name: name, Type: typ, ParentID: parent})
	require.NoError(t, err)
	return c
}

func mustRecord(t *testing.T, ledger *LedgerService, categoryID int64, amount, date string) core.Transaction {
	t.Helper()
	tx, err := ledger.RecordTransaction(context.Background(), TransactionInput{CategoryID: categoryID, Amount: amount, Date: date})
	require.NoError(t, err)
	return tx
}

func TestRecordTransactionRejectsUnknownCategory(t *testing.T) {
	ledger := NewLedgerService(newTestRepo(t), nil)

	_, err := ledger.RecordTransaction(context.Background(), TransactionInput{CategoryID: 42, Amount: "10", Date: "2024-05-01"})
	require.ErrorIs(t, err, apperr.ErrCategoryNotFound)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecordTransactionPublishesBudgetAlerts(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	ledger := NewLedgerService(newTestRepo(t), pub)

	food := mustCategory(t, ledger, "Food", "expense", nil)
	salary := mustCategory(t, ledger, "Salary", "income", nil)
	_, err := ledger.SetBudget(ctx, BudgetInput{CategoryID: food.ID, Month: "2024-05", Amount: "1000"})
	require.NoError(t, err)

	mustRecord(t, ledger, salary.ID, "5000", "2024-05-01")
	mustRecord(t, ledger, food.ID, "600", "2024-05-02")
	require.Empty(t, pub.published(), "within budget must not alert")

	mustRecord(t, ledger, food.ID, "450", "2024-05-10")
	msgs := pub.published()
	require.Len(t, msgs, 1)
	require.Equal(t, string(analytics.StatusNearOverrun), msgs[0].Status)
	require.Equal(t, int64(105000), msgs[0].SpentCents)
	require.InDelta(t, 105.0, msgs[0].Utilization, 0.001)
	require.NotEmpty(t, msgs[0].ID)

	mustRecord(t, ledger, food.ID, "200", "2024-05-11")
	msgs = pub.published()
	require.Len(t, msgs, 2)
	require.Equal(t, string(analytics.StatusOver), msgs[1].Status)

	// A different month has no budget.
	mustRecord(t, ledger, food.ID, "5000", "2024-06-01")
	require.Len(t, pub.published(), 2)

	require.NoError(t, ledger.Close())
	require.True(t, pub.closed)
}

func TestRecordTransactionWithoutPublisher(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)

	food := mustCategory(t, ledger, "Food", "expense", nil)
	_, err := ledger.SetBudget(ctx, BudgetInput{CategoryID: food.ID, Month: "2024-05", Amount: "10"})
	require.NoError(t, err)

	tx := mustRecord(t, ledger, food.ID, "20", "2024-05-02")
	got, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2000), got.Amount.Cents)
}

func TestUpdateCategoryRejectsCycles(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(newTestRepo(t), nil)

	food := mustCategory(t, ledger, "Food", "expense", nil)
	groceries := mustCategory(t, ledger, "Groceries", "expense", &food.ID)
	fruit := mustCategory(t, ledger, "Fruit", "expense", &groceries.ID)

	err := ledger.UpdateCategory(ctx, food.ID, storage.CategoryUpdate{ParentID: &fruit.ID})
	require.ErrorIs(t, err, apperr.ErrCategoryCycle)

	err = ledger.UpdateCategory(ctx, food.ID, storage.CategoryUpdate{ParentID: &food.ID})
	require.ErrorIs(t, err, apperr.ErrSelfParentCategory)

	missing := int64(999)
	err = ledger.UpdateCategory(ctx, food.ID, storage.CategoryUpdate{ParentID: &missing})
	require.ErrorIs(t, err, apperr.ErrCategoryNotFound)

	require.NoError(t, ledger.UpdateCategory(ctx, fruit.ID, storage.CategoryUpdate{ClearParent: true}))
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	ledger := NewLedgerService(newTestRepo(t), nil)
	mustCategory(t, ledger, "Food", "expense", nil)

	_, err := ledger.CreateCategory(context.Background(), CategoryInput{Name: "Food", Type: "expense"})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)
}

func TestCategoryByName(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(newTestRepo(t), nil)
	food := mustCategory(t, ledger, "Food", "expense", nil)
	mustCategory(t, ledger, "Salary", "income", nil)

	got, err := ledger.CategoryByName(ctx, " food ")
	require.NoError(t, err)
	require.Equal(t, food.ID, got.ID)

	_, err = ledger.CategoryByName(ctx, "Fod")
	require.ErrorIs(t, err, apperr.ErrCategoryNotFound)
	require.Contains(t, err.Error(), `did you mean "Food"?`)

	_, err = ledger.CategoryByName(ctx, "Entertainment")
	require.ErrorIs(t, err, apperr.ErrCategoryNotFound)
	require.NotContains(t, err.Error(), "did you mean")
}

func TestSetBudgetUpserts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	cat := mustCategory(t, ledger, "Rent", "expense", nil)

	first, err := ledger.SetBudget(ctx, BudgetInput{CategoryID: cat.ID, Month: "2024-05", Amount: "500"})
	require.NoError(t, err)
	second, err := ledger.SetBudget(ctx, BudgetInput{CategoryID: cat.ID, Month: "2024-05", Amount: "800"})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	planned, err := repo.PlannedByCategory(ctx, core.YearMonth{Year: 2024, Month: time.May})
	require.NoError(t, err)
	require.Len(t, planned, 1)
	require.Equal(t, int64(80000), planned[cat.ID].Cents)

	_, err = ledger.SetBudget(ctx, BudgetInput{CategoryID: cat.ID, Month: "2024-5", Amount: "800"})
	require.ErrorIs(t, err, apperr.ErrInvalidRange)
}

func TestRecurringProcessorRunsDueTemplatesOnce(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	rent := mustCategory(t, ledger, "Rent", "expense", nil)

	_, err := ledger.CreateRecurring(ctx, RecurringInput{CategoryID: rent.ID, Amount: "750", Description: "Rent", Every: "monthly", StartDate: "2024-01-05"})
	require.NoError(t, err)
	_, err = ledger.CreateRecurring(ctx, RecurringInput{CategoryID: rent.ID, Amount: "10", Description: "Later", Every: "daily", StartDate: "2024-12-01"})
	require.NoError(t, err)

	proc := NewRecurringProcessor(repo, ledger)

	n, err := proc.ProcessDue(ctx, core.NewDate(2024, 3, 5))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = proc.ProcessDue(ctx, core.NewDate(2024, 3, 20))
	require.NoError(t, err)
	require.Equal(t, 0, n, "already ran this month")

	n, err = proc.ProcessDue(ctx, core.NewDate(2024, 4, 5))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	records, err := repo.ListTransactionRecords(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, int64(75000), records[0].Amount.Cents)
}

func TestHabitLogCompletionAwardsBadgesOnce(t *testing.T) {
	ctx := context.Background()
	habits := NewHabitService(newTestRepo(t))

	h, err := habits.CreateHabit(ctx, HabitInput{Name: "Read"})
	require.NoError(t, err)
	require.Equal(t, "daily", h.Frequency)

	start := core.NewDate(2024, 1, 1)
	var earned []analytics.Badge
	for i := 0; i < 7; i++ {
		badges, err := habits.LogCompletion(ctx, h.ID, start.AddDays(i), "")
		require.NoError(t, err)
		earned = append(earned, badges...)
	}
	require.Len(t, earned, 1)
	require.Equal(t, "Week", earned[0].Name)

	badges, err := habits.LogCompletion(ctx, h.ID, start.AddDays(6), "again")
	require.NoError(t, err)
	require.Empty(t, badges)

	achievements, err := habits.ListAchievements(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, achievements, 1)

	require.NoError(t, habits.Unlog(ctx, h.ID, start.AddDays(6)))

	_, err = habits.LogCompletion(ctx, 999, start, "")
	require.ErrorIs(t, err, apperr.ErrHabitNotFound)
}

func TestHabitUnlogKeepsNoteAndSkipsMissingDays(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	habits := NewHabitService(repo)

	h, err := habits.CreateHabit(ctx, HabitInput{Name: "Read"})
	require.NoError(t, err)

	logged := core.NewDate(2024, 3, 10)
	_, err = habits.LogCompletion(ctx, h.ID, logged, "30 pages")
	require.NoError(t, err)

	require.NoError(t, habits.Unlog(ctx, h.ID, logged))
	require.NoError(t, habits.Unlog(ctx, h.ID, logged.AddDays(-1)))

	logs, err := repo.ListHabitLogs(ctx, h.ID, logged.AddDays(-7), logged)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.False(t, logs[0].Completed)
	require.Equal(t, "30 pages", logs[0].Note)

	require.ErrorIs(t, habits.Unlog(ctx, 999, logged), apperr.ErrHabitNotFound)
}

func TestReportServicePeriodAndBudget(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	reports := NewReportService(repo)

	salary := mustCategory(t, ledger, "Salary", "income", nil)
	food := mustCategory(t, ledger, "Food", "expense", nil)
	fun := mustCategory(t, ledger, "Fun", "expense", nil)

	mustRecord(t, ledger, salary.ID, "3000", "2024-05-01")
	mustRecord(t, ledger, food.ID, "1050", "2024-05-03")
	mustRecord(t, ledger, fun.ID, "100", "2024-05-04")
	mustRecord(t, ledger, food.ID, "99", "2024-04-30")

	period, err := reports.PeriodReport(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Equal(t, int64(300000), period.Income.Cents)
	require.Equal(t, int64(115000), period.Expense.Cents)
	require.Equal(t, period.Income.Cents-period.Expense.Cents, period.Balance.Cents)

	_, err = reports.PeriodReport(ctx, core.NewDate(2024, 6, 1), core.NewDate(2024, 5, 1))
	require.ErrorIs(t, err, apperr.ErrInvalidPeriod)

	_, err = ledger.SetBudget(ctx, BudgetInput{CategoryID: food.ID, Month: "2024-05", Amount: "1000"})
	require.NoError(t, err)
	_, err = ledger.SetBudget(ctx, BudgetInput{CategoryID: fun.ID, Month: "2024-05", Amount: "1000"})
	require.NoError(t, err)

	analysis, err := reports.BudgetAnalysis(ctx, core.YearMonth{Year: 2024, Month: time.May})
	require.NoError(t, err)
	require.Len(t, analysis.Lines, 2)
	require.Equal(t, food.ID, analysis.Lines[0].CategoryID)
	require.Equal(t, analytics.StatusNearOverrun, analysis.Lines[0].Status)
	require.Equal(t, 105.0, analysis.Lines[0].Utilization)
	require.Equal(t, analytics.StatusWithin, analysis.Lines[1].Status)

	dynamics, err := reports.MonthlyDynamics(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, dynamics, 2)
	require.Equal(t, "2024-04", dynamics[0].Key)

	// Deleting a category drops its transactions from every report.
	require.NoError(t, ledger.DeleteCategory(ctx, food.ID))
	period, err = reports.PeriodReport(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	for _, c := range period.Categories {
		require.NotEqual(t, food.ID, c.CategoryID)
	}
	require.Equal(t, int64(10000), period.Expense.Cents)
}

func TestReportServiceCompare(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	reports := NewReportService(repo)

	food := mustCategory(t, ledger, "Food", "expense", nil)
	mustRecord(t, ledger, food.ID, "100", "2023-12-15")
	mustRecord(t, ledger, food.ID, "150", "2024-01-10")

	cmp, err := reports.Compare(ctx, core.ByMonth, core.NewDate(2024, 1, 20))
	require.NoError(t, err)
	require.Equal(t, "2023-12", cmp.PreviousKey)
	require.Len(t, cmp.Rows, 1)
	require.Equal(t, int64(5000), cmp.Rows[0].Delta.Cents)
	require.NotNil(t, cmp.Rows[0].DeltaPercent)
	require.Equal(t, 50.0, *cmp.Rows[0].DeltaPercent)

	_, err = reports.Compare(ctx, core.Granularity("fortnight"), core.NewDate(2024, 1, 20))
	require.ErrorIs(t, err, apperr.ErrInvalidRange)
}

func TestReportServiceForecast(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	goals := NewGoalService(repo)
	reports := NewReportService(repo)
	reports.now = fixedClock("2024-06-01")

	salary := mustCategory(t, ledger, "Salary", "income", nil)
	food := mustCategory(t, ledger, "Food", "expense", nil)
	mustRecord(t, ledger, salary.ID, "900", "2024-05-15")
	mustRecord(t, ledger, food.ID, "700", "2024-05-20")
	mustRecord(t, ledger, salary.ID, "5000", "2024-01-01") // outside the window

	g, err := goals.CreateGoal(ctx, GoalInput{Name: "Bike", Target: "1000", Current: "100", TargetDate: "2024-07-31"})
	require.NoError(t, err)
	require.Equal(t, core.PriorityNormal, g.Priority)

	f, err := reports.Forecast(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, int64(20000), f.MonthlySavings.Cents)
	require.Equal(t, 60, f.DaysRemaining)
	require.Equal(t, 2.0, f.MonthsRemaining)
	require.Equal(t, int64(50000), f.Projected.Cents)
	require.False(t, f.Sufficient)
	require.Equal(t, int64(50000), f.Shortfall.Cents)

	past, err := goals.CreateGoal(ctx, GoalInput{Name: "Old", Target: "10", TargetDate: "2024-06-01"})
	require.NoError(t, err)
	_, err = reports.Forecast(ctx, past.ID)
	require.ErrorIs(t, err, apperr.ErrTargetDatePassed)

	_, err = reports.Forecast(ctx, 999)
	require.ErrorIs(t, err, apperr.ErrGoalNotFound)

	progress, err := reports.GoalsProgress(ctx)
	require.NoError(t, err)
	require.Len(t, progress, 2)
}

func TestReportServiceHabits(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	habits := NewHabitService(repo)
	reports := NewReportService(repo)
	reports.now = fixedClock("2024-03-10")

	read, err := habits.CreateHabit(ctx, HabitInput{Name: "Read"})
	require.NoError(t, err)
	run, err := habits.CreateHabit(ctx, HabitInput{Name: "Run"})
	require.NoError(t, err)
	_, err = habits.CreateHabit(ctx, HabitInput{Name: "Stretch"})
	require.NoError(t, err)

	for _, d := range []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-08", "2024-03-09", "2024-03-10"} {
		date, _ := core.ParseDate(d)
		_, err := habits.LogCompletion(ctx, read.ID, date, "")
		require.NoError(t, err)
	}
	require.NoError(t, habits.Unlog(ctx, read.ID, core.NewDate(2024, 3, 7)))
	_, err = habits.LogCompletion(ctx, run.ID, core.NewDate(2024, 3, 7), "")
	require.NoError(t, err)

	streak, ok, err := reports.LongestStreak(ctx, read.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, streak.Length)
	require.Equal(t, "2024-03-08", streak.Start.String())

	stats, err := reports.HabitStats(ctx, read.ID, WeeklyWindowDays)
	require.NoError(t, err)
	require.Equal(t, 7, stats.TotalDays)
	require.Equal(t, 6, stats.Completed)
	require.Equal(t, 85.7, stats.SuccessRate)

	reminders, err := reports.Reminders(ctx)
	require.NoError(t, err)
	require.Len(t, reminders, 2)
	require.Equal(t, "Run", reminders[0].Name)
	require.Equal(t, 3, reminders[0].DaysSince)
	require.Equal(t, "Stretch", reminders[1].Name)
	require.True(t, reminders[1].Never)

	report, err := reports.HabitReport(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, report.Streak)
	require.Equal(t, 1, report.Monthly.Completed)

	all, err := reports.AllHabitStats(ctx, MonthlyWindowDays)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestRecipeService(t *testing.T) {
	ctx := context.Background()
	recipes := NewRecipeService(newTestRepo(t))

	_, err := recipes.CreateRecipe(ctx, RecipeInput{Name: "Soup", Category: "dinner", Ingredients: "water", CookingMinutes: 30, Rating: 4})
	require.NoError(t, err)
	_, err = recipes.CreateRecipe(ctx, RecipeInput{Name: "Toast", Category: "breakfast", Ingredients: "bread", CookingMinutes: 5, Rating: 5})
	require.NoError(t, err)

	_, err = recipes.CreateRecipe(ctx, RecipeInput{Name: "Bad", Category: "x", CookingMinutes: 5, Rating: 6})
	require.ErrorIs(t, err, apperr.ErrInvalidRange)

	top, err := recipes.Top(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "Toast", top[0].Name)

	quick, err := recipes.Search(ctx, storage.RecipeFilter{MaxMinutes: 10})
	require.NoError(t, err)
	require.Len(t, quick, 1)

	bad := 7.0
	require.ErrorIs(t, recipes.UpdateRecipe(ctx, top[0].ID, storage.RecipeUpdate{Rating: &bad}), apperr.ErrInvalidRange)
}
