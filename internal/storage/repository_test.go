package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tally/internal/apperr"
	"tally/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustCategory(t *testing.T, repo *SQLiteRepository, name string, typ core.CategoryType, parent *int64) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{Name: name, Type: typ, ParentID: parent})
	require.NoError(t, err)
	return c
}

func mustTransaction(t *testing.T, repo *SQLiteRepository, categoryID, cents int64, date string) core.Transaction {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{CategoryID: categoryID, Amount: core.Money{Cents: cents}, Date: d})
	require.NoError(t, err)
	return tx
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Ping(context.Background()))
	require.NoError(t, repo.Close())
}

func TestCategoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	food := mustCategory(t, repo, "Food", core.Expense, nil)
	groceries := mustCategory(t, repo, "Groceries", core.Expense, &food.ID)
	mustCategory(t, repo, "Salary", core.Income, nil)

	got, err := repo.GetCategory(ctx, groceries.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentID)
	require.Equal(t, food.ID, *got.ParentID)

	expenses, err := repo.ListCategories(ctx, core.Expense)
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	all, err := repo.ListCategories(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = repo.CreateCategory(ctx, core.Category{Name: "Food", Type: core.Expense})
	require.True(t, errors.Is(err, apperr.ErrConstraintViolation), "duplicate name: %v", err)

	name := "Supermarket"
	require.NoError(t, repo.UpdateCategory(ctx, groceries.ID, CategoryUpdate{Name: &name, ClearParent: true}))
	got, err = repo.GetCategory(ctx, groceries.ID)
	require.NoError(t, err)
	require.Equal(t, "Supermarket", got.Name)
	require.Nil(t, got.ParentID)

	require.ErrorIs(t, repo.UpdateCategory(ctx, groceries.ID, CategoryUpdate{}), apperr.ErrNoFieldsToUpdate)
	require.ErrorIs(t, repo.UpdateCategory(ctx, 999, CategoryUpdate{Name: &name}), apperr.ErrNotFound)

	_, err = repo.GetCategory(ctx, 999)
	require.ErrorIs(t, err, apperr.ErrCategoryNotFound)
}

func TestTransactionForUnknownCategoryIsRejected(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		CategoryID: 42, Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 5, 1),
	})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)
}

func TestTransactionPartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	food := mustCategory(t, repo, "Food", core.Expense, nil)
	tx := mustTransaction(t, repo, food.ID, 1500, "2024-05-01")

	desc := "Lunch"
	require.NoError(t, repo.UpdateTransaction(ctx, tx.ID, TransactionUpdate{Description: &desc}))

	got, err := repo.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, "Lunch", got.Description)
	require.Equal(t, int64(1500), got.Amount.Cents)
	require.Equal(t, "2024-05-01", got.Date.String())

	require.ErrorIs(t, repo.UpdateTransaction(ctx, 999, TransactionUpdate{Description: &desc}), apperr.ErrTransactionNotFound)
	require.ErrorIs(t, repo.DeleteTransaction(ctx, 999), apperr.ErrTransactionNotFound)
	require.NoError(t, repo.DeleteTransaction(ctx, tx.ID))
}

func TestListTransactionRecordsAndSpend(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	food := mustCategory(t, repo, "Food", core.Expense, nil)
	salary := mustCategory(t, repo, "Salary", core.Income, nil)
	mustTransaction(t, repo, food.ID, 1000, "2024-04-30")
	mustTransaction(t, repo, food.ID, 2000, "2024-05-01")
	mustTransaction(t, repo, food.ID, 3000, "2024-05-31")
	mustTransaction(t, repo, salary.ID, 500000, "2024-05-15")

	records, err := repo.ListTransactionRecords(ctx, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "Food", records[0].CategoryName)
	require.Equal(t, core.Income, records[1].CategoryType)

	spent, err := repo.SpentInMonth(ctx, food.ID, core.YearMonth{Year: 2024, Month: 5})
	require.NoError(t, err)
	require.Equal(t, int64(5000), spent.Cents)
}

func TestBudgetUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	food := mustCategory(t, repo, "Food", core.Expense, nil)
	month := core.YearMonth{Year: 2024, Month: 5}

	first, err := repo.UpsertBudget(ctx, core.Budget{CategoryID: food.ID, Month: month, Planned: core.Money{Cents: 50000}})
	require.NoError(t, err)
	second, err := repo.UpsertBudget(ctx, core.Budget{CategoryID: food.ID, Month: month, Planned: core.Money{Cents: 80000}})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	planned, err := repo.PlannedByCategory(ctx, month)
	require.NoError(t, err)
	require.Len(t, planned, 1)
	require.Equal(t, int64(80000), planned[food.ID].Cents)

	_, err = repo.UpsertBudget(ctx, core.Budget{CategoryID: 999, Month: month, Planned: core.Money{Cents: 1}})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)

	_, err = repo.GetBudget(ctx, food.ID, month.Prev())
	require.ErrorIs(t, err, apperr.ErrBudgetNotFound)
}

func TestDeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	food := mustCategory(t, repo, "Food", core.Expense, nil)
	groceries := mustCategory(t, repo, "Groceries", core.Expense, &food.ID)
	rent := mustCategory(t, repo, "Rent", core.Expense, nil)
	month := core.YearMonth{Year: 2024, Month: 5}

	mustTransaction(t, repo, food.ID, 1000, "2024-05-02")
	mustTransaction(t, repo, groceries.ID, 2000, "2024-05-03")
	mustTransaction(t, repo, rent.ID, 90000, "2024-05-01")
	_, err := repo.UpsertBudget(ctx, core.Budget{CategoryID: food.ID, Month: month, Planned: core.Money{Cents: 5000}})
	require.NoError(t, err)
	_, err = repo.CreateRecurring(ctx, core.RecurringTransaction{
		CategoryID: food.ID, Amount: core.Money{Cents: 100}, Description: "Coffee",
		Every: core.Daily, StartDate: core.NewDate(2024, 5, 1), Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteCategory(ctx, food.ID))

	_, err = repo.GetCategory(ctx, groceries.ID)
	require.ErrorIs(t, err, apperr.ErrCategoryNotFound)

	records, err := repo.ListTransactionRecords(ctx, month.First(), month.Last())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, rent.ID, records[0].CategoryID)

	planned, err := repo.PlannedByCategory(ctx, month)
	require.NoError(t, err)
	require.Empty(t, planned)

	recurring, err := repo.ListActiveRecurring(ctx)
	require.NoError(t, err)
	require.Empty(t, recurring)

	require.ErrorIs(t, repo.DeleteCategory(ctx, food.ID), apperr.ErrCategoryNotFound)
}

func TestExecuteRecurringIsAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	rent := mustCategory(t, repo, "Rent", core.Expense, nil)

	rt, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		CategoryID: rent.ID, Amount: core.Money{Cents: 90000}, Description: "Rent",
		Every: core.Monthly, StartDate: core.NewDate(2024, 1, 1), Active: true,
	})
	require.NoError(t, err)

	tx, err := repo.ExecuteRecurring(ctx, rt, core.NewDate(2024, 5, 1))
	require.NoError(t, err)
	require.Equal(t, "Rent (recurring)", tx.Description)

	got, err := repo.GetRecurring(ctx, rt.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-05-01", got.LastExecuted.String())

	// A template that no longer exists must not leave a transaction behind.
	ghost := rt
	ghost.ID = 999
	_, err = repo.ExecuteRecurring(ctx, ghost, core.NewDate(2024, 6, 1))
	require.ErrorIs(t, err, apperr.ErrRecurringNotFound)

	records, err := repo.ListTransactionRecords(ctx, core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31))
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestGoalsOrderedByPriority(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, g := range []core.FinancialGoal{
		{Name: "Laptop", Target: core.Money{Cents: 150000}, TargetDate: core.NewDate(2024, 9, 1), Priority: core.PriorityNormal},
		{Name: "Emergency", Target: core.Money{Cents: 500000}, TargetDate: core.NewDate(2025, 1, 1), Priority: core.PriorityHigh},
		{Name: "Holiday", Target: core.Money{Cents: 200000}, TargetDate: core.NewDate(2024, 7, 1), Priority: core.PriorityLow},
		{Name: "Car", Target: core.Money{Cents: 900000}, TargetDate: core.NewDate(2024, 12, 1), Priority: core.PriorityHigh},
	} {
		_, err := repo.CreateGoal(ctx, g)
		require.NoError(t, err)
	}

	goals, err := repo.ListGoals(ctx)
	require.NoError(t, err)
	var names []string
	for _, g := range goals {
		names = append(names, g.Name)
	}
	require.Equal(t, []string{"Car", "Emergency", "Laptop", "Holiday"}, names)

	require.NoError(t, repo.UpdateGoalProgress(ctx, goals[0].ID, core.Money{Cents: 1234}))
	g, err := repo.GetGoal(ctx, goals[0].ID)
	require.NoError(t, err)
	require.Equal(t, int64(1234), g.Current.Cents)
	require.ErrorIs(t, repo.UpdateGoalProgress(ctx, 999, core.Money{}), apperr.ErrGoalNotFound)
}

func TestHabitLogsAndAchievements(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	h, err := repo.CreateHabit(ctx, core.Habit{Name: "Read", Frequency: "daily", Active: true})
	require.NoError(t, err)

	for _, day := range []int{1, 2, 3} {
		require.NoError(t, repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: h.ID, Date: core.NewDate(2024, 5, day), Completed: true}))
	}
	// Unlogging the same day replaces the entry.
	require.NoError(t, repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: h.ID, Date: core.NewDate(2024, 5, 2), Completed: false, Note: "sick"}))

	logs, err := repo.ListHabitLogs(ctx, h.ID, core.NewDate(2024, 5, 1), core.NewDate(2024, 5, 31))
	require.NoError(t, err)
	require.Len(t, logs, 3)
	require.False(t, logs[1].Completed)
	require.Equal(t, "sick", logs[1].Note)

	n, err := repo.CountCompleted(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	dates, err := repo.CompletedDates(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, dates, 2)

	last, err := repo.LastCompletions(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-05-03", last[h.ID].String())

	added, err := repo.AddAchievement(ctx, core.Achievement{HabitID: h.ID, Badge: "Week", Description: "Completed 7 days"})
	require.NoError(t, err)
	require.True(t, added)
	added, err = repo.AddAchievement(ctx, core.Achievement{HabitID: h.ID, Badge: "Week", Description: "Completed 7 days"})
	require.NoError(t, err)
	require.False(t, added)

	err = repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: 999, Date: core.NewDate(2024, 5, 1), Completed: true})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)

	require.NoError(t, repo.DeleteHabit(ctx, h.ID))
	achievements, err := repo.ListAchievements(ctx, h.ID)
	require.NoError(t, err)
	require.Empty(t, achievements)
	n, err = repo.CountCompleted(ctx, h.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRecipeQueries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, rc := range []core.Recipe{
		{Name: "Pancakes", Category: "Breakfast", Ingredients: "flour, milk, eggs", CookingMinutes: 20, Rating: 4.5},
		{Name: "Omelette", Category: "Breakfast", Ingredients: "eggs", CookingMinutes: 10, Rating: 4.0},
		{Name: "Lasagne", Category: "Dinner", Ingredients: "pasta, beef", CookingMinutes: 90, Rating: 5.0},
	} {
		_, err := repo.CreateRecipe(ctx, rc)
		require.NoError(t, err)
	}

	quick, err := repo.SearchRecipes(ctx, RecipeFilter{MaxMinutes: 15})
	require.NoError(t, err)
	require.Len(t, quick, 1)
	require.Equal(t, "Omelette", quick[0].Name)

	byName, err := repo.SearchRecipes(ctx, RecipeFilter{Category: "Breakfast", NameLike: "cake"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	top, err := repo.TopRecipes(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Lasagne", top[0].Name)
	require.Equal(t, "Pancakes", top[1].Name)

	stats, err := repo.RecipeStatsByCategory(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	require.Equal(t, "Breakfast", stats[0].Category)
	require.Equal(t, 2, stats[0].Count)
	require.InDelta(t, 4.25, stats[0].AverageRating, 0.051)
	require.InDelta(t, 15.0, stats[0].AverageMinutes, 0.001)

	_, err = repo.CreateRecipe(ctx, core.Recipe{Name: "Bad", Category: "X", Ingredients: "y", CookingMinutes: 0})
	require.ErrorIs(t, err, apperr.ErrConstraintViolation)
}

func TestBudgetAlertsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	month := core.YearMonth{Year: 2024, Month: 5}
	alert := core.BudgetAlert{
		MessageID: "c0ffee", CategoryID: 3, Category: "Food", Month: month,
		Planned: core.Money{Cents: 100000}, Spent: core.Money{Cents: 105000}, Utilization: 105, Status: "near_overrun",
	}

	added, err := repo.RecordBudgetAlert(ctx, alert)
	require.NoError(t, err)
	require.True(t, added)
	added, err = repo.RecordBudgetAlert(ctx, alert)
	require.NoError(t, err)
	require.False(t, added)

	alerts, err := repo.ListBudgetAlerts(ctx, month)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, "near_overrun", alerts[0].Status)
	require.False(t, alerts[0].ReceivedAt.IsZero())
}
