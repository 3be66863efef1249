package main

import (
	"context"
	"fmt"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/services"
)

type demoTx struct {
	category string
	amount   string
	daysAgo  int
	desc     string
}

// runDemo seeds categories, two months of transactions, a budget, a goal,
// habits with a week of history and a few recipes, all relative to today.
func runDemo(ctx context.Context, a *app, args []string) error {
	if _, err := parseFlags(a.newFlags("demo seed"), args); err != nil {
		return err
	}
	existing, err := a.ledger.ListCategories(ctx, "")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return apperr.WithMessage(apperr.ErrConstraintViolation, "demo data needs an empty database")
	}

	ids := make(map[string]int64)
	addCategory := func(name, typ, parent string) error {
		in := services.CategoryInput{Name: name, Type: typ}
		if parent != "" {
			id := ids[parent]
			in.ParentID = &id
		}
		c, err := a.ledger.CreateCategory(ctx, in)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", name, err)
		}
		ids[name] = c.ID
		return nil
	}
	for _, c := range [][3]string{
		{"Salary", "income", ""},
		{"Food", "expense", ""},
		{"Groceries", "expense", "Food"},
		{"Restaurants", "expense", "Food"},
		{"Transport", "expense", ""},
		{"Housing", "expense", ""},
	} {
		if err := addCategory(c[0], c[1], c[2]); err != nil {
			return err
		}
	}

	today := a.today()
	for _, t := range []demoTx{
		{"Salary", "2500", 35, "Monthly salary"},
		{"Salary", "2500", 5, "Monthly salary"},
		{"Housing", "900", 33, "Rent"},
		{"Groceries", "84.20", 30, "Weekly shop"},
		{"Groceries", "61.35", 23, "Weekly shop"},
		{"Restaurants", "42", 20, "Dinner out"},
		{"Transport", "39.90", 15, "Monthly pass"},
		{"Groceries", "77.10", 9, "Weekly shop"},
		{"Groceries", "58.60", 2, "Weekly shop"},
		{"Restaurants", "27.50", 1, "Lunch"},
	} {
		if _, err := a.ledger.RecordTransaction(ctx, services.TransactionInput{
			CategoryID:  ids[t.category],
			Amount:      t.amount,
			Date:        today.AddDays(-t.daysAgo).String(),
			Description: t.desc,
		}); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}

	month := today.YearMonth().String()
	for name, amount := range map[string]string{"Groceries": "250", "Restaurants": "60", "Transport": "40"} {
		if _, err := a.ledger.SetBudget(ctx, services.BudgetInput{CategoryID: ids[name], Month: month, Amount: amount}); err != nil {
			return fmt.Errorf("seed budget: %w", err)
		}
	}

	if _, err := a.ledger.CreateRecurring(ctx, services.RecurringInput{
		CategoryID:  ids["Housing"],
		Amount:      "900",
		Description: "Rent",
		Every:       string(core.Monthly),
		StartDate:   today.AddDays(-33).String(),
	}); err != nil {
		return fmt.Errorf("seed recurring: %w", err)
	}

	if _, err := a.goals.CreateGoal(ctx, services.GoalInput{
		Name:       "Emergency fund",
		Target:     "5000",
		Current:    "1200",
		TargetDate: today.AddDays(180).String(),
		Priority:   string(core.PriorityHigh),
	}); err != nil {
		return fmt.Errorf("seed goal: %w", err)
	}

	reading, err := a.habits.CreateHabit(ctx, services.HabitInput{Name: "Reading", Category: "mind", TargetTime: "21:30"})
	if err != nil {
		return fmt.Errorf("seed habit: %w", err)
	}
	if _, err := a.habits.CreateHabit(ctx, services.HabitInput{Name: "Running", Category: "health", Frequency: "weekly"}); err != nil {
		return fmt.Errorf("seed habit: %w", err)
	}
	for _, daysAgo := range []int{9, 8, 7, 5, 4, 3, 2, 1} {
		if _, err := a.habits.LogCompletion(ctx, reading.ID, today.AddDays(-daysAgo), ""); err != nil {
			return fmt.Errorf("seed habit log: %w", err)
		}
	}

	for _, r := range []services.RecipeInput{
		{Name: "Pasta al pomodoro", Category: "dinner", Ingredients: "pasta, tomatoes, basil", CookingMinutes: 20, Rating: 4.5},
		{Name: "Overnight oats", Category: "breakfast", Ingredients: "oats, milk, berries", CookingMinutes: 5, Rating: 4},
		{Name: "Vegetable curry", Category: "dinner", Ingredients: "chickpeas, spinach, coconut milk", CookingMinutes: 40, Rating: 4.8},
	} {
		if _, err := a.recipes.CreateRecipe(ctx, r); err != nil {
			return fmt.Errorf("seed recipe: %w", err)
		}
	}

	a.println("Demo data created. Try 'tally report period' or 'tally budget show'.")
	return nil
}
