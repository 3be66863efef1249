package main

import (
	"context"

	"tally/internal/cli"
	"tally/internal/services"
	"tally/internal/storage"
)

var habitCommands = map[string]command{
	"add":       {"Create a habit", runHabitAdd},
	"list":      {"List habits", runHabitList},
	"log":       {"Mark a habit done for a day", runHabitLog},
	"unlog":     {"Mark a habit not done for a day", runHabitUnlog},
	"stats":     {"Completion rate of every active habit", runHabitStats},
	"report":    {"Longest streak and weekly and monthly stats of one habit", runHabitReport},
	"reminders": {"Habits not done for more than two days", runHabitReminders},
	"badges":    {"Achievements earned by a habit", runHabitBadges},
	"pause":     {"Deactivate a habit", runHabitPause},
	"delete":    {"Delete a habit with its log and achievements", runHabitDelete},
}

var recipeCommands = map[string]command{
	"add":    {"Add a recipe", runRecipeAdd},
	"search": {"Find recipes by category, name or cooking time", runRecipeSearch},
	"top":    {"Best rated recipes", runRecipeTop},
	"stats":  {"Recipe count, rating and time per category", runRecipeStats},
	"rate":   {"Change a recipe's rating", runRecipeRate},
	"delete": {"Delete a recipe", runRecipeDelete},
}

func runHabitAdd(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit add")
	name := fs.String("name", "", "habit name")
	desc := fs.String("desc", "", "description")
	category := fs.String("category", "", "free-form category")
	frequency := fs.String("frequency", "daily", "daily or weekly")
	at := fs.String("time", "", "target time as HH:MM")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "name"); err != nil {
		return err
	}

	h, err := a.habits.CreateHabit(ctx, services.HabitInput{
		Name:        *name,
		Description: *desc,
		Category:    *category,
		Frequency:   *frequency,
		TargetTime:  *at,
	})
	if err != nil {
		return err
	}
	a.printf("Created habit %q (id %d)\n", h.Name, h.ID)
	return nil
}

func runHabitList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit list")
	all := fs.Bool("all", false, "include inactive habits")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	habits, err := a.habits.ListHabits(ctx, !*all)
	if err != nil {
		return err
	}
	a.println(cli.HabitsTable(habits))
	return nil
}

func runHabitLog(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit log")
	id := fs.Int64("id", 0, "habit id")
	date := fs.String("date", "", "day as YYYY-MM-DD (default today)")
	note := fs.String("note", "", "note")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	day, err := parseDateFlag(*date, a.today())
	if err != nil {
		return err
	}

	badges, err := a.habits.LogCompletion(ctx, *id, day, *note)
	if err != nil {
		return err
	}
	a.printf("Habit %d done on %s\n", *id, day)
	a.println(cli.BadgesLine(badges))
	return nil
}

func runHabitUnlog(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit unlog")
	id := fs.Int64("id", 0, "habit id")
	date := fs.String("date", "", "day as YYYY-MM-DD (default today)")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	day, err := parseDateFlag(*date, a.today())
	if err != nil {
		return err
	}
	if err := a.habits.Unlog(ctx, *id, day); err != nil {
		return err
	}
	a.printf("Habit %d not done on %s\n", *id, day)
	return nil
}

func runHabitStats(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit stats")
	days := fs.Int("days", services.MonthlyWindowDays, "window in days, today included")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	stats, err := a.reports.AllHabitStats(ctx, *days)
	if err != nil {
		return err
	}
	a.println(cli.HabitStatsTable(stats))
	return nil
}

func runHabitReport(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit report")
	id := fs.Int64("id", 0, "habit id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	report, err := a.reports.HabitReport(ctx, *id)
	if err != nil {
		return err
	}
	a.println(cli.HabitReportView(report))
	return nil
}

func runHabitReminders(ctx context.Context, a *app, args []string) error {
	if _, err := parseFlags(a.newFlags("habit reminders"), args); err != nil {
		return err
	}
	reminders, err := a.reports.Reminders(ctx)
	if err != nil {
		return err
	}
	a.println(cli.RemindersTable(reminders))
	return nil
}

func runHabitBadges(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit badges")
	id := fs.Int64("id", 0, "habit id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	achievements, err := a.habits.ListAchievements(ctx, *id)
	if err != nil {
		return err
	}
	if len(achievements) == 0 {
		a.println("No achievements yet")
		return nil
	}
	for _, ach := range achievements {
		a.printf("%-8s %s (%s)\n", ach.Badge, ach.Description, ach.AchievedAt.Format("2006-01-02"))
	}
	return nil
}

func runHabitPause(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit pause")
	id := fs.Int64("id", 0, "habit id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	inactive := false
	if err := a.habits.UpdateHabit(ctx, *id, storage.HabitUpdate{Active: &inactive}); err != nil {
		return err
	}
	a.printf("Habit %d paused\n", *id)
	return nil
}

func runHabitDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("habit delete")
	id := fs.Int64("id", 0, "habit id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.habits.DeleteHabit(ctx, *id); err != nil {
		return err
	}
	a.printf("Deleted habit %d\n", *id)
	return nil
}

func runRecipeAdd(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recipe add")
	name := fs.String("name", "", "recipe name")
	category := fs.String("category", "", "category, e.g. dinner")
	ingredients := fs.String("ingredients", "", "ingredients")
	minutes := fs.Int("minutes", 0, "cooking time in minutes")
	rating := fs.Float64("rating", 0, "rating from 0 to 5")
	desc := fs.String("desc", "", "description")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "name", "category", "minutes"); err != nil {
		return err
	}

	r, err := a.recipes.CreateRecipe(ctx, services.RecipeInput{
		Name:           *name,
		Category:       *category,
		Ingredients:    *ingredients,
		CookingMinutes: *minutes,
		Rating:         *rating,
		Description:    *desc,
	})
	if err != nil {
		return err
	}
	a.printf("Added recipe %q (id %d)\n", r.Name, r.ID)
	return nil
}

func runRecipeSearch(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recipe search")
	category := fs.String("category", "", "exact category")
	name := fs.String("name", "", "part of the name")
	maxMinutes := fs.Int("max-minutes", 0, "longest cooking time")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	recipes, err := a.recipes.Search(ctx, storage.RecipeFilter{
		Category:   *category,
		NameLike:   *name,
		MaxMinutes: *maxMinutes,
	})
	if err != nil {
		return err
	}
	a.println(cli.RecipesTable(recipes))
	return nil
}

func runRecipeTop(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recipe top")
	limit := fs.Int("limit", 5, "number of recipes")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	recipes, err := a.recipes.Top(ctx, *limit)
	if err != nil {
		return err
	}
	a.println(cli.RecipesTable(recipes))
	return nil
}

func runRecipeStats(ctx context.Context, a *app, args []string) error {
	if _, err := parseFlags(a.newFlags("recipe stats"), args); err != nil {
		return err
	}
	stats, err := a.recipes.StatsByCategory(ctx)
	if err != nil {
		return err
	}
	a.println(cli.RecipeStatsTable(stats))
	return nil
}

func runRecipeRate(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recipe rate")
	id := fs.Int64("id", 0, "recipe id")
	rating := fs.Float64("rating", 0, "rating from 0 to 5")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id", "rating"); err != nil {
		return err
	}
	if err := a.recipes.UpdateRecipe(ctx, *id, storage.RecipeUpdate{Rating: rating}); err != nil {
		return err
	}
	a.printf("Recipe %d rated %.1f\n", *id, *rating)
	return nil
}

func runRecipeDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recipe delete")
	id := fs.Int64("id", 0, "recipe id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.recipes.DeleteRecipe(ctx, *id); err != nil {
		return err
	}
	a.printf("Deleted recipe %d\n", *id)
	return nil
}
