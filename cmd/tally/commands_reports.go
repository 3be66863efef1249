package main

import (
	"context"
	"strings"

	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/services"
)

var reportCommands = map[string]command{
	"period":   {"Totals per category and type between two dates", runReportPeriod},
	"dynamics": {"Income, expense and balance for each month of a year", runReportDynamics},
	"compare":  {"Per-category change against the previous day, week, month or year", runReportCompare},
}

var goalCommands = map[string]command{
	"add":      {"Create a savings goal", runGoalAdd},
	"list":     {"List goals with their progress", runGoalList},
	"progress": {"Set the amount saved so far", runGoalProgress},
	"forecast": {"Project a goal's balance at its target date", runGoalForecast},
	"delete":   {"Delete a goal", runGoalDelete},
}

func runReportPeriod(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("report period")
	from := fs.String("from", "", "first day (default start of this month)")
	to := fs.String("to", "", "last day (default end of this month)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	month := a.today().YearMonth()
	start, err := parseDateFlag(*from, month.First())
	if err != nil {
		return err
	}
	end, err := parseDateFlag(*to, month.Last())
	if err != nil {
		return err
	}

	report, err := a.reports.PeriodReport(ctx, start, end)
	if err != nil {
		return err
	}
	a.println(cli.PeriodTable(report))
	return nil
}

func runReportDynamics(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("report dynamics")
	year := fs.Int("year", a.today().Year(), "calendar year")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	buckets, err := a.reports.MonthlyDynamics(ctx, *year)
	if err != nil {
		return err
	}
	a.println(cli.DynamicsTable(buckets))
	return nil
}

func runReportCompare(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("report compare")
	by := fs.String("by", string(core.ByMonth), "day, week, month or year")
	date := fs.String("date", "", "a day in the current bucket (default today)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	anchor, err := parseDateFlag(*date, a.today())
	if err != nil {
		return err
	}
	cmp, err := a.reports.Compare(ctx, core.Granularity(strings.ToLower(*by)), anchor)
	if err != nil {
		return err
	}
	a.println(cli.ComparisonTable(cmp))
	return nil
}

func runGoalAdd(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("goal add")
	name := fs.String("name", "", "goal name")
	target := fs.String("target", "", "target amount")
	current := fs.String("current", "", "amount saved so far")
	due := fs.String("due", "", "target date as YYYY-MM-DD")
	priority := fs.String("priority", "", "low, normal or high (default normal)")
	desc := fs.String("desc", "", "description")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "name", "target", "due"); err != nil {
		return err
	}

	g, err := a.goals.CreateGoal(ctx, services.GoalInput{
		Name:        *name,
		Target:      *target,
		Current:     *current,
		TargetDate:  *due,
		Priority:    *priority,
		Description: *desc,
	})
	if err != nil {
		return err
	}
	a.printf("Created goal %q (id %d), %s by %s\n", g.Name, g.ID, g.Target, g.TargetDate)
	return nil
}

func runGoalList(ctx context.Context, a *app, args []string) error {
	if _, err := parseFlags(a.newFlags("goal list"), args); err != nil {
		return err
	}
	goals, err := a.reports.GoalsProgress(ctx)
	if err != nil {
		return err
	}
	a.println(cli.GoalsTable(goals))
	return nil
}

func runGoalProgress(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("goal progress")
	id := fs.Int64("id", 0, "goal id")
	current := fs.String("current", "", "amount saved so far")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id", "current"); err != nil {
		return err
	}

	var amount core.Money
	// ParseDecimalToCents rejects zero, which is a valid progress value.
	if strings.Trim(strings.TrimSpace(*current), "0.,") != "" {
		if amount, err = parseMoneyFlag(*current); err != nil {
			return err
		}
	}
	if err := a.goals.UpdateProgress(ctx, *id, amount); err != nil {
		return err
	}
	a.printf("Goal %d is at %s\n", *id, amount)
	return nil
}

func runGoalForecast(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("goal forecast")
	id := fs.Int64("id", 0, "goal id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}

	g, err := a.goals.GetGoal(ctx, *id)
	if err != nil {
		return err
	}
	f, err := a.reports.Forecast(ctx, *id)
	if err != nil {
		return err
	}
	a.println(cli.ForecastView(g, f))
	return nil
}

func runGoalDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("goal delete")
	id := fs.Int64("id", 0, "goal id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.goals.DeleteGoal(ctx, *id); err != nil {
		return err
	}
	a.printf("Deleted goal %d\n", *id)
	return nil
}
