package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"tally/internal/apperr"
	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

// app carries the services every subcommand works with.
type app struct {
	logger  *log.Logger
	repo    *storage.SQLiteRepository
	ledger  *services.LedgerService
	reports *services.ReportService
	goals   *services.GoalService
	habits  *services.HabitService
	recipes *services.RecipeService
	out     io.Writer
	errOut  io.Writer
	now     func() time.Time
}

func newApp(logger *log.Logger, repo *storage.SQLiteRepository, publisher services.AlertPublisher, now func() time.Time) *app {
	return &app{
		logger:  logger,
		repo:    repo,
		ledger:  services.NewLedgerService(repo, publisher),
		reports: services.NewReportService(repo).WithClock(now),
		goals:   services.NewGoalService(repo),
		habits:  services.NewHabitService(repo),
		recipes: services.NewRecipeService(repo),
		out:     os.Stdout,
		errOut:  os.Stderr,
		now:     now,
	}
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var groups = map[string]map[string]command{
	"category":  categoryCommands,
	"tx":        transactionCommands,
	"budget":    budgetCommands,
	"report":    reportCommands,
	"goal":      goalCommands,
	"recurring": recurringCommands,
	"habit":     habitCommands,
	"recipe":    recipeCommands,
	"demo": {
		"seed": {"Fill an empty database with sample data", runDemo},
	},
}

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	if len(os.Args) < 2 || isHelp(os.Args[1]) {
		printUsage(os.Stdout)
		return
	}

	repo := cli.InitSQLite(logger, cfg.DBPath)

	var publisher services.AlertPublisher
	if client := cli.InitAMQP(logger, cfg); client != nil {
		publisher = client
	}
	a := newApp(logger, repo, publisher, time.Now)

	err := run(context.Background(), a, os.Args[1:])
	if cerr := a.ledger.Close(); cerr != nil {
		logger.Warn("Failed to close connections", "error", cerr)
	}
	if err != nil {
		os.Exit(exitCode(a.errOut, err))
	}
}

// run dispatches args to a subcommand.
func run(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	group, ok := groups[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	if len(args) < 2 || isHelp(args[1]) {
		printGroupUsage(a.out, args[0], group)
		return nil
	}
	cmd, ok := group[args[1]]
	if !ok {
		return fmt.Errorf("%w: unknown %s command %q", errUsage, args[0], args[1])
	}
	return cmd.run(ctx, a, args[2:])
}

var errUsage = errors.New("usage")

// exitCode prints err and maps it to a process exit status: 2 for usage
// errors, 1 for everything else.
func exitCode(w io.Writer, err error) int {
	switch {
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(w, "error: %v\nRun 'tally help' for usage.\n", err)
		return 2
	}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(w, "error: %s\n", appErr.Message)
	} else {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return 1
}

func isHelp(s string) bool {
	return s == "help" || s == "-h" || s == "--help"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "tally - budget, habit and recipe tracker")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  tally <group> <command> [options]")
	fmt.Fprintln(w, "\nGroups:")
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		fmt.Fprintf(w, "  %-10s %s\n", name, slices.Sorted(maps.Keys(groups[name])))
	}
	fmt.Fprintln(w, "\nRun 'tally <group> help' for the commands of a group.")
}

func printGroupUsage(w io.Writer, name string, group map[string]command) {
	fmt.Fprintf(w, "Usage: tally %s <command> [options]\n\nCommands:\n", name)
	for _, cmd := range slices.Sorted(maps.Keys(group)) {
		fmt.Fprintf(w, "  %-10s %s\n", cmd, group[cmd].summary)
	}
}

// newFlags returns a flag set that reports errors instead of exiting.
func (a *app) newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// parseFlags parses args and returns the names of the flags that were set.
func parseFlags(fs *flag.FlagSet, args []string) (map[string]bool, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set, nil
}

func required(fs *flag.FlagSet, set map[string]bool, names ...string) error {
	for _, n := range names {
		if !set[n] {
			return fmt.Errorf("%w: %s requires -%s", errUsage, fs.Name(), n)
		}
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(s string) {
	if s != "" {
		fmt.Fprintln(a.out, s)
	}
}

// parseDateFlag parses v, or returns fallback when v is empty.
func parseDateFlag(v string, fallback core.Date) (core.Date, error) {
	if v == "" {
		return fallback, nil
	}
	return core.ParseDate(v)
}

func parseMonthFlag(v string, fallback core.YearMonth) (core.YearMonth, error) {
	if v == "" {
		return fallback, nil
	}
	return core.ParseYearMonth(v)
}

func parseMoneyFlag(v string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(v)
	if err != nil {
		return core.Money{}, apperr.WithMessage(apperr.ErrInvalidAmount, fmt.Sprintf("invalid amount %q", v))
	}
	return core.Money{Cents: cents}, nil
}
