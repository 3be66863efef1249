package main

import (
	"context"
	"fmt"

	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

var categoryCommands = map[string]command{
	"add":    {"Create a category, optionally under a parent", runCategoryAdd},
	"list":   {"List categories", runCategoryList},
	"tree":   {"Show the category hierarchy", runCategoryTree},
	"rename": {"Rename a category", runCategoryRename},
	"move":   {"Move a category under another parent or to the root", runCategoryMove},
	"delete": {"Delete a category with its children, budgets and transactions", runCategoryDelete},
}

var transactionCommands = map[string]command{
	"add":    {"Record a transaction", runTxAdd},
	"list":   {"List transactions in a date range", runTxList},
	"edit":   {"Change the amount, date or description of a transaction", runTxEdit},
	"delete": {"Delete a transaction", runTxDelete},
}

var budgetCommands = map[string]command{
	"set":    {"Set the planned amount of a category for a month", runBudgetSet},
	"delete": {"Remove a category's budget for a month", runBudgetDelete},
	"show":   {"Planned versus actual spend for a month", runBudgetShow},
	"alerts": {"Budget alerts received for a month", runBudgetAlerts},
}

var recurringCommands = map[string]command{
	"add":    {"Create a recurring transaction template", runRecurringAdd},
	"list":   {"List active templates", runRecurringList},
	"pause":  {"Stop a template from running", runRecurringPause},
	"resume": {"Resume a paused template", runRecurringResume},
	"delete": {"Delete a template", runRecurringDelete},
	"run":    {"Execute every template due on a day", runRecurringRun},
}

func runCategoryAdd(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("category add")
	name := fs.String("name", "", "category name")
	typ := fs.String("type", "expense", "income or expense")
	parent := fs.String("parent", "", "parent category name")
	desc := fs.String("desc", "", "description")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "name"); err != nil {
		return err
	}

	in := services.CategoryInput{Name: *name, Type: *typ, Description: *desc}
	if *parent != "" {
		p, err := a.ledger.CategoryByName(ctx, *parent)
		if err != nil {
			return err
		}
		in.ParentID = &p.ID
	}
	c, err := a.ledger.CreateCategory(ctx, in)
	if err != nil {
		return err
	}
	a.printf("Created category %q (id %d)\n", c.Name, c.ID)
	return nil
}

func runCategoryList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("category list")
	typ := fs.String("type", "", "filter by income or expense")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if *typ != "" && !core.CategoryType(*typ).Valid() {
		return core.ErrInvalidType
	}

	categories, err := a.ledger.ListCategories(ctx, core.CategoryType(*typ))
	if err != nil {
		return err
	}
	byID := make(map[int64]string, len(categories))
	for _, c := range categories {
		byID[c.ID] = c.Name
	}
	for _, c := range categories {
		parent := ""
		if c.ParentID != nil {
			parent = " < " + byID[*c.ParentID]
		}
		a.printf("%4d  %-8s %s%s\n", c.ID, c.Type, c.Name, parent)
	}
	return nil
}

func runCategoryTree(ctx context.Context, a *app, args []string) error {
	if _, err := parseFlags(a.newFlags("category tree"), args); err != nil {
		return err
	}
	nodes, err := a.reports.CategoryHierarchy(ctx)
	if err != nil {
		return err
	}
	a.println(cli.CategoryTree(nodes))
	return nil
}

func runCategoryRename(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("category rename")
	id := fs.Int64("id", 0, "category id")
	name := fs.String("name", "", "new name")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id", "name"); err != nil {
		return err
	}
	if err := a.ledger.UpdateCategory(ctx, *id, storage.CategoryUpdate{Name: name}); err != nil {
		return err
	}
	a.printf("Renamed category %d to %q\n", *id, *name)
	return nil
}

func runCategoryMove(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("category move")
	id := fs.Int64("id", 0, "category id")
	parent := fs.String("parent", "", "new parent category name")
	root := fs.Bool("root", false, "make the category a root")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if *root == (*parent != "") {
		return fmt.Errorf("%w: category move needs exactly one of -parent or -root", errUsage)
	}

	u := storage.CategoryUpdate{ClearParent: *root}
	if *parent != "" {
		p, err := a.ledger.CategoryByName(ctx, *parent)
		if err != nil {
			return err
		}
		u.ParentID = &p.ID
	}
	if err := a.ledger.UpdateCategory(ctx, *id, u); err != nil {
		return err
	}
	a.printf("Moved category %d\n", *id)
	return nil
}

func runCategoryDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("category delete")
	id := fs.Int64("id", 0, "category id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.ledger.DeleteCategory(ctx, *id); err != nil {
		return err
	}
	a.printf("Deleted category %d\n", *id)
	return nil
}

func runTxAdd(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("tx add")
	category := fs.String("category", "", "category name")
	amount := fs.String("amount", "", "amount, e.g. 12.50")
	date := fs.String("date", "", "date as YYYY-MM-DD (default today)")
	desc := fs.String("desc", "", "description")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "category", "amount"); err != nil {
		return err
	}
	if *date == "" {
		*date = a.today().String()
	}

	c, err := a.ledger.CategoryByName(ctx, *category)
	if err != nil {
		return err
	}
	tx, err := a.ledger.RecordTransaction(ctx, services.TransactionInput{
		CategoryID:  c.ID,
		Amount:      *amount,
		Date:        *date,
		Description: *desc,
	})
	if err != nil {
		return err
	}
	a.printf("Recorded %s %s on %s (id %d)\n", c.Type, tx.Amount, tx.Date, tx.ID)
	return nil
}

func runTxList(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("tx list")
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

	records, err := a.reports.Transactions(ctx, start, end)
	if err != nil {
		return err
	}
	a.println(cli.TransactionsTable(records))
	return nil
}

func runTxEdit(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("tx edit")
	id := fs.Int64("id", 0, "transaction id")
	amount := fs.String("amount", "", "new amount")
	date := fs.String("date", "", "new date")
	desc := fs.String("desc", "", "new description")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}

	var u storage.TransactionUpdate
	if set["amount"] {
		m, err := parseMoneyFlag(*amount)
		if err != nil {
			return err
		}
		u.Amount = &m
	}
	if set["date"] {
		d, err := core.ParseDate(*date)
		if err != nil {
			return err
		}
		u.Date = &d
	}
	if set["desc"] {
		u.Description = desc
	}
	if err := a.ledger.UpdateTransaction(ctx, *id, u); err != nil {
		return err
	}
	a.printf("Updated transaction %d\n", *id)
	return nil
}

func runTxDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("tx delete")
	id := fs.Int64("id", 0, "transaction id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.ledger.DeleteTransaction(ctx, *id); err != nil {
		return err
	}
	a.printf("Deleted transaction %d\n", *id)
	return nil
}

func runBudgetSet(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("budget set")
	category := fs.String("category", "", "expense category name")
	month := fs.String("month", "", "month as YYYY-MM (default this month)")
	amount := fs.String("amount", "", "planned amount")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "category", "amount"); err != nil {
		return err
	}
	if *month == "" {
		*month = a.today().YearMonth().String()
	}

	c, err := a.ledger.CategoryByName(ctx, *category)
	if err != nil {
		return err
	}
	b, err := a.ledger.SetBudget(ctx, services.BudgetInput{CategoryID: c.ID, Month: *month, Amount: *amount})
	if err != nil {
		return err
	}
	a.printf("Budget for %s in %s is %s\n", c.Name, b.Month, b.Planned)
	return nil
}

func runBudgetDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("budget delete")
	category := fs.String("category", "", "category name")
	month := fs.String("month", "", "month as YYYY-MM")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "category", "month"); err != nil {
		return err
	}
	m, err := core.ParseYearMonth(*month)
	if err != nil {
		return err
	}
	c, err := a.ledger.CategoryByName(ctx, *category)
	if err != nil {
		return err
	}
	if err := a.ledger.DeleteBudget(ctx, c.ID, m); err != nil {
		return err
	}
	a.printf("Removed budget for %s in %s\n", c.Name, m)
	return nil
}

func runBudgetShow(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("budget show")
	month := fs.String("month", "", "month as YYYY-MM (default this month)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	m, err := parseMonthFlag(*month, a.today().YearMonth())
	if err != nil {
		return err
	}
	analysis, err := a.reports.BudgetAnalysis(ctx, m)
	if err != nil {
		return err
	}
	a.println(cli.BudgetTable(analysis))
	return nil
}

func runBudgetAlerts(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("budget alerts")
	month := fs.String("month", "", "month as YYYY-MM (default this month)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	m, err := parseMonthFlag(*month, a.today().YearMonth())
	if err != nil {
		return err
	}
	alerts, err := a.reports.BudgetAlerts(ctx, m)
	if err != nil {
		return err
	}
	a.println(cli.AlertsTable(alerts))
	return nil
}

func runRecurringAdd(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recurring add")
	category := fs.String("category", "", "category name")
	amount := fs.String("amount", "", "amount of each occurrence")
	desc := fs.String("desc", "", "description")
	every := fs.String("every", string(core.Monthly), "daily, weekly, monthly or yearly")
	start := fs.String("start", "", "first day as YYYY-MM-DD (default today)")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "category", "amount", "desc"); err != nil {
		return err
	}
	if *start == "" {
		*start = a.today().String()
	}

	c, err := a.ledger.CategoryByName(ctx, *category)
	if err != nil {
		return err
	}
	rt, err := a.ledger.CreateRecurring(ctx, services.RecurringInput{
		CategoryID:  c.ID,
		Amount:      *amount,
		Description: *desc,
		Every:       *every,
		StartDate:   *start,
	})
	if err != nil {
		return err
	}
	a.printf("Created %s template %q (id %d)\n", rt.Every, rt.Description, rt.ID)
	return nil
}

func runRecurringList(ctx context.Context, a *app, args []string) error {
	if _, err := parseFlags(a.newFlags("recurring list"), args); err != nil {
		return err
	}
	templates, err := a.ledger.ListRecurring(ctx)
	if err != nil {
		return err
	}
	a.println(cli.RecurringTable(templates))
	return nil
}

func runRecurringPause(ctx context.Context, a *app, args []string) error {
	return setRecurringActive(ctx, a, "recurring pause", args, false)
}

func runRecurringResume(ctx context.Context, a *app, args []string) error {
	return setRecurringActive(ctx, a, "recurring resume", args, true)
}

func setRecurringActive(ctx context.Context, a *app, name string, args []string, active bool) error {
	fs := a.newFlags(name)
	id := fs.Int64("id", 0, "template id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.ledger.SetRecurringActive(ctx, *id, active); err != nil {
		return err
	}
	state := "paused"
	if active {
		state = "resumed"
	}
	a.printf("Template %d %s\n", *id, state)
	return nil
}

func runRecurringDelete(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recurring delete")
	id := fs.Int64("id", 0, "template id")
	set, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := required(fs, set, "id"); err != nil {
		return err
	}
	if err := a.ledger.DeleteRecurring(ctx, *id); err != nil {
		return err
	}
	a.printf("Deleted template %d\n", *id)
	return nil
}

func runRecurringRun(ctx context.Context, a *app, args []string) error {
	fs := a.newFlags("recurring run")
	date := fs.String("date", "", "day to run for as YYYY-MM-DD (default today)")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	day, err := parseDateFlag(*date, a.today())
	if err != nil {
		return err
	}
	n, err := services.NewRecurringProcessor(a.repo, a.ledger).ProcessDue(ctx, day)
	if err != nil {
		return err
	}
	a.printf("Created %d recurring transaction(s) for %s\n", n, day)
	return nil
}
