package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/lipgloss/tree"

	"tally/internal/analytics"
	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

// Styles used by every rendered view.
type Styles struct {
	Header  lipgloss.Style
	Income  lipgloss.Style
	Expense lipgloss.Style
	Muted   lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
	Summary lipgloss.Style
}

var styles = Styles{
	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
	Income:  lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
	Expense: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
	Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
	Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")),
	Bad:     lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
	Summary: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.Muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.Header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func percent(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

func statusLabel(s analytics.BudgetStatus) string {
	switch s {
	case analytics.StatusNearOverrun:
		return styles.Warn.Render(string(s))
	case analytics.StatusOver:
		return styles.Bad.Render(string(s))
	}
	return styles.Income.Render(string(s))
}

// CategoryTree renders the resolved hierarchy, one branch per root.
func CategoryTree(nodes []analytics.CategoryNode) string {
	if len(nodes) == 0 {
		return styles.Muted.Render("no categories")
	}
	root := tree.New()
	branches := make(map[int64]*tree.Tree, len(nodes))
	for _, n := range nodes {
		label := fmt.Sprintf("%s %s", n.Name, styles.Muted.Render(fmt.Sprintf("#%d %s", n.ID, n.Type)))
		branch := tree.Root(label)
		branches[n.ID] = branch
		if n.ParentID != nil {
			if parent, ok := branches[*n.ParentID]; ok {
				parent.Child(branch)
				continue
			}
		}
		root.Child(branch)
	}
	return root.String()
}

func PeriodTable(r analytics.PeriodReport) string {
	t := newTable("Category", "Type", "Count", "Total")
	for _, c := range r.Categories {
		t.Row(c.Name, string(c.Type), strconv.Itoa(c.Count), c.Total.String())
	}
	summary := fmt.Sprintf("%s → %s\nIncome  %s\nExpense %s\nBalance %s",
		r.From, r.To,
		styles.Income.Render(r.Income.String()),
		styles.Expense.Render(r.Expense.String()),
		r.Balance.String())
	return lipgloss.JoinVertical(lipgloss.Left, t.String(), styles.Summary.Render(summary))
}

func DynamicsTable(buckets []analytics.BucketTotal) string {
	t := newTable("Period", "Income", "Expense", "Balance")
	for _, b := range buckets {
		t.Row(b.Key, b.Income.String(), b.Expense.String(), b.Balance.String())
	}
	return t.String()
}

func ComparisonTable(c analytics.Comparison) string {
	t := newTable("Category", "Type", c.PreviousKey, c.CurrentKey, "Delta", "Delta %")
	for _, r := range c.Rows {
		pct := "n/a"
		if r.DeltaPercent != nil {
			pct = percent(*r.DeltaPercent)
		}
		t.Row(r.Name, string(r.Type), r.Previous.String(), r.Current.String(), r.Delta.String(), pct)
	}
	return t.String()
}

func BudgetTable(a analytics.BudgetAnalysis) string {
	t := newTable("Category", "Planned", "Spent", "Remaining", "Used", "Status")
	for _, l := range a.Lines {
		t.Row(l.Name, l.Planned.String(), l.Spent.String(), l.Remaining.String(), percent(l.Utilization), statusLabel(l.Status))
	}
	t.Row(styles.Header.Render("Total"), a.TotalPlanned.String(), a.TotalSpent.String(), a.TotalPlanned.Sub(a.TotalSpent).String(), "", "")
	return t.String()
}

func ForecastView(g core.FinancialGoal, f analytics.Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styles.Header.Render(g.Name))
	fmt.Fprintf(&b, "Target          %s by %s\n", g.Target, g.TargetDate)
	fmt.Fprintf(&b, "Current         %s\n", g.Current)
	fmt.Fprintf(&b, "Monthly savings %s\n", f.MonthlySavings)
	fmt.Fprintf(&b, "Months left     %.2f (%d days)\n", f.MonthsRemaining, f.DaysRemaining)
	fmt.Fprintf(&b, "Projected       %s\n", f.Projected)
	if f.Sufficient {
		fmt.Fprintf(&b, "%s", styles.Income.Render("On track, surplus "+f.Surplus.String()))
	} else {
		fmt.Fprintf(&b, "%s", styles.Bad.Render("Short by "+f.Shortfall.String()))
	}
	return styles.Summary.Render(b.String())
}

func GoalsTable(goals []services.GoalStatus) string {
	t := newTable("ID", "Goal", "Priority", "Current", "Target", "Due", "Progress")
	for _, g := range goals {
		t.Row(strconv.FormatInt(g.Goal.ID, 10), g.Goal.Name, string(g.Goal.Priority),
			g.Goal.Current.String(), g.Goal.Target.String(), g.Goal.TargetDate.String(), percent(g.Progress))
	}
	return t.String()
}

func TransactionsTable(records []core.TransactionRecord) string {
	t := newTable("ID", "Date", "Category", "Type", "Amount")
	for _, r := range records {
		amount := styles.Expense.Render(r.Amount.String())
		if r.CategoryType == core.Income {
			amount = styles.Income.Render(r.Amount.String())
		}
		t.Row(strconv.FormatInt(r.TransactionID, 10), r.Date.String(), r.CategoryName, string(r.CategoryType), amount)
	}
	return t.String()
}

func RecurringTable(templates []core.RecurringTransaction) string {
	t := newTable("ID", "Description", "Every", "Amount", "Start", "Last run")
	for _, rt := range templates {
		last := "never"
		if !rt.LastExecuted.IsZero() {
			last = rt.LastExecuted.String()
		}
		t.Row(strconv.FormatInt(rt.ID, 10), rt.Description, string(rt.Every), rt.Amount.String(), rt.StartDate.String(), last)
	}
	return t.String()
}

func HabitsTable(habits []core.Habit) string {
	t := newTable("ID", "Habit", "Category", "Frequency", "Active")
	for _, h := range habits {
		t.Row(strconv.FormatInt(h.ID, 10), h.Name, h.Category, h.Frequency, strconv.FormatBool(h.Active))
	}
	return t.String()
}

func HabitStatsTable(stats []analytics.CompletionStats) string {
	t := newTable("Habit", "Logged", "Completed", "Success")
	for _, s := range stats {
		t.Row(s.Name, strconv.Itoa(s.TotalDays), strconv.Itoa(s.Completed), percent(s.SuccessRate))
	}
	return t.String()
}

func HabitReportView(r services.HabitReport) string {
	streak := "no completions yet"
	if r.Streak != nil {
		streak = fmt.Sprintf("%d days (%s → %s)", r.Streak.Length, r.Streak.Start, r.Streak.End)
	}
	body := fmt.Sprintf("%s\nLongest streak %s\nLast 7 days    %d/%d (%s)\nLast 30 days   %d/%d (%s)",
		styles.Header.Render(r.Habit.Name), streak,
		r.Weekly.Completed, r.Weekly.TotalDays, percent(r.Weekly.SuccessRate),
		r.Monthly.Completed, r.Monthly.TotalDays, percent(r.Monthly.SuccessRate))
	return styles.Summary.Render(body)
}

func RemindersTable(reminders []analytics.Reminder) string {
	if len(reminders) == 0 {
		return styles.Income.Render("All habits are up to date")
	}
	t := newTable("Habit", "Last completed", "Days since")
	for _, r := range reminders {
		if r.Never {
			t.Row(r.Name, styles.Muted.Render("never"), "")
			continue
		}
		t.Row(r.Name, r.LastCompleted.String(), strconv.Itoa(r.DaysSince))
	}
	return t.String()
}

func BadgesLine(badges []analytics.Badge) string {
	if len(badges) == 0 {
		return ""
	}
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return styles.Income.Render("Achievement unlocked: " + strings.Join(names, ", "))
}

func RecipesTable(recipes []core.Recipe) string {
	t := newTable("ID", "Recipe", "Category", "Minutes", "Rating")
	for _, r := range recipes {
		t.Row(strconv.FormatInt(r.ID, 10), r.Name, r.Category, strconv.Itoa(r.CookingMinutes), strconv.FormatFloat(r.Rating, 'f', 1, 64))
	}
	return t.String()
}

func RecipeStatsTable(stats []storage.RecipeCategoryStats) string {
	t := newTable("Category", "Recipes", "Avg rating", "Avg minutes")
	for _, s := range stats {
		t.Row(s.Category, strconv.Itoa(s.Count),
			strconv.FormatFloat(s.AverageRating, 'f', 1, 64),
			strconv.FormatFloat(s.AverageMinutes, 'f', 1, 64))
	}
	return t.String()
}

func AlertsTable(alerts []core.BudgetAlert) string {
	if len(alerts) == 0 {
		return styles.Muted.Render("No budget alerts")
	}
	t := newTable("Received", "Category", "Planned", "Spent", "Used", "Status")
	for _, a := range alerts {
		t.Row(a.ReceivedAt.Format("2006-01-02 15:04"), a.Category, a.Planned.String(), a.Spent.String(),
			percent(a.Utilization), statusLabel(analytics.BudgetStatus(a.Status)))
	}
	return t.String()
}
