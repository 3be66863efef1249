package analytics

import (
	"sort"

	"tally/internal/core"
)

// Utilization bands, as a percentage of the planned amount.
const (
	WithinBudgetPercent = 100
	NearOverrunPercent  = 110
)

type BudgetStatus string

const (
	StatusWithin      BudgetStatus = "within"
	StatusNearOverrun BudgetStatus = "near_overrun"
	StatusOver        BudgetStatus = "over"
)

// BudgetLine is planned versus actual spend for one expense category.
type BudgetLine struct {
	CategoryID  int64        `json:"category_id"`
	Name        string       `json:"name"`
	Planned     core.Money   `json:"planned"`
	Spent       core.Money   `json:"spent"`
	Remaining   core.Money   `json:"remaining"`
	Utilization float64      `json:"utilization"`
	Status      BudgetStatus `json:"status"`
}

// BudgetAnalysis is the per-category utilization for one month plus totals.
type BudgetAnalysis struct {
	Month        core.YearMonth `json:"month"`
	Lines        []BudgetLine   `json:"lines"`
	TotalPlanned core.Money     `json:"total_planned"`
	TotalSpent   core.Money     `json:"total_spent"`
}

// AnalyzeBudget compares planned and spent amounts for every expense category.
// Categories without a budget count as planned 0. Lines are ordered by
// descending spend, then by name.
func AnalyzeBudget(month core.YearMonth, categories []core.Category, planned, spent map[int64]core.Money) BudgetAnalysis {
	analysis := BudgetAnalysis{Month: month, Lines: []BudgetLine{}}
	for _, c := range categories {
		if c.Type != core.Expense {
			continue
		}
		p, s := planned[c.ID], spent[c.ID]
		analysis.Lines = append(analysis.Lines, BudgetLine{
			CategoryID:  c.ID,
			Name:        c.Name,
			Planned:     p,
			Spent:       s,
			Remaining:   p.Sub(s),
			Utilization: UtilizationPercent(p, s),
			Status:      ClassifyUtilization(p, s),
		})
		analysis.TotalPlanned = analysis.TotalPlanned.Add(p)
		analysis.TotalSpent = analysis.TotalSpent.Add(s)
	}
	sort.SliceStable(analysis.Lines, func(i, j int) bool {
		a, b := analysis.Lines[i], analysis.Lines[j]
		if a.Spent.Cents != b.Spent.Cents {
			return a.Spent.Cents > b.Spent.Cents
		}
		return a.Name < b.Name
	})
	return analysis
}

// UtilizationPercent returns spent / planned * 100 rounded to one decimal, or 0
// when nothing was planned.
func UtilizationPercent(planned, spent core.Money) float64 {
	return percentOf(spent.Cents, planned.Cents)
}

// ClassifyUtilization places spent into a band relative to planned.
func ClassifyUtilization(planned, spent core.Money) BudgetStatus {
	switch {
	case spent.Cents*100 <= planned.Cents*WithinBudgetPercent:
		return StatusWithin
	case spent.Cents*100 <= planned.Cents*NearOverrunPercent:
		return StatusNearOverrun
	default:
		return StatusOver
	}
}
