package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"tally/internal/apperr"
	"tally/internal/core"
)

// CategoryTotal is the sum of one category's transactions.
type CategoryTotal struct {
	CategoryID int64             `json:"category_id"`
	Name       string            `json:"name"`
	Type       core.CategoryType `json:"type"`
	Total      core.Money        `json:"total"`
	Count      int               `json:"count"`
}

// PeriodReport summarizes transactions between two dates, both inclusive.
type PeriodReport struct {
	From       core.Date       `json:"from"`
	To         core.Date       `json:"to"`
	Categories []CategoryTotal `json:"categories"`
	Income     core.Money      `json:"income"`
	Expense    core.Money      `json:"expense"`
	Total      core.Money      `json:"total"`
	Balance    core.Money      `json:"balance"`
}

// BucketTotal holds income and expense for one calendar bucket.
type BucketTotal struct {
	Key     string     `json:"key"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Balance core.Money `json:"balance"`
}

// ComparisonRow compares one category across two consecutive buckets.
// DeltaPercent is nil when the previous bucket had nothing to compare with.
type ComparisonRow struct {
	CategoryID   int64             `json:"category_id"`
	Name         string            `json:"name"`
	Type         core.CategoryType `json:"type"`
	Previous     core.Money        `json:"previous"`
	Current      core.Money        `json:"current"`
	Delta        core.Money        `json:"delta"`
	DeltaPercent *float64          `json:"delta_percent"`
}

// Comparison is a bucket-over-bucket report.
type Comparison struct {
	Granularity core.Granularity `json:"granularity"`
	CurrentKey  string           `json:"current"`
	PreviousKey string           `json:"previous"`
	Rows        []ComparisonRow  `json:"rows"`
}

// AggregatePeriod sums records dated within [from, to] per category and per type.
// Categories come income first, then expense, each by descending total.
func AggregatePeriod(records []core.TransactionRecord, from, to core.Date) (PeriodReport, error) {
	if from.After(to.Time) {
		return PeriodReport{}, apperr.ErrInvalidPeriod
	}

	report := PeriodReport{From: from, To: to}
	byCategory := make(map[int64]*CategoryTotal)
	for _, r := range records {
		if r.Date.Before(from.Time) || r.Date.After(to.Time) {
			continue
		}
		ct, ok := byCategory[r.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: r.CategoryID, Name: r.CategoryName, Type: r.CategoryType}
			byCategory[r.CategoryID] = ct
		}
		ct.Total = ct.Total.Add(r.Amount)
		ct.Count++

		switch r.CategoryType {
		case core.Income:
			report.Income = report.Income.Add(r.Amount)
		case core.Expense:
			report.Expense = report.Expense.Add(r.Amount)
		}
	}

	report.Categories = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		report.Categories = append(report.Categories, *ct)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		a, b := report.Categories[i], report.Categories[j]
		if a.Type != b.Type {
			return a.Type == core.Income
		}
		if a.Total.Cents != b.Total.Cents {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Name < b.Name
	})

	report.Total = report.Income.Add(report.Expense)
	report.Balance = report.Income.Sub(report.Expense)
	return report, nil
}

// AggregateByBucket sums income and expense per calendar bucket, ordered by key.
func AggregateByBucket(records []core.TransactionRecord, g core.Granularity) []BucketTotal {
	buckets := make(map[string]*BucketTotal)
	for _, r := range records {
		key := core.BucketKey(r.Date, g)
		b, ok := buckets[key]
		if !ok {
			b = &BucketTotal{Key: key}
			buckets[key] = b
		}
		switch r.CategoryType {
		case core.Income:
			b.Income = b.Income.Add(r.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(r.Amount)
		}
	}

	out := make([]BucketTotal, 0, len(buckets))
	for _, b := range buckets {
		b.Balance = b.Income.Sub(b.Expense)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// MonthlyDynamics returns one bucket per month of year that has transactions.
func MonthlyDynamics(records []core.TransactionRecord, year int) []BucketTotal {
	inYear := make([]core.TransactionRecord, 0, len(records))
	for _, r := range records {
		if r.Date.Year() == year {
			inYear = append(inYear, r)
		}
	}
	return AggregateByBucket(inYear, core.ByMonth)
}

// ComparePeriods compares per-category sums of the bucket containing anchor
// with the bucket right before it. Rows come income first, then by name.
func ComparePeriods(records []core.TransactionRecord, g core.Granularity, anchor core.Date) (Comparison, error) {
	if !g.Valid() {
		return Comparison{}, apperr.WithMessage(apperr.ErrInvalidRange, "Granularity must be day, week, month or year")
	}
	cmp := Comparison{
		Granularity: g,
		CurrentKey:  core.BucketKey(anchor, g),
		PreviousKey: core.BucketKey(core.PreviousBucket(anchor, g), g),
	}

	rows := make(map[int64]*ComparisonRow)
	for _, r := range records {
		key := core.BucketKey(r.Date, g)
		if key != cmp.CurrentKey && key != cmp.PreviousKey {
			continue
		}
		row, ok := rows[r.CategoryID]
		if !ok {
			row = &ComparisonRow{CategoryID: r.CategoryID, Name: r.CategoryName, Type: r.CategoryType}
			rows[r.CategoryID] = row
		}
		if key == cmp.CurrentKey {
			row.Current = row.Current.Add(r.Amount)
		} else {
			row.Previous = row.Previous.Add(r.Amount)
		}
	}

	cmp.Rows = make([]ComparisonRow, 0, len(rows))
	for _, row := range rows {
		row.Delta = row.Current.Sub(row.Previous)
		if row.Previous.Cents != 0 {
			pct := percentOf(row.Delta.Cents, row.Previous.Cents)
			row.DeltaPercent = &pct
		}
		cmp.Rows = append(cmp.Rows, *row)
	}
	sort.Slice(cmp.Rows, func(i, j int) bool {
		a, b := cmp.Rows[i], cmp.Rows[j]
		if a.Type != b.Type {
			return a.Type == core.Income
		}
		return a.Name < b.Name
	})
	return cmp, nil
}

// SpentByCategory sums expense records per category for month.
func SpentByCategory(records []core.TransactionRecord, month core.YearMonth) map[int64]core.Money {
	spent := make(map[int64]core.Money)
	for _, r := range records {
		if r.CategoryType != core.Expense || !month.Contains(r.Date) {
			continue
		}
		spent[r.CategoryID] = spent[r.CategoryID].Add(r.Amount)
	}
	return spent
}

// TrailingTotals sums income and expense over the days-long window ending on today.
func TrailingTotals(records []core.TransactionRecord, today core.Date, days int) (income, expense core.Money) {
	from := today.AddDays(-days)
	for _, r := range records {
		if r.Date.Before(from.Time) || r.Date.After(today.Time) {
			continue
		}
		switch r.CategoryType {
		case core.Income:
			income = income.Add(r.Amount)
		case core.Expense:
			expense = expense.Add(r.Amount)
		}
	}
	return income, expense
}

// percentOf returns part / whole * 100 rounded to one decimal.
func percentOf(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	pct := decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).
		Round(1)
	f, _ := pct.Float64()
	return f
}
