// Package core holds the domain types shared by every layer: categories,
// transactions, budgets, goals, habits and recipes, plus the calendar and
// money helpers they are expressed in.
//
// Amounts are integer cents. Decimal arithmetic (percentages, projections)
// goes through shopspring/decimal and is rounded back to cents.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxCents keeps parsed amounts well inside int64 so sums cannot overflow.
var maxCents = decimal.New(1<<62, 0)

// ParseDecimalToCents converts a positive decimal string such as "12.34" or
// "12,34" to cents, rounding the third decimal half up. Signs, exponents,
// zero and amounts that round to zero are rejected with ErrInvalidAmount.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.ContainsAny(s, "+-eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(maxCents) {
		return 0, ErrInvalidAmount
	}
	return MoneyFromDecimal(d).Cents, nil
}

// Units returns the amount in whole currency units as a float64 for display.
// Use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Decimal returns the amount in whole currency units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats the amount with two decimals, e.g. "-12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string so no precision is lost.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	*m = MoneyFromDecimal(d)
	return nil
}

// MoneyFromDecimal converts whole currency units to cents, rounding half away
// from zero.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Shift(2).Round(0).IntPart()}
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}
