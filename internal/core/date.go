package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Granularity selects the bucket a date falls into when aggregating.
type Granularity string

const (
	ByDay   Granularity = "day"
	ByWeek  Granularity = "week"
	ByMonth Granularity = "month"
	ByYear  Granularity = "year"
)

// Date is a calendar day in UTC.
type Date struct {
	time.Time
}

// YearMonth identifies a calendar month, formatted as YYYY-MM.
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "2006-01-02", or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the date n calendar days later (earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// YearMonth returns the month d falls in.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Time.Month()}
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, ErrInvalidMonth
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m YearMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m YearMonth) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// Prev returns the preceding month, rolling January back to December.
func (m YearMonth) Prev() YearMonth {
	if m.Month == time.January {
		return YearMonth{Year: m.Year - 1, Month: time.December}
	}
	return YearMonth{Year: m.Year, Month: m.Month - 1}
}

// First returns the first day of the month.
func (m YearMonth) First() Date {
	return NewDate(m.Year, int(m.Month), 1)
}

// Last returns the last day of the month.
func (m YearMonth) Last() Date {
	return Date{Time: m.First().Time.AddDate(0, 1, -1)}
}

// Contains reports whether d falls in the month.
func (m YearMonth) Contains(d Date) bool {
	return d.Year() == m.Year && d.Time.Month() == m.Month
}

// Valid reports whether g is a supported granularity.
func (g Granularity) Valid() bool {
	switch g {
	case ByDay, ByWeek, ByMonth, ByYear:
		return true
	}
	return false
}

// BucketKey returns the sortable key of the bucket d falls in: 2006-01-02 for
// days, 2006-W01 for ISO weeks, 2006-01 for months and 2006 for years.
func BucketKey(d Date, g Granularity) string {
	switch g {
	case ByWeek:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case ByMonth:
		return d.YearMonth().String()
	case ByYear:
		return fmt.Sprintf("%04d", d.Year())
	default:
		return d.String()
	}
}

// PreviousBucket returns a date inside the bucket immediately before the one
// containing d.
func PreviousBucket(d Date, g Granularity) Date {
	switch g {
	case ByWeek:
		return d.AddDays(-7)
	case ByMonth:
		return d.YearMonth().Prev().First()
	case ByYear:
		return NewDate(d.Year()-1, 1, 1)
	default:
		return d.AddDays(-1)
	}
}
