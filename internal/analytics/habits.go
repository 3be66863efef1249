package analytics

import (
	"sort"

	"tally/internal/core"
)

// ReminderAfterDays is how long a habit may go without completion before it
// shows up in reminders.
const ReminderAfterDays = 2

// Achievement thresholds, in completed days.
const (
	WeekBadgeThreshold    = 7
	MonthBadgeThreshold   = 30
	CenturyBadgeThreshold = 100
)

// Badge is an achievement unlocked by completing a habit often enough.
type Badge struct {
	Threshold   int    `json:"threshold"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Badges lists every achievement in ascending threshold order.
var Badges = []Badge{
	{Threshold: WeekBadgeThreshold, Name: "Week", Description: "Completed 7 days"},
	{Threshold: MonthBadgeThreshold, Name: "Month", Description: "Completed 30 days"},
	{Threshold: CenturyBadgeThreshold, Name: "Century", Description: "Completed 100 days"},
}

// CompletionStats summarizes a habit's log over a window.
type CompletionStats struct {
	HabitID     int64   `json:"habit_id"`
	Name        string  `json:"name"`
	TotalDays   int     `json:"total_days"`
	Completed   int     `json:"completed"`
	SuccessRate float64 `json:"success_rate"`
}

// HabitActivity pairs a habit with its most recent completion, if any.
type HabitActivity struct {
	Habit         core.Habit
	LastCompleted core.Date // zero when never completed
}

// Reminder flags a habit that has not been completed recently.
type Reminder struct {
	HabitID       int64     `json:"habit_id"`
	Name          string    `json:"name"`
	LastCompleted core.Date `json:"last_completed"`
	DaysSince     int       `json:"days_since"`
	Never         bool      `json:"never"`
}

// SummarizeLogs counts logged and completed days. The success rate is
// completed / logged * 100 rounded to one decimal, 0 with no logs.
func SummarizeLogs(logs []core.HabitLog) CompletionStats {
	var stats CompletionStats
	for _, l := range logs {
		stats.TotalDays++
		if l.Completed {
			stats.Completed++
		}
	}
	stats.SuccessRate = percentOf(int64(stats.Completed), int64(stats.TotalDays))
	return stats
}

// DueReminders returns active habits never completed or last completed more
// than afterDays days before today. The longest neglected come first and
// never completed habits last.
func DueReminders(activity []HabitActivity, today core.Date, afterDays int) []Reminder {
	reminders := []Reminder{}
	for _, a := range activity {
		if !a.Habit.Active {
			continue
		}
		if a.LastCompleted.IsZero() {
			reminders = append(reminders, Reminder{HabitID: a.Habit.ID, Name: a.Habit.Name, Never: true})
			continue
		}
		since := a.LastCompleted.DaysUntil(today)
		if since > afterDays {
			reminders = append(reminders, Reminder{
				HabitID:       a.Habit.ID,
				Name:          a.Habit.Name,
				LastCompleted: a.LastCompleted,
				DaysSince:     since,
			})
		}
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		a, b := reminders[i], reminders[j]
		if a.Never != b.Never {
			return !a.Never
		}
		if a.DaysSince != b.DaysSince {
			return a.DaysSince > b.DaysSince
		}
		return a.Name < b.Name
	})
	return reminders
}

// EarnedBadges returns every badge whose threshold completed has reached.
func EarnedBadges(completed int) []Badge {
	var earned []Badge
	for _, b := range Badges {
		if completed >= b.Threshold {
			earned = append(earned, b)
		}
	}
	return earned
}
