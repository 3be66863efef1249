package analytics

import (
	"sort"

	"tally/internal/core"
)

// Streak is a run of consecutive completion days.
type Streak struct {
	Length int       `json:"length"`
	Start  core.Date `json:"start"`
	End    core.Date `json:"end"`
}

// LongestStreak returns the longest run of dates where each one is exactly one
// day after the previous. Among runs of equal length the most recent wins.
// It reports false when dates is empty.
func LongestStreak(dates []core.Date) (Streak, bool) {
	days := normalizeDates(dates)
	if len(days) == 0 {
		return Streak{}, false
	}

	best := Streak{Length: 1, Start: days[0], End: days[0]}
	cur := best
	for _, d := range days[1:] {
		if cur.End.AddDays(1).Equal(d.Time) {
			cur.End = d
			cur.Length++
		} else {
			cur = Streak{Length: 1, Start: d, End: d}
		}
		if cur.Length >= best.Length {
			best = cur
		}
	}
	return best, true
}

// normalizeDates returns a sorted copy of dates with duplicates removed.
func normalizeDates(dates []core.Date) []core.Date {
	days := make([]core.Date, 0, len(dates))
	seen := make(map[string]bool, len(dates))
	for _, d := range dates {
		d = core.DateOf(d.Time)
		key := d.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j].Time) })
	return days
}
