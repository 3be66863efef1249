package analytics

import (
	"testing"

	"tally/internal/core"
)

func TestSummarizeLogs(t *testing.T) {
	logs := []core.HabitLog{
		{Date: core.NewDate(2024, 5, 1), Completed: true},
		{Date: core.NewDate(2024, 5, 2), Completed: false},
		{Date: core.NewDate(2024, 5, 3), Completed: true},
	}
	stats := SummarizeLogs(logs)
	if stats.TotalDays != 3 || stats.Completed != 2 || stats.SuccessRate != 66.7 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if empty := SummarizeLogs(nil); empty.SuccessRate != 0 || empty.TotalDays != 0 {
		t.Fatalf("unexpected empty stats %+v", empty)
	}
}

func TestDueReminders(t *testing.T) {
	today := core.NewDate(2024, 5, 10)
	activity := []HabitActivity{
		{Habit: core.Habit{ID: 1, Name: "Read", Active: true}, LastCompleted: core.NewDate(2024, 5, 9)},
		{Habit: core.Habit{ID: 2, Name: "Run", Active: true}, LastCompleted: core.NewDate(2024, 5, 8)},
		{Habit: core.Habit{ID: 3, Name: "Stretch", Active: true}, LastCompleted: core.NewDate(2024, 5, 7)},
		{Habit: core.Habit{ID: 4, Name: "Journal", Active: true}},
		{Habit: core.Habit{ID: 5, Name: "Swim", Active: true}, LastCompleted: core.NewDate(2024, 4, 1)},
		{Habit: core.Habit{ID: 6, Name: "Paused", Active: false}},
	}

	reminders := DueReminders(activity, today, ReminderAfterDays)

	want := []string{"Swim", "Stretch", "Journal"}
	if len(reminders) != len(want) {
		t.Fatalf("expected %d reminders, got %+v", len(want), reminders)
	}
	for i, name := range want {
		if reminders[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, reminders[i].Name)
		}
	}
	if reminders[1].DaysSince != 3 || !reminders[2].Never {
		t.Fatalf("unexpected reminder details %+v", reminders)
	}
}

func TestEarnedBadges(t *testing.T) {
	tests := []struct {
		completed int
		want      []string
	}{
		{0, nil},
		{6, nil},
		{7, []string{"Week"}},
		{31, []string{"Week", "Month"}},
		{100, []string{"Week", "Month", "Century"}},
	}
	for _, tt := range tests {
		got := EarnedBadges(tt.completed)
		if len(got) != len(tt.want) {
			t.Fatalf("%d completed: got %d badges, want %d", tt.completed, len(got), len(tt.want))
		}
		for i, name := range tt.want {
			if got[i].Name != name {
				t.Fatalf("%d completed: badge %d = %s, want %s", tt.completed, i, got[i].Name, name)
			}
		}
	}
}
