package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/analytics"
	"tally/internal/core"
	"tally/internal/storage"
)

type HabitInput struct {
	Name        string `validate:"required,max=100"`
	Description string `validate:"max=500"`
	Category    string `validate:"max=50"`
	Frequency   string `validate:"omitempty,oneof=daily weekly"`
	TargetTime  string `validate:"omitempty,datetime=15:04"`
}

// HabitService manages habits, their daily logs and achievements.
type HabitService struct {
	storage *storage.SQLiteRepository
}

func NewHabitService(storage *storage.SQLiteRepository) *HabitService {
	return &HabitService{storage: storage}
}

func (s *HabitService) CreateHabit(ctx context.Context, in HabitInput) (core.Habit, error) {
	if err := validateInput(in); err != nil {
		return core.Habit{}, err
	}
	freq := in.Frequency
	if freq == "" {
		freq = string(core.Daily)
	}
	return s.storage.CreateHabit(ctx, core.Habit{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Frequency:   freq,
		TargetTime:  in.TargetTime,
		Active:      true,
	})
}

func (s *HabitService) GetHabit(ctx context.Context, id int64) (core.Habit, error) {
	return s.storage.GetHabit(ctx, id)
}

func (s *HabitService) ListHabits(ctx context.Context, activeOnly bool) ([]core.Habit, error) {
	return s.storage.ListHabits(ctx, activeOnly)
}

func (s *HabitService) UpdateHabit(ctx context.Context, id int64, u storage.HabitUpdate) error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return core.ErrEmptyName
	}
	return s.storage.UpdateHabit(ctx, id, u)
}

// DeleteHabit removes a habit with its logs and achievements.
func (s *HabitService) DeleteHabit(ctx context.Context, id int64) error {
	return s.storage.DeleteHabit(ctx, id)
}

// LogCompletion marks the habit done on date and awards any badge the new
// completion count unlocks. It returns only badges earned by this call.
func (s *HabitService) LogCompletion(ctx context.Context, habitID int64, date core.Date, note string) ([]analytics.Badge, error) {
	if err := s.setLog(ctx, habitID, date, true, note); err != nil {
		return nil, err
	}

	completed, err := s.storage.CountCompleted(ctx, habitID)
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	var awarded []analytics.Badge
	for _, b := range analytics.EarnedBadges(completed) {
		added, err := s.storage.AddAchievement(ctx, core.Achievement{
			HabitID:     habitID,
			Badge:       b.Name,
			Description: b.Description,
		})
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", b.Name, err)
		}
		if added {
			slog.InfoContext(ctx, "Achievement unlocked", "habit_id", habitID, "badge", b.Name)
			awarded = append(awarded, b)
		}
	}
	return awarded, nil
}

// Unlog marks a logged day as not completed, keeping its note. A day that
// was never logged stays absent. Achievements already earned stay.
func (s *HabitService) Unlog(ctx context.Context, habitID int64, date core.Date) error {
	if err := date.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetHabit(ctx, habitID); err != nil {
		return err
	}
	changed, err := s.storage.UncompleteHabitLog(ctx, habitID, date)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Habit unlogged",
		"habit_id", habitID,
		"date", date.String(),
		"changed", changed)
	return nil
}

func (s *HabitService) setLog(ctx context.Context, habitID int64, date core.Date, completed bool, note string) error {
	if err := date.Validate(); err != nil {
		return err
	}
	if _, err := s.storage.GetHabit(ctx, habitID); err != nil {
		return err
	}
	if err := s.storage.UpsertHabitLog(ctx, core.HabitLog{
		HabitID:   habitID,
		Date:      date,
		Completed: completed,
		Note:      note,
	}); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Habit logged",
		"habit_id", habitID,
		"date", date.String(),
		"completed", completed)
	return nil
}

func (s *HabitService) ListAchievements(ctx context.Context, habitID int64) ([]core.Achievement, error) {
	if _, err := s.storage.GetHabit(ctx, habitID); err != nil {
		return nil, err
	}
	return s.storage.ListAchievements(ctx, habitID)
}
