package services

import (
	"context"
	"log/slog"
	"strings"

	"tally/internal/core"
	"tally/internal/storage"
)

type GoalInput struct {
	Name        string `validate:"required,max=100"`
	Target      string `validate:"required,amount"`
	Current     string `validate:"omitempty,amount"`
	TargetDate  string `validate:"required,datetime=2006-01-02"`
	Priority    string `validate:"omitempty,priority"`
	Description string `validate:"max=500"`
}

// GoalService manages savings goals.
type GoalService struct {
	storage *storage.SQLiteRepository
}

func NewGoalService(storage *storage.SQLiteRepository) *GoalService {
	return &GoalService{storage: storage}
}

// CreateGoal stores a new goal. Priority defaults to normal and the current
// amount to zero.
func (s *GoalService) CreateGoal(ctx context.Context, in GoalInput) (core.FinancialGoal, error) {
	if err := validateInput(in); err != nil {
		return core.FinancialGoal{}, err
	}
	target, err := parseAmount(in.Target)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	var current core.Money
	if in.Current != "" {
		if current, err = parseAmount(in.Current); err != nil {
			return core.FinancialGoal{}, err
		}
	}
	date, err := core.ParseDate(in.TargetDate)
	if err != nil {
		return core.FinancialGoal{}, err
	}
	priority := core.Priority(in.Priority)
	if priority == "" {
		priority = core.PriorityNormal
	}

	g := core.FinancialGoal{
		Name:        strings.TrimSpace(in.Name),
		Target:      target,
		Current:     current,
		TargetDate:  date,
		Priority:    priority,
		Description: in.Description,
	}
	if err := g.Validate(); err != nil {
		return core.FinancialGoal{}, err
	}
	return s.storage.CreateGoal(ctx, g)
}

func (s *GoalService) GetGoal(ctx context.Context, id int64) (core.FinancialGoal, error) {
	return s.storage.GetGoal(ctx, id)
}

// ListGoals returns goals from high to low priority, then by target date.
func (s *GoalService) ListGoals(ctx context.Context) ([]core.FinancialGoal, error) {
	return s.storage.ListGoals(ctx)
}

// UpdateProgress sets the amount saved so far. Zero is allowed.
func (s *GoalService) UpdateProgress(ctx context.Context, id int64, current core.Money) error {
	if current.Cents < 0 {
		return core.ErrInvalidAmount
	}
	if err := s.storage.UpdateGoalProgress(ctx, id, current); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Goal progress updated", "goal_id", id, "current_cents", current.Cents)
	return nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, id int64) error {
	return s.storage.DeleteGoal(ctx, id)
}
