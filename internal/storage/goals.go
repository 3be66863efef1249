package storage

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/apperr"
	"tally/internal/core"
)

const goalColumns = `id, name, target_cents, current_cents, target_date, priority, description`

func scanGoal(row interface{ Scan(...any) error }) (core.FinancialGoal, error) {
	var (
		g          core.FinancialGoal
		targetDate string
		priority   string
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Current.Cents, &targetDate, &priority, &g.Description); err != nil {
		return core.FinancialGoal{}, err
	}
	g.Priority = core.Priority(priority)
	d, err := core.ParseDate(targetDate)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("parse target date %q: %w", targetDate, err)
	}
	g.TargetDate = d
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO financial_goals (name, target_cents, current_cents, target_date, priority, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.Name, g.Target.Cents, g.Current.Cents, g.TargetDate.String(), string(g.Priority), g.Description)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("create goal: %w", mapError(err, apperr.ErrGoalNotFound))
	}
	if g.ID, err = res.LastInsertId(); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Financial goal saved to SQLite",
		"id", g.ID,
		"name", g.Name,
		"target_cents", g.Target.Cents,
		"target_date", g.TargetDate.String())
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id int64) (core.FinancialGoal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE id = ?`, id))
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("get goal: %w", mapError(err, apperr.ErrGoalNotFound))
	}
	return g, nil
}

// ListGoals returns goals by descending priority, then nearest target date.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.FinancialGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM financial_goals
		ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, target_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.FinancialGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoalProgress records how much has been saved toward a goal.
func (r *SQLiteRepository) UpdateGoalProgress(ctx context.Context, id int64, current core.Money) error {
	res, err := r.db.ExecContext(ctx, `UPDATE financial_goals SET current_cents = ? WHERE id = ?`, current.Cents, id)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", mapError(err, apperr.ErrGoalNotFound))
	}
	return expectAffected(res, apperr.ErrGoalNotFound)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM financial_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectAffected(res, apperr.ErrGoalNotFound)
}
