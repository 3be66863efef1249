package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tally/internal/apperr"
	"tally/internal/core"
)

// UpsertBudget sets the planned amount for a category and month, replacing
// any earlier plan for the same pair.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budgets (category_id, month, planned_cents) VALUES (?, ?, ?)
			ON CONFLICT (category_id, month)
			DO UPDATE SET planned_cents = excluded.planned_cents, updated_at = CURRENT_TIMESTAMP`,
			b.CategoryID, b.Month.String(), b.Planned.Cents)
		if err != nil {
			return fmt.Errorf("upsert budget: %w", mapError(err, apperr.ErrCategoryNotFound))
		}
		err = tx.QueryRowContext(ctx, `SELECT id FROM budgets WHERE category_id = ? AND month = ?`,
			b.CategoryID, b.Month.String()).Scan(&b.ID)
		if err != nil {
			return fmt.Errorf("read budget id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", b.ID,
		"category_id", b.CategoryID,
		"month", b.Month.String(),
		"planned_cents", b.Planned.Cents)
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, categoryID int64, month core.YearMonth) (core.Budget, error) {
	b := core.Budget{CategoryID: categoryID, Month: month}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, planned_cents FROM budgets WHERE category_id = ? AND month = ?`,
		categoryID, month.String()).Scan(&b.ID, &b.Planned.Cents)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", mapError(err, apperr.ErrBudgetNotFound))
	}
	return b, nil
}

// PlannedByCategory returns the planned amount of every category budgeted in month.
func (r *SQLiteRepository) PlannedByCategory(ctx context.Context, month core.YearMonth) (map[int64]core.Money, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_id, planned_cents FROM budgets WHERE month = ?`, month.String())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	planned := make(map[int64]core.Money)
	for rows.Next() {
		var (
			id int64
			m  core.Money
		)
		if err := rows.Scan(&id, &m.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		planned[id] = m
	}
	return planned, rows.Err()
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, categoryID int64, month core.YearMonth) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category_id = ? AND month = ?`, categoryID, month.String())
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectAffected(res, apperr.ErrBudgetNotFound)
}
