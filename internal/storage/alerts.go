package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/apperr"
	"tally/internal/core"
)

// RecordBudgetAlert stores a consumed alert. Redelivered messages are ignored;
// the result reports whether the alert was new.
func (r *SQLiteRepository) RecordBudgetAlert(ctx context.Context, a core.BudgetAlert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_alerts (message_id, category_id, category_name, month, planned_cents, spent_cents, utilization, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (message_id) DO NOTHING`,
		a.MessageID, a.CategoryID, a.Category, a.Month.String(), a.Planned.Cents, a.Spent.Cents, a.Utilization, a.Status)
	if err != nil {
		return false, fmt.Errorf("record budget alert: %w", mapError(err, apperr.ErrNotFound))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record budget alert: %w", err)
	}
	if n == 1 {
		slog.InfoContext(ctx, "Budget alert saved to SQLite",
			"message_id", a.MessageID,
			"category_id", a.CategoryID,
			"month", a.Month.String(),
			"status", a.Status)
	}
	return n == 1, nil
}

// ListBudgetAlerts returns the alerts received for month, newest first.
func (r *SQLiteRepository) ListBudgetAlerts(ctx context.Context, month core.YearMonth) ([]core.BudgetAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT message_id, category_id, category_name, month, planned_cents, spent_cents, utilization, status,
			strftime('%Y-%m-%dT%H:%M:%SZ', received_at)
		FROM budget_alerts WHERE month = ?
		ORDER BY received_at DESC, id DESC`, month.String())
	if err != nil {
		return nil, fmt.Errorf("list budget alerts: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetAlert
	for rows.Next() {
		var (
			a        core.BudgetAlert
			m        string
			received string
		)
		if err := rows.Scan(&a.MessageID, &a.CategoryID, &a.Category, &m, &a.Planned.Cents, &a.Spent.Cents, &a.Utilization, &a.Status, &received); err != nil {
			return nil, fmt.Errorf("scan budget alert: %w", err)
		}
		if a.Month, err = core.ParseYearMonth(m); err != nil {
			return nil, fmt.Errorf("parse alert month %q: %w", m, err)
		}
		a.ReceivedAt, _ = time.Parse(time.RFC3339, received)
		out = append(out, a)
	}
	return out, rows.Err()
}
