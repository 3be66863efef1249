package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tally/internal/apperr"
	"tally/internal/core"
)

const recurringColumns = `id, category_id, amount_cents, description, frequency, start_date, last_executed, is_active`

func scanRecurring(row interface{ Scan(...any) error }) (core.RecurringTransaction, error) {
	var (
		rt        core.RecurringTransaction
		every     string
		start     string
		lastExec  sql.NullString
		activeInt int
	)
	if err := row.Scan(&rt.ID, &rt.CategoryID, &rt.Amount.Cents, &rt.Description, &every, &start, &lastExec, &activeInt); err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.Every = core.RepetitionTypes(every)
	rt.Active = activeInt == 1

	var err error
	if rt.StartDate, err = core.ParseDate(start); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	if lastExec.Valid && lastExec.String != "" {
		if rt.LastExecuted, err = core.ParseDate(lastExec.String); err != nil {
			return core.RecurringTransaction{}, fmt.Errorf("parse last executed %q: %w", lastExec.String, err)
		}
	}
	return rt, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	var lastExec any
	if !rt.LastExecuted.IsZero() {
		lastExec = rt.LastExecuted.String()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (category_id, amount_cents, description, frequency, start_date, last_executed, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.CategoryID, rt.Amount.Cents, rt.Description, string(rt.Every), rt.StartDate.String(), lastExec, boolToInt(rt.Active))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", mapError(err, apperr.ErrRecurringNotFound))
	}
	if rt.ID, err = res.LastInsertId(); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("create recurring transaction: %w", err)
	}

	slog.InfoContext(ctx, "Recurring transaction saved to SQLite",
		"id", rt.ID,
		"category_id", rt.CategoryID,
		"every", rt.Every,
		"amount_cents", rt.Amount.Cents)
	return rt, nil
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	rt, err := scanRecurring(r.db.QueryRowContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id))
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("get recurring transaction: %w", mapError(err, apperr.ErrRecurringNotFound))
	}
	return rt, nil
}

// ListActiveRecurring returns the templates the processor should consider.
func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recurringColumns+` FROM recurring_transactions WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		rt, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_transactions SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set recurring active: %w", err)
	}
	return expectAffected(res, apperr.ErrRecurringNotFound)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return expectAffected(res, apperr.ErrRecurringNotFound)
}

// ExecuteRecurring records one occurrence of a template on date and advances
// its last-executed date. Both writes commit together or not at all.
func (r *SQLiteRepository) ExecuteRecurring(ctx context.Context, rt core.RecurringTransaction, date core.Date) (core.Transaction, error) {
	t := core.Transaction{
		CategoryID:  rt.CategoryID,
		Amount:      rt.Amount,
		Date:        date,
		Description: rt.Description + " (recurring)",
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := insertTransaction(ctx, tx, t)
		if err != nil {
			return err
		}
		t.ID = id

		res, err := tx.ExecContext(ctx, `UPDATE recurring_transactions SET last_executed = ? WHERE id = ?`, date.String(), rt.ID)
		if err != nil {
			return fmt.Errorf("advance last executed: %w", err)
		}
		return expectAffected(res, apperr.ErrRecurringNotFound)
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Recurring transaction executed",
		"recurring_id", rt.ID,
		"transaction_id", t.ID,
		"date", date.String())
	return t, nil
}
