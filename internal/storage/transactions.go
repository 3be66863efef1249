package storage

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/apperr"
	"tally/internal/core"
)

// TransactionUpdate lists the fields a partial transaction update may change.
type TransactionUpdate struct {
	Amount      *core.Money
	Date        *core.Date
	Description *string
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := insertTransaction(ctx, r.db, t)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"category_id", t.CategoryID,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func insertTransaction(ctx context.Context, q queryer, t core.Transaction) (int64, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO transactions (category_id, amount_cents, transaction_date, description) VALUES (?, ?, ?, ?)`,
		t.CategoryID, t.Amount.Cents, t.Date.String(), t.Description)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", mapError(err, apperr.ErrCategoryNotFound))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var (
		t    core.Transaction
		date string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, category_id, amount_cents, transaction_date, description FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.CategoryID, &t.Amount.Cents, &date, &t.Description)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", mapError(err, apperr.ErrTransactionNotFound))
	}
	if t.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, u TransactionUpdate) error {
	var set setClause
	if u.Amount != nil {
		set.add("amount_cents", u.Amount.Cents)
	}
	if u.Date != nil {
		set.add("transaction_date", u.Date.String())
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}
	if set.empty() {
		return apperr.ErrNoFieldsToUpdate
	}

	res, err := set.exec(ctx, r.db, "transactions", id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", mapError(err, apperr.ErrTransactionNotFound))
	}
	return expectAffected(res, apperr.ErrTransactionNotFound)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectAffected(res, apperr.ErrTransactionNotFound)
}

// ListTransactionRecords returns transactions dated within [from, to] joined
// with their category, oldest first.
func (r *SQLiteRepository) ListTransactionRecords(ctx context.Context, from, to core.Date) ([]core.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.category_id, c.name, c.category_type, t.amount_cents, t.transaction_date
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.transaction_date BETWEEN ? AND ?
		ORDER BY t.transaction_date, t.id`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transaction records: %w", err)
	}
	defer rows.Close()

	var records []core.TransactionRecord
	for rows.Next() {
		var (
			rec  core.TransactionRecord
			typ  string
			date string
		)
		if err := rows.Scan(&rec.TransactionID, &rec.CategoryID, &rec.CategoryName, &typ, &rec.Amount.Cents, &date); err != nil {
			return nil, fmt.Errorf("scan transaction record: %w", err)
		}
		rec.CategoryType = core.CategoryType(typ)
		if rec.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", date, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SpentInMonth sums the transactions of one category within month.
func (r *SQLiteRepository) SpentInMonth(ctx context.Context, categoryID int64, month core.YearMonth) (core.Money, error) {
	var spent core.Money
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM transactions
		WHERE category_id = ? AND transaction_date BETWEEN ? AND ?`,
		categoryID, month.First().String(), month.Last().String()).Scan(&spent.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("spent in month: %w", err)
	}
	return spent, nil
}
