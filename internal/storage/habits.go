package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/apperr"
	"tally/internal/core"
)

// HabitUpdate lists the fields a partial habit update may change.
type HabitUpdate struct {
	Name        *string
	Description *string
	Category    *string
	Frequency   *string
	TargetTime  *string
	Active      *bool
}

// Timestamps are read through strftime so they come back as plain text.
const habitColumns = `id, name, description, category, frequency, target_time, is_active,
	strftime('%Y-%m-%dT%H:%M:%SZ', created_at)`

func scanHabit(row interface{ Scan(...any) error }) (core.Habit, error) {
	var (
		h       core.Habit
		active  int
		created string
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Description, &h.Category, &h.Frequency, &h.TargetTime, &active, &created); err != nil {
		return core.Habit{}, err
	}
	h.Active = active == 1
	h.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return h, nil
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO habits (name, description, category, frequency, target_time, is_active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		h.Name, h.Description, h.Category, h.Frequency, h.TargetTime, boolToInt(h.Active))
	if err != nil {
		return core.Habit{}, fmt.Errorf("create habit: %w", mapError(err, apperr.ErrHabitNotFound))
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return core.Habit{}, fmt.Errorf("create habit: %w", err)
	}

	slog.InfoContext(ctx, "Habit saved to SQLite", "id", h.ID, "name", h.Name)
	return h, nil
}

func (r *SQLiteRepository) GetHabit(ctx context.Context, id int64) (core.Habit, error) {
	h, err := scanHabit(r.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if err != nil {
		return core.Habit{}, fmt.Errorf("get habit: %w", mapError(err, apperr.ErrHabitNotFound))
	}
	return h, nil
}

// ListHabits returns habits ordered by name, optionally only active ones.
func (r *SQLiteRepository) ListHabits(ctx context.Context, activeOnly bool) ([]core.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []core.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (r *SQLiteRepository) UpdateHabit(ctx context.Context, id int64, u HabitUpdate) error {
	var set setClause
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}
	if u.Category != nil {
		set.add("category", *u.Category)
	}
	if u.Frequency != nil {
		set.add("frequency", *u.Frequency)
	}
	if u.TargetTime != nil {
		set.add("target_time", *u.TargetTime)
	}
	if u.Active != nil {
		set.add("is_active", boolToInt(*u.Active))
	}
	if set.empty() {
		return apperr.ErrNoFieldsToUpdate
	}

	res, err := set.exec(ctx, r.db, "habits", id)
	if err != nil {
		return fmt.Errorf("update habit: %w", mapError(err, apperr.ErrHabitNotFound))
	}
	return expectAffected(res, apperr.ErrHabitNotFound)
}

// DeleteHabit removes a habit with its logs and achievements.
func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if err := expectAffected(res, apperr.ErrHabitNotFound); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Habit deleted", "id", id)
	return nil
}

// UpsertHabitLog records the outcome of one day, replacing an earlier entry
// for the same habit and date.
func (r *SQLiteRepository) UpsertHabitLog(ctx context.Context, l core.HabitLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO habit_logs (habit_id, log_date, completed, note) VALUES (?, ?, ?, ?)
		ON CONFLICT (habit_id, log_date)
		DO UPDATE SET completed = excluded.completed, note = excluded.note`,
		l.HabitID, l.Date.String(), boolToInt(l.Completed), l.Note)
	if err != nil {
		return fmt.Errorf("upsert habit log: %w", mapError(err, apperr.ErrHabitNotFound))
	}
	return nil
}

// UncompleteHabitLog marks an existing log entry as not completed and keeps
// its note. A day without an entry is left untouched; the result reports
// whether a row was changed.
func (r *SQLiteRepository) UncompleteHabitLog(ctx context.Context, habitID int64, date core.Date) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE habit_logs SET completed = 0 WHERE habit_id = ? AND log_date = ?`,
		habitID, date.String())
	if err != nil {
		return false, fmt.Errorf("uncomplete habit log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("uncomplete habit log: %w", err)
	}
	return n > 0, nil
}

// ListHabitLogs returns a habit's log entries dated within [from, to], oldest first.
func (r *SQLiteRepository) ListHabitLogs(ctx context.Context, habitID int64, from, to core.Date) ([]core.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT log_date, completed, note FROM habit_logs
		WHERE habit_id = ? AND log_date BETWEEN ? AND ?
		ORDER BY log_date`,
		habitID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer rows.Close()

	var logs []core.HabitLog
	for rows.Next() {
		var (
			l         core.HabitLog
			date      string
			completed int
		)
		if err := rows.Scan(&date, &completed, &l.Note); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		l.HabitID = habitID
		l.Completed = completed == 1
		if l.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse log date %q: %w", date, err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// CompletedDates returns every day a habit was completed, oldest first.
func (r *SQLiteRepository) CompletedDates(ctx context.Context, habitID int64) ([]core.Date, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT log_date FROM habit_logs WHERE habit_id = ? AND completed = 1 ORDER BY log_date`, habitID)
	if err != nil {
		return nil, fmt.Errorf("list completed dates: %w", err)
	}
	defer rows.Close()

	var dates []core.Date
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan completed date: %w", err)
		}
		d, err := core.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("parse log date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (r *SQLiteRepository) CountCompleted(ctx context.Context, habitID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habit_logs WHERE habit_id = ? AND completed = 1`, habitID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed: %w", err)
	}
	return n, nil
}

// LastCompletions returns the most recent completion date of every habit
// that has one.
func (r *SQLiteRepository) LastCompletions(ctx context.Context) (map[int64]core.Date, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT habit_id, MAX(log_date) FROM habit_logs WHERE completed = 1 GROUP BY habit_id`)
	if err != nil {
		return nil, fmt.Errorf("last completions: %w", err)
	}
	defer rows.Close()

	last := make(map[int64]core.Date)
	for rows.Next() {
		var (
			id int64
			s  sql.NullString
		)
		if err := rows.Scan(&id, &s); err != nil {
			return nil, fmt.Errorf("scan last completion: %w", err)
		}
		if !s.Valid {
			continue
		}
		d, err := core.ParseDate(s.String)
		if err != nil {
			return nil, fmt.Errorf("parse log date %q: %w", s.String, err)
		}
		last[id] = d
	}
	return last, rows.Err()
}

// AddAchievement stores a badge unless the habit already holds it. It reports
// whether the badge is new.
func (r *SQLiteRepository) AddAchievement(ctx context.Context, a core.Achievement) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO achievements (habit_id, badge_name, description) VALUES (?, ?, ?)
		ON CONFLICT (habit_id, badge_name) DO NOTHING`,
		a.HabitID, a.Badge, a.Description)
	if err != nil {
		return false, fmt.Errorf("add achievement: %w", mapError(err, apperr.ErrHabitNotFound))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add achievement: %w", err)
	}
	return n == 1, nil
}

// ListAchievements returns a habit's badges in the order they were earned.
func (r *SQLiteRepository) ListAchievements(ctx context.Context, habitID int64) ([]core.Achievement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT badge_name, description, strftime('%Y-%m-%dT%H:%M:%SZ', achieved_at)
		FROM achievements WHERE habit_id = ? ORDER BY achieved_at, id`, habitID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []core.Achievement
	for rows.Next() {
		a := core.Achievement{HabitID: habitID}
		var achieved string
		if err := rows.Scan(&a.Badge, &a.Description, &achieved); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		a.AchievedAt, _ = time.Parse(time.RFC3339, achieved)
		out = append(out, a)
	}
	return out, rows.Err()
}
