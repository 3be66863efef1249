package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"tally/internal/apperr"
	"tally/internal/core"
)

// CategoryUpdate lists the fields a partial category update may change.
// ClearParent turns the category into a root.
type CategoryUpdate struct {
	Name        *string
	Description *string
	ParentID    *int64
	ClearParent bool
}

const categoryColumns = `id, name, parent_id, category_type, description`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c      core.Category
		parent sql.NullInt64
		typ    string
	)
	if err := row.Scan(&c.ID, &c.Name, &parent, &typ, &c.Description); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	if parent.Valid {
		p := parent.Int64
		c.ParentID = &p
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	var parent any
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, parent_id, category_type, description) VALUES (?, ?, ?, ?)`,
		c.Name, parent, string(c.Type), c.Description)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", mapError(err, apperr.ErrCategoryNotFound))
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite",
		"id", c.ID,
		"name", c.Name,
		"type", c.Type)
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", mapError(err, apperr.ErrCategoryNotFound))
	}
	return c, nil
}

// ListCategories returns every category, or only those of typ when it is set,
// ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, typ core.CategoryType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	var args []any
	if typ != "" {
		query += ` WHERE category_type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id int64, u CategoryUpdate) error {
	var set setClause
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}
	switch {
	case u.ClearParent:
		set.add("parent_id", nil)
	case u.ParentID != nil:
		set.add("parent_id", *u.ParentID)
	}
	if set.empty() {
		return apperr.ErrNoFieldsToUpdate
	}

	res, err := set.exec(ctx, r.db, "categories", id)
	if err != nil {
		return fmt.Errorf("update category: %w", mapError(err, apperr.ErrCategoryNotFound))
	}
	return expectAffected(res, apperr.ErrCategoryNotFound)
}

// DeleteCategory removes a category together with its subcategories and
// everything recorded against them.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", mapError(err, apperr.ErrCategoryNotFound))
	}
	if err := expectAffected(res, apperr.ErrCategoryNotFound); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}
