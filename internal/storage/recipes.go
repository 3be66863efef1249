package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/apperr"
	"tally/internal/core"
)

// RecipeUpdate lists the fields a partial recipe update may change.
type RecipeUpdate struct {
	Name           *string
	Category       *string
	Ingredients    *string
	CookingMinutes *int
	Rating         *float64
	Description    *string
}

// RecipeFilter narrows a recipe search. Zero fields do not filter.
type RecipeFilter struct {
	Category   string
	NameLike   string
	MaxMinutes int
}

// RecipeCategoryStats aggregates the recipes of one category.
type RecipeCategoryStats struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	AverageRating  float64 `json:"average_rating"`
	AverageMinutes float64 `json:"average_minutes"`
}

const recipeColumns = `id, name, category, ingredients, cooking_minutes, rating, description`

func scanRecipe(row interface{ Scan(...any) error }) (core.Recipe, error) {
	var rc core.Recipe
	err := row.Scan(&rc.ID, &rc.Name, &rc.Category, &rc.Ingredients, &rc.CookingMinutes, &rc.Rating, &rc.Description)
	return rc, err
}

func (r *SQLiteRepository) CreateRecipe(ctx context.Context, rc core.Recipe) (core.Recipe, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recipes (name, category, ingredients, cooking_minutes, rating, description)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rc.Name, rc.Category, rc.Ingredients, rc.CookingMinutes, rc.Rating, rc.Description)
	if err != nil {
		return core.Recipe{}, fmt.Errorf("create recipe: %w", mapError(err, apperr.ErrRecipeNotFound))
	}
	if rc.ID, err = res.LastInsertId(); err != nil {
		return core.Recipe{}, fmt.Errorf("create recipe: %w", err)
	}

	slog.InfoContext(ctx, "Recipe saved to SQLite", "id", rc.ID, "name", rc.Name, "category", rc.Category)
	return rc, nil
}

func (r *SQLiteRepository) GetRecipe(ctx context.Context, id int64) (core.Recipe, error) {
	rc, err := scanRecipe(r.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id))
	if err != nil {
		return core.Recipe{}, fmt.Errorf("get recipe: %w", mapError(err, apperr.ErrRecipeNotFound))
	}
	return rc, nil
}

func (r *SQLiteRepository) UpdateRecipe(ctx context.Context, id int64, u RecipeUpdate) error {
	var set setClause
	if u.Name != nil {
		set.add("name", *u.Name)
	}
	if u.Category != nil {
		set.add("category", *u.Category)
	}
	if u.Ingredients != nil {
		set.add("ingredients", *u.Ingredients)
	}
	if u.CookingMinutes != nil {
		set.add("cooking_minutes", *u.CookingMinutes)
	}
	if u.Rating != nil {
		set.add("rating", *u.Rating)
	}
	if u.Description != nil {
		set.add("description", *u.Description)
	}
	if set.empty() {
		return apperr.ErrNoFieldsToUpdate
	}

	res, err := set.exec(ctx, r.db, "recipes", id)
	if err != nil {
		return fmt.Errorf("update recipe: %w", mapError(err, apperr.ErrRecipeNotFound))
	}
	return expectAffected(res, apperr.ErrRecipeNotFound)
}

func (r *SQLiteRepository) DeleteRecipe(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	return expectAffected(res, apperr.ErrRecipeNotFound)
}

// SearchRecipes returns recipes matching every set filter field, by name.
func (r *SQLiteRepository) SearchRecipes(ctx context.Context, f RecipeFilter) ([]core.Recipe, error) {
	var (
		where []string
		args  []any
	)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.NameLike != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+f.NameLike+"%")
	}
	if f.MaxMinutes > 0 {
		where = append(where, "cooking_minutes <= ?")
		args = append(args, f.MaxMinutes)
	}
	query := `SELECT ` + recipeColumns + ` FROM recipes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY name`
	return r.queryRecipes(ctx, query, args...)
}

// TopRecipes returns the limit best rated recipes.
func (r *SQLiteRepository) TopRecipes(ctx context.Context, limit int) ([]core.Recipe, error) {
	return r.queryRecipes(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY rating DESC, name LIMIT ?`, limit)
}

func (r *SQLiteRepository) queryRecipes(ctx context.Context, query string, args ...any) ([]core.Recipe, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var out []core.Recipe
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// RecipeStatsByCategory returns counts and averages per category, largest first.
func (r *SQLiteRepository) RecipeStatsByCategory(ctx context.Context) ([]RecipeCategoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COUNT(*), ROUND(AVG(rating), 1), ROUND(AVG(cooking_minutes), 1)
		FROM recipes
		GROUP BY category
		ORDER BY COUNT(*) DESC, category`)
	if err != nil {
		return nil, fmt.Errorf("recipe stats: %w", err)
	}
	defer rows.Close()

	var out []RecipeCategoryStats
	for rows.Next() {
		var s RecipeCategoryStats
		if err := rows.Scan(&s.Category, &s.Count, &s.AverageRating, &s.AverageMinutes); err != nil {
			return nil, fmt.Errorf("scan recipe stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
