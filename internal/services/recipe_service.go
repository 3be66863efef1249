package services

import (
	"context"
	"strings"

	"tally/internal/apperr"
	"tally/internal/core"
	"tally/internal/storage"
)

type RecipeInput struct {
	Name           string  `validate:"required,max=100"`
	Category       string  `validate:"required,max=50"`
	Ingredients    string  `validate:"max=2000"`
	CookingMinutes int     `validate:"gt=0,lte=1440"`
	Rating         float64 `validate:"gte=0,lte=5"`
	Description    string  `validate:"max=2000"`
}

// RecipeService manages the recipe catalog.
type RecipeService struct {
	storage *storage.SQLiteRepository
}

func NewRecipeService(storage *storage.SQLiteRepository) *RecipeService {
	return &RecipeService{storage: storage}
}

func (s *RecipeService) CreateRecipe(ctx context.Context, in RecipeInput) (core.Recipe, error) {
	if err := validateInput(in); err != nil {
		return core.Recipe{}, err
	}
	return s.storage.CreateRecipe(ctx, core.Recipe{
		Name:           strings.TrimSpace(in.Name),
		Category:       strings.TrimSpace(in.Category),
		Ingredients:    in.Ingredients,
		CookingMinutes: in.CookingMinutes,
		Rating:         in.Rating,
		Description:    in.Description,
	})
}

func (s *RecipeService) GetRecipe(ctx context.Context, id int64) (core.Recipe, error) {
	return s.storage.GetRecipe(ctx, id)
}

func (s *RecipeService) UpdateRecipe(ctx context.Context, id int64, u storage.RecipeUpdate) error {
	if u.Rating != nil && (*u.Rating < 0 || *u.Rating > 5) {
		return apperr.WithMessage(apperr.ErrInvalidRange, "rating must be between 0 and 5")
	}
	if u.CookingMinutes != nil && *u.CookingMinutes <= 0 {
		return apperr.WithMessage(apperr.ErrInvalidRange, "cookingminutes must be at least 1")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return core.ErrEmptyName
	}
	return s.storage.UpdateRecipe(ctx, id, u)
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, id int64) error {
	return s.storage.DeleteRecipe(ctx, id)
}

func (s *RecipeService) Search(ctx context.Context, f storage.RecipeFilter) ([]core.Recipe, error) {
	return s.storage.SearchRecipes(ctx, f)
}

// Top returns the best rated recipes; limit defaults to 5.
func (s *RecipeService) Top(ctx context.Context, limit int) ([]core.Recipe, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.storage.TopRecipes(ctx, limit)
}

func (s *RecipeService) StatsByCategory(ctx context.Context) ([]storage.RecipeCategoryStats, error) {
	return s.storage.RecipeStatsByCategory(ctx)
}
