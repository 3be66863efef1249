package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"tally/internal/apperr"
	"tally/internal/core"
)

// maxSuggestionDistance bounds how far a typo may be from a category name for
// it to be offered as a suggestion.
const maxSuggestionDistance = 3

// CategoryByName finds a category by case-insensitive name. When nothing
// matches, the not-found message names the closest category, if any is near.
func (s *LedgerService) CategoryByName(ctx context.Context, name string) (core.Category, error) {
	all, err := s.storage.ListCategories(ctx, "")
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}

	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range all {
		if strings.ToLower(c.Name) == want {
			return c, nil
		}
	}

	msg := fmt.Sprintf("Category %q not found", name)
	if best, ok := closestCategory(all, want); ok {
		msg += fmt.Sprintf("; did you mean %q?", best.Name)
	}
	return core.Category{}, apperr.WithMessage(apperr.ErrCategoryNotFound, msg)
}

func closestCategory(categories []core.Category, want string) (core.Category, bool) {
	var (
		best     core.Category
		bestDist = maxSuggestionDistance + 1
	)
	for _, c := range categories {
		d := levenshtein.ComputeDistance(want, strings.ToLower(c.Name))
		if d < bestDist || (d == bestDist && c.Name < best.Name) {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= maxSuggestionDistance
}
