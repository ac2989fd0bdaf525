package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"complyform/internal/sentinel"
	"complyform/models"
)

var (
	hundred = decimal.NewFromInt(100)
	// Допуск на округление долей (например, 33.33 + 33.33 + 33.32)
	breakdownTolerance = decimal.RequireFromString("0.02")
)

// NormalizeBreakdown проверяет разбивку по категориям при добавлении строки заявки
// и возвращает её с каноническими именами категорий.
func NormalizeBreakdown(b models.Breakdown) (models.Breakdown, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: category breakdown must contain at least one category", sentinel.ErrInvalidInput)
	}

	out := make(models.Breakdown, 0, len(b))
	seen := make(map[Category]struct{}, len(b))
	sum := decimal.Zero
	for _, share := range b {
		cat, err := ParseCategory(share.Category)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[cat]; dup {
			return nil, fmt.Errorf("%w: category %s listed more than once", sentinel.ErrInvalidInput, cat)
		}
		seen[cat] = struct{}{}
		if share.Percentage.IsNegative() || share.Percentage.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: percentage for %s must be between 0 and 100", sentinel.ErrInvalidInput, cat)
		}
		sum = sum.Add(share.Percentage)
		out = append(out, models.CategoryShare{Category: string(cat), Percentage: share.Percentage})
	}

	if sum.Sub(hundred).Abs().GreaterThan(breakdownTolerance) {
		return nil, fmt.Errorf("%w: category percentages must sum to 100%%, got %s%%",
			sentinel.ErrInvalidInput, sum.StringFixed(2))
	}
	return out, nil
}
