package inventorysvc

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/mkrupp/sweetshop/internal/domain"
)

// Filter returns the items satisfying all predicates of criteria, in their original order.
//
// A non-empty Term must be a case-insensitive substring of the name or the category.
// A non-empty Category must equal the item's category, case-insensitively.
// MinPrice and MaxPrice are inclusive bounds; a bound that does not parse as a
// decimal number is treated as absent rather than rejecting every item.
func Filter(items []domain.Item, criteria domain.FilterCriteria) []domain.Item {
	match := newMatcher(criteria)
	filtered := make([]domain.Item, 0, len(items))

	for _, item := range items {
		if match(item) {
			filtered = append(filtered, item)
		}
	}

	return filtered
}

// ParsePriceBound parses a price bound. It reports false for empty or
// unparseable input, which callers treat as "no bound".
func ParsePriceBound(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}

	return price, true
}

func newMatcher(criteria domain.FilterCriteria) func(domain.Item) bool {
	// a Caser keeps state and must not be shared between goroutines
	fold := cases.Fold()

	term := fold.String(criteria.Term)
	category := fold.String(criteria.Category)
	minPrice, hasMin := ParsePriceBound(criteria.MinPrice)
	maxPrice, hasMax := ParsePriceBound(criteria.MaxPrice)

	return func(item domain.Item) bool {
		if term != "" {
			if !strings.Contains(fold.String(item.Name), term) &&
				!strings.Contains(fold.String(item.Category), term) {
				return false
			}
		}

		if category != "" && fold.String(item.Category) != category {
			return false
		}

		if hasMin && item.Price.LessThan(minPrice) {
			return false
		}

		if hasMax && item.Price.GreaterThan(maxPrice) {
			return false
		}

		return true
	}
}

// Categories returns the distinct categories of items in order of first appearance.
// Categories are compared exactly, so "Indian" and "indian" are both listed.
func Categories(items []domain.Item) []string {
	seen := make(map[string]struct{}, len(items))
	categories := make([]string, 0)

	for _, item := range items {
		if _, ok := seen[item.Category]; ok {
			continue
		}

		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}

	return categories
}
