package listings

import (
	"sort"
	"strings"

	"techtrust-backend/internal/domain"
)

// Sort options for the browse view.
const (
	SortLatest    = "latest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"

	CategoryAll = "all"
)

// Params are the search/filter/sort inputs of a derived view.
type Params struct {
	SearchQuery    string `json:"search_query"`
	FilterCategory string `json:"filter_category"`
	SortOption     string `json:"sort_option"`
}

// DefaultParams match an untouched browse page.
func DefaultParams() Params {
	return Params{FilterCategory: CategoryAll, SortOption: SortLatest}
}

// Derive filters listings by title substring and category and then sorts them.
// The input is not modified. Price sorts compare price for every row, buy rows included.
func Derive(listings []domain.Listing, p Params) []domain.Listing {
	q := strings.ToLower(p.SearchQuery)
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if q != "" && !strings.Contains(strings.ToLower(l.Title), q) {
			continue
		}
		if p.FilterCategory != "" && p.FilterCategory != CategoryAll && l.Category != p.FilterCategory {
			continue
		}
		out = append(out, l.Clone())
	}

	switch p.SortOption {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}
