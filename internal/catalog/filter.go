package catalog

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/models"
)

var ErrUnknownView = errors.New("unknown view")

// View describes how a storefront screen narrows the catalog.
type View struct {
	Name                  string `json:"name"`
	AppliesCategoryFilter bool   `json:"applies_category_filter"`
	AppliesSearch         bool   `json:"applies_search"`
	RestrictsToWishlist   bool   `json:"restricts_to_wishlist"`
}

var (
	ViewMarket   = View{Name: "market", AppliesCategoryFilter: true}
	ViewSearch   = View{Name: "search", AppliesCategoryFilter: true, AppliesSearch: true}
	ViewWishlist = View{Name: "wishlist", RestrictsToWishlist: true}
	ViewProfile  = View{Name: "profile"}
	ViewTrailers = View{Name: "trailers"}
	ViewSettings = View{Name: "settings"}
)

var views = map[string]View{
	ViewMarket.Name:   ViewMarket,
	ViewSearch.Name:   ViewSearch,
	ViewWishlist.Name: ViewWishlist,
	ViewProfile.Name:  ViewProfile,
	ViewTrailers.Name: ViewTrailers,
	ViewSettings.Name: ViewSettings,
}

// LookupView resolves a view by name. An empty name means the market view.
func LookupView(name string) (View, error) {
	if name == "" {
		return ViewMarket, nil
	}
	v, ok := views[strings.ToLower(name)]
	if !ok {
		return View{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	return v, nil
}

type Criteria struct {
	View       View
	Category   string
	SearchTerm string
}

// Membership reports whether a product id is saved by the shopper.
type Membership interface {
	Contains(id string) bool
}

// Filter narrows products by wishlist, category and search term, in that order.
// The result keeps catalog order and never aliases the input slice.
func Filter(products []models.Product, criteria Criteria, wishlist Membership) []models.Product {
	out := make([]models.Product, 0, len(products))

	category := criteria.Category
	filterCategory := criteria.View.AppliesCategoryFilter && category != "" && category != AllCategories

	term := strings.ToLower(strings.TrimSpace(criteria.SearchTerm))
	filterSearch := criteria.View.AppliesSearch && term != ""

	for _, p := range products {
		if criteria.View.RestrictsToWishlist && (wishlist == nil || !wishlist.Contains(p.ID)) {
			continue
		}
		if filterCategory && string(p.Category) != category {
			continue
		}
		if filterSearch && !matches(p, term) {
			continue
		}
		out = append(out, p)
	}

	return out
}

func matches(p models.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(string(p.Category)), term)
}
