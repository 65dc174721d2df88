package usecase

import (
	"strings"

	"github.com/shopsnap/backend/internal/domain"
)

// CategoryGroup is one rendered group of the catalog view.
type CategoryGroup struct {
	Category  domain.Category  `json:"category"`
	Collapsed bool             `json:"collapsed"`
	Products  []domain.Product `json:"products"`
}

// CollapseSet tracks which categories the UI shows collapsed. It is
// view-local state and is never persisted.
type CollapseSet map[string]bool

// NewCollapseSet returns an empty collapse set (everything expanded).
func NewCollapseSet(ids ...string) CollapseSet {
	s := make(CollapseSet, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Toggle flips the collapsed state for one category id, independently of
// all others.
func (s CollapseSet) Toggle(id string) {
	if s[id] {
		delete(s, id)
	} else {
		s[id] = true
	}
}

// Collapsed reports whether the category is collapsed.
func (s CollapseSet) Collapsed(id string) bool {
	return s[id]
}

// FilterProducts returns the products whose name or brand contains term,
// case-insensitively. An empty term matches everything.
func FilterProducts(products []domain.Product, term string) []domain.Product {
	if term == "" {
		return products
	}

	needle := strings.ToLower(term)
	var matched []domain.Product
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Brand), needle) {
			matched = append(matched, p)
		}
	}
	return matched
}

// GroupedView projects the catalog into render-ready groups: filtered
// products grouped by category in category display order. Categories
// with no matching products are omitted. Products whose categoryId does
// not resolve to an existing category are excluded from every group.
func GroupedView(products []domain.Product, categories []domain.Category, term string, collapsed CollapseSet) []CategoryGroup {
	matched := FilterProducts(products, term)

	byCategory := make(map[string][]domain.Product)
	for _, p := range matched {
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], p)
	}

	groups := []CategoryGroup{}
	for _, c := range categories {
		items := byCategory[c.ID]
		if len(items) == 0 {
			continue
		}
		groups = append(groups, CategoryGroup{
			Category:  c,
			Collapsed: collapsed.Collapsed(c.ID),
			Products:  items,
		})
	}
	return groups
}
