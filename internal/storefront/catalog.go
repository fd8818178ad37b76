package storefront

import (
	"sort"
	"strings"

	"qayyim-backend/internal/models"
)

const (
	SortNewest    = "newest"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortName      = "name"
)

// Filter narrows a product list. Empty fields match everything; MaxPrice 0
// means no upper bound.
type Filter struct {
	Genders    []string
	Categories []string
	MinPrice   float64
	MaxPrice   float64
	Sizes      []string
	Colors     []string
	Sort       string
}

// FilterProducts returns the products matching f in f.Sort order. The input is
// not modified.
func FilterProducts(products []models.Product, f Filter) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.matches(p) {
			out = append(out, p)
		}
	}

	switch f.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	}
	return out
}

func (f Filter) matches(p models.Product) bool {
	if len(f.Genders) > 0 && !containsFold(f.Genders, p.Gender) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, p.Category) {
		return false
	}
	if p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if len(f.Sizes) > 0 && !anyOf(p.Sizes, func(s string) bool { return contains(f.Sizes, s) }) {
		return false
	}
	if len(f.Colors) > 0 && !anyOf(p.Colors, func(c string) bool { return containsFold(f.Colors, c) }) {
		return false
	}
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func anyOf(list []string, pred func(string) bool) bool {
	for _, s := range list {
		if pred(s) {
			return true
		}
	}
	return false
}
