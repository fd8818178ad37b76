package storefront

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"qayyim-backend/internal/models"
)

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestFilterProducts(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	catalog := []models.Product{
		{Name: "Linen Shirt", Gender: "Men", Category: "Shirts", Price: 450, Sizes: []string{"M", "L"}, Colors: []string{"White"}, CreatedAt: base},
		{Name: "abaya", Gender: "Women", Category: "Abayas", Price: 1200, Sizes: []string{"S"}, Colors: []string{"Black"}, CreatedAt: base.Add(48 * time.Hour)},
		{Name: "Kids Tee", Gender: "Kids", Category: "shirts", Price: 150, Sizes: []string{"XS"}, Colors: []string{"Blue", "black"}, CreatedAt: base.Add(24 * time.Hour)},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"newest first by default", Filter{}, []string{"abaya", "Kids Tee", "Linen Shirt"}},
		{"gender is case-insensitive", Filter{Genders: []string{"women"}}, []string{"abaya"}},
		{"category is case-insensitive", Filter{Categories: []string{"Shirts"}, Sort: SortPriceLow}, []string{"Kids Tee", "Linen Shirt"}},
		{"price range is inclusive", Filter{MinPrice: 150, MaxPrice: 450, Sort: SortPriceHigh}, []string{"Linen Shirt", "Kids Tee"}},
		{"any listed size", Filter{Sizes: []string{"L", "S"}, Sort: SortName}, []string{"abaya", "Linen Shirt"}},
		{"any listed color ignoring case", Filter{Colors: []string{"BLACK"}, Sort: SortName}, []string{"abaya", "Kids Tee"}},
		{"no match", Filter{Genders: []string{"Unisex"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(FilterProducts(catalog, tt.filter)))
		})
	}

	assert.Equal(t, "Linen Shirt", catalog[0].Name, "input order is untouched")
}
