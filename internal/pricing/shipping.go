// Package pricing computes order totals and shipping fees.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	FreeShippingThreshold = 2000
	DefaultShippingFee    = 100
)

type Governorate struct {
	ID          string
	NameAr      string
	NameEn      string
	ShippingFee int64
}

var governorates = []Governorate{
	{ID: "CAIRO", NameAr: "القاهرة", NameEn: "Cairo", ShippingFee: 50},
	{ID: "GIZA", NameAr: "الجيزة", NameEn: "Giza", ShippingFee: 50},
	{ID: "ALEXANDRIA", NameAr: "الإسكندرية", NameEn: "Alexandria", ShippingFee: 60},
	{ID: "DAKAHLIA", NameAr: "الدقهلية", NameEn: "Dakahlia", ShippingFee: 70},
	{ID: "RED_SEA", NameAr: "البحر الأحمر", NameEn: "Red Sea", ShippingFee: 100},
	{ID: "BEHEIRA", NameAr: "البحيرة", NameEn: "Beheira", ShippingFee: 70},
	{ID: "FAYOUM", NameAr: "الفيوم", NameEn: "Fayoum", ShippingFee: 75},
	{ID: "GHARBIYA", NameAr: "الغربية", NameEn: "Gharbiya", ShippingFee: 70},
	{ID: "ISMAILIA", NameAr: "الإسماعيلية", NameEn: "Ismailia", ShippingFee: 75},
	{ID: "MONUFIA", NameAr: "المنوفية", NameEn: "Monufia", ShippingFee: 70},
	{ID: "MINYA", NameAr: "المنيا", NameEn: "Minya", ShippingFee: 85},
	{ID: "QALYUBIA", NameAr: "القليوبية", NameEn: "Qalyubia", ShippingFee: 60},
	{ID: "NEW_VALLEY", NameAr: "الوادي الجديد", NameEn: "New Valley", ShippingFee: 120},
	{ID: "SUEZ", NameAr: "السويس", NameEn: "Suez", ShippingFee: 75},
	{ID: "ASWAN", NameAr: "أسوان", NameEn: "Aswan", ShippingFee: 120},
	{ID: "ASSIUT", NameAr: "أسيوط", NameEn: "Assiut", ShippingFee: 90},
	{ID: "BENI_SUEF", NameAr: "بني سويف", NameEn: "Beni Suef", ShippingFee: 80},
	{ID: "PORT_SAID", NameAr: "بورسعيد", NameEn: "Port Said", ShippingFee: 75},
	{ID: "DAMIETTA", NameAr: "دمياط", NameEn: "Damietta", ShippingFee: 70},
	{ID: "SHARQIA", NameAr: "الشرقية", NameEn: "Sharqia", ShippingFee: 70},
	{ID: "SOUTH_SINAI", NameAr: "جنوب سيناء", NameEn: "South Sinai", ShippingFee: 150},
	{ID: "KAFR_EL_SHEIKH", NameAr: "كفر الشيخ", NameEn: "Kafr El Sheikh", ShippingFee: 70},
	{ID: "MATROUH", NameAr: "مطروح", NameEn: "Matrouh", ShippingFee: 100},
	{ID: "LUXOR", NameAr: "الأقصر", NameEn: "Luxor", ShippingFee: 110},
	{ID: "QENA", NameAr: "قنا", NameEn: "Qena", ShippingFee: 100},
	{ID: "NORTH_SINAI", NameAr: "شمال سيناء", NameEn: "North Sinai", ShippingFee: 150},
	{ID: "SOHAG", NameAr: "سوهاج", NameEn: "Sohag", ShippingFee: 95},
}

// Governorates returns a copy of the shipping table.
func Governorates() []Governorate {
	out := make([]Governorate, len(governorates))
	copy(out, governorates)
	return out
}

// LookupGovernorate matches the English name case-insensitively or the Arabic
// name exactly. Surrounding whitespace is ignored.
func LookupGovernorate(name string) (Governorate, bool) {
	name = strings.TrimSpace(name)
	for _, g := range governorates {
		if strings.EqualFold(g.NameEn, name) || g.NameAr == name {
			return g, true
		}
	}
	return Governorate{}, false
}

// ShippingFee is zero once subtotal reaches the free-shipping threshold,
// otherwise the governorate's flat fee or DefaultShippingFee when unknown.
func ShippingFee(governorate string, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(decimal.NewFromInt(FreeShippingThreshold)) {
		return decimal.Zero
	}
	if g, ok := LookupGovernorate(governorate); ok {
		return decimal.NewFromInt(g.ShippingFee)
	}
	return decimal.NewFromInt(DefaultShippingFee)
}
