package pricing

import "github.com/shopspring/decimal"

// TaxRate is fixed at zero; prices are tax-inclusive.
var TaxRate = decimal.Zero

// Line is the price-relevant part of a cart or order line.
type Line struct {
	Price float64
	Qty   int
}

// Breakdown is the price summary shown at review and persisted on the order.
// ItemsPrice + ShippingPrice + TaxPrice == TotalPrice always holds.
type Breakdown struct {
	ItemsPrice    float64 `json:"itemsPrice"`
	ShippingPrice float64 `json:"shippingPrice"`
	TaxPrice      float64 `json:"taxPrice"`
	TotalPrice    float64 `json:"totalPrice"`
}

// Compute prices lines shipped to governorate. Arithmetic is done in decimal and
// rounded to two places before converting back.
func Compute(lines []Line, governorate string) Breakdown {
	items := decimal.Zero
	for _, l := range lines {
		items = items.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	items = items.Round(2)
	shipping := ShippingFee(governorate, items)
	tax := items.Mul(TaxRate).Round(2)
	total := items.Add(shipping).Add(tax)

	return Breakdown{
		ItemsPrice:    items.InexactFloat64(),
		ShippingPrice: shipping.InexactFloat64(),
		TaxPrice:      tax.InexactFloat64(),
		TotalPrice:    total.InexactFloat64(),
	}
}

// Equal compares two breakdowns to the cent.
func (b Breakdown) Equal(o Breakdown) bool {
	eq := func(x, y float64) bool {
		return decimal.NewFromFloat(x).Round(2).Equal(decimal.NewFromFloat(y).Round(2))
	}
	return eq(b.ItemsPrice, o.ItemsPrice) && eq(b.ShippingPrice, o.ShippingPrice) &&
		eq(b.TaxPrice, o.TaxPrice) && eq(b.TotalPrice, o.TotalPrice)
}
