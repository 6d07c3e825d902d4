package domain

import "github.com/shopspring/decimal"

// Pricing is the order's money breakdown. Total is fixed at creation.
type Pricing struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// NewPricing computes total = subtotal + tax + shipping - discount. Amounts are
// rounded to cents first so the stored components always add up to the total.
func NewPricing(subtotal, tax, shipping, discount decimal.Decimal) (Pricing, error) {
	p := Pricing{
		Subtotal: subtotal.Round(2),
		Tax:      tax.Round(2),
		Shipping: shipping.Round(2),
		Discount: discount.Round(2),
	}
	for _, amount := range []decimal.Decimal{p.Subtotal, p.Tax, p.Shipping, p.Discount} {
		if amount.IsNegative() {
			return Pricing{}, ErrNegativeAmount
		}
	}
	p.Total = p.Subtotal.Add(p.Tax).Add(p.Shipping).Sub(p.Discount)
	if p.Total.IsNegative() {
		return Pricing{}, ErrDiscountExceedsTotal
	}
	return p, nil
}

// Subtotal sums item line totals.
func Subtotal(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
