package promo

import "github.com/shopspring/decimal"

// MinorUnits is the number of decimals prices are rounded to.
const MinorUnits = 2

// Price applies promotion p to basePrice. The result is never negative,
// never above basePrice, and rounded half-up to MinorUnits once at the end.
func Price(basePrice decimal.Decimal, p Promotion) decimal.Decimal {
	if basePrice.IsNegative() {
		basePrice = decimal.Zero
	}
	if p.Effect == nil {
		return basePrice
	}
	price := p.Effect.apply(basePrice)
	if price.IsNegative() {
		price = decimal.Zero
	}
	if price.GreaterThan(basePrice) {
		price = basePrice
	}
	rounded := price.Round(MinorUnits)
	if rounded.GreaterThan(basePrice) {
		// sub-cent base prices must not round above themselves
		return basePrice.Truncate(MinorUnits)
	}
	return rounded
}
