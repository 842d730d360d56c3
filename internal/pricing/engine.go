package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/coupon"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// Summary aggregates the checkout figures persisted with an order.
type Summary struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Savings        decimal.Decimal `json:"savings"`
	CouponDiscount decimal.Decimal `json:"couponDiscount"`
	Shipping       decimal.Decimal `json:"shipping"`
	FreeShipping   bool            `json:"freeShipping"`
	Total          decimal.Decimal `json:"total"`
}

// Compute stacks the coupon on the promotion-priced cart and adds shipping.
// A failed coupon contributes nothing; free shipping zeroes the fee.
func Compute(cart promo.Cart, applied coupon.Outcome, shippingFee decimal.Decimal) Summary {
	subtotal := cart.Subtotal
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	discount := decimal.Zero
	if applied.Success {
		discount = decimal.Min(applied.Discount, subtotal)
	}
	shipping := shippingFee
	if cart.FreeShipping || shipping.IsNegative() {
		shipping = decimal.Zero
	}
	total := subtotal.Sub(discount).Add(shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Summary{
		Subtotal:       subtotal,
		Savings:        cart.TotalSavings.Add(discount).Round(promo.MinorUnits),
		CouponDiscount: discount,
		Shipping:       shipping,
		FreeShipping:   cart.FreeShipping,
		Total:          total.Round(promo.MinorUnits),
	}
}
