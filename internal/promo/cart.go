package promo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a cart line before pricing.
type LineItem struct {
	Product  Product
	Quantity int
}

// CartLine is a priced cart line.
type CartLine struct {
	ProductID         string          `json:"productId"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	OriginalUnitPrice decimal.Decimal `json:"originalUnitPrice"`
	Savings           decimal.Decimal `json:"savings"`
	PromotionID       string          `json:"promotionId,omitempty"`
	Badges            []Badge         `json:"badges"`
}

// Cart is the aggregate of a priced cart.
type Cart struct {
	Lines                   []CartLine      `json:"lines"`
	Subtotal                decimal.Decimal `json:"subtotal"`
	TotalSavings            decimal.Decimal `json:"totalSavings"`
	FreeShipping            bool            `json:"freeShipping"`
	FreeShippingPromotionID string          `json:"freeShippingPromotionId,omitempty"`
}

// Aggregate prices every line and resolves cart-wide free shipping. Lines
// with a non-positive quantity are skipped.
func (e *Engine) Aggregate(lines []LineItem, promotions []Promotion, now time.Time) Cart {
	cart := Cart{
		Lines:        make([]CartLine, 0, len(lines)),
		Subtotal:     decimal.Zero,
		TotalSavings: decimal.Zero,
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		res := e.PriceProduct(line.Product, promotions, now)
		qty := decimal.NewFromInt(int64(line.Quantity))
		savings := res.OriginalPrice.Sub(res.DiscountedPrice).Mul(qty).Round(MinorUnits)
		cart.Lines = append(cart.Lines, CartLine{
			ProductID:         line.Product.ID,
			Name:              line.Product.Name,
			Category:          line.Product.Category,
			Quantity:          line.Quantity,
			UnitPrice:         res.DiscountedPrice,
			OriginalUnitPrice: res.OriginalPrice,
			Savings:           savings,
			PromotionID:       res.PromotionID,
			Badges:            res.Badges,
		})
		cart.Subtotal = cart.Subtotal.Add(res.DiscountedPrice.Mul(qty))
		cart.TotalSavings = cart.TotalSavings.Add(savings)
	}
	cart.Subtotal = cart.Subtotal.Round(MinorUnits)
	if id, ok := e.freeShipping(lines, promotions, now); ok {
		cart.FreeShipping = true
		cart.FreeShippingPromotionID = id
	}
	return cart
}

func (e *Engine) freeShipping(lines []LineItem, promotions []Promotion, now time.Time) (id string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Str("panic", fmt.Sprint(r)).Msg("free_shipping_evaluation_failed")
			e.recorder.RecordFallback()
			id, ok = "", false
		}
	}()
	var best *Promotion
	for _, p := range EligibleForCart(lines, promotions, now) {
		if p.Kind() != KindFreeShipping {
			continue
		}
		if best == nil || p.Priority > best.Priority || (p.Priority == best.Priority && p.ID < best.ID) {
			candidate := p
			best = &candidate
		}
	}
	if best == nil {
		return "", false
	}
	e.recorder.RecordApplied(KindFreeShipping)
	return best.ID, true
}
