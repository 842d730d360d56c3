package promo

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind names the effect a promotion has on price.
type Kind string

const (
	// KindPercentage takes a percentage off the base price.
	KindPercentage Kind = "percentage"
	// KindFixedAmount takes a flat currency amount off the base price.
	KindFixedAmount Kind = "fixedAmount"
	// KindSpecialPrice replaces the base price with an absolute price.
	KindSpecialPrice Kind = "specialPrice"
	// KindFreeShipping grants free shipping on the whole cart.
	KindFreeShipping Kind = "freeShipping"
)

// Effect is the price-affecting half of a promotion. The concrete variants are
// PercentOff, AmountOff, SpecialPrice and FreeShipping.
type Effect interface {
	Kind() Kind
	apply(base decimal.Decimal) decimal.Decimal
}

// PercentOff discounts Percent points, in [0,100].
type PercentOff struct {
	Percent decimal.Decimal
}

// AmountOff subtracts Amount from the unit price.
type AmountOff struct {
	Amount decimal.Decimal
}

// SpecialPrice sets the unit price to Price when it is lower than the base price.
type SpecialPrice struct {
	Price decimal.Decimal
}

// FreeShipping only toggles the cart-level shipping flag.
type FreeShipping struct{}

func (PercentOff) Kind() Kind   { return KindPercentage }
func (AmountOff) Kind() Kind    { return KindFixedAmount }
func (SpecialPrice) Kind() Kind { return KindSpecialPrice }
func (FreeShipping) Kind() Kind { return KindFreeShipping }

var hundred = decimal.NewFromInt(100)

func (e PercentOff) apply(base decimal.Decimal) decimal.Decimal {
	return base.Mul(hundred.Sub(e.Percent)).Div(hundred)
}

func (e AmountOff) apply(base decimal.Decimal) decimal.Decimal {
	return base.Sub(e.Amount)
}

func (e SpecialPrice) apply(base decimal.Decimal) decimal.Decimal {
	return decimal.Min(e.Price, base)
}

func (FreeShipping) apply(base decimal.Decimal) decimal.Decimal {
	return base
}

// Scope decides which products a promotion reaches. The concrete variants are
// AllProducts, InCategory and ForProduct.
type Scope interface {
	Name() string
	matches(p Product) bool
}

// AllProducts reaches the whole store.
type AllProducts struct{}

// InCategory reaches products of a single category. An empty Category matches nothing.
type InCategory struct {
	Category string
}

// ForProduct reaches a single product. An empty ProductID matches nothing.
type ForProduct struct {
	ProductID string
}

func (AllProducts) Name() string { return "all" }
func (InCategory) Name() string  { return "category" }
func (ForProduct) Name() string  { return "product" }

func (AllProducts) matches(Product) bool { return true }

func (s InCategory) matches(p Product) bool {
	return s.Category != "" && s.Category == p.Category
}

func (s ForProduct) matches(p Product) bool {
	return s.ProductID != "" && s.ProductID == p.ID
}

// Window is an inclusive validity range. A zero bound is open-ended.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether now falls inside the window, bounds included.
func (w Window) Contains(now time.Time) bool {
	if !w.Start.IsZero() && now.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && now.After(w.End) {
		return false
	}
	return true
}

// BadgeStyle carries the presentation fields configured on a promotion.
type BadgeStyle struct {
	Text      string
	Color     string
	TextColor string
}

// Promotion is a validated discount rule.
type Promotion struct {
	ID       string
	Effect   Effect
	Scope    Scope
	Window   Window
	Active   bool
	Priority int
	Badge    BadgeStyle
}

// Kind is a shorthand for p.Effect.Kind().
func (p Promotion) Kind() Kind {
	if p.Effect == nil {
		return ""
	}
	return p.Effect.Kind()
}

// AffectsPrice reports whether the promotion competes at the item level.
func (p Promotion) AffectsPrice() bool {
	switch p.Effect.(type) {
	case PercentOff, AmountOff, SpecialPrice:
		return true
	default:
		return false
	}
}

// Product is the pricing view of a catalog product.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

// Badge is display metadata for an applied promotion.
type Badge struct {
	PromotionID string `json:"promotionId"`
	Kind        Kind   `json:"kind"`
	Text        string `json:"text"`
	Color       string `json:"color"`
	TextColor   string `json:"textColor"`
}

// Result is the pricing outcome for one product.
type Result struct {
	ProductID       string          `json:"productId"`
	HasPromotion    bool            `json:"hasPromotion"`
	DiscountedPrice decimal.Decimal `json:"discountedPrice"`
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	PromotionID     string          `json:"promotionId,omitempty"`
	Badges          []Badge         `json:"badges"`
}
