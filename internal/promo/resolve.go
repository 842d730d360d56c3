package promo

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Resolve picks the single promotion to apply at basePrice. Only
// price-affecting promotions compete. Higher priority wins; equal priorities
// go to the lower resulting price, then to the lower ID, so the winner never
// depends on input order.
func Resolve(basePrice decimal.Decimal, eligible []Promotion) (Promotion, bool) {
	type candidate struct {
		promo Promotion
		price decimal.Decimal
	}
	candidates := make([]candidate, 0, len(eligible))
	for _, p := range eligible {
		if !p.AffectsPrice() {
			continue
		}
		candidates = append(candidates, candidate{promo: p, price: Price(basePrice, p)})
	}
	if len(candidates) == 0 {
		return Promotion{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.promo.Priority != b.promo.Priority {
			return a.promo.Priority > b.promo.Priority
		}
		if c := a.price.Cmp(b.price); c != 0 {
			return c < 0
		}
		if a.promo.ID != b.promo.ID {
			return a.promo.ID < b.promo.ID
		}
		return kindRank(a.promo.Kind()) < kindRank(b.promo.Kind())
	})
	return candidates[0].promo, true
}

func kindRank(k Kind) int {
	switch k {
	case KindSpecialPrice:
		return 0
	case KindFixedAmount:
		return 1
	case KindPercentage:
		return 2
	default:
		return 3
	}
}
