package promo

import "time"

// Eligible returns the promotions that apply to p at now: active, inside
// their window, and scoped to reach p. Input order is preserved.
func Eligible(p Product, promotions []Promotion, now time.Time) []Promotion {
	var out []Promotion
	for _, promo := range promotions {
		if isLive(promo, now) && promo.Scope.matches(p) {
			out = append(out, promo)
		}
	}
	return out
}

// EligibleForCart applies the same rules at cart granularity. A storewide
// promotion reaches any non-empty cart; a narrowed one needs at least one
// matching line.
func EligibleForCart(lines []LineItem, promotions []Promotion, now time.Time) []Promotion {
	var out []Promotion
	for _, promo := range promotions {
		if !isLive(promo, now) {
			continue
		}
		for _, line := range lines {
			if line.Quantity > 0 && promo.Scope.matches(line.Product) {
				out = append(out, promo)
				break
			}
		}
	}
	return out
}

func isLive(p Promotion, now time.Time) bool {
	return p.Active && p.Effect != nil && p.Scope != nil && p.Window.Contains(now)
}
