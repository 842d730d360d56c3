package promo

import (
	"fmt"
	"strings"
)

// BadgeDefaults fills in what a promotion leaves blank.
type BadgeDefaults struct {
	CurrencySymbol   string
	Color            string
	TextColor        string
	SpecialPriceText string
	FreeShippingText string
}

// DefaultBadgeStyle is used when the engine is built without overrides.
var DefaultBadgeStyle = BadgeDefaults{
	CurrencySymbol:   "₲",
	Color:            "#e53935",
	TextColor:        "#ffffff",
	SpecialPriceText: "OFERTA",
	FreeShippingText: "ENVÍO GRATIS",
}

// Badges returns the display badges for the winning promotion, or none when
// nothing won.
func Badges(p *Promotion, d BadgeDefaults) []Badge {
	if p == nil {
		return []Badge{}
	}
	d = d.withFallbacks()
	badge := Badge{
		PromotionID: p.ID,
		Kind:        p.Kind(),
		Text:        p.Badge.Text,
		Color:       p.Badge.Color,
		TextColor:   p.Badge.TextColor,
	}
	if badge.Text == "" {
		badge.Text = defaultBadgeText(p.Effect, d)
	}
	if badge.Color == "" {
		badge.Color = d.Color
	}
	if badge.TextColor == "" {
		badge.TextColor = d.TextColor
	}
	return []Badge{badge}
}

func defaultBadgeText(e Effect, d BadgeDefaults) string {
	switch v := e.(type) {
	case PercentOff:
		return fmt.Sprintf("-%s%%", v.Percent.String())
	case AmountOff:
		return fmt.Sprintf("-%s%s", d.CurrencySymbol, v.Amount.String())
	case SpecialPrice:
		return d.SpecialPriceText
	case FreeShipping:
		return d.FreeShippingText
	default:
		return ""
	}
}

func (d BadgeDefaults) withFallbacks() BadgeDefaults {
	if strings.TrimSpace(d.CurrencySymbol) == "" {
		d.CurrencySymbol = DefaultBadgeStyle.CurrencySymbol
	}
	if strings.TrimSpace(d.Color) == "" {
		d.Color = DefaultBadgeStyle.Color
	}
	if strings.TrimSpace(d.TextColor) == "" {
		d.TextColor = DefaultBadgeStyle.TextColor
	}
	if strings.TrimSpace(d.SpecialPriceText) == "" {
		d.SpecialPriceText = DefaultBadgeStyle.SpecialPriceText
	}
	if strings.TrimSpace(d.FreeShippingText) == "" {
		d.FreeShippingText = DefaultBadgeStyle.FreeShippingText
	}
	return d
}
