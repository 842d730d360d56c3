package promo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAggregateSumsLinesAndSavings(t *testing.T) {
	engine := NewEngine(Config{})
	llavero := Product{ID: "llavero-01", Name: "Llavero", Category: "llaveros", BasePrice: d("1000")}
	mate := Product{ID: "mate-01", Name: "Mate", Category: "mates", BasePrice: d("5000")}
	promo := percent("llaveros10", 1, "10")
	promo.Scope = InCategory{Category: "llaveros"}

	cart := engine.Aggregate([]LineItem{
		{Product: llavero, Quantity: 3},
		{Product: mate, Quantity: 1},
		{Product: mate, Quantity: 0},
	}, []Promotion{promo}, now)

	require.Len(t, cart.Lines, 2)
	require.True(t, cart.Lines[0].UnitPrice.Equal(d("900")))
	require.True(t, cart.Lines[0].OriginalUnitPrice.Equal(d("1000")))
	require.True(t, cart.Lines[0].Savings.Equal(d("300")))
	require.Equal(t, "llaveros10", cart.Lines[0].PromotionID)
	require.True(t, cart.Lines[1].Savings.IsZero())
	require.True(t, cart.Subtotal.Equal(d("7700")), cart.Subtotal.String())
	require.True(t, cart.TotalSavings.Equal(d("300")))
	require.False(t, cart.FreeShipping)
}

func TestAggregateFreeShippingWithoutItemPromotion(t *testing.T) {
	engine := NewEngine(Config{})
	shipping := Promotion{ID: "envio", Effect: FreeShipping{}, Scope: AllProducts{}, Active: true}

	cart := engine.Aggregate([]LineItem{{Product: product("1000"), Quantity: 1}}, []Promotion{shipping}, now)

	require.True(t, cart.FreeShipping)
	require.Equal(t, "envio", cart.FreeShippingPromotionID)
	require.Empty(t, cart.Lines[0].PromotionID)
	require.True(t, cart.Subtotal.Equal(d("1000")))
}

func TestAggregateFreeShippingStacksWithItemPromotion(t *testing.T) {
	engine := NewEngine(Config{})
	shipping := Promotion{ID: "envio", Effect: FreeShipping{}, Scope: AllProducts{}, Active: true, Priority: 100}

	cart := engine.Aggregate(
		[]LineItem{{Product: product("1000"), Quantity: 2}},
		[]Promotion{shipping, percent("p10", 1, "10")},
		now,
	)

	require.True(t, cart.FreeShipping)
	require.Equal(t, "p10", cart.Lines[0].PromotionID)
	require.True(t, cart.Subtotal.Equal(d("1800")))
}

func TestAggregateFreeShippingRespectsWindowAndScope(t *testing.T) {
	engine := NewEngine(Config{})
	expired := Promotion{ID: "old", Effect: FreeShipping{}, Scope: AllProducts{}, Active: true, Window: Window{End: now.Add(-time.Minute)}}
	otherCategory := Promotion{ID: "mates", Effect: FreeShipping{}, Scope: InCategory{Category: "mates"}, Active: true}

	cart := engine.Aggregate([]LineItem{{Product: product("1000"), Quantity: 1}}, []Promotion{expired, otherCategory}, now)
	require.False(t, cart.FreeShipping)

	empty := engine.Aggregate(nil, []Promotion{{ID: "all", Effect: FreeShipping{}, Scope: AllProducts{}, Active: true}}, now)
	require.False(t, empty.FreeShipping)
	require.True(t, empty.Subtotal.IsZero())
}
