package promo

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func percent(id string, priority int, value string) Promotion {
	return Promotion{ID: id, Effect: PercentOff{Percent: d(value)}, Scope: AllProducts{}, Active: true, Priority: priority}
}

func fixed(id string, priority int, value string) Promotion {
	return Promotion{ID: id, Effect: AmountOff{Amount: d(value)}, Scope: AllProducts{}, Active: true, Priority: priority}
}

func product(base string) Product {
	return Product{ID: "llavero-01", Name: "Llavero grabado", Category: "llaveros", BasePrice: d(base)}
}

type countingRecorder struct {
	rejected  map[string]int
	fallbacks int
	applied   map[Kind]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rejected: map[string]int{}, applied: map[Kind]int{}}
}

func (c *countingRecorder) RecordRejected(reason string) { c.rejected[reason]++ }
func (c *countingRecorder) RecordFallback()              { c.fallbacks++ }
func (c *countingRecorder) RecordApplied(kind Kind)      { c.applied[kind]++ }

type explodingScope struct{}

func (explodingScope) Name() string         { return "exploding" }
func (explodingScope) matches(Product) bool { panic("scope blew up") }

func TestSinglePercentagePromotion(t *testing.T) {
	engine := NewEngine(Config{})
	res := engine.PriceProduct(product("1000"), []Promotion{percent("p10", 1, "10")}, now)

	require.True(t, res.HasPromotion)
	require.True(t, res.DiscountedPrice.Equal(d("900")), res.DiscountedPrice.String())
	require.Equal(t, "p10", res.PromotionID)
	require.Len(t, res.Badges, 1)
	require.Equal(t, "-10%", res.Badges[0].Text)
}

func TestHigherPriorityWinsOverLargerDiscount(t *testing.T) {
	engine := NewEngine(Config{})
	promotions := []Promotion{percent("p10", 1, "10"), fixed("f50", 5, "50")}

	res := engine.PriceProduct(product("1000"), promotions, now)

	require.Equal(t, "f50", res.PromotionID)
	require.True(t, res.DiscountedPrice.Equal(d("950")))
}

func TestEqualPriorityPrefersLargerComputedDiscount(t *testing.T) {
	// 10% of 2000 is 200, which beats a flat 150.
	winner, ok := Resolve(d("2000"), []Promotion{fixed("flat", 2, "150"), percent("pct", 2, "10")})
	require.True(t, ok)
	require.Equal(t, "pct", winner.ID)

	// 10% of 1000 is 100, which loses to the flat 150.
	winner, ok = Resolve(d("1000"), []Promotion{percent("pct", 2, "10"), fixed("flat", 2, "150")})
	require.True(t, ok)
	require.Equal(t, "flat", winner.ID)
}

func TestFutureStartIsExcluded(t *testing.T) {
	engine := NewEngine(Config{})
	p := percent("soon", 1, "10")
	p.Window = Window{Start: now.Add(24 * time.Hour)}

	res := engine.PriceProduct(product("1000"), []Promotion{p}, now)

	require.False(t, res.HasPromotion)
	require.True(t, res.DiscountedPrice.Equal(d("1000")))
	require.Empty(t, res.Badges)
}

func TestExpiredPromotionNeverApplies(t *testing.T) {
	p := percent("old", 9, "50")
	p.Window = Window{End: now.Add(-time.Second)}
	require.Empty(t, Eligible(product("100"), []Promotion{p}, now))

	p.Active = false
	require.Empty(t, Eligible(product("100"), []Promotion{p}, now))
}

func TestInactivePromotionNeverApplies(t *testing.T) {
	p := percent("off", 9, "50")
	p.Active = false
	require.Empty(t, Eligible(product("100"), []Promotion{p}, now))
}

func TestCategoryScopeStaysInCategory(t *testing.T) {
	p := percent("cat", 1, "20")
	p.Scope = InCategory{Category: "llaveros"}

	inside := product("100")
	outside := Product{ID: "mate-01", Category: "mates", BasePrice: d("100")}

	require.Len(t, Eligible(inside, []Promotion{p}, now), 1)
	require.Empty(t, Eligible(outside, []Promotion{p}, now))
}

func TestProductScopeMatchesOnlyThatProduct(t *testing.T) {
	p := percent("one", 1, "20")
	p.Scope = ForProduct{ProductID: "llavero-01"}

	require.Len(t, Eligible(product("100"), []Promotion{p}, now), 1)
	require.Empty(t, Eligible(Product{ID: "llavero-02", Category: "llaveros"}, []Promotion{p}, now))
}

func TestPriceStaysWithinBounds(t *testing.T) {
	cases := []struct {
		name   string
		base   string
		promo  Promotion
		expect string
	}{
		{"percentage", "1000", percent("p", 0, "15"), "850"},
		{"full percentage", "1000", percent("p", 0, "100"), "0"},
		{"fixed larger than price", "100", fixed("f", 0, "150"), "0"},
		{"special lower", "1000", Promotion{Effect: SpecialPrice{Price: d("799.99")}}, "799.99"},
		{"special higher never raises", "1000", Promotion{Effect: SpecialPrice{Price: d("1200")}}, "1000"},
		{"free shipping keeps price", "1000", Promotion{Effect: FreeShipping{}}, "1000"},
		{"half up rounding", "10.05", percent("p", 0, "50"), "5.03"},
		{"rounding only at the end", "33.33", percent("p", 0, "33.333"), "22.22"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base := d(tc.base)
			got := Price(base, tc.promo)
			require.True(t, got.Equal(d(tc.expect)), "got %s", got)
			require.False(t, got.IsNegative())
			require.False(t, got.GreaterThan(base))
		})
	}
}

func TestPriceProductIsIdempotent(t *testing.T) {
	engine := NewEngine(Config{})
	promotions := []Promotion{percent("a", 1, "10"), fixed("b", 1, "100"), percent("c", 0, "50")}
	first := engine.PriceProduct(product("1000"), promotions, now)
	second := engine.PriceProduct(product("1000"), promotions, now)
	require.Equal(t, first.PromotionID, second.PromotionID)
	require.True(t, first.DiscountedPrice.Equal(second.DiscountedPrice))
	require.Equal(t, first.Badges, second.Badges)
}

func TestWinnerIgnoresInputOrder(t *testing.T) {
	promotions := []Promotion{
		percent("a", 3, "10"),
		fixed("b", 3, "100"),
		percent("c", 3, "10"),
		fixed("d", 1, "900"),
		{ID: "e", Effect: SpecialPrice{Price: d("900")}, Scope: AllProducts{}, Active: true, Priority: 3},
		{ID: "ship", Effect: FreeShipping{}, Scope: AllProducts{}, Active: true, Priority: 10},
	}
	base := d("1000")
	want, ok := Resolve(base, promotions)
	require.True(t, ok)
	// a, b, c and e all land on 900; a has the lowest ID.
	require.Equal(t, "a", want.ID)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]Promotion(nil), promotions...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got, ok := Resolve(base, shuffled)
		require.True(t, ok)
		require.Equal(t, want.ID, got.ID)
	}
}

func TestResolveWithoutCandidates(t *testing.T) {
	_, ok := Resolve(d("100"), nil)
	require.False(t, ok)

	_, ok = Resolve(d("100"), []Promotion{{ID: "ship", Effect: FreeShipping{}, Scope: AllProducts{}, Active: true}})
	require.False(t, ok)
}

func TestEvaluationFailureFallsBackToBasePrice(t *testing.T) {
	rec := newCountingRecorder()
	engine := NewEngine(Config{Recorder: rec})
	bad := percent("bad", 1, "10")
	bad.Scope = explodingScope{}

	res := engine.PriceProduct(product("1000"), []Promotion{percent("ok", 0, "10"), bad}, now)

	require.False(t, res.HasPromotion)
	require.True(t, res.DiscountedPrice.Equal(d("1000")))
	require.Equal(t, 1, rec.fallbacks)
}

func TestEngineNormalizeRecordsRejections(t *testing.T) {
	rec := newCountingRecorder()
	engine := NewEngine(Config{Recorder: rec})

	promotions := engine.Normalize([]Record{
		{ID: "ok", Type: "fixedAmount", Value: dec("10"), Scope: "all", Active: true},
		{ID: "broken", Type: "fixedAmount", Scope: "all"},
	})

	require.Len(t, promotions, 1)
	require.Equal(t, 1, rec.rejected[ReasonValue])
}

func TestLiveFiltersByStatusAndWindow(t *testing.T) {
	engine := NewEngine(Config{})
	expired := percent("expired", 1, "10")
	expired.Window = Window{End: now.Add(-time.Hour)}
	inactive := percent("inactive", 1, "10")
	inactive.Active = false
	live := percent("live", 1, "10")
	live.Scope = InCategory{Category: "mates"}

	got := engine.Live([]Promotion{expired, inactive, live}, now)
	require.Len(t, got, 1)
	require.Equal(t, "live", got[0].ID)
}
