package promo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Recorder receives engine outcomes for metrics.
type Recorder interface {
	RecordRejected(reason string)
	RecordFallback()
	RecordApplied(kind Kind)
}

type nopRecorder struct{}

func (nopRecorder) RecordRejected(string) {}
func (nopRecorder) RecordFallback()       {}
func (nopRecorder) RecordApplied(Kind)    {}

// Config configures an Engine. Every field is optional.
type Config struct {
	Logger   *zerolog.Logger
	Recorder Recorder
	Badges   BadgeDefaults
	Location *time.Location
	Now      func() time.Time
}

// Engine runs the validate, filter, resolve, price and badge pipeline. It
// holds no per-call state and is safe for concurrent use.
type Engine struct {
	logger   zerolog.Logger
	recorder Recorder
	badges   BadgeDefaults
	loc      *time.Location
	now      func() time.Time
}

// NewEngine builds an Engine from cfg.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
		badges:   cfg.Badges.withFallbacks(),
		loc:      cfg.Location,
		now:      cfg.Now,
	}
	if cfg.Logger != nil {
		e.logger = cfg.Logger.With().Str("component", "promo").Logger()
	}
	if cfg.Recorder != nil {
		e.recorder = cfg.Recorder
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time {
	return e.now().In(e.loc)
}

// Location returns the zone used for zone-less promotion dates.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Badges renders badges for p with the engine's defaults.
func (e *Engine) Badges(p *Promotion) []Badge {
	return Badges(p, e.badges)
}

// Normalize validates raw records, logging and counting the ones it drops.
func (e *Engine) Normalize(records []Record) []Promotion {
	promotions, rejected := Normalize(records, e.loc)
	for _, r := range rejected {
		e.logger.Warn().
			Str("promotion_id", r.ID).
			Str("reason", r.Reason).
			Str("detail", r.Detail).
			Msg("promotion_rejected")
		e.recorder.RecordRejected(r.Reason)
	}
	return promotions
}

// Live returns the promotions in effect at now regardless of scope.
func (e *Engine) Live(promotions []Promotion, now time.Time) []Promotion {
	var out []Promotion
	for _, p := range promotions {
		if isLive(p, now) {
			out = append(out, p)
		}
	}
	return out
}

// PriceProduct resolves the price of p. It always produces a result: any
// failure while evaluating degrades to the undiscounted base price.
func (e *Engine) PriceProduct(p Product, promotions []Promotion, now time.Time) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("product_id", p.ID).
				Str("panic", fmt.Sprint(r)).
				Msg("promotion_evaluation_failed")
			e.recorder.RecordFallback()
			res = undiscounted(p)
		}
	}()
	return e.priceProduct(p, promotions, now)
}

// PriceProducts resolves every product against the same promotion snapshot.
func (e *Engine) PriceProducts(products []Product, promotions []Promotion, now time.Time) []Result {
	out := make([]Result, 0, len(products))
	for _, p := range products {
		out = append(out, e.PriceProduct(p, promotions, now))
	}
	return out
}

func (e *Engine) priceProduct(p Product, promotions []Promotion, now time.Time) Result {
	if p.BasePrice.IsNegative() {
		return undiscounted(p)
	}
	winner, ok := Resolve(p.BasePrice, Eligible(p, promotions, now))
	if !ok {
		return undiscounted(p)
	}
	price := Price(p.BasePrice, winner)
	e.recorder.RecordApplied(winner.Kind())
	return Result{
		ProductID:       p.ID,
		HasPromotion:    true,
		DiscountedPrice: price,
		OriginalPrice:   p.BasePrice,
		PromotionID:     winner.ID,
		Badges:          Badges(&winner, e.badges),
	}
}

func undiscounted(p Product) Result {
	return Result{
		ProductID:       p.ID,
		DiscountedPrice: p.BasePrice,
		OriginalPrice:   p.BasePrice,
		Badges:          []Badge{},
	}
}
