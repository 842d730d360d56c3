package coupon

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/promo"
)

var (
	// ErrUnknownCoupon is returned when the code is not in the table.
	ErrUnknownCoupon = errors.New("invalid coupon")
	// ErrMinimumSpendUnmet indicates the subtotal is below the coupon minimum.
	ErrMinimumSpendUnmet = errors.New("coupon minimum spend not met")
	// ErrTagQuantityUnmet indicates too few matching units are in the cart.
	ErrTagQuantityUnmet = errors.New("coupon quantity requirement not met")
)

// Result labels reported to the Recorder.
const (
	ResultApplied     = "applied"
	ResultUnknown     = "unknown"
	ResultMinAmount   = "min_amount"
	ResultMinQuantity = "min_quantity"
)

// Outcome is the user-facing result of applying a coupon. Failures are
// values, never errors.
type Outcome struct {
	Success  bool            `json:"success"`
	Code     string          `json:"code,omitempty"`
	Message  string          `json:"message"`
	Discount decimal.Decimal `json:"discount"`
	Result   string          `json:"-"`
}

// Recorder receives coupon outcomes for metrics.
type Recorder interface {
	RecordCoupon(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCoupon(string) {}

// Config configures an Engine.
type Config struct {
	Table          *Table
	Logger         *zerolog.Logger
	Recorder       Recorder
	CurrencySymbol string
}

// Engine applies coupons on top of an already promotion-priced cart.
type Engine struct {
	table    *Table
	logger   zerolog.Logger
	recorder Recorder
	symbol   string
}

// NewEngine builds an Engine around an explicit coupon table.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		table:    cfg.Table,
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
		symbol:   cfg.CurrencySymbol,
	}
	if cfg.Logger != nil {
		e.logger = cfg.Logger.With().Str("component", "coupon").Logger()
	}
	if cfg.Recorder != nil {
		e.recorder = cfg.Recorder
	}
	if e.table == nil {
		e.table = &Table{rules: map[string]Rule{}}
	}
	return e
}

// Validate checks the rule against the post-promotion subtotal and the cart lines.
func (r Rule) Validate(lines []promo.CartLine, subtotal decimal.Decimal) error {
	if r.MinAmount != nil && subtotal.LessThan(*r.MinAmount) {
		return ErrMinimumSpendUnmet
	}
	if tag := r.MinQuantityOfTag; tag != nil && TaggedQuantity(lines, tag.Keyword) < tag.Quantity {
		return ErrTagQuantityUnmet
	}
	return nil
}

// Compute returns the discount the rule grants on subtotal, capped at the subtotal.
func Compute(subtotal decimal.Decimal, r Rule) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	discount := r.Value
	if r.Kind == KindPercentage {
		discount = subtotal.Mul(r.Value).Div(decimal.NewFromInt(100))
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount.Round(promo.MinorUnits)
}

// TaggedQuantity sums the quantities of lines whose name contains keyword,
// ignoring case.
func TaggedQuantity(lines []promo.CartLine, keyword string) int {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return 0
	}
	total := 0
	for _, line := range lines {
		if line.Quantity > 0 && strings.Contains(strings.ToLower(line.Name), keyword) {
			total += line.Quantity
		}
	}
	return total
}

// Apply evaluates code against the cart. Checks run in order: known code,
// minimum amount, tagged quantity.
func (e *Engine) Apply(code string, lines []promo.CartLine, subtotal decimal.Decimal) Outcome {
	out := e.apply(code, lines, subtotal)
	e.recorder.RecordCoupon(out.Result)
	e.logger.Debug().
		Str("code", out.Code).
		Str("result", out.Result).
		Str("discount", out.Discount.StringFixed(promo.MinorUnits)).
		Msg("coupon_evaluated")
	return out
}

func (e *Engine) apply(code string, lines []promo.CartLine, subtotal decimal.Decimal) Outcome {
	rule, ok := e.table.Lookup(code)
	if !ok {
		return Outcome{Message: ErrUnknownCoupon.Error(), Discount: decimal.Zero, Result: ResultUnknown}
	}
	fail := Outcome{Code: rule.Code, Discount: decimal.Zero}

	switch err := rule.Validate(lines, subtotal); {
	case errors.Is(err, ErrMinimumSpendUnmet):
		shortfall := rule.MinAmount.Sub(subtotal)
		fail.Result = ResultMinAmount
		fail.Message = fmt.Sprintf("minimum purchase for %s is %s; add %s more",
			rule.Code, e.money(*rule.MinAmount), e.money(shortfall))
		return fail
	case errors.Is(err, ErrTagQuantityUnmet):
		tag := rule.MinQuantityOfTag
		missing := tag.Quantity - TaggedQuantity(lines, tag.Keyword)
		fail.Result = ResultMinQuantity
		fail.Message = fmt.Sprintf("%s requires %d items matching %q; add %d more",
			rule.Code, tag.Quantity, tag.Keyword, missing)
		return fail
	}

	return Outcome{
		Success:  true,
		Code:     rule.Code,
		Message:  fmt.Sprintf("coupon %s applied", rule.Code),
		Discount: Compute(subtotal, rule),
		Result:   ResultApplied,
	}
}

func (e *Engine) money(v decimal.Decimal) string {
	return e.symbol + v.StringFixed(promo.MinorUnits)
}
