package cart

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/coupon"
	"github.com/noah-isme/toko-promo/internal/pricing"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// maxQuantity caps a single line so totals stay within sane bounds.
const maxQuantity = 999

// ErrInvalidInput is returned when the provided items cannot be priced.
var ErrInvalidInput = errors.New("invalid input")

// Catalog supplies products and the current promotion snapshot.
type Catalog interface {
	Products(ctx context.Context, ids []string) ([]promo.Product, error)
	Promotions(ctx context.Context) []promo.Record
}

// Item is a requested cart line. Prices always come from the catalog.
type Item struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Quantity  int    `json:"quantity" validate:"min=1,max=999"`
}

// Quote is a priced cart snapshot. It is computed per request and never stored.
type Quote struct {
	ID                      string           `json:"quoteId"`
	Lines                   []promo.CartLine `json:"lines"`
	Subtotal                decimal.Decimal  `json:"subtotal"`
	Savings                 decimal.Decimal  `json:"savings"`
	FreeShipping            bool             `json:"freeShipping"`
	FreeShippingPromotionID string           `json:"freeShippingPromotionId,omitempty"`
	Coupon                  *coupon.Outcome  `json:"coupon,omitempty"`
	CouponDiscount          decimal.Decimal  `json:"couponDiscount"`
	Shipping                decimal.Decimal  `json:"shipping"`
	Total                   decimal.Decimal  `json:"total"`
	ComputedAt              time.Time        `json:"computedAt"`
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Catalog     Catalog
	Promotions  *promo.Engine
	Coupons     *coupon.Engine
	ShippingFee decimal.Decimal
	Logger      *zerolog.Logger
	NewID       func() string
}

// Service prices carts: promotions per line, then free shipping, coupon and
// shipping on top of the discounted subtotal.
type Service struct {
	catalog     Catalog
	promotions  *promo.Engine
	coupons     *coupon.Engine
	shippingFee decimal.Decimal
	logger      zerolog.Logger
	newID       func() string
}

// NewService validates cfg and returns a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("cart catalog is required")
	}
	if cfg.Promotions == nil {
		return nil, errors.New("promotion engine is required")
	}
	s := &Service{
		catalog:     cfg.Catalog,
		promotions:  cfg.Promotions,
		coupons:     cfg.Coupons,
		shippingFee: cfg.ShippingFee,
		logger:      zerolog.Nop(),
		newID:       cfg.NewID,
	}
	if s.coupons == nil {
		s.coupons = coupon.NewEngine(coupon.Config{})
	}
	if cfg.Logger != nil {
		s.logger = cfg.Logger.With().Str("component", "cart").Logger()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Quote prices items and, when couponCode is set, stacks the coupon on the
// post-promotion subtotal. A rejected coupon is reported in the quote and
// contributes no discount.
func (s *Service) Quote(ctx context.Context, items []Item, couponCode string) (Quote, error) {
	priced, err := s.price(ctx, items)
	if err != nil {
		return Quote{}, err
	}

	var applied coupon.Outcome
	var outcome *coupon.Outcome
	if code := strings.TrimSpace(couponCode); code != "" {
		applied = s.coupons.Apply(code, priced.Lines, priced.Subtotal)
		outcome = &applied
	}
	summary := pricing.Compute(priced, applied, s.shippingFee)

	q := Quote{
		ID:                      s.newID(),
		Lines:                   priced.Lines,
		Subtotal:                summary.Subtotal,
		Savings:                 summary.Savings,
		FreeShipping:            summary.FreeShipping,
		FreeShippingPromotionID: priced.FreeShippingPromotionID,
		Coupon:                  outcome,
		CouponDiscount:          summary.CouponDiscount,
		Shipping:                summary.Shipping,
		Total:                   summary.Total,
		ComputedAt:              s.promotions.Now(),
	}
	s.logger.Debug().
		Str("quote_id", q.ID).
		Int("lines", len(q.Lines)).
		Str("total", q.Total.StringFixed(promo.MinorUnits)).
		Msg("cart_quoted")
	return q, nil
}

// ApplyCoupon evaluates code against the priced items without building a
// full quote.
func (s *Service) ApplyCoupon(ctx context.Context, code string, items []Item) (coupon.Outcome, error) {
	priced, err := s.price(ctx, items)
	if err != nil {
		return coupon.Outcome{}, err
	}
	return s.coupons.Apply(code, priced.Lines, priced.Subtotal), nil
}

func (s *Service) price(ctx context.Context, items []Item) (promo.Cart, error) {
	ids, quantities, err := mergeItems(items)
	if err != nil {
		return promo.Cart{}, err
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return promo.Cart{}, err
	}
	lines := make([]promo.LineItem, 0, len(products))
	for _, p := range products {
		lines = append(lines, promo.LineItem{Product: p, Quantity: quantities[p.ID]})
	}
	promotions := s.promotions.Normalize(s.catalog.Promotions(ctx))
	return s.promotions.Aggregate(lines, promotions, s.promotions.Now()), nil
}

// mergeItems folds repeated product IDs into one line, keeping first-seen order.
func mergeItems(items []Item) ([]string, map[string]int, error) {
	if len(items) == 0 {
		return nil, nil, invalid("cart has no items", nil)
	}
	ids := make([]string, 0, len(items))
	quantities := make(map[string]int, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ProductID)
		if id == "" {
			return nil, nil, invalid("product id is required", nil)
		}
		if it.Quantity <= 0 {
			return nil, nil, invalid("quantity must be positive", map[string]any{"productId": id})
		}
		if _, seen := quantities[id]; !seen {
			ids = append(ids, id)
		}
		quantities[id] += it.Quantity
		if quantities[id] > maxQuantity {
			return nil, nil, invalid("quantity too large", map[string]any{"productId": id})
		}
	}
	return ids, quantities, nil
}

func invalid(message string, details any) error {
	appErr := common.NewAppError("BAD_REQUEST", message, http.StatusBadRequest, ErrInvalidInput)
	appErr.Details = details
	return appErr
}
