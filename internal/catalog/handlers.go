package catalog

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/promo"
)

// Handler exposes storefront pricing endpoints.
type Handler struct {
	service *Service
	engine  *promo.Engine
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
	Engine  *promo.Engine
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, engine: cfg.Engine}
}

type pricingRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,max=200,dive,required"`
}

// PromotionView is the public shape of a live promotion.
type PromotionView struct {
	ID        string      `json:"id"`
	Kind      promo.Kind  `json:"kind"`
	Scope     string      `json:"scope"`
	Target    string      `json:"target,omitempty"`
	Priority  int         `json:"priority"`
	StartDate *time.Time  `json:"startDate,omitempty"`
	EndDate   *time.Time  `json:"endDate,omitempty"`
	Badge     promo.Badge `json:"badge"`
}

// ActivePromotions handles GET /api/v1/promotions/active.
func (h *Handler) ActivePromotions(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	now := h.engine.Now()
	promotions := h.engine.Live(h.engine.Normalize(h.service.Promotions(r.Context())), now)
	views := make([]PromotionView, 0, len(promotions))
	for i := range promotions {
		views = append(views, toView(promotions[i], h.engine))
	}
	common.Data(w, http.StatusOK, views)
}

// ProductPricing handles GET /api/v1/products/{id}/pricing.
func (h *Handler) ProductPricing(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id is required", nil)
		return
	}
	results, err := h.price(r, []string{id})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, results[0])
}

// PricingBatch handles POST /api/v1/pricing/products.
func (h *Handler) PricingBatch(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req pricingRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	results, err := h.price(r, req.ProductIDs)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, results)
}

func (h *Handler) price(r *http.Request, ids []string) ([]promo.Result, error) {
	products, err := h.service.Products(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	promotions := h.engine.Normalize(h.service.Promotions(r.Context()))
	return h.engine.PriceProducts(products, promotions, h.engine.Now()), nil
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil || h.engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing not configured", nil)
		return false
	}
	return true
}

func toView(p promo.Promotion, engine *promo.Engine) PromotionView {
	view := PromotionView{
		ID:       p.ID,
		Kind:     p.Kind(),
		Scope:    p.Scope.Name(),
		Priority: p.Priority,
	}
	switch s := p.Scope.(type) {
	case promo.InCategory:
		view.Target = s.Category
	case promo.ForProduct:
		view.Target = s.ProductID
	}
	if !p.Window.Start.IsZero() {
		start := p.Window.Start.In(engine.Location())
		view.StartDate = &start
	}
	if !p.Window.End.IsZero() {
		end := p.Window.End.In(engine.Location())
		view.EndDate = &end
	}
	if badges := engine.Badges(&p); len(badges) > 0 {
		view.Badge = badges[0]
	}
	return view
}
