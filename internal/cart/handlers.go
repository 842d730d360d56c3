package cart

import (
	"net/http"

	"github.com/noah-isme/toko-promo/internal/common"
)

// Handler wires cart pricing to HTTP.
type Handler struct {
	svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type quoteRequest struct {
	Items      []Item `json:"items" validate:"required,min=1,max=200,dive"`
	CouponCode string `json:"couponCode" validate:"omitempty,max=64"`
}

type applyCouponRequest struct {
	Code  string `json:"code" validate:"required,max=64"`
	Items []Item `json:"items" validate:"required,min=1,max=200,dive"`
}

// Quote handles POST /api/v1/cart/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.svc.Quote(r.Context(), req.Items, req.CouponCode)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, quote)
}

// ApplyCoupon handles POST /api/v1/coupons/apply. A rejected coupon is still
// a 200 with success=false and the reason in the message.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req applyCouponRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	outcome, err := h.svc.ApplyCoupon(r.Context(), req.Code, req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, outcome)
}
