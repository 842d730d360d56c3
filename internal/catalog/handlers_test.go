package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/promo"
)

type resultsResponse struct {
	Data []promo.Result `json:"data"`
}

type resultResponse struct {
	Data promo.Result `json:"data"`
}

type viewsResponse struct {
	Data []PromotionView `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	ten := decimal.NewFromInt(10)
	five := decimal.NewFromInt(500)
	src := &stubSource{
		records: []promo.Record{
			{ID: "storewide", Type: "percentage", Value: &ten, Scope: "all", Active: true, Priority: 1},
			{ID: "llaveros", Type: "fixedAmount", Value: &five, Scope: "category", CategoryFilter: "llaveros", Active: true, Priority: 5, BadgeText: "SUPER"},
			{ID: "expired", Type: "percentage", Value: &ten, Scope: "all", Active: true, EndDate: "2020-01-01"},
			{ID: "broken", Type: "percentage", Scope: "all", Active: true},
		},
		products: []promo.Product{
			{ID: "llavero-01", Name: "Llavero", Category: "llaveros", BasePrice: decimal.NewFromInt(1500)},
			{ID: "taza-01", Name: "Taza", Category: "tazas", BasePrice: decimal.NewFromInt(4000)},
		},
	}
	svc, err := NewService(ServiceConfig{Source: src})
	require.NoError(t, err)
	engine := promo.NewEngine(promo.Config{
		Now: func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) },
	})
	return NewHandler(HandlerConfig{Service: svc, Engine: engine})
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestActivePromotionsListsOnlyValidLivePromotions(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.ActivePromotions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/promotions/active", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body viewsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	ids := []string{body.Data[0].ID, body.Data[1].ID}
	require.ElementsMatch(t, []string{"storewide", "llaveros"}, ids)
	for _, v := range body.Data {
		if v.ID == "llaveros" {
			require.Equal(t, "llaveros", v.Target)
			require.Equal(t, "SUPER", v.Badge.Text)
		}
	}
}

func TestProductPricingPicksHighestPriority(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/products/llavero-01/pricing", nil), "llavero-01")
	h.ProductPricing(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body resultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Data.HasPromotion)
	require.Equal(t, "llaveros", body.Data.PromotionID)
	require.True(t, body.Data.DiscountedPrice.Equal(decimal.NewFromInt(1000)))
	require.True(t, body.Data.OriginalPrice.Equal(decimal.NewFromInt(1500)))
}

func TestProductPricingUnknownProduct(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/products/ghost/pricing", nil), "ghost")
	h.ProductPricing(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
	require.Equal(t, []any{"ghost"}, body.Error.Details["productIds"])
}

func TestPricingBatch(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/products", strings.NewReader(`{"productIds":["taza-01","llavero-01"]}`))
	h.PricingBatch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body resultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "taza-01", body.Data[0].ProductID)
	require.Equal(t, "storewide", body.Data[0].PromotionID)
	require.True(t, body.Data[0].DiscountedPrice.Equal(decimal.NewFromInt(3600)))
	require.Equal(t, "llaveros", body.Data[1].PromotionID)
}

func TestPricingBatchRejectsBadPayloads(t *testing.T) {
	h := newTestHandler(t)
	for _, payload := range []string{`{"productIds":[]}`, `{"productIds":`, `{"ids":["a"]}`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/products", strings.NewReader(payload))
		h.PricingBatch(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, payload)
	}
}

func TestHandlerWithoutDependencies(t *testing.T) {
	h := NewHandler(HandlerConfig{})
	rec := httptest.NewRecorder()
	h.ActivePromotions(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
