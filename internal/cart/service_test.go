package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-promo/internal/common"
	"github.com/noah-isme/toko-promo/internal/coupon"
	"github.com/noah-isme/toko-promo/internal/promo"
)

type fakeCatalog struct {
	products map[string]promo.Product
	records  []promo.Record
}

func (f *fakeCatalog) Products(_ context.Context, ids []string) ([]promo.Product, error) {
	out := make([]promo.Product, 0, len(ids))
	for _, id := range ids {
		p, ok := f.products[id]
		if !ok {
			return nil, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, nil)
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeCatalog) Promotions(context.Context) []promo.Record { return f.records }

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newService(t *testing.T, records ...promo.Record) *Service {
	t.Helper()
	minAmount := money(10000)
	table, err := coupon.NewTable([]coupon.Rule{
		{Code: "LASER10", Kind: coupon.KindPercentage, Value: money(10), MinAmount: &minAmount},
		{Code: "5X1LLAVEROS", Kind: coupon.KindPercentage, Value: money(20),
			MinQuantityOfTag: &coupon.TagRequirement{Keyword: "llavero", Quantity: 5}},
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceConfig{
		Catalog: &fakeCatalog{
			products: map[string]promo.Product{
				"llavero-01": {ID: "llavero-01", Name: "Llavero acrílico", Category: "llaveros", BasePrice: money(1500)},
				"cuadro-01":  {ID: "cuadro-01", Name: "Cuadro grabado", Category: "cuadros", BasePrice: money(12000)},
			},
			records: records,
		},
		Promotions: promo.NewEngine(promo.Config{
			Now: func() time.Time { return time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC) },
		}),
		Coupons:     coupon.NewEngine(coupon.Config{Table: table, CurrencySymbol: "₲"}),
		ShippingFee: money(25000),
		NewID:       func() string { return "quote-1" },
	})
	require.NoError(t, err)
	return svc
}

func TestQuoteWithoutPromotions(t *testing.T) {
	svc := newService(t)

	q, err := svc.Quote(context.Background(), []Item{{ProductID: "llavero-01", Quantity: 2}}, "")

	require.NoError(t, err)
	assert.Equal(t, "quote-1", q.ID)
	assert.Nil(t, q.Coupon)
	assert.True(t, q.Subtotal.Equal(money(3000)))
	assert.True(t, q.Shipping.Equal(money(25000)))
	assert.True(t, q.Total.Equal(money(28000)))
}

func TestQuoteStacksCouponOnDiscountedSubtotal(t *testing.T) {
	fifteen := money(15)
	svc := newService(t, promo.Record{ID: "cuadros-15", Type: "percentage", Value: &fifteen,
		Scope: "category", CategoryFilter: "cuadros", Active: true})

	// 12000 -15% = 10200, above the LASER10 minimum.
	q, err := svc.Quote(context.Background(), []Item{{ProductID: "cuadro-01", Quantity: 1}}, "laser10")

	require.NoError(t, err)
	require.NotNil(t, q.Coupon)
	assert.True(t, q.Coupon.Success)
	assert.True(t, q.Subtotal.Equal(money(10200)))
	assert.True(t, q.CouponDiscount.Equal(money(1020)))
	assert.True(t, q.Savings.Equal(money(2820)))
	assert.True(t, q.Total.Equal(money(34180)))
}

func TestQuoteReportsRejectedCoupon(t *testing.T) {
	svc := newService(t)

	q, err := svc.Quote(context.Background(), []Item{{ProductID: "llavero-01", Quantity: 4}}, "5X1LLAVEROS")

	require.NoError(t, err)
	require.NotNil(t, q.Coupon)
	assert.False(t, q.Coupon.Success)
	assert.Contains(t, q.Coupon.Message, "add 1 more")
	assert.True(t, q.CouponDiscount.IsZero())
	assert.True(t, q.Total.Equal(money(31000)))
}

func TestQuoteMergesRepeatedItems(t *testing.T) {
	svc := newService(t)

	outcome, err := svc.ApplyCoupon(context.Background(), "5X1LLAVEROS", []Item{
		{ProductID: "llavero-01", Quantity: 3},
		{ProductID: " llavero-01 ", Quantity: 2},
	})

	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Discount.Equal(money(1500)))
}

func TestQuoteFreeShipping(t *testing.T) {
	svc := newService(t, promo.Record{ID: "envio", Type: "freeShipping", Scope: "category",
		CategoryFilter: "llaveros", Active: true})

	q, err := svc.Quote(context.Background(), []Item{
		{ProductID: "llavero-01", Quantity: 1},
		{ProductID: "cuadro-01", Quantity: 1},
	}, "")

	require.NoError(t, err)
	assert.True(t, q.FreeShipping)
	assert.Equal(t, "envio", q.FreeShippingPromotionID)
	assert.True(t, q.Shipping.IsZero())
	assert.True(t, q.Total.Equal(money(13500)))
}

func TestQuoteRejectsInvalidItems(t *testing.T) {
	svc := newService(t)
	cases := map[string][]Item{
		"empty":         nil,
		"blank id":      {{ProductID: " ", Quantity: 1}},
		"zero quantity": {{ProductID: "llavero-01", Quantity: 0}},
		"too many":      {{ProductID: "llavero-01", Quantity: 600}, {ProductID: "llavero-01", Quantity: 600}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Quote(context.Background(), items, "")
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := svc.Quote(context.Background(), []Item{{ProductID: "ghost", Quantity: 1}}, "")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestHandlers(t *testing.T) {
	h := NewHandler(newService(t))

	t.Run("quote", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote",
			strings.NewReader(`{"items":[{"productId":"llavero-01","quantity":2}],"couponCode":"NOPE"}`))
		h.Quote(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data struct {
				QuoteID string          `json:"quoteId"`
				Total   decimal.Decimal `json:"total"`
				Coupon  coupon.Outcome  `json:"coupon"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "quote-1", body.Data.QuoteID)
		assert.True(t, body.Data.Total.Equal(money(28000)))
		assert.False(t, body.Data.Coupon.Success)
		assert.Equal(t, "invalid coupon", body.Data.Coupon.Message)
	})

	t.Run("apply coupon", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/apply",
			strings.NewReader(`{"code":"LASER10","items":[{"productId":"cuadro-01","quantity":1}]}`))
		h.ApplyCoupon(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Data coupon.Outcome `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Data.Success)
		assert.True(t, body.Data.Discount.Equal(money(1200)))
	})

	t.Run("validation", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/coupons/apply",
			strings.NewReader(`{"items":[{"productId":"cuadro-01","quantity":0}]}`))
		h.ApplyCoupon(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body struct {
			Error common.ErrorBody `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "BAD_REQUEST", body.Error.Code)
	})
}
