// Package app assembles the pricing API from its collaborators.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-promo/internal/cart"
	"github.com/noah-isme/toko-promo/internal/catalog"
	"github.com/noah-isme/toko-promo/internal/config"
	"github.com/noah-isme/toko-promo/internal/coupon"
	"github.com/noah-isme/toko-promo/internal/health"
	"github.com/noah-isme/toko-promo/internal/lock"
	"github.com/noah-isme/toko-promo/internal/obs"
	"github.com/noah-isme/toko-promo/internal/promo"
	"github.com/noah-isme/toko-promo/internal/ratelimit"
	"github.com/noah-isme/toko-promo/internal/resilience"
	"github.com/noah-isme/toko-promo/internal/security"
)

// Database is the subset of *pgxpool.Pool the API uses.
type Database interface {
	catalog.Querier
	Ping(ctx context.Context) error
}

// Dependencies enumerates the shared infrastructure handed to NewHandler.
type Dependencies struct {
	DB       Database
	Redis    *redis.Client
	Registry *prometheus.Registry
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewHandler builds the full HTTP handler: router, middleware and every
// pricing endpoint.
func NewHandler(cfg *config.Config, deps Dependencies) (http.Handler, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	logger := deps.Logger
	metrics := obs.NewPromoMetrics(cfg.Obs.MetricsNamespace, registry)

	rules, err := config.LoadCoupons(cfg.CouponsFile)
	if err != nil {
		return nil, err
	}
	table, err := coupon.NewTable(rules)
	if err != nil {
		return nil, fmt.Errorf("coupon table: %w", err)
	}
	logger.Info().Int("coupons", table.Len()).Str("file", cfg.CouponsFile).Msg("coupon_table_loaded")

	breaker := resilience.NewBreaker(resilience.Config{
		Target:       "catalog_db",
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
		OpenFor:      cfg.Breaker.OpenFor,
		Observer:     metrics,
		Logger:       &logger,
		Now:          deps.Now,
	})
	var refreshLock catalog.Locker
	if deps.Redis != nil {
		refreshLock = lock.Locker{R: deps.Redis, Wait: 2 * time.Second}
	}
	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Source:   catalog.Guard(catalog.NewStore(deps.DB), breaker),
		Cache:    catalog.NewCache(deps.Redis, cfg.PromoCacheTTL),
		Lock:     refreshLock,
		Logger:   &logger,
		Recorder: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	engine := promo.NewEngine(promo.Config{
		Logger:   &logger,
		Recorder: metrics,
		Badges:   badgeDefaults(cfg),
		Location: cfg.PromoTimezone,
		Now:      deps.Now,
	})
	coupons := coupon.NewEngine(coupon.Config{
		Table:          table,
		Logger:         &logger,
		Recorder:       metrics,
		CurrencySymbol: cfg.CurrencySymbol,
	})
	cartService, err := cart.NewService(cart.ServiceConfig{
		Catalog:     catalogService,
		Promotions:  engine,
		Coupons:     coupons,
		ShippingFee: cfg.ShippingFlatFee,
		Logger:      &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	couponLimiter, err := ratelimit.New(deps.Redis, cfg.CouponRateLimit)
	if err != nil {
		return nil, err
	}
	limit := ratelimit.Handler{
		Limiter: couponLimiter,
		Key:     ratelimit.ClientIP("coupon"),
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate_limiter_unavailable") },
	}

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService, Engine: engine})
	cartHandler := cart.NewHandler(cartService)
	healthHandler := health.Handler{Checker: health.Probes{DB: deps.DB, Redis: deps.Redis}}
	httpMetrics := obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, nil, registry)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.SpanRouteMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production", NoStore: true}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
		v.Get("/promotions/active", catalogHandler.ActivePromotions)
		v.Get("/products/{id}/pricing", catalogHandler.ProductPricing)
		v.Post("/pricing/products", catalogHandler.PricingBatch)
		v.Post("/cart/quote", cartHandler.Quote)
		v.With(limit.Middleware).Post("/coupons/apply", cartHandler.ApplyCoupon)
	})

	return otelhttp.NewHandler(r, "toko-promo"), nil
}

func badgeDefaults(cfg *config.Config) promo.BadgeDefaults {
	d := promo.DefaultBadgeStyle
	if cfg.CurrencySymbol != "" {
		d.CurrencySymbol = cfg.CurrencySymbol
	}
	return d
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
