package catalog

import (
	"context"

	"github.com/noah-isme/toko-promo/internal/promo"
	"github.com/noah-isme/toko-promo/internal/resilience"
)

type guardedSource struct {
	next    Source
	breaker *resilience.Breaker
}

// Guard wraps src with a circuit breaker. While the breaker is open calls
// fail fast with resilience.ErrOpenCircuit instead of waiting on the database.
func Guard(src Source, breaker *resilience.Breaker) Source {
	if breaker == nil {
		return src
	}
	return &guardedSource{next: src, breaker: breaker}
}

func (g *guardedSource) ListPromotions(ctx context.Context) ([]promo.Record, error) {
	var out []promo.Record
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		records, err := g.next.ListPromotions(ctx)
		out = records
		return err
	})
	return out, err
}

func (g *guardedSource) ProductsByIDs(ctx context.Context, ids []string) ([]promo.Product, error) {
	var out []promo.Product
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		products, err := g.next.ProductsByIDs(ctx, ids)
		out = products
		return err
	})
	return out, err
}
