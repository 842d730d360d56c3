package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-promo/internal/promo"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads products and promotion records from Postgres.
type Store struct {
	q Querier
}

// NewStore wraps a pgx querier.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

const listPromotionsSQL = `
SELECT id::text, type, value::text, scope,
       COALESCE(category_filter, ''), COALESCE(product_id_filter, ''),
       start_date, end_date, active, priority,
       COALESCE(badge_text, ''), COALESCE(badge_color, ''), COALESCE(badge_text_color, '')
FROM promotions
ORDER BY priority DESC, id`

// ListPromotions returns every promotion row as a raw record. Validation is
// left to the engine.
func (s *Store) ListPromotions(ctx context.Context) ([]promo.Record, error) {
	rows, err := s.q.Query(ctx, listPromotionsSQL)
	if err != nil {
		return nil, fmt.Errorf("query promotions: %w", err)
	}
	defer rows.Close()

	var out []promo.Record
	for rows.Next() {
		var (
			rec        promo.Record
			value      *string
			start, end *time.Time
			priority   int32
		)
		if err := rows.Scan(
			&rec.ID, &rec.Type, &value, &rec.Scope,
			&rec.CategoryFilter, &rec.ProductIDFilter,
			&start, &end, &rec.Active, &priority,
			&rec.BadgeText, &rec.BadgeColor, &rec.BadgeTextColor,
		); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		if value != nil {
			// a non-numeric value is left nil for the engine to reject
			if parsed, err := decimal.NewFromString(*value); err == nil {
				rec.Value = &parsed
			}
		}
		rec.StartDate = formatTime(start)
		rec.EndDate = formatTime(end)
		rec.Priority = int(priority)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate promotions: %w", err)
	}
	return out, nil
}

const productsByIDsSQL = `
SELECT id::text, name, COALESCE(category, ''), base_price::text
FROM products
WHERE id::text = ANY($1)`

// ProductsByIDs loads the pricing view of the requested products. Unknown
// IDs are simply absent from the result.
func (s *Store) ProductsByIDs(ctx context.Context, ids []string) ([]promo.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.q.Query(ctx, productsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]promo.Product, 0, len(ids))
	for rows.Next() {
		var (
			p     promo.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.BasePrice, err = decimal.NewFromString(strings.TrimSpace(price))
		if err != nil {
			return nil, fmt.Errorf("product %s base price: %w", p.ID, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}
