package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	if err := seedProducts(db); err != nil {
		log.Fatalf("Failed to seed products: %v", err)
	}
	if err := seedPromotions(db, time.Now().UTC()); err != nil {
		log.Fatalf("Failed to seed promotions: %v", err)
	}

	log.Println("Seeding completed successfully!")
}

func seedProducts(db *sql.DB) error {
	products := []struct {
		ID       string
		Name     string
		Category string
		Price    string
	}{
		{"llavero-acrilico-01", "Llavero acrílico personalizado", "llaveros", "1500"},
		{"llavero-madera-01", "Llavero de madera grabado", "llaveros", "2000"},
		{"llavero-metal-01", "Llavero metálico con nombre", "llaveros", "3500"},
		{"cuadro-mdf-01", "Cuadro MDF grabado láser", "cuadros", "12000"},
		{"cuadro-acrilico-01", "Cuadro acrílico iluminado", "cuadros", "45000"},
		{"taza-sublimada-01", "Taza sublimada", "tazas", "18000"},
		{"portarretrato-01", "Portarretrato cortado a láser", "decoracion", "25000"},
		{"letrero-neon-01", "Letrero neón LED", "decoracion", "150000"},
		{"medalla-01", "Medalla grabada", "trofeos", "9000"},
		{"trofeo-acrilico-01", "Trofeo acrílico", "trofeos", "65000"},
	}

	fmt.Println("Seeding Products...")
	var errs []error
	for _, p := range products {
		_, err := db.Exec(`
			INSERT INTO products (id, name, category, base_price)
			VALUES ($1, $2, $3, $4::numeric)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, category = EXCLUDED.category,
			    base_price = EXCLUDED.base_price, updated_at = now();
		`, p.ID, p.Name, p.Category, p.Price)
		if err != nil {
			errs = append(errs, fmt.Errorf("product %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

func seedPromotions(db *sql.DB, now time.Time) error {
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 1, 0)
	expired := now.AddDate(0, -1, 0)

	promotions := []struct {
		ID         string
		Type       string
		Value      sql.NullString
		Scope      string
		Category   sql.NullString
		ProductID  sql.NullString
		Start, End sql.NullTime
		Active     bool
		Priority   int
		BadgeText  sql.NullString
	}{
		{ID: "promo-llaveros-10", Type: "percentage", Value: str("10"), Scope: "category", Category: str("llaveros"),
			Start: at(start), End: at(end), Active: true, Priority: 1},
		{ID: "promo-cuadro-especial", Type: "specialPrice", Value: str("9990"), Scope: "product", ProductID: str("cuadro-mdf-01"),
			Start: at(start), End: at(end), Active: true, Priority: 5, BadgeText: str("PRECIO ESPECIAL")},
		{ID: "promo-tazas-2000", Type: "fixedAmount", Value: str("2000"), Scope: "category", Category: str("tazas"),
			Active: true, Priority: 2},
		{ID: "promo-envio-decoracion", Type: "freeShipping", Scope: "category", Category: str("decoracion"),
			Start: at(start), End: at(end), Active: true},
		{ID: "promo-vencida", Type: "percentage", Value: str("50"), Scope: "all",
			End: at(expired), Active: true, Priority: 10},
		{ID: "promo-pausada", Type: "percentage", Value: str("30"), Scope: "all", Active: false, Priority: 9},
	}

	fmt.Println("Seeding Promotions...")
	var errs []error
	for _, p := range promotions {
		_, err := db.Exec(`
			INSERT INTO promotions (id, type, value, scope, category_filter, product_id_filter,
			                        start_date, end_date, active, priority, badge_text)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (id) DO UPDATE
			SET type = EXCLUDED.type, value = EXCLUDED.value, scope = EXCLUDED.scope,
			    category_filter = EXCLUDED.category_filter, product_id_filter = EXCLUDED.product_id_filter,
			    start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
			    active = EXCLUDED.active, priority = EXCLUDED.priority,
			    badge_text = EXCLUDED.badge_text, updated_at = now();
		`, p.ID, p.Type, p.Value, p.Scope, p.Category, p.ProductID, p.Start, p.End, p.Active, p.Priority, p.BadgeText)
		if err != nil {
			errs = append(errs, fmt.Errorf("promotion %s: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func at(t time.Time) sql.NullTime { return sql.NullTime{Time: t, Valid: true} }
