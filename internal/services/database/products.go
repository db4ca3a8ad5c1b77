package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"loan-application-engine/internal/catalog"
)

// ProductRepository mirrors the in-memory catalog into loan_products so stored
// applications can be joined against the product definitions they were scored with.
type ProductRepository struct {
	db *DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// SyncCatalog upserts every catalog product and deactivates rows no longer in it.
// It returns the number of active products after the sync.
func (r *ProductRepository) SyncCatalog(ctx context.Context, c *catalog.Catalog) (int, error) {
	products := c.Products()
	ids := make([]string, 0, len(products))
	now := time.Now().UTC()

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, p := range products {
			employment := make([]string, len(p.EmploymentTypes))
			for i, e := range p.EmploymentTypes {
				employment[i] = string(e)
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO loan_products (
					id, name, min_amount, max_amount, gender, age_min, age_max, min_income,
					purposes, employment_types, catalog_version, is_active, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true, $12)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					min_amount = EXCLUDED.min_amount,
					max_amount = EXCLUDED.max_amount,
					gender = EXCLUDED.gender,
					age_min = EXCLUDED.age_min,
					age_max = EXCLUDED.age_max,
					min_income = EXCLUDED.min_income,
					purposes = EXCLUDED.purposes,
					employment_types = EXCLUDED.employment_types,
					catalog_version = EXCLUDED.catalog_version,
					is_active = true,
					updated_at = EXCLUDED.updated_at`,
				p.ID, p.Name, p.MinAmount, p.MaxAmount, string(p.Gender), p.AgeMin, p.AgeMax, p.MinIncome,
				p.Purposes, employment, c.Version(), now,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
			}
			ids = append(ids, p.ID)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE loan_products SET is_active = false, updated_at = $1 WHERE NOT (id = ANY($2))`,
			now, ids); err != nil {
			return fmt.Errorf("failed to deactivate stale products: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(ids), nil
}

// CountActive returns the number of active products.
func (r *ProductRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM loan_products WHERE is_active = true").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
