package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/store"
)

const productColumns = `id, slug, name, description, base_price, active, customization_options, created_at, updated_at`

func scanProduct(row pgx.Row) (models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID,
		&p.Slug,
		&p.Name,
		&p.Description,
		&p.BasePrice,
		&p.Active,
		&p.CustomizationOptions,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, idOrSlug string) (models.Product, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1 OR slug = $1
		ORDER BY (id = $1) DESC
		LIMIT 1
	`, idOrSlug)
	p, err := scanProduct(row)
	if err != nil {
		return models.Product{}, mapReadError(err, "get product")
	}
	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE active OR NOT $1
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpsertProduct inserts or replaces the product. created_at is only
// written on insert.
func (s *Store) UpsertProduct(ctx context.Context, p models.Product) error {
	p.SetTimestamps()
	options := p.CustomizationOptions
	if options == nil {
		options = []models.CustomizationOption{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			base_price = EXCLUDED.base_price,
			active = EXCLUDED.active,
			customization_options = EXCLUDED.customization_options,
			updated_at = EXCLUDED.updated_at
	`,
		p.ID,
		p.Slug,
		p.Name,
		p.Description,
		p.BasePrice,
		p.Active,
		options,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	return mapWriteError(err, "upsert product")
}

// Discount values travel as text so they keep their exact decimal form.
func (s *Store) GetDiscount(ctx context.Context, code string) (models.DiscountCode, error) {
	var d models.DiscountCode
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT code, type, value::text, active, valid_until
		FROM discounts
		WHERE code = $1
	`, store.NormalizeCode(code)).Scan(&d.Code, &d.Type, &value, &d.Active, &d.ValidUntil)
	if err != nil {
		return models.DiscountCode{}, mapReadError(err, "get discount")
	}
	if d.Value, err = decimal.NewFromString(value); err != nil {
		return models.DiscountCode{}, fmt.Errorf("discount %s has invalid value %q: %w", d.Code, value, err)
	}
	return d, nil
}

func (s *Store) UpsertDiscount(ctx context.Context, d models.DiscountCode) error {
	code := store.NormalizeCode(d.Code)
	if code == "" {
		return store.ErrEmptyCode
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO discounts (code, type, value, active, valid_until)
		VALUES ($1, $2, CAST($3::text AS NUMERIC), $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			type = EXCLUDED.type,
			value = EXCLUDED.value,
			active = EXCLUDED.active,
			valid_until = EXCLUDED.valid_until
	`, code, string(d.Type), d.Value.String(), d.Active, d.ValidUntil)
	return mapWriteError(err, "upsert discount")
}
