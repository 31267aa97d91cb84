package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/store"
)

const cartItemColumns = `id, product_id, quantity, customizations, unit_price, total_price, added_at, updated_at`

func scanCartItem(row pgx.Row) (models.CartItem, error) {
	var item models.CartItem
	err := row.Scan(
		&item.ID,
		&item.ProductID,
		&item.Quantity,
		&item.Customizations,
		&item.UnitPrice,
		&item.TotalPrice,
		&item.AddedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func (s *Store) ListItems(ctx context.Context, owner models.CartOwner) ([]models.CartItem, error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return nil, store.ErrNoOwner
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+cartItemColumns+`
		FROM cart_items
		WHERE owner_key = $1
		ORDER BY added_at, id
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) InsertItem(ctx context.Context, owner models.CartOwner, item models.CartItem) error {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return store.ErrNoOwner
	}
	customizations := item.Customizations
	if customizations == nil {
		customizations = []models.Customization{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cart_items (
			id, owner_key, user_id, session_id, product_id, quantity,
			customizations, unit_price, total_price, added_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		item.ID,
		key,
		owner.UserID,
		owner.SessionID,
		item.ProductID,
		item.Quantity,
		customizations,
		item.UnitPrice,
		item.TotalPrice,
		item.AddedAt.UTC(),
		item.UpdatedAt.UTC(),
	)
	return mapWriteError(err, "insert cart item")
}

func (s *Store) UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID string, quantity int, now time.Time) (models.CartItem, error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return models.CartItem{}, store.ErrNoOwner
	}
	row := s.pool.QueryRow(ctx, `
		UPDATE cart_items
		SET quantity = $3,
		    total_price = unit_price * $3,
		    updated_at = $4
		WHERE id = $1 AND owner_key = $2
		RETURNING `+cartItemColumns,
		itemID, key, quantity, now.UTC(),
	)
	item, err := scanCartItem(row)
	if err != nil {
		return models.CartItem{}, mapReadError(err, "update cart item")
	}
	return item, nil
}

func (s *Store) DeleteItem(ctx context.Context, owner models.CartOwner, itemID string) error {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return store.ErrNoOwner
	}
	ct, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND owner_key = $2`, itemID, key)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAll(ctx context.Context, owner models.CartOwner) (int64, error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return 0, store.ErrNoOwner
	}
	ct, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE owner_key = $1`, key)
	if err != nil {
		return 0, fmt.Errorf("delete cart: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (s *Store) DeleteStale(ctx context.Context, before time.Time) ([]models.CartOwner, error) {
	rows, err := s.pool.Query(ctx, `
		WITH stale AS (
			SELECT owner_key
			FROM cart_items
			GROUP BY owner_key
			HAVING max(greatest(added_at, updated_at)) < $1
		)
		DELETE FROM cart_items c
		USING stale
		WHERE c.owner_key = stale.owner_key
		RETURNING c.owner_key, c.user_id, c.session_id
	`, before.UTC())
	if err != nil {
		return nil, fmt.Errorf("delete stale carts: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	owners := []models.CartOwner{}
	for rows.Next() {
		var key string
		var owner models.CartOwner
		if err := rows.Scan(&key, &owner.UserID, &owner.SessionID); err != nil {
			return nil, fmt.Errorf("scan stale cart: %w", err)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}
