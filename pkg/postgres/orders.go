package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/store"
)

const orderColumns = `id, user_id, session_id, items, subtotal, discount_total, total,
	applied_discounts, delivery_date, payment_session_id, status, created_at, paid_at`

func scanOrder(row pgx.Row) (models.Order, error) {
	var o models.Order
	err := row.Scan(
		&o.ID,
		&o.Owner.UserID,
		&o.Owner.SessionID,
		&o.Items,
		&o.Subtotal,
		&o.DiscountTotal,
		&o.Total,
		&o.AppliedDiscounts,
		&o.DeliveryDate,
		&o.PaymentSessionID,
		&o.Status,
		&o.CreatedAt,
		&o.PaidAt,
	)
	return o, err
}

func (s *Store) CreateOrder(ctx context.Context, o models.Order) error {
	applied := o.AppliedDiscounts
	if applied == nil {
		applied = []models.AppliedDiscount{}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		o.ID,
		o.Owner.UserID,
		o.Owner.SessionID,
		o.Items,
		o.Subtotal,
		o.DiscountTotal,
		o.Total,
		applied,
		o.DeliveryDate,
		o.PaymentSessionID,
		string(o.Status),
		o.CreatedAt.UTC(),
		o.PaidAt,
	)
	return mapWriteError(err, "insert order")
}

func (s *Store) GetOrder(ctx context.Context, id string) (models.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return models.Order{}, mapReadError(err, "get order")
	}
	return o, nil
}

func (s *Store) MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Order, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = 'paid', paid_at = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING `+orderColumns,
		id, paidAt.UTC(),
	)
	o, err := scanOrder(row)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Order{}, mapReadError(err, "mark order paid")
	}

	current, err := s.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	if current.Status == models.OrderPaid {
		return current, nil
	}
	return models.Order{}, store.ErrConflict
}
