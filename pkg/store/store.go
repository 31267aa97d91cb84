// Package store defines the source-of-truth persistence ports. The cart
// cache is derived from these and never replaces them.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"pohrebni-vence.cz/storefront/pkg/global"
	"pohrebni-vence.cz/storefront/pkg/models"
)

var (
	ErrNotFound = global.ErrNotFound
	ErrConflict = global.ErrConflict

	// ErrNoOwner is returned for cart operations without a user or session.
	ErrNoOwner   = errors.New("cart owner has neither user nor session id")
	ErrEmptyCode = errors.New("discount code is empty")
)

type CartRepository interface {
	// ListItems returns the owner's cart lines, oldest first.
	ListItems(ctx context.Context, owner models.CartOwner) ([]models.CartItem, error)
	InsertItem(ctx context.Context, owner models.CartOwner, item models.CartItem) error
	// UpdateItemQuantity sets the quantity and recalculates the line total.
	UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID string, quantity int, now time.Time) (models.CartItem, error)
	DeleteItem(ctx context.Context, owner models.CartOwner, itemID string) error
	DeleteAll(ctx context.Context, owner models.CartOwner) (int64, error)
	// DeleteStale removes every cart not touched since before and returns
	// the owners whose carts were removed.
	DeleteStale(ctx context.Context, before time.Time) ([]models.CartOwner, error)
}

type ProductRepository interface {
	// GetProduct looks a product up by id or slug.
	GetProduct(ctx context.Context, idOrSlug string) (models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error)
	UpsertProduct(ctx context.Context, p models.Product) error
}

type OrderRepository interface {
	// CreateOrder fails with ErrConflict when the id is taken.
	CreateOrder(ctx context.Context, o models.Order) error
	GetOrder(ctx context.Context, id string) (models.Order, error)
	// MarkPaid moves a pending order to paid. Paid orders are returned
	// unchanged; cancelled orders fail with ErrConflict.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Order, error)
}

type DiscountRepository interface {
	// GetDiscount looks a code up case-insensitively.
	GetDiscount(ctx context.Context, code string) (models.DiscountCode, error)
	UpsertDiscount(ctx context.Context, d models.DiscountCode) error
}

// Store is implemented by every persistence adapter.
type Store interface {
	CartRepository
	ProductRepository
	OrderRepository
	DiscountRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NormalizeCode is the stored form of a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// OwnerKey is the storage identity of a cart owner, ok is false for an
// owner without ids.
func OwnerKey(owner models.CartOwner) (key string, ok bool) {
	return owner.Identifier()
}
