// Package storetest holds the behaviour every store.Store adapter must share.
// Adapters run it from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/money"
	"pohrebni-vence.cz/storefront/pkg/store"
)

// Factory returns a ready store. Cleanup is registered on t.
type Factory func(t *testing.T) store.Store

// Run executes every contract against stores created by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Carts", func(t *testing.T) { RunCarts(t, newStore) })
	t.Run("StaleCarts", func(t *testing.T) { RunStaleCarts(t, newStore) })
	t.Run("Products", func(t *testing.T) { RunProducts(t, newStore) })
	t.Run("Orders", func(t *testing.T) { RunOrders(t, newStore) })
	t.Run("Discounts", func(t *testing.T) { RunDiscounts(t, newStore) })
}

// base is truncated to milliseconds so every backend stores it exactly.
func base() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func text(s string) *string { return &s }

func newItem(productID string, quantity int, unit money.Amount, addedAt time.Time) models.CartItem {
	item := models.CartItem{
		ID:        uuid.NewString(),
		ProductID: productID,
		Quantity:  quantity,
		Customizations: []models.Customization{
			{OptionID: "size", ChoiceIDs: []string{"size_40"}},
			{OptionID: "ribbon_text", ChoiceIDs: []string{}, CustomValue: text("S láskou")},
		},
		UnitPrice: unit,
		AddedAt:   addedAt,
		UpdatedAt: addedAt,
	}
	item.Recalculate()
	return item
}

func RunCarts(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()
	s := newStore(t)

	owner := models.CartOwner{SessionID: "sess-" + uuid.NewString()}
	other := models.CartOwner{UserID: uuid.NewString(), SessionID: owner.SessionID}

	items, err := s.ListItems(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, items)

	t0 := base()
	first := newItem("wreath-1", 1, money.CZK(1490), t0)
	second := newItem("wreath-2", 2, money.CZK(990), t0.Add(time.Second))
	require.NoError(t, s.InsertItem(ctx, owner, second))
	require.NoError(t, s.InsertItem(ctx, owner, first))

	err = s.InsertItem(ctx, owner, first)
	assert.ErrorIs(t, err, store.ErrConflict)

	items, err = s.ListItems(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID, "oldest first")
	assert.Equal(t, second.ID, items[1].ID)
	got := items[0]
	assert.Equal(t, first.ProductID, got.ProductID)
	assert.Equal(t, first.Quantity, got.Quantity)
	assert.Equal(t, first.UnitPrice, got.UnitPrice)
	assert.Equal(t, first.TotalPrice, got.TotalPrice)
	assert.True(t, first.AddedAt.Equal(got.AddedAt))
	require.Len(t, got.Customizations, 2)
	assert.Equal(t, []string{"size_40"}, got.Customizations[0].ChoiceIDs)
	require.NotNil(t, got.Customizations[1].CustomValue)
	assert.Equal(t, "S láskou", *got.Customizations[1].CustomValue)

	// a signed-in user owns a separate cart even with the same session
	items, err = s.ListItems(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, items)

	updated, err := s.UpdateItemQuantity(ctx, owner, first.ID, 3, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assert.Equal(t, money.CZK(1490*3), updated.TotalPrice)

	_, err = s.UpdateItemQuantity(ctx, owner, uuid.NewString(), 2, t0)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.UpdateItemQuantity(ctx, other, first.ID, 2, t0)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.DeleteItem(ctx, owner, second.ID))
	assert.ErrorIs(t, s.DeleteItem(ctx, owner, second.ID), store.ErrNotFound)

	items, err = s.ListItems(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	n, err := s.DeleteAll(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = s.DeleteAll(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = s.ListItems(ctx, models.CartOwner{})
	assert.ErrorIs(t, err, store.ErrNoOwner)
	assert.ErrorIs(t, s.InsertItem(ctx, models.CartOwner{}, first), store.ErrNoOwner)
}

func RunStaleCarts(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()
	s := newStore(t)

	now := base()
	stale := models.CartOwner{SessionID: "stale-" + uuid.NewString()}
	fresh := models.CartOwner{UserID: "fresh-" + uuid.NewString()}
	touched := models.CartOwner{SessionID: "touched-" + uuid.NewString()}

	require.NoError(t, s.InsertItem(ctx, stale, newItem("wreath-1", 1, money.CZK(500), now.Add(-48*time.Hour))))
	require.NoError(t, s.InsertItem(ctx, fresh, newItem("wreath-1", 1, money.CZK(500), now)))
	old := newItem("wreath-1", 1, money.CZK(500), now.Add(-48*time.Hour))
	require.NoError(t, s.InsertItem(ctx, touched, old))
	_, err := s.UpdateItemQuantity(ctx, touched, old.ID, 2, now)
	require.NoError(t, err)

	owners, err := s.DeleteStale(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Contains(t, owners, stale)
	assert.NotContains(t, owners, fresh)
	assert.NotContains(t, owners, touched)

	items, err := s.ListItems(ctx, stale)
	require.NoError(t, err)
	assert.Empty(t, items)
	items, err = s.ListItems(ctx, fresh)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	items, err = s.ListItems(ctx, touched)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func RunProducts(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()
	s := newStore(t)

	maxFlowers := 2
	p := models.Product{
		ID:        uuid.NewString(),
		Slug:      "venec-" + uuid.NewString(),
		Name:      "Smuteční věnec srdce",
		BasePrice: money.CZK(2490),
		Active:    true,
		CustomizationOptions: []models.CustomizationOption{
			{
				ID: "size", Type: models.OptionSize, Required: true,
				Choices: []models.Choice{{ID: "size_40", Available: true}, {ID: "size_60", PriceModifier: money.CZK(600), Available: true}},
			},
			{
				ID: "flowers", Type: models.OptionFlowers, MaxSelections: &maxFlowers,
				Choices: []models.Choice{{ID: "roses", PriceModifier: money.CZK(150), Available: false}},
			},
		},
	}
	inactive := models.Product{ID: uuid.NewString(), Slug: "archiv-" + uuid.NewString(), Name: "Archivní věnec", BasePrice: money.CZK(990)}

	require.NoError(t, s.UpsertProduct(ctx, p))
	require.NoError(t, s.UpsertProduct(ctx, inactive))

	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.BasePrice, got.BasePrice)
	require.Len(t, got.CustomizationOptions, 2)
	assert.Equal(t, money.CZK(600), got.CustomizationOptions[0].Choices[1].PriceModifier)
	require.NotNil(t, got.CustomizationOptions[1].MaxSelections)
	assert.Equal(t, 2, *got.CustomizationOptions[1].MaxSelections)
	assert.False(t, got.CustomizationOptions[1].Choices[0].Available)

	bySlug, err := s.GetProduct(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	_, err = s.GetProduct(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	active, err := s.ListProducts(ctx, true)
	require.NoError(t, err)
	assert.Contains(t, productIDs(active), p.ID)
	assert.NotContains(t, productIDs(active), inactive.ID)

	all, err := s.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Contains(t, productIDs(all), inactive.ID)

	p.Name = "Smuteční věnec srdce XL"
	require.NoError(t, s.UpsertProduct(ctx, p))
	got, err = s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smuteční věnec srdce XL", got.Name)
}

func productIDs(products []models.Product) []string {
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

func RunOrders(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()
	s := newStore(t)

	now := base()
	o := models.Order{
		ID:    uuid.NewString(),
		Owner: models.CartOwner{SessionID: "sess-" + uuid.NewString()},
		Items: []models.OrderItem{{
			ProductID: "wreath-1", ProductName: "Věnec", Quantity: 2,
			UnitPrice: money.CZK(1000), TotalPrice: money.CZK(2000),
		}},
		Subtotal:      money.CZK(2000),
		DiscountTotal: money.CZK(200),
		Total:         money.CZK(1800),
		AppliedDiscounts: []models.AppliedDiscount{
			{Code: "JARO10", Type: models.DiscountPercentage, Value: "10", Amount: money.CZK(200)},
		},
		DeliveryDate:     "2026-11-03",
		PaymentSessionID: uuid.NewString(),
		Status:           models.OrderPending,
		CreatedAt:        now,
	}

	require.NoError(t, s.CreateOrder(ctx, o))
	assert.ErrorIs(t, s.CreateOrder(ctx, o), store.ErrConflict)

	got, err := s.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Owner, got.Owner)
	assert.Equal(t, o.Total, got.Total)
	assert.Equal(t, o.PaymentSessionID, got.PaymentSessionID)
	assert.Equal(t, o.DeliveryDate, got.DeliveryDate)
	assert.Equal(t, models.OrderPending, got.Status)
	assert.Nil(t, got.PaidAt)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	require.Len(t, got.AppliedDiscounts, 1)
	assert.Equal(t, money.CZK(200), got.AppliedDiscounts[0].Amount)

	paidAt := now.Add(time.Minute)
	paid, err := s.MarkPaid(ctx, o.ID, paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paidAt.Equal(*paid.PaidAt))

	again, err := s.MarkPaid(ctx, o.ID, paidAt.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, again.PaidAt)
	assert.True(t, paidAt.Equal(*again.PaidAt), "paying twice keeps the first payment time")

	_, err = s.MarkPaid(ctx, uuid.NewString(), now)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetOrder(ctx, uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)

	cancelled := o
	cancelled.ID = uuid.NewString()
	cancelled.PaymentSessionID = uuid.NewString()
	cancelled.Status = models.OrderCancelled
	require.NoError(t, s.CreateOrder(ctx, cancelled))
	_, err = s.MarkPaid(ctx, cancelled.ID, now)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func RunDiscounts(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()
	s := newStore(t)

	code := "jaro" + uuid.NewString()[:8]
	until := base().Add(24 * time.Hour)
	d := models.DiscountCode{
		Discount:   models.Discount{Type: models.DiscountPercentage, Value: decimal.RequireFromString("12.5"), Code: code},
		Active:     true,
		ValidUntil: &until,
	}
	require.NoError(t, s.UpsertDiscount(ctx, d))

	got, err := s.GetDiscount(ctx, "  "+code+" ")
	require.NoError(t, err)
	assert.Equal(t, store.NormalizeCode(code), got.Code)
	assert.Equal(t, models.DiscountPercentage, got.Type)
	assert.True(t, got.Value.Equal(decimal.RequireFromString("12.5")), got.Value.String())
	assert.True(t, got.Active)
	require.NotNil(t, got.ValidUntil)
	assert.True(t, until.Equal(*got.ValidUntil))

	d.Active = false
	require.NoError(t, s.UpsertDiscount(ctx, d))
	got, err = s.GetDiscount(ctx, store.NormalizeCode(code))
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = s.GetDiscount(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.UpsertDiscount(ctx, models.DiscountCode{}), store.ErrEmptyCode)
}
