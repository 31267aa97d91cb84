package models

import (
	"time"

	"pohrebni-vence.cz/storefront/pkg/money"
)

const (
	MinItemQuantity = 1
	MaxItemQuantity = 10

	// CartSnapshotVersion is the layout version of cached snapshots. Cached
	// entries carrying another version are ignored.
	CartSnapshotVersion = 2
)

// CartOwner identifies whose cart is addressed. A signed-in user wins over the
// browser session.
type CartOwner struct {
	UserID    string `json:"user_id,omitempty" bson:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty" bson:"session_id,omitempty"`
}

// Identifier resolves the cache and storage identity, "user:<id>" or
// "session:<id>". The prefix keeps a session id from ever addressing a
// user's cart. ok is false when neither a user nor a session is known.
func (o CartOwner) Identifier() (id string, ok bool) {
	if o.UserID != "" {
		return "user:" + o.UserID, true
	}
	if o.SessionID != "" {
		return "session:" + o.SessionID, true
	}
	return "", false
}

func (o CartOwner) IsZero() bool {
	return o.UserID == "" && o.SessionID == ""
}

// Customization is one selected product option.
type Customization struct {
	OptionID    string   `json:"optionId" bson:"option_id"`
	ChoiceIDs   []string `json:"choiceIds" bson:"choice_ids"`
	CustomValue *string  `json:"customValue,omitempty" bson:"custom_value,omitempty"`
	// PriceModifier is a supplementary direct modifier added on top of the
	// modifiers of the resolved choices.
	PriceModifier *money.Amount `json:"priceModifier,omitempty" bson:"price_modifier,omitempty"`
}

func (c Customization) HasCustomValue() bool {
	return c.CustomValue != nil && *c.CustomValue != ""
}

// CartItem is one cart line.
type CartItem struct {
	ID             string          `json:"id" bson:"_id"`
	ProductID      string          `json:"productId" bson:"product_id"`
	Quantity       int             `json:"quantity" bson:"quantity"`
	Customizations []Customization `json:"customizations" bson:"customizations"`
	UnitPrice      money.Amount    `json:"unitPrice" bson:"unit_price"`
	TotalPrice     money.Amount    `json:"totalPrice" bson:"total_price"`
	AddedAt        time.Time       `json:"addedAt" bson:"added_at"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updated_at"`
}

// Recalculate refreshes TotalPrice from UnitPrice and Quantity.
func (i *CartItem) Recalculate() {
	i.TotalPrice = i.UnitPrice.Mul(i.Quantity)
}

// CartSnapshot is the denormalized, cacheable view of a cart. It is derived
// from cart rows and may be dropped at any time.
type CartSnapshot struct {
	Items       []CartItem   `json:"items"`
	TotalItems  int          `json:"totalItems"`
	TotalPrice  money.Amount `json:"totalPrice"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Version     int          `json:"version"`
}

// NewCartSnapshot totals items into a snapshot stamped with now.
func NewCartSnapshot(items []CartItem, now time.Time) *CartSnapshot {
	snap := &CartSnapshot{
		Items:       items,
		LastUpdated: now.UTC(),
		Version:     CartSnapshotVersion,
	}
	if snap.Items == nil {
		snap.Items = []CartItem{}
	}
	for _, item := range snap.Items {
		snap.TotalItems += item.Quantity
		snap.TotalPrice += item.TotalPrice
	}
	return snap
}

// PriceCalculation is a cached unit price of a product configuration.
type PriceCalculation struct {
	UnitPrice             money.Amount `json:"unitPrice"`
	TotalPrice            money.Amount `json:"totalPrice"`
	BasePrice             money.Amount `json:"basePrice"`
	CustomizationModifier money.Amount `json:"customizationModifier"`
	CalculatedAt          time.Time    `json:"calculatedAt"`
}
