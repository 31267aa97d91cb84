package models

import (
	"time"

	"github.com/shopspring/decimal"

	"pohrebni-vence.cz/storefront/pkg/money"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is applied in list order. Value is a percentage (0 < v <= 100) for
// percentage discounts and a koruna amount for fixed ones.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
	Code  string          `json:"code"`
}

// DiscountCode is a redeemable code as stored in the catalog.
type DiscountCode struct {
	Discount
	Active     bool       `json:"active"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
}

func (d DiscountCode) IsRedeemable(now time.Time) bool {
	if !d.Active {
		return false
	}
	return d.ValidUntil == nil || now.Before(*d.ValidUntil)
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

// AppliedDiscount records how much one discount removed from the price.
type AppliedDiscount struct {
	Code   string       `json:"code" bson:"code"`
	Type   DiscountType `json:"type" bson:"type"`
	Value  string       `json:"value" bson:"value"`
	Amount money.Amount `json:"amount" bson:"amount"`
}

// OrderItem is a priced cart line frozen into an order.
type OrderItem struct {
	ProductID      string          `json:"productId" bson:"product_id"`
	ProductName    string          `json:"productName" bson:"product_name"`
	Quantity       int             `json:"quantity" bson:"quantity"`
	Customizations []Customization `json:"customizations" bson:"customizations"`
	UnitPrice      money.Amount    `json:"unitPrice" bson:"unit_price"`
	TotalPrice     money.Amount    `json:"totalPrice" bson:"total_price"`
}

type Order struct {
	ID               string            `json:"id" bson:"_id"`
	Owner            CartOwner         `json:"owner" bson:"owner"`
	Items            []OrderItem       `json:"items" bson:"items"`
	Subtotal         money.Amount      `json:"subtotal" bson:"subtotal"`
	DiscountTotal    money.Amount      `json:"discountTotal" bson:"discount_total"`
	Total            money.Amount      `json:"total" bson:"total"`
	AppliedDiscounts []AppliedDiscount `json:"appliedDiscounts" bson:"applied_discounts"`
	DeliveryDate     string            `json:"deliveryDate" bson:"delivery_date"`
	PaymentSessionID string            `json:"paymentSessionId" bson:"payment_session_id"`
	Status           OrderStatus       `json:"status" bson:"status"`
	CreatedAt        time.Time         `json:"createdAt" bson:"created_at"`
	PaidAt           *time.Time        `json:"paidAt,omitempty" bson:"paid_at,omitempty"`
}
