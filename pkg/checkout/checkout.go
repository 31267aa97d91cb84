// Package checkout turns a cart into a pending order and completes it once
// the payment provider confirms the payment session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"pohrebni-vence.cz/storefront/pkg/cart"
	"pohrebni-vence.cz/storefront/pkg/delivery"
	"pohrebni-vence.cz/storefront/pkg/global"
	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/money"
	"pohrebni-vence.cz/storefront/pkg/pricing"
	"pohrebni-vence.cz/storefront/pkg/store"
	"pohrebni-vence.cz/storefront/pkg/validation"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrSessionMismatch = fmt.Errorf("payment session does not belong to order: %w", global.ErrConflict)
)

type SubmitInput struct {
	DiscountCodes []string `json:"discountCodes"`
	DeliveryDate  string   `json:"deliveryDate"`
	Locale        string   `json:"-"`
}

type CompleteInput struct {
	SessionID string `json:"sessionId" binding:"required"`
	OrderID   string `json:"orderId" binding:"required"`
}

// CompleteResult is the response body of checkout completion.
type CompleteResult struct {
	Success bool          `json:"success"`
	Error   string        `json:"error,omitempty"`
	Order   *models.Order `json:"order,omitempty"`
}

type Service struct {
	repo     store.Store
	cache    *cart.Cache
	calendar *delivery.Calendar
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewService(repo store.Store, cache *cart.Cache, calendar *delivery.Calendar, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		calendar: calendar,
		logger:   logger.With("component", "checkout"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Submit validates the owner's cart strictly, prices it from the catalog and
// records a pending order. The cart itself is read from the repository,
// never from the cache.
func (s *Service) Submit(ctx context.Context, owner models.CartOwner, in SubmitInput) (*models.Order, error) {
	if owner.IsZero() {
		return nil, cart.ErrCartIdentityMissing
	}
	items, err := s.repo.ListItems(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var errs validation.Errors
	lines := make([]models.OrderItem, 0, len(items))
	var subtotal money.Amount
	for i, item := range items {
		line, fieldErrs, err := s.priceLine(ctx, i, item, in.Locale)
		if err != nil {
			return nil, err
		}
		if len(fieldErrs) > 0 {
			errs = append(errs, fieldErrs...)
			continue
		}
		lines = append(lines, line)
		subtotal += line.TotalPrice
	}

	now := s.now()
	deliveryDate, dateErrs := s.checkDeliveryDate(now, in.DeliveryDate, in.Locale)
	errs = append(errs, dateErrs...)

	discounts, err := s.ResolveDiscounts(ctx, in.DiscountCodes, in.Locale)
	if err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	priced := pricing.ApplyDiscounts(subtotal, discounts)
	order := models.Order{
		ID:               s.newID(),
		Owner:            owner,
		Items:            lines,
		Subtotal:         subtotal,
		DiscountTotal:    priced.TotalDiscount,
		Total:            priced.FinalPrice,
		AppliedDiscounts: priced.AppliedDiscounts,
		DeliveryDate:     deliveryDate,
		PaymentSessionID: s.newID(),
		Status:           models.OrderPending,
		CreatedAt:        now.UTC(),
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.cache.CachePaymentSession(ctx, order.PaymentSessionID, order.ID)

	s.logger.Info("order submitted", "order_id", order.ID, "items", len(lines), "total", order.Total.String())
	return &order, nil
}

// priceLine revalidates one cart line in strict mode and reprices it from
// the current catalog.
func (s *Service) priceLine(ctx context.Context, index int, item models.CartItem, locale string) (models.OrderItem, validation.Errors, error) {
	prefix := fmt.Sprintf("items[%d].", index)
	product, err := s.repo.GetProduct(ctx, item.ProductID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !product.Active) {
		return models.OrderItem{}, validation.Errors{
			validation.FieldError(locale, prefix+"productId", validation.CodeProductUnavailable, item.ProductID),
		}, nil
	}
	if err != nil {
		return models.OrderItem{}, nil, fmt.Errorf("product %s: %w", item.ProductID, err)
	}

	var errs validation.Errors
	if err := validation.ValidateQuantity(item.Quantity, locale); err != nil {
		errs = append(errs, prefixed(prefix, err.(validation.Errors))...)
	}
	report := validation.Evaluate(item.Customizations, product.CustomizationOptions, "", validation.Options{Locale: locale, StrictMode: true})
	errs = append(errs, prefixed(prefix, report.FieldErrors())...)
	if len(errs) > 0 {
		return models.OrderItem{}, errs, nil
	}

	calc := pricing.CalculateUnitPrice(&product, item.Customizations)
	return models.OrderItem{
		ProductID:      product.ID,
		ProductName:    product.Name,
		Quantity:       item.Quantity,
		Customizations: item.Customizations,
		UnitPrice:      calc.UnitPrice,
		TotalPrice:     calc.UnitPrice.Mul(item.Quantity),
	}, nil, nil
}

func prefixed(prefix string, in []global.ValidationError) validation.Errors {
	out := make(validation.Errors, 0, len(in))
	for _, fe := range in {
		fe.Field = prefix + fe.Field
		out = append(out, fe)
	}
	return out
}

func (s *Service) checkDeliveryDate(now time.Time, date, locale string) (string, validation.Errors) {
	date = strings.TrimSpace(date)
	if date == "" {
		return "", validation.Errors{validation.FieldError(locale, "deliveryDate", validation.CodeRequired, "deliveryDate")}
	}
	day, err := s.calendar.Parse(date)
	if err != nil || !s.calendar.IsAvailable(now, day) {
		return "", validation.Errors{validation.FieldError(locale, "deliveryDate", validation.CodeDeliveryUnavailable, date)}
	}
	return day.Format(delivery.DateLayout), nil
}

// ResolveDiscounts looks codes up in order, dropping repeats. Unknown,
// inactive and expired codes are reported as validation errors.
func (s *Service) ResolveDiscounts(ctx context.Context, codes []string, locale string) ([]models.Discount, error) {
	now := s.now()
	seen := make(map[string]bool, len(codes))
	discounts := make([]models.Discount, 0, len(codes))
	var errs validation.Errors
	for _, raw := range codes {
		code := store.NormalizeCode(raw)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		d, err := s.repo.GetDiscount(ctx, code)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !d.IsRedeemable(now)) {
			errs = append(errs, validation.FieldError(locale, "discountCodes", validation.CodeInvalidDiscount, code))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("discount %s: %w", code, err)
		}
		discounts = append(discounts, d.Discount)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return discounts, nil
}

// Complete marks the order paid once the payment session is confirmed and
// empties the owner's cart. Repeating a completion is harmless.
func (s *Service) Complete(ctx context.Context, in CompleteInput) (CompleteResult, error) {
	if in.SessionID == "" || in.OrderID == "" {
		return CompleteResult{Error: "sessionId and orderId are required"},
			validation.Errors{validation.FieldError("", "sessionId", validation.CodeRequired, "sessionId, orderId")}
	}

	order, err := s.repo.GetOrder(ctx, in.OrderID)
	if err != nil {
		return CompleteResult{Error: "order not found"}, fmt.Errorf("order %s: %w", in.OrderID, err)
	}
	if order.PaymentSessionID != in.SessionID {
		return CompleteResult{Error: ErrSessionMismatch.Error()}, ErrSessionMismatch
	}
	if cached, ok := s.cache.PaymentSessionOrder(ctx, in.SessionID); ok && cached != order.ID {
		return CompleteResult{Error: ErrSessionMismatch.Error()}, ErrSessionMismatch
	}

	wasPending := order.Status == models.OrderPending
	paid, err := s.repo.MarkPaid(ctx, order.ID, s.now())
	if err != nil {
		return CompleteResult{Error: "order cannot be completed"}, fmt.Errorf("mark order %s paid: %w", order.ID, err)
	}

	// Carts refilled after an earlier completion are left alone.
	if wasPending {
		if _, err := s.repo.DeleteAll(ctx, order.Owner); err != nil {
			s.logger.Error("order paid but cart not cleared", "order_id", order.ID, "error", err)
		}
		if err := s.cache.UpdateCachedCartAfterItemChange(ctx, order.Owner, cart.ChangeClear, ""); err != nil {
			s.logger.Error("order paid but cart cache left inconsistent", "order_id", order.ID, "error", err)
		}
	}
	s.cache.InvalidatePaymentCache(ctx, in.SessionID)

	s.logger.Info("order completed", "order_id", paid.ID, "first_completion", wasPending)
	return CompleteResult{Success: true, Order: &paid}, nil
}
