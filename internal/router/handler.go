package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pohrebni-vence.cz/storefront/pkg/cart"
	"pohrebni-vence.cz/storefront/pkg/checkout"
	"pohrebni-vence.cz/storefront/pkg/delivery"
	"pohrebni-vence.cz/storefront/pkg/global"
	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/pricing"
	"pohrebni-vence.cz/storefront/pkg/redis"
	"pohrebni-vence.cz/storefront/pkg/store"
	"pohrebni-vence.cz/storefront/pkg/validation"
)

// CacheConsistencyHeader is set to "degraded" when a cart change was saved
// but its cached copy could not be invalidated.
const CacheConsistencyHeader = "X-Cache-Consistency"

// CacheHeader tells whether a cart came from the cache (HIT), the database
// (MISS) or was just rewritten by a mutation (REFRESHED).
const CacheHeader = "X-Cache"

const (
	defaultDeliveryDays = 14
	maxDeliveryDays     = 60
)

type Handler struct {
	cfg      *global.Config
	logger   *slog.Logger
	store    store.Store
	cache    redis.Store
	carts    *cart.Service
	checkout *checkout.Service
	calendar *delivery.Calendar
	now      func() time.Time
}

type addItemRequest struct {
	ProductID      string                 `json:"productId" binding:"required"`
	Quantity       int                    `json:"quantity" binding:"required,min=1,max=10"`
	Customizations []models.Customization `json:"customizations"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=10"`
}

type priceRequest struct {
	Customizations []models.Customization `json:"customizations"`
	DiscountCodes  []string               `json:"discountCodes"`
	Quantity       int                    `json:"quantity" binding:"omitempty,min=1,max=10"`
}

type priceResponse struct {
	ProductID      string                  `json:"productId"`
	Quantity       int                     `json:"quantity"`
	Calculation    models.PriceCalculation `json:"calculation"`
	Discounts      pricing.DiscountResult  `json:"discounts"`
	FinalPrice     int64                   `json:"finalPrice"`
	FormattedPrice string                  `json:"formattedPrice"`
}

type validateRequest struct {
	Customizations []models.Customization `json:"customizations"`
	SelectedSize   string                 `json:"selectedSize"`
}

// locale resolves ?locale=, then Accept-Language, then the configured default.
func (h *Handler) locale(c *gin.Context) string {
	if locale := c.Query("locale"); locale != "" {
		return global.NormalizeLocale(locale)
	}
	if accept := c.GetHeader("Accept-Language"); accept != "" {
		return global.NormalizeLocale(accept)
	}
	return global.NormalizeLocale(h.cfg.DefaultLocale)
}

func cartOwner(c *gin.Context) models.CartOwner {
	return models.CartOwner{
		UserID:    UserID(c),
		SessionID: strings.TrimSpace(c.Param("sessionId")),
	}
}

// badRequest answers a body that failed to bind. Binding rule failures get
// localized field errors, malformed JSON a generic one.
func (h *Handler) badRequest(c *gin.Context, err error) {
	if errs, ok := bindingErrors(err, h.locale(c)); ok {
		h.fail(c, errs)
		return
	}
	c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid request data", []global.ValidationError{
		{Field: "request", Message: err.Error(), Code: "validation_error"},
	}))
}

// fail maps err onto the API error taxonomy. Only errors the caller cannot
// correct are logged.
func (h *Handler) fail(c *gin.Context, err error) {
	locale := h.locale(c)
	switch {
	case errors.Is(err, cart.ErrCartIdentityMissing):
		err = validation.Errors{validation.FieldError(locale, "sessionId", validation.CodeRequired, "sessionId")}
	case errors.Is(err, checkout.ErrEmptyCart):
		err = validation.Errors{validation.FieldError(locale, "items", validation.CodeRequired, "items")}
	}

	cl := global.ClassifyError(err, locale)
	switch cl.Kind {
	case global.KindInternal:
		h.logger.Error("request failed", "route", c.FullPath(), "error", err)
	case global.KindTimeout, global.KindNetwork:
		h.logger.Warn("request failed, retryable", "route", c.FullPath(), "error", err)
	}
	c.JSON(cl.Status, cl.Response())
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "OK", "store": h.cfg.StoreDriver, "cache": "connected"}
	if err := h.cache.Ping(ctx); err != nil {
		status["cache"] = "degraded"
		h.logger.Warn("cache ping failed", "error", err)
	}
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("store ping failed", "error", err)
		status["status"] = "UNAVAILABLE"
		c.JSON(http.StatusServiceUnavailable, global.APIResponse{Success: false, Data: status, Message: "Database connection failed"})
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(status))
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.store.ListProducts(c.Request.Context(), true)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(products))
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.store.GetProduct(c.Request.Context(), c.Param("id"))
	if err == nil && !product.Active {
		err = store.ErrNotFound
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(product))
}

// PriceProduct quotes a configured product with optional discount codes.
func (h *Handler) PriceProduct(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	locale := h.locale(c)
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	product, calc, err := h.carts.Quote(ctx, models.CartOwner{UserID: UserID(c), SessionID: c.Query("sessionId")}, c.Param("id"), req.Customizations)
	if err != nil {
		h.fail(c, err)
		return
	}
	discounts, err := h.checkout.ResolveDiscounts(ctx, req.DiscountCodes, locale)
	if err != nil {
		h.fail(c, err)
		return
	}

	result := pricing.ApplyDiscounts(calc.UnitPrice.Mul(req.Quantity), discounts)
	c.JSON(http.StatusOK, global.SuccessResponse(priceResponse{
		ProductID:      product.ID,
		Quantity:       req.Quantity,
		Calculation:    calc,
		Discounts:      result,
		FinalPrice:     int64(result.FinalPrice),
		FormattedPrice: pricing.FormatPrice(result.FinalPrice, h.cfg.VATRate, locale),
	}))
}

// ValidateProduct runs live validation. ?strict=true promotes warnings,
// ?view=enhanced returns the recovery metadata.
func (h *Handler) ValidateProduct(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	product, err := h.store.GetProduct(c.Request.Context(), c.Param("id"))
	if err == nil && !product.Active {
		err = store.ErrNotFound
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	strict, _ := strconv.ParseBool(c.Query("strict"))
	opts := validation.Options{Locale: h.locale(c), StrictMode: strict}

	report := validation.Evaluate(req.Customizations, product.CustomizationOptions, req.SelectedSize, opts)
	if c.Query("view") == "enhanced" {
		c.JSON(http.StatusOK, global.SuccessResponse(report.Enhanced()))
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(report.Result()))
}

// respondCart answers a cart mutation. A mutation that was stored but left
// the cache inconsistent still succeeds, flagged by a header.
func (h *Handler) respondCart(c *gin.Context, status int, snap *models.CartSnapshot, err error) {
	switch {
	case errors.Is(err, cart.ErrCacheInconsistent) && snap != nil:
		c.Header(CacheConsistencyHeader, "degraded")
	case err != nil:
		h.fail(c, err)
		return
	default:
		c.Header(CacheHeader, "REFRESHED")
	}
	c.JSON(status, global.SuccessResponse(snap))
}

func (h *Handler) GetCart(c *gin.Context) {
	snap, hit, err := h.carts.LoadCart(c.Request.Context(), cartOwner(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if hit {
		c.Header(CacheHeader, "HIT")
	} else {
		c.Header(CacheHeader, "MISS")
	}
	c.JSON(http.StatusOK, global.SuccessResponse(snap))
}

func (h *Handler) AddToCart(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	snap, err := h.carts.AddItem(c.Request.Context(), cartOwner(c), cart.AddItemInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		Customizations: req.Customizations,
		Locale:         h.locale(c),
	})
	h.respondCart(c, http.StatusCreated, snap, err)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	snap, err := h.carts.UpdateItemQuantity(c.Request.Context(), cartOwner(c), c.Param("itemId"), req.Quantity, h.locale(c))
	h.respondCart(c, http.StatusOK, snap, err)
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	snap, err := h.carts.RemoveItem(c.Request.Context(), cartOwner(c), c.Param("itemId"))
	h.respondCart(c, http.StatusOK, snap, err)
}

func (h *Handler) ClearCart(c *gin.Context) {
	snap, err := h.carts.ClearCart(c.Request.Context(), cartOwner(c))
	h.respondCart(c, http.StatusOK, snap, err)
}

// CartCacheState exposes cache diagnostics outside production.
func (h *Handler) CartCacheState(c *gin.Context) {
	if h.cfg.IsProduction() && !h.cfg.ExposeCacheDebug {
		c.JSON(http.StatusNotFound, global.ErrorResponse("route not found", nil))
		return
	}
	ctx := c.Request.Context()
	owner := cartOwner(c)
	cache := h.carts.Cache()
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"stats": cache.GetCartCacheStats(ctx, owner),
		"debug": cache.DebugCacheState(ctx, owner),
	}))
}

func (h *Handler) DeliveryDates(c *gin.Context) {
	days := defaultDeliveryDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxDeliveryDays {
			locale := h.locale(c)
			h.fail(c, validation.Errors{validation.FieldError(locale, "days", validation.CodeOutOfRange, "days", 1, maxDeliveryDays)})
			return
		}
		days = n
	}

	dates := h.calendar.AvailableDates(h.now(), days)
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(delivery.DateLayout)
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"dates":      out,
		"cutoffHour": h.calendar.CutoffHour,
	}))
}

func (h *Handler) SubmitCheckout(c *gin.Context) {
	var in checkout.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	in.Locale = h.locale(c)
	order, err := h.checkout.Submit(c.Request.Context(), cartOwner(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse(order))
}

// CompleteCheckout answers with the bare {success, error?} body the payment
// callback expects.
func (h *Handler) CompleteCheckout(c *gin.Context) {
	var in checkout.CompleteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		result := checkout.CompleteResult{Error: "invalid request body"}
		if errs, ok := bindingErrors(err, h.locale(c)); ok && len(errs) > 0 {
			result.Error = errs[0].Message
		}
		c.JSON(http.StatusBadRequest, result)
		return
	}
	result, err := h.checkout.Complete(c.Request.Context(), in)
	if err != nil {
		cl := global.ClassifyError(err, h.locale(c))
		if cl.Kind == global.KindInternal {
			h.logger.Error("checkout completion failed", "order_id", in.OrderID, "error", err)
		}
		if result.Error == "" {
			result.Error = cl.Message
		}
		c.JSON(cl.Status, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CleanupCarts(c *gin.Context) {
	before := h.now().Add(-h.cfg.CartStaleAfter)
	removed, err := h.carts.CleanupStaleCarts(c.Request.Context(), before)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse(map[string]interface{}{
		"removed": removed,
		"before":  before.UTC(),
	}))
}
