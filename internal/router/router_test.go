package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pohrebni-vence.cz/storefront/pkg/auth"
	"pohrebni-vence.cz/storefront/pkg/cart"
	"pohrebni-vence.cz/storefront/pkg/checkout"
	"pohrebni-vence.cz/storefront/pkg/delivery"
	"pohrebni-vence.cz/storefront/pkg/global"
	"pohrebni-vence.cz/storefront/pkg/logging"
	"pohrebni-vence.cz/storefront/pkg/metrics"
	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/money"
	"pohrebni-vence.cz/storefront/pkg/redis"
	"pohrebni-vence.cz/storefront/pkg/store"
)

const (
	cronSecret = "cron-secret"
	jwtSecret  = "super-secret-jwt-token-with-at-least-32-characters"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokenDel fails cache invalidation while broken is set.
type brokenDel struct {
	*redis.MemoryStore
	broken bool
}

func (b *brokenDel) Del(ctx context.Context, keys ...string) (int64, error) {
	if b.broken {
		return 0, errors.New("dial tcp 10.0.0.7:6379: connect: connection refused")
	}
	return b.MemoryStore.Del(ctx, keys...)
}

type testServer struct {
	engine   *gin.Engine
	db       *store.MemoryStore
	cache    *brokenDel
	calendar *delivery.Calendar
	cfg      *global.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	db := store.NewMemoryStore()
	require.NoError(t, db.UpsertProduct(ctx, models.Product{
		ID:        "p1",
		Slug:      "venec-srdce",
		Name:      "Věnec srdce",
		BasePrice: money.CZK(1490),
		Active:    true,
		CustomizationOptions: []models.CustomizationOption{
			{
				ID: "size", Type: models.OptionSize, Required: true,
				Choices: []models.Choice{
					{ID: "size_40", Available: true},
					{ID: "size_60", PriceModifier: money.CZK(400), Available: true},
				},
			},
			{
				ID: "ribbon", Type: models.OptionRibbon,
				Choices: []models.Choice{{ID: "ribbon_yes", PriceModifier: money.CZK(150), Available: true}, {ID: "ribbon_no", Available: true}},
			},
			{ID: "ribbon_color", Type: models.OptionRibbonColor, Choices: []models.Choice{{ID: "black", Available: true}}},
			{ID: "ribbon_text", Type: models.OptionRibbonText},
		},
	}))
	require.NoError(t, db.UpsertProduct(ctx, models.Product{ID: "p2", Slug: "kytice-stara", Name: "Kytice", BasePrice: money.CZK(690)}))
	require.NoError(t, db.UpsertDiscount(ctx, models.DiscountCode{
		Discount: models.Discount{Type: models.DiscountPercentage, Value: decimal.NewFromInt(10), Code: "PIETA10"},
		Active:   true,
	}))

	cfg := &global.Config{
		Env:            "test",
		StoreDriver:    global.StoreMemory,
		AllowedOrigins: []string{"http://localhost:3000"},
		CronSecret:     cronSecret,
		VATRate:        0.21,
		CartStaleAfter: 30 * 24 * time.Hour,
	}
	calendar, err := delivery.NewCalendar(12)
	require.NoError(t, err)

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cacheStore := &brokenDel{MemoryStore: redis.NewMemoryStore()}
	cache := cart.NewCache(cacheStore, logger, m)

	engine := NewEngine(Deps{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Gatherer: reg,
		Store:    db,
		Cache:    cacheStore,
		Carts:    cart.NewService(db, db, cache, logger),
		Checkout: checkout.NewService(db, cache, calendar, logger),
		Calendar: calendar,
		Verifier: auth.NewVerifier(jwtSecret),
	})
	return &testServer{engine: engine, db: db, cache: cacheStore, calendar: calendar, cfg: cfg}
}

type envelope struct {
	Success bool                     `json:"success"`
	Data    json.RawMessage          `json:"data"`
	Message string                   `json:"message"`
	Errors  []global.ValidationError `json:"errors"`
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func codes(errs []global.ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func size60() []models.Customization {
	return []models.Customization{{OptionID: "size", ChoiceIDs: []string{"size_60"}}}
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[map[string]string](t, env.Data)
	assert.Equal(t, "OK", status["status"])
	assert.Equal(t, "memory", status["store"])
	assert.Equal(t, "connected", status["cache"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/api/health", nil)

	w, _ := s.do(t, http.MethodGet, "/api/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `wreaths_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	products := decode[[]models.Product](t, env.Data)
	require.Len(t, products, 1, "inactive products are hidden")
	assert.Equal(t, "p1", products[0].ID)

	w, env = s.do(t, http.MethodGet, "/api/products/venec-srdce", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", decode[models.Product](t, env.Data).ID)

	w, _ = s.do(t, http.MethodGet, "/api/products/p2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPriceProduct(t *testing.T) {
	s := newTestServer(t)
	forged := money.CZK(-1000)
	custom := size60()
	custom[0].PriceModifier = &forged

	w, env := s.do(t, http.MethodPost, "/api/products/p1/price", map[string]any{
		"customizations": custom,
		"quantity":       2,
		"discountCodes":  []string{"pieta10"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	quote := decode[priceResponse](t, env.Data)
	assert.Equal(t, money.CZK(1890), quote.Calculation.UnitPrice)
	assert.Equal(t, money.CZK(378), quote.Discounts.TotalDiscount)
	assert.Equal(t, int64(money.CZK(3402)), quote.FinalPrice)
	assert.NotEmpty(t, quote.FormattedPrice)

	w, env = s.do(t, http.MethodPost, "/api/products/p1/price", map[string]any{
		"customizations": size60(),
		"discountCodes":  []string{"NEEXISTUJE"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"invalid_discount"}, codes(env.Errors))

	w, env = s.do(t, http.MethodPost, "/api/products/p1/price", map[string]any{"quantity": 11})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Errors)

	w, _ = s.do(t, http.MethodPost, "/api/products/p2/price", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidateProduct(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{
		"selectedSize": "size_60",
		"customizations": []models.Customization{
			{OptionID: "size", ChoiceIDs: []string{"size_60"}},
			{OptionID: "ribbon", ChoiceIDs: []string{"ribbon_yes"}},
		},
	}

	w, env := s.do(t, http.MethodPost, "/api/products/p1/validate?strict=true&view=enhanced&locale=en", body)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[struct {
		IsValid bool `json:"isValid"`
		Errors  []struct {
			Code string `json:"code"`
		} `json:"errors"`
		HasRibbonSelected bool `json:"hasRibbonSelected"`
	}](t, env.Data)
	assert.False(t, res.IsValid)
	assert.True(t, res.HasRibbonSelected)
	var got []string
	for _, e := range res.Errors {
		got = append(got, e.Code)
	}
	assert.Contains(t, got, "ribbon_color_required")
	assert.Contains(t, got, "ribbon_text_required")

	w, env = s.do(t, http.MethodPost, "/api/products/p1/validate", map[string]any{
		"selectedSize":   "size_40",
		"customizations": []models.Customization{{OptionID: "size", ChoiceIDs: []string{"size_40"}}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[struct {
		IsValid bool `json:"isValid"`
	}](t, env.Data).IsValid)

	w, _ = s.do(t, http.MethodPost, "/api/products/p1/validate", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateInactiveProduct(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/products/p2/validate", map[string]any{"selectedSize": "size_60"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/products/missing/validate", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartFlow(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{
		"productId": "p1", "quantity": 2, "customizations": size60(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decode[models.CartSnapshot](t, env.Data)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, money.CZK(3780), snap.TotalPrice)
	itemID := snap.Items[0].ID

	w, env = s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.CartSnapshot](t, env.Data).TotalItems)

	w, env = s.do(t, http.MethodPut, "/api/cart/sess-1/items/"+itemID, map[string]any{"quantity": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decode[models.CartSnapshot](t, env.Data).TotalItems)

	w, env = s.do(t, http.MethodPut, "/api/cart/sess-1/items/"+itemID, map[string]any{"quantity": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Errors)

	w, _ = s.do(t, http.MethodDelete, "/api/cart/sess-1/items/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodDelete, "/api/cart/sess-1/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[models.CartSnapshot](t, env.Data).Items)

	s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{"productId": "p1", "quantity": 1, "customizations": size60()})
	w, env = s.do(t, http.MethodDelete, "/api/cart/sess-1/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[models.CartSnapshot](t, env.Data).TotalItems)
}

func TestCartReportsCacheState(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(CacheHeader))

	w, _ = s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))

	w, _ = s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{"productId": "p1", "quantity": 1, "customizations": size60()})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "REFRESHED", w.Header().Get(CacheHeader))

	w, _ = s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))

	w, _ = s.do(t, http.MethodGet, "/api/cart/sess-1", nil, "Origin", "http://localhost:3000")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), CacheHeader)
}

func TestRequestBindingErrors(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodPost, "/api/cart/sess-1/items?locale=en", map[string]any{"quantity": 11})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 2)
	assert.Equal(t, global.ValidationError{Field: "productId", Message: "Field productId is required.", Code: "required"}, env.Errors[0])
	assert.Equal(t, "quantity", env.Errors[1].Field)
	assert.Equal(t, "out_of_range", env.Errors[1].Code)
	assert.Equal(t, "Value of quantity must be between 1 and 10.", env.Errors[1].Message)

	_, env = s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{"productId": "p1"})
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "quantity", env.Errors[0].Field)
	assert.Equal(t, "Hodnota quantity musí být mezi 1 a 10.", env.Errors[0].Message)

	w, env = s.do(t, http.MethodPost, "/api/products/p1/price", map[string]any{"quantity": -1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"out_of_range"}, codes(env.Errors))

	w, _ = s.do(t, http.MethodPost, "/api/checkout/complete?locale=en", map[string]any{"orderId": "o-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var result checkout.CompleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Equal(t, "Field sessionId is required.", result.Error)
}

func TestCartRequiresIdentity(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/cart/%20", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "sessionId", env.Errors[0].Field)
}

func TestCartValidationErrorsAreLocalized(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{"productId": "p1", "quantity": 1}

	w, env := s.do(t, http.MethodPost, "/api/cart/sess-1/items", body, "Accept-Language", "en-GB,en;q=0.9")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "size_required", env.Errors[0].Code)
	assert.Equal(t, "Please select a wreath size.", env.Errors[0].Message)

	_, env = s.do(t, http.MethodPost, "/api/cart/sess-1/items", body)
	require.NotEmpty(t, env.Errors)
	assert.Equal(t, "Vyberte prosím velikost věnce.", env.Errors[0].Message)
}

func TestCartMutationWithStaleCache(t *testing.T) {
	s := newTestServer(t)
	s.cache.broken = true

	w, env := s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{
		"productId": "p1", "quantity": 1, "customizations": size60(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "degraded", w.Header().Get(CacheConsistencyHeader))
	assert.True(t, env.Success)
	assert.Len(t, decode[models.CartSnapshot](t, env.Data).Items, 1)

	s.cache.broken = false
	w, _ = s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	assert.Empty(t, w.Header().Get(CacheConsistencyHeader))
}

func TestSignedInUserOwnsCart(t *testing.T) {
	s := newTestServer(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-7",
			Audience:  jwt.ClaimStrings{auth.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	bearer := "Bearer " + token

	w, _ := s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{
		"productId": "p1", "quantity": 1, "customizations": size60(),
	}, "Authorization", bearer)
	require.Equal(t, http.StatusCreated, w.Code)

	_, env := s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	assert.Empty(t, decode[models.CartSnapshot](t, env.Data).Items, "guest cart untouched")

	_, env = s.do(t, http.MethodGet, "/api/cart/other-device", nil, "Authorization", bearer)
	assert.Len(t, decode[models.CartSnapshot](t, env.Data).Items, 1)

	_, env = s.do(t, http.MethodGet, "/api/cart/sess-1", nil, "Authorization", "Bearer forged")
	assert.Empty(t, decode[models.CartSnapshot](t, env.Data).Items, "invalid token falls back to the session")
}

func TestCartCacheState(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{"productId": "p1", "quantity": 1, "customizations": size60()})

	w, env := s.do(t, http.MethodGet, "/api/cart/sess-1/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[struct {
		Stats cart.CacheStats `json:"stats"`
	}](t, env.Data)
	assert.True(t, state.Stats.HasCache)

	s.cfg.Env = "production"
	w, _ = s.do(t, http.MethodGet, "/api/cart/sess-1/cache", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeliveryDates(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/delivery/dates?days=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[struct {
		Dates      []string `json:"dates"`
		CutoffHour int      `json:"cutoffHour"`
	}](t, env.Data)
	assert.Len(t, res.Dates, 3)
	assert.Equal(t, 12, res.CutoffHour)
	for _, d := range res.Dates {
		day, err := s.calendar.Parse(d)
		require.NoError(t, err)
		assert.True(t, delivery.Deliverable(day), d)
	}

	w, _ = s.do(t, http.MethodGet, "/api/delivery/dates?days=61", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/delivery/dates?days=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckout(t *testing.T) {
	s := newTestServer(t)
	date := s.calendar.AvailableDates(time.Now(), 1)[0].Format(delivery.DateLayout)

	w, env := s.do(t, http.MethodPost, "/api/checkout/sess-1", map[string]any{"deliveryDate": date})
	require.Equal(t, http.StatusBadRequest, w.Code, "empty cart")
	assert.Equal(t, []string{"required"}, codes(env.Errors))

	s.do(t, http.MethodPost, "/api/cart/sess-1/items", map[string]any{"productId": "p1", "quantity": 2, "customizations": size60()})

	w, env = s.do(t, http.MethodPost, "/api/checkout/sess-1", map[string]any{"deliveryDate": date, "discountCodes": []string{"PIETA10"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, env.Data)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, money.CZK(3402), order.Total)
	require.NotEmpty(t, order.PaymentSessionID)

	w, _ = s.do(t, http.MethodPost, "/api/checkout/complete", checkout.CompleteInput{SessionID: "someone-else", OrderID: order.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	var result checkout.CompleteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	w, _ = s.do(t, http.MethodPost, "/api/checkout/complete", checkout.CompleteInput{SessionID: order.PaymentSessionID, OrderID: order.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)

	_, env = s.do(t, http.MethodGet, "/api/cart/sess-1", nil)
	assert.Empty(t, decode[models.CartSnapshot](t, env.Data).Items)

	w, _ = s.do(t, http.MethodPost, "/api/checkout/complete", "{")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCronCleanup(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/cron/cart-cleanup", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/cron/cart-cleanup", nil, "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	old := time.Now().Add(-60 * 24 * time.Hour)
	require.NoError(t, s.db.InsertItem(context.Background(), models.CartOwner{SessionID: "abandoned"}, models.CartItem{
		ID: "old-1", ProductID: "p1", Quantity: 1, UnitPrice: money.CZK(1490), TotalPrice: money.CZK(1490), AddedAt: old, UpdatedAt: old,
	}))
	s.do(t, http.MethodPost, "/api/cart/fresh/items", map[string]any{"productId": "p1", "quantity": 1, "customizations": size60()})

	w, env := s.do(t, http.MethodPost, "/api/cron/cart-cleanup", nil, "Authorization", "Bearer "+cronSecret)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, env.Data)["removed"])

	_, env = s.do(t, http.MethodGet, "/api/cart/fresh", nil)
	assert.Len(t, decode[models.CartSnapshot](t, env.Data).Items, 1)
}

func TestCronRejectsWhenSecretUnset(t *testing.T) {
	engine := gin.New()
	engine.POST("/cron", CronAuth(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/cron", nil)
	req.Header.Set("Authorization", "Bearer ")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(t, http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}
