// Package cart keeps the cacheable view of carts and the cart service that
// reads through it. The cache is advisory: every read tolerates a missing or
// failing cache, and every write path invalidates before repopulating.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pohrebni-vence.cz/storefront/pkg/metrics"
	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/redis"
)

const (
	SnapshotTTL       = 24 * time.Hour
	PriceTTL          = time.Hour
	PaymentSessionTTL = 24 * time.Hour
	// GenerationTTL outlives any snapshot a reader could still be building.
	GenerationTTL = 7 * 24 * time.Hour
)

// ChangeType names the cart mutation that triggered an invalidation.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeUpdate ChangeType = "update"
	ChangeRemove ChangeType = "remove"
	ChangeClear  ChangeType = "clear"
)

// Operation is a cache write whose postcondition VerifyCacheOperation checks.
type Operation string

const (
	OpCache      Operation = "cache"
	OpInvalidate Operation = "invalidate"
)

// Cache is the cart cache. Apart from UpdateCachedCartAfterItemChange no
// method reports backing-store failures; they are logged and the safe
// default is returned.
type Cache struct {
	store   redis.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCache(store redis.Store, logger *slog.Logger, m *metrics.Metrics) *Cache {
	return &Cache{
		store:   store,
		logger:  logger.With("component", "cart_cache"),
		metrics: m,
		now:     time.Now,
	}
}

func (c *Cache) identifier(owner models.CartOwner, op string) (string, bool) {
	id, ok := owner.Identifier()
	if !ok {
		c.logger.Debug("cart identity missing, cache bypassed", "operation", op)
	}
	return id, ok
}

func (c *Cache) failed(op, key string, err error) {
	c.metrics.CacheOp(op, metrics.ResultError)
	c.logger.Warn("cache operation failed", "operation", op, "key", key, "error", err)
}

// CacheCartConfiguration stores snap for owner for SnapshotTTL.
func (c *Cache) CacheCartConfiguration(ctx context.Context, owner models.CartOwner, snap *models.CartSnapshot) {
	id, ok := c.identifier(owner, "cache_cart")
	if !ok || snap == nil {
		return
	}
	key := redis.CartConfigKey(id)
	if err := redis.SetJSON(ctx, c.store, key, snap, SnapshotTTL); err != nil {
		c.failed("cache_cart", key, err)
		return
	}
	c.metrics.CacheOp("cache_cart", metrics.ResultOK)
}

// Generation returns the owner's mutation counter. ok is false when it could
// not be read; callers then must not repopulate the snapshot.
func (c *Cache) Generation(ctx context.Context, owner models.CartOwner) (gen int64, ok bool) {
	id, ok := c.identifier(owner, "generation")
	if !ok {
		return 0, false
	}
	key := redis.CartGenerationKey(id)
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, redis.ErrMiss) {
		return 0, true
	}
	if err != nil {
		c.failed("generation", key, err)
		return 0, false
	}
	gen, err = strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		c.failed("generation", key, err)
		return 0, false
	}
	return gen, true
}

// CacheCartConfigurationAt stores snap only if no mutation happened since
// gen was read, so a snapshot built from rows read before a write never
// replaces the post-write state. It reports whether snap was stored.
func (c *Cache) CacheCartConfigurationAt(ctx context.Context, owner models.CartOwner, snap *models.CartSnapshot, gen int64) bool {
	id, ok := c.identifier(owner, "cache_cart")
	if !ok || snap == nil {
		return false
	}
	key := redis.CartConfigKey(id)
	data, err := json.Marshal(snap)
	if err != nil {
		c.failed("cache_cart", key, err)
		return false
	}
	set, err := c.store.SetIfCounter(ctx, key, data, SnapshotTTL, redis.CartGenerationKey(id), gen)
	if err != nil {
		c.failed("cache_cart", key, err)
		return false
	}
	if !set {
		c.metrics.CacheOp("cache_cart", metrics.ResultStale)
		c.logger.Debug("cart changed while loading, snapshot not cached", "identifier", id, "generation", gen)
		return false
	}
	c.metrics.CacheOp("cache_cart", metrics.ResultOK)
	return true
}

// GetCachedCartConfiguration returns the cached snapshot or nil. Snapshots
// written by another layout version count as a miss.
func (c *Cache) GetCachedCartConfiguration(ctx context.Context, owner models.CartOwner) *models.CartSnapshot {
	id, ok := c.identifier(owner, "get_cart")
	if !ok {
		return nil
	}
	key := redis.CartConfigKey(id)
	var snap models.CartSnapshot
	found, err := redis.GetJSON(ctx, c.store, key, &snap)
	if err != nil {
		c.failed("get_cart", key, err)
		return nil
	}
	if !found || snap.Version != models.CartSnapshotVersion {
		c.metrics.CacheOp("get_cart", metrics.ResultMiss)
		return nil
	}
	c.metrics.CacheOp("get_cart", metrics.ResultHit)
	return &snap
}

func (c *Cache) InvalidateCartCache(ctx context.Context, owner models.CartOwner) {
	id, ok := c.identifier(owner, "invalidate_cart")
	if !ok {
		return
	}
	key := redis.CartConfigKey(id)
	if _, err := c.store.Del(ctx, key); err != nil {
		c.failed("invalidate_cart", key, err)
		return
	}
	c.metrics.CacheOp("invalidate_cart", metrics.ResultOK)
}

// UpdateCachedCartAfterItemChange drops the cached snapshot after a cart
// mutation. Unlike the other methods it returns the failure, since the caller
// can then no longer rely on the cache matching the database.
func (c *Cache) UpdateCachedCartAfterItemChange(ctx context.Context, owner models.CartOwner, change ChangeType, itemID string) error {
	id, ok := c.identifier(owner, "item_change")
	if !ok {
		return nil
	}
	genKey := redis.CartGenerationKey(id)
	if _, err := c.store.Incr(ctx, genKey, GenerationTTL); err != nil {
		c.failed("item_change", genKey, err)
		return fmt.Errorf("bump cart generation after %s: %w", change, err)
	}
	key := redis.CartConfigKey(id)
	if _, err := c.store.Del(ctx, key); err != nil {
		c.failed("item_change", key, err)
		return fmt.Errorf("invalidate cart cache after %s: %w", change, err)
	}
	c.metrics.CacheOp("item_change", metrics.ResultOK)
	c.logger.Debug("cart cache invalidated", "identifier", id, "change", change, "item_id", itemID)

	if change == ChangeClear {
		c.ClearAllPriceCalculationCache(ctx, owner)
	}
	return nil
}

func (c *Cache) HasCartCache(ctx context.Context, owner models.CartOwner) bool {
	id, ok := c.identifier(owner, "has_cart")
	if !ok {
		return false
	}
	key := redis.CartConfigKey(id)
	n, err := c.store.Exists(ctx, key)
	if err != nil {
		c.failed("has_cart", key, err)
		return false
	}
	return n > 0
}

// CacheStats describes what is cached for one cart.
type CacheStats struct {
	Identifier       string     `json:"identifier"`
	HasCache         bool       `json:"hasCache"`
	TTLSeconds       int64      `json:"ttlSeconds"`
	ItemCount        int        `json:"itemCount"`
	TotalItems       int        `json:"totalItems"`
	LastUpdated      *time.Time `json:"lastUpdated,omitempty"`
	Version          int        `json:"version,omitempty"`
	TrackedPriceKeys int        `json:"trackedPriceKeys"`
}

func (c *Cache) GetCartCacheStats(ctx context.Context, owner models.CartOwner) CacheStats {
	id, ok := c.identifier(owner, "cart_stats")
	if !ok {
		return CacheStats{}
	}
	stats := CacheStats{Identifier: id}

	key := redis.CartConfigKey(id)
	ttl, err := c.store.TTL(ctx, key)
	switch {
	case errors.Is(err, redis.ErrMiss):
	case err != nil:
		c.failed("cart_stats", key, err)
	default:
		stats.HasCache = true
		if ttl > 0 {
			stats.TTLSeconds = int64(ttl / time.Second)
		}
	}

	if snap := c.GetCachedCartConfiguration(ctx, owner); snap != nil {
		stats.ItemCount = len(snap.Items)
		stats.TotalItems = snap.TotalItems
		updated := snap.LastUpdated
		stats.LastUpdated = &updated
		stats.Version = snap.Version
	}

	tracked, err := c.store.SMembers(ctx, redis.PriceKeysKey(id))
	if err != nil {
		c.failed("cart_stats", redis.PriceKeysKey(id), err)
	}
	stats.TrackedPriceKeys = len(tracked)
	return stats
}

// CachePriceCalculation stores calc for the product configuration and
// records the key in the owner's tracking set. When the tracking write fails
// the entry is left to expire on its own.
func (c *Cache) CachePriceCalculation(ctx context.Context, owner models.CartOwner, productID string, customizations []models.Customization, calc models.PriceCalculation) {
	key, err := redis.PriceKey(productID, customizations)
	if err != nil {
		c.failed("cache_price", productID, err)
		return
	}
	if calc.CalculatedAt.IsZero() {
		calc.CalculatedAt = c.now().UTC()
	}
	if err := redis.SetJSON(ctx, c.store, key, calc, PriceTTL); err != nil {
		c.failed("cache_price", key, err)
		return
	}
	c.metrics.CacheOp("cache_price", metrics.ResultOK)

	id, ok := c.identifier(owner, "track_price")
	if !ok {
		return
	}
	trackKey := redis.PriceKeysKey(id)
	if err := c.store.SAdd(ctx, trackKey, PriceTTL, key); err != nil {
		c.failed("track_price", trackKey, err)
	}
}

func (c *Cache) GetCachedPriceCalculation(ctx context.Context, productID string, customizations []models.Customization) *models.PriceCalculation {
	key, err := redis.PriceKey(productID, customizations)
	if err != nil {
		c.failed("get_price", productID, err)
		return nil
	}
	var calc models.PriceCalculation
	found, err := redis.GetJSON(ctx, c.store, key, &calc)
	if err != nil {
		c.failed("get_price", key, err)
		return nil
	}
	if !found {
		c.metrics.CacheOp("get_price", metrics.ResultMiss)
		return nil
	}
	c.metrics.CacheOp("get_price", metrics.ResultHit)
	return &calc
}

// ClearAllPriceCalculationCache deletes every price key tracked for owner and
// then the tracking set. It returns the number of deleted price entries.
func (c *Cache) ClearAllPriceCalculationCache(ctx context.Context, owner models.CartOwner) int64 {
	id, ok := c.identifier(owner, "clear_prices")
	if !ok {
		return 0
	}
	trackKey := redis.PriceKeysKey(id)
	keys, err := c.store.SMembers(ctx, trackKey)
	if err != nil {
		c.failed("clear_prices", trackKey, err)
		return 0
	}
	var deleted int64
	if len(keys) > 0 {
		deleted, err = c.store.Del(ctx, keys...)
		if err != nil {
			c.failed("clear_prices", trackKey, err)
			return 0
		}
	}
	if _, err := c.store.Del(ctx, trackKey); err != nil {
		c.failed("clear_prices", trackKey, err)
		return deleted
	}
	c.metrics.CacheOp("clear_prices", metrics.ResultOK)
	return deleted
}

// CachePaymentSession maps a payment session to its order.
func (c *Cache) CachePaymentSession(ctx context.Context, sessionID, orderID string) {
	key := redis.PaymentSessionKey(sessionID)
	if err := c.store.Set(ctx, key, []byte(orderID), PaymentSessionTTL); err != nil {
		c.failed("cache_payment", key, err)
		return
	}
	c.metrics.CacheOp("cache_payment", metrics.ResultOK)
}

// PaymentSessionOrder returns the order cached for a payment session.
func (c *Cache) PaymentSessionOrder(ctx context.Context, sessionID string) (string, bool) {
	key := redis.PaymentSessionKey(sessionID)
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, redis.ErrMiss) {
		c.metrics.CacheOp("get_payment", metrics.ResultMiss)
		return "", false
	}
	if err != nil {
		c.failed("get_payment", key, err)
		return "", false
	}
	c.metrics.CacheOp("get_payment", metrics.ResultHit)
	return string(data), true
}

func (c *Cache) InvalidatePaymentCache(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	key := redis.PaymentSessionKey(sessionID)
	if _, err := c.store.Del(ctx, key); err != nil {
		c.failed("invalidate_payment", key, err)
		return
	}
	c.metrics.CacheOp("invalidate_payment", metrics.ResultOK)
}

// VerifyCacheOperation re-reads the owner's snapshot key and reports whether
// the postcondition of op holds. Diagnostic only.
func (c *Cache) VerifyCacheOperation(ctx context.Context, owner models.CartOwner, op Operation) bool {
	id, ok := c.identifier(owner, "verify")
	if !ok {
		return false
	}
	key := redis.CartConfigKey(id)
	n, err := c.store.Exists(ctx, key)
	if err != nil {
		c.failed("verify", key, err)
		return false
	}
	exists := n > 0

	var held bool
	switch op {
	case OpCache:
		held = exists
	case OpInvalidate:
		held = !exists
	}
	c.logger.Info("cache operation verified", "operation", op, "key", key, "exists", exists, "postcondition_held", held)
	return held
}

// DebugState is a dump of everything cached for one cart.
type DebugState struct {
	Identifier      string               `json:"identifier"`
	ConfigKey       string               `json:"configKey"`
	ConfigExists    bool                 `json:"configExists"`
	ConfigTTL       string               `json:"configTtl,omitempty"`
	Snapshot        *models.CartSnapshot `json:"snapshot,omitempty"`
	PriceKeysKey    string               `json:"priceKeysKey"`
	TrackedKeys     []string             `json:"trackedKeys"`
	LiveTrackedKeys int                  `json:"liveTrackedKeys"`
}

func (c *Cache) DebugCacheState(ctx context.Context, owner models.CartOwner) DebugState {
	id, ok := c.identifier(owner, "debug")
	if !ok {
		return DebugState{TrackedKeys: []string{}}
	}
	state := DebugState{
		Identifier:   id,
		ConfigKey:    redis.CartConfigKey(id),
		PriceKeysKey: redis.PriceKeysKey(id),
		TrackedKeys:  []string{},
	}

	if ttl, err := c.store.TTL(ctx, state.ConfigKey); err == nil {
		state.ConfigExists = true
		if ttl > 0 {
			state.ConfigTTL = ttl.String()
		}
	} else if !errors.Is(err, redis.ErrMiss) {
		c.failed("debug", state.ConfigKey, err)
	}
	if state.ConfigExists {
		state.Snapshot = c.GetCachedCartConfiguration(ctx, owner)
	}

	if keys, err := c.store.SMembers(ctx, state.PriceKeysKey); err != nil {
		c.failed("debug", state.PriceKeysKey, err)
	} else {
		state.TrackedKeys = keys
	}
	if len(state.TrackedKeys) > 0 {
		vals, err := c.store.MGet(ctx, state.TrackedKeys...)
		if err != nil {
			c.failed("debug", state.PriceKeysKey, err)
		}
		for _, v := range vals {
			if v != nil {
				state.LiveTrackedKeys++
			}
		}
	}

	c.logger.Debug("cart cache state",
		"identifier", id,
		"config_exists", state.ConfigExists,
		"config_ttl", state.ConfigTTL,
		"tracked_keys", len(state.TrackedKeys),
		"live_tracked_keys", state.LiveTrackedKeys,
	)
	return state
}
