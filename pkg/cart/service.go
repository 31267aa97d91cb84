package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"pohrebni-vence.cz/storefront/pkg/models"
	"pohrebni-vence.cz/storefront/pkg/pricing"
	"pohrebni-vence.cz/storefront/pkg/redis"
	"pohrebni-vence.cz/storefront/pkg/store"
	"pohrebni-vence.cz/storefront/pkg/validation"
)

var (
	ErrCartIdentityMissing = errors.New("cart identity missing: a user or session id is required")
	// ErrCacheInconsistent accompanies a successful mutation whose cache
	// invalidation failed. The returned cart is still current.
	ErrCacheInconsistent = errors.New("cart cache may be stale")
)

// AddItemInput is an add-to-cart request. Client supplied price modifiers
// are ignored; prices come from the catalog.
type AddItemInput struct {
	ProductID      string
	Quantity       int
	Customizations []models.Customization
	Locale         string
}

// Service reads carts through the cache and writes them to the repository,
// invalidating the cache after every write.
type Service struct {
	carts    store.CartRepository
	products store.ProductRepository
	cache    *Cache
	logger   *slog.Logger
	sfg      singleflight.Group
	now      func() time.Time
	newID    func() string
}

func NewService(carts store.CartRepository, products store.ProductRepository, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		carts:    carts,
		products: products,
		cache:    cache,
		logger:   logger.With("component", "cart_service"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Service) Cache() *Cache {
	return s.cache
}

// GetCart returns the owner's cart, from cache when possible.
func (s *Service) GetCart(ctx context.Context, owner models.CartOwner) (*models.CartSnapshot, error) {
	snap, _, err := s.LoadCart(ctx, owner)
	return snap, err
}

type loadResult struct {
	snap *models.CartSnapshot
	hit  bool
}

// LoadCart is GetCart that also reports whether the cache answered.
// Concurrent misses for one cart share a single database read, which runs
// detached from any one caller's cancellation.
func (s *Service) LoadCart(ctx context.Context, owner models.CartOwner) (snap *models.CartSnapshot, cacheHit bool, err error) {
	key, ok := store.OwnerKey(owner)
	if !ok {
		return nil, false, ErrCartIdentityMissing
	}
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)
		if snap := s.cache.GetCachedCartConfiguration(ctx, owner); snap != nil {
			return loadResult{snap: snap, hit: true}, nil
		}
		gen, tracked := s.cache.Generation(ctx, owner)
		items, err := s.carts.ListItems(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("list cart items: %w", err)
		}
		snap := models.NewCartSnapshot(items, s.now())
		if tracked {
			s.cache.CacheCartConfigurationAt(ctx, owner, snap, gen)
		}
		return loadResult{snap: snap}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(loadResult)
	return res.snap, res.hit, nil
}

// UnitPrice prices a configuration of product, using the price cache.
func (s *Service) UnitPrice(ctx context.Context, owner models.CartOwner, product *models.Product, customizations []models.Customization) models.PriceCalculation {
	if cached := s.cache.GetCachedPriceCalculation(ctx, product.ID, customizations); cached != nil {
		return *cached
	}
	calc := pricing.CalculateUnitPrice(product, customizations)
	calc.CalculatedAt = s.now().UTC()
	s.cache.CachePriceCalculation(ctx, owner, product.ID, customizations, calc)
	return calc
}

// Quote prices a configuration of an active product. Client supplied price
// modifiers are ignored.
func (s *Service) Quote(ctx context.Context, owner models.CartOwner, productID string, customizations []models.Customization) (models.Product, models.PriceCalculation, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return models.Product{}, models.PriceCalculation{}, fmt.Errorf("product %s: %w", productID, err)
	}
	if !product.Active {
		return models.Product{}, models.PriceCalculation{}, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	return product, s.UnitPrice(ctx, owner, &product, withoutClientPrices(customizations)), nil
}

// AddItem validates and adds a configured product. A line with the same
// product and configuration is merged into.
func (s *Service) AddItem(ctx context.Context, owner models.CartOwner, in AddItemInput) (*models.CartSnapshot, error) {
	if owner.IsZero() {
		return nil, ErrCartIdentityMissing
	}
	if err := validation.ValidateCartItemInput(in.ProductID, in.Quantity, in.Locale); err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", in.ProductID, err)
	}
	if !product.Active {
		return nil, fmt.Errorf("product %s: %w", in.ProductID, store.ErrNotFound)
	}

	customizations := withoutClientPrices(in.Customizations)
	report := validation.Evaluate(customizations, product.CustomizationOptions, "", validation.Options{Locale: in.Locale})
	if err := report.Err(); err != nil {
		return nil, err
	}
	customizations = sanitized(customizations)

	items, err := s.carts.ListItems(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	hash, err := redis.CustomizationHash(customizations)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ProductID != product.ID {
			continue
		}
		if h, err := redis.CustomizationHash(item.Customizations); err != nil || h != hash {
			continue
		}
		merged := item.Quantity + in.Quantity
		if err := validation.ValidateQuantity(merged, in.Locale); err != nil {
			return nil, err
		}
		if _, err := s.carts.UpdateItemQuantity(ctx, owner, item.ID, merged, s.now()); err != nil {
			return nil, fmt.Errorf("merge cart item %s: %w", item.ID, err)
		}
		return s.afterMutation(ctx, owner, ChangeUpdate, item.ID)
	}

	calc := s.UnitPrice(ctx, owner, &product, customizations)
	now := s.now().UTC()
	item := models.CartItem{
		ID:             s.newID(),
		ProductID:      product.ID,
		Quantity:       in.Quantity,
		Customizations: customizations,
		UnitPrice:      calc.UnitPrice,
		AddedAt:        now,
		UpdatedAt:      now,
	}
	item.Recalculate()
	if err := s.carts.InsertItem(ctx, owner, item); err != nil {
		return nil, fmt.Errorf("insert cart item: %w", err)
	}
	return s.afterMutation(ctx, owner, ChangeAdd, item.ID)
}

func (s *Service) UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID string, quantity int, locale string) (*models.CartSnapshot, error) {
	if owner.IsZero() {
		return nil, ErrCartIdentityMissing
	}
	if err := validation.ValidateQuantity(quantity, locale); err != nil {
		return nil, err
	}
	if _, err := s.carts.UpdateItemQuantity(ctx, owner, itemID, quantity, s.now()); err != nil {
		return nil, fmt.Errorf("update cart item %s: %w", itemID, err)
	}
	return s.afterMutation(ctx, owner, ChangeUpdate, itemID)
}

func (s *Service) RemoveItem(ctx context.Context, owner models.CartOwner, itemID string) (*models.CartSnapshot, error) {
	if owner.IsZero() {
		return nil, ErrCartIdentityMissing
	}
	if err := s.carts.DeleteItem(ctx, owner, itemID); err != nil {
		return nil, fmt.Errorf("remove cart item %s: %w", itemID, err)
	}
	return s.afterMutation(ctx, owner, ChangeRemove, itemID)
}

func (s *Service) ClearCart(ctx context.Context, owner models.CartOwner) (*models.CartSnapshot, error) {
	if owner.IsZero() {
		return nil, ErrCartIdentityMissing
	}
	if _, err := s.carts.DeleteAll(ctx, owner); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return s.afterMutation(ctx, owner, ChangeClear, "")
}

// CleanupStaleCarts deletes carts untouched since before and drops their
// cached state. It returns the number of carts removed.
func (s *Service) CleanupStaleCarts(ctx context.Context, before time.Time) (int, error) {
	owners, err := s.carts.DeleteStale(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("delete stale carts: %w", err)
	}
	for _, owner := range owners {
		if err := s.cache.UpdateCachedCartAfterItemChange(ctx, owner, ChangeClear, ""); err != nil {
			s.logger.Warn("stale cart cache not cleared", "error", err)
		}
	}
	s.logger.Info("stale carts removed", "count", len(owners), "before", before)
	return len(owners), nil
}

// afterMutation invalidates the cached snapshot and repopulates it from the
// repository. The generation is read after the invalidation bumped it, so a
// later concurrent mutation wins the repopulation. On invalidation failure
// the fresh cart is returned together with ErrCacheInconsistent.
func (s *Service) afterMutation(ctx context.Context, owner models.CartOwner, change ChangeType, itemID string) (*models.CartSnapshot, error) {
	invalidateErr := s.cache.UpdateCachedCartAfterItemChange(ctx, owner, change, itemID)
	gen, tracked := s.cache.Generation(ctx, owner)

	items, err := s.carts.ListItems(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}
	snap := models.NewCartSnapshot(items, s.now())

	if invalidateErr != nil {
		s.logger.Error("cart cache left inconsistent", "change", change, "item_id", itemID, "error", invalidateErr)
		return snap, fmt.Errorf("%w: %v", ErrCacheInconsistent, invalidateErr)
	}
	if tracked {
		s.cache.CacheCartConfigurationAt(ctx, owner, snap, gen)
	}
	return snap, nil
}

func withoutClientPrices(in []models.Customization) []models.Customization {
	out := make([]models.Customization, 0, len(in))
	for _, c := range in {
		c.PriceModifier = nil
		c.ChoiceIDs = append([]string{}, c.ChoiceIDs...)
		out = append(out, c)
	}
	return out
}

// sanitized stores free text in its cleaned form.
func sanitized(in []models.Customization) []models.Customization {
	for i, c := range in {
		if c.CustomValue != nil {
			v := validation.SanitizeText(*c.CustomValue)
			in[i].CustomValue = &v
		}
	}
	return in
}
