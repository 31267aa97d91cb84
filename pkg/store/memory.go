package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"pohrebni-vence.cz/storefront/pkg/models"
)

type memoryCart struct {
	owner models.CartOwner
	items []models.CartItem
}

// MemoryStore is an in-memory Store. It is safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	carts     map[string]*memoryCart
	products  map[string]models.Product
	orders    map[string]models.Order
	discounts map[string]models.DiscountCode
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:     make(map[string]*memoryCart),
		products:  make(map[string]models.Product),
		orders:    make(map[string]models.Order),
		discounts: make(map[string]models.DiscountCode),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error  { return nil }
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) ListItems(ctx context.Context, owner models.CartOwner) ([]models.CartItem, error) {
	key, ok := OwnerKey(owner)
	if !ok {
		return nil, ErrNoOwner
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.CartItem{}
	if cart, ok := s.carts[key]; ok {
		for _, item := range cart.items {
			out = append(out, cloneItem(item))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AddedAt.Before(out[j].AddedAt) })
	return out, nil
}

func (s *MemoryStore) InsertItem(ctx context.Context, owner models.CartOwner, item models.CartItem) error {
	key, ok := OwnerKey(owner)
	if !ok {
		return ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[key]
	if !ok {
		cart = &memoryCart{owner: owner}
		s.carts[key] = cart
	}
	for _, existing := range cart.items {
		if existing.ID == item.ID {
			return ErrConflict
		}
	}
	cart.items = append(cart.items, cloneItem(item))
	return nil
}

func (s *MemoryStore) UpdateItemQuantity(ctx context.Context, owner models.CartOwner, itemID string, quantity int, now time.Time) (models.CartItem, error) {
	key, ok := OwnerKey(owner)
	if !ok {
		return models.CartItem{}, ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[key]
	if !ok {
		return models.CartItem{}, ErrNotFound
	}
	for i := range cart.items {
		if cart.items[i].ID != itemID {
			continue
		}
		cart.items[i].Quantity = quantity
		cart.items[i].Recalculate()
		cart.items[i].UpdatedAt = now.UTC()
		return cloneItem(cart.items[i]), nil
	}
	return models.CartItem{}, ErrNotFound
}

func (s *MemoryStore) DeleteItem(ctx context.Context, owner models.CartOwner, itemID string) error {
	key, ok := OwnerKey(owner)
	if !ok {
		return ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[key]
	if !ok {
		return ErrNotFound
	}
	for i, item := range cart.items {
		if item.ID == itemID {
			cart.items = append(cart.items[:i], cart.items[i+1:]...)
			if len(cart.items) == 0 {
				delete(s.carts, key)
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteAll(ctx context.Context, owner models.CartOwner) (int64, error) {
	key, ok := OwnerKey(owner)
	if !ok {
		return 0, ErrNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[key]
	if !ok {
		return 0, nil
	}
	delete(s.carts, key)
	return int64(len(cart.items)), nil
}

func (s *MemoryStore) DeleteStale(ctx context.Context, before time.Time) ([]models.CartOwner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owners := []models.CartOwner{}
	for key, cart := range s.carts {
		if lastTouched(cart.items).Before(before) {
			owners = append(owners, cart.owner)
			delete(s.carts, key)
		}
	}
	return owners, nil
}

func lastTouched(items []models.CartItem) time.Time {
	var latest time.Time
	for _, item := range items {
		t := item.UpdatedAt
		if item.AddedAt.After(t) {
			t = item.AddedAt
		}
		if t.After(latest) {
			latest = t
		}
	}
	return latest
}

func (s *MemoryStore) GetProduct(ctx context.Context, idOrSlug string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[idOrSlug]; ok {
		return p, nil
	}
	for _, p := range s.products {
		if p.Slug == idOrSlug {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}

func (s *MemoryStore) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Product{}
	for _, p := range s.products {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) UpsertProduct(ctx context.Context, p models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.products[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	p.SetTimestamps()
	s.products[p.ID] = p
	return nil
}

func (s *MemoryStore) CreateOrder(ctx context.Context, o models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return ErrConflict
	}
	s.orders[o.ID] = o
	return nil
}

func (s *MemoryStore) GetOrder(ctx context.Context, id string) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (s *MemoryStore) MarkPaid(ctx context.Context, id string, paidAt time.Time) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	switch o.Status {
	case models.OrderPaid:
		return o, nil
	case models.OrderCancelled:
		return models.Order{}, ErrConflict
	}
	paidAt = paidAt.UTC()
	o.Status = models.OrderPaid
	o.PaidAt = &paidAt
	s.orders[id] = o
	return o, nil
}

func (s *MemoryStore) GetDiscount(ctx context.Context, code string) (models.DiscountCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.discounts[NormalizeCode(code)]
	if !ok {
		return models.DiscountCode{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) UpsertDiscount(ctx context.Context, d models.DiscountCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.Code = NormalizeCode(d.Code)
	if d.Code == "" {
		return ErrEmptyCode
	}
	s.discounts[d.Code] = d
	return nil
}

func cloneItem(item models.CartItem) models.CartItem {
	out := item
	if item.Customizations == nil {
		return out
	}
	out.Customizations = make([]models.Customization, len(item.Customizations))
	for i, c := range item.Customizations {
		if c.ChoiceIDs != nil {
			c.ChoiceIDs = append([]string{}, c.ChoiceIDs...)
		}
		if c.CustomValue != nil {
			v := strings.Clone(*c.CustomValue)
			c.CustomValue = &v
		}
		out.Customizations[i] = c
	}
	return out
}
