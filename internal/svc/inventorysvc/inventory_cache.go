package inventorysvc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/infra/logging"
)

// ErrCacheCleared is returned by Refresh when the cache was cleared while the
// fetch was in flight. The fetched items are dropped.
var ErrCacheCleared = errors.New("cache cleared during refresh")

// ItemLister fetches the full inventory.
type ItemLister interface {
	ListSweets(ctx context.Context) ([]domain.Item, error)
}

// Cache is the in-memory copy of the backend inventory.
// It is only ever replaced as a whole.
type Cache struct {
	lister ItemLister
	log    logging.Logger

	mu         sync.RWMutex
	items      []domain.Item
	generation uint64
}

// NewCache creates an empty Cache filled from lister on Refresh.
func NewCache(lister ItemLister) *Cache {
	return &Cache{
		lister: lister,
		log:    logging.GetLogger("svc.inventorysvc.inventory_cache"),
	}
}

// Refresh fetches the inventory and replaces the cached items with it.
// On failure the previous items are kept.
func (c *Cache) Refresh(ctx context.Context) (_ []domain.Item, err error) {
	defer func() {
		if err != nil {
			c.log.ErrorContext(ctx, "refresh failed", "error", err)
		}
	}()

	c.mu.RLock()
	generation := c.generation
	c.mu.RUnlock()

	items, err := c.lister.ListSweets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sweets: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation {
		return nil, ErrCacheCleared
	}

	c.items = slices.Clone(items)
	c.generation++

	c.log.DebugContext(ctx, "inventory refreshed", "items", len(items))

	return slices.Clone(items), nil
}

// Items returns a copy of the cached items in backend order.
func (c *Cache) Items() []domain.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.items)
}

// Lookup returns the cached item with the given ID.
func (c *Cache) Lookup(id domain.ItemID) (domain.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}

	return domain.Item{}, false
}

// Categories returns the distinct categories of the cached items.
func (c *Cache) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Categories(c.items)
}

// Clear empties the cache and invalidates refreshes in flight.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.generation++
}
