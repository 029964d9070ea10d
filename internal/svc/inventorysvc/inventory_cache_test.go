package inventorysvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/sweetshop/internal/domain"
	"github.com/mkrupp/sweetshop/internal/svc/inventorysvc"
)

var ErrBackend = errors.New("backend error")

// mockLister implements inventorysvc.ItemLister for testing.
type mockLister struct {
	items []domain.Item
	err   error
	// hook runs before the result is returned
	hook func()
	m    sync.Mutex
}

func (m *mockLister) ListSweets(context.Context) ([]domain.Item, error) {
	m.m.Lock()
	items, err, hook := m.items, m.err, m.hook
	m.m.Unlock()

	if hook != nil {
		hook()
	}

	return items, err
}

func TestCache_Refresh(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lister := &mockLister{items: exampleCache()}
	cache := inventorysvc.NewCache(lister)

	assert.Empty(t, cache.Items())

	items, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemID{1, 2}, ids(items))
	assert.Equal(t, []domain.ItemID{1, 2}, ids(cache.Items()))
	assert.Equal(t, []string{"Indian", "American"}, cache.Categories())

	found, ok := cache.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, "Candy", found.Name)

	_, ok = cache.Lookup(99)
	assert.False(t, ok)

	// full replace, no merge
	lister.items = []domain.Item{item(3, "Barfi", "Indian", "3", 1)}

	_, err = cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemID{3}, ids(cache.Items()))
}

func TestCache_RefreshFailureKeepsItems(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	lister := &mockLister{items: exampleCache()}
	cache := inventorysvc.NewCache(lister)

	_, err := cache.Refresh(ctx)
	require.NoError(t, err)

	lister.err = ErrBackend

	_, err = cache.Refresh(ctx)
	require.ErrorIs(t, err, ErrBackend)
	assert.Equal(t, []domain.ItemID{1, 2}, ids(cache.Items()))
}

func TestCache_ItemsIsACopy(t *testing.T) {
	t.Parallel()

	cache := inventorysvc.NewCache(&mockLister{items: exampleCache()})

	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	items := cache.Items()
	items[0].Name = "changed"

	assert.Equal(t, "Ladoo", cache.Items()[0].Name)
}

func TestCache_ClearDuringRefreshDropsResult(t *testing.T) {
	t.Parallel()

	lister := &mockLister{items: exampleCache()}
	cache := inventorysvc.NewCache(lister)
	lister.hook = cache.Clear

	_, err := cache.Refresh(context.Background())
	require.ErrorIs(t, err, inventorysvc.ErrCacheCleared)
	assert.Empty(t, cache.Items())
}
