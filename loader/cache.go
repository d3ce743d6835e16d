package loader

import (
	"container/list"
	"context"
	"sync"

	"github.com/graph-gophers/dataloader/v7"
)

type lruEntry struct {
	key   string
	thunk dataloader.Thunk[any]
}

// lruCache is a dataloader cache that evicts the least recently used key
// once maxSize is exceeded. A maxSize of zero never evicts.
type lruCache struct {
	maxSize  int
	items    map[string]*list.Element
	order    *list.List
	onLookup func(hit bool)
	mu       sync.Mutex
}

func newLRUCache(maxSize int, onLookup func(hit bool)) *lruCache {
	return &lruCache{
		maxSize:  maxSize,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		onLookup: onLookup,
	}
}

// Get returns the cached thunk for key and marks it as recently used.
func (c *lruCache) Get(_ context.Context, key string) (dataloader.Thunk[any], bool) {
	c.mu.Lock()
	element, exists := c.items[key]
	var thunk dataloader.Thunk[any]
	if exists {
		c.order.MoveToFront(element)
		thunk = element.Value.(*lruEntry).thunk
	}
	c.mu.Unlock()

	if c.onLookup != nil {
		c.onLookup(exists)
	}
	return thunk, exists
}

// Set stores the thunk for key, evicting the oldest entry when full.
func (c *lruCache) Set(_ context.Context, key string, thunk dataloader.Thunk[any]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[key]; exists {
		element.Value.(*lruEntry).thunk = thunk
		c.order.MoveToFront(element)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, thunk: thunk})
	if c.maxSize > 0 && len(c.items) > c.maxSize {
		c.evictOldest()
	}
}

// Delete removes key and reports whether it was present.
func (c *lruCache) Delete(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		return false
	}
	c.remove(element)
	return true
}

// Clear removes all entries
func (c *lruCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()
}

// Len returns the number of cached keys
func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// must be called with mu held
func (c *lruCache) evictOldest() {
	if element := c.order.Back(); element != nil {
		c.remove(element)
	}
}

// must be called with mu held
func (c *lruCache) remove(element *list.Element) {
	delete(c.items, element.Value.(*lruEntry).key)
	c.order.Remove(element)
}
