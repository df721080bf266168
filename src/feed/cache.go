package feed

import (
	"sort"
	"sync"

	"github.com/openherd/openherd/src/post"
	"github.com/openherd/openherd/src/store"
)

// MaxCacheSize is the largest number of envelopes kept in the snapshot.
const MaxCacheSize = 100

// Cache is the persisted snapshot of the last successful feed load.
type Cache struct {
	l         sync.Mutex
	store     store.Store
	size      int
	envelopes []*post.Envelope
}

// NewCache loads the snapshot from s. size is clamped to MaxCacheSize.
func NewCache(s store.Store, size int) (*Cache, error) {
	if size <= 0 || size > MaxCacheSize {
		size = MaxCacheSize
	}

	c := &Cache{
		store: s,
		size:  size,
	}

	var envelopes []*post.Envelope
	found, err := store.LoadValue(s, store.CacheKey, &envelopes)
	if err != nil {
		return nil, err
	}
	if found {
		c.envelopes = envelopes
	}

	return c, nil
}

// Envelopes returns the cached envelopes.
func (c *Cache) Envelopes() []*post.Envelope {
	c.l.Lock()
	defer c.l.Unlock()
	res := make([]*post.Envelope, len(c.envelopes))
	copy(res, c.envelopes)
	return res
}

// Len ...
func (c *Cache) Len() int {
	c.l.Lock()
	defer c.l.Unlock()
	return len(c.envelopes)
}

// Replace overwrites the snapshot with the newest items, by date, up to the
// cache size.
func (c *Cache) Replace(items []*Item) error {
	sorted := make([]*Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Date().After(sorted[b].Date())
	})

	if len(sorted) > c.size {
		sorted = sorted[:c.size]
	}

	envelopes := make([]*post.Envelope, len(sorted))
	for k, i := range sorted {
		envelopes[k] = i.Envelope
	}

	c.l.Lock()
	defer c.l.Unlock()

	if err := store.SaveValue(c.store, store.CacheKey, envelopes); err != nil {
		return err
	}
	c.envelopes = envelopes

	return nil
}
