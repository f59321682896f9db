package quotes

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/STTM-NSU/financeel/internal/kv"
	"github.com/STTM-NSU/financeel/internal/model"
)

// Cache maps symbols to their last known quote and remembers when prices were last refreshed.
type Cache struct {
	store  kv.Store
	saveMu sync.Mutex

	mu         sync.RWMutex
	entries    map[string]model.QuoteEntry
	lastUpdate time.Time
}

func NewCache(store kv.Store) *Cache {
	return &Cache{
		store:   store,
		entries: make(map[string]model.QuoteEntry),
	}
}

func (c *Cache) Load(ctx context.Context) error {
	entries := make(map[string]model.QuoteEntry)
	if _, err := kv.GetJSON(ctx, c.store, kv.PriceCacheKey, &entries); err != nil {
		return fmt.Errorf("%w: can't load price cache", err)
	}
	if entries == nil {
		entries = make(map[string]model.QuoteEntry)
	}

	var lastUpdate time.Time
	if _, err := kv.GetJSON(ctx, c.store, kv.LastUpdateKey, &lastUpdate); err != nil {
		return fmt.Errorf("%w: can't load last update", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = entries
	c.lastUpdate = lastUpdate
	return nil
}

// Save writes the current state. Snapshots are taken under saveMu so the last write always carries the latest state.
func (c *Cache) Save(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.RLock()
	entries := maps.Clone(c.entries)
	lastUpdate := c.lastUpdate
	c.mu.RUnlock()

	if err := kv.SetJSON(ctx, c.store, kv.PriceCacheKey, entries); err != nil {
		return fmt.Errorf("%w: can't save price cache", err)
	}
	if err := kv.SetJSON(ctx, c.store, kv.LastUpdateKey, lastUpdate); err != nil {
		return fmt.Errorf("%w: can't save last update", err)
	}
	return nil
}

func (c *Cache) Get(symbol string) (model.QuoteEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[symbol]
	return e, ok
}

func (c *Cache) Snapshot() map[string]model.QuoteEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}

func (c *Cache) LastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}

// Commit overwrites entries wholesale, stamps the refresh time and persists immediately.
// An entry older than the one already cached is dropped, so a stale refresh never wins
// over a newer one. It returns how many entries were written.
func (c *Cache) Commit(ctx context.Context, stamp time.Time, entries map[string]model.QuoteEntry) (int, error) {
	c.mu.Lock()
	written := 0
	for symbol, e := range entries {
		if cur, ok := c.entries[symbol]; ok && cur.Updated.After(e.Updated) {
			continue
		}
		c.entries[symbol] = e
		written++
	}
	if written > 0 && stamp.After(c.lastUpdate) {
		c.lastUpdate = stamp
	}
	c.mu.Unlock()

	if written == 0 {
		return 0, nil
	}
	return written, c.Save(ctx)
}
