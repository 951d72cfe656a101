// Package resolver memoizes market resolutions for the duration of a run.
package resolver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/polycopy/internal/domain"
	"github.com/alejandrodnm/polycopy/internal/metrics"
	"github.com/alejandrodnm/polycopy/internal/ports"
	"golang.org/x/sync/singleflight"
)

// Cache implements ports.Resolver as a read-through cache keyed by market id
// only: one record covers every outcome token of a market.
//
// Lookup order is memory, then the optional persistent store, then the
// source. Entries are written once per key; a concurrent second writer keeps
// the first value. Source errors return Unknown and are not memoized so a
// later trader can retry; inconclusive answers are memoized for the run.
// Only Resolved answers are written to the persistent store.
type Cache struct {
	source ports.ResolutionSource
	store  ports.ResolutionStore

	mu      sync.RWMutex
	entries map[string]domain.Resolution
	group   singleflight.Group
}

// NewCache creates a Cache. store may be nil.
func NewCache(source ports.ResolutionSource, store ports.ResolutionStore) *Cache {
	return &Cache{
		source:  source,
		store:   store,
		entries: make(map[string]domain.Resolution),
	}
}

// Resolve implements ports.Resolver. assetID is ignored.
func (c *Cache) Resolve(ctx context.Context, marketID, _ string) domain.Resolution {
	if marketID == "" || marketID == domain.UnknownID {
		return domain.UnknownResolution()
	}

	if r, ok := c.get(marketID); ok {
		metrics.ResolutionLookups.WithLabelValues("memory").Inc()
		return r
	}

	v, _, _ := c.group.Do(marketID, func() (any, error) {
		if r, ok := c.get(marketID); ok {
			return r, nil
		}
		return c.load(ctx, marketID), nil
	})
	return v.(domain.Resolution)
}

// Len returns the number of memoized markets.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) get(marketID string) (domain.Resolution, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[marketID]
	return r, ok
}

// put inserts r unless the key already exists and returns the stored value.
func (c *Cache) put(marketID string, r domain.Resolution) domain.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[marketID]; ok {
		return prev
	}
	c.entries[marketID] = r
	metrics.ResolutionCacheSize.Set(float64(len(c.entries)))
	return r
}

func (c *Cache) load(ctx context.Context, marketID string) domain.Resolution {
	if c.store != nil {
		r, ok, err := c.store.GetResolution(ctx, marketID)
		if err != nil {
			slog.Debug("resolution store read failed", "market", marketID, "err", err)
		} else if ok {
			metrics.ResolutionLookups.WithLabelValues("store").Inc()
			return c.put(marketID, r)
		}
	}

	if c.source == nil {
		return domain.UnknownResolution()
	}

	r, err := c.source.FetchResolution(ctx, marketID)
	if err != nil {
		metrics.ResolutionLookups.WithLabelValues("error").Inc()
		slog.Debug("resolution lookup failed", "market", marketID, "err", err)
		return domain.UnknownResolution()
	}
	metrics.ResolutionLookups.WithLabelValues("source").Inc()

	stored := c.put(marketID, r)
	if c.store != nil && stored.Status == domain.ResolutionResolved {
		if err := c.store.SaveResolution(ctx, marketID, stored); err != nil {
			slog.Warn("resolution store write failed", "market", marketID, "err", err)
		}
	}
	return stored
}
