package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/team1306/purchase-tracker/internal/repository"
)

// RosterLoader loads the full roster from its source of truth.
type RosterLoader interface {
	Load(ctx context.Context) (*repository.Roster, error)
}

// RosterCache serves immutable roster snapshots with a time-boxed
// staleness policy. The refresh interval is owned by the wiring layer;
// Invalidate forces a reload on the next read.
type RosterCache struct {
	loader RosterLoader
	ttl    time.Duration
	log    zerolog.Logger
	now    func() time.Time

	mu       sync.Mutex
	snapshot *repository.Roster
	loadedAt time.Time
}

// NewRosterCache creates a roster cache with the given staleness window.
func NewRosterCache(loader RosterLoader, ttl time.Duration, log zerolog.Logger) *RosterCache {
	return &RosterCache{loader: loader, ttl: ttl, log: log, now: time.Now}
}

// Get returns the current roster snapshot, reloading when the cached one
// has expired. When a reload fails and an earlier snapshot exists, the
// stale snapshot is served rather than failing the decision.
func (c *RosterCache) Get(ctx context.Context) (*repository.Roster, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.snapshot, nil
	}

	roster, err := c.loader.Load(ctx)
	if err != nil {
		if c.snapshot != nil {
			c.log.Warn().Err(err).Msg("roster reload failed; serving stale snapshot")
			return c.snapshot, nil
		}
		return nil, err
	}

	c.snapshot = roster
	c.loadedAt = c.now()
	return c.snapshot, nil
}

// Invalidate drops the cached snapshot so the next Get reloads.
func (c *RosterCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}
