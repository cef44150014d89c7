package configcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tobilg/widget-studio/internal/api"
	"github.com/tobilg/widget-studio/internal/events"
	"github.com/tobilg/widget-studio/internal/logger"
)

// DefaultTTL is how long a fetched configuration is served from memory.
const DefaultTTL = 5 * time.Minute

// Source is the backing store the cache reads through.
// GetWidget and GetConfiguration return nil, nil when the row does not exist.
type Source interface {
	GetWidget(ctx context.Context, id string) (*api.Widget, error)
	GetConfiguration(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error)
}

type entry struct {
	config    *api.WidgetConfiguration // nil means "use widget defaults"
	fetchedAt time.Time
	token     uint64
}

// Cache is a per-process, TTL-bound cache of validated widget configurations.
//
// Concurrent misses for one widget share a single fetch. Each fetch takes a
// token from a per-widget counter when it is issued; a result is only stored
// if no fetch issued later has already been stored.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	issued  map[string]uint64
	applied map[string]uint64

	group singleflight.Group
}

// Option customizes a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache reading through source.
func New(source Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		ttl:     DefaultTTL,
		now:     time.Now,
		entries: make(map[string]*entry),
		issued:  make(map[string]uint64),
		applied: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the configuration for widgetID. A nil configuration with a nil
// error means the widget has no valid configuration and should render with
// its defaults. Errors are fetch failures and are never cached.
func (c *Cache) Get(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error) {
	c.mu.Lock()
	if e, ok := c.entries[widgetID]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.config, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(widgetID, func() (interface{}, error) {
		return c.fetch(ctx, widgetID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*api.WidgetConfiguration), nil
}

// Invalidate drops the cached entry so the next Get fetches again. Fetches
// already in flight still answer their callers but are not cached.
func (c *Cache) Invalidate(widgetID string) {
	c.mu.Lock()
	delete(c.entries, widgetID)
	c.issued[widgetID]++
	c.applied[widgetID] = c.issued[widgetID]
	c.mu.Unlock()
	c.group.Forget(widgetID)
}

// ForceRefetch bypasses both the cache and any in-flight fetch. Its result
// supersedes fetches issued before it, even if those complete later.
func (c *Cache) ForceRefetch(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error) {
	c.group.Forget(widgetID)
	return c.fetch(ctx, widgetID)
}

// Listen invalidates entries named by config.invalidated events on bus
// until ctx is done.
func (c *Cache) Listen(ctx context.Context, bus events.Bus) error {
	return bus.Subscribe(ctx, func(ev events.Event) {
		if ev.Type != events.ConfigInvalidated || ev.WidgetID == "" {
			return
		}
		c.Invalidate(ev.WidgetID)
	})
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fetch(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error) {
	c.mu.Lock()
	c.issued[widgetID]++
	token := c.issued[widgetID]
	c.mu.Unlock()

	cfg, err := c.load(ctx, widgetID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if applied := c.applied[widgetID]; applied > token {
		logger.Debug("Discarding stale configuration fetch",
			"widget_id", widgetID,
			"token", token,
			"applied_token", applied,
		)
		if current, ok := c.entries[widgetID]; ok {
			return current.config, nil
		}
		return cfg, nil
	}
	c.applied[widgetID] = token
	c.entries[widgetID] = &entry{config: cfg, fetchedAt: c.now(), token: token}
	return cfg, nil
}

// load fetches and validates. Validation problems are not errors.
func (c *Cache) load(ctx context.Context, widgetID string) (*api.WidgetConfiguration, error) {
	w, err := c.source.GetWidget(ctx, widgetID)
	if err != nil {
		return nil, fmt.Errorf("fetching widget %s: %w", widgetID, err)
	}
	if w == nil {
		return nil, nil
	}

	cfg, err := c.source.GetConfiguration(ctx, widgetID)
	if err != nil {
		return nil, fmt.Errorf("fetching configuration for widget %s: %w", widgetID, err)
	}
	if cfg == nil {
		return nil, nil
	}

	if err := Validate(w.WidgetType, cfg.Config); err != nil {
		logger.Warn("Widget configuration failed validation, using defaults",
			"widget_id", widgetID,
			"widget_type", string(w.WidgetType),
			"error", err,
		)
		return nil, nil
	}
	return cfg, nil
}
