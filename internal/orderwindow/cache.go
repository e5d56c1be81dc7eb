package orderwindow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"grocery_backend/internal/metrics"
	"grocery_backend/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// SettingsSource loads the current settings record.
type SettingsSource interface {
	GetOrCreate(ctx context.Context) (*models.Settings, error)
}

// Cache holds the order window loaded from settings and refreshes it once it
// is older than the TTL. Refresh failures keep the previous window.
type Cache struct {
	source SettingsSource
	ttl    time.Duration
	now    func() time.Time
	loc    *time.Location

	mu          sync.RWMutex
	window      Window
	refreshedAt time.Time
	appliedLoad uint64

	loads atomic.Uint64
	group singleflight.Group
}

const refreshTimeout = 5 * time.Second

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLocation sets the business timezone the window is evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(c *Cache) { c.loc = loc }
}

// NewCache creates a cache starting from DefaultWindow. The first check loads settings.
func NewCache(source SettingsSource, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		loc:    time.Local,
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt.IsZero() || c.now().Sub(c.refreshedAt) > c.ttl
}

// IsWithinOrderHours reports whether the current time is inside the order window.
// It never fails: if settings cannot be loaded the last known window is used.
// Concurrent checks that find the window stale share one load.
func (c *Cache) IsWithinOrderHours(ctx context.Context) bool {
	if c.stale() {
		_, err, _ := c.group.Do("refresh", func() (interface{}, error) {
			loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
			defer cancel()
			return nil, c.load(loadCtx)
		})
		if err != nil {
			log.Warn().Err(err).Msg("order window refresh failed, using last known window")
		}
	}
	c.mu.RLock()
	w := c.window
	c.mu.RUnlock()
	return w.Contains(c.now().In(c.loc))
}

// Refresh reloads the window from settings immediately. It does not join a
// load already in flight, so settings saved before the call are always seen.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.load(ctx)
}

// load reads settings and applies the window unless a load that started
// later has already been applied.
func (c *Cache) load(ctx context.Context) error {
	seq := c.loads.Add(1)
	s, err := c.source.GetOrCreate(ctx)
	if err != nil {
		metrics.OrderWindowRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("loading order window: %w", err)
	}
	w := FromSettings(*s)

	c.mu.Lock()
	if seq < c.appliedLoad {
		c.mu.Unlock()
		metrics.OrderWindowRefreshes.WithLabelValues("superseded").Inc()
		return nil
	}
	c.window = w
	c.refreshedAt = c.now()
	c.appliedLoad = seq
	c.mu.Unlock()

	metrics.OrderWindowRefreshes.WithLabelValues("success").Inc()
	log.Debug().Str("window", w.String()).Msg("order window refreshed")
	return nil
}

// Invalidate forces the next check to reload settings.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.refreshedAt = time.Time{}
	c.mu.Unlock()
}

// Snapshot returns the cached window and when it was loaded.
func (c *Cache) Snapshot() (Window, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window, c.refreshedAt
}

// OrderHoursMessage describes the configured hours using live settings.
func (c *Cache) OrderHoursMessage(ctx context.Context) (string, error) {
	s, err := c.source.GetOrCreate(ctx)
	if err != nil {
		return "", fmt.Errorf("loading order hours: %w", err)
	}
	return FromSettings(*s).Message(), nil
}

// Now returns the current time in the business location.
func (c *Cache) Now() time.Time {
	return c.now().In(c.loc)
}
