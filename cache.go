package marmite

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// listingRetryInterval spaces out reload attempts while a stale listing is
// being served.
const listingRetryInterval = 10 * time.Second

// RecipeCache holds the listing fetched at build time. With a zero TTL the
// listing never expires; otherwise it is re-fetched once older than TTL.
// When a reload fails the previous listing keeps being served.
type RecipeCache struct {
	mu      sync.RWMutex
	recipes []Recipe
	loaded  bool
	stale   bool
	fetched time.Time
	ttl     time.Duration
	load    func(ctx context.Context) ([]Recipe, error)
	logger  echo.Logger
	now     func() time.Time
}

// NewRecipeCache creates a RecipeCache that refills itself with load.
func NewRecipeCache(load func(ctx context.Context) ([]Recipe, error), ttl time.Duration, logger echo.Logger) *RecipeCache {
	return &RecipeCache{load: load, ttl: ttl, logger: logger, now: time.Now}
}

func (c *RecipeCache) valid() bool {
	if !c.loaded {
		return false
	}
	age := c.now().Sub(c.fetched)
	if c.stale {
		return age < listingRetryInterval
	}
	return c.ttl == 0 || age < c.ttl
}

// Set replaces the cached listing.
func (c *RecipeCache) Set(recipes []Recipe) {
	c.mu.Lock()
	c.recipes = recipes
	c.loaded = true
	c.stale = false
	c.fetched = c.now()
	c.mu.Unlock()
}

// SetStale stores a listing that is served until a reload succeeds. The
// next List attempts the reload.
func (c *RecipeCache) SetStale(recipes []Recipe) {
	c.mu.Lock()
	c.recipes = recipes
	c.loaded = true
	c.stale = true
	c.fetched = time.Time{}
	c.mu.Unlock()
}

// Invalidate marks the listing stale so the next List reloads it. The
// current listing is kept in case the reload fails.
func (c *RecipeCache) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.fetched = time.Time{}
	c.mu.Unlock()
}

// List returns the cached listing, loading it first if needed.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *RecipeCache) List(ctx context.Context) ([]Recipe, error) {
	c.mu.RLock()
	if c.valid() {
		recipes := c.recipes
		c.mu.RUnlock()
		return recipes, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.recipes, nil
	}
	recipes, err := c.load(ctx)
	if err != nil {
		if !c.loaded {
			return nil, err
		}
		c.stale = true
		c.fetched = c.now()
		c.logger.Errorf("listing: %v; serving %d cached recipes", err, len(c.recipes))
		return c.recipes, nil
	}
	c.recipes = recipes
	c.loaded = true
	c.stale = false
	c.fetched = c.now()
	return recipes, nil
}
