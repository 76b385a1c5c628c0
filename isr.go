package marmite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/singleflight"
)

// ErrPending is returned by Await when on-demand generation has not finished
// within the wait budget.
var ErrPending = errors.New("page generation in progress")

const regenerateTimeout = 30 * time.Second

// GenerateFunc produces the detail page data for a slug.
type GenerateFunc func(ctx context.Context, slug string) (DetailResult, error)

type page struct {
	result    DetailResult
	generated time.Time
}

// PageCache holds generated detail pages and regenerates them in the
// background once they are older than their revalidate interval.
type PageCache struct {
	mu       sync.RWMutex
	pages    map[string]page
	inflight map[string]bool

	group    singleflight.Group
	wg       sync.WaitGroup
	generate GenerateFunc
	store    *Store
	ttl      time.Duration
	logger   echo.Logger
	now      func() time.Time
}

// NewPageCache creates a PageCache. store may be nil, in which case pages
// are not persisted across restarts.
func NewPageCache(gen GenerateFunc, store *Store, ttl time.Duration, logger echo.Logger) *PageCache {
	return &PageCache{
		pages:    make(map[string]page),
		inflight: make(map[string]bool),
		generate: gen,
		store:    store,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Prerender generates every slug sequentially. It stops at the first error.
func (c *PageCache) Prerender(ctx context.Context, slugs []string) error {
	for _, slug := range slugs {
		if _, err := c.Generate(ctx, slug); err != nil {
			return fmt.Errorf("prerender %s: %w", slug, err)
		}
	}
	return nil
}

// Get returns the page for slug. A stale page is still returned and a
// single background regeneration is started for it. On a cold miss the
// snapshot store is consulted and its copy is treated as stale.
func (c *PageCache) Get(slug string) (DetailResult, bool) {
	c.mu.RLock()
	p, ok := c.pages[slug]
	c.mu.RUnlock()
	if !ok {
		p, ok = c.loadSnapshot(slug)
		if !ok {
			return DetailResult{}, false
		}
	}
	if c.stale(p) {
		c.revalidate(slug)
	}
	return p.result, true
}

// Peek returns the cached page without triggering regeneration.
func (c *PageCache) Peek(slug string) (DetailResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pages[slug]
	return p.result, ok
}

// Generate runs the generator for slug, collapsing concurrent calls, and
// stores the result.
func (c *PageCache) Generate(ctx context.Context, slug string) (DetailResult, error) {
	v, err, _ := c.group.Do(slug, c.fill(ctx, slug))
	if err != nil {
		return DetailResult{}, err
	}
	return v.(DetailResult), nil
}

// Await starts on-demand generation for slug and waits up to wait for it.
// Generation keeps running after Await returns ErrPending, so a later
// request finds the page in the cache.
func (c *PageCache) Await(ctx context.Context, slug string, wait time.Duration) (DetailResult, error) {
	genCtx, cancel := context.WithTimeout(context.Background(), regenerateTimeout)
	done := make(chan singleflight.Result, 1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		done <- <-c.group.DoChan(slug, c.fill(genCtx, slug))
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case res := <-done:
		if res.Err != nil {
			return DetailResult{}, res.Err
		}
		return res.Val.(DetailResult), nil
	case <-timer.C:
		return DetailResult{}, ErrPending
	case <-ctx.Done():
		return DetailResult{}, ctx.Err()
	}
}

// Invalidate marks the page for slug stale. The next Get keeps serving it
// and regenerates it in the background. It reports whether slug was cached.
func (c *PageCache) Invalidate(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pages[slug]
	if !ok {
		return false
	}
	p.generated = time.Time{}
	c.pages[slug] = p
	return true
}

// Restore loads the stored snapshot of each slug into the cache. Restored
// pages are regenerated on their first request once stale. It returns the
// number of pages restored.
func (c *PageCache) Restore(slugs []string) int {
	n := 0
	for _, slug := range slugs {
		if _, ok := c.loadSnapshot(slug); ok {
			n++
		}
	}
	return n
}

// Wait blocks until all background generation has finished.
func (c *PageCache) Wait() {
	c.wg.Wait()
}

func (c *PageCache) fill(ctx context.Context, slug string) func() (any, error) {
	return func() (any, error) {
		res, err := c.generate(ctx, slug)
		if err != nil {
			return DetailResult{}, err
		}
		// Redirects are only kept for slugs that once had a page, so
		// requests for arbitrary slugs do not grow the cache.
		if res.Recipe == nil && !c.cached(slug) {
			return res, nil
		}
		c.put(slug, res)
		return res, nil
	}
}

func (c *PageCache) cached(slug string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.pages[slug]
	return ok
}

func (c *PageCache) put(slug string, res DetailResult) {
	now := c.now()
	c.mu.Lock()
	c.pages[slug] = page{result: res, generated: now}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	var err error
	if res.Recipe != nil {
		err = c.store.SaveRecipe(*res.Recipe, now)
	} else {
		err = c.store.DeleteRecipe(slug)
	}
	if err != nil {
		c.logger.Warnf("snapshot %s: %v", slug, err)
	}
}

func (c *PageCache) stale(p page) bool {
	ttl := c.ttl
	if p.result.Revalidate > 0 {
		ttl = p.result.Revalidate
	}
	return ttl > 0 && c.now().Sub(p.generated) >= ttl
}

func (c *PageCache) revalidate(slug string) {
	c.mu.Lock()
	if c.inflight[slug] {
		c.mu.Unlock()
		return
	}
	c.inflight[slug] = true
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() {
			c.mu.Lock()
			delete(c.inflight, slug)
			c.mu.Unlock()
		}()
		ctx, cancel := context.WithTimeout(context.Background(), regenerateTimeout)
		defer cancel()
		if _, err := c.Generate(ctx, slug); err != nil {
			c.logger.Errorf("regenerate %s: %v", slug, err)
		}
	}()
}

func (c *PageCache) loadSnapshot(slug string) (page, bool) {
	if c.store == nil {
		return page{}, false
	}
	r, generated, err := c.store.GetRecipe(slug)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warnf("snapshot %s: %v", slug, err)
		}
		return page{}, false
	}
	p := page{result: DetailResult{Recipe: &r, Revalidate: c.ttl}, generated: generated}
	c.mu.Lock()
	if existing, ok := c.pages[slug]; ok {
		p = existing
	} else {
		c.pages[slug] = p
	}
	c.mu.Unlock()
	return p, true
}
