package marmite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestRecipeCacheLoadsOnce(t *testing.T) {
	calls := 0
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		calls++
		return []Recipe{recipe("a", "A")}, nil
	}, 0, echo.New().Logger)

	for i := 0; i < 3; i++ {
		got, err := c.List(context.Background())
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("got %d recipes, want 1", len(got))
		}
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestRecipeCacheSetSkipsLoad(t *testing.T) {
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		t.Fatal("loader should not run after Set")
		return nil, nil
	}, 0, echo.New().Logger)
	c.Set(nil)

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d recipes, want empty listing", len(got))
	}
}

func TestRecipeCacheExpires(t *testing.T) {
	calls := 0
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		calls++
		return nil, nil
	}, 20*time.Millisecond, echo.New().Logger)

	c.List(context.Background())
	time.Sleep(40 * time.Millisecond)
	c.List(context.Background())
	if calls != 2 {
		t.Errorf("loader called %d times, want 2", calls)
	}
}

func TestRecipeCacheInvalidate(t *testing.T) {
	calls := 0
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		calls++
		return nil, nil
	}, 0, echo.New().Logger)

	c.List(context.Background())
	c.Invalidate()
	c.List(context.Background())
	if calls != 2 {
		t.Errorf("loader called %d times, want 2", calls)
	}
	c.List(context.Background())
	if calls != 2 {
		t.Errorf("loader called %d times after reload, want 2", calls)
	}
}

func TestRecipeCacheServesPreviousListingOnReloadError(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	down := false
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		calls++
		if down {
			return nil, errors.New("backend down")
		}
		return []Recipe{recipe("a", "A")}, nil
	}, time.Minute, echo.New().Logger)
	c.now = clock.Now

	if _, err := c.List(context.Background()); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	down = true
	clock.Advance(2 * time.Minute)

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List with backend down failed: %v", err)
	}
	if len(got) != 1 || got[0].Slug != "a" {
		t.Errorf("got %v, want previous listing", got)
	}
	if calls != 2 {
		t.Fatalf("loader called %d times, want 2", calls)
	}

	// Reloads are spaced out while the backend stays down.
	c.List(context.Background())
	if calls != 2 {
		t.Errorf("loader called %d times within retry interval, want 2", calls)
	}
	clock.Advance(listingRetryInterval)
	down = false
	c.List(context.Background())
	if calls != 3 {
		t.Errorf("loader called %d times after retry interval, want 3", calls)
	}
}

func TestRecipeCacheSetStaleReloadsFirst(t *testing.T) {
	calls := 0
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		calls++
		return nil, errors.New("backend down")
	}, 0, echo.New().Logger)
	c.SetStale([]Recipe{recipe("snap", "Snapshot")})

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
	if len(got) != 1 || got[0].Slug != "snap" {
		t.Errorf("got %v, want stale listing", got)
	}
}

func TestRecipeCacheLoadError(t *testing.T) {
	fail := true
	c := NewRecipeCache(func(ctx context.Context) ([]Recipe, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []Recipe{recipe("a", "A")}, nil
	}, 0, echo.New().Logger)

	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	got, err := c.List(context.Background())
	if err != nil || len(got) != 1 {
		t.Errorf("List after recovery = %v, %v", got, err)
	}
}
