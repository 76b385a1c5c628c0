package marmite

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// fakeSource is an in-memory RecipeSource.
type fakeSource struct {
	mu        sync.Mutex
	recipes   []Recipe
	err       error
	block     chan struct{} // when set, RecipesBySlug waits for it to close
	listCalls int
	slugCalls int
}

func newFakeSource(recipes ...Recipe) *fakeSource {
	return &fakeSource{recipes: recipes}
}

func (f *fakeSource) Recipes(ctx context.Context) ([]Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]Recipe(nil), f.recipes...), nil
}

func (f *fakeSource) RecipesBySlug(ctx context.Context, slug string) ([]Recipe, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugCalls++
	if f.err != nil {
		return nil, f.err
	}
	var out []Recipe
	for _, r := range f.recipes {
		if r.Slug == slug {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) set(recipes ...Recipe) {
	f.mu.Lock()
	f.recipes = recipes
	f.mu.Unlock()
}

func (f *fakeSource) calls() (list, slug int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.slugCalls
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func textComponent(s string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func stubViews() ViewFuncs {
	return ViewFuncs{
		Home: func(recipes []Recipe) templ.Component {
			return textComponent(fmt.Sprintf("home:%d", len(recipes)))
		},
		Recipe: func(p RecipePage) templ.Component {
			if p.Recipe == nil {
				return textComponent("skeleton")
			}
			return textComponent(fmt.Sprintf("recipe:%s preview=%t", p.Recipe.Title, p.Preview))
		},
		NotFound: func() templ.Component {
			return textComponent("notfound")
		},
		ServerError: func() templ.Component {
			return textComponent("servererror")
		},
	}
}

func testSiteConfig(t *testing.T) SiteConfig {
	t.Helper()
	return SiteConfig{
		URL:          "https://marmite.example",
		DatabasePath: filepath.Join(t.TempDir(), "recipes.db"),
		Revalidate:   time.Hour,
	}
}

// newTestServer builds an App over src and returns its handler.
func newTestServer(t *testing.T, cfg SiteConfig, src RecipeSource, opts ...Option) (*App, *echo.Echo) {
	t.Helper()
	opts = append([]Option{WithSource(src)}, opts...)
	a := New(cfg, stubViews(), opts...)
	e, err := a.Handler(context.Background())
	if err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, e
}

func doRequest(e *echo.Echo, method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func recipe(slug, title string) Recipe {
	return Recipe{
		Slug:        slug,
		Title:       title,
		CookingTime: 20,
		Ingredients: []string{"salt", "pepper"},
	}
}
