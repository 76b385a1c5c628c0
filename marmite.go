// Package marmite serves a recipe website whose content lives in Contentful.
// Pages are generated at build time, regenerated in the background once
// their revalidate interval has passed, and generated on demand for slugs
// that appear after the build.
//
// Users provide their own templ templates via the ViewFuncs struct,
// and marmite handles fetching, caching, routing and middleware.
package marmite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/marmite/contentful"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages. This is the inversion-of-control mechanism that
// lets users own and customize all templates.
type ViewFuncs struct {
	Home        func(recipes []Recipe) templ.Component
	Recipe      func(p RecipePage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central marmite application. It wires together the content
// source, caches, handlers, middleware, and user-provided templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Source  RecipeSource
	Store   *Store
	Listing *RecipeCache
	Pages   *PageCache
	Views   ViewFuncs

	previewSource RecipeSource
	secretLimiter *LoginLimiter
	paths         Paths
	customRoutes   []func(*App)
	staticDir      string
	prepared       bool
}

// New creates a new marmite App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.ApplyDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true
	if cfg.Debug {
		a.Echo.Logger.SetLevel(log.DEBUG)
	} else {
		a.Echo.Logger.SetLevel(log.INFO)
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// prepare opens the snapshot store and builds the content sources and caches.
func (a *App) prepare() error {
	if a.prepared {
		return nil
	}
	if a.Source == nil {
		client, err := contentful.NewClient(contentful.Config{
			SpaceID:     a.Config.Contentful.SpaceID,
			AccessToken: a.Config.Contentful.AccessToken,
			Environment: a.Config.Contentful.Environment,
		})
		if err != nil {
			return fmt.Errorf("marmite: %w", err)
		}
		a.Source = NewContentfulSource(client, a.Echo.Logger)
	}
	if a.Config.PreviewEnabled() {
		if a.Config.SessionSecret == "" {
			return errors.New("marmite: SessionSecret is required for preview mode")
		}
		if a.previewSource == nil {
			client, err := contentful.NewClient(contentful.Config{
				SpaceID:     a.Config.Contentful.SpaceID,
				AccessToken: a.Config.Contentful.PreviewToken,
				Environment: a.Config.Contentful.Environment,
				Host:        contentful.PreviewHost,
			})
			if err != nil {
				return fmt.Errorf("marmite: preview: %w", err)
			}
			a.previewSource = NewContentfulSource(client, a.Echo.Logger)
		}
	}
	if a.Config.PreviewEnabled() || a.Config.RevalidateSecret != "" {
		a.secretLimiter = NewLoginLimiter(5, time.Minute)
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("marmite: init store: %w", err)
	}
	a.Store = store

	a.Listing = NewRecipeCache(a.ListingProps, a.Config.ListRevalidate, a.Echo.Logger)
	a.Pages = NewPageCache(a.RecipeProps, a.Store, a.Config.Revalidate, a.Echo.Logger)
	a.prepared = true
	return nil
}

// Build fetches the listing, enumerates the recipe paths and pre-renders
// every detail page. If the backend fails and the snapshot store holds
// pages from an earlier run, those are served instead and refreshed once
// the backend recovers.
func (a *App) Build(ctx context.Context) error {
	if err := a.prepare(); err != nil {
		return err
	}
	if err := a.build(ctx); err != nil {
		return a.restoreSnapshots(err)
	}
	return nil
}

func (a *App) build(ctx context.Context) error {
	recipes, err := a.ListingProps(ctx)
	if err != nil {
		return err
	}
	a.Listing.Set(recipes)

	paths, err := a.StaticPaths(ctx)
	if err != nil {
		return err
	}
	a.paths = paths
	if err := a.Pages.Prerender(ctx, paths.Slugs); err != nil {
		return err
	}
	a.Echo.Logger.Infof("build: %d recipe pages generated (fallback=%t)", len(paths.Slugs), paths.Fallback)
	return nil
}

// restoreSnapshots seeds the listing and page cache from the snapshot
// store. It returns cause when there is nothing to restore.
func (a *App) restoreSnapshots(cause error) error {
	recipes, err := a.Store.ListRecipes()
	if err != nil {
		return fmt.Errorf("%w (snapshots: %v)", cause, err)
	}
	if len(recipes) == 0 {
		return cause
	}
	slugs, _ := distinctSlugs(recipes)
	a.Listing.SetStale(recipes)
	a.paths = Paths{Slugs: slugs, Fallback: !a.Config.DisableFallback}
	n := a.Pages.Restore(slugs)
	a.Echo.Logger.Errorf("build: %v; serving %d recipe pages from snapshots", cause, n)
	return nil
}

// Handler builds the site and returns the configured Echo instance without
// starting a listener.
func (a *App) Handler(ctx context.Context) (*echo.Echo, error) {
	if err := a.Build(ctx); err != nil {
		return nil, err
	}
	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return a.Echo, nil
}

// Start builds the site, sets up middleware and routes, and starts the server.
func (a *App) Start(ctx context.Context) error {
	if _, err := a.Handler(ctx); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Serve the embedded stylesheet; everything else under /public/ falls
	// through to the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/recipes/", handleRecipesRedirect)
	e.GET("/", a.handleHome)
	e.GET("/recipes/:slug/", a.handleRecipe)

	if a.Config.PreviewEnabled() {
		e.GET("/api/preview", a.handlePreview)
		e.POST("/api/exit-preview", handleExitPreview)
	}
	if a.Config.RevalidateSecret != "" {
		e.POST(revalidateRoute, a.handleRevalidate)
	}
}

// Close waits for background regeneration and closes the snapshot store.
func (a *App) Close() error {
	if a.Pages != nil {
		a.Pages.Wait()
	}
	if a.secretLimiter != nil {
		a.secretLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
