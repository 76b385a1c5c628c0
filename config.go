package marmite

import "time"

// SiteConfig holds all configuration for a marmite site.
type SiteConfig struct {
	Name        string // Site name (default "Just Add Marmite")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite snapshot path (default "data/recipes.db")
	Debug        bool

	Contentful ContentfulConfig

	// Detail pages older than Revalidate are regenerated in the background
	// (default 1s).
	Revalidate time.Duration
	// ListRevalidate re-fetches the listing after this TTL. Zero keeps the
	// build-time listing for the life of the process.
	ListRevalidate time.Duration
	// DisableFallback returns 404 for slugs not generated at build time
	// instead of generating them on demand.
	DisableFallback bool
	// FallbackWait bounds how long a request waits for on-demand generation
	// before the skeleton is served (default 2s).
	FallbackWait time.Duration
	// MissingAsNotFound renders the 404 page for slugs with no matching
	// entry instead of redirecting home.
	MissingAsNotFound bool
	// NotFoundRedirectDelay is the delay before the 404 page navigates home
	// (default 4s).
	NotFoundRedirectDelay time.Duration

	PreviewSecret string // Enables preview mode when set
	SessionSecret string // Required with PreviewSecret
	CookieSecure  bool   // Set true for HTTPS

	// RevalidateSecret enables POST /api/revalidate, the publish webhook
	// that marks the listing and a recipe page stale.
	RevalidateSecret string
}

// ContentfulConfig holds the content backend credentials.
type ContentfulConfig struct {
	SpaceID      string // Required
	AccessToken  string // Required: delivery API token
	PreviewToken string // Preview API token, required for preview mode
	Environment  string // default "master"
}

// ApplyDefaults fills unset fields with their defaults.
func (c *SiteConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "Just Add Marmite"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/recipes.db"
	}
	if c.Revalidate == 0 {
		c.Revalidate = time.Second
	}
	if c.FallbackWait == 0 {
		c.FallbackWait = 2 * time.Second
	}
	if c.NotFoundRedirectDelay == 0 {
		c.NotFoundRedirectDelay = 4 * time.Second
	}
}

// PreviewEnabled reports whether preview mode is configured.
func (c SiteConfig) PreviewEnabled() bool {
	return c.PreviewSecret != "" && c.Contentful.PreviewToken != ""
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithSource replaces the Contentful delivery source, mainly for tests.
func WithSource(src RecipeSource) Option {
	return func(a *App) {
		a.Source = src
	}
}

// WithPreviewSource replaces the Contentful preview source.
func WithPreviewSource(src RecipeSource) Option {
	return func(a *App) {
		a.previewSource = src
	}
}
