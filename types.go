package marmite

import (
	"net/url"
	"time"

	"github.com/eringen/marmite/richtext"
)

// Recipe is a read-only snapshot of a recipe entry from the content backend.
type Recipe struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	CookingTime   float64       `json:"cookingTime"` // minutes, may be fractional
	FeaturedImage Image         `json:"featuredImage"`
	Ingredients   []string      `json:"ingredients"`
	Method        richtext.Node `json:"method"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Link returns the site path of the recipe's detail page.
func (r Recipe) Link() string {
	return "/recipes/" + url.PathEscape(r.Slug) + "/"
}

// Image is a resolved image asset.
type Image struct {
	Title  string `json:"title"`
	URL    string `json:"url"` // protocol-relative as delivered by the backend
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Src returns the absolute https URL of the image.
func (i Image) Src() string {
	return richtext.AbsoluteURL(i.URL)
}

// RecipePage is the input of the detail view. A nil Recipe renders the
// loading skeleton.
type RecipePage struct {
	Recipe    *Recipe
	Preview   bool
	CSRFToken string
	Refresh   int // seconds before the skeleton reloads, 0 disables
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
	NoIndex     bool
	Refresh     int    // reload the page after this many seconds, 0 disables
	RedirectURL string // no-script redirect target, used with RedirectAfter
	// RedirectAfter is the no-script redirect delay in seconds.
	RedirectAfter int
}
