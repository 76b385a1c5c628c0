package marmite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/marmite/contentful"
	"github.com/eringen/marmite/richtext"
)

const (
	recipeContentType = "recipe"
	homeRoute         = "/"
	entriesPageSize   = 100
)

// RecipeSource fetches recipe snapshots from the content backend.
type RecipeSource interface {
	// Recipes returns every recipe entry.
	Recipes(ctx context.Context) ([]Recipe, error)
	// RecipesBySlug returns the entries whose slug field equals slug.
	RecipesBySlug(ctx context.Context, slug string) ([]Recipe, error)
}

// ContentfulSource reads recipes from a Contentful space. Entries that do
// not decode are logged and skipped.
type ContentfulSource struct {
	client *contentful.Client
	logger echo.Logger
}

// NewContentfulSource returns a RecipeSource backed by client.
func NewContentfulSource(client *contentful.Client, logger echo.Logger) *ContentfulSource {
	return &ContentfulSource{client: client, logger: logger}
}

// Recipes implements RecipeSource.
func (s *ContentfulSource) Recipes(ctx context.Context) ([]Recipe, error) {
	return s.query(ctx, contentful.Query{ContentType: recipeContentType})
}

// RecipesBySlug implements RecipeSource.
func (s *ContentfulSource) RecipesBySlug(ctx context.Context, slug string) ([]Recipe, error) {
	return s.query(ctx, contentful.Query{
		ContentType: recipeContentType,
		Fields:      map[string]string{"slug": slug},
	})
}

// query pages through every entry matching q.
func (s *ContentfulSource) query(ctx context.Context, q contentful.Query) ([]Recipe, error) {
	q.Limit = entriesPageSize
	var recipes []Recipe
	for {
		col, err := s.client.GetEntries(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, entry := range col.Items {
			r, err := decodeRecipe(entry, col)
			if err != nil {
				s.logger.Warnf("skipping entry: %v", err)
				continue
			}
			recipes = append(recipes, r)
		}
		q.Skip += len(col.Items)
		if len(col.Items) == 0 || q.Skip >= col.Total {
			return recipes, nil
		}
	}
}

type recipeFields struct {
	Slug          string           `json:"slug"`
	Title         string           `json:"title"`
	CookingTime   float64          `json:"cookingTime"`
	FeaturedImage *contentful.Link `json:"featuredImage"`
	Ingredients   []string         `json:"ingredients"`
	Method        richtext.Node    `json:"method"`
}

// decodeRecipe maps an entry onto Recipe, resolving the featured image and
// embedded method assets against the collection includes.
func decodeRecipe(entry contentful.Entry, col *contentful.EntryCollection) (Recipe, error) {
	var f recipeFields
	if err := entry.DecodeFields(&f); err != nil {
		return Recipe{}, fmt.Errorf("decode recipe %s: %w", entry.Sys.ID, err)
	}
	r := Recipe{
		Slug:        f.Slug,
		Title:       f.Title,
		CookingTime: f.CookingTime,
		Ingredients: f.Ingredients,
		Method:      f.Method,
		UpdatedAt:   entry.Sys.UpdatedAt,
	}
	if f.FeaturedImage != nil {
		if asset, ok := col.Asset(f.FeaturedImage.Sys.ID); ok {
			r.FeaturedImage = imageFromAsset(asset)
		}
	}
	r.Method.Walk(func(n *richtext.Node) {
		if n.NodeType != richtext.EmbeddedAssetBlock || n.Data.Target == nil {
			return
		}
		asset, ok := col.Asset(n.Data.Target.Sys.ID)
		if !ok {
			return
		}
		img := imageFromAsset(asset)
		n.Data.Target.Fields = &richtext.TargetFields{
			Title:  img.Title,
			URL:    img.URL,
			Width:  img.Width,
			Height: img.Height,
		}
	})
	return r, nil
}

func imageFromAsset(a contentful.Asset) Image {
	return Image{
		Title:  a.Fields.Title,
		URL:    a.Fields.File.URL,
		Width:  a.Fields.File.Details.Image.Width,
		Height: a.Fields.File.Details.Image.Height,
	}
}

// Paths is the set of detail pages to generate at build time.
type Paths struct {
	Slugs    []string
	Fallback bool // unknown slugs are generated on demand
}

// DetailResult is the outcome of generating a detail page: either a recipe
// to render or a redirect target.
type DetailResult struct {
	Recipe     *Recipe
	Redirect   string
	Revalidate time.Duration
}

// ListingProps fetches the recipes shown on the listing page.
func (a *App) ListingProps(ctx context.Context) ([]Recipe, error) {
	recipes, err := a.Source.Recipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}
	slugs := make([]string, len(recipes))
	for i, r := range recipes {
		slugs[i] = r.Slug
	}
	a.Echo.Logger.Infof("listing: fetched %d recipes", len(recipes))
	a.Echo.Logger.Debugf("listing: slugs %v", slugs)
	return recipes, nil
}

// StaticPaths enumerates one path per distinct recipe slug.
func (a *App) StaticPaths(ctx context.Context) (Paths, error) {
	recipes, err := a.Source.Recipes(ctx)
	if err != nil {
		return Paths{}, fmt.Errorf("static paths: %w", err)
	}
	slugs, rejected := distinctSlugs(recipes)
	for _, slug := range rejected {
		a.Echo.Logger.Warnf("static paths: skipping unsafe slug %q", slug)
	}
	return Paths{
		Slugs:    slugs,
		Fallback: !a.Config.DisableFallback,
	}, nil
}

// distinctSlugs returns each usable slug once, in first-seen order, and the
// slugs rejected by validSlug.
func distinctSlugs(recipes []Recipe) (slugs, rejected []string) {
	seen := make(map[string]struct{}, len(recipes))
	for _, r := range recipes {
		if r.Slug == "" {
			continue
		}
		if _, ok := seen[r.Slug]; ok {
			continue
		}
		seen[r.Slug] = struct{}{}
		if !validSlug(r.Slug) {
			rejected = append(rejected, r.Slug)
			continue
		}
		slugs = append(slugs, r.Slug)
	}
	return slugs, rejected
}

// validSlug reports whether slug is a single path segment that can name a
// page directory.
func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	if strings.ContainsAny(slug, "/\\\x00") {
		return false
	}
	return filepath.Clean(slug) == slug
}

// RecipeProps generates the detail page data for slug.
func (a *App) RecipeProps(ctx context.Context, slug string) (DetailResult, error) {
	return recipeProps(ctx, a.Source, slug, a.Config.Revalidate)
}

func recipeProps(ctx context.Context, src RecipeSource, slug string, revalidate time.Duration) (DetailResult, error) {
	items, err := src.RecipesBySlug(ctx, slug)
	if err != nil {
		return DetailResult{}, fmt.Errorf("recipe %q: %w", slug, err)
	}
	if len(items) == 0 {
		return DetailResult{Redirect: homeRoute}, nil
	}
	r := items[0]
	return DetailResult{Recipe: &r, Revalidate: revalidate}, nil
}
