package marmite

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/eringen/marmite/richtext"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// Truncate shortens s to at most n runes, cutting at a word boundary and
// appending an ellipsis when anything was removed.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// FormatMinutes formats a cooking time without trailing zeros (15, 12.5).
func FormatMinutes(minutes float64) string {
	return strconv.FormatFloat(minutes, 'f', -1, 64)
}

// CookingTimeText is the sentence shown under a recipe title.
func CookingTimeText(minutes float64) string {
	return "Takes about " + FormatMinutes(minutes) + " mins to cook."
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     cfg.Name,
		"url":      BuildURL(cfg.URL),
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// RecipeJsonLD returns a JSON-LD string for a schema.org Recipe.
func RecipeJsonLD(r Recipe, cfg SiteConfig) string {
	recipeURL := BuildURL(cfg.URL, "recipes", r.Slug)
	data := map[string]interface{}{
		"@context":         "https://schema.org",
		"@type":            "Recipe",
		"name":             r.Title,
		"url":              recipeURL,
		"recipeIngredient": r.Ingredients,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   recipeURL,
		},
	}
	if r.CookingTime > 0 {
		data["cookTime"] = "PT" + FormatMinutes(r.CookingTime) + "M"
	}
	if src := r.FeaturedImage.Src(); src != "" {
		data["image"] = src
	}
	if method := richtext.PlainText(r.Method); method != "" {
		data["recipeInstructions"] = method
	}
	if !r.UpdatedAt.IsZero() {
		data["dateModified"] = r.UpdatedAt.Format("2006-01-02")
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
