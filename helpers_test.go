package marmite

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/eringen/marmite/richtext"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://marmite.example", nil, "https://marmite.example"},
		{"https://marmite.example", []string{"recipes", "beans"}, "https://marmite.example/recipes/beans/"},
		{"https://marmite.example/sub/", []string{"recipes", "beans"}, "https://marmite.example/sub/recipes/beans/"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("spread the marmite thinly", 12); got != "spread the…" {
		t.Errorf("Truncate = %q, want %q", got, "spread the…")
	}
	if got := Truncate("crème brûlée au marmite", 11); got != "crème…" {
		t.Errorf("Truncate multibyte = %q", got)
	}
}

func TestCookingTimeText(t *testing.T) {
	if got := CookingTimeText(25); got != "Takes about 25 mins to cook." {
		t.Errorf("CookingTimeText = %q", got)
	}
	if got := CookingTimeText(12.5); got != "Takes about 12.5 mins to cook." {
		t.Errorf("CookingTimeText = %q", got)
	}
}

func TestRecipeJsonLD(t *testing.T) {
	r := Recipe{
		Slug:          "beans",
		Title:         "Beans",
		CookingTime:   10,
		FeaturedImage: Image{URL: "//images.example/beans.jpg"},
		Ingredients:   []string{"beans", "toast"},
		Method: richtext.Node{NodeType: richtext.Document, Content: []richtext.Node{
			{NodeType: richtext.Paragraph, Content: []richtext.Node{{NodeType: richtext.Text, Value: "Heat."}}},
		}},
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	cfg := SiteConfig{URL: "https://marmite.example", Author: "Chef"}

	var got map[string]any
	if err := json.Unmarshal([]byte(RecipeJsonLD(r, cfg)), &got); err != nil {
		t.Fatalf("invalid JSON-LD: %v", err)
	}
	checks := map[string]string{
		"@type":              "Recipe",
		"name":               "Beans",
		"url":                "https://marmite.example/recipes/beans/",
		"cookTime":           "PT10M",
		"image":              "https://images.example/beans.jpg",
		"recipeInstructions": "Heat.",
		"dateModified":       "2024-01-02",
	}
	for key, want := range checks {
		if got[key] != want {
			t.Errorf("%s = %v, want %q", key, got[key], want)
		}
	}
	if ings, ok := got["recipeIngredient"].([]any); !ok || len(ings) != 2 {
		t.Errorf("recipeIngredient = %v", got["recipeIngredient"])
	}
}

func TestWebsiteJsonLD(t *testing.T) {
	out := WebsiteJsonLD(SiteConfig{Name: "Just Add Marmite", URL: "https://marmite.example", Description: "Spread The Joy"})
	for _, want := range []string{`"@type":"WebSite"`, `"name":"Just Add Marmite"`, `"description":"Spread The Joy"`} {
		if !strings.Contains(out, want) {
			t.Errorf("WebsiteJsonLD missing %s: %s", want, out)
		}
	}
}
