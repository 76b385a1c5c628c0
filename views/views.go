// Package views holds the default templ components of a marmite site.
package views

//go:generate templ generate

import (
	"math"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/marmite"
)

const homeURL = "/"

// New returns the default view set for cfg.
func New(cfg marmite.SiteConfig) marmite.ViewFuncs {
	return marmite.ViewFuncs{
		Home: func(recipes []marmite.Recipe) templ.Component {
			return Home(cfg, recipes)
		},
		Recipe: func(p marmite.RecipePage) templ.Component {
			return RecipeDetails(cfg, p)
		},
		NotFound: func() templ.Component {
			return NotFound(cfg)
		},
		ServerError: func() templ.Component {
			return ServerError(cfg)
		},
	}
}

func pageTitle(cfg marmite.SiteConfig, meta marmite.PageMeta) string {
	if meta.Title != "" {
		return meta.Title + " | " + cfg.Name
	}
	return cfg.Name
}

func pageDescription(cfg marmite.SiteConfig, meta marmite.PageMeta) string {
	if meta.Description != "" {
		return meta.Description
	}
	return cfg.Description
}

func ogType(meta marmite.PageMeta) string {
	if meta.OGType == "" {
		return "website"
	}
	return meta.OGType
}

// refreshContent is the no-script fallback of a delayed redirect.
func refreshContent(meta marmite.PageMeta) string {
	return strconv.Itoa(meta.RedirectAfter) + ";url=" + meta.RedirectURL
}

// jsonLDScript wraps structured data, already JSON-encoded with HTML
// characters escaped, in its script element.
func jsonLDScript(data string) string {
	return `<script type="application/ld+json">` + data + `</script>`
}

func homeMeta(cfg marmite.SiteConfig) marmite.PageMeta {
	return marmite.PageMeta{
		URL:    marmite.BuildURL(cfg.URL),
		JSONLD: marmite.WebsiteJsonLD(cfg),
	}
}

func recipeMeta(cfg marmite.SiteConfig, r marmite.Recipe, preview bool) marmite.PageMeta {
	return marmite.PageMeta{
		Title:       r.Title,
		Description: marmite.CookingTimeText(r.CookingTime),
		URL:         marmite.BuildURL(cfg.URL, "recipes", r.Slug),
		OGType:      "article",
		Image:       r.FeaturedImage.Src(),
		JSONLD:      marmite.RecipeJsonLD(r, cfg),
		NoIndex:     preview,
	}
}

// notFoundMeta rounds the no-script refresh up to whole seconds so it never
// fires before the scripted redirect.
func notFoundMeta(cfg marmite.SiteConfig) marmite.PageMeta {
	return marmite.PageMeta{
		Title:         "Not Found",
		NoIndex:       true,
		RedirectURL:   homeURL,
		RedirectAfter: int(math.Ceil(cfg.NotFoundRedirectDelay.Seconds())),
	}
}

// redirectScript navigates to target after delayMs. The timer is cleared
// when the page is hidden and scheduled again if the page is restored from
// the back-forward cache.
func redirectScript(target string, delayMs int64) string {
	return `<script>(function () {
  var timer = null;
  function schedule() {
    if (timer !== null) return;
    timer = setTimeout(function () { timer = null; window.location.assign(` + strconv.Quote(target) + `); }, ` + strconv.FormatInt(delayMs, 10) + `);
  }
  function cancel() {
    if (timer !== null) { clearTimeout(timer); timer = null; }
  }
  window.addEventListener("pagehide", cancel);
  window.addEventListener("pageshow", function (e) { if (e.persisted) schedule(); });
  schedule();
})();</script>`
}
