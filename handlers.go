package marmite

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	recipes, err := a.Listing.List(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(recipes))
}

func (a *App) handleRecipe(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	if a.previewSource != nil && IsPreview(c) {
		c.Response().Header().Set("Cache-Control", "no-store")
		res, err := recipeProps(ctx, a.previewSource, slug, 0)
		if err != nil {
			return err
		}
		return a.renderDetail(c, res, true)
	}

	res, ok := a.Pages.Get(slug)
	if !ok {
		if a.Config.DisableFallback {
			return echo.ErrNotFound
		}
		var err error
		res, err = a.Pages.Await(ctx, slug, a.Config.FallbackWait)
		if errors.Is(err, ErrPending) {
			c.Response().Header().Set("Cache-Control", "no-store")
			return Render(c, a.Views.Recipe(RecipePage{Refresh: 1}))
		}
		if err != nil {
			return err
		}
	}
	return a.renderDetail(c, res, false)
}

func (a *App) renderDetail(c echo.Context, res DetailResult, preview bool) error {
	if res.Recipe == nil {
		if a.Config.MissingAsNotFound {
			return echo.ErrNotFound
		}
		return c.Redirect(http.StatusTemporaryRedirect, res.Redirect)
	}
	return Render(c, a.Views.Recipe(RecipePage{
		Recipe:    res.Recipe,
		Preview:   preview,
		CSRFToken: CsrfToken(c),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	recipes, err := a.Listing.List(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeSitemap(c.Response(), recipes)
}

func (a *App) handleFeed(c echo.Context) error {
	recipes, err := a.Listing.List(c.Request().Context())
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.writeRSS(c.Response(), recipes)
}

func handleRecipesRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, homeRoute)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

// handleRobots generates robots.txt from the site URL.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", a.Config.URL)
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
