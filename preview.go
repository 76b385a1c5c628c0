package marmite

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handlePreview turns on preview mode when the shared secret matches and
// redirects to the requested recipe, fetched from the preview API so that
// drafts resolve.
func (a *App) handlePreview(c echo.Context) error {
	ip := c.RealIP()
	if !a.secretLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many preview attempts. Try again later.")
	}
	secret := c.QueryParam("secret")
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.Config.PreviewSecret)) != 1 {
		a.secretLimiter.Record(ip)
		return c.String(http.StatusUnauthorized, "Invalid token")
	}

	target := homeRoute
	if slug := c.QueryParam("slug"); slug != "" {
		recipes, err := a.previewSource.RecipesBySlug(c.Request().Context(), slug)
		if err != nil {
			return err
		}
		if len(recipes) == 0 {
			return c.String(http.StatusUnauthorized, "Invalid slug")
		}
		target = recipes[0].Link()
	}

	if err := setPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, target)
}

func handleExitPreview(c echo.Context) error {
	if err := clearPreviewSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, homeRoute)
}
