package marmite

import (
	"crypto/subtle"
	"io"
	"net/http"
	"sort"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

const (
	revalidateRoute  = "/api/revalidate"
	revalidateHeader = "X-Revalidate-Secret"
	maxWebhookBody   = 1 << 20
)

// webhookPayload is the part of a Contentful entry webhook body that names
// the entry. Field values are keyed by locale.
type webhookPayload struct {
	Fields struct {
		Slug map[string]string `json:"slug"`
	} `json:"fields"`
}

// handleRevalidate is the publish webhook. It marks the listing stale and,
// when the payload names a slug, that recipe's page. Both keep being served
// until their regeneration succeeds.
func (a *App) handleRevalidate(c echo.Context) error {
	ip := c.RealIP()
	if !a.secretLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many attempts. Try again later.")
	}
	secret := c.Request().Header.Get(revalidateHeader)
	if secret == "" {
		secret = c.QueryParam("secret")
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(a.Config.RevalidateSecret)) != 1 {
		a.secretLimiter.Record(ip)
		return c.String(http.StatusUnauthorized, "Invalid token")
	}

	slug := c.QueryParam("slug")
	if slug == "" {
		var err error
		if slug, err = webhookSlug(c.Request().Body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
		}
	}

	a.Listing.Invalidate()
	cached := false
	if slug != "" {
		cached = a.Pages.Invalidate(slug)
	}
	a.Echo.Logger.Infof("revalidate: listing, slug=%q cached=%t", slug, cached)
	return c.JSON(http.StatusOK, map[string]any{
		"revalidated": true,
		"slug":        slug,
		"cached":      cached,
	})
}

// webhookSlug reads the slug from a webhook body. An empty body or one
// without a slug field yields "". With several locales the first locale in
// sorted order wins.
func webhookSlug(body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxWebhookBody))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	var p webhookPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", err
	}
	locales := make([]string, 0, len(p.Fields.Slug))
	for locale := range p.Fields.Slug {
		locales = append(locales, locale)
	}
	if len(locales) == 0 {
		return "", nil
	}
	sort.Strings(locales)
	return p.Fields.Slug[locales[0]], nil
}
