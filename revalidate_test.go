package marmite

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

const publishPayload = `{
  "sys": {"id": "e1", "type": "Entry", "contentType": {"sys": {"id": "recipe"}}},
  "fields": {"slug": {"en-US": "beans"}, "title": {"en-US": "Beans v2"}}
}`

func newRevalidateServer(t *testing.T) (*App, *echo.Echo, *fakeSource) {
	t.Helper()
	cfg := testSiteConfig(t)
	cfg.RevalidateSecret = "hook-secret"
	src := newFakeSource(recipe("beans", "Beans"))
	a, e := newTestServer(t, cfg, src)
	return a, e, src
}

func postWebhook(e *echo.Echo, target, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if secret != "" {
		req.Header.Set(revalidateHeader, secret)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRevalidateRefreshesPageAndListing(t *testing.T) {
	a, e, src := newRevalidateServer(t)
	src.set(recipe("beans", "Beans v2"), recipe("toast", "Toast"))

	rec := postWebhook(e, revalidateRoute, "hook-secret", publishPayload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"slug":"beans"`) || !strings.Contains(rec.Body.String(), `"cached":true`) {
		t.Errorf("body = %s", rec.Body.String())
	}

	// The invalidated page is served once more while it regenerates.
	rec = doRequest(e, http.MethodGet, "/recipes/beans/")
	if !strings.Contains(rec.Body.String(), "recipe:Beans ") {
		t.Fatalf("body = %q, want stale page", rec.Body.String())
	}
	a.Pages.Wait()
	rec = doRequest(e, http.MethodGet, "/recipes/beans/")
	if !strings.Contains(rec.Body.String(), "recipe:Beans v2") {
		t.Errorf("body = %q, want regenerated page", rec.Body.String())
	}

	rec = doRequest(e, http.MethodGet, "/")
	if rec.Body.String() != "home:2" {
		t.Errorf("home body = %q, want reloaded listing", rec.Body.String())
	}
}

func TestRevalidateSlugFromQuery(t *testing.T) {
	_, e, _ := newRevalidateServer(t)

	rec := postWebhook(e, revalidateRoute+"?secret=hook-secret&slug=ghost", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"cached":false`) {
		t.Errorf("uncached slug should be reported, body = %s", rec.Body.String())
	}
}

func TestRevalidateRejectsBadSecret(t *testing.T) {
	_, e, src := newRevalidateServer(t)
	list, _ := src.calls()

	rec := postWebhook(e, revalidateRoute, "wrong", publishPayload)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	doRequest(e, http.MethodGet, "/")
	if n, _ := src.calls(); n != list {
		t.Errorf("listing reloaded after rejected webhook: %d calls, want %d", n, list)
	}
}

func TestRevalidateRateLimited(t *testing.T) {
	_, e, _ := newRevalidateServer(t)

	for i := 0; i < 5; i++ {
		postWebhook(e, revalidateRoute, "wrong", "")
	}
	rec := postWebhook(e, revalidateRoute, "hook-secret", publishPayload)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestRevalidateBadPayload(t *testing.T) {
	_, e, _ := newRevalidateServer(t)

	rec := postWebhook(e, revalidateRoute, "hook-secret", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRevalidateDisabledWithoutSecret(t *testing.T) {
	_, e := newTestServer(t, testSiteConfig(t), newFakeSource(recipe("beans", "Beans")))

	rec := postWebhook(e, revalidateRoute, "anything", publishPayload)
	if rec.Code == http.StatusOK {
		t.Error("webhook should not be routed without a secret")
	}
}

func TestWebhookSlug(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", ""},
		{"no fields", `{"sys":{"type":"DeletedEntry"}}`, ""},
		{"single locale", `{"fields":{"slug":{"en-US":"beans"}}}`, "beans"},
		{"first locale wins", `{"fields":{"slug":{"fr-FR":"haricots","de-DE":"bohnen"}}}`, "bohnen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := webhookSlug(strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("webhookSlug failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("webhookSlug = %q, want %q", got, tt.want)
			}
		})
	}
}
