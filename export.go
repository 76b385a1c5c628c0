package marmite

import (
	"context"
	"fmt"
	"html"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/a-h/templ"
)

// Export builds the site and writes it to dir as static files: the listing,
// one page per recipe path, the 404 page, sitemap, feed and stylesheet.
func (a *App) Export(ctx context.Context, dir string) error {
	if err := a.Build(ctx); err != nil {
		return err
	}
	recipes, err := a.Listing.List(ctx)
	if err != nil {
		return err
	}

	if err := writeComponent(ctx, filepath.Join(dir, "index.html"), a.Views.Home(recipes)); err != nil {
		return err
	}
	for _, slug := range a.paths.Slugs {
		res, ok := a.Pages.Peek(slug)
		if !ok {
			return fmt.Errorf("export: %s was not generated", slug)
		}
		out, err := recipePagePath(dir, slug)
		if err != nil {
			return err
		}
		if res.Recipe == nil {
			if err := writeFile(out, func(w io.Writer) error { return writeRedirectStub(w, res.Redirect) }); err != nil {
				return err
			}
			continue
		}
		if err := writeComponent(ctx, out, a.Views.Recipe(RecipePage{Recipe: res.Recipe})); err != nil {
			return err
		}
	}
	if err := writeComponent(ctx, filepath.Join(dir, "404.html"), a.Views.NotFound()); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "sitemap.xml"), func(w io.Writer) error { return a.writeSitemap(w, recipes) }); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "feed.xml"), func(w io.Writer) error { return a.writeRSS(w, recipes) }); err != nil {
		return err
	}
	css, err := fs.ReadFile(EmbeddedAssets, "embedded/site.css")
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, "public", "site.css"), func(w io.Writer) error {
		_, err := w.Write(css)
		return err
	}); err != nil {
		return err
	}
	a.Echo.Logger.Infof("export: wrote %d recipe pages to %s", len(a.paths.Slugs), dir)
	return nil
}

// recipePagePath returns the file for slug's page under dir. It fails for
// slugs that would resolve outside dir/recipes.
func recipePagePath(dir, slug string) (string, error) {
	root := filepath.Join(dir, "recipes")
	out := filepath.Join(root, slug, "index.html")
	rel, err := filepath.Rel(root, out)
	if err != nil || !validSlug(slug) || rel != filepath.Join(slug, "index.html") {
		return "", fmt.Errorf("export: unsafe slug %q", slug)
	}
	return out, nil
}

func writeComponent(ctx context.Context, path string, cmp templ.Component) error {
	return writeFile(path, func(w io.Writer) error { return cmp.Render(ctx, w) })
}

func writeFile(path string, fn func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// writeRedirectStub writes a page that sends static hosts' visitors to target.
func writeRedirectStub(w io.Writer, target string) error {
	t := html.EscapeString(target)
	_, err := fmt.Fprintf(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><meta http-equiv="refresh" content="0;url=%s"><link rel="canonical" href="%s"></head><body><a href="%s">Redirecting</a></body></html>`, t, t, t)
	return err
}
