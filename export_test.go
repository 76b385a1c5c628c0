package marmite

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestExportWritesSite(t *testing.T) {
	src := newFakeSource(recipe("beans", "Beans"), recipe("toast", "Toast"))
	a := New(testSiteConfig(t), stubViews(), WithSource(src))
	t.Cleanup(func() { a.Close() })
	dir := t.TempDir()

	if err := a.Export(context.Background(), dir); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	files := map[string]string{
		"index.html":               "home:2",
		"recipes/beans/index.html": "recipe:Beans preview=false",
		"recipes/toast/index.html": "recipe:Toast preview=false",
		"404.html":                 "notfound",
	}
	for name, want := range files {
		if got := readFile(t, filepath.Join(dir, name)); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if got := readFile(t, filepath.Join(dir, "sitemap.xml")); !strings.Contains(got, "/recipes/toast/</loc>") {
		t.Errorf("sitemap missing recipe: %s", got)
	}
	if got := readFile(t, filepath.Join(dir, "feed.xml")); !strings.Contains(got, "<title>Beans</title>") {
		t.Errorf("feed missing recipe: %s", got)
	}
	if got := readFile(t, filepath.Join(dir, "public", "site.css")); got == "" {
		t.Error("stylesheet should not be empty")
	}
}

func TestExportBuildError(t *testing.T) {
	src := newFakeSource()
	src.err = context.DeadlineExceeded
	a := New(testSiteConfig(t), stubViews(), WithSource(src))
	t.Cleanup(func() { a.Close() })

	if err := a.Export(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteRedirectStub(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRedirectStub(&buf, "/?a=1&b=2"); err != nil {
		t.Fatalf("writeRedirectStub failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `content="0;url=/?a=1&amp;b=2"`) {
		t.Errorf("unexpected stub: %s", out)
	}
}

func TestExportSkipsUnsafeSlugs(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "site", "out")
	src := newFakeSource(
		recipe("beans", "Beans"),
		recipe("../../escaped", "Escaped"),
		recipe("nested/slug", "Nested"),
		recipe("..", "Dots"),
	)
	a := New(testSiteConfig(t), stubViews(), WithSource(src))
	t.Cleanup(func() { a.Close() })

	if err := a.Export(context.Background(), dir); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "recipes", "beans", "index.html")); got != "recipe:Beans preview=false" {
		t.Errorf("beans page = %q", got)
	}
	for _, p := range []string{
		filepath.Join(root, "escaped"),
		filepath.Join(root, "site", "escaped"),
		filepath.Join(dir, "recipes", "nested"),
	} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should not exist (err=%v)", p, err)
		}
	}
}

func TestRecipePagePath(t *testing.T) {
	dir := "out"
	got, err := recipePagePath(dir, "beans")
	if err != nil {
		t.Fatalf("recipePagePath failed: %v", err)
	}
	if want := filepath.Join("out", "recipes", "beans", "index.html"); got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
	for _, slug := range []string{"", ".", "..", "../x", "a/b", `a\b`, "/abs"} {
		if _, err := recipePagePath(dir, slug); err == nil {
			t.Errorf("slug %q should be rejected", slug)
		}
	}
}

func TestExportFromSnapshotsWhenBackendDown(t *testing.T) {
	cfg := testSiteConfig(t)
	src := newFakeSource(recipe("beans", "Beans"))
	first := New(cfg, stubViews(), WithSource(src))
	if err := first.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	first.Close()

	down := newFakeSource()
	down.err = errors.New("backend down")
	a := New(cfg, stubViews(), WithSource(down))
	t.Cleanup(func() { a.Close() })
	dir := t.TempDir()

	if err := a.Export(context.Background(), dir); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if got := readFile(t, filepath.Join(dir, "recipes", "beans", "index.html")); got != "recipe:Beans preview=false" {
		t.Errorf("beans page = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "index.html")); got != "home:1" {
		t.Errorf("index = %q", got)
	}
}
