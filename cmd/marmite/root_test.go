package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadConfig(t *testing.T, file string) {
	t.Helper()
	cfgFile = file
	appConfig = config{}
	t.Cleanup(func() { cfgFile = "" })
	if err := initializeConfig(serveCmd); err != nil {
		t.Fatalf("initializeConfig failed: %v", err)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SITE_NAME", "Test Kitchen")
	t.Setenv("CONTENTFUL_SPACE_ID", "space")
	t.Setenv("CONTENTFUL_ACCESS_KEY", "token")
	t.Setenv("REVALIDATE", "5s")
	t.Setenv("DISABLE_FALLBACK", "true")
	t.Setenv("REVALIDATE_SECRET", "hook")
	loadConfig(t, "")

	cfg := appConfig.siteConfig()
	if cfg.Name != "Test Kitchen" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Contentful.SpaceID != "space" || cfg.Contentful.AccessToken != "token" {
		t.Errorf("Contentful = %+v", cfg.Contentful)
	}
	if cfg.Contentful.Environment != "master" {
		t.Errorf("Environment = %q, want master", cfg.Contentful.Environment)
	}
	if cfg.Revalidate != 5*time.Second {
		t.Errorf("Revalidate = %v, want 5s", cfg.Revalidate)
	}
	if !cfg.DisableFallback {
		t.Error("DisableFallback should be true")
	}
	if cfg.RevalidateSecret != "hook" {
		t.Errorf("RevalidateSecret = %q, want hook", cfg.RevalidateSecret)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q, want default :3000", cfg.Addr)
	}
	if appConfig.StaticDir != "public" {
		t.Errorf("StaticDir = %q, want public", appConfig.StaticDir)
	}
}

func TestConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marmite.yaml")
	data := "site_url: https://recipes.example\nfallback_wait: 500ms\nmissing_as_not_found: true\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITE_DESCRIPTION", "From env")
	loadConfig(t, path)

	cfg := appConfig.siteConfig()
	if cfg.URL != "https://recipes.example" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if cfg.FallbackWait != 500*time.Millisecond {
		t.Errorf("FallbackWait = %v", cfg.FallbackWait)
	}
	if !cfg.MissingAsNotFound {
		t.Error("MissingAsNotFound should be true")
	}
	if cfg.Description != "From env" {
		t.Errorf("Description = %q", cfg.Description)
	}
}

func TestConfigMissingFile(t *testing.T) {
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { cfgFile = "" })
	if err := initializeConfig(serveCmd); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
