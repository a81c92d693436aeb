package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutSiteFiles(t *testing.T) {
	t.Setenv("SITES_DIR", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("TARGET_URL", "")
	t.Setenv("OUTPUT_PATH", "")
	t.Setenv("HEADLESS", "")
	t.Setenv("WAIT_UNITS", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Browser.Headless {
		t.Fatalf("expected headless by default")
	}
	if cfg.Waits.Listing != 10*time.Second || cfg.Browser.NavigationTimeout != 30*time.Second {
		t.Fatalf("unexpected default waits %+v / %s", cfg.Waits, cfg.Browser.NavigationTimeout)
	}
	if cfg.Waits.Units != 3*time.Second {
		t.Fatalf("expected WAIT_UNITS override, got %s", cfg.Waits.Units)
	}
	site, ok := cfg.Sites[defaultSiteID]
	if !ok || len(cfg.Sites) != 1 {
		t.Fatalf("expected only the default site, got %v", cfg.Sites)
	}
	if site.ListingURL != defaultListingURL || site.OutputPath != defaultOutputPath {
		t.Fatalf("unexpected default site %+v", site)
	}
}

func TestLoadSiteFiles(t *testing.T) {
	dir := t.TempDir()
	data := []byte("name: Guatemala\nlisting_url: https://example.com/gt/proyectos\n")
	if err := os.WriteFile(filepath.Join(dir, "gt.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITES_DIR", dir)
	t.Setenv("HEADLESS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Browser.Headless {
		t.Fatalf("expected HEADLESS=false to be honoured")
	}
	site, ok := cfg.Sites["gt"]
	if !ok || len(cfg.Sites) != 1 {
		t.Fatalf("expected site gt, got %v", cfg.Sites)
	}
	if site.ListingURL != "https://example.com/gt/proyectos" {
		t.Fatalf("unexpected listing url %s", site.ListingURL)
	}
	if site.OutputPath != filepath.Join("db", "gt") {
		t.Fatalf("unexpected output path %s", site.OutputPath)
	}
}

func TestLoadEnvOverridesDefaultSiteFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte("id: propi_en_planos\nname: Propi\nlisting_url: https://example.com/sv/proyectos\noutput_path: db/from_yaml\n")
	if err := os.WriteFile(filepath.Join(dir, "propi_en_planos.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}
	gt := []byte("listing_url: https://example.com/gt/proyectos\n")
	if err := os.WriteFile(filepath.Join(dir, "gt.yaml"), gt, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SITES_DIR", dir)
	t.Setenv("TARGET_URL", "https://example.com/sv/otros")
	t.Setenv("OUTPUT_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	site := cfg.Sites[defaultSiteID]
	if site == nil {
		t.Fatalf("expected default site, got %v", cfg.Sites)
	}
	if site.ListingURL != "https://example.com/sv/otros" {
		t.Fatalf("expected TARGET_URL to win, got %s", site.ListingURL)
	}
	if site.OutputPath != "db/from_yaml" {
		t.Fatalf("expected yaml output path without OUTPUT_PATH, got %s", site.OutputPath)
	}
	if cfg.Sites["gt"].ListingURL != "https://example.com/gt/proyectos" {
		t.Fatalf("TARGET_URL leaked into site gt: %s", cfg.Sites["gt"].ListingURL)
	}
}
