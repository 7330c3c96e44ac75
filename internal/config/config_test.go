package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CatalogEndpoint != "https://emotional.byteroad.net" {
		t.Fatalf("CatalogEndpoint = %q", cfg.CatalogEndpoint)
	}
	if cfg.CatalogCollection != "ec_catalog" {
		t.Fatalf("CatalogCollection = %q", cfg.CatalogCollection)
	}
	if cfg.PageLimit != 12 {
		t.Fatalf("PageLimit = %d", cfg.PageLimit)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.HarvestInterval != time.Hour {
		t.Fatalf("HarvestInterval = %v", cfg.HarvestInterval)
	}
}

func TestLoadEnvOverridesAndTrimsEndpoint(t *testing.T) {
	t.Setenv("CATALOG_ENDPOINT", "http://localhost:5000/")
	t.Setenv("PAGE_LIMIT", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CatalogEndpoint != "http://localhost:5000" {
		t.Fatalf("CatalogEndpoint = %q", cfg.CatalogEndpoint)
	}
	if cfg.PageLimit != 30 {
		t.Fatalf("PageLimit = %d", cfg.PageLimit)
	}
}

func TestLoadRejectsRelativeEndpoint(t *testing.T) {
	t.Setenv("CATALOG_ENDPOINT", "/collections")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for relative endpoint")
	}
}

func TestLoadRejectsNonPositiveLimit(t *testing.T) {
	t.Setenv("PAGE_LIMIT", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero page_limit")
	}
}
