package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "DATA_DIR", "COMMUNES_SRC", "TABLE_SOURCE", "LOCATE_CACHE_TTL_S", "REDIS_HOST"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Addr != ":8080" || c.APIBase != "/api" {
		t.Errorf("addr/base = %q %q", c.Addr, c.APIBase)
	}
	if c.TableSource != TableSourceFile {
		t.Errorf("table source = %q", c.TableSource)
	}
	if c.LocateCacheTTL != time.Hour {
		t.Errorf("ttl = %v", c.LocateCacheTTL)
	}
	// 显式设为空串：功能关闭
	if c.CommunesEnabled() {
		t.Error("COMMUNES_SRC set to empty should disable communes")
	}
	if c.Redis.Addr() != "" {
		t.Errorf("redis addr = %q, want disabled", c.Redis.Addr())
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("API_BASE", "/carte/api/")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("TABLE_SOURCE", "Postgres")
	t.Setenv("LOCATE_CACHE_TTL_S", "not-a-number")
	t.Setenv("COMMUNES_SRC", "https://example.org/communes.geojson")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("DEPUTES_SRC", "")
	c := FromEnv()
	if c.APIBase != "/carte/api" {
		t.Errorf("api base = %q", c.APIBase)
	}
	if c.TableSource != TableSourcePostgres {
		t.Errorf("table source = %q", c.TableSource)
	}
	if c.LocateCacheTTL != time.Hour {
		t.Errorf("bad ttl should fall back, got %v", c.LocateCacheTTL)
	}
	if !c.CommunesEnabled() {
		t.Error("communes should be enabled")
	}
	if c.Sources.Deputes != "/srv/data/deputes.csv" {
		t.Errorf("deputes src = %q", c.Sources.Deputes)
	}
	if c.Redis.Addr() != "cache:6380" {
		t.Errorf("redis addr = %q", c.Redis.Addr())
	}
}
