package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("Neo4j.URI = %q", cfg.Neo4j.URI)
	}
	if cfg.Cache.TTL != 168*time.Hour {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Analysis.Alpha != 0.85 || cfg.Analysis.Tol != 1e-6 {
		t.Errorf("Analysis = %+v", cfg.Analysis)
	}
}

func TestDefaultPathFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "gds"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gds", "config.yaml"), []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "gds.yml", `
neo4j:
  uri: neo4j://db:7687
  database: lifelike
cache:
  backend: redis
  ttl: 2h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Neo4j.URI != "neo4j://db:7687" || cfg.Neo4j.Database != "lifelike" {
		t.Errorf("Neo4j = %+v", cfg.Neo4j)
	}
	if cfg.Neo4j.Username != "neo4j" {
		t.Errorf("unset keys should keep defaults, got username %q", cfg.Neo4j.Username)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "gds.toml", `
[analysis]
weight = "hub"
max_paths = 5

[server]
addr = ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Analysis.Weight != "hub" || cfg.Analysis.MaxPaths != 5 || cfg.Server.Addr != ":9090" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GDS_NEO4J_PASSWORD", "secret")
	t.Setenv("GDS_CACHE_TTL", "30m")
	t.Setenv("GDS_REDIS_DB", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Neo4j.Password != "secret" || cfg.Cache.TTL != 30*time.Minute || cfg.Cache.Redis.DB != 3 {
		t.Errorf("cfg = %+v", cfg)
	}

	t.Setenv("GDS_REDIS_DB", "three")
	if _, err := Load(""); err == nil {
		t.Error("non-numeric GDS_REDIS_DB should fail")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown yaml key", "c.yaml", "nope: 1\n", "nope"},
		{"unknown toml key", "c.toml", "nope = 1\n", "unknown key"},
		{"bad backend", "c.yaml", "cache:\n  backend: memcached\n", "cache.backend"},
		{"bad alpha", "c.yaml", "analysis:\n  alpha: 2\n", "analysis.alpha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}

	if _, err := Load(writeFile(t, "c.json", "{}")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("json: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing explicit file: %v", err)
	}
}

func TestWriteYAMLMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Neo4j.Password = "hunter2"
	var buf bytes.Buffer
	if err := cfg.WriteYAML(&buf); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Error("password leaked")
	}
	if cfg.Neo4j.Password != "hunter2" {
		t.Error("WriteYAML modified the config")
	}
}
