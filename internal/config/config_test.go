package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanoquery/internal/logging"
)

// chdir moves into a fresh directory so no stray nanoquery.yaml is found
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)
	t.Setenv("NANOQUERY_CONFIG", "")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{Docs: "nanoquery.json", Format: "plaintext", LogLevel: "warn", LogFormat: "text"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := chdir(t)
	t.Setenv("NANOQUERY_CONFIG", "")
	content := "docs: rooms.yaml\nformat: markdown\nlog-level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "nanoquery.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NANOQUERY_FORMAT", "json")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Config{Docs: "rooms.yaml", Format: "json", LogLevel: "debug", LogFormat: "text"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if lc := cfg.LoggingConfig(); lc.Level != logging.DebugLevel || lc.Format != logging.TextFormat {
		t.Errorf("LoggingConfig() = %+v", lc)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("log-format: json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NANOQUERY_CONFIG", path)

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q", cfg.LogFormat)
	}

	t.Setenv("NANOQUERY_CONFIG", filepath.Join(dir, "absent.yaml"))
	if _, err := Load(New()); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Docs: "d.json", Format: "plaintext", LogLevel: "info", LogFormat: "text"}
	bad := []func(*Config){
		func(c *Config) { c.Docs = "" },
		func(c *Config) { c.Format = "xml" },
		func(c *Config) { c.LogLevel = "loud" },
		func(c *Config) { c.LogFormat = "html" },
	}
	for i, mutate := range bad {
		c := base
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("case %d: expected an error", i)
		}
	}
	if err := base.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}
