package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Workers <= 0 {
		t.Errorf("default workers = %d", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("default log level = %q", cfg.LogLevel)
	}
	if cfg.HTTPTimeoutSecs <= 0 || cfg.ProcessTimeoutSecs <= 0 {
		t.Errorf("timeouts not set: http=%d process=%d", cfg.HTTPTimeoutSecs, cfg.ProcessTimeoutSecs)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("missing file changed defaults (-want +got):\n%s", diff)
	}
}

func TestLoadOverridesOnlyNamedKeys(t *testing.T) {
	dir := t.TempDir()
	toml := "workers = 3\nlog_level = \"debug\"\nhttp_timeout_secs = 5\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Default()
	want.Workers = 3
	want.LogLevel = "debug"
	want.HTTPTimeoutSecs = 5
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	toml := "workers = 3\nlog_level = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 3 {
		t.Errorf("workers = %d, want 3", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
}

func TestLoadRejectsNegativeWorkers(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("workers = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected an error for negative workers")
	}
}
