package host_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sass-contrib/embedded-host-go/host"
)

func TestLoadConfigFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"exec_path":"/usr/bin/sass_embedded"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := host.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ExecPath != "/usr/bin/sass_embedded" {
		t.Fatalf("got %q", cfg.ExecPath)
	}
	if cfg.MaxConcurrentCallbacks != 16 {
		t.Fatalf("expected default MaxConcurrentCallbacks=16, got %d", cfg.MaxConcurrentCallbacks)
	}
}

func TestLoadConfigMissingExecPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := host.LoadConfig(path); err == nil {
		t.Fatal("expected error for missing exec_path")
	}
}
