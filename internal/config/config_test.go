package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rill-lang/rill/internal/vm"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Prompt != ">> " {
		t.Errorf("prompt: got %q", cfg.Prompt)
	}
	if !strings.HasSuffix(cfg.HistoryFile, ".rill_history") {
		t.Errorf("history file: got %q", cfg.HistoryFile)
	}
	if cfg.MaxCallDepth != vm.DefaultMaxDepth {
		t.Errorf("max call depth: got %d, want %d", cfg.MaxCallDepth, vm.DefaultMaxDepth)
	}
	if cfg.Color != "auto" {
		t.Errorf("color: got %q, want auto", cfg.Color)
	}
}

func TestLoadFromMissingFileFallsBack(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
prompt = "rill> "
max_call_depth = 64
color = "never"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Prompt != "rill> " {
		t.Errorf("prompt: got %q", cfg.Prompt)
	}
	if cfg.MaxCallDepth != 64 {
		t.Errorf("max call depth: got %d, want 64", cfg.MaxCallDepth)
	}
	if cfg.Color != "never" {
		t.Errorf("color: got %q, want never", cfg.Color)
	}
	// unset fields keep their defaults
	if cfg.HistoryFile != Default().HistoryFile {
		t.Errorf("history file: got %q, want default", cfg.HistoryFile)
	}
}

func TestLoadFromRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("prompt = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("malformed file accepted")
	}
}

func TestNonPositiveDepthFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("max_call_depth = 0"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxCallDepth != vm.DefaultMaxDepth {
		t.Errorf("got %d, want %d", cfg.MaxCallDepth, vm.DefaultMaxDepth)
	}
}
