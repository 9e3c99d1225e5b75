package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rill.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Prompt != ">> " {
		t.Errorf("wrong default prompt: %q", cfg.Prompt)
	}
	if cfg.HistorySize != 1000 {
		t.Errorf("wrong default history size: %d", cfg.HistorySize)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, "prompt: \"rill> \"\nhistory_size: 50\nverbose: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != "rill> " {
		t.Errorf("wrong prompt: %q", cfg.Prompt)
	}
	if cfg.HistorySize != 50 {
		t.Errorf("wrong history size: %d", cfg.HistorySize)
	}
	if !cfg.Verbose {
		t.Error("verbose should be set")
	}
}

func TestLoadInterpolatesEnv(t *testing.T) {
	t.Setenv("RILL_TEST_HISTORY", "/tmp/custom_history")
	path := writeConfig(t, "history_file: ${RILL_TEST_HISTORY}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HistoryFile != "/tmp/custom_history" {
		t.Errorf("wrong history file: %q", cfg.HistoryFile)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "prompt: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEmptyValuesFallBack(t *testing.T) {
	path := writeConfig(t, "prompt: \"\"\nhistory_size: 0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Prompt != ">> " {
		t.Errorf("empty prompt should fall back: %q", cfg.Prompt)
	}
	if cfg.HistorySize != 1000 {
		t.Errorf("zero history size should fall back: %d", cfg.HistorySize)
	}
}
