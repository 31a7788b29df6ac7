package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Dimension != 768 {
		t.Errorf("expected Dimension=768, got %d", cfg.Store.Dimension)
	}
	if cfg.Store.Backend != BackendBolt {
		t.Errorf("expected Backend=bolt, got %s", cfg.Store.Backend)
	}
	if cfg.Startup.RebuildFromLog {
		t.Error("expected RebuildFromLog=false")
	}
	if cfg.Search.DefaultK != 10 {
		t.Errorf("expected DefaultK=10, got %d", cfg.Search.DefaultK)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "vecdb.yaml")

	content := `
store:
  backend: badger
  dimension: 4
startup:
  rebuild_from_log: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Store.Backend != BackendBadger {
		t.Errorf("expected Backend=badger, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Dimension != 4 {
		t.Errorf("expected Dimension=4, got %d", cfg.Store.Dimension)
	}
	if !cfg.Startup.RebuildFromLog {
		t.Error("expected RebuildFromLog=true")
	}
	if cfg.Search.DefaultK != 10 {
		t.Errorf("expected unset DefaultK to keep default 10, got %d", cfg.Search.DefaultK)
	}
}

func TestLoad_InvalidDimension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "vecdb.yaml")
	if err := os.WriteFile(configPath, []byte("store:\n  dimension: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".vecdb"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".vecdb", "config.yaml")

	content := `
search:
  default_k: 3
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Search.DefaultK != 3 {
		t.Errorf("expected DefaultK=3, got %d", cfg.Search.DefaultK)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VECDB_BACKEND", "memory")
	t.Setenv("VECDB_DIMENSION", "16")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("expected Backend=memory, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Dimension != 16 {
		t.Errorf("expected Dimension=16, got %d", cfg.Store.Dimension)
	}

	t.Setenv("VECDB_DIMENSION", "sixteen")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Error("expected error for non-numeric dimension")
	}
}

func TestDataPath(t *testing.T) {
	cfg := DefaultConfig()
	path := DataPath(cfg, "/home/user/project")
	expected := filepath.Join("/home/user/project", ".vecdb", "store.db")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Backend = BackendBadger
	expected = filepath.Join("/home/user/project", ".vecdb", "badger")
	if path := DataPath(cfg, "/home/user/project"); path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Store.Path = "/var/lib/vecdb"
	if path := DataPath(cfg, "/home/user/project"); path != "/var/lib/vecdb" {
		t.Errorf("expected absolute path to win, got %s", path)
	}
}
