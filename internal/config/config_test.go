package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/shardy/internal/assembler"
	"github.com/HendryAvila/shardy/internal/confidence"
	"github.com/HendryAvila/shardy/internal/sharder"
)

// --- NewProjectConfig ---

func TestNewProjectConfig_SetsDefaults(t *testing.T) {
	cfg := NewProjectConfig("my-app", "A cool app")

	if cfg.Name != "my-app" {
		t.Errorf("Name = %s, want my-app", cfg.Name)
	}
	if cfg.Description != "A cool app" {
		t.Errorf("Description = %s, want 'A cool app'", cfg.Description)
	}
	if cfg.Version != "0.1.0" {
		t.Errorf("Version = %s, want 0.1.0", cfg.Version)
	}
	if cfg.CreatedAt == "" || cfg.UpdatedAt == "" {
		t.Error("timestamps not set")
	}
}

func TestNewProjectConfig_MirrorsCoreDefaults(t *testing.T) {
	cfg := NewProjectConfig("x", "y")

	if got, want := cfg.ShardingConfig(), sharder.DefaultConfig(); got != want {
		t.Errorf("sharding config = %+v, want %+v", got, want)
	}
	if got, want := cfg.AssemblyConfig(), assembler.DefaultConfig(); got != want {
		t.Errorf("assembly config = %+v, want %+v", got, want)
	}
	if got := cfg.ScoringConfig(); got.AmbiguityScale != confidence.DefaultConfig().AmbiguityScale {
		t.Errorf("ambiguity scale = %v, want default", got.AmbiguityScale)
	}
}

func TestNewProjectConfig_ConvertersProduceValidConfigs(t *testing.T) {
	cfg := NewProjectConfig("x", "y")

	if _, err := sharder.New(cfg.ShardingConfig()); err != nil {
		t.Errorf("sharding config invalid: %v", err)
	}
	if _, err := confidence.New(cfg.ScoringConfig(), nil); err != nil {
		t.Errorf("scoring config invalid: %v", err)
	}
	if _, err := assembler.New(cfg.AssemblyConfig()); err != nil {
		t.Errorf("assembly config invalid: %v", err)
	}
}

// --- Paths ---

func TestPaths(t *testing.T) {
	root := "/tmp/proj"
	if got := ProjectDir(root); got != filepath.Join(root, ".shardy") {
		t.Errorf("ProjectDir = %s", got)
	}
	if got := ConfigPath(root); got != filepath.Join(root, ".shardy", "shardy.json") {
		t.Errorf("ConfigPath = %s", got)
	}
	if got := ShardsDir(root); got != filepath.Join(root, ".shardy", "shards") {
		t.Errorf("ShardsDir = %s", got)
	}
}

func TestExists(t *testing.T) {
	root := t.TempDir()
	if Exists(root) {
		t.Error("Exists = true for empty dir")
	}

	store := NewFileStore()
	if err := store.Save(root, NewProjectConfig("x", "y")); err != nil {
		t.Fatal(err)
	}
	if !Exists(root) {
		t.Error("Exists = false after save")
	}
}

// --- FileStore ---

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()

	saved := NewProjectConfig("proj", "desc")
	saved.Sharding.MaxShardSize = 777
	saved.Assembly.StrictShardMatch = true
	if err := store.Save(root, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "proj" || loaded.Description != "desc" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Sharding.MaxShardSize != 777 {
		t.Errorf("max shard size = %d, want 777", loaded.Sharding.MaxShardSize)
	}
	if !loaded.Assembly.StrictShardMatch {
		t.Error("strict shard match not persisted")
	}
}

func TestFileStore_SaveRefreshesUpdatedAt(t *testing.T) {
	root := t.TempDir()
	store := NewFileStore()

	cfg := NewProjectConfig("x", "y")
	cfg.UpdatedAt = "2000-01-01T00:00:00Z"
	if err := store.Save(root, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.UpdatedAt == "2000-01-01T00:00:00Z" {
		t.Error("Save did not refresh UpdatedAt")
	}
}

func TestFileStore_LoadNotInitialized(t *testing.T) {
	_, err := NewFileStore().Load(t.TempDir())
	if err == nil {
		t.Fatal("loading an uninitialized project should fail")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("error = %v, want a not-initialized message", err)
	}
}

func TestFileStore_LoadCorruptJSON(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(ProjectDir(root), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(root), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore().Load(root)
	if err == nil {
		t.Fatal("loading corrupt JSON should fail")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("error = %v, want a parsing message", err)
	}
}
