package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigPopulatesDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.ChunkSize != 4*1024*1024 {
		t.Errorf("Engine.ChunkSize = %d, want %d", cfg.Engine.ChunkSize, 4*1024*1024)
	}
	if cfg.Engine.MerkleSplitThreshold != 1024 {
		t.Errorf("Engine.MerkleSplitThreshold = %d, want 1024", cfg.Engine.MerkleSplitThreshold)
	}
	if !cfg.Hardware.EnableAESNI || !cfg.Hardware.EnableARMv8AES {
		t.Errorf("expected both hardware toggles on by default: %+v", cfg.Hardware)
	}
	if !cfg.Audit.Enabled || cfg.Audit.MaxEvents != 10000 {
		t.Errorf("unexpected audit defaults: %+v", cfg.Audit)
	}
	if cfg.Audit.Sink.Type != "stdout" {
		t.Errorf("Audit.Sink.Type = %q, want stdout", cfg.Audit.Sink.Type)
	}
	if cfg.Backend.Driver != "memory" || cfg.Backend.GitBinary != "git" {
		t.Errorf("unexpected backend defaults: %+v", cfg.Backend)
	}
	if cfg.Cache.Enabled {
		t.Error("cache must be disabled by default")
	}
	if cfg.Kdf.Algorithm != "scrypt" || cfg.Kdf.Cost != 1<<15 || cfg.Kdf.BlockSize != 8 || cfg.Kdf.Parallelization != 1 {
		t.Errorf("unexpected kdf defaults: %+v", cfg.Kdf)
	}
	if cfg.Kdf.Iterations != 600000 {
		t.Errorf("Kdf.Iterations = %d, want 600000", cfg.Kdf.Iterations)
	}
}

func TestNewLoaderReadsFileAndOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "engine:\n  chunk_size: 65536\nbackend:\n  driver: git-cli\n  git_dir: /tmp/repo.git\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader() error: %v", err)
	}
	cfg := l.Current()
	if cfg.Engine.ChunkSize != 65536 {
		t.Errorf("Engine.ChunkSize = %d, want 65536", cfg.Engine.ChunkSize)
	}
	if cfg.Backend.Driver != "git-cli" || cfg.Backend.GitDir != "/tmp/repo.git" {
		t.Errorf("unexpected backend config: %+v", cfg.Backend)
	}
	// Untouched keys still carry their defaults.
	if cfg.Kdf.Algorithm != "scrypt" {
		t.Errorf("Kdf.Algorithm = %q, want scrypt (untouched default)", cfg.Kdf.Algorithm)
	}
}

func TestNewLoaderMissingFileErrors(t *testing.T) {
	if _, err := NewLoader(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoaderWatchInvokesOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  chunk_size: 1024\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	l, err := NewLoader(path)
	if err != nil {
		t.Fatalf("NewLoader() error: %v", err)
	}

	changed := make(chan Config, 1)
	l.Watch(func(cfg Config) { changed <- cfg })

	if err := os.WriteFile(path, []byte("engine:\n  chunk_size: 2048\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.Engine.ChunkSize != 2048 {
			t.Errorf("reloaded Engine.ChunkSize = %d, want 2048", cfg.Engine.ChunkSize)
		}
	case <-time.After(2 * time.Second):
		t.Skip("fsnotify did not fire within the timeout on this filesystem")
	}
}
