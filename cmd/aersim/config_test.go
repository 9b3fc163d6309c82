package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error, got: %v", err)
	}
	if cfg.ChunkBits != nil || cfg.Precision != "" {
		t.Fatalf("expected zero config, got: %+v", cfg)
	}
}

func TestLoadConfigParsesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("chunk_bits: 12\nchunks: 8\nprecision: single\nserver_address: 0.0.0.0:9090\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfigFrom(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ChunkBits == nil || *cfg.ChunkBits != 12 {
		t.Errorf("ChunkBits = %v, want 12", cfg.ChunkBits)
	}
	if cfg.NumChunks == nil || *cfg.NumChunks != 8 {
		t.Errorf("NumChunks = %v, want 8", cfg.NumChunks)
	}
	if cfg.Precision != "single" {
		t.Errorf("Precision = %q, want single", cfg.Precision)
	}
	if cfg.ServerAddress != "0.0.0.0:9090" {
		t.Errorf("ServerAddress = %q, want 0.0.0.0:9090", cfg.ServerAddress)
	}
	if cfg.Workers != nil {
		t.Errorf("Workers = %v, want unset", cfg.Workers)
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chunk_bits: [broken"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfigFrom(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
