// Copyright (c) 2024 Michael D Henderson. All rights reserved.

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/flint-lang/flintfe/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("non-existent file", func(t *testing.T) {
		cfg, err := config.Load("non-existent-file.json", false)
		if err != nil {
			t.Errorf("expected no error for non-existent file, got %v", err)
		}
		if cfg == nil {
			t.Fatalf("expected non-nil config")
		}
		if !cfg.Parser.Parallel {
			t.Errorf("expected default Parallel=true")
		}
	})

	t.Run("directory error", func(t *testing.T) {
		tmpDir := t.TempDir()
		_, err := config.Load(tmpDir, false)
		if err == nil {
			t.Errorf("expected error for directory, got nil")
		}
	})

	t.Run("empty config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.json")
		if err := os.WriteFile(configFile, []byte("{}"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cfg, err := config.Load(configFile, false)
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if !cfg.Parser.Parallel {
			t.Errorf("expected Parallel to remain at its default (true)")
		}
	})

	t.Run("partial config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.json")

		testConfig := config.Config{
			Parser: config.Parser_t{HardCrash: true},
		}
		data, err := json.Marshal(testConfig)
		if err != nil {
			t.Fatalf("failed to marshal test config: %v", err)
		}
		if err := os.WriteFile(configFile, data, 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cfg, err := config.Load(configFile, false)
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if !cfg.Parser.HardCrash {
			t.Errorf("expected HardCrash to be true")
		}
		if cfg.DebugFlags.Lexer {
			t.Errorf("expected DebugFlags.Lexer to remain false (default)")
		}
	})

	t.Run("minimal tree forces serial body passes", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.json")

		testConfig := config.Config{
			Parser: config.Parser_t{MinimalTree: true},
		}
		data, _ := json.Marshal(testConfig)
		if err := os.WriteFile(configFile, data, 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cfg, err := config.Load(configFile, false)
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if cfg.Parser.Parallel {
			t.Errorf("expected MinimalTree to force Parallel=false")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.json")
		if err := os.WriteFile(configFile, []byte("not json"), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		cfg, err := config.Load(configFile, true)
		if err != nil {
			t.Errorf("expected no error for invalid JSON, got %v", err)
		}
		if !cfg.Parser.Parallel {
			t.Errorf("expected default config when JSON is invalid")
		}
	})
}
