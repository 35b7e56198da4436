// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "polyboot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("Environment = %s, want development", cfg.Environment)
	}
	if cfg.Boot.MaxChainDepth != DefaultMaxChainDepth {
		t.Errorf("MaxChainDepth = %d, want %d", cfg.Boot.MaxChainDepth, DefaultMaxChainDepth)
	}
	if cfg.Boot.AllowUnsafeScripts {
		t.Error("AllowUnsafeScripts should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresPolybootConfig(t *testing.T) {
	t.Setenv("POLYBOOT_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when POLYBOOT_CONFIG not set")
	}
	if !strings.HasPrefix(err.Error(), "POLYBOOT_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_WithPolybootConfig(t *testing.T) {
	path := writeConfig(t, `
environment: development
boot:
  max_chain_depth: 3
  allow_unsafe_scripts: true
  required_segments: [wah_wasi_config]
  aliases:
    wasi_unstable: wasi_snapshot_preview1
watch:
  interval: 250ms
`)
	t.Setenv("POLYBOOT_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Boot.MaxChainDepth != 3 {
		t.Errorf("MaxChainDepth = %d, want 3", cfg.Boot.MaxChainDepth)
	}
	if !cfg.Boot.AllowUnsafeScripts {
		t.Error("AllowUnsafeScripts = false, want true")
	}
	if got := cfg.Boot.Aliases["wasi_unstable"]; got != "wasi_snapshot_preview1" {
		t.Errorf("alias = %q", got)
	}
	if len(cfg.Boot.RequiredSegments) != 1 || cfg.Boot.RequiredSegments[0] != "wah_wasi_config" {
		t.Errorf("RequiredSegments = %v", cfg.Boot.RequiredSegments)
	}
	interval, err := cfg.WatchInterval()
	if err != nil || interval != 250*time.Millisecond {
		t.Errorf("WatchInterval = %v, %v", interval, err)
	}
}

func TestProductionDisablesUnsafeScripts(t *testing.T) {
	path := writeConfig(t, `
environment: production
boot:
  allow_unsafe_scripts: true
production:
  boot:
    allow_unsafe_scripts: true
    max_chain_depth: 2
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Boot.AllowUnsafeScripts {
		t.Error("production config allowed unsafe scripts")
	}
	if cfg.Boot.MaxChainDepth != 2 {
		t.Errorf("MaxChainDepth = %d, want 2 from production override", cfg.Boot.MaxChainDepth)
	}
}

func TestDevelopmentOverride(t *testing.T) {
	path := writeConfig(t, `
environment: development
presentation:
  mode: terminal
development:
  presentation:
    mode: page
    page_path: /tmp/boot.html
  boot:
    allow_unsafe_scripts: true
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Presentation.Mode != PresentPage {
		t.Errorf("Mode = %q, want page", cfg.Presentation.Mode)
	}
	if cfg.Presentation.PagePath != "/tmp/boot.html" {
		t.Errorf("PagePath = %q", cfg.Presentation.PagePath)
	}
	if !cfg.Boot.AllowUnsafeScripts {
		t.Error("development override did not enable unsafe scripts")
	}
}

func TestExpandVariables(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	path := writeConfig(t, `
paths:
  state: ${HOME}/state
  fallback_artifact: ${POLYBOOT_STATE}/fallback.wasm
presentation:
  page_path: ${UNSET_POLYBOOT_VAR:-/srv/page.html}
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Paths.State != "/home/tester/state" {
		t.Errorf("State = %q", cfg.Paths.State)
	}
	if cfg.Paths.FallbackArtifact != "/home/tester/state/fallback.wasm" {
		t.Errorf("FallbackArtifact = %q", cfg.Paths.FallbackArtifact)
	}
	if cfg.Presentation.PagePath != "/srv/page.html" {
		t.Errorf("PagePath = %q", cfg.Presentation.PagePath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad environment", func(c *Config) { c.Environment = "staging" }, "invalid environment"},
		{"negative depth", func(c *Config) { c.Boot.MaxChainDepth = -1 }, "max_chain_depth"},
		{"bad mode", func(c *Config) { c.Presentation.Mode = "hologram" }, "presentation.mode"},
		{"page without path", func(c *Config) {
			c.Presentation.Mode = PresentPage
			c.Presentation.PagePath = ""
		}, "page_path"},
		{"bad interval", func(c *Config) { c.Watch.Interval = "soon" }, "watch.interval"},
		{"zero interval", func(c *Config) { c.Watch.Interval = "0s" }, "must be positive"},
		{"empty alias", func(c *Config) { c.Boot.Aliases = map[string]string{"x": ""} }, "boot.aliases"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Errorf("error %q does not mention %q", err, test.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.State = filepath.Join(t.TempDir(), "a", "b")
	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	if info, err := os.Stat(cfg.Paths.State); err != nil || !info.IsDir() {
		t.Errorf("state directory not created: %v", err)
	}
}
