// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local runs and artifact authoring.
	Development Environment = "development"
	// Production is for serving artifacts to end users.
	Production Environment = "production"
)

// Presentation modes.
const (
	PresentTerminal = "terminal"
	PresentPage     = "page"
	PresentNone     = "none"
)

// DefaultMaxChainDepth bounds how many stages may chain through
// proc/0/index.wasm before the boot fails.
const DefaultMaxChainDepth = 8

// Config is the master configuration for polyboot.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Boot configures the stage orchestrator.
	Boot BootConfig `yaml:"boot"`

	// Presentation selects where stage status is rendered.
	Presentation PresentationConfig `yaml:"presentation"`

	// Watch configures artifact refetching.
	Watch WatchConfig `yaml:"watch"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths        *PathsConfig        `yaml:"paths,omitempty"`
	Boot         *BootOverrides      `yaml:"boot,omitempty"`
	Presentation *PresentationConfig `yaml:"presentation,omitempty"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// State is where stage reports and rendered pages are written
	// when no explicit path is given.
	State string `yaml:"state"`

	// FallbackArtifact is run as a degraded stage when the primary
	// artifact cannot be parsed or configured. Empty disables the
	// fallback.
	FallbackArtifact string `yaml:"fallback_artifact"`
}

// BootConfig configures the stage orchestrator.
type BootConfig struct {
	// MaxChainDepth is the deepest stage index allowed. Stage 0 is
	// the artifact given on the command line.
	MaxChainDepth int `yaml:"max_chain_depth"`

	// AllowUnsafeScripts enables the callable opcode, which turns
	// script data into executable code units. Always false in
	// production.
	AllowUnsafeScripts bool `yaml:"allow_unsafe_scripts"`

	// RequiredSegments lists segment names whose absence makes an
	// artifact malformed.
	RequiredSegments []string `yaml:"required_segments"`

	// Aliases maps glue import namespaces to the namespace that
	// serves them.
	Aliases map[string]string `yaml:"aliases"`
}

// BootOverrides mirrors BootConfig with pointer fields so an override
// can set a boolean back to false.
type BootOverrides struct {
	MaxChainDepth      int      `yaml:"max_chain_depth,omitempty"`
	AllowUnsafeScripts *bool    `yaml:"allow_unsafe_scripts,omitempty"`
	RequiredSegments   []string `yaml:"required_segments,omitempty"`
}

// PresentationConfig selects the status sink.
type PresentationConfig struct {
	// Mode is one of "terminal", "page", or "none".
	Mode string `yaml:"mode"`

	// PagePath is the HTML file the page sink rewrites.
	PagePath string `yaml:"page_path"`
}

// WatchConfig configures artifact refetching.
type WatchConfig struct {
	// Interval between fetches. Parsed with time.ParseDuration.
	Interval string `yaml:"interval"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	state := filepath.Join(homeDir, ".cache", "polyboot")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			State: state,
		},
		Boot: BootConfig{
			MaxChainDepth: DefaultMaxChainDepth,
		},
		Presentation: PresentationConfig{
			Mode:     PresentTerminal,
			PagePath: filepath.Join(state, "boot.html"),
		},
		Watch: WatchConfig{
			Interval: "1s",
		},
	}
}

// Load loads configuration from the POLYBOOT_CONFIG environment
// variable. There is no discovery: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv("POLYBOOT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("POLYBOOT_CONFIG environment variable not set; " +
			"set it to the path of your polyboot.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, applies the
// section matching Environment, and expands ${VAR} references in path
// fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}

	if overrides != nil {
		if overrides.Paths != nil {
			if overrides.Paths.State != "" {
				c.Paths.State = overrides.Paths.State
			}
			if overrides.Paths.FallbackArtifact != "" {
				c.Paths.FallbackArtifact = overrides.Paths.FallbackArtifact
			}
		}
		if overrides.Boot != nil {
			if overrides.Boot.MaxChainDepth != 0 {
				c.Boot.MaxChainDepth = overrides.Boot.MaxChainDepth
			}
			if overrides.Boot.AllowUnsafeScripts != nil {
				c.Boot.AllowUnsafeScripts = *overrides.Boot.AllowUnsafeScripts
			}
			if overrides.Boot.RequiredSegments != nil {
				c.Boot.RequiredSegments = overrides.Boot.RequiredSegments
			}
		}
		if overrides.Presentation != nil {
			if overrides.Presentation.Mode != "" {
				c.Presentation.Mode = overrides.Presentation.Mode
			}
			if overrides.Presentation.PagePath != "" {
				c.Presentation.PagePath = overrides.Presentation.PagePath
			}
		}
	}

	// No override turns code-unit construction back on in production.
	if c.Environment == Production {
		c.Boot.AllowUnsafeScripts = false
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"POLYBOOT_STATE": c.Paths.State,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["POLYBOOT_STATE"] = c.Paths.State

	c.Paths.FallbackArtifact = expandVars(c.Paths.FallbackArtifact, vars)
	c.Presentation.PagePath = expandVars(c.Presentation.PagePath, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided vars
// win over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// WatchInterval parses Watch.Interval.
func (c *Config) WatchInterval() (time.Duration, error) {
	interval, err := time.ParseDuration(c.Watch.Interval)
	if err != nil {
		return 0, fmt.Errorf("watch.interval: %w", err)
	}
	return interval, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Boot.MaxChainDepth < 0 {
		errs = append(errs, fmt.Errorf("boot.max_chain_depth must not be negative, got %d", c.Boot.MaxChainDepth))
	}

	for namespace, target := range c.Boot.Aliases {
		if namespace == "" || target == "" {
			errs = append(errs, fmt.Errorf("boot.aliases: empty namespace in %q -> %q", namespace, target))
		}
	}

	modes := []string{PresentTerminal, PresentPage, PresentNone}
	if !slices.Contains(modes, c.Presentation.Mode) {
		errs = append(errs, fmt.Errorf("presentation.mode must be one of: %v", modes))
	}
	if c.Presentation.Mode == PresentPage && c.Presentation.PagePath == "" {
		errs = append(errs, fmt.Errorf("presentation.page_path is required when mode is page"))
	}

	if interval, err := c.WatchInterval(); err != nil {
		errs = append(errs, err)
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("watch.interval must be positive, got %s", interval))
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the state directory if it does not exist.
func (c *Config) EnsurePaths() error {
	if c.Paths.State == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.State, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.Paths.State, err)
	}
	return nil
}
