// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wasiconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bureau-foundation/polyboot/container"
	"github.com/bureau-foundation/polyboot/script"
)

// RootUnzip builds the root preopen by unzipping the data section.
const RootUnzip = "unzip"

// Output modes.
const (
	ModeData = "data"
	ModeTree = "tree"
)

// RootDescriptor is where the unzipped root preopen is installed.
const RootDescriptor = 3

// Config is a parsed configuration file.
type Config struct {
	Input  Input  `toml:"input"`
	Output Output `toml:"output"`
}

// Input describes the environment to build.
type Input struct {
	Args []string `toml:"args"`
	Env  []string `toml:"env"`

	// Root is empty or RootUnzip.
	Root string `toml:"root"`

	// DataSection names the segment unzipped for the root. Empty
	// means container.ConfiguratorDataSegment.
	DataSection string `toml:"data-section"`
}

// Output selects presented results. Stream fields are empty or
// ModeData; Root is empty or ModeTree.
type Output struct {
	Stdin  string `toml:"stdin"`
	Stdout string `toml:"stdout"`
	Stderr string `toml:"stderr"`
	Root   string `toml:"root"`
}

// Parse decodes and validates a configuration file. Unknown keys are
// errors.
func Parse(data []byte) (*Config, error) {
	var config Config
	metadata, err := toml.Decode(string(data), &config)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("parsing configuration: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// ParseFile reads and parses the configuration file at path.
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	config, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Validate checks modes and environment strings.
func (c *Config) Validate() error {
	var errs []error
	if c.Input.Root != "" && c.Input.Root != RootUnzip {
		errs = append(errs, fmt.Errorf("input.root: unknown mode %q (want %q)", c.Input.Root, RootUnzip))
	}
	if c.Input.DataSection != "" && c.Input.Root == "" {
		errs = append(errs, errors.New("input.data-section is set but input.root is not"))
	}
	for i, variable := range c.Input.Env {
		if !strings.Contains(variable, "=") {
			errs = append(errs, fmt.Errorf("input.env[%d]: %q is not KEY=VALUE", i, variable))
		}
	}
	for _, field := range []struct{ name, value string }{
		{"stdin", c.Output.Stdin},
		{"stdout", c.Output.Stdout},
		{"stderr", c.Output.Stderr},
	} {
		if field.value != "" && field.value != ModeData {
			errs = append(errs, fmt.Errorf("output.%s: unknown mode %q (want %q)", field.name, field.value, ModeData))
		}
	}
	if c.Output.Root != "" && c.Output.Root != ModeTree {
		errs = append(errs, fmt.Errorf("output.root: unknown mode %q (want %q)", c.Output.Root, ModeTree))
	}
	return errors.Join(errs...)
}

// Compile emits the configuration script for c.
func (c *Config) Compile() ([]byte, error) {
	b := script.NewBuilder()
	config := script.ConfigRegister

	if c.Input.Root == RootUnzip {
		section := c.Input.DataSection
		if section == "" {
			section = container.ConfiguratorDataSegment
		}
		dir := b.Unzip(b.Section(b.Text(section)))
		b.SetAttr(config, "dir", dir)
		fds := b.GetAttr(config, script.AttrFds)
		root := b.Preopen(b.Text("."), dir)
		b.Set(fds, b.Int(RootDescriptor), root)
	}

	if len(c.Input.Args) > 0 {
		args, err := json.Marshal(c.Input.Args)
		if err != nil {
			return nil, err
		}
		b.SetAttr(config, script.AttrArgs, b.Structured(string(args)))
	}
	if len(c.Input.Env) > 0 {
		env, err := json.Marshal(c.Input.Env)
		if err != nil {
			return nil, err
		}
		b.SetAttr(config, script.AttrEnv, b.Structured(string(env)))
	}

	output := make(map[string]string)
	for key, value := range map[string]string{
		"stdin":  c.Output.Stdin,
		"stdout": c.Output.Stdout,
		"stderr": c.Output.Stderr,
		"root":   c.Output.Root,
	} {
		if value != "" {
			output[key] = value
		}
	}
	if len(output) > 0 {
		// encoding/json sorts map keys, so the script is reproducible.
		encoded, err := json.Marshal(output)
		if err != nil {
			return nil, err
		}
		b.SetAttr(config, script.AttrOutput, b.Structured(string(encoded)))
	}

	return b.Assemble(), nil
}
