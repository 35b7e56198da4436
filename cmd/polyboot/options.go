// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/polyboot/boot"
	"github.com/bureau-foundation/polyboot/lib/config"
	"github.com/bureau-foundation/polyboot/present"
	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/shim"
)

// loadConfig loads path, or POLYBOOT_CONFIG when path is empty, or
// the defaults when neither is set. The result is validated.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv("POLYBOOT_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// parseMounts parses guest=host pairs. Host paths are made absolute.
func parseMounts(specs []string) ([]boot.Mount, error) {
	mounts := make([]boot.Mount, 0, len(specs))
	for _, spec := range specs {
		guest, host, ok := strings.Cut(spec, "=")
		if !ok || guest == "" || host == "" {
			return nil, fmt.Errorf("invalid mount %q: must be GUEST=HOST", spec)
		}
		absolute, err := filepath.Abs(host)
		if err != nil {
			return nil, fmt.Errorf("mount %q: %w", spec, err)
		}
		mounts = append(mounts, boot.Mount{Guest: guest, Host: absolute})
	}
	return mounts, nil
}

// bootOptions are the flags shared by run and watch.
type bootOptions struct {
	configPath  string
	fallback    string
	allowUnsafe bool
	page        string
	mounts      []string
	debug       bool
	noColor     bool
}

func (o *bootOptions) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&o.configPath, "config", "", "path to polyboot.yaml (default: $POLYBOOT_CONFIG or built-in defaults)")
	flagSet.StringVar(&o.fallback, "fallback", "", "artifact to run as a degraded stage when the primary cannot be configured")
	flagSet.BoolVar(&o.allowUnsafe, "allow-unsafe", false, "enable the callable opcode (refused in production)")
	flagSet.StringVar(&o.page, "page", "", "keep an HTML status page at this path")
	flagSet.StringArrayVar(&o.mounts, "mount", nil, "import a host directory into the first stage as GUEST=HOST (repeatable)")
	flagSet.BoolVar(&o.debug, "debug", false, "enable debug logging")
	flagSet.BoolVar(&o.noColor, "no-color", false, "disable colored terminal output")
}

// booter owns the runtime and orchestrator of one command.
type booter struct {
	orchestrator *boot.Orchestrator
	runtime      *sandbox.Wazero
	config       *config.Config
	logger       *slog.Logger
}

func newBooter(options *bootOptions, stdout io.Writer) (*booter, error) {
	logger := newLogger(options.debug)

	cfg, err := loadConfig(options.configPath)
	if err != nil {
		return nil, err
	}
	if options.allowUnsafe && cfg.Environment == config.Production {
		return nil, errors.New("--allow-unsafe is not permitted in the production environment")
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	mounts, err := parseMounts(options.mounts)
	if err != nil {
		return nil, err
	}

	var fallback []byte
	fallbackPath := options.fallback
	if fallbackPath == "" {
		fallbackPath = cfg.Paths.FallbackArtifact
	}
	if fallbackPath != "" {
		fallback, err = os.ReadFile(fallbackPath)
		if err != nil {
			return nil, fmt.Errorf("reading fallback artifact: %w", err)
		}
	}

	cacheDir := ""
	if cfg.Paths.State != "" {
		cacheDir = filepath.Join(cfg.Paths.State, "compilation-cache")
	}
	runtime, err := sandbox.New(sandbox.Config{CacheDir: cacheDir, Logger: logger})
	if err != nil {
		return nil, err
	}

	bootConfig := boot.Config{
		Runtime:          runtime,
		Resolver:         &shim.Aliases{Map: cfg.Boot.Aliases, Fallback: sandbox.SystemNamespace},
		Sink:             sinks(cfg, options, stdout, logger),
		RequiredSegments: cfg.Boot.RequiredSegments,
		MaxChainDepth:    cfg.Boot.MaxChainDepth,
		Fallback:         fallback,
		Mounts:           mounts,
		Logger:           logger,
	}
	if cfg.Boot.AllowUnsafeScripts || options.allowUnsafe {
		bootConfig.Units = runtime
	}

	orchestrator, err := boot.New(bootConfig)
	if err != nil {
		runtime.Close(context.Background())
		return nil, err
	}
	return &booter{orchestrator: orchestrator, runtime: runtime, config: cfg, logger: logger}, nil
}

// sinks builds the presentation for cfg. --page adds a page sink in
// any mode.
func sinks(cfg *config.Config, options *bootOptions, stdout io.Writer, logger *slog.Logger) boot.Sink {
	var sinks []boot.Sink
	if cfg.Presentation.Mode == config.PresentTerminal {
		color := !options.noColor && present.IsTerminal(stdout)
		sinks = append(sinks, present.NewTerminal(stdout, color))
	}

	pagePath := options.page
	if pagePath == "" && cfg.Presentation.Mode == config.PresentPage {
		pagePath = cfg.Presentation.PagePath
	}
	if pagePath != "" {
		sinks = append(sinks, present.NewPage(pagePath, logger))
	}
	return present.Tee(sinks...)
}

func (b *booter) Close() error {
	return b.runtime.Close(context.Background())
}

// exitStatus maps a boot outcome to the command's result. Failures the
// sinks have already shown become an ExitError.
func exitStatus(result *boot.Result, err error, logger *slog.Logger) error {
	var chainErr *boot.ChainError
	if errors.As(err, &chainErr) {
		logger.Error("stage chain failed", "stage", chainErr.Stage, "error", err)
		return &ExitError{Code: exitChainFailure}
	}
	var fault *boot.Fault
	if errors.As(err, &fault) {
		return &ExitError{Code: exitGuestFault}
	}
	if err != nil {
		return err
	}

	final := result.Final()
	switch {
	case final == nil:
		return nil
	case final.Degraded:
		return &ExitError{Code: exitGuestFault}
	case final.ExitCode != 0:
		return &ExitError{Code: guestExitCode(final.ExitCode)}
	}
	return nil
}

// guestExitCode fits a guest exit status into a process exit code.
// Only the low eight bits survive exit on Unix, so a status above 255
// becomes 1 instead of wrapping around to success or to one of the
// command's own codes.
func guestExitCode(code uint32) int {
	if code > 255 {
		return 1
	}
	return int(code)
}
