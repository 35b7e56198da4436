// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/bureau-foundation/polyboot/lib/binhash"
	"github.com/bureau-foundation/polyboot/vfs"
)

// SystemNamespace is the module name of the WASI preview 1 surface.
const SystemNamespace = wasi_snapshot_preview1.ModuleName

// ConfiguratorNamespace is the host module a configurator imports.
const ConfiguratorNamespace = "wah_wasi"

// ConfigureExport is the function a configurator exports.
const ConfigureExport = "configure"

// ErrNoConfiguration reports a configurator that returned without
// calling put.
var ErrNoConfiguration = errors.New("configurator produced no output")

// Config holds configuration for creating a Wazero runtime.
type Config struct {
	// CacheDir persists compiled modules across processes. Empty
	// keeps the cache in memory.
	CacheDir string

	// Logger for runtime operations.
	Logger *slog.Logger
}

// Wazero runs payloads with the wazero WebAssembly runtime. Every run
// gets a fresh runtime so import namespaces are relinked each time;
// compiled code is shared through one compilation cache.
type Wazero struct {
	cache  wazero.CompilationCache
	logger *slog.Logger
}

var (
	_ Runtime      = (*Wazero)(nil)
	_ Configurator = (*Wazero)(nil)
	_ UnitLoader   = (*Wazero)(nil)
)

// New creates a Wazero runtime.
func New(config Config) (*Wazero, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache := wazero.NewCompilationCache()
	if config.CacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(config.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening compilation cache %s: %w", config.CacheDir, err)
		}
	}

	return &Wazero{cache: cache, logger: logger}, nil
}

// Close releases the compilation cache.
func (w *Wazero) Close(ctx context.Context) error {
	return w.cache.Close(ctx)
}

func (w *Wazero) newRuntime(ctx context.Context) wazero.Runtime {
	config := wazero.NewRuntimeConfig().
		WithCompilationCache(w.cache).
		WithCloseOnContextDone(true)
	return wazero.NewRuntimeWithConfig(ctx, config)
}

// Run compiles payload, links every namespace in imports, and runs the
// payload's _start. Preopened directories are copied to temporary host
// directories for the run and changes are copied back afterwards.
func (w *Wazero) Run(ctx context.Context, payload []byte, imports ImportTable) (*Outcome, error) {
	env, err := imports.Environment()
	if err != nil {
		return nil, err
	}

	runtime := w.newRuntime(ctx)
	defer runtime.Close(ctx)

	compiled, err := runtime.CompileModule(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("compiling payload: %w", err)
	}

	w.logger.Info("running payload",
		"artifact", binhash.Sum(payload).Short(),
		"namespaces", slices.Sorted(maps.Keys(imports)),
		"args", env.Args,
	)

	if err := w.link(ctx, runtime, imports); err != nil {
		return &Outcome{Err: err}, nil
	}

	mounts, err := materializeAll(env)
	if err != nil {
		return nil, err
	}
	defer mounts.remove()

	moduleConfig, err := w.moduleConfig(env, mounts)
	if err != nil {
		return nil, err
	}

	_, runErr := runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if ctx.Err() != nil {
		return nil, fmt.Errorf("payload interrupted: %w", ctx.Err())
	}

	if err := mounts.sync(); err != nil {
		return nil, fmt.Errorf("copying preopened directories back: %w", err)
	}

	outcome := classify(runErr)
	w.logger.Info("payload finished", "exit_code", outcome.ExitCode, "error", outcome.Err)
	return outcome, nil
}

// link instantiates every namespace of the import table: system
// interfaces first, so units may import them, then units in name order.
func (w *Wazero) link(ctx context.Context, runtime wazero.Runtime, imports ImportTable) error {
	namespaces := slices.Sorted(maps.Keys(imports))

	for _, namespace := range namespaces {
		if _, ok := imports[namespace].(*SystemInterface); !ok {
			continue
		}
		if namespace == SystemNamespace {
			if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
				return fmt.Errorf("instantiating %s: %w", namespace, err)
			}
			continue
		}
		builder := runtime.NewHostModuleBuilder(namespace)
		wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
		if _, err := builder.Instantiate(ctx); err != nil {
			return fmt.Errorf("instantiating system alias %s: %w", namespace, err)
		}
		w.logger.Debug("aliased system interface", "namespace", namespace)
	}

	for _, namespace := range namespaces {
		unit, ok := imports[namespace].(*Unit)
		if !ok {
			continue
		}
		compiled, err := runtime.CompileModule(ctx, unit.Source)
		if err != nil {
			return fmt.Errorf("compiling unit %s: %w", namespace, err)
		}
		config := wazero.NewModuleConfig().WithName(namespace).WithStartFunctions()
		if _, err := runtime.InstantiateModule(ctx, compiled, config); err != nil {
			return fmt.Errorf("instantiating unit %s: %w", namespace, err)
		}
		w.logger.Debug("linked code unit", "namespace", namespace, "size", len(unit.Source))
	}
	return nil
}

func (w *Wazero) moduleConfig(env *vfs.Environment, mounts mountSet) (wazero.ModuleConfig, error) {
	config := wazero.NewModuleConfig().
		WithArgs(env.Args...).
		WithStdin(bytes.NewReader(env.Stream(0))).
		WithStdout(streamWriter(env, 1)).
		WithStderr(streamWriter(env, 2)).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	for _, variable := range env.Env {
		key, value, ok := strings.Cut(variable, "=")
		if !ok {
			return nil, fmt.Errorf("environment variable %q is not KEY=VALUE", variable)
		}
		config = config.WithEnv(key, value)
	}

	fsConfig := wazero.NewFSConfig()
	for _, mount := range mounts {
		fsConfig = fsConfig.WithDirMount(mount.host, mount.preopen.Path)
	}
	return config.WithFSConfig(fsConfig), nil
}

// streamWriter returns the writer behind standard descriptor fd.
func streamWriter(env *vfs.Environment, fd int) io.Writer {
	if fd >= len(env.Fds) {
		return io.Discard
	}
	switch entry := env.Fds[fd].(type) {
	case *vfs.OpenFile:
		return entry
	case *vfs.File:
		return vfs.NewOpenFile(entry, vfs.ModeAppend)
	}
	return io.Discard
}

// classify turns the error from running _start into an Outcome.
func classify(err error) *Outcome {
	if err == nil {
		return &Outcome{}
	}
	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return &Outcome{}
		}
		return &Outcome{
			ExitCode: exitErr.ExitCode(),
			Err:      &ExitError{Code: exitErr.ExitCode()},
		}
	}
	return &Outcome{Err: err}
}

// Configure runs module's configure export. The module reads input
// through wah_wasi.length and wah_wasi.get and hands back its result
// through wah_wasi.put.
func (w *Wazero) Configure(ctx context.Context, module []byte, input []byte) ([]byte, error) {
	runtime := w.newRuntime(ctx)
	defer runtime.Close(ctx)

	var output []byte
	_, err := runtime.NewHostModuleBuilder(ConfiguratorNamespace).
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module) uint32 {
			return uint32(len(input))
		}).
		Export("length").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, pointer uint32) {
			if !m.Memory().Write(pointer, input) {
				panic(fmt.Sprintf("get: %d bytes at %d outside guest memory", len(input), pointer))
			}
		}).
		Export("get").
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, pointer, length uint32) {
			data, ok := m.Memory().Read(pointer, length)
			if !ok {
				panic(fmt.Sprintf("put: %d bytes at %d outside guest memory", length, pointer))
			}
			output = bytes.Clone(data)
		}).
		Export("put").
		Instantiate(ctx)
	if err != nil {
		return nil, fmt.Errorf("instantiating %s: %w", ConfiguratorNamespace, err)
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, fmt.Errorf("instantiating %s: %w", SystemNamespace, err)
	}

	compiled, err := runtime.CompileModule(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("compiling configurator: %w", err)
	}
	instance, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithStartFunctions())
	if err != nil {
		return nil, fmt.Errorf("instantiating configurator: %w", err)
	}

	configure := instance.ExportedFunction(ConfigureExport)
	if configure == nil {
		return nil, fmt.Errorf("configurator does not export %q", ConfigureExport)
	}
	if _, err := configure.Call(ctx); err != nil {
		return nil, fmt.Errorf("running configurator: %w", err)
	}
	if output == nil {
		return nil, ErrNoConfiguration
	}

	w.logger.Debug("configurator finished", "input", len(input), "output", len(output))
	return output, nil
}

// LoadUnit compiles source to check it is a valid module. The compiled
// form stays in the cache for the run that links the unit.
func (w *Wazero) LoadUnit(ctx context.Context, source []byte) (*Unit, error) {
	runtime := w.newRuntime(ctx)
	defer runtime.Close(ctx)

	if _, err := runtime.CompileModule(ctx, source); err != nil {
		return nil, fmt.Errorf("compiling code unit: %w", err)
	}
	return &Unit{Source: bytes.Clone(source)}, nil
}
