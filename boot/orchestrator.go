// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/polyboot/container"
	"github.com/bureau-foundation/polyboot/lib/binhash"
	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/script"
	"github.com/bureau-foundation/polyboot/shim"
	"github.com/bureau-foundation/polyboot/vfs"
)

// DefaultMaxChainDepth bounds chaining when Config.MaxChainDepth is 0.
const DefaultMaxChainDepth = 8

// emptyConfiguration is the configurator input when an artifact has
// no configuration segment.
var emptyConfiguration = []byte("{}")

// Config holds the collaborators and policy of an Orchestrator.
type Config struct {
	// Runtime runs payloads. Required.
	Runtime sandbox.Runtime

	// Configurator runs secondary-stage configurator modules. Nil
	// uses Runtime when it implements sandbox.Configurator.
	Configurator sandbox.Configurator

	// Units enables the callable opcode. Nil keeps it disabled.
	Units sandbox.UnitLoader

	// Resolver binds glue namespaces. Nil binds everything to the
	// system interface.
	Resolver shim.Resolver

	// Sink receives presentation events. Nil discards them.
	Sink Sink

	// RequiredSegments must be present in every artifact.
	RequiredSegments []string

	// MaxChainDepth is the deepest stage index chaining may reach.
	MaxChainDepth int

	// Fallback is an artifact run as a degraded stage after a
	// container or script fault. Nil disables fallback.
	Fallback []byte

	// Mounts are imported into the first stage's root preopen.
	Mounts []Mount

	Logger *slog.Logger
}

// Orchestrator runs stages. It holds no per-boot state; Boot may be
// called more than once, but not concurrently on the same runtime.
type Orchestrator struct {
	runtime      sandbox.Runtime
	configurator sandbox.Configurator
	units        sandbox.UnitLoader
	resolver     shim.Resolver
	sink         Sink
	required     []string
	maxDepth     int
	fallback     []byte
	mounts       []Mount
	logger       *slog.Logger
}

// New creates an Orchestrator.
func New(config Config) (*Orchestrator, error) {
	if config.Runtime == nil {
		return nil, errors.New("boot: Runtime is required")
	}
	if config.MaxChainDepth < 0 {
		return nil, fmt.Errorf("boot: MaxChainDepth %d is negative", config.MaxChainDepth)
	}

	orchestrator := &Orchestrator{
		runtime:      config.Runtime,
		configurator: config.Configurator,
		units:        config.Units,
		resolver:     config.Resolver,
		sink:         config.Sink,
		required:     config.RequiredSegments,
		maxDepth:     config.MaxChainDepth,
		fallback:     config.Fallback,
		mounts:       config.Mounts,
		logger:       config.Logger,
	}
	if orchestrator.configurator == nil {
		orchestrator.configurator, _ = config.Runtime.(sandbox.Configurator)
	}
	if orchestrator.sink == nil {
		orchestrator.sink = nopSink{}
	}
	if orchestrator.maxDepth == 0 {
		orchestrator.maxDepth = DefaultMaxChainDepth
	}
	if orchestrator.logger == nil {
		orchestrator.logger = slog.Default()
	}
	return orchestrator, nil
}

// Boot runs artifact as stage 0 and follows the chain of stages it
// leaves behind. The result holds a report for every stage that
// started, including failed ones, and is returned even with an error.
func (o *Orchestrator) Boot(ctx context.Context, artifact []byte) (*Result, error) {
	result := &Result{}
	err := o.stage(ctx, result, artifact, nil, 0, false)
	return result, err
}

// stage runs one stage and, recursively, the stages it chains to.
// seed is nil for the first stage.
func (o *Orchestrator) stage(ctx context.Context, result *Result, artifact []byte, seed *vfs.Environment, depth int, degraded bool) error {
	report := &Report{
		Stage:    depth,
		Artifact: binhash.Sum(artifact).String(),
		Degraded: degraded,
	}
	result.Stages = append(result.Stages, report)
	o.transition(report, StateFetched)

	parsed, err := container.Parse(artifact, container.Options{Required: o.required})
	if err != nil {
		return o.fail(ctx, result, report, seed, newFault(LayerContainer, err))
	}
	report.Segments = parsed.Names()
	o.transition(report, StateParsed)

	if shell, ok, _ := parsed.Optional(container.ShellSegment); ok {
		o.sink.Shell(shell)
	}

	env := seed
	if env == nil {
		env, err = Seed(parsed.Payload(), o.mounts...)
		if err != nil {
			return o.fail(ctx, result, report, seed, newFault(LayerSeed, err))
		}
	}

	frozen, fault := o.configure(ctx, report, parsed, env)
	if fault != nil {
		return o.fail(ctx, result, report, seed, fault)
	}
	o.transition(report, StateConfigured)

	glue, _, _ := parsed.Optional(container.GlueSegment)
	imports, err := shim.Link(glue, frozen.Environment, frozen.Units, shim.Config{
		Resolver: o.resolver,
		Logger:   o.logger,
	})
	if err != nil {
		return o.fail(ctx, result, report, seed, newFault(LayerLink, err))
	}

	o.transition(report, StateRunning)
	outcome, err := o.runtime.Run(ctx, parsed.Payload(), imports)
	if err != nil {
		fault := newFault(LayerRuntime, err)
		o.record(report, frozen, &sandbox.Outcome{})
		o.finish(report, fault)
		return fault
	}
	o.record(report, frozen, outcome)
	o.transition(report, StateCompleted)
	o.sink.Result(report)

	next, found, err := nextStage(frozen.Environment)
	if err != nil {
		fault := newFault(LayerChain, err)
		o.finish(report, fault)
		return &ChainError{Stage: depth + 1, Err: fault}
	}
	if !found {
		o.transition(report, StateTerminal)
		return nil
	}
	if depth+1 > o.maxDepth {
		fault := newFault(LayerChain, fmt.Errorf("chain deeper than %d stages", o.maxDepth))
		o.finish(report, fault)
		return &ChainError{Stage: depth + 1, Err: fault}
	}

	o.transition(report, StateChained)
	if err := o.stage(ctx, result, next, frozen.Environment, depth+1, false); err != nil {
		return &ChainError{Stage: depth + 1, Err: err}
	}
	return nil
}

// configure produces the stage's script, runs it against env, and
// freezes the configuration object.
func (o *Orchestrator) configure(ctx context.Context, report *Report, parsed *container.Container, env *vfs.Environment) (*script.Frozen, *Fault) {
	raw, present, err := parsed.Optional(container.ConfigSegment)
	if err != nil {
		return nil, newFault(LayerContainer, err)
	}

	module, hasConfigurator, err := parsed.Optional(container.ConfiguratorSegment)
	if err != nil {
		return nil, newFault(LayerContainer, err)
	}
	if hasConfigurator {
		if o.configurator == nil {
			return nil, newFault(LayerConfigurator, errors.New("artifact has a configurator but the runtime cannot run one"))
		}
		input := raw
		if !present {
			input = emptyConfiguration
		}
		raw, err = o.configurator.Configure(ctx, module, input)
		if err != nil {
			return nil, newFault(LayerConfigurator, err)
		}
		o.logger.Debug("configurator produced script", "stage", report.Stage, "size", len(raw))
	}

	config := script.NewConfig(env)
	interpreter := script.New(script.Config{
		Segments: parsed,
		Units:    o.units,
		Logger:   o.logger.With("stage", report.Stage),
	})
	table, err := interpreter.Run(ctx, raw, config)
	report.Instructions = len(table) - 1
	if err != nil {
		fault := newFault(LayerScript, err)
		if scriptFault, ok := script.AsFault(err); ok {
			fault.IP = scriptFault.IP
			fault.Opcode = scriptFault.Opcode.String()
		}
		fault.Registers = script.DumpRegisters(table)
		return nil, fault
	}

	frozen, err := script.Freeze(config)
	if err != nil {
		fault := newFault(LayerScript, err)
		fault.Registers = script.DumpRegisters(table)
		return nil, fault
	}
	return frozen, nil
}

// record copies what the run produced into report.
func (o *Orchestrator) record(report *Report, frozen *script.Frozen, outcome *sandbox.Outcome) {
	env := frozen.Environment
	report.Args = env.Args
	report.Env = env.Env
	report.Stdin = bytes.Clone(env.Stream(0))
	report.Stdout = bytes.Clone(env.Stream(1))
	report.Stderr = bytes.Clone(env.Stream(2))
	report.ExitCode = outcome.ExitCode
	if outcome.Err != nil {
		report.GuestError = outcome.Err.Error()
	}
	report.Show = showOutput(frozen.Output)

	if root, ok := env.Root(); ok {
		tree, err := vfs.Tree(root.Dir)
		if err != nil {
			o.logger.Warn("listing stage filesystem failed", "stage", report.Stage, "error", err)
		}
		report.Tree = tree
	}
}

// fail ends a stage on a container, seed, configurator, script, or
// link fault. With a fallback artifact configured, the fallback runs
// as a degraded stage at the same depth and its outcome decides the
// boot.
func (o *Orchestrator) fail(ctx context.Context, result *Result, report *Report, seed *vfs.Environment, fault *Fault) error {
	o.finish(report, fault)
	if o.fallback == nil || report.Degraded {
		return fault
	}
	o.logger.Warn("running fallback stage", "stage", report.Stage, "fault", fault.Error())
	return o.stage(ctx, result, o.fallback, seed, report.Stage, true)
}

// finish marks report failed and tells the sink.
func (o *Orchestrator) finish(report *Report, fault *Fault) {
	report.Fault = fault
	o.transition(report, StateFailed)
	o.sink.Fault(report)
}

func (o *Orchestrator) transition(report *Report, state State) {
	report.State = state
	level := slog.LevelInfo
	if state == StateFailed {
		level = slog.LevelError
	}
	attrs := []any{"stage", report.Stage, "state", string(state), "artifact", report.Artifact[:12]}
	if report.Degraded {
		attrs = append(attrs, "degraded", true)
	}
	if report.Fault != nil && state == StateFailed {
		attrs = append(attrs, "fault", report.Fault.Error())
	}
	o.logger.Log(context.Background(), level, "stage transition", attrs...)
	o.sink.Status(report.Stage, state)
}

// nextStage takes the next-stage artifact from env's root preopen.
// The file is consumed so a stage that leaves its own artifact in
// place does not loop, and the artifact replaces the boot executable.
func nextStage(env *vfs.Environment) ([]byte, bool, error) {
	root, ok := env.Root()
	if !ok {
		return nil, false, nil
	}
	entry, err := root.Open(0, NextStagePath, 0)
	if errors.Is(err, vfs.ErrPathNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("opening next stage: %w", err)
	}
	file, ok := entry.(*vfs.OpenFile)
	if !ok {
		return nil, false, fmt.Errorf("next stage %s is a %s, not a file", NextStagePath, entry.Kind())
	}
	data := bytes.Clone(file.Bytes())
	if err := root.Dir.RemovePath(NextStagePath); err != nil {
		return nil, false, fmt.Errorf("consuming next stage: %w", err)
	}
	if err := root.Dir.WriteFile(BootExecutablePath, data); err != nil {
		return nil, false, fmt.Errorf("replacing %s: %w", BootExecutablePath, err)
	}
	return data, true, nil
}
