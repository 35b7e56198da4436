// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package boot is the staged bootstrap orchestrator.
//
// One stage takes artifact bytes through
//
//	fetched -> parsed -> configured -> running -> completed
//
// and then either chains into the next stage, terminates, or fails.
// Parsing reads the artifact's segments ([container.Parse]).
// Configuring runs the configuration script ([script.Interpreter])
// against a seed environment, optionally after a secondary-stage
// configurator has produced the script. Running links the stage's
// import table ([shim.Link]) and hands the payload to a
// [sandbox.Runtime]. A completed stage is recorded as a [Report]
// whatever the guest's own exit status was.
//
// After a run the orchestrator looks for [NextStagePath] in the
// environment's first preopened directory. When present, the file is
// removed from the tree, stored at [BootExecutablePath], parsed as a
// new artifact, and run as the next stage with the finished
// environment as its seed. When absent, the
// stage is terminal.
//
// Container and script faults end the stage. If a fallback artifact
// is configured it runs as a degraded stage in place of the failed
// one; otherwise the fault is returned and reported to the [Sink].
package boot
