// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sandbox runs WebAssembly payloads against a virtual
// environment.
//
// An [ImportTable] maps each import namespace a payload uses to a
// provider: a [SystemInterface] serving WASI preview 1 from a
// [vfs.Environment], or a [Unit] compiled from configuration-time
// source. [Runtime] links the table and runs the payload's _start,
// reporting guest failures in an [Outcome] and runtime failures as
// errors.
//
// [Wazero] is the implementation, built on the wazero runtime. Every
// run gets a fresh runtime sharing one compilation cache, so a stage
// that re-executes the same artifact compiles it once. Preopened
// virtual directories are copied to temporary host directories for the
// duration of a run; files the guest creates, modifies, or removes are
// copied back into the virtual tree when the run ends.
//
// [Configurator] runs the secondary stage of an artifact: a module
// exporting configure that exchanges bytes with the host through the
// wah_wasi namespace (length, get, put).
package sandbox
