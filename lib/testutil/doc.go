// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for polyboot packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as distinct origins for artifact fixtures.
//
// [Program] assembles tiny WebAssembly modules in memory. Tests that
// exercise the sandbox, the container reader, or the boot orchestrator
// use it instead of checking compiled binaries into the tree. The
// assembler only knows the handful of instructions those fixtures
// need: writing to a file descriptor, exiting with a status, and the
// wah_wasi configurator calls.
//
// [WriteFile] drops fixture bytes into a per-test temporary directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
