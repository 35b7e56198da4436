// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the polyboot
// binary.
//
// Four package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/polyboot/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// They default to "unknown" / "0.1.0-dev" in development builds and
// test runs; the commit then falls back to the go tool's VCS stamp.
//
// [SelfDigest] hashes the running executable with [binhash], giving
// stage reports a stable identity for the orchestrator build.
package version
