// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package shim relinks the import namespaces a payload's generated glue
// hard-codes to the environment of the current stage.
//
// Glue generators fix the namespace that provides system calls when
// the glue is generated, typically wasi_snapshot_preview1, while the
// implementation behind it is chosen per run. [Link] scans the glue
// for the namespaces it imports, asks a [Resolver] what each one
// should be served by, and returns a [sandbox.ImportTable] that binds
// every namespace to either the stage's [sandbox.SystemInterface] or a
// code unit built by the configuration script.
//
// The table is rebuilt for every stage: the environment differs from
// stage to stage, and the runtime relinks each fresh instantiation.
package shim
