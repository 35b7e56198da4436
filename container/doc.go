// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package container reads boot artifacts.
//
// An artifact is a WebAssembly module. The module itself is the
// primary payload; the boot chain's other parts ride along as custom
// sections, which WebAssembly runtimes ignore. [Parse] walks the
// section list once, validates framing, and copies every custom
// section out as a named [Segment].
//
// Four segment names are reserved for the boot chain:
//
//   - [ShellSegment] -- the presentation shell document
//   - [ConfiguratorSegment] -- an optional secondary-stage module that
//     produces the configuration script
//   - [GlueSegment] -- generated binding glue whose imports drive the
//     import shim
//   - [ConfigSegment] -- the configuration script
//
// A reserved name appearing twice makes the artifact ambiguous and
// Parse rejects it. Unreserved names may repeat; such duplicates are
// retained, and asking for one by name reports [ErrAmbiguousSegment].
//
// [AppendSegment] is the inverse used by tooling: it appends one custom
// section to an existing module.
package container
