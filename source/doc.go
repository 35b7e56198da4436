// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package source fetches artifact bytes.
//
// A [Source] delivers a complete artifact together with opaque
// [Metadata] about where it came from. [File] reads the local
// filesystem, [HTTP] downloads over HTTP, and [Static] serves bytes
// already in memory. [Open] picks one from a location string.
//
// [Watcher] polls a source and delivers the artifact whenever its
// BLAKE3 digest changes, so a development loop can rebuild an artifact
// and have it booted again without restarting.
package source
