// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress implements the codecs a configuration script can use
// to inflate embedded data: zstd and LZ4 frames, plus "none".
//
// Both codecs use their self-describing frame formats rather than raw
// blocks, so a script only needs the compressed bytes and the codec
// name; the uncompressed size travels inside the frame. Decompression
// is bounded by [MaxInflatedSize] so a hostile artifact cannot expand a
// small segment into unbounded memory.
package compress
