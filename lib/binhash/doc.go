// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash provides BLAKE3 content digests for artifacts.
//
// polyboot identifies every artifact it boots by digest. The digest
// appears in log lines and stage reports so a fault can be tied to the
// exact bytes that produced it, and the refetch watcher compares
// digests to decide whether a newly fetched artifact differs from the
// one currently running.
//
// Digests use BLAKE3 keyed mode with a fixed domain key, so an artifact
// digest can never collide with a BLAKE3 hash computed for another
// purpose over the same bytes.
//
// The API surface:
//
//   - [Sum] -- digest of an in-memory byte slice
//   - [HashFile] -- streams a file through the hasher with constant memory
//   - [Digest.String] and [Digest.Short] -- canonical and abbreviated hex
//   - [ParseDigest] -- parses the canonical hex form back to a [Digest]
//
// This package has no dependencies on other polyboot packages.
package binhash
