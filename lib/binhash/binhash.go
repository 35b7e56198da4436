// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Digest is a 32-byte BLAKE3 artifact digest.
type Digest [32]byte

// artifactDomainKey is the BLAKE3 key for the artifact domain. The
// bytes are the ASCII domain name zero-padded to 32 bytes. Changing it
// changes every digest.
var artifactDomainKey = [32]byte{
	'p', 'o', 'l', 'y', 'b', 'o', 'o', 't', '.', 'a', 'r', 't', 'i', 'f', 'a', 'c',
	't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

func newHasher() *blake3.Hasher {
	hasher, err := blake3.NewKeyed(artifactDomainKey[:])
	if err != nil {
		panic("binhash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

// Sum returns the artifact digest of data.
func Sum(data []byte) Digest {
	hasher := newHasher()
	hasher.Write(data)
	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// HashFile computes the artifact digest of the file at path. The file
// is streamed through the hasher (via io.Copy) so memory use does not
// grow with file size.
func HashFile(path string) (Digest, error) {
	file, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := newHasher()
	if _, err := io.Copy(hasher, file); err != nil {
		return Digest{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest Digest
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// String returns the canonical 64-character hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the abbreviated form used in log lines and terminal
// output: "art-" followed by the first 12 hex characters.
func (d Digest) Short() string {
	return "art-" + hex.EncodeToString(d[:6])
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ParseDigest parses the canonical hex form of a digest. Returns an
// error unless the input is exactly 64 hex characters.
func ParseDigest(hexString string) (Digest, error) {
	var digest Digest
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing artifact digest: %w", err)
	}
	if len(decoded) != len(digest) {
		return digest, fmt.Errorf("artifact digest is %d bytes, want %d", len(decoded), len(digest))
	}
	copy(digest[:], decoded)
	return digest, nil
}
