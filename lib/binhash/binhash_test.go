// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package binhash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func TestSumDeterministic(t *testing.T) {
	content := []byte("\x00asm\x01\x00\x00\x00")
	if Sum(content) != Sum(content) {
		t.Fatal("Sum is not deterministic")
	}
	if Sum(content) == Sum(append(content, 0)) {
		t.Error("different inputs produced the same digest")
	}
}

func TestSumIsDomainSeparated(t *testing.T) {
	content := []byte("hello, polyboot")
	unkeyed := blake3.Sum256(content)
	if Sum(content) == Digest(unkeyed) {
		t.Error("artifact digest equals the unkeyed BLAKE3 hash")
	}
}

func TestHashFileMatchesSum(t *testing.T) {
	content := make([]byte, 256*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "artifact.wasm")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if want := Sum(content); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
}

func TestHashFileNonexistent(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("HashFile should fail for a nonexistent file")
	}
}

func TestParseDigestRoundtrip(t *testing.T) {
	digest := Sum([]byte("roundtrip"))
	parsed, err := ParseDigest(digest.String())
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if parsed != digest {
		t.Errorf("ParseDigest(%s) = %s", digest, parsed)
	}
}

func TestParseDigestRejectsBadInput(t *testing.T) {
	for _, input := range []string{"", "zz", strings.Repeat("ab", 31), strings.Repeat("ab", 33)} {
		if _, err := ParseDigest(input); err == nil {
			t.Errorf("ParseDigest(%q) should fail", input)
		}
	}
}

func TestShort(t *testing.T) {
	digest := Sum([]byte("short"))
	short := digest.Short()
	if !strings.HasPrefix(short, "art-") || len(short) != 16 {
		t.Errorf("Short() = %q, want art- plus 12 hex characters", short)
	}
	if !strings.HasPrefix(digest.String(), short[4:]) {
		t.Errorf("Short() = %q is not a prefix of %s", short, digest)
	}
}
