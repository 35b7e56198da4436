// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/polyboot/lib/binhash"
	"github.com/bureau-foundation/polyboot/lib/testutil"
)

func TestFileFetch(t *testing.T) {
	path := testutil.WriteFile(t, "artifact.wasm", []byte("\x00asm\x01\x00\x00\x00"))

	artifact, err := (&File{Path: path}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !bytes.Equal(artifact.Bytes, []byte("\x00asm\x01\x00\x00\x00")) {
		t.Errorf("bytes = %q", artifact.Bytes)
	}
	if artifact.Digest != binhash.Sum(artifact.Bytes) {
		t.Error("digest does not match bytes")
	}
	if artifact.Metadata.Origin != path || artifact.Metadata.Modified.IsZero() {
		t.Errorf("metadata = %+v", artifact.Metadata)
	}
}

func TestFileFetchMissing(t *testing.T) {
	_, err := (&File{Path: "/nonexistent/artifact.wasm"}).Fetch(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Fetch error = %v, want fs.ErrNotExist", err)
	}
}

func TestHTTPFetch(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artifact.wasm":
			w.Header().Set("Content-Type", "application/wasm")
			w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
			w.Write([]byte("payload"))
		default:
			http.Error(w, "no such artifact", http.StatusNotFound)
		}
	}))
	defer server.Close()

	artifact, err := (&HTTP{URL: server.URL + "/artifact.wasm", Client: server.Client()}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(artifact.Bytes) != "payload" {
		t.Errorf("bytes = %q, want %q", artifact.Bytes, "payload")
	}
	metadata := artifact.Metadata
	if metadata.ContentType != "application/wasm" || metadata.Status != http.StatusOK {
		t.Errorf("metadata = %+v", metadata)
	}
	if !metadata.Modified.Equal(modified) {
		t.Errorf("modified = %v, want %v", metadata.Modified, modified)
	}

	_, err = (&HTTP{URL: server.URL + "/missing", Client: server.Client()}).Fetch(context.Background())
	if err == nil || !strings.Contains(err.Error(), "HTTP 404") || !strings.Contains(err.Error(), "no such artifact") {
		t.Errorf("Fetch error = %v, want HTTP 404 with body", err)
	}
}

func TestStaticFetchCopies(t *testing.T) {
	source := &Static{Name: "inline", Data: []byte("abc")}
	artifact, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	artifact.Bytes[0] = 'x'
	if string(source.Data) != "abc" {
		t.Error("Fetch returned the source's own buffer")
	}
}

func TestFetchHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, source := range []Source{&File{Path: "unused"}, &Static{Name: "s"}} {
		if _, err := source.Fetch(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: Fetch error = %v, want context.Canceled", source, err)
		}
	}
}

func TestOpen(t *testing.T) {
	if _, ok := Open("https://example.invalid/a.wasm").(*HTTP); !ok {
		t.Error("https location did not open an HTTP source")
	}
	if _, ok := Open("http://example.invalid/a.wasm").(*HTTP); !ok {
		t.Error("http location did not open an HTTP source")
	}
	if file, ok := Open("build/a.wasm").(*File); !ok || file.Path != "build/a.wasm" {
		t.Error("path did not open a File source")
	}
}
