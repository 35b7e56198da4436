// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bureau-foundation/polyboot/lib/binhash"
	"github.com/bureau-foundation/polyboot/lib/netutil"
)

// Metadata describes where an artifact came from. The orchestrator
// does not interpret it.
type Metadata struct {
	Origin      string
	ContentType string
	Status      int
	Header      http.Header
	Modified    time.Time
}

// Artifact is one fetched artifact.
type Artifact struct {
	Bytes    []byte
	Digest   binhash.Digest
	Metadata Metadata
}

func newArtifact(data []byte, metadata Metadata) *Artifact {
	return &Artifact{Bytes: data, Digest: binhash.Sum(data), Metadata: metadata}
}

// Source delivers artifact bytes.
type Source interface {
	Fetch(ctx context.Context) (*Artifact, error)

	// String names the source for logs.
	String() string
}

// Open returns an HTTP source for http and https URLs and a File
// source for anything else.
func Open(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTP{URL: location}
	}
	return &File{Path: location}
}

// File reads an artifact from the filesystem.
type File struct {
	Path string
}

func (f *File) String() string { return f.Path }

// Fetch reads the whole file.
func (f *File) Fetch(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.Path, err)
	}
	if info.Size() > netutil.MaxArtifactSize {
		return nil, fmt.Errorf("fetching %s: %w: %d bytes", f.Path, netutil.ErrTooLarge, info.Size())
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", f.Path, err)
	}
	return newArtifact(data, Metadata{Origin: f.Path, Modified: info.ModTime()}), nil
}

// HTTP downloads an artifact with a GET request.
type HTTP struct {
	URL string

	// Client is used for requests. Nil means http.DefaultClient.
	Client *http.Client
}

func (h *HTTP) String() string { return h.URL }

// Fetch downloads the artifact. Any status other than 200 is an error.
func (h *HTTP) Fetch(ctx context.Context) (*Artifact, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, err
	}
	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", h.URL, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d: %s", h.URL, response.StatusCode, netutil.ErrorBody(response.Body))
	}
	data, err := netutil.ReadLimited(response.Body, netutil.MaxArtifactSize)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", h.URL, err)
	}

	metadata := Metadata{
		Origin:      h.URL,
		ContentType: response.Header.Get("Content-Type"),
		Status:      response.StatusCode,
		Header:      response.Header.Clone(),
	}
	if modified, err := http.ParseTime(response.Header.Get("Last-Modified")); err == nil {
		metadata.Modified = modified
	}
	return newArtifact(data, metadata), nil
}

// Static serves fixed bytes.
type Static struct {
	Name string
	Data []byte
}

func (s *Static) String() string { return s.Name }

// Fetch returns a copy of the data.
func (s *Static) Fetch(ctx context.Context) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return newArtifact(bytes.Clone(s.Data), Metadata{Origin: s.Name}), nil
}
