// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// MaxInflatedSize bounds the output of [Decompress].
const MaxInflatedSize = 256 << 20

// Codec identifies a compression format by name.
type Codec string

const (
	// None passes data through unchanged.
	None Codec = "none"

	// Zstd is a zstd frame. Good ratios for text-like content such
	// as presentation shells and JSON.
	Zstd Codec = "zstd"

	// LZ4 is an LZ4 frame. Fast decode for binary data such as
	// embedded wasm modules.
	LZ4 Codec = "lz4"
)

// ErrTooLarge is returned when inflated output would exceed
// MaxInflatedSize.
var ErrTooLarge = errors.New("inflated data exceeds size limit")

// ParseCodec parses a codec name.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case None, Zstd, LZ4:
		return Codec(name), nil
	default:
		return "", fmt.Errorf("unknown codec: %q", name)
	}
}

// zstdEncoder and zstdDecoder are shared; both are safe for concurrent
// use. The decoder enforces the size bound itself.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxInflatedSize))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress encodes data with codec. For None the input is returned
// unchanged (no copy).
func Compress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case None:
		return data, nil

	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil

	case LZ4:
		var buffer bytes.Buffer
		writer := lz4.NewWriter(&buffer)
		if _, err := writer.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buffer.Bytes(), nil

	default:
		return nil, fmt.Errorf("unsupported codec: %q", codec)
	}
}

// Decompress decodes a frame produced by codec. For None the input is
// returned unchanged.
func Decompress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case None:
		return data, nil

	case Zstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) > MaxInflatedSize {
			return nil, ErrTooLarge
		}
		return out, nil

	case LZ4:
		reader := lz4.NewReader(bytes.NewReader(data))
		out, err := io.ReadAll(io.LimitReader(reader, MaxInflatedSize+1))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if len(out) > MaxInflatedSize {
			return nil, ErrTooLarge
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported codec: %q", codec)
	}
}
