// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides polyboot's standard CBOR encoding configuration.
//
// polyboot uses CBOR in two places:
//
//   - Stage reports written by "polyboot run --report" and read back by
//     "polyboot report". Reports must be byte-identical for identical
//     runs so they can be diffed and hashed.
//   - The configuration script's cbor opcode, which decodes a CBOR item
//     embedded in the script's data area into script values.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(report)
//	err = codec.Unmarshal(data, &report)
//
// For untyped script values, [DecodeValue] returns maps keyed by any
// CBOR key type (map[any]any) because script data is not restricted to
// string keys.
//
// Struct types use `cbor` tags when they are only ever CBOR, and `json`
// tags when they are also rendered as JSON; fxamacker/cbor reads json
// tags as a fallback. Never put both tags on one field.
package codec
