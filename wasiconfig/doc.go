// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wasiconfig compiles declarative stage configuration into a
// configuration script.
//
// A configuration file is TOML with two tables:
//
//	[input]
//	args = ["viewer", "scene.gltf"]
//	env = ["RUST_LOG=info"]
//	root = "unzip"
//	data-section = "wah_polyglot_stage2_data"
//
//	[output]
//	stdout = "data"
//	stderr = "data"
//	root = "tree"
//
// With root = "unzip", the script unpacks the data section into a
// directory, stores it as the configuration's dir attribute, and
// installs it as preopen "." at descriptor 3. Args and env replace the
// seed's. Output selects what is presented after the run.
package wasiconfig
