// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// polyboot boots staged WebAssembly artifacts.
//
// An artifact is a module carrying named custom sections: an optional
// presentation shell, a configuration script or configurator module,
// and generated glue. polyboot parses the artifact, builds the
// stage's virtual environment, runs the payload in wazero, and follows
// any next stage the payload leaves at proc/0/index.wasm.
//
// Usage:
//
//	polyboot run [flags] <artifact|url>
//	polyboot inspect <artifact>
//	polyboot disasm <artifact|script>
//	polyboot compile [flags] <config.toml>
//	polyboot watch [flags] <artifact|url>
//	polyboot report <reports.cbor>
//	polyboot version
//
// Configuration comes from --config or POLYBOOT_CONFIG; without
// either, built-in defaults apply. POLYBOOT_DEBUG enables debug
// logging, including a per-instruction trace of configuration scripts.
package main
