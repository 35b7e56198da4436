// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for polyboot.
//
// Configuration is loaded from a single file specified by either the
// POLYBOOT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no automatic file search. Commands that
// run without a config file use [Default].
//
// The file may contain development and production sections that
// override base values when [Config].Environment matches. Production
// always disables unsafe scripts, whatever the file says.
//
// ${HOME}, ${POLYBOOT_STATE}, and ${VAR:-default} patterns are expanded
// in path fields after loading.
package config
