// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"errors"
	"slices"
	"testing"

	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/vfs"
)

const glue = `import * as __wbg_star0 from 'wasi_snapshot_preview1';
import * as __wbg_star1 from "env_extra";
import { helper } from './snippets/helper.js';
import 'side_effects';
export { render } from "https://example.invalid/render.js";
let imports = {};
imports['wasi_snapshot_preview1'] = __wbg_star0;
`

func TestNamespaces(t *testing.T) {
	got := Namespaces([]byte(glue))
	want := []string{"env_extra", "side_effects", "wasi_snapshot_preview1"}
	if !slices.Equal(got, want) {
		t.Errorf("Namespaces = %v, want %v", got, want)
	}
}

func TestNamespacesManifest(t *testing.T) {
	manifest := "import wasi_unstable\nimport env;\n  import   custom.ns  \nnot import here\n"
	got := Namespaces([]byte(manifest))
	want := []string{"custom.ns", "env", "wasi_unstable"}
	if !slices.Equal(got, want) {
		t.Errorf("Namespaces = %v, want %v", got, want)
	}
}

func TestNamespacesEmpty(t *testing.T) {
	if got := Namespaces(nil); len(got) != 0 {
		t.Errorf("Namespaces(nil) = %v, want none", got)
	}
}

func TestLinkDefault(t *testing.T) {
	env := &vfs.Environment{}
	table, err := Link([]byte(glue), env, nil, Config{})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}

	system, ok := table[sandbox.SystemNamespace].(*sandbox.SystemInterface)
	if !ok || system.Environment != env {
		t.Fatalf("%s not bound to the stage environment", sandbox.SystemNamespace)
	}
	for _, namespace := range []string{"env_extra", "side_effects"} {
		if table[namespace] != system {
			t.Errorf("%s = %v, want the shared system interface", namespace, table[namespace])
		}
	}
	if len(table) != 3 {
		t.Errorf("table has %d namespaces, want 3", len(table))
	}
}

func TestLinkUnits(t *testing.T) {
	unit := &sandbox.Unit{Source: []byte("\x00asm\x01\x00\x00\x00")}
	resolver := &Aliases{
		Map:      map[string]string{"env_extra": "helpers"},
		Fallback: sandbox.SystemNamespace,
	}
	table, err := Link([]byte(glue), &vfs.Environment{}, map[string]*sandbox.Unit{"helpers": unit}, Config{Resolver: resolver})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if table["env_extra"] != unit {
		t.Errorf("env_extra = %v, want the helpers unit", table["env_extra"])
	}
	if table["helpers"] != unit {
		t.Errorf("helpers = %v, want the unit under its own name", table["helpers"])
	}
}

func TestLinkAliasesWithoutGlue(t *testing.T) {
	resolver := &Aliases{Map: map[string]string{"wasi_unstable": sandbox.SystemNamespace}}
	table, err := Link(nil, &vfs.Environment{}, nil, Config{Resolver: resolver})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if _, ok := table["wasi_unstable"].(*sandbox.SystemInterface); !ok {
		t.Errorf("wasi_unstable = %v, want system interface", table["wasi_unstable"])
	}
}

func TestLinkUnresolved(t *testing.T) {
	tests := []struct {
		name     string
		resolver Resolver
	}{
		{"no fallback", &Aliases{}},
		{"unknown unit", &Aliases{Fallback: "missing"}},
		{"func", ResolverFunc(func(string) (string, bool) { return "", false })},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Link([]byte(`import x from "env_extra";`), &vfs.Environment{}, nil, Config{Resolver: test.resolver})
			if !errors.Is(err, ErrUnresolved) {
				t.Errorf("Link error = %v, want ErrUnresolved", err)
			}
		})
	}
}

func TestLinkRejectsUnitShadowingSystem(t *testing.T) {
	units := map[string]*sandbox.Unit{sandbox.SystemNamespace: {}}
	if _, err := Link(nil, &vfs.Environment{}, units, Config{}); err == nil {
		t.Error("Link accepted a unit named after the system namespace")
	}
}
