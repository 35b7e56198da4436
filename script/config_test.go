// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/vfs"
)

func seedEnvironment() *vfs.Environment {
	root, _ := vfs.NewDirectory(nil)
	return &vfs.Environment{
		Args: []string{"exe"},
		Fds: []vfs.Entry{
			vfs.NewOpenFile(vfs.NewFile(nil), vfs.ModeRead),
			vfs.NewOpenFile(vfs.NewFile(nil), vfs.ModeAppend),
			vfs.NewOpenFile(vfs.NewFile(nil), vfs.ModeAppend),
			vfs.NewPreopen(".", root),
		},
	}
}

func TestSeedRoundTrip(t *testing.T) {
	env := seedEnvironment()
	frozen, err := Freeze(NewConfig(env))
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if len(frozen.Environment.Args) != 1 || frozen.Environment.Args[0] != "exe" {
		t.Errorf("args = %v", frozen.Environment.Args)
	}
	if len(frozen.Environment.Env) != 0 {
		t.Errorf("env = %v", frozen.Environment.Env)
	}
	if len(frozen.Environment.Fds) != 4 || frozen.Environment.Fds[3] != env.Fds[3] {
		t.Error("descriptor entries not carried through")
	}
	if frozen.Output != DefaultOutput {
		t.Errorf("output = %+v, want default", frozen.Output)
	}
}

func TestScriptConfiguresEnvironment(t *testing.T) {
	b := NewBuilder()
	b.SetAttr(ConfigRegister, AttrArgs, b.Structured(`["prog", "--flag"]`))
	b.SetAttr(ConfigRegister, AttrEnv, b.Structured(`["HOME=/", "LANG=C"]`))
	fds := b.GetAttr(ConfigRegister, AttrFds)
	data := b.Directory(b.Nop())
	b.Set(fds, b.Int(4), b.Preopen(b.Text("/data"), data))
	b.SetAttr(ConfigRegister, AttrOutput, b.Structured(`{"stdout": "data", "root": "tree"}`))

	seed := NewConfig(seedEnvironment())
	if _, err := New(Config{}).Run(context.Background(), b.Assemble(), seed); err != nil {
		t.Fatalf("Run: %v", err)
	}
	frozen, err := Freeze(seed)
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	env := frozen.Environment
	if len(env.Args) != 2 || env.Args[1] != "--flag" {
		t.Errorf("args = %v", env.Args)
	}
	if len(env.Env) != 2 || env.Env[0] != "HOME=/" {
		t.Errorf("env = %v", env.Env)
	}
	if len(env.Preopens()) != 2 || env.Preopens()[1].Path != "/data" {
		t.Errorf("preopens = %+v", env.Preopens())
	}
	if frozen.Output != (Output{Stdout: true, Root: true}) {
		t.Errorf("output = %+v", frozen.Output)
	}
}

func TestFreezeRejectsBadTypes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Object)
	}{
		{"args not list", func(o *Object) { o.Set(AttrArgs, "exe") }},
		{"arg not string", func(o *Object) { o.Set(AttrArgs, NewList(int64(1))) }},
		{"env without equals", func(o *Object) { o.Set(AttrEnv, NewList("NOEQUALS")) }},
		{"fd not entry", func(o *Object) { o.Set(AttrFds, NewList("stdin")) }},
		{"missing fds", func(o *Object) { o.Set(AttrFds, nil) }},
		{"units not object", func(o *Object) { o.Set(AttrUnits, NewList()) }},
		{"unit wrong type", func(o *Object) {
			units := NewObject()
			units.Set("env", "source")
			o.Set(AttrUnits, units)
		}},
		{"output bad value", func(o *Object) {
			output := NewObject()
			output.Set("stdout", "tree")
			o.Set(AttrOutput, output)
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := NewConfig(seedEnvironment())
			test.mutate(config)
			if _, err := Freeze(config); !errors.Is(err, ErrType) {
				t.Errorf("Freeze error = %v, want ErrType", err)
			}
		})
	}
}

func TestFreezeUnits(t *testing.T) {
	config := NewConfig(seedEnvironment())
	units := NewObject()
	unit := &sandbox.Unit{Source: []byte("\x00asm")}
	units.Set("env", unit)
	config.Set(AttrUnits, units)

	frozen, err := Freeze(config)
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if frozen.Units["env"] != unit {
		t.Errorf("units = %v", frozen.Units)
	}
}

func TestFreezeUnknownOutputKey(t *testing.T) {
	config := NewConfig(seedEnvironment())
	output := NewObject()
	output.Set("video", "data")
	config.Set(AttrOutput, output)
	if _, err := Freeze(config); !errors.Is(err, ErrNoAttribute) {
		t.Errorf("Freeze error = %v, want ErrNoAttribute", err)
	}
}
