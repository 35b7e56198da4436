// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"

	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/vfs"
)

// Attribute names on the configuration object.
const (
	AttrArgs   = "args"
	AttrEnv    = "env"
	AttrFds    = "fds"
	AttrUnits  = "units"
	AttrOutput = "output"
)

// Output selects which parts of a stage result are presented. The
// stage result itself always records everything.
type Output struct {
	Stdin  bool
	Stdout bool
	Stderr bool
	Root   bool
}

// DefaultOutput applies when a script does not set the output
// attribute.
var DefaultOutput = Output{Stdout: true, Stderr: true}

// Frozen is the configuration object after execution, checked and
// converted to the types the sandbox consumes.
type Frozen struct {
	Environment *vfs.Environment
	Units       map[string]*sandbox.Unit
	Output      Output
}

// NewConfig builds the configuration object for register 0 from a
// seed environment. The lists it creates are fresh, but descriptor
// entries are shared with env.
func NewConfig(env *vfs.Environment) *Object {
	config := NewObject()

	args := NewList()
	for _, arg := range env.Args {
		args.Append(arg)
	}
	config.Set(AttrArgs, args)

	variables := NewList()
	for _, variable := range env.Env {
		variables.Append(variable)
	}
	config.Set(AttrEnv, variables)

	fds := NewList()
	for _, entry := range env.Fds {
		fds.Append(entry)
	}
	config.Set(AttrFds, fds)

	return config
}

// Freeze converts the configuration object into a sandbox-ready
// environment. Type errors wrap ErrType and name the attribute.
func Freeze(config *Object) (*Frozen, error) {
	args, err := stringList(config, AttrArgs)
	if err != nil {
		return nil, err
	}
	variables, err := stringList(config, AttrEnv)
	if err != nil {
		return nil, err
	}

	frozen := &Frozen{
		Environment: &vfs.Environment{Args: args, Env: variables},
		Output:      DefaultOutput,
	}

	fdsValue, _ := config.Get(AttrFds)
	fds, ok := fdsValue.(*List)
	if !ok {
		return nil, fmt.Errorf("%w: config.%s is %s, want list", ErrType, AttrFds, TypeName(fdsValue))
	}
	for i, item := range fds.Items() {
		entry, ok := item.(vfs.Entry)
		if !ok {
			return nil, fmt.Errorf("%w: config.%s[%d] is %s, want a descriptor entry", ErrType, AttrFds, i, TypeName(item))
		}
		frozen.Environment.Fds = append(frozen.Environment.Fds, entry)
	}
	if err := frozen.Environment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrType, err)
	}

	if value, present := config.Get(AttrUnits); present && value != nil {
		units, ok := value.(*Object)
		if !ok {
			return nil, fmt.Errorf("%w: config.%s is %s, want object", ErrType, AttrUnits, TypeName(value))
		}
		frozen.Units = make(map[string]*sandbox.Unit, units.Len())
		for _, namespace := range units.Keys() {
			item, _ := units.Get(namespace)
			unit, ok := item.(*sandbox.Unit)
			if !ok {
				return nil, fmt.Errorf("%w: config.%s[%q] is %s, want unit", ErrType, AttrUnits, namespace, TypeName(item))
			}
			frozen.Units[namespace] = unit
		}
	}

	if value, present := config.Get(AttrOutput); present && value != nil {
		output, err := parseOutput(value)
		if err != nil {
			return nil, err
		}
		frozen.Output = output
	}

	return frozen, nil
}

func stringList(config *Object, attribute string) ([]string, error) {
	value, _ := config.Get(attribute)
	list, ok := value.(*List)
	if !ok {
		return nil, fmt.Errorf("%w: config.%s is %s, want list", ErrType, attribute, TypeName(value))
	}
	strings := make([]string, 0, list.Len())
	for i, item := range list.Items() {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: config.%s[%d] is %s, want string", ErrType, attribute, i, TypeName(item))
		}
		strings = append(strings, s)
	}
	return strings, nil
}

// parseOutput reads {stdin|stdout|stderr: "data", root: "tree"}.
// Listing an attribute selects it; any other value is an error.
func parseOutput(value any) (Output, error) {
	object, ok := value.(*Object)
	if !ok {
		return Output{}, fmt.Errorf("%w: config.%s is %s, want object", ErrType, AttrOutput, TypeName(value))
	}
	var output Output
	for _, key := range object.Keys() {
		item, _ := object.Get(key)
		var field *bool
		want := "data"
		switch key {
		case "stdin":
			field = &output.Stdin
		case "stdout":
			field = &output.Stdout
		case "stderr":
			field = &output.Stderr
		case "root":
			field, want = &output.Root, "tree"
		default:
			return Output{}, fmt.Errorf("%w: config.%s has unknown key %q", ErrNoAttribute, AttrOutput, key)
		}
		if item != want {
			return Output{}, fmt.Errorf("%w: config.%s.%s must be %q", ErrType, AttrOutput, key, want)
		}
		*field = true
	}
	return output, nil
}
