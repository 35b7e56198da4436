// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/vfs"
)

// Register values are one of: nil, int64, float64, bool, string,
// []byte, *Object, *List, a vfs.Entry, or *sandbox.Unit.

// Object is a string-keyed attribute bag that remembers insertion
// order.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Get returns the attribute called key.
func (o *Object) Get(key string) (any, bool) {
	value, ok := o.values[key]
	return value, ok
}

// Set stores value under key.
func (o *Object) Set(key string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Keys returns the attribute names in insertion order.
func (o *Object) Keys() []string { return slices.Clone(o.keys) }

// Len returns the number of attributes.
func (o *Object) Len() int { return len(o.keys) }

// List is an integer-indexed sequence. Setting index Len() appends.
type List struct {
	items []any
}

// NewList returns a list holding items.
func NewList(items ...any) *List {
	return &List{items: items}
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Items returns the items. Callers must not retain the slice across
// mutations.
func (l *List) Items() []any { return l.items }

// Append adds value at the end.
func (l *List) Append(value any) { l.items = append(l.items, value) }

// TypeName names the dynamic type of a register value for error
// messages and listings.
func TypeName(value any) string {
	switch value := value.(type) {
	case nil:
		return "nil"
	case int64:
		return "int"
	case float64:
		return "float"
	case bool:
		return "bool"
	case string:
		return "string"
	case []byte:
		return "bytes"
	case *Object:
		return "object"
	case *List:
		return "list"
	case *sandbox.Unit:
		return "unit"
	case vfs.Entry:
		return value.Kind()
	}
	return fmt.Sprintf("%T", value)
}

// attributeName renders a key for name-keyed containers. Integer keys
// are rendered in decimal.
func attributeName(key any) (string, error) {
	switch key := key.(type) {
	case string:
		return key, nil
	case int64:
		return strconv.FormatInt(key, 10), nil
	}
	return "", fmt.Errorf("%w: %s cannot be an attribute name", ErrType, TypeName(key))
}

func listIndex(key any) (int, error) {
	index, ok := key.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: list index must be int, got %s", ErrType, TypeName(key))
	}
	if index < 0 {
		return 0, fmt.Errorf("%w: negative index %d", ErrNoAttribute, index)
	}
	return int(index), nil
}

// getAttribute implements the get operation.
func getAttribute(target, key any) (any, error) {
	switch target := target.(type) {
	case *Object:
		name, err := attributeName(key)
		if err != nil {
			return nil, err
		}
		value, ok := target.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoAttribute, name)
		}
		return value, nil

	case *List:
		index, err := listIndex(key)
		if err != nil {
			return nil, err
		}
		if index >= target.Len() {
			return nil, fmt.Errorf("%w: index %d of %d", ErrNoAttribute, index, target.Len())
		}
		return target.items[index], nil
	}

	dir, ok := directoryOf(target)
	if !ok {
		return nil, fmt.Errorf("%w: cannot get from %s", ErrType, TypeName(target))
	}
	name, err := attributeName(key)
	if err != nil {
		return nil, err
	}
	node, ok := dir.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoAttribute, name)
	}
	return node, nil
}

// setAttribute implements the set operation and returns the stored
// value.
func setAttribute(target, key, value any) (any, error) {
	switch target := target.(type) {
	case *Object:
		name, err := attributeName(key)
		if err != nil {
			return nil, err
		}
		target.Set(name, value)
		return value, nil

	case *List:
		index, err := listIndex(key)
		if err != nil {
			return nil, err
		}
		switch {
		case index < target.Len():
			target.items[index] = value
		case index == target.Len():
			target.Append(value)
		default:
			return nil, fmt.Errorf("%w: index %d past end of %d", ErrNoAttribute, index, target.Len())
		}
		return value, nil
	}

	dir, ok := directoryOf(target)
	if !ok {
		return nil, fmt.Errorf("%w: cannot set on %s", ErrType, TypeName(target))
	}
	name, err := attributeName(key)
	if err != nil {
		return nil, err
	}
	node, ok := value.(vfs.Node)
	if !ok {
		return nil, fmt.Errorf("%w: directory entries must be files or directories, got %s", ErrType, TypeName(value))
	}
	if err := dir.Put(name, node); err != nil {
		return nil, err
	}
	return value, nil
}

// directoryOf returns the directory behind any directory-like entry.
func directoryOf(value any) (*vfs.Directory, bool) {
	switch value := value.(type) {
	case *vfs.Directory:
		return value, true
	case *vfs.Preopen:
		return value.Dir, true
	case *vfs.OpenDirectory:
		return value.Dir, true
	}
	return nil, false
}

// contentBytes accepts the register types usable as raw content.
func contentBytes(value any) ([]byte, error) {
	switch value := value.(type) {
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	}
	return nil, fmt.Errorf("%w: want bytes or string, got %s", ErrType, TypeName(value))
}

func stringValue(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%w: want string, got %s", ErrType, TypeName(value))
	}
	return s, nil
}
