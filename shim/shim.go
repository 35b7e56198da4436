// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package shim

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/bureau-foundation/polyboot/sandbox"
	"github.com/bureau-foundation/polyboot/vfs"
)

// ErrUnresolved reports a namespace the resolver could not bind.
var ErrUnresolved = errors.New("unresolved import namespace")

// Resolver decides what serves an import namespace. The returned
// target is either [sandbox.SystemNamespace] or the name of a code
// unit.
type Resolver interface {
	Resolve(namespace string) (target string, ok bool)
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(namespace string) (string, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(namespace string) (string, bool) { return f(namespace) }

// Aliases is a static [Resolver]. Namespaces listed in Map resolve to
// their value; everything else resolves to Fallback, or fails when
// Fallback is empty.
type Aliases struct {
	Map      map[string]string
	Fallback string
}

// DefaultAliases resolves every namespace to the system interface.
func DefaultAliases() *Aliases {
	return &Aliases{Fallback: sandbox.SystemNamespace}
}

// Resolve implements [Resolver].
func (a *Aliases) Resolve(namespace string) (string, bool) {
	if target, ok := a.Map[namespace]; ok {
		return target, true
	}
	if a.Fallback == "" {
		return "", false
	}
	return a.Fallback, true
}

// Names returns the namespaces listed in Map. [Link] binds them even
// when the glue does not mention them, so payloads without glue can
// still import an aliased name.
func (a *Aliases) Names() []string {
	return slices.Sorted(maps.Keys(a.Map))
}

// namer is implemented by resolvers that know namespaces up front.
type namer interface {
	Names() []string
}

var (
	// import ... from 'ns' and export ... from "ns"
	fromClause = regexp.MustCompile(`\bfrom\s*(?:'([^'\n]+)'|"([^"\n]+)")`)
	// import 'ns'
	bareImport = regexp.MustCompile(`\bimport\s*(?:'([^'\n]+)'|"([^"\n]+)")`)
	// manifest lines: import ns
	manifestLine = regexp.MustCompile(`(?m)^\s*import\s+([A-Za-z_][A-Za-z0-9_.\-]*)\s*;?\s*$`)
)

// Namespaces returns the module namespaces glue imports, sorted and
// without duplicates. Relative and URL specifiers are not namespaces
// and are skipped.
func Namespaces(glue []byte) []string {
	text := string(glue)
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "/") || strings.Contains(name, "://") {
			return
		}
		seen[name] = true
	}
	for _, pattern := range []*regexp.Regexp{fromClause, bareImport} {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			add(match[1] + match[2])
		}
	}
	for _, match := range manifestLine.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}
	return slices.Sorted(maps.Keys(seen))
}

// Config configures [Link].
type Config struct {
	// Resolver binds glue namespaces. Nil means [DefaultAliases].
	Resolver Resolver

	Logger *slog.Logger
}

// Link builds the import table for one stage. The table always binds
// [sandbox.SystemNamespace] to env and every unit under its own name;
// each namespace named by glue or by the resolver is bound to what the
// resolver returns for it.
func Link(glue []byte, env *vfs.Environment, units map[string]*sandbox.Unit, config Config) (sandbox.ImportTable, error) {
	resolver := config.Resolver
	if resolver == nil {
		resolver = DefaultAliases()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	system := &sandbox.SystemInterface{Environment: env}
	table := sandbox.ImportTable{sandbox.SystemNamespace: system}
	for name, unit := range units {
		if name == sandbox.SystemNamespace {
			return nil, fmt.Errorf("code unit may not replace %s", sandbox.SystemNamespace)
		}
		table[name] = unit
	}

	namespaces := Namespaces(glue)
	if named, ok := resolver.(namer); ok {
		namespaces = append(namespaces, named.Names()...)
	}

	var errs []error
	for _, namespace := range namespaces {
		if _, bound := table[namespace]; bound {
			continue
		}
		target, ok := resolver.Resolve(namespace)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnresolved, namespace))
			continue
		}
		if target == sandbox.SystemNamespace {
			table[namespace] = system
			logger.Debug("namespace bound to system interface", "namespace", namespace)
			continue
		}
		unit, ok := units[target]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s resolves to unknown code unit %q", ErrUnresolved, namespace, target))
			continue
		}
		table[namespace] = unit
		logger.Debug("namespace bound to code unit", "namespace", namespace, "unit", target)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return table, nil
}
