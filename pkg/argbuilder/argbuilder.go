// Package argbuilder provides an ordered list of command-line arguments with
// helpers for conditionally appending values.
//
// Builders are usually not created directly, but through a Factory that is
// registered alongside a build step and invoked first when the step runs.
package argbuilder

import (
	"fmt"
	"sort"
	"strings"
)

// Builder is an ordered list of command-line arguments. The zero value is an
// empty list, ready to use.
type Builder struct {
	args []string
}

// New returns a new Builder seeded with the given arguments.
func New(args ...string) *Builder {
	b := &Builder{}
	return b.Add(args...)
}

// Add appends the arguments unconditionally.
func (b *Builder) Add(args ...string) *Builder {
	b.args = append(b.args, args...)
	return b
}

// AddIf appends the arguments only if cond is true.
func (b *Builder) AddIf(cond bool, args ...string) *Builder {
	if cond {
		return b.Add(args...)
	}
	return b
}

// AddNonEmpty appends the flag followed by the value, but only if the value
// is non-empty.
func (b *Builder) AddNonEmpty(flag, value string) *Builder {
	if value != "" {
		return b.Add(flag, value)
	}
	return b
}

// AddKeyValue appends a single "key=value" argument.
func (b *Builder) AddKeyValue(key, value string) *Builder {
	return b.Add(fmt.Sprintf("%s=%s", key, value))
}

// AddKeyValues appends one "key=value" argument per map entry, prefixing each
// with the given flag. The entries are appended in lexical key order so that
// repeated evaluations produce the same argument list.
func (b *Builder) AddKeyValues(flag string, values map[string]string) *Builder {
	for _, kv := range SortedKeyValues(values) {
		b.Add(flag, kv)
	}
	return b
}

// Args returns the accumulated arguments.
func (b *Builder) Args() []string {
	return b.args
}

// String returns the arguments joined by spaces. Only meant for logging; no
// shell quoting is applied.
func (b *Builder) String() string {
	return strings.Join(b.args, " ")
}

// Factory produces an argument list when invoked. A factory registered
// alongside a step is evaluated when the step runs, not when it is
// registered, so its arguments may reference values produced by earlier
// steps.
type Factory func() *Builder

// Fixed returns a Factory that always produces the same arguments.
func Fixed(args ...string) Factory {
	return func() *Builder {
		return New(args...)
	}
}

// SortedKeyValues returns "key=value" strings for the map in lexical key
// order.
func SortedKeyValues(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = fmt.Sprintf("%s=%s", key, values[key])
	}
	return out
}
