package eremore

import (
	"fmt"
	"slices"
	"strings"
)

// Registry is an ordered set of named algorithm variants for one stage kind.
// Exactly one variant is active once Select has succeeded.
type Registry[V any] struct {
	kind    string
	names   []string
	entries map[string]V
	aliases map[string]string
	active  string
}

// NewRegistry creates an empty registry for the given stage kind.
func NewRegistry[V any](kind string) *Registry[V] {
	return &Registry[V]{kind: kind, entries: make(map[string]V), aliases: make(map[string]string)}
}

// Register adds a variant. Registering an existing name replaces the variant
// but keeps its position.
func (r *Registry[V]) Register(name string, v V) {
	if _, ok := r.entries[name]; !ok {
		r.names = append(r.names, name)
	}
	r.entries[name] = v
}

// RegisterAlias makes alias select the variant registered as name. Aliases
// are not listed by Names.
func (r *Registry[V]) RegisterAlias(alias, name string) {
	r.aliases[alias] = name
}

func (r *Registry[V]) resolve(name string) string {
	if target, ok := r.aliases[name]; ok {
		return target
	}
	return name
}

// Select makes name, or the variant it is an alias of, the active variant.
func (r *Registry[V]) Select(name string) error {
	name = r.resolve(name)
	if _, ok := r.entries[name]; !ok {
		return fmt.Errorf("%w: %s engine %q does not exist (available: %s)",
			ErrUnknownEngine, r.kind, name, strings.Join(r.names, ", "))
	}
	r.active = name
	return nil
}

// Active returns the active variant and its name. ok is false before the first
// successful Select.
func (r *Registry[V]) Active() (name string, v V, ok bool) {
	if r.active == "" {
		return "", v, false
	}
	return r.active, r.entries[r.active], true
}

func (r *Registry[V]) Get(name string) (V, bool) {
	v, ok := r.entries[r.resolve(name)]
	return v, ok
}

func (r *Registry[V]) Has(name string) bool {
	_, ok := r.entries[r.resolve(name)]
	return ok
}

// Names lists variants in registration order.
func (r *Registry[V]) Names() []string {
	return slices.Clone(r.names)
}

func (r *Registry[V]) Kind() string { return r.kind }
