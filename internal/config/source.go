package config

import (
	"reflect"
	"sort"
)

// MapSource is an in-memory Source. The zero value is an empty source.
type MapSource map[string]string

// Lookup implements Source.
func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the keys held by the source in sorted order.
func (m MapSource) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// layer is one named Source inside a Layered chain.
type layer struct {
	name   string
	source Source
}

// Layered resolves a key against an ordered list of sources. The first layer
// holding the key wins. Layered is immutable once built and safe for
// concurrent reads as long as its sources are.
type Layered struct {
	layers []layer
}

// NewLayered returns an empty chain. Use With to add layers from highest to
// lowest priority.
func NewLayered() *Layered {
	return &Layered{}
}

// With returns a copy of the chain with src appended as the lowest-priority
// layer. A nil src is ignored. A nil chain behaves as an empty one.
func (l *Layered) With(name string, src Source) *Layered {
	var existing []layer
	if l != nil {
		existing = l.layers
	}
	if isNilSource(src) {
		return &Layered{layers: existing}
	}
	layers := make([]layer, len(existing), len(existing)+1)
	copy(layers, existing)
	return &Layered{layers: append(layers, layer{name: name, source: src})}
}

// Lookup implements Source.
func (l *Layered) Lookup(key string) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, ly := range l.layers {
		if v, ok := ly.source.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// Origin returns the name of the layer that supplies key.
func (l *Layered) Origin(key string) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, ly := range l.layers {
		if _, ok := ly.source.Lookup(key); ok {
			return ly.name, true
		}
	}
	return "", false
}

// Names lists the layer names from highest to lowest priority.
func (l *Layered) Names() []string {
	if l == nil {
		return nil
	}
	names := make([]string, 0, len(l.layers))
	for _, ly := range l.layers {
		names = append(names, ly.name)
	}
	return names
}

// Configurator converts Source lookups into typed results. Accessors for a
// specific job compose a Configurator and bind each getter to one key.
type Configurator struct {
	source Source
}

// NewConfigurator binds a Configurator to src. It fails with ErrUnavailable
// when src is nil, including a nil pointer such as (*Layered)(nil).
func NewConfigurator(src Source) (*Configurator, error) {
	if isNilSource(src) {
		return nil, unavailable("configuration source cannot be obtained", nil)
	}
	return &Configurator{source: src}, nil
}

// isNilSource reports whether src is nil or wraps a nil pointer or func. A nil
// MapSource is an empty source, not a missing one.
func isNilSource(src Source) bool {
	if src == nil {
		return true
	}
	v := reflect.ValueOf(src)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Source returns the bound source.
func (c *Configurator) Source() Source {
	return c.source
}

// GetString returns the value for key verbatim. It fails with ErrMissing when
// the key is absent.
func (c *Configurator) GetString(key string) (string, error) {
	v, ok := c.source.Lookup(key)
	if !ok {
		return "", missingKeyError(key)
	}
	return v, nil
}
