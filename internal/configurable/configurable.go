// Package configurable is the settings tree that the wire protocol exposes:
// named, typed values grouped into configurables, with a decoder that reads
// the protocol's JSON back into an existing tree.
package configurable

import (
	"strings"
	"sync"
)

// Configurable is a named, ordered group of settings. It is itself a setting,
// so groups nest.
type Configurable struct {
	mu sync.RWMutex

	name        string
	settings    []Setting
	notAnOption bool
}

func New(name string, settings ...Setting) *Configurable {
	return &Configurable{name: name, settings: settings}
}

func (c *Configurable) Name() string      { return c.name }
func (c *Configurable) Type() ValueType   { return TypeConfigurable }
func (c *Configurable) NotAnOption() bool { return c.notAnOption }

// Config lets types that embed a Configurable be treated as one.
func (c *Configurable) Config() *Configurable { return c }

// Add appends settings and returns c for chaining.
func (c *Configurable) Add(settings ...Setting) *Configurable {
	c.mu.Lock()
	c.settings = append(c.settings, settings...)
	c.mu.Unlock()
	return c
}

// Settings returns a copy of the settings in declaration order.
func (c *Configurable) Settings() []Setting {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Setting, len(c.settings))
	copy(out, c.settings)
	return out
}

// Options returns the settings the page may see.
func (c *Configurable) Options() []Setting {
	all := c.Settings()
	out := all[:0]
	for _, s := range all {
		if !s.NotAnOption() {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a direct child by name, case-insensitively.
func (c *Configurable) Lookup(name string) (Setting, bool) {
	for _, s := range c.Settings() {
		if strings.EqualFold(s.Name(), name) {
			return s, true
		}
	}
	return nil, false
}

// Value finds a direct child value by name.
func (c *Configurable) Value(name string) (*Value, bool) {
	s, ok := c.Lookup(name)
	if !ok {
		return nil, false
	}
	v, ok := s.(*Value)
	return v, ok
}

// Holder is implemented by every type that is, or embeds, a Configurable.
type Holder interface {
	Config() *Configurable
}
