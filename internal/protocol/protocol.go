package protocol

import (
	"github.com/pscheid92/themebridge/internal/domain"
)

// NewFull builds the table used for live UI state. Components render their
// own form and every domain type the pages display has a transform.
func NewFull(opts ...Option) *Table {
	t := NewTable(Full, opts...)
	registerConfigurable(t)
	t.Register(Is[domain.ServerEntry](), serializeServerEntry)
	registerGame(t)
	return t
}

// NewStripped builds the table used for configuration introspection, where
// every configurable has the same generic shape.
func NewStripped(opts ...Option) *Table {
	t := NewTable(Stripped, opts...)
	registerConfigurable(t)
	return t
}

// Protocol bundles both standard tables.
type Protocol struct {
	full     *Table
	stripped *Table
}

func New(opts ...Option) *Protocol {
	return &Protocol{full: NewFull(opts...), stripped: NewStripped(opts...)}
}

func (p *Protocol) Table(profile Profile) *Table {
	if profile == Stripped {
		return p.stripped
	}
	return p.full
}

func (p *Protocol) Serialize(v any, profile Profile) any {
	return p.Table(profile).Serialize(v)
}

func (p *Protocol) Marshal(v any, profile Profile) ([]byte, error) {
	return p.Table(profile).Marshal(v)
}
