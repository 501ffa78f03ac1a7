package configurable

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ValueType names the kind of a setting on the wire.
type ValueType string

const (
	TypeBoolean      ValueType = "BOOLEAN"
	TypeInt          ValueType = "INT"
	TypeFloat        ValueType = "FLOAT"
	TypeText         ValueType = "TEXT"
	TypeChoose       ValueType = "CHOOSE"
	TypeList         ValueType = "LIST"
	TypeConfigurable ValueType = "CONFIGURABLE"
)

var (
	ErrTypeMismatch  = errors.New("value type mismatch")
	ErrOutOfRange    = errors.New("value out of range")
	ErrUnknownChoice = errors.New("unknown choice")
)

// Setting is anything that can live inside a Configurable.
type Setting interface {
	Name() string
	Type() ValueType
	// NotAnOption marks internal state that is persisted nowhere and never
	// shown to the page.
	NotAnOption() bool
}

type Range struct {
	Min float64
	Max float64
}

// Value is a single typed setting.
type Value struct {
	mu sync.RWMutex

	name         string
	valueType    ValueType
	current      any
	defaultValue any
	choices      []string
	bounds       *Range
	notAnOption  bool
}

func NewBoolean(name string, def bool) *Value {
	return &Value{name: name, valueType: TypeBoolean, current: def, defaultValue: def}
}

func NewInt(name string, def, minimum, maximum int) *Value {
	return &Value{
		name: name, valueType: TypeInt, current: def, defaultValue: def,
		bounds: &Range{Min: float64(minimum), Max: float64(maximum)},
	}
}

func NewFloat(name string, def, minimum, maximum float64) *Value {
	return &Value{
		name: name, valueType: TypeFloat, current: def, defaultValue: def,
		bounds: &Range{Min: minimum, Max: maximum},
	}
}

func NewText(name, def string) *Value {
	return &Value{name: name, valueType: TypeText, current: def, defaultValue: def}
}

func NewChoose(name, def string, choices ...string) *Value {
	return &Value{name: name, valueType: TypeChoose, current: def, defaultValue: def, choices: choices}
}

func NewList(name string, def ...string) *Value {
	return &Value{name: name, valueType: TypeList, current: slices.Clone(def), defaultValue: slices.Clone(def)}
}

// Hidden marks the value as not an option.
func (v *Value) Hidden() *Value {
	v.notAnOption = true
	return v
}

func (v *Value) Name() string      { return v.name }
func (v *Value) Type() ValueType   { return v.valueType }
func (v *Value) NotAnOption() bool { return v.notAnOption }
func (v *Value) Choices() []string { return slices.Clone(v.choices) }

func (v *Value) Bounds() (Range, bool) {
	if v.bounds == nil {
		return Range{}, false
	}
	return *v.bounds, true
}

// Get returns the current value. Lists are copied.
func (v *Value) Get() any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if list, ok := v.current.([]string); ok {
		return slices.Clone(list)
	}
	return v.current
}

func (v *Value) Default() any {
	return v.defaultValue
}

func (v *Value) Bool() bool {
	b, _ := v.Get().(bool)
	return b
}

func (v *Value) Int() int {
	i, _ := v.Get().(int)
	return i
}

func (v *Value) Float() float64 {
	f, _ := v.Get().(float64)
	return f
}

func (v *Value) Text() string {
	s, _ := v.Get().(string)
	return s
}

func (v *Value) List() []string {
	l, _ := v.Get().([]string)
	return l
}

// Set validates and stores a new value.
func (v *Value) Set(val any) error {
	normalized, err := v.normalize(val)
	if err != nil {
		return fmt.Errorf("set %q: %w", v.name, err)
	}
	v.mu.Lock()
	v.current = normalized
	v.mu.Unlock()
	return nil
}

// Reset restores the default value.
func (v *Value) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if list, ok := v.defaultValue.([]string); ok {
		v.current = slices.Clone(list)
		return
	}
	v.current = v.defaultValue
}

// SetJSON decodes raw into the value's type and stores it.
func (v *Value) SetJSON(raw json.RawMessage) error {
	var decoded any
	var err error
	switch v.valueType {
	case TypeBoolean:
		var b bool
		err = json.Unmarshal(raw, &b)
		decoded = b
	case TypeInt:
		var i int
		err = json.Unmarshal(raw, &i)
		decoded = i
	case TypeFloat:
		var f float64
		err = json.Unmarshal(raw, &f)
		decoded = f
	case TypeText, TypeChoose:
		var s string
		err = json.Unmarshal(raw, &s)
		decoded = s
	case TypeList:
		var l []string
		err = json.Unmarshal(raw, &l)
		decoded = l
	default:
		return fmt.Errorf("set %q: %w: %s", v.name, ErrTypeMismatch, v.valueType)
	}
	if err != nil {
		return fmt.Errorf("set %q: %w: %v", v.name, ErrTypeMismatch, err)
	}
	return v.Set(decoded)
}

func (v *Value) normalize(val any) (any, error) {
	switch v.valueType {
	case TypeBoolean:
		if b, ok := val.(bool); ok {
			return b, nil
		}
	case TypeInt:
		if i, ok := val.(int); ok {
			if err := v.checkBounds(float64(i)); err != nil {
				return nil, err
			}
			return i, nil
		}
	case TypeFloat:
		f, ok := val.(float64)
		if i, isInt := val.(int); isInt {
			f, ok = float64(i), true
		}
		if ok {
			if err := v.checkBounds(f); err != nil {
				return nil, err
			}
			return f, nil
		}
	case TypeText:
		if s, ok := val.(string); ok {
			return s, nil
		}
	case TypeChoose:
		if s, ok := val.(string); ok {
			if !slices.Contains(v.choices, s) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownChoice, s)
			}
			return s, nil
		}
	case TypeList:
		if l, ok := val.([]string); ok {
			return slices.Clone(l), nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s", ErrTypeMismatch, val, v.valueType)
}

func (v *Value) checkBounds(f float64) error {
	if v.bounds == nil {
		return nil
	}
	if f < v.bounds.Min || f > v.bounds.Max {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, f, v.bounds.Min, v.bounds.Max)
	}
	return nil
}
