// Package protocol turns native objects into the JSON wire format consumed by
// the embedded browser surface.
//
// A Table is an ordered list of (predicate, transform) pairs. The first
// predicate that matches a value decides how it is rendered; values no
// predicate claims go through the structural transform, which understands
// primitives, byte slices, slices, string-keyed maps, Structured types and
// plain structs, whose exported fields map to camel-cased JSON keys.
// Anything else is a serialization gap: it is logged and left out of the
// surrounding array or object instead of failing the whole response.
package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Profile selects how a Table renders types with a richer representation.
type Profile int

const (
	// Full lets types substitute their own rendering.
	Full Profile = iota
	// Stripped always uses the generic form.
	Stripped
)

func (p Profile) String() string {
	switch p {
	case Full:
		return "full"
	case Stripped:
		return "stripped"
	default:
		return fmt.Sprintf("Profile(%d)", int(p))
	}
}

// Predicate reports whether a transform applies to v.
type Predicate func(v any) bool

// Transform renders v. Nested values go back through t so registered
// transforms apply at every depth.
type Transform func(t *Table, v any) any

type entry struct {
	matches   Predicate
	transform Transform
}

type Table struct {
	profile         Profile
	entries         []entry
	logger          *slog.Logger
	protocolVersion int
}

type Option func(*Table)

// WithLogger sets the logger used to report serialization gaps.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) { t.logger = l }
}

// WithProtocolVersion sets the version server entries are compared against.
func WithProtocolVersion(v int) Option {
	return func(t *Table) { t.protocolVersion = v }
}

// NewTable returns an empty table that only knows the structural transform.
func NewTable(profile Profile, opts ...Option) *Table {
	t := &Table{profile: profile, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) Profile() Profile { return t.profile }

func (t *Table) ProtocolVersion() int { return t.protocolVersion }

// Register appends a transform. Earlier registrations win.
func (t *Table) Register(matches Predicate, transform Transform) *Table {
	t.entries = append(t.entries, entry{matches: matches, transform: transform})
	return t
}

// Serialize renders v. A gap at the top level yields nil.
func (t *Table) Serialize(v any) any {
	out, _ := t.encode(v)
	return out
}

// Marshal serializes v and encodes the result as JSON.
func (t *Table) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(t.Serialize(v))
	if err != nil {
		return nil, fmt.Errorf("marshal %T (%s): %w", v, t.profile, err)
	}
	return data, nil
}

// Put serializes v into o under key, dropping the key on a gap.
func (t *Table) Put(o *Object, key string, v any) {
	if out, ok := t.encode(v); ok {
		o.Set(key, out)
	}
}

func (t *Table) encode(v any) (any, bool) {
	if v == nil {
		return nil, true
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, true
	}
	for _, e := range t.entries {
		if e.matches(v) {
			return e.transform(t, v), true
		}
	}
	return t.structural(v)
}

func (t *Table) structural(v any) (any, bool) {
	switch val := v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, true
	case []byte:
		return base64.StdEncoding.EncodeToString(val), true
	case *Object:
		return val, true
	case Structured:
		return t.fields(val.WireFields()), true
	case json.Marshaler:
		return val, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return t.encode(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, true
		}
		out := make([]any, 0, rv.Len())
		for i := range rv.Len() {
			if item, ok := t.encode(rv.Index(i).Interface()); ok {
				out = append(out, item)
			}
		}
		return out, true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		keys := make([]string, 0, rv.Len())
		byName := make(map[string]reflect.Value, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
			byName[k.String()] = k
		}
		slices.Sort(keys)
		obj := NewObject()
		for _, k := range keys {
			t.Put(obj, k, rv.MapIndex(byName[k]).Interface())
		}
		return obj, true
	case reflect.Struct:
		if obj, ok := t.structFields(rv); ok {
			return obj, true
		}
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}

	t.logger.Warn("serialization gap, value omitted",
		"type", fmt.Sprintf("%T", v), "profile", t.profile.String())
	return nil, false
}

// structFields renders the exported fields of a struct in declaration order.
// A `json` tag renames a field, excludes it with "-" and honours omitempty.
// Nil pointers, slices and maps are left out. Structs without exported
// fields are not rendered.
func (t *Table) structFields(rv reflect.Value) (*Object, bool) {
	typ := rv.Type()
	fields := make([]Field, 0, typ.NumField())
	for i := range typ.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := rv.Field(i)
		name, opts := wireName(sf)
		if opts == "-" {
			fields = append(fields, Exclude(name, fv.Interface()))
			continue
		}
		absent := isNil(fv) || (opts == "omitempty" && fv.IsZero())
		fields = append(fields, Optional(name, fv.Interface(), !absent))
	}
	if len(fields) == 0 {
		return nil, false
	}
	return t.fields(fields), true
}

// wireName returns the key for sf and "-" or "omitempty" when the tag asks
// for either.
func wireName(sf reflect.StructField) (string, string) {
	tag, _ := sf.Tag.Lookup("json")
	name, opts, hasOpts := strings.Cut(tag, ",")
	if name == "-" && !hasOpts {
		return sf.Name, "-"
	}
	omit := ""
	if slices.Contains(strings.Split(opts, ","), "omitempty") {
		omit = "omitempty"
	}
	if name != "" {
		return name, omit
	}
	r, size := utf8.DecodeRuneInString(sf.Name)
	return string(unicode.ToLower(r)) + sf.Name[size:], omit
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

func (t *Table) fields(fields []Field) *Object {
	obj := NewObject()
	for _, f := range fields {
		if f.Excluded {
			continue
		}
		if f.Absent {
			if f.Nullable {
				obj.Set(f.Name, nil)
			}
			continue
		}
		t.Put(obj, f.Name, f.Value)
	}
	return obj
}

// Is matches values of type T and non-nil pointers to T.
func Is[T any]() Predicate {
	return func(v any) bool {
		switch p := v.(type) {
		case T:
			return true
		case *T:
			return p != nil
		}
		return false
	}
}

// Implements matches values whose dynamic type satisfies I.
func Implements[I any]() Predicate {
	return func(v any) bool {
		_, ok := v.(I)
		return ok
	}
}

// deref returns v as a T whether it was passed by value or by pointer.
func deref[T any](v any) T {
	if p, ok := v.(*T); ok {
		return *p
	}
	return v.(T)
}
