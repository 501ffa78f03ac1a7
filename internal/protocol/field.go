package protocol

// Field is one member of a structured value. Excluded fields never reach the
// wire under any profile. Absent fields are skipped unless Nullable, in which
// case they are written as null.
type Field struct {
	Name     string
	Value    any
	Excluded bool
	Absent   bool
	Nullable bool
}

// Structured is implemented by types that describe their own wire fields.
type Structured interface {
	WireFields() []Field
}

func F(name string, value any) Field {
	return Field{Name: name, Value: value}
}

// Exclude declares a field that exists on the type but is never serialized.
func Exclude(name string, value any) Field {
	return Field{Name: name, Value: value, Excluded: true}
}

// Optional declares a field that is omitted when present is false.
func Optional(name string, value any, present bool) Field {
	return Field{Name: name, Value: value, Absent: !present}
}

// Nullable declares a field that is written as null when present is false.
func Nullable(name string, value any, present bool) Field {
	return Field{Name: name, Value: value, Absent: !present, Nullable: true}
}
