package protocol

import (
	"github.com/pscheid92/themebridge/internal/configurable"
)

// Renderer is implemented by configurables that have their own full-profile
// form, such as overlay components.
type Renderer interface {
	Render(t *Table) any
}

func registerConfigurable(t *Table) {
	t.Register(Implements[*configurable.Value](), serializeValue)
	t.Register(Implements[configurable.Holder](), serializeConfigurable)
}

// serializeConfigurable renders {name, value, valueType}. Settings marked as
// not an option are left out, and in the full profile a Renderer takes over.
func serializeConfigurable(t *Table, v any) any {
	if r, ok := v.(Renderer); ok && t.profile == Full {
		return r.Render(t)
	}

	c := v.(configurable.Holder).Config()
	options := c.Options()
	values := make([]any, 0, len(options))
	for _, s := range options {
		if out, ok := t.encode(s); ok {
			values = append(values, out)
		}
	}

	return NewObject().
		Set("name", c.Name()).
		Set("value", values).
		Set("valueType", c.Type())
}

// serializeValue renders a single setting. The default value is never sent.
func serializeValue(t *Table, v any) any {
	val := v.(*configurable.Value)

	fields := []Field{
		F("name", val.Name()),
		F("value", val.Get()),
		F("valueType", string(val.Type())),
		Exclude("default", val.Default()),
	}
	if choices := val.Choices(); len(choices) > 0 {
		fields = append(fields, F("choices", choices))
	}
	if r, ok := val.Bounds(); ok {
		fields = append(fields, F("range", NewObject().Set("min", r.Min).Set("max", r.Max)))
	}
	return t.fields(fields)
}
