package configurable

import (
	"encoding/json"
	"errors"
	"fmt"
)

type genericForm struct {
	Name  string            `json:"name"`
	Value []json.RawMessage `json:"value"`
}

type entryForm struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

type settingsForm struct {
	Settings map[string]json.RawMessage `json:"settings"`
}

// Decode applies a serialized configurable onto c. Both the generic shape
// ({name, value: [...], valueType}) and the component shape
// ({..., settings: {name: value}}) are accepted. Settings are matched by
// name; unknown names are skipped. Every failing setting is reported in the
// joined error while the rest are still applied.
func Decode(c *Configurable, data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode %q: %w", c.Name(), err)
	}

	if _, ok := probe["settings"]; ok {
		var form settingsForm
		if err := json.Unmarshal(data, &form); err != nil {
			return fmt.Errorf("decode %q settings: %w", c.Name(), err)
		}
		return decodeSettings(c, form.Settings)
	}

	var form genericForm
	if err := json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("decode %q: %w", c.Name(), err)
	}
	return decodeEntries(c, form.Value)
}

func decodeEntries(c *Configurable, entries []json.RawMessage) error {
	var errs []error
	for _, raw := range entries {
		var entry entryForm
		if err := json.Unmarshal(raw, &entry); err != nil {
			errs = append(errs, fmt.Errorf("decode %q entry: %w", c.Name(), err))
			continue
		}
		setting, ok := c.Lookup(entry.Name)
		if !ok {
			continue
		}
		if err := apply(setting, entry.Value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func decodeSettings(c *Configurable, settings map[string]json.RawMessage) error {
	var errs []error
	for _, setting := range c.Settings() {
		raw, ok := settings[setting.Name()]
		if !ok {
			continue
		}
		if err := apply(setting, raw); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func apply(setting Setting, value json.RawMessage) error {
	switch s := setting.(type) {
	case *Value:
		return s.SetJSON(value)
	case Holder:
		nested := s.Config()
		var probe any
		if err := json.Unmarshal(value, &probe); err != nil {
			return fmt.Errorf("decode %q: %w", nested.Name(), err)
		}
		switch probe.(type) {
		case []any:
			return decodeEntries(nested, splitArray(value))
		case map[string]any:
			var m map[string]json.RawMessage
			_ = json.Unmarshal(value, &m)
			return decodeSettings(nested, m)
		}
		return fmt.Errorf("decode %q: %w", nested.Name(), ErrTypeMismatch)
	}
	return fmt.Errorf("decode %q: unsupported setting %T", setting.Name(), setting)
}

func splitArray(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	_ = json.Unmarshal(raw, &items)
	return items
}
