package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pscheid92/themebridge/internal/configurable"
	"github.com/pscheid92/themebridge/internal/domain"
	"github.com/pscheid92/themebridge/internal/protocol"
)

const configName = "components"

// Persistence stores the component list through a ConfigStore.
type Persistence struct {
	store domain.ConfigStore
	table *protocol.Table
}

func NewPersistence(store domain.ConfigStore, table *protocol.Table) *Persistence {
	return &Persistence{store: store, table: table}
}

type record struct {
	component *Component
}

func (r record) WireFields() []protocol.Field {
	return []protocol.Field{
		protocol.F("type", string(r.component.typ)),
		protocol.F("origin", string(r.component.origin)),
		protocol.F("config", r.component),
	}
}

type storedRecord struct {
	Type   string          `json:"type"`
	Origin string          `json:"origin"`
	Config json.RawMessage `json:"config"`
}

func (p *Persistence) Save(ctx context.Context, components []*Component) error {
	records := make([]record, len(components))
	for i, c := range components {
		records[i] = record{component: c}
	}

	data, err := p.table.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode components: %w", err)
	}
	if err := p.store.Store(ctx, configName, data); err != nil {
		return fmt.Errorf("failed to store components: %w", err)
	}
	return nil
}

// Load reads the stored list. Records that no longer decode are logged and
// skipped. A missing document yields an empty list.
func (p *Persistence) Load(ctx context.Context) ([]*Component, error) {
	data, err := p.store.Load(ctx, configName)
	if errors.Is(err, domain.ErrConfigNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load components: %w", err)
	}

	var stored []storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode components: %w", err)
	}

	components := make([]*Component, 0, len(stored))
	for _, r := range stored {
		c, err := decodeRecord(r)
		if err != nil {
			slog.Warn("Skipping stored component", "type", r.Type, "error", err)
			continue
		}
		components = append(components, c)
	}
	return components, nil
}

func decodeRecord(r storedRecord) (*Component, error) {
	t, err := ParseType(r.Type)
	if err != nil {
		return nil, err
	}

	var head struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(r.Config, &head); err != nil {
		return nil, fmt.Errorf("component config: %w", err)
	}
	if head.Name == "" {
		head.Name = t.DisplayName()
	}

	c, err := New(t, head.Name)
	if err != nil {
		return nil, err
	}
	if Origin(r.Origin) == OriginTheme {
		c.FromTheme()
	}
	if err := configurable.Decode(c.Configurable, r.Config); err != nil {
		return nil, err
	}
	return c, nil
}
