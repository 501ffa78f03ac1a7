package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pscheid92/themebridge/internal/configurable"
	"github.com/pscheid92/themebridge/internal/protocol"
)

// Type is the kind of overlay element.
type Type string

const (
	TypeText  Type = "text"
	TypeFrame Type = "frame"
	TypeImage Type = "image"
	TypeHTML  Type = "html"
)

// Types lists every component type in menu order.
var Types = []Type{TypeText, TypeFrame, TypeImage, TypeHTML}

var ErrUnknownType = errors.New("unknown component type")

// Origin records who created a component.
type Origin string

const (
	OriginTheme Origin = "theme"
	OriginUser  Origin = "user"
)

func ParseType(name string) (Type, error) {
	for _, t := range Types {
		if strings.EqualFold(string(t), name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// DisplayName is the base name given to new components of this type.
func (t Type) DisplayName() string {
	switch t {
	case TypeHTML:
		return "HTML"
	default:
		return strings.ToUpper(string(t[:1])) + string(t[1:])
	}
}

// Component is a single overlay element. Its settings are a configurable so
// the page can edit it like any other setting.
type Component struct {
	*configurable.Configurable

	typ       Type
	origin    Origin
	enabled   *configurable.Value
	alignment *configurable.Configurable
}

// New creates a component of type t with the default settings for that type.
func New(t Type, name string) (*Component, error) {
	payload, err := payloadFor(t)
	if err != nil {
		return nil, err
	}

	c := &Component{
		typ:     t,
		origin:  OriginUser,
		enabled: configurable.NewBoolean("Enabled", true),
		alignment: configurable.New("Alignment",
			configurable.NewChoose("Horizontal", "Left", "Left", "Center", "Right"),
			configurable.NewInt("HorizontalOffset", 4, -10000, 10000),
			configurable.NewChoose("Vertical", "Top", "Top", "Center", "Bottom"),
			configurable.NewInt("VerticalOffset", 4, -10000, 10000),
		),
	}
	c.Configurable = configurable.New(name, c.enabled, c.alignment)
	c.Add(payload...)
	return c, nil
}

func payloadFor(t Type) ([]configurable.Setting, error) {
	switch t {
	case TypeText:
		return []configurable.Setting{
			configurable.NewText("Text", "Hello"),
			configurable.NewFloat("Scale", 1, 0.25, 4),
		}, nil
	case TypeFrame:
		return []configurable.Setting{
			configurable.NewText("URL", "about:blank"),
			configurable.NewInt("Width", 320, 1, 3840),
			configurable.NewInt("Height", 180, 1, 2160),
		}, nil
	case TypeImage:
		return []configurable.Setting{
			configurable.NewText("Source", ""),
			configurable.NewFloat("Scale", 1, 0.25, 4),
		}, nil
	case TypeHTML:
		return []configurable.Setting{
			configurable.NewText("Code", ""),
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
}

func (c *Component) ComponentType() Type { return c.typ }
func (c *Component) Origin() Origin      { return c.origin }
func (c *Component) Enabled() bool       { return c.enabled.Bool() }

// FromTheme marks c as provided by the active theme.
func (c *Component) FromTheme() *Component {
	c.origin = OriginTheme
	return c
}

// Render is the full-profile form:
// {name, type, enabled, alignment: {...}, settings: {name: value}}.
func (c *Component) Render(t *protocol.Table) any {
	return protocol.NewObject().
		Set("name", c.Name()).
		Set("type", string(c.typ)).
		Set("enabled", c.Enabled()).
		Set("alignment", settingsMap(t, c.alignment)).
		Set("settings", settingsMap(t, c.Configurable))
}

func settingsMap(t *protocol.Table, c *configurable.Configurable) *protocol.Object {
	obj := protocol.NewObject()
	for _, s := range c.Options() {
		switch v := s.(type) {
		case *configurable.Value:
			t.Put(obj, v.Name(), v.Get())
		case configurable.Holder:
			obj.Set(v.Config().Name(), settingsMap(t, v.Config()))
		}
	}
	return obj
}
