package macro

import (
	"fmt"
	"math"

	"github.com/dshills/widgetmacro/internal/host"
)

// Record is the structured form of a Macro written to macro files.
type Record struct {
	Name          *string       `json:"name" yaml:"name"`
	Speed         *float64      `json:"speed" yaml:"speed"`
	FormatVersion *int          `json:"format_version" yaml:"format_version"`
	Events        []EventRecord `json:"events" yaml:"events"`
}

// SpecRecord is the structured form of a WidgetSpec.
type SpecRecord struct {
	WidgetClass string `json:"widget_class" yaml:"widget_class"`
	Text        string `json:"text" yaml:"text"`
}

// PositionRecord is a Position flattened to [[lx, ly], [gx, gy]].
type PositionRecord [][]int

// EventRecord is the structured form of one event. Type selects the
// variant; only the fields of that variant are set.
type EventRecord struct {
	Type             string           `json:"type" yaml:"type"`
	WidgetSpec       *SpecRecord      `json:"widget_spec" yaml:"widget_spec"`
	MsSinceLastEvent *int             `json:"ms_since_last_event" yaml:"ms_since_last_event"`
	Key              *uint32          `json:"key,omitempty" yaml:"key,omitempty"`
	IsRelease        *bool            `json:"is_release,omitempty" yaml:"is_release,omitempty"`
	Button           *uint32          `json:"button,omitempty" yaml:"button,omitempty"`
	Buttons          *uint32          `json:"buttons,omitempty" yaml:"buttons,omitempty"`
	Modifiers        *uint32          `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Position         PositionRecord   `json:"position,omitempty" yaml:"position,omitempty"`
	Positions        []PositionRecord `json:"positions,omitempty" yaml:"positions,omitempty"`
}

// Serialize converts m to its structured record.
func Serialize(m Macro) Record {
	rec := Record{
		Speed:         ptr(m.Speed),
		FormatVersion: ptr(m.FormatVersion),
		Events:        make([]EventRecord, 0, len(m.Events)),
	}
	if m.Name != "" {
		rec.Name = ptr(m.Name)
	}
	for _, ev := range m.Events {
		rec.Events = append(rec.Events, serializeEvent(ev))
	}
	return rec
}

func serializeEvent(ev Event) EventRecord {
	spec := ev.Spec()
	rec := EventRecord{
		Type:             string(TypeOf(ev)),
		WidgetSpec:       &SpecRecord{WidgetClass: spec.WidgetClass, Text: spec.Text},
		MsSinceLastEvent: ptr(ev.Delay()),
	}
	switch e := ev.(type) {
	case KeyEvent:
		rec.Key = ptr(uint32(e.Key))
		rec.IsRelease = ptr(e.IsRelease)
		rec.Modifiers = ptr(uint32(e.Modifiers))
	case MouseEvent:
		rec.Position = flatten(e.Position)
		rec.IsRelease = ptr(e.IsRelease)
		rec.Button = ptr(uint32(e.Button))
		rec.Modifiers = ptr(uint32(e.Modifiers))
	case MouseDoubleClickEvent:
		rec.Position = flatten(e.Position)
		rec.Button = ptr(uint32(e.Button))
		rec.Modifiers = ptr(uint32(e.Modifiers))
	case MouseMoveEvent:
		rec.Positions = make([]PositionRecord, len(e.Positions))
		for i, p := range e.Positions {
			rec.Positions[i] = flatten(p)
		}
		rec.Buttons = ptr(uint32(e.Buttons))
		rec.Modifiers = ptr(uint32(e.Modifiers))
	}
	return rec
}

func flatten(p Position) PositionRecord {
	return PositionRecord{
		{p.Local.X, p.Local.Y},
		{p.Global.X, p.Global.Y},
	}
}

// Deserialize reconstructs a Macro from its record. A missing speed or
// format version takes its default; an unknown event type or a missing
// or invalid field yields a *MalformedMacroError.
func Deserialize(rec Record) (Macro, error) {
	m := Macro{Speed: 1.0, FormatVersion: FormatVersion}
	if rec.Name != nil {
		m.Name = *rec.Name
	}
	if rec.Speed != nil {
		s := *rec.Speed
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return Macro{}, malformed(-1, "speed", fmt.Sprintf("must be positive, got %v", s))
		}
		m.Speed = s
	}
	if rec.FormatVersion != nil {
		v := *rec.FormatVersion
		if v < 1 {
			return Macro{}, malformed(-1, "format_version", fmt.Sprintf("invalid version %d", v))
		}
		if v > FormatVersion {
			return Macro{}, fmt.Errorf("%w: %d (newest supported is %d)", ErrUnsupportedVersion, v, FormatVersion)
		}
		m.FormatVersion = v
	}
	if rec.Events == nil {
		return Macro{}, malformed(-1, "events", "missing")
	}

	m.Events = make([]Event, 0, len(rec.Events))
	for i, er := range rec.Events {
		ev, err := deserializeEvent(i, er)
		if err != nil {
			return Macro{}, err
		}
		m.Events = append(m.Events, ev)
	}
	return m, nil
}

func deserializeEvent(i int, rec EventRecord) (Event, error) {
	if rec.Type == "" {
		return nil, malformed(i, "type", "missing")
	}
	if rec.WidgetSpec == nil {
		return nil, malformed(i, "widget_spec", "missing")
	}
	if rec.MsSinceLastEvent == nil {
		return nil, malformed(i, "ms_since_last_event", "missing")
	}
	if *rec.MsSinceLastEvent < 0 {
		return nil, malformed(i, "ms_since_last_event", fmt.Sprintf("negative value %d", *rec.MsSinceLastEvent))
	}
	base := Base{
		WidgetSpec:       WidgetSpec{WidgetClass: rec.WidgetSpec.WidgetClass, Text: rec.WidgetSpec.Text},
		MsSinceLastEvent: *rec.MsSinceLastEvent,
	}
	mods := host.Modifiers(deref(rec.Modifiers))

	switch EventType(rec.Type) {
	case TypeKey:
		if rec.Key == nil {
			return nil, malformed(i, "key", "missing")
		}
		if rec.IsRelease == nil {
			return nil, malformed(i, "is_release", "missing")
		}
		return KeyEvent{
			Base:      base,
			Key:       host.Key(*rec.Key),
			IsRelease: *rec.IsRelease,
			Modifiers: mods,
		}, nil

	case TypeMouse:
		pos, err := unflatten(i, "position", rec.Position)
		if err != nil {
			return nil, err
		}
		if rec.IsRelease == nil {
			return nil, malformed(i, "is_release", "missing")
		}
		button, err := decodeButton(i, rec.Button)
		if err != nil {
			return nil, err
		}
		return MouseEvent{
			Base:      base,
			Position:  pos,
			IsRelease: *rec.IsRelease,
			Button:    button,
			Modifiers: mods,
		}, nil

	case TypeMouseDoubleClick:
		pos, err := unflatten(i, "position", rec.Position)
		if err != nil {
			return nil, err
		}
		button, err := decodeButton(i, rec.Button)
		if err != nil {
			return nil, err
		}
		return MouseDoubleClickEvent{
			Base:      base,
			Position:  pos,
			Button:    button,
			Modifiers: mods,
		}, nil

	case TypeMouseMove:
		if len(rec.Positions) == 0 {
			return nil, malformed(i, "positions", "missing")
		}
		positions := make([]Position, len(rec.Positions))
		for j, pr := range rec.Positions {
			p, err := unflatten(i, fmt.Sprintf("positions[%d]", j), pr)
			if err != nil {
				return nil, err
			}
			positions[j] = p
		}
		return MouseMoveEvent{
			Base:      base,
			Positions: positions,
			Buttons:   host.Buttons(deref(rec.Buttons)),
			Modifiers: mods,
		}, nil

	default:
		return nil, malformed(i, "type", fmt.Sprintf("unknown event type %q", rec.Type))
	}
}

func unflatten(i int, field string, pr PositionRecord) (Position, error) {
	if pr == nil {
		return Position{}, malformed(i, field, "missing")
	}
	if len(pr) != 2 || len(pr[0]) != 2 || len(pr[1]) != 2 {
		return Position{}, malformed(i, field, "want [[local_x, local_y], [global_x, global_y]]")
	}
	return Position{
		Local:  host.Point{X: pr[0][0], Y: pr[0][1]},
		Global: host.Point{X: pr[1][0], Y: pr[1][1]},
	}, nil
}

func decodeButton(i int, b *uint32) (host.Button, error) {
	if b == nil {
		return 0, malformed(i, "button", "missing")
	}
	if *b == 0 {
		return 0, malformed(i, "button", "no button set")
	}
	return host.Button(*b), nil
}

func ptr[T any](v T) *T {
	return &v
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
