package macro

import (
	"fmt"
	"slices"

	"github.com/dshills/widgetmacro/internal/host"
)

// MsEpsilon is the timing tolerance used by Similar.
const MsEpsilon = 50

// EventType is the discriminator written to macro files.
type EventType string

// Event types.
const (
	TypeKey              EventType = "KeyEvent"
	TypeMouse            EventType = "MouseEvent"
	TypeMouseDoubleClick EventType = "MouseDoubleClickEvent"
	TypeMouseMove        EventType = "MouseMoveEvent"
)

// Event is one recorded input action. The set of implementations is closed:
// KeyEvent, MouseEvent, MouseDoubleClickEvent and MouseMoveEvent.
type Event interface {
	// Spec returns the fingerprint of the widget the event targeted.
	Spec() WidgetSpec
	// Delay returns the milliseconds elapsed since the previous event.
	Delay() int

	eventType() EventType
}

// TypeOf returns the discriminator of ev.
func TypeOf(ev Event) EventType {
	return ev.eventType()
}

// Base holds the fields shared by every event.
type Base struct {
	WidgetSpec       WidgetSpec
	MsSinceLastEvent int
}

// Spec implements Event.
func (b Base) Spec() WidgetSpec { return b.WidgetSpec }

// Delay implements Event.
func (b Base) Delay() int { return b.MsSinceLastEvent }

// KeyEvent is a key press or release. It is replayed against the focused
// widget since keyboards have no location.
type KeyEvent struct {
	Base
	Key       host.Key
	IsRelease bool
	Modifiers host.Modifiers
}

func (KeyEvent) eventType() EventType { return TypeKey }

func (e KeyEvent) String() string {
	action := "press"
	if e.IsRelease {
		action = "release"
	}
	return fmt.Sprintf("KeyEvent(%s key=%#x mods=%s ms=%d widget=%s)",
		action, uint32(e.Key), e.Modifiers, e.MsSinceLastEvent, e.WidgetSpec)
}

// MouseEvent is a mouse button press or release.
type MouseEvent struct {
	Base
	Position  Position
	IsRelease bool
	Button    host.Button
	Modifiers host.Modifiers
}

func (MouseEvent) eventType() EventType { return TypeMouse }

func (e MouseEvent) String() string {
	action := "press"
	if e.IsRelease {
		action = "release"
	}
	return fmt.Sprintf("MouseEvent(%s %s at %v mods=%s ms=%d widget=%s)",
		e.Button, action, e.Position.Global, e.Modifiers, e.MsSinceLastEvent, e.WidgetSpec)
}

// MouseDoubleClickEvent is a double click.
type MouseDoubleClickEvent struct {
	Base
	Position  Position
	Button    host.Button
	Modifiers host.Modifiers
}

func (MouseDoubleClickEvent) eventType() EventType { return TypeMouseDoubleClick }

func (e MouseDoubleClickEvent) String() string {
	return fmt.Sprintf("MouseDoubleClickEvent(%s at %v mods=%s ms=%d widget=%s)",
		e.Button, e.Position.Global, e.Modifiers, e.MsSinceLastEvent, e.WidgetSpec)
}

// MouseMoveEvent is a pointer path. A non-zero Buttons mask marks a drag,
// replayed as synthetic move events instead of pointer warps.
type MouseMoveEvent struct {
	Base
	Positions []Position
	Buttons   host.Buttons
	Modifiers host.Modifiers
}

func (MouseMoveEvent) eventType() EventType { return TypeMouseMove }

// IsDrag reports whether buttons were held during the move.
func (e MouseMoveEvent) IsDrag() bool {
	return e.Buttons != host.NoButtons
}

// AddPosition appends p unless it repeats the last position.
func (e *MouseMoveEvent) AddPosition(p Position) {
	if n := len(e.Positions); n > 0 && e.Positions[n-1] == p {
		return
	}
	e.Positions = append(e.Positions, p)
}

func (e MouseMoveEvent) String() string {
	ends := e.Positions
	if len(ends) > 2 {
		ends = []Position{ends[0], ends[len(ends)-1]}
	}
	globals := make([]host.Point, len(ends))
	for i, p := range ends {
		globals[i] = p.Global
	}
	return fmt.Sprintf("MouseMoveEvent(%d points %v buttons=%#x mods=%s ms=%d widget=%s)",
		len(e.Positions), globals, uint32(e.Buttons), e.Modifiers, e.MsSinceLastEvent, e.WidgetSpec)
}

// WithDelay returns a copy of ev with its delay replaced.
func WithDelay(ev Event, ms int) Event {
	switch e := ev.(type) {
	case KeyEvent:
		e.MsSinceLastEvent = ms
		return e
	case MouseEvent:
		e.MsSinceLastEvent = ms
		return e
	case MouseDoubleClickEvent:
		e.MsSinceLastEvent = ms
		return e
	case MouseMoveEvent:
		e.MsSinceLastEvent = ms
		e.Positions = slices.Clone(e.Positions)
		return e
	default:
		panic(fmt.Sprintf("macro: unknown event type %T", ev))
	}
}

// Equal reports exact equality, timing included.
func Equal(a, b Event) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Delay() == b.Delay() && sameAction(a, b)
}

// Similar reports equality with the timing compared within MsEpsilon.
func Similar(a, b Event) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	d := a.Delay() - b.Delay()
	if d < 0 {
		d = -d
	}
	return d < MsEpsilon && sameAction(a, b)
}

// sameAction compares every field except the delay.
func sameAction(a, b Event) bool {
	if a.Spec() != b.Spec() {
		return false
	}
	switch x := a.(type) {
	case KeyEvent:
		y, ok := b.(KeyEvent)
		return ok && x.Key == y.Key && x.IsRelease == y.IsRelease && x.Modifiers == y.Modifiers
	case MouseEvent:
		y, ok := b.(MouseEvent)
		return ok && x.Position == y.Position && x.IsRelease == y.IsRelease &&
			x.Button == y.Button && x.Modifiers == y.Modifiers
	case MouseDoubleClickEvent:
		y, ok := b.(MouseDoubleClickEvent)
		return ok && x.Position == y.Position && x.Button == y.Button && x.Modifiers == y.Modifiers
	case MouseMoveEvent:
		y, ok := b.(MouseMoveEvent)
		return ok && slices.Equal(x.Positions, y.Positions) &&
			x.Buttons == y.Buttons && x.Modifiers == y.Modifiers
	default:
		return false
	}
}

// EqualEvents compares two event slices with Equal.
func EqualEvents(a, b []Event) bool {
	return slices.EqualFunc(a, b, Equal)
}

// SimilarEvents compares two event slices with Similar.
func SimilarEvents(a, b []Event) bool {
	return slices.EqualFunc(a, b, Similar)
}
