package macro

import (
	"slices"
	"time"
)

// FormatVersion is the version written to serialized macros.
const FormatVersion = 1

// Macro is an ordered, named, replayable sequence of events.
type Macro struct {
	Events []Event
	// Name is optional; an empty name is serialized as null.
	Name string
	// Speed multiplies every event delay during playback.
	Speed         float64
	FormatVersion int
}

// New returns a macro holding events at normal speed.
func New(events ...Event) Macro {
	return Macro{
		Events:        events,
		Speed:         1.0,
		FormatVersion: FormatVersion,
	}
}

// Named returns a copy of m with its name set.
func (m Macro) Named(name string) Macro {
	m.Name = name
	return m
}

// Len returns the number of events.
func (m Macro) Len() int {
	return len(m.Events)
}

// Empty reports whether the macro has no events.
func (m Macro) Empty() bool {
	return len(m.Events) == 0
}

// Duration returns the nominal playback time at speed 1.
func (m Macro) Duration() time.Duration {
	var total int
	for _, ev := range m.Events {
		total += ev.Delay()
	}
	return time.Duration(total) * time.Millisecond
}

// Clone returns a deep copy of m.
func (m Macro) Clone() Macro {
	events := make([]Event, len(m.Events))
	for i, ev := range m.Events {
		events[i] = WithDelay(ev, ev.Delay())
	}
	m.Events = events
	return m
}

// Equal reports field-for-field equality, timing included.
func (m Macro) Equal(o Macro) bool {
	return m.Name == o.Name &&
		m.Speed == o.Speed &&
		m.FormatVersion == o.FormatVersion &&
		EqualEvents(m.Events, o.Events)
}

// Similar is Equal with event timing compared within MsEpsilon.
func (m Macro) Similar(o Macro) bool {
	return m.Name == o.Name &&
		m.Speed == o.Speed &&
		SimilarEvents(m.Events, o.Events)
}

// Counts returns how many events of each type m holds.
func (m Macro) Counts() map[EventType]int {
	counts := make(map[EventType]int, 4)
	for _, ev := range m.Events {
		counts[TypeOf(ev)]++
	}
	return counts
}

// Widgets returns the distinct widget specs m targets in first-use order.
func (m Macro) Widgets() []WidgetSpec {
	var specs []WidgetSpec
	for _, ev := range m.Events {
		if !slices.Contains(specs, ev.Spec()) {
			specs = append(specs, ev.Spec())
		}
	}
	return specs
}
