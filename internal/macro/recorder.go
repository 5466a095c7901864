package macro

import (
	"log/slog"
	"slices"
	"time"

	"github.com/dshills/widgetmacro/internal/host"
)

// RecorderState is the state of a Recorder.
type RecorderState int

// Recorder states.
const (
	RecorderIdle RecorderState = iota
	RecorderRecording
)

func (s RecorderState) String() string {
	switch s {
	case RecorderIdle:
		return "idle"
	case RecorderRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithPrimarySurface restricts mouse-move capture to w and its
// descendants. Without a primary surface moves are captured everywhere.
func WithPrimarySurface(w host.Widget) RecorderOption {
	return func(r *Recorder) {
		r.primary = w
	}
}

// WithMoveFiltering enables or disables stop-time trimming of move noise.
// It is enabled by default.
func WithMoveFiltering(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.filterMoves = enabled
	}
}

// WithTrimTrailingMoves controls whether a move gesture ending the
// recording is dropped when move filtering is enabled. Default true.
func WithTrimTrailingMoves(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.trimTrailing = enabled
	}
}

// WithMoveInterpolation resamples every recorded move gesture longer than
// n points down to n points. Values below 2 disable resampling.
func WithMoveInterpolation(n int) RecorderOption {
	return func(r *Recorder) {
		r.interpolation = n
	}
}

// WithRecorderLogger sets the recorder's logger.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Recorder captures application input into a Macro.
//
// While recording, every input event seen by the host's event filters is
// timestamped relative to the previous one and appended, subject to the
// dedup, exclusion and gesture-merge rules. Recorder never fails: input
// that cannot be attributed to a widget is simply not recorded.
type Recorder struct {
	host   host.Host
	logger *slog.Logger

	primary       host.Widget
	filterMoves   bool
	trimTrailing  bool
	interpolation int
	excluded      []host.Widget

	state  RecorderState
	events []Event
	// open is the move gesture being accumulated; it is appended to
	// events when a different event arrives or recording stops.
	open   *MouseMoveEvent
	last   time.Time
	remove func()
}

// NewRecorder creates an idle recorder observing h.
func NewRecorder(h host.Host, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		host:         h,
		logger:       slog.Default(),
		filterMoves:  true,
		trimTrailing: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "recorder")
	return r
}

// State returns the current state.
func (r *Recorder) State() RecorderState {
	return r.state
}

// IsRecording reports whether the recorder is capturing input.
func (r *Recorder) IsRecording() bool {
	return r.state == RecorderRecording
}

// SetPrimarySurface replaces the primary surface. A nil widget captures
// moves everywhere.
func (r *Recorder) SetPrimarySurface(w host.Widget) {
	r.primary = w
}

// SetMoveInterpolation changes the resampling point count.
func (r *Recorder) SetMoveInterpolation(n int) {
	r.interpolation = n
}

// AddWidgetToExclude stops input targeting w, or any of its descendants,
// from being recorded.
func (r *Recorder) AddWidgetToExclude(w host.Widget) {
	if w == nil || slices.Contains(r.excluded, w) {
		return
	}
	r.excluded = append(r.excluded, w)
}

// Len returns how many events have been captured so far.
func (r *Recorder) Len() int {
	n := len(r.events)
	if r.open != nil {
		n++
	}
	return n
}

// StartRecording clears the buffer, resets the time origin and begins
// observing input. Calling it while recording restarts the recording.
func (r *Recorder) StartRecording() {
	r.events = nil
	r.open = nil
	r.last = r.host.Now()
	if r.remove == nil {
		r.remove = r.host.AddEventFilter(r.observe)
	}
	r.state = RecorderRecording
	r.logger.Debug("recording started")
}

// StopRecording stops observing input and returns what was captured.
// While idle it returns an empty macro.
func (r *Recorder) StopRecording() Macro {
	if r.state != RecorderRecording {
		return New()
	}
	r.state = RecorderIdle
	if r.remove != nil {
		r.remove()
		r.remove = nil
	}
	r.closeGesture()

	events := r.events
	r.events = nil
	if r.filterMoves {
		events = r.filtered(events)
	}
	if r.interpolation >= 2 {
		for i, ev := range events {
			if mv, ok := ev.(MouseMoveEvent); ok {
				mv.Positions = Interpolate(mv.Positions, r.interpolation)
				events[i] = mv
			}
		}
	}

	m := New(events...)
	r.logger.Debug("recording stopped", "events", m.Len(), "duration", m.Duration())
	return m
}

func (r *Recorder) observe(ev host.InputEvent) {
	if r.state != RecorderRecording || ev.Target == nil {
		return
	}

	now := r.host.Now()
	ms := int(now.Sub(r.last) / time.Millisecond)
	r.last = now

	if r.isExcluded(ev.Target) {
		return
	}

	spec := NewWidgetSpec(ev.Target)
	base := Base{WidgetSpec: spec, MsSinceLastEvent: ms}
	switch ev.Kind {
	case host.EventKeyPress, host.EventKeyRelease:
		r.recordKey(KeyEvent{
			Base:      base,
			Key:       ev.Key,
			IsRelease: ev.Kind == host.EventKeyRelease,
			Modifiers: ev.Modifiers,
		})
	case host.EventMousePress, host.EventMouseRelease:
		r.recordButton(MouseEvent{
			Base:      base,
			Position:  PositionFromEvent(ev),
			IsRelease: ev.Kind == host.EventMouseRelease,
			Button:    ev.Button,
			Modifiers: ev.Modifiers,
		})
	case host.EventMouseDoubleClick:
		r.append(MouseDoubleClickEvent{
			Base:      base,
			Position:  PositionFromEvent(ev),
			Button:    ev.Button,
			Modifiers: ev.Modifiers,
		})
	case host.EventMouseMove:
		r.recordMove(ev, base)
	}
}

func (r *Recorder) isExcluded(w host.Widget) bool {
	for _, ex := range r.excluded {
		if host.IsAncestor(ex, w) {
			return true
		}
	}
	return false
}

// recordKey drops the event when the most recent key event has the same
// key and direction, which is what platform key repeat produces.
func (r *Recorder) recordKey(ev KeyEvent) {
	for i := len(r.events) - 1; i >= 0; i-- {
		prev, ok := r.events[i].(KeyEvent)
		if !ok {
			continue
		}
		if prev.Key == ev.Key && prev.IsRelease == ev.IsRelease {
			return
		}
		break
	}
	r.append(ev)
}

// recordButton drops the event when the most recent button event has the
// same button and direction. A double click counts as a press.
func (r *Recorder) recordButton(ev MouseEvent) {
	for i := len(r.events) - 1; i >= 0; i-- {
		var (
			button  host.Button
			release bool
		)
		switch prev := r.events[i].(type) {
		case MouseEvent:
			button, release = prev.Button, prev.IsRelease
		case MouseDoubleClickEvent:
			button = prev.Button
		default:
			continue
		}
		if button == ev.Button && release == ev.IsRelease {
			return
		}
		break
	}
	r.append(ev)
}

// recordMove extends the open gesture while buttons and modifiers stay the
// same, and starts a new gesture otherwise.
func (r *Recorder) recordMove(ev host.InputEvent, base Base) {
	if r.primary != nil && !host.IsAncestor(r.primary, ev.Target) {
		r.closeGesture()
		return
	}
	pos := PositionFromEvent(ev)
	if r.open != nil && r.open.Buttons == ev.Buttons && r.open.Modifiers == ev.Modifiers {
		r.open.AddPosition(pos)
		return
	}
	r.closeGesture()
	r.open = &MouseMoveEvent{
		Base:      base,
		Positions: []Position{pos},
		Buttons:   ev.Buttons,
		Modifiers: ev.Modifiers,
	}
}

func (r *Recorder) append(ev Event) {
	r.closeGesture()
	r.events = append(r.events, ev)
}

func (r *Recorder) closeGesture() {
	if r.open == nil {
		return
	}
	r.events = append(r.events, *r.open)
	r.open = nil
}

// filtered trims pointer settling noise: a leading move is collapsed to its
// final position and, when enabled, a trailing move is dropped.
func (r *Recorder) filtered(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	out := make([]Event, 0, len(events))
	start, end := 0, len(events)
	if first, ok := events[0].(MouseMoveEvent); ok {
		out = append(out, MouseMoveEvent{
			Base:      Base{WidgetSpec: first.WidgetSpec},
			Positions: []Position{first.Positions[len(first.Positions)-1]},
			Buttons:   first.Buttons,
			Modifiers: first.Modifiers,
		})
		start = 1
	}
	if r.trimTrailing && end > start {
		if _, ok := events[end-1].(MouseMoveEvent); ok {
			end--
		}
	}
	return append(out, events[start:end]...)
}
