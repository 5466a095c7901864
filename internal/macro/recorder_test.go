package macro

import (
	"testing"
	"time"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/host/hosttest"
)

func newRecording(t *testing.T, opts ...RecorderOption) (*hosttest.Host, *hosttest.Dialog, *Recorder) {
	t.Helper()
	h := hosttest.New()
	d := hosttest.NewDialog(h)
	rec := NewRecorder(h, opts...)
	rec.StartRecording()
	return h, d, rec
}

func TestRecorderDedupsRepeats(t *testing.T) {
	h, d, rec := newRecording(t)
	local, _ := hosttest.Center(d.Button)

	h.UserKey(d.LineEdit, host.Key('A'), host.ModNone, false)
	h.UserKey(d.LineEdit, host.Key('A'), host.ModNone, false)
	h.UserKey(d.LineEdit, host.Key('A'), host.ModNone, false)
	h.UserKey(d.LineEdit, host.Key('A'), host.ModNone, true)

	h.UserPress(d.Button, local, host.ButtonLeft, host.ModNone)
	h.UserPress(d.Button, local, host.ButtonLeft, host.ModNone)
	h.UserRelease(d.Button, local, host.ButtonLeft, host.ModNone)

	m := rec.StopRecording()
	counts := m.Counts()
	if counts[TypeKey] != 2 || counts[TypeMouse] != 2 || m.Len() != 4 {
		t.Fatalf("recorded %v, want 2 key and 2 mouse events", m.Events)
	}

	press, ok := m.Events[2].(MouseEvent)
	if !ok || press.IsRelease || press.Spec() != NewWidgetSpec(d.Button) {
		t.Errorf("event 2 = %v, want a press on the button", m.Events[2])
	}
	release, ok := m.Events[3].(MouseEvent)
	if !ok || !release.IsRelease {
		t.Errorf("event 3 = %v, want a release", m.Events[3])
	}
	if press.Position.Local != local {
		t.Errorf("press local = %v, want %v", press.Position.Local, local)
	}
}

func TestRecorderTiming(t *testing.T) {
	h, d, rec := newRecording(t)
	local, _ := hosttest.Center(d.Button)

	h.Elapse(120 * time.Millisecond)
	h.UserPress(d.Button, local, host.ButtonLeft, host.ModNone)
	h.Elapse(35 * time.Millisecond)
	h.UserRelease(d.Button, local, host.ButtonLeft, host.ModNone)
	h.Elapse(500 * time.Millisecond)
	h.UserKey(d.LineEdit, host.KeyReturn, host.ModNone, false)

	m := rec.StopRecording()
	want := []int{120, 35, 500}
	if m.Len() != len(want) {
		t.Fatalf("recorded %d events, want %d", m.Len(), len(want))
	}
	for i, ev := range m.Events {
		if ev.Delay() != want[i] {
			t.Errorf("event %d delay = %d, want %d", i, ev.Delay(), want[i])
		}
	}
}

func TestRecorderDelayCountsIgnoredEvents(t *testing.T) {
	h, d, rec := newRecording(t)
	rec.AddWidgetToExclude(d.Apply)
	local, _ := hosttest.Center(d.Button)

	h.Elapse(100 * time.Millisecond)
	h.UserClick(d.Apply, local, host.ModNone)
	h.Elapse(40 * time.Millisecond)
	h.UserPress(d.Button, local, host.ButtonLeft, host.ModNone)

	m := rec.StopRecording()
	if m.Len() != 1 {
		t.Fatalf("recorded %v, want one event", m.Events)
	}
	if m.Events[0].Delay() != 40 {
		t.Errorf("delay = %d, want 40", m.Events[0].Delay())
	}
}

func TestRecorderExcludedWidget(t *testing.T) {
	h, d, rec := newRecording(t)
	rec.AddWidgetToExclude(d.Primary)
	local, _ := hosttest.Center(d.Button)

	h.UserClick(d.Button, local, host.ModNone)
	h.UserDoubleClick(d.Button2, local, host.ModNone)
	h.UserKey(d.Button, host.KeyReturn, host.ModNone, false)

	if m := rec.StopRecording(); !m.Empty() {
		t.Fatalf("recorded %v from an excluded widget", m.Events)
	}

	rec.StartRecording()
	h.UserClick(d.Apply, local, host.ModNone)
	if m := rec.StopRecording(); m.Len() != 2 {
		t.Errorf("recorded %d events from a normal widget, want 2", m.Len())
	}
}

func TestRecorderStates(t *testing.T) {
	h := hosttest.New()
	hosttest.NewDialog(h)
	rec := NewRecorder(h)

	if rec.IsRecording() || rec.State() != RecorderIdle {
		t.Fatal("new recorder is recording")
	}
	if m := rec.StopRecording(); !m.Empty() || m.Speed != 1.0 {
		t.Errorf("StopRecording() while idle = %+v", m)
	}

	rec.StartRecording()
	rec.StartRecording()
	if !rec.IsRecording() {
		t.Fatal("IsRecording() = false after StartRecording")
	}
	if n := h.FilterCount(); n != 1 {
		t.Errorf("FilterCount() = %d after restarting, want 1", n)
	}

	rec.StopRecording()
	if n := h.FilterCount(); n != 0 {
		t.Errorf("FilterCount() = %d after stop, want 0", n)
	}
	if rec.State() != RecorderIdle {
		t.Errorf("State() = %s, want idle", rec.State())
	}
}

func TestRecorderRestartClearsBuffer(t *testing.T) {
	h, d, rec := newRecording(t)
	local, _ := hosttest.Center(d.Button)

	h.UserClick(d.Button, local, host.ModNone)
	rec.StartRecording()
	h.UserKey(d.LineEdit, host.Key('X'), host.ModNone, false)

	m := rec.StopRecording()
	if m.Len() != 1 || TypeOf(m.Events[0]) != TypeKey {
		t.Errorf("recorded %v, want only the key press", m.Events)
	}
}

func TestRecorderMoveGestures(t *testing.T) {
	h, d, rec := newRecording(t)
	rec.SetPrimarySurface(d.Canvas)
	btn, _ := hosttest.Center(d.Apply)
	_, overButton := hosttest.Center(d.Button)
	origin := d.Canvas.Geometry().Origin()
	at := func(x, y int) host.Point { return origin.Add(host.Pt(x, y)) }
	drag := host.NoButtons.With(host.ButtonLeft)

	h.UserClick(d.Apply, btn, host.ModNone)
	h.UserMove(d.Canvas, at(10, 10), host.NoButtons, host.ModNone)
	h.UserMove(d.Canvas, at(10, 10), host.NoButtons, host.ModNone)
	h.UserMove(d.Canvas, at(20, 10), host.NoButtons, host.ModNone)
	h.UserMove(d.Button, overButton, host.NoButtons, host.ModNone)
	h.UserMove(d.Canvas, at(30, 10), host.NoButtons, host.ModNone)
	h.UserPress(d.Canvas, host.Pt(30, 10), host.ButtonLeft, host.ModNone)
	h.UserMove(d.Canvas, at(40, 20), drag, host.ModNone)
	h.UserMove(d.Canvas, at(50, 30), drag, host.ModNone)
	h.UserRelease(d.Canvas, host.Pt(50, 30), host.ButtonLeft, host.ModNone)
	h.UserClick(d.Apply, btn, host.ModNone)

	m := rec.StopRecording()
	wantTypes := []EventType{
		TypeMouse, TypeMouse,
		TypeMouseMove, TypeMouseMove,
		TypeMouse, TypeMouseMove, TypeMouse,
		TypeMouse, TypeMouse,
	}
	if m.Len() != len(wantTypes) {
		t.Fatalf("recorded %d events %v, want %d", m.Len(), m.Events, len(wantTypes))
	}
	for i, ev := range m.Events {
		if TypeOf(ev) != wantTypes[i] {
			t.Errorf("event %d is %s, want %s", i, TypeOf(ev), wantTypes[i])
		}
	}

	hover := m.Events[2].(MouseMoveEvent)
	if len(hover.Positions) != 2 || hover.IsDrag() {
		t.Errorf("hover = %v, want two positions without buttons", hover)
	}
	if hover.Positions[1].Global != at(20, 10) || hover.Positions[1].Local != host.Pt(20, 10) {
		t.Errorf("hover end = %+v", hover.Positions[1])
	}
	if spec := hover.Spec(); spec != NewWidgetSpec(d.Canvas) {
		t.Errorf("hover spec = %v", spec)
	}

	if n := len(m.Events[3].(MouseMoveEvent).Positions); n != 1 {
		t.Errorf("second hover has %d positions, want 1", n)
	}

	dragged := m.Events[5].(MouseMoveEvent)
	if !dragged.IsDrag() || dragged.Buttons != drag || len(dragged.Positions) != 2 {
		t.Errorf("drag = %v", dragged)
	}
}

func TestRecorderTrimsMoveNoise(t *testing.T) {
	tests := []struct {
		name       string
		opts       []RecorderOption
		events     int
		firstMoves int
		trailing   bool
	}{
		{"default", nil, 3, 1, false},
		{"keep trailing", []RecorderOption{WithTrimTrailingMoves(false)}, 4, 1, true},
		{"unfiltered", []RecorderOption{WithMoveFiltering(false)}, 4, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d, rec := newRecording(t, tt.opts...)
			origin := d.Canvas.Geometry().Origin()
			move := func(x, y int) {
				h.UserMove(d.Canvas, origin.Add(host.Pt(x, y)), host.NoButtons, host.ModNone)
			}

			move(1, 1)
			move(2, 2)
			move(3, 3)
			h.Elapse(50 * time.Millisecond)
			h.UserClick(d.Canvas, host.Pt(3, 3), host.ModNone)
			move(5, 5)
			move(6, 6)

			m := rec.StopRecording()
			if m.Len() != tt.events {
				t.Fatalf("recorded %d events %v, want %d", m.Len(), m.Events, tt.events)
			}
			first, ok := m.Events[0].(MouseMoveEvent)
			if !ok {
				t.Fatalf("event 0 is %s, want a move", TypeOf(m.Events[0]))
			}
			if len(first.Positions) != tt.firstMoves {
				t.Errorf("leading move has %d positions, want %d", len(first.Positions), tt.firstMoves)
			}
			if last := first.Positions[len(first.Positions)-1].Global; last != origin.Add(host.Pt(3, 3)) {
				t.Errorf("leading move ends at %v", last)
			}
			_, isMove := m.Events[m.Len()-1].(MouseMoveEvent)
			if isMove != tt.trailing {
				t.Errorf("trailing move kept = %v, want %v", isMove, tt.trailing)
			}
		})
	}
}

func TestRecorderMoveInterpolation(t *testing.T) {
	h, d, rec := newRecording(t, WithMoveInterpolation(3))
	btn, _ := hosttest.Center(d.Apply)
	origin := d.Canvas.Geometry().Origin()

	h.UserClick(d.Apply, btn, host.ModNone)
	for i := range 6 {
		h.UserMove(d.Canvas, origin.Add(host.Pt(i, i)), host.NoButtons, host.ModNone)
	}
	h.UserClick(d.Apply, btn, host.ModNone)

	m := rec.StopRecording()
	if m.Len() != 5 {
		t.Fatalf("recorded %d events, want 5", m.Len())
	}
	mv := m.Events[2].(MouseMoveEvent)
	want := []host.Point{origin, origin.Add(host.Pt(2, 2)), origin.Add(host.Pt(5, 5))}
	if len(mv.Positions) != len(want) {
		t.Fatalf("move has %d positions, want %d", len(mv.Positions), len(want))
	}
	for i, p := range mv.Positions {
		if p.Global != want[i] {
			t.Errorf("position %d = %v, want %v", i, p.Global, want[i])
		}
	}
}

func TestRecorderDoubleClick(t *testing.T) {
	h, d, rec := newRecording(t)
	local, _ := hosttest.Center(d.Button)

	h.UserDoubleClick(d.Button, local, host.ModCtrl)

	m := rec.StopRecording()
	want := []EventType{TypeMouse, TypeMouse, TypeMouseDoubleClick, TypeMouse}
	if m.Len() != len(want) {
		t.Fatalf("recorded %v, want %d events", m.Events, len(want))
	}
	for i, ev := range m.Events {
		if TypeOf(ev) != want[i] {
			t.Errorf("event %d is %s, want %s", i, TypeOf(ev), want[i])
		}
	}
	dbl := m.Events[2].(MouseDoubleClickEvent)
	if dbl.Button != host.ButtonLeft || dbl.Modifiers != host.ModCtrl {
		t.Errorf("double click = %v", dbl)
	}
}
