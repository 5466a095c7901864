package termhost

import (
	"testing"
	"time"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/loop"
	"github.com/dshills/widgetmacro/internal/macro"
)

// fillForm drives the form the way a user at the terminal would.
func fillForm(h *Host, clock *loop.ManualClock, f *Form) {
	h.UserClick(Center(f.Name), host.ModNone)
	clock.Advance(120 * time.Millisecond)
	h.UserType("Ann")
	clock.Advance(300 * time.Millisecond)
	h.UserClick(Center(f.Subscribe), host.ModNone)
	clock.Advance(200 * time.Millisecond)
	h.UserClick(Center(f.Submit), host.ModNone)
}

func record(t *testing.T, h *Host, clock *loop.ManualClock, f *Form) macro.Macro {
	t.Helper()
	rec := macro.NewRecorder(h)
	rec.AddWidgetToExclude(f.Panel)
	rec.StartRecording()
	fillForm(h, clock, f)
	h.UserClick(Center(f.Record), host.ModNone)
	m := rec.StopRecording()
	if m.Empty() {
		t.Fatal("nothing recorded")
	}
	return m
}

func playAll(t *testing.T, h *Host, m macro.Macro) macro.Report {
	t.Helper()
	p := macro.NewPlayer(h)
	var reports []macro.Report
	p.OnPlaybackEnded(func(r macro.Report) { reports = append(reports, r) })
	if err := p.Play(m); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	h.RunUntilIdle()
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	return reports[0]
}

func TestRecordAndReplayOnFreshForm(t *testing.T) {
	h1, clock1 := newTestHost(t)
	f1 := NewForm(h1)
	m := record(t, h1, clock1, f1)

	want := "Submitted: Ann (subscribed)"
	if got := f1.Result.Text(); got != want {
		t.Fatalf("recorded session result = %q, want %q", got, want)
	}
	for _, spec := range m.Widgets() {
		if spec.WidgetClass == "Button" && spec.Text == "Record" {
			t.Error("excluded panel button was recorded")
		}
	}

	h2, _ := newTestHost(t)
	f2 := NewForm(h2)
	r := playAll(t, h2, m)

	if r.Status != macro.StatusSuccess {
		t.Fatalf("report = %+v, want success", r)
	}
	if r.EventsPlayed != m.Len() {
		t.Errorf("EventsPlayed = %d, want %d", r.EventsPlayed, m.Len())
	}
	if got := f2.Name.Value(); got != "Ann" {
		t.Errorf("replayed value = %q, want Ann", got)
	}
	if got := f2.Result.Text(); got != want {
		t.Errorf("replayed result = %q, want %q", got, want)
	}
	if r.Duration < 620*time.Millisecond {
		t.Errorf("Duration = %v, want at least the recorded pauses", r.Duration)
	}
}

func TestReplayAfterLayoutChange(t *testing.T) {
	h1, clock1 := newTestHost(t)
	f1 := NewForm(h1)
	m := record(t, h1, clock1, f1)

	h2, _ := newTestHost(t)
	f2 := NewForm(h2)
	f2.Fields.Move(host.Pt(0, 1))

	r := playAll(t, h2, m)
	if r.Status != macro.StatusSuccess {
		t.Fatalf("report = %+v, want success", r)
	}
	if got := f2.Result.Text(); got != "Submitted: Ann (subscribed)" {
		t.Errorf("replayed result = %q", got)
	}
}

func TestReplayFailsWhenWidgetMissing(t *testing.T) {
	h1, clock1 := newTestHost(t)
	f1 := NewForm(h1)
	m := record(t, h1, clock1, f1)

	h2, _ := newTestHost(t)
	f2 := NewForm(h2)
	f2.Subscribe.SetText("Newsletter")

	r := playAll(t, h2, m)
	if r.Status != macro.StatusFailure {
		t.Fatalf("report = %+v, want failure", r)
	}
	if f2.Result.Text() != "" {
		t.Errorf("submit ran after the failure: %q", f2.Result.Text())
	}
}

func TestReplayCanvasDrag(t *testing.T) {
	h1, _ := newTestHost(t)
	f1 := NewForm(h1)

	rec := macro.NewRecorder(h1, macro.WithPrimarySurface(f1.Canvas), macro.WithMoveInterpolation(0))
	rec.StartRecording()
	left := host.Buttons(host.ButtonLeft)
	start := f1.Canvas.Geometry().Origin().Add(host.Pt(2, 2))
	h1.UserMouse(start, host.NoButtons, host.ModNone)
	h1.UserMouse(start, left, host.ModNone)
	for i := 1; i <= 5; i++ {
		h1.UserMouse(start.Add(host.Pt(i, i/2)), left, host.ModNone)
	}
	h1.UserMouse(start.Add(host.Pt(5, 2)), host.NoButtons, host.ModNone)
	m := rec.StopRecording()

	h2, _ := newTestHost(t)
	f2 := NewForm(h2)
	r := playAll(t, h2, m)
	if r.Status != macro.StatusSuccess {
		t.Fatalf("report = %+v, want success", r)
	}

	want, got := f1.Canvas.Strokes(), f2.Canvas.Strokes()
	if len(got) != 1 || len(got[0]) != len(want[0]) {
		t.Fatalf("replayed strokes = %v, want %v", got, want)
	}
	for i := range want[0] {
		if got[0][i] != want[0][i] {
			t.Errorf("point %d = %v, want %v", i, got[0][i], want[0][i])
		}
	}
}
