package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/config"
	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/loop"
	"github.com/dshills/widgetmacro/internal/macro"
	"github.com/dshills/widgetmacro/internal/termhost"
)

func noEnv(string) (string, bool) { return "", false }

type testApp struct {
	*Application
	clock *loop.ManualClock
	dir   string
}

func newTestApp(t *testing.T, settings string) *testApp {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if settings != "" {
		if err := os.WriteFile(path, []byte(settings), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	clock := loop.NewManualClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	app, err := New(Options{
		ConfigPath: path,
		Loop:       loop.New(loop.WithClock(clock)),
		LookupEnv:  noEnv,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return &testApp{Application: app, clock: clock, dir: dir}
}

// click clicks a form widget through the terminal input path.
func (a *testApp) click(w *termhost.Widget) {
	a.Host().UserClick(termhost.Center(w), host.ModNone)
}

// recordSession records filling in the form, started and stopped from
// the macro panel.
func (a *testApp) recordSession(t *testing.T) macro.Macro {
	t.Helper()
	f := a.Form()
	a.click(f.Record)
	if !a.IsRecording() {
		t.Fatal("Record button did not start recording")
	}
	a.click(f.Name)
	a.clock.Advance(100 * time.Millisecond)
	a.Type("Ann")
	a.clock.Advance(200 * time.Millisecond)
	a.click(f.Submit)
	a.click(f.Record)
	if a.IsRecording() {
		t.Fatal("Record button did not stop recording")
	}
	m, ok := a.Library().Last()
	if !ok {
		t.Fatal("recording not added to the library")
	}
	return m
}

func TestNewAppliesDefaults(t *testing.T) {
	a := newTestApp(t, "")

	if a.Speed() != 1.0 {
		t.Errorf("Speed() = %v, want 1", a.Speed())
	}
	if a.IsRecording() || a.IsPlaying() {
		t.Error("new application is busy")
	}
	if got := a.Form().PanelStatus.Text(); got != "idle" {
		t.Errorf("panel status = %q, want idle", got)
	}
	if !strings.HasSuffix(a.Host().Status(), "| idle") {
		t.Errorf("status line = %q", a.Host().Status())
	}
	if _, ok := a.LastReport(); ok {
		t.Error("LastReport() reported a playback")
	}
}

func TestNewReadsSettingsFile(t *testing.T) {
	a := newTestApp(t, "[player]\nspeed = 0.5\n\n[logging]\nlevel = \"debug\"\n")

	if a.Speed() != 0.5 {
		t.Errorf("Speed() = %v, want 0.5", a.Speed())
	}
	if got := a.Config().Settings().Logging.Level; got != "debug" {
		t.Errorf("log level = %q, want debug", got)
	}
}

func TestNewKeepsDefaultsOnBadSettings(t *testing.T) {
	var logs bytes.Buffer
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.toml")
	if err := os.WriteFile(path, []byte("[player\nspeed = "), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := New(Options{ConfigPath: path, LookupEnv: noEnv, LogOutput: &logs})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Speed() != 1.0 {
		t.Errorf("Speed() = %v, want default", app.Speed())
	}
	if !strings.Contains(logs.String(), "settings not loaded") {
		t.Errorf("no warning logged: %q", logs.String())
	}
}

func TestRecordAndPlay(t *testing.T) {
	a := newTestApp(t, "")
	f := a.Form()
	m := a.recordSession(t)

	if m.Name != "macro-1" {
		t.Errorf("Name = %q, want macro-1", m.Name)
	}
	for _, spec := range m.Widgets() {
		if spec.Text == "Record" {
			t.Error("macro panel click was recorded")
		}
	}
	if got := f.PanelStatus.Text(); !strings.HasPrefix(got, "recorded macro-1") {
		t.Errorf("panel status = %q", got)
	}

	a.ResetForm()
	if err := a.Play(""); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if !a.IsPlaying() {
		t.Fatal("not playing after Play")
	}
	a.Wait()

	r, ok := a.LastReport()
	if !ok || r.Status != macro.StatusSuccess {
		t.Fatalf("LastReport() = %+v, %v", r, ok)
	}
	if got := f.Result.Text(); got != "Submitted: Ann" {
		t.Errorf("result = %q, want Submitted: Ann", got)
	}
	if got := f.PanelStatus.Text(); got != fmt.Sprintf("macro-1 SUCCESS (%d events)", m.Len()) {
		t.Errorf("panel status = %q", got)
	}
}

func TestPlayByName(t *testing.T) {
	a := newTestApp(t, "")
	a.recordSession(t)

	tests := []struct {
		name    string
		macro   string
		wantErr error
	}{
		{"existing", "macro-1", nil},
		{"missing", "nope", macro.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Play(tt.macro)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Play(%q) error = %v", tt.macro, err)
				}
				a.Wait()
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Play(%q) error = %v, want %v", tt.macro, err, tt.wantErr)
			}
			var opErr *OperationError
			if !errors.As(err, &opErr) || opErr.Op != "play" {
				t.Errorf("error %v is not a play OperationError", err)
			}
		})
	}
}

func TestPlayErrors(t *testing.T) {
	a := newTestApp(t, "")

	if err := a.Play(""); !errors.Is(err, ErrNoMacro) {
		t.Errorf("Play() on empty library error = %v, want ErrNoMacro", err)
	}

	a.recordSession(t)
	if err := a.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if err := a.Play(""); !errors.Is(err, ErrRecording) {
		t.Errorf("Play() while recording error = %v, want ErrRecording", err)
	}
	a.StopRecording()

	if err := a.Play(""); err != nil {
		t.Fatal(err)
	}
	if err := a.Play(""); !errors.Is(err, macro.ErrAlreadyPlaying) {
		t.Errorf("second Play() error = %v, want ErrAlreadyPlaying", err)
	}
	if err := a.StartRecording(); !errors.Is(err, macro.ErrAlreadyPlaying) {
		t.Errorf("StartRecording() while playing error = %v, want ErrAlreadyPlaying", err)
	}
	a.Wait()
}

func TestStopRecordingWithoutEvents(t *testing.T) {
	a := newTestApp(t, "")

	if m := a.StopRecording(); !m.Empty() {
		t.Error("StopRecording() while idle returned events")
	}
	if err := a.StartRecording(); err != nil {
		t.Fatal(err)
	}
	if m := a.StopRecording(); !m.Empty() {
		t.Error("empty recording returned events")
	}
	if a.Library().Len() != 0 {
		t.Error("empty recording added to the library")
	}
	if got := a.Form().PanelStatus.Text(); got != "nothing recorded" {
		t.Errorf("panel status = %q", got)
	}
}

func TestShortcutKeys(t *testing.T) {
	a := newTestApp(t, "")
	f := a.Form()

	a.PressKey(host.KeyF2, host.ModNone)
	if !a.IsRecording() {
		t.Fatal("F2 did not start recording")
	}
	a.click(f.Subscribe)
	a.PressKey(host.KeyF2, host.ModNone)
	if a.IsRecording() {
		t.Fatal("F2 did not stop recording")
	}
	m, ok := a.Library().Last()
	if !ok {
		t.Fatal("nothing recorded")
	}
	for _, ev := range m.Events {
		if k, ok := ev.(macro.KeyEvent); ok && k.Key == host.KeyF2 {
			t.Error("shortcut key was recorded")
		}
	}

	f.Subscribe.SetChecked(false)
	a.PressKey(host.KeyF5, host.ModNone)
	a.Wait()
	if !f.Subscribe.Checked() {
		t.Error("F5 did not replay the click")
	}

	// Modified function keys go to the focused widget.
	if a.handleKey(host.KeyF2, host.ModCtrl) {
		t.Error("Ctrl+F2 handled as a shortcut")
	}
	// F10 without a running application is a no-op.
	if !a.handleKey(host.KeyF10, host.ModNone) {
		t.Error("F10 not handled")
	}
}

func TestSaveAndLoad(t *testing.T) {
	a := newTestApp(t, "")

	if _, err := a.Save(""); !errors.Is(err, ErrNoMacro) {
		t.Errorf("Save() of empty library error = %v, want ErrNoMacro", err)
	}

	a.recordSession(t)
	path := filepath.Join(a.dir, "out", "session.yaml")
	written, err := a.Save(path)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if written != path {
		t.Errorf("Save() path = %q, want %q", written, path)
	}

	if err := a.Load(written, false); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if a.Library().Len() != 2 {
		t.Errorf("Len() after append = %d, want 2", a.Library().Len())
	}
	if err := a.Load(written, true); err != nil {
		t.Fatalf("Load(replace) error = %v", err)
	}
	list := a.Macros()
	if len(list) != 1 || list[0].Name != "macro-1" {
		t.Errorf("Macros() after replace = %+v", list)
	}

	err = a.Load(filepath.Join(a.dir, "missing.json"), true)
	if err == nil {
		t.Fatal("Load() of a missing file succeeded")
	}
	if a.Library().Len() != 1 {
		t.Error("failed load changed the library")
	}
}

func TestSaveToConfiguredDirectory(t *testing.T) {
	a := newTestApp(t, "")
	dir := filepath.Join(a.dir, "macros")
	if err := a.Config().Set(config.KeyMacroSavePath, dir); err != nil {
		t.Fatal(err)
	}
	a.recordSession(t)

	a.click(a.Form().Save)
	want := filepath.Join(dir, DefaultLibraryFile)
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("Save button did not write %s: %v", want, err)
	}
	if err := a.Load("", true); err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if a.Library().Len() != 1 {
		t.Errorf("Len() = %d, want 1", a.Library().Len())
	}
}

func TestSetSpeed(t *testing.T) {
	a := newTestApp(t, "")

	if err := a.SetSpeed(2); err != nil {
		t.Fatalf("SetSpeed() error = %v", err)
	}
	if a.Speed() != 2 || a.Player().Speed() != 2 {
		t.Errorf("Speed() = %v", a.Speed())
	}
	if got := a.Config().Settings().Player.Speed; got != 2 {
		t.Errorf("stored speed = %v, want 2", got)
	}

	for _, bad := range []float64{0, -1} {
		if err := a.SetSpeed(bad); !errors.Is(err, macro.ErrInvalidSpeed) {
			t.Errorf("SetSpeed(%v) error = %v, want ErrInvalidSpeed", bad, err)
		}
	}
	if a.Speed() != 2 {
		t.Error("invalid speed changed the player")
	}
}

func TestSettingsChangesReachThePlayer(t *testing.T) {
	a := newTestApp(t, "")

	if err := a.Config().Set(config.KeySpeed, 3.0); err != nil {
		t.Fatal(err)
	}
	if a.Player().Speed() != 1 {
		t.Error("speed applied before the loop ran")
	}
	a.Wait()
	if a.Player().Speed() != 3 {
		t.Errorf("player speed = %v, want 3", a.Player().Speed())
	}
}

func TestSettingsReload(t *testing.T) {
	a := newTestApp(t, "")
	path := a.Config().Path()
	if err := os.WriteFile(path, []byte("[player]\nspeed = 1.5\n[logging]\nlevel = \"error\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.Config().Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	a.Wait()

	if a.Player().Speed() != 1.5 {
		t.Errorf("player speed = %v, want 1.5", a.Player().Speed())
	}
	if got := a.Logger().Level(); got != slog.LevelError {
		t.Errorf("log level = %v, want ERROR", got)
	}
	if got := a.Form().PanelStatus.Text(); got != "settings reloaded" {
		t.Errorf("panel status = %q", got)
	}
}

func TestRecorderSettingsApplyToNextRecording(t *testing.T) {
	a := newTestApp(t, "")
	if err := a.Config().Set(config.KeyFilterMouseMovements, false); err != nil {
		t.Fatal(err)
	}

	if err := a.StartRecording(); err != nil {
		t.Fatal(err)
	}
	a.click(a.Form().Submit)
	m := a.StopRecording()

	var moves int
	for _, ev := range m.Events {
		if _, ok := ev.(macro.MouseMoveEvent); ok {
			moves++
		}
	}
	if moves == 0 {
		t.Errorf("moves over the form were filtered: %v", m.Events)
	}
}

func TestUIHelpers(t *testing.T) {
	a := newTestApp(t, "")

	if err := a.Click("name"); err != nil {
		t.Fatal(err)
	}
	a.Type("Zoe")
	if err := a.Click("Subscribe"); err != nil {
		t.Fatal(err)
	}
	if err := a.Click("Submit"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		label string
		want  string
	}{
		{"name", "Zoe"},
		{"result", "Submitted: Zoe (subscribed)"},
		{"Submit", "Submit"},
	}
	for _, tt := range tests {
		got, err := a.Text(tt.label)
		if err != nil || got != tt.want {
			t.Errorf("Text(%q) = %q, %v; want %q", tt.label, got, err, tt.want)
		}
	}
	if on, err := a.Checked("Subscribe"); err != nil || !on {
		t.Errorf("Checked(Subscribe) = %v, %v", on, err)
	}

	a.Form().Fields.SetVisible(false)
	if err := a.Click("Submit"); !errors.Is(err, ErrNoWidget) {
		t.Errorf("Click(hidden) error = %v, want ErrNoWidget", err)
	}
	if _, err := a.Text("missing"); !errors.Is(err, ErrNoWidget) {
		t.Errorf("Text(missing) error = %v, want ErrNoWidget", err)
	}
}

func TestRunWithoutScreen(t *testing.T) {
	a := newTestApp(t, "")
	if err := a.Run(context.Background()); !errors.Is(err, termhost.ErrNoScreen) {
		t.Errorf("Run() error = %v, want ErrNoScreen", err)
	}
}

func TestRunAndQuit(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	app, err := New(Options{Screen: screen, LookupEnv: noEnv})
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	app.Host().Post(app.Quit)
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after Quit")
	}
}

func TestClose(t *testing.T) {
	a := newTestApp(t, "")

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := a.Run(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Run() after Close error = %v, want ErrClosed", err)
	}

	// Subscriptions are released.
	if err := a.Config().Set(config.KeySpeed, 4.0); err != nil {
		t.Fatal(err)
	}
	a.Wait()
	if a.Player().Speed() != 1 {
		t.Error("settings change applied after Close")
	}
}
