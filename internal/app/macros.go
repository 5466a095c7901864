package app

import (
	"errors"
	"fmt"

	"github.com/dshills/widgetmacro/internal/config"
	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/macro"
)

// IsRecording reports whether input is being recorded.
func (app *Application) IsRecording() bool {
	return app.recorder.IsRecording()
}

// IsPlaying reports whether a macro is being played.
func (app *Application) IsPlaying() bool {
	return app.player.IsPlaying()
}

// StartRecording starts capturing input with the current recorder
// settings. Calling it while recording restarts the recording.
func (app *Application) StartRecording() error {
	if app.player.IsPlaying() {
		return NewOperationError("record", "", macro.ErrAlreadyPlaying)
	}
	if !app.recorder.IsRecording() {
		app.recorder = app.newRecorder(app.config.Settings())
	}
	app.recorder.StartRecording()
	app.setStatus("recording")
	return nil
}

// StopRecording stops capturing and adds a non-empty recording to the
// library under a generated name. It returns the recorded macro.
func (app *Application) StopRecording() macro.Macro {
	if !app.recorder.IsRecording() {
		return macro.New()
	}
	m := app.recorder.StopRecording()
	if m.Empty() {
		app.setStatus("nothing recorded")
		return m
	}
	app.lastID++
	m = m.Named(fmt.Sprintf("macro-%d", app.lastID))
	app.library.Add(m)
	app.logger.Info("macro recorded", "macro", m.Name, "events", m.Len(), "duration", m.Duration())
	app.setStatus(fmt.Sprintf("recorded %s (%d events)", m.Name, m.Len()))
	return m
}

// ToggleRecording starts or stops recording.
func (app *Application) ToggleRecording() {
	if app.recorder.IsRecording() {
		app.StopRecording()
		return
	}
	if err := app.StartRecording(); err != nil {
		app.setStatus(err.Error())
	}
}

// Play replays the named macro, or the most recently added one when name
// is empty. The outcome is reported to OnPlaybackEnded subscribers.
func (app *Application) Play(name string) error {
	if app.recorder.IsRecording() {
		return NewOperationError("play", name, ErrRecording)
	}

	var m macro.Macro
	if name == "" {
		last, ok := app.library.Last()
		if !ok {
			return NewOperationError("play", "", ErrNoMacro)
		}
		m = last
	} else {
		found, _, err := app.library.Find(name)
		if err != nil {
			return NewOperationError("play", name, err)
		}
		m = found
	}
	return app.PlayMacro(m)
}

// PlayMacro replays m.
func (app *Application) PlayMacro(m macro.Macro) error {
	if err := app.player.Play(m); err != nil {
		return NewOperationError("play", m.Name, err)
	}
	app.setStatus("playing " + displayName(m.Name))
	return nil
}

// OnPlaybackEnded registers fn for every playback report.
func (app *Application) OnPlaybackEnded(fn func(macro.Report)) (unsubscribe func()) {
	return app.player.OnPlaybackEnded(fn)
}

func (app *Application) playbackEnded(r macro.Report) {
	app.lastReport = &r
	if r.Err != nil {
		var pe *macro.PlaybackEndedError
		msg := r.Err.Error()
		if errors.As(r.Err, &pe) && pe.Err != nil {
			msg = fmt.Sprintf("event %d: %v", pe.Index, pe.Err)
		}
		app.setStatus(fmt.Sprintf("%s %s: %s", displayName(r.Macro), r.Status, msg))
		return
	}
	app.setStatus(fmt.Sprintf("%s %s (%d events)", displayName(r.Macro), r.Status, r.EventsPlayed))
}

// Speed returns the playback delay multiplier.
func (app *Application) Speed() float64 {
	return app.player.Speed()
}

// SetSpeed changes the playback delay multiplier and stores it in the
// settings.
func (app *Application) SetSpeed(speed float64) error {
	if err := app.player.SetSpeed(speed); err != nil {
		return NewOperationError("set speed", "", err)
	}
	if err := app.config.Set(config.KeySpeed, speed); err != nil {
		return NewOperationError("set speed", "", err)
	}
	return nil
}

// Macros lists the library.
func (app *Application) Macros() []macro.EntryInfo {
	return app.library.List()
}

// Save writes the library to path, or to the configured macro directory
// when path is empty. It returns the path written.
func (app *Application) Save(path string) (string, error) {
	if app.library.Len() == 0 {
		return "", NewOperationError("save", path, ErrNoMacro)
	}
	if path == "" {
		var err error
		if path, err = app.defaultLibraryPath(); err != nil {
			return "", NewOperationError("save", "", err)
		}
	}
	written, err := macro.SaveLibrary(app.library, path)
	if err != nil {
		return "", NewOperationError("save", path, err)
	}
	app.logger.Info("macros saved", "path", written, "macros", app.library.Len())
	app.setStatus(fmt.Sprintf("saved %d to %s", app.library.Len(), written))
	return written, nil
}

// Load reads macros from path, or from the configured macro directory
// when path is empty. With replace set the library is emptied first.
func (app *Application) Load(path string, replace bool) error {
	if path == "" {
		var err error
		if path, err = app.defaultLibraryPath(); err != nil {
			return NewOperationError("load", "", err)
		}
	}
	if err := macro.LoadLibrary(app.library, path, replace); err != nil {
		return NewOperationError("load", path, err)
	}
	app.logger.Info("macros loaded", "path", path, "macros", app.library.Len())
	app.setStatus(fmt.Sprintf("loaded %s", path))
	return nil
}

// bindPanel connects the macro panel buttons.
func (app *Application) bindPanel() {
	app.form.Record.OnClick = app.ToggleRecording
	app.form.Play.OnClick = func() {
		if err := app.Play(""); err != nil {
			app.setStatus(err.Error())
		}
	}
	app.form.Save.OnClick = func() {
		if _, err := app.Save(""); err != nil {
			app.setStatus(err.Error())
		}
	}
}

// handleKey implements the global shortcuts.
func (app *Application) handleKey(key host.Key, mods host.Modifiers) bool {
	if mods != host.ModNone {
		return false
	}
	switch key {
	case host.KeyF2:
		app.ToggleRecording()
	case host.KeyF5:
		if err := app.Play(""); err != nil {
			app.setStatus(err.Error())
		}
	case host.KeyF10:
		app.Quit()
	default:
		return false
	}
	return true
}

func displayName(name string) string {
	if name == "" {
		return "macro"
	}
	return name
}
