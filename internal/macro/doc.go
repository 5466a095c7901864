// Package macro records and replays user input against a widget tree.
//
// # Concepts
//
// A Macro is an ordered sequence of Events. Each event carries a
// WidgetSpec, a (class, text) fingerprint of the widget it targeted, and
// the number of milliseconds since the previous event. Events are one of
// KeyEvent, MouseEvent, MouseDoubleClickEvent and MouseMoveEvent.
//
// # Recording
//
// A Recorder installs an event filter on the host and turns every observed
// input event into a macro event:
//
//	rec := macro.NewRecorder(h, macro.WithPrimarySurface(canvas))
//	rec.AddWidgetToExclude(panel)
//	rec.StartRecording()
//	// ... user interacts with the application ...
//	m := rec.StopRecording()
//
// Key repeat and duplicate button events are dropped, consecutive pointer
// samples are merged into a single move gesture, and pointer noise at the
// start and end of the recording is trimmed.
//
// # Playback
//
// A Player replays a macro on the host loop without blocking it:
//
//	player := macro.NewPlayer(h)
//	player.OnPlaybackEnded(func(r macro.Report) { ... })
//	err := player.Play(m)
//
// Widgets are re-identified at playback time. The widget under the
// recorded point is used when it still matches; otherwise a Locator
// searches outward through its ancestors for the nearest widget with the
// same class and text, so macros survive dialogs being moved or
// re-laid-out.
//
// # Persistence
//
// Macros are stored as JSON by default, or YAML for .yaml and .yml files.
// A file holds either one macro record or a list of them.
package macro
