// Package script runs Lua automation scripts against a macro controller.
//
// Scripts run in a restricted gopher-lua state: only the base, table,
// string and math libraries are opened, and the file loading functions are
// removed. Two modules are installed as globals.
//
// The macro module drives recording and playback:
//
//	macro.record()              start recording
//	macro.stop()                stop; returns {name=, events=} or nil
//	macro.play([name])          start playback of name, or the last macro
//	macro.run([name])           play and wait; returns the report table
//	macro.wait()                run the host until playback settles
//	macro.sleep(ms)             let ms milliseconds pass on the host
//	macro.speed([value])        get or set the playback speed
//	macro.list()                array of {id=, name=, events=, speed=}
//	macro.save([path])          save the library; returns the path
//	macro.load(path, [replace]) load macros from path
//	macro.on_ended(fn)          call fn(report) after every playback;
//	                            returns a function that unregisters it
//	macro.is_recording()
//	macro.is_playing()
//
// A report table has the fields status ("success", "failure" or
// "stopped"), name, events and, on failure, error.
//
// The ui module acts on the demo form the way a user would:
//
//	ui.click(label)    click the widget with that name or caption
//	ui.type(text)      type text into the focused widget
//	ui.key(name)       press a named key such as "Return" or "F5"
//	ui.text(label)     caption, or a line edit's content
//	ui.checked(label)  check box state
//	ui.reset()         clear the form
//
// Failures raise Lua errors, which a script may catch with pcall. An
// uncaught error ends the script and is returned to the Go caller.
package script
