package script

import (
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/macro"
)

// register installs the macro and ui globals.
func (r *Runner) register() {
	L := r.L

	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"record":       r.record,
		"stop":         r.stop,
		"play":         r.play,
		"run":          r.run,
		"wait":         r.wait,
		"sleep":        r.sleep,
		"speed":        r.speed,
		"list":         r.list,
		"save":         r.save,
		"load":         r.load,
		"on_ended":     r.onEnded,
		"is_recording": r.isRecording,
		"is_playing":   r.isPlaying,
	})
	L.SetGlobal("macro", mod)

	ui := L.NewTable()
	L.SetFuncs(ui, map[string]lua.LGFunction{
		"click":   r.click,
		"type":    r.typeText,
		"key":     r.key,
		"text":    r.text,
		"checked": r.checked,
		"reset":   r.reset,
	})
	L.SetGlobal("ui", ui)
}

// check raises err as a Lua error.
func check(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%s", err.Error())
	}
}

func (r *Runner) record(L *lua.LState) int {
	check(L, r.ctrl.StartRecording())
	return 0
}

func (r *Runner) stop(L *lua.LState) int {
	m := r.ctrl.StopRecording()
	if m.Empty() {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	t.RawSetString("name", lua.LString(m.Name))
	t.RawSetString("events", lua.LNumber(m.Len()))
	L.Push(t)
	return 1
}

func (r *Runner) play(L *lua.LState) int {
	check(L, r.ctrl.Play(L.OptString(1, "")))
	return 0
}

// run plays a macro and waits for its report.
func (r *Runner) run(L *lua.LState) int {
	var report *macro.Report
	unsubscribe := r.ctrl.OnPlaybackEnded(func(rep macro.Report) {
		if report == nil {
			report = &rep
		}
	})
	defer unsubscribe()

	check(L, r.ctrl.Play(L.OptString(1, "")))
	r.ctrl.Wait()
	if report == nil {
		L.RaiseError("playback did not finish")
	}
	L.Push(reportTable(L, *report))
	return 1
}

func (r *Runner) wait(L *lua.LState) int {
	r.ctrl.Wait()
	return 0
}

func (r *Runner) sleep(L *lua.LState) int {
	ms := L.CheckNumber(1)
	if ms < 0 {
		L.ArgError(1, "negative duration")
	}
	r.ctrl.Pause(time.Duration(float64(ms) * float64(time.Millisecond)))
	return 0
}

func (r *Runner) speed(L *lua.LState) int {
	if L.GetTop() >= 1 {
		check(L, r.ctrl.SetSpeed(float64(L.CheckNumber(1))))
	}
	L.Push(lua.LNumber(r.ctrl.Speed()))
	return 1
}

func (r *Runner) list(L *lua.LState) int {
	t := L.NewTable()
	for _, e := range r.ctrl.Macros() {
		entry := L.NewTable()
		entry.RawSetString("id", lua.LString(e.ID.String()))
		entry.RawSetString("name", lua.LString(e.Name))
		entry.RawSetString("events", lua.LNumber(e.EventCount))
		entry.RawSetString("speed", lua.LNumber(e.Speed))
		t.Append(entry)
	}
	L.Push(t)
	return 1
}

func (r *Runner) save(L *lua.LState) int {
	path, err := r.ctrl.Save(L.OptString(1, ""))
	check(L, err)
	L.Push(lua.LString(path))
	return 1
}

func (r *Runner) load(L *lua.LState) int {
	path := L.CheckString(1)
	replace := L.OptBool(2, false)
	check(L, r.ctrl.Load(path, replace))
	return 0
}

// onEnded registers a Lua handler for playback reports. An error raised by
// the handler fails the script once it returns.
func (r *Runner) onEnded(L *lua.LState) int {
	fn := L.CheckFunction(1)
	unsubscribe := r.ctrl.OnPlaybackEnded(func(rep macro.Report) {
		err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, reportTable(L, rep))
		if err != nil {
			r.logger.Warn("on_ended handler failed", "error", err)
			if r.callbackErr == nil {
				r.callbackErr = err
			}
		}
	})
	r.unsubscribe = append(r.unsubscribe, unsubscribe)

	L.Push(L.NewFunction(func(*lua.LState) int {
		unsubscribe()
		return 0
	}))
	return 1
}

func (r *Runner) isRecording(L *lua.LState) int {
	L.Push(lua.LBool(r.ctrl.IsRecording()))
	return 1
}

func (r *Runner) isPlaying(L *lua.LState) int {
	L.Push(lua.LBool(r.ctrl.IsPlaying()))
	return 1
}

func (r *Runner) click(L *lua.LState) int {
	check(L, r.ctrl.Click(L.CheckString(1)))
	return 0
}

func (r *Runner) typeText(L *lua.LState) int {
	r.ctrl.Type(L.CheckString(1))
	return 0
}

func (r *Runner) key(L *lua.LState) int {
	name := L.CheckString(1)
	k, ok := host.ParseKey(name)
	if !ok {
		L.ArgError(1, "unknown key "+name)
	}
	r.ctrl.PressKey(k, host.ModNone)
	return 0
}

func (r *Runner) text(L *lua.LState) int {
	s, err := r.ctrl.Text(L.CheckString(1))
	check(L, err)
	L.Push(lua.LString(s))
	return 1
}

func (r *Runner) checked(L *lua.LState) int {
	on, err := r.ctrl.Checked(L.CheckString(1))
	check(L, err)
	L.Push(lua.LBool(on))
	return 1
}

func (r *Runner) reset(L *lua.LState) int {
	r.ctrl.ResetForm()
	return 0
}

// reportTable converts a playback report for Lua.
func reportTable(L *lua.LState, rep macro.Report) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("status", lua.LString(strings.ToLower(rep.Status.String())))
	t.RawSetString("name", lua.LString(rep.Macro))
	t.RawSetString("events", lua.LNumber(rep.EventsPlayed))
	t.RawSetString("duration_ms", lua.LNumber(rep.Duration.Milliseconds()))
	if rep.Err != nil {
		t.RawSetString("error", lua.LString(rep.Err.Error()))
	}
	return t
}
