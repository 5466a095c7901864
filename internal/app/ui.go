package app

import (
	"time"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/termhost"
)

// widget finds a shown widget by name or caption.
func (app *Application) widget(label string) (*termhost.Widget, error) {
	w := app.host.Find(label)
	if w == nil || !w.Attached() || !w.Shown() {
		return nil, NewOperationError("find", label, ErrNoWidget)
	}
	return w, nil
}

// Click clicks the centre of the widget named or captioned label, as a
// user at the terminal would.
func (app *Application) Click(label string) error {
	w, err := app.widget(label)
	if err != nil {
		return err
	}
	app.host.UserClick(termhost.Center(w), host.ModNone)
	return nil
}

// Type types text into the focused widget.
func (app *Application) Type(text string) {
	app.host.UserType(text)
}

// PressKey presses and releases key on the focused widget.
func (app *Application) PressKey(key host.Key, mods host.Modifiers) {
	app.host.UserKey(key, mods)
}

// Text returns a widget's caption, or a line edit's content.
func (app *Application) Text(label string) (string, error) {
	w, err := app.widget(label)
	if err != nil {
		return "", err
	}
	if w.Kind() == termhost.KindLineEdit {
		return w.Value(), nil
	}
	return w.Text(), nil
}

// Checked reports a check box's state.
func (app *Application) Checked(label string) (bool, error) {
	w, err := app.widget(label)
	if err != nil {
		return false, err
	}
	return w.Checked(), nil
}

// ResetForm clears the data-entry widgets.
func (app *Application) ResetForm() {
	app.form.Reset()
}

// Pause lets d pass on the host loop, running whatever falls due. With a
// manual clock the clock jumps forward instead of sleeping.
func (app *Application) Pause(d time.Duration) {
	if d > 0 {
		app.host.AfterFunc(d, func() {})
	}
	app.Wait()
}
