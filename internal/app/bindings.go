package app

import (
	"github.com/dshills/widgetmacro/internal/config"
	"github.com/dshills/widgetmacro/internal/config/notify"
)

// bindSettings keeps the running components in step with the settings.
// Observers may run on the watcher goroutine, so anything touching the
// player is posted to the host loop.
func (app *Application) bindSettings() {
	app.subs = append(app.subs,
		app.config.SubscribeKey(config.KeySpeed, func(c notify.Change) {
			speed, ok := c.New.(float64)
			if !ok {
				return
			}
			app.host.Post(func() {
				if speed == app.player.Speed() {
					return
				}
				if err := app.player.SetSpeed(speed); err != nil {
					app.logger.Warn("speed not applied", "speed", speed, "error", err)
					return
				}
				app.logger.Info("playback speed changed", "speed", speed, "source", c.Source)
			})
		}),
		app.config.SubscribeKey(config.KeyLogLevel, func(c notify.Change) {
			level, _ := c.New.(string)
			if err := app.logger.SetLevel(level); err != nil {
				app.logger.Warn("log level not applied", "level", level, "error", err)
			}
		}),
		app.config.SubscribeKey(config.KeyLogFormat, func(c notify.Change) {
			app.logger.Info("log format change takes effect after restart", "format", c.New)
		}),
		app.config.SubscribeKey("recorder", func(c notify.Change) {
			app.logger.Debug("recorder setting changed", "key", c.Key, "value", c.New)
		}),
		app.config.Subscribe(func(c notify.Change) {
			if c.Type == notify.ChangeReload {
				app.host.Post(func() { app.setStatus("settings reloaded") })
			}
		}),
	)
}
