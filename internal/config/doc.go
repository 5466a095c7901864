// Package config provides the settings store for widgetmacro.
//
// Settings are read from a TOML file and can be overridden with
// environment variables. Higher layers override lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← WIDGETMACRO_PLAYER_SPEED, ...
//	├─────────────────────────────┤
//	│  2. Settings File           │  ← ~/.config/widgetmacro/settings.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │
//	└─────────────────────────────┘
//
// # Settings
//
// Every setting is addressed by a dotted key matching its TOML table:
//
//	[player]
//	speed = 1.0
//
//	[recorder]
//	filter_mouse_movements = true
//	trim_trailing_moves = true
//	move_event_interpolation_count = 4
//
//	[storage]
//	macro_save_path = ""
//
//	[logging]
//	level = "info"
//	format = "text"
//
// Values are checked when they are set. A value that does not fit its
// setting is rejected with an *InvalidSettingValueError and the current
// value is kept.
//
// # Change Notification
//
// Components subscribe to changes through the notify sub-package:
//
//	sub := cfg.SubscribeKey("player.speed", func(c notify.Change) {
//	    player.SetSpeed(c.New.(float64))
//	})
//	defer sub.Unsubscribe()
//
// # Live Reload
//
// Watch starts an fsnotify watcher on the settings file. Each settled
// write reloads the file and notifies subscribers of the keys that
// changed. A file that fails to load leaves the current settings in
// place.
package config
