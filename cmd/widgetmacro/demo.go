package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/app"
)

func runDemo(ctx context.Context, g globalOptions, args []string, _, stderr io.Writer) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	watch := fs.Bool("watch", true, "Reload the settings file when it changes")
	load := fs.String("load", "", "Load macros from this file first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Usage: widgetmacro demo [-watch] [-load file]\n")
		return errUsage
	}

	logOut, closeLog, err := openLog(g, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal screen: %w", err)
	}

	application, err := app.New(app.Options{
		ConfigPath: g.configPath,
		Watch:      *watch,
		Screen:     screen,
		LogOutput:  logOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	if *load != "" {
		if err := application.Load(*load, true); err != nil {
			return err
		}
	}
	return application.Run(ctx)
}
