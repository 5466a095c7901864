package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/app"
	"github.com/dshills/widgetmacro/internal/script"
)

func runScript(ctx context.Context, g globalOptions, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("script", flag.ContinueOnError)
	fs.SetOutput(stderr)
	show := fs.Bool("show", false, "Open the demo form after the script finishes")
	load := fs.String("load", "", "Load macros from this file first")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Usage: widgetmacro script [-show] [-load file] script.lua\n")
		return errUsage
	}

	fallback := stderr
	if *show {
		fallback = nil
	}
	logOut, closeLog, err := openLog(g, fallback)
	if err != nil {
		return err
	}
	defer closeLog()

	opts := app.Options{ConfigPath: g.configPath, LogOutput: logOut}
	if *show {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("creating terminal screen: %w", err)
		}
		opts.Screen = screen
	}
	application, err := app.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer application.Close()

	if *load != "" {
		if err := application.Load(*load, true); err != nil {
			return err
		}
	}

	runner := script.New(application,
		script.WithOutput(stdout),
		script.WithLogger(application.Logger().Logger),
	)
	defer runner.Close()

	if err := runner.RunFile(ctx, fs.Arg(0)); err != nil {
		return err
	}
	if *show {
		return application.Run(ctx)
	}
	return nil
}
