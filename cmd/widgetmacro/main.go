// Package main is the entry point for widgetmacro.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/widgetmacro/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configPath string
	logFile    string
	noColor    bool
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, g globalOptions, args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"demo", "open the demo form in the terminal (default)", runDemo},
	{"script", "run a Lua script against the demo form", runScript},
	{"inspect", "describe the macros in saved files", runInspect},
	{"convert", "rewrite a macro file as JSON or YAML", runConvert},
	{"version", "show version information", runVersion},
}

// errUsage reports bad arguments; the message has been printed already.
var errUsage = errors.New("usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("widgetmacro", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var g globalOptions
	fs.StringVar(&g.configPath, "config", config.DefaultPath(), "Path to settings file")
	fs.StringVar(&g.configPath, "c", config.DefaultPath(), "Path to settings file (shorthand)")
	fs.StringVar(&g.logFile, "log-file", "", "Append log output to this file")
	fs.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
	fs.Usage = func() { usage(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	name := "demo"
	rest := fs.Args()
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", name)
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, g, rest, stdout, stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "widgetmacro - record and replay terminal widget input\n\n")
	fmt.Fprintf(w, "Usage: widgetmacro [options] [command] [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  widgetmacro                          Open the demo; F2 records, F5 plays\n")
	fmt.Fprintf(w, "  widgetmacro script fill.lua          Run a script headless\n")
	fmt.Fprintf(w, "  widgetmacro inspect macros.json      List recorded events\n")
	fmt.Fprintf(w, "  widgetmacro convert a.json a.yaml    Convert between formats\n")
}

func runVersion(_ context.Context, _ globalOptions, _ []string, stdout, _ io.Writer) error {
	fmt.Fprintf(stdout, "widgetmacro %s\n", version)
	fmt.Fprintf(stdout, "Commit: %s\n", commit)
	fmt.Fprintf(stdout, "Built: %s\n", date)
	return nil
}

// openLog opens the log file, or returns fallback when none is set.
func openLog(g globalOptions, fallback io.Writer) (io.Writer, func(), error) {
	if g.logFile == "" {
		return fallback, func() {}, nil
	}
	f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
