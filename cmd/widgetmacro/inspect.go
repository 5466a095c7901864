package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dshills/widgetmacro/internal/macro"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
	keyColor     = color.New(color.FgYellow)
	mouseColor   = color.New(color.FgGreen)
	moveColor    = color.New(color.FgBlue)
)

func runInspect(_ context.Context, g globalOptions, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "List every event")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "Usage: widgetmacro inspect [-v] file...\n")
		return errUsage
	}
	if g.noColor {
		color.NoColor = true
	}

	for _, path := range fs.Args() {
		macros, err := macro.LoadFile(path)
		if err != nil {
			return err
		}
		headingColor.Fprintf(stdout, "%s", path)
		fmt.Fprintf(stdout, " (%s, %d macros)\n", macro.FormatFor(path), len(macros))
		for i, m := range macros {
			describe(stdout, i, m, *verbose)
		}
	}
	return nil
}

func describe(w io.Writer, i int, m macro.Macro, verbose bool) {
	name := m.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "  %d. %s  %d events  %s  speed %g\n", i+1, name, m.Len(), m.Duration().Round(time.Millisecond), m.Speed)

	counts := m.Counts()
	parts := make([]string, 0, len(counts))
	for _, t := range []macro.EventType{macro.TypeKey, macro.TypeMouse, macro.TypeMouseDoubleClick, macro.TypeMouseMove} {
		if n := counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", t, n))
		}
	}
	if len(parts) > 0 {
		dimColor.Fprintf(w, "     %s\n", strings.Join(parts, " "))
	}

	specs := m.Widgets()
	widgets := make([]string, len(specs))
	for j, s := range specs {
		widgets[j] = s.String()
	}
	if len(widgets) > 0 {
		dimColor.Fprintf(w, "     widgets: %s\n", strings.Join(widgets, ", "))
	}

	if !verbose {
		return
	}
	for j, ev := range m.Events {
		c := mouseColor
		switch ev.(type) {
		case macro.KeyEvent:
			c = keyColor
		case macro.MouseMoveEvent:
			c = moveColor
		}
		c.Fprintf(w, "     %3d  %v\n", j, ev)
	}
}

func runConvert(_ context.Context, _ globalOptions, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	single := fs.Bool("single", false, "Write the first macro as a single record instead of a list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fmt.Fprintf(stderr, "Usage: widgetmacro convert [-single] in.json out.yaml\n")
		return errUsage
	}

	macros, err := macro.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	var written string
	if *single {
		if len(macros) == 0 {
			return fmt.Errorf("%s holds no macros", fs.Arg(0))
		}
		written, err = macro.SaveMacroFile(fs.Arg(1), macros[0])
		macros = macros[:1]
	} else {
		written, err = macro.SaveFile(fs.Arg(1), macros...)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d macros to %s (%s)\n", len(macros), written, macro.FormatFor(written))
	return nil
}
