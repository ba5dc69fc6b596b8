// Package main is the entry point for the Quill editor.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quill/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type flags struct {
	opts     app.Options
	logFile  string
	snapshot bool
}

func main() {
	os.Exit(run())
}

func run() int {
	f := parseFlags()

	var logOut io.Writer
	switch {
	case f.logFile != "":
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
			return 1
		}
		defer file.Close()
		logOut = file
	case f.snapshot:
		// Nothing else writes to the terminal in snapshot mode
		logOut = os.Stderr
	}
	f.opts.LogOutput = logOut

	application, err := app.New(f.opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.RunScripts(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if f.snapshot {
			return 1
		}
	}

	if f.snapshot {
		if err := application.Snapshot(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := application.Run(ctx, screen); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags() flags {
	var f flags
	var showVersion bool
	var showHelp bool

	flag.StringVar(&f.opts.ConfigPath, "config", "", "Path to settings file (.toml or .yaml)")
	flag.StringVar(&f.opts.ConfigPath, "c", "", "Path to settings file (shorthand)")
	flag.StringVar(&f.opts.Script, "script", "", "Lua script to run after loading")
	flag.StringVar(&f.opts.Script, "s", "", "Lua script to run after loading (shorthand)")
	flag.StringVar(&f.opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the settings file")
	flag.StringVar(&f.logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&f.opts.Watch, "watch", true, "Reload the settings file when it changes")
	flag.BoolVar(&f.snapshot, "snapshot", false, "Print the editor state as JSON after scripts run, then exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Quill - a small scriptable text editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: quill [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quill                              Open an empty buffer\n")
		fmt.Fprintf(os.Stderr, "  quill notes.txt                    Open a file\n")
		fmt.Fprintf(os.Stderr, "  quill -c quill.toml notes.txt      Open with settings\n")
		fmt.Fprintf(os.Stderr, "  quill -s fmt.lua -snapshot a.txt   Run a script and print the result\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Quill %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch flag.NArg() {
	case 0:
	case 1:
		f.opts.File = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: quill edits one file at a time\n")
		os.Exit(1)
	}
	if f.snapshot {
		f.opts.Watch = false
	}
	return f
}
