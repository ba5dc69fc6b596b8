package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/frontend/term"
	"github.com/dshills/quill/internal/history"
	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/script"
	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the settings file. Empty uses the defaults.
	ConfigPath string

	// File is the document to edit. A file that does not exist yet starts
	// empty and is created on save.
	File string

	// Script is a Lua script run after startup, in addition to the one the
	// settings name.
	Script string

	// LogLevel overrides the configured level when set.
	LogLevel string

	// LogOutput receives log lines. Nil discards them.
	LogOutput io.Writer

	// Watch reloads the settings file when it changes.
	Watch bool
}

// Application owns one editor session.
type Application struct {
	mu sync.Mutex

	opts     Options
	settings config.Settings
	log      *logging.Logger

	view     *view.EditorView
	history  *history.History
	runner   *script.Runner
	reloader *config.Reloader
	term     *term.Terminal
	post     func(func()) error
}

// New loads settings and the document and builds the editor.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Settings. A broken settings file falls back to the defaults.
	settings := config.Default()
	var loadErr error
	if app.opts.ConfigPath != "" {
		settings, loadErr = config.Load(app.opts.ConfigPath)
	}
	app.settings = settings

	// 2. Logging
	level := settings.LogLevel()
	if app.opts.LogLevel != "" {
		l, ok := logging.ParseLevel(app.opts.LogLevel)
		if !ok {
			return &InitError{Component: "logging", Err: errors.New("invalid log level " + app.opts.LogLevel)}
		}
		level = l
	}
	if app.opts.LogOutput != nil {
		app.log = logging.New(logging.Config{Level: level, Output: app.opts.LogOutput, Prefix: "quill"})
	} else {
		app.log = logging.Nop()
	}
	if loadErr != nil {
		app.log.Warn("using default settings: %v", loadErr)
	}

	// 3. Document and state
	content, err := app.readDocument()
	if err != nil {
		return &InitError{Component: "document", Err: err}
	}
	st, err := state.CreateState(state.StateConfig{
		Doc:        content,
		Extensions: []state.Extension{settings.SlotExtension()},
	})
	if err != nil {
		return &InitError{Component: "state", Err: err}
	}

	// 4. View with undo history
	app.history = history.New()
	viewOpts := append(settings.ViewOptions(),
		view.WithLogger(app.log),
		view.WithDispatch(app.dispatch),
	)
	app.view = view.NewEditorView(st, viewOpts...)

	// 5. Scripting
	app.runner = script.NewRunner(app.view, app.log)

	// 6. Settings reload
	if app.opts.Watch && app.opts.ConfigPath != "" {
		r, err := config.NewReloader(app.opts.ConfigPath, app.log)
		if err != nil {
			return &InitError{Component: "config watcher", Err: err}
		}
		app.reloader = r
	}
	return nil
}

func (app *Application) readDocument() (string, error) {
	if app.opts.File == "" {
		return "", nil
	}
	data, err := os.ReadFile(app.opts.File)
	if errors.Is(err, fs.ErrNotExist) {
		app.log.Info("new file %s", app.opts.File)
		return "", nil
	}
	if err != nil {
		return "", &FileError{Op: "open", Path: app.opts.File, Err: err}
	}
	return string(data), nil
}

// dispatch updates the view and records the transaction for undo.
func (app *Application) dispatch(v *view.EditorView, tr *state.Transaction) error {
	if err := v.Update(tr); err != nil {
		return err
	}
	app.history.Record(tr)
	return nil
}

// View returns the editor view.
func (app *Application) View() *view.EditorView {
	return app.view
}

// History returns the undo history.
func (app *Application) History() *history.History {
	return app.history
}

// Settings returns the settings in effect.
func (app *Application) Settings() config.Settings {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.settings
}

// RunScripts runs the script named by the settings, then Options.Script.
// A failing script is logged and reported; later scripts still run.
func (app *Application) RunScripts(ctx context.Context) error {
	var errs []error
	for _, path := range []string{app.Settings().Script.Path, app.opts.Script} {
		if path == "" {
			continue
		}
		if err := app.runner.RunFile(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ApplySettings reconfigures the running editor. The document and history
// are kept.
func (app *Application) ApplySettings(s config.Settings) error {
	tr := app.view.State().T().
		ReplaceExtensions([]state.Replacement{s.Replacement()}).
		Annotate(state.UserEventAnnotation.Of("reconfigure"))
	if err := app.view.Dispatch(tr); err != nil {
		app.log.Error("apply settings: %v", err)
		return err
	}
	app.view.SetBackspaceWindow(time.Duration(s.Editor.BackspaceWindow))
	app.log.SetLevel(s.LogLevel())

	app.mu.Lock()
	app.settings = s
	app.mu.Unlock()
	app.log.Info("settings applied")
	return nil
}

// Snapshot writes the state as JSON.
func (app *Application) Snapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(app.view.State())
}

// Save writes the document to Options.File.
func (app *Application) Save() error {
	path := app.opts.File
	if path == "" {
		return &FileError{Op: "save", Err: ErrNoFilePath}
	}
	s := app.view.State()
	data := s.JoinLines(s.Doc().Lines())
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return &FileError{Op: "save", Path: path, Err: err}
	}
	app.log.Info("saved %s", filepath.Base(path))
	return nil
}

// Run hosts the editor on screen until the user quits or ctx is done.
func (app *Application) Run(ctx context.Context, screen tcell.Screen) error {
	name := "quill"
	if app.opts.File != "" {
		name = filepath.Base(app.opts.File)
	}
	app.term = term.New(screen, app.view,
		term.WithHistory(app.history),
		term.WithLogger(app.log),
		term.WithSave(app.Save),
		term.WithName(name),
	)
	app.post = app.term.Post
	if err := app.term.Init(); err != nil {
		return &InitError{Component: "terminal", Err: err}
	}
	defer app.term.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if app.reloader != nil {
		app.reloader.Start()
		go app.forwardSettings(ctx)
	}
	return app.term.Run(ctx)
}

// forwardSettings hands reloaded settings to the terminal's event loop.
func (app *Application) forwardSettings(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-app.reloader.Updates():
			if !ok {
				return
			}
			app.deliver(s)
		}
	}
}

// deliver posts s to the event loop for ApplySettings. A full event queue
// drops the update.
func (app *Application) deliver(s config.Settings) {
	err := app.post(func() {
		if err := app.ApplySettings(s); err != nil {
			app.term.SetMessage("settings: " + err.Error())
			return
		}
		app.term.SetMessage("settings reloaded")
	})
	if err != nil {
		app.log.Warn("settings reload dropped: %v", err)
	}
}

// Shutdown releases resources.
func (app *Application) Shutdown() {
	if app.reloader != nil {
		if err := app.reloader.Close(); err != nil {
			app.log.Warn("closing config watcher: %v", err)
		}
	}
}
