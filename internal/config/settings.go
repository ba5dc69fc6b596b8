package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dshills/quill/internal/config/loader"
	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view"
)

// SettingsSlot is the configuration slot settings extensions live in.
const SettingsSlot = "settings"

// Duration is a time.Duration written as a string such as "150ms".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes the duration as a string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Settings holds all user settings.
type Settings struct {
	Editor EditorSettings `toml:"editor" yaml:"editor"`
	Log    LogSettings    `toml:"log" yaml:"log"`
	Script ScriptSettings `toml:"script" yaml:"script"`
}

// EditorSettings configures editing behavior.
type EditorSettings struct {
	// LineSeparator splits and joins document lines. Empty accepts "\n",
	// "\r\n" and "\r".
	LineSeparator string `toml:"line_separator" yaml:"line_separator"`

	// MultipleSelections allows selections with several ranges.
	MultipleSelections bool `toml:"multiple_selections" yaml:"multiple_selections"`

	// BackspaceWindow is how long after Backspace an ambiguous deletion is
	// attributed to it.
	BackspaceWindow Duration `toml:"backspace_window" yaml:"backspace_window"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `toml:"level" yaml:"level"`
}

// ScriptSettings names a Lua script run at startup.
type ScriptSettings struct {
	Path string `toml:"path" yaml:"path"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Editor: EditorSettings{
			BackspaceWindow: Duration(view.DefaultBackspaceWindow),
		},
		Log: LogSettings{Level: "info"},
	}
}

var validSeparators = map[string]bool{"": true, "\n": true, "\r\n": true, "\r": true}

// Validate checks the settings for unusable values.
func (s Settings) Validate() error {
	if !validSeparators[s.Editor.LineSeparator] {
		return fmt.Errorf("%w: editor.line_separator %q", ErrValidationFailed, s.Editor.LineSeparator)
	}
	if s.Editor.BackspaceWindow <= 0 {
		return fmt.Errorf("%w: editor.backspace_window must be positive", ErrValidationFailed)
	}
	if _, ok := logging.ParseLevel(s.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q", ErrValidationFailed, s.Log.Level)
	}
	return nil
}

// LogLevel returns the configured log level, or info.
func (s Settings) LogLevel() logging.Level {
	if l, ok := logging.ParseLevel(s.Log.Level); ok {
		return l
	}
	return logging.LevelInfo
}

// Extensions returns the state extensions the editor settings imply.
func (s Settings) Extensions() state.Extension {
	exts := []state.Extension{state.AllowMultipleSelections.Of(s.Editor.MultipleSelections)}
	if s.Editor.LineSeparator != "" {
		exts = append(exts, state.LineSeparator.Of(s.Editor.LineSeparator))
	}
	return state.Extensions(exts...)
}

// SlotExtension returns Extensions wrapped in the settings slot.
func (s Settings) SlotExtension() state.Extension {
	return state.Slot(SettingsSlot, s.Extensions())
}

// Replacement swaps the settings slot content for these settings.
func (s Settings) Replacement() state.Replacement {
	return state.Replacement{Slot: SettingsSlot, With: s.Extensions()}
}

// ViewOptions returns the view options the settings imply.
func (s Settings) ViewOptions() []view.Option {
	return []view.Option{view.WithBackspaceWindow(time.Duration(s.Editor.BackspaceWindow))}
}

// Load reads settings from path on top of the defaults. A missing file
// yields the defaults. A relative script path is resolved against the
// file's directory.
func Load(path string) (Settings, error) {
	return LoadFS(loader.DefaultFS(), path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys loader.FileSystem, path string) (Settings, error) {
	s := Default()
	found, err := loader.LoadFile(fsys, path, &s)
	if err != nil {
		return Default(), err
	}
	if !found {
		return s, nil
	}
	if err := s.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	if s.Script.Path != "" && !filepath.IsAbs(s.Script.Path) {
		s.Script.Path = filepath.Join(filepath.Dir(path), s.Script.Path)
	}
	return s, nil
}
