// Package config loads quill settings and keeps them current.
//
// Settings are read from a TOML or YAML file, chosen by extension, on top
// of built-in defaults:
//
//	# ~/.config/quill/settings.toml
//	[editor]
//	line_separator = "\n"
//	multiple_selections = true
//	backspace_window = "150ms"
//
//	[log]
//	level = "debug"
//
//	[script]
//	path = "init.lua"
//
// The same file in YAML:
//
//	editor:
//	  line_separator: "\n"
//	  multiple_selections: true
//	  backspace_window: 150ms
//	log:
//	  level: debug
//	script:
//	  path: init.lua
//
// Settings become editor behavior through Extensions, which is normally
// installed in the "settings" slot so a Reloader can swap it when the file
// changes:
//
//	s, _ := config.Load(path)
//	st, _ := state.CreateState(state.StateConfig{Extensions: []state.Extension{s.SlotExtension()}})
//
// # Sub-packages
//
//   - loader: strict TOML and YAML decoding with positioned parse errors
//   - watcher: fsnotify-based file watching with debouncing
package config
