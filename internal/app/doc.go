// Package app wires the editor together: settings, logging, the editor
// state and view, undo history, scripting, live settings reload and the
// terminal frontend.
//
// Startup order in New:
//
//  1. settings (a broken file falls back to the defaults and is logged)
//  2. logging
//  3. document and editor state
//  4. view and undo history
//  5. script runner
//  6. settings reloader, when Options.Watch is set
//
// Run attaches the terminal frontend. Reloaded settings are posted to the
// terminal's event loop so they are applied on the same goroutine as edits.
package app
