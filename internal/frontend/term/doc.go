// Package term is a tcell terminal frontend for an EditorView.
//
// The terminal plays the part a browser plays for a contenteditable
// element: printable keys, Backspace and Enter with a single cursor edit the
// view's rendered tree directly, and the view's reconciler turns those edits
// into transactions. Cursor motion, Delete, select-all, undo and edits with
// several or non-empty ranges dispatch transactions instead.
//
// Key bindings:
//
//	arrows, Home, End, PgUp, PgDn   move (Shift extends the selection)
//	Ctrl-A                          select all
//	Ctrl-Z, Ctrl-Y                  undo, redo (with WithHistory)
//	Ctrl-S                          save (with WithSave)
//	Ctrl-Q, Ctrl-C                  quit
package term
