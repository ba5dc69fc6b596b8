// Package script runs Lua scripts against an editor.
//
// Scripts run in a sandboxed gopher-lua state with the base, table, string
// and math libraries. Functions that load code (dofile, load, ...) are
// removed and print writes to the log.
//
// A global editor module reads and edits the document:
//
//	editor.text()                      -- whole document
//	editor.slice(from, to)             -- text of [from, to)
//	editor.length(), editor.line_count()
//	editor.line(n)                     -- text of 0-based line n
//	editor.line_at(pos)                -- number, from, to
//	editor.selection()                 -- {{anchor=, head=, from=, to=}, ...}, primary
//	editor.cursor()                    -- head of the primary range
//	editor.find(needle [, from [, fold]]) -- from, to or nil
//	editor.replace(from, to, text)
//	editor.insert(pos, text)
//	editor.delete(from, to)
//	editor.replace_selection(text)
//	editor.select(anchor [, head])
//	editor.set_selection(ranges [, primary])
//
// Positions are 0-based document offsets; a line break counts as one. Edits
// apply in order, each against the document left by the previous one. All
// edits of a run form a single transaction, annotated with the "script"
// user event and dispatched when the script returns. A script that fails
// dispatches nothing.
package script
