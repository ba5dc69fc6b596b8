package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/text"
)

// editor backs the Lua editor module. Every call reads or extends one
// pending transaction, so reads see the script's own earlier edits.
type editor struct {
	tr *state.Transaction
}

func newEditor(tr *state.Transaction) *editor {
	return &editor{tr: tr}
}

func (e *editor) funcs() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"text":              e.text,
		"slice":             e.slice,
		"length":            e.length,
		"line_count":        e.lineCount,
		"line":              e.line,
		"line_at":           e.lineAt,
		"selection":         e.selection,
		"cursor":            e.cursor,
		"find":              e.find,
		"replace":           e.replace,
		"insert":            e.insert,
		"delete":            e.delete,
		"replace_selection": e.replaceSelection,
		"select":            e.selectRange,
		"set_selection":     e.setSelection,
	}
}

// check raises the transaction's error, if any, in Lua.
func (e *editor) check(L *lua.LState) {
	if err := e.tr.Err(); err != nil {
		L.RaiseError("%v", err)
	}
}

func (e *editor) doc() *text.Document {
	return e.tr.Doc()
}

// checkRange reads a [from, to) pair starting at argument n.
func (e *editor) checkRange(L *lua.LState, n int) (int, int) {
	from, to := L.CheckInt(n), L.CheckInt(n+1)
	if from < 0 || to < from || to > e.doc().Len() {
		L.ArgError(n, "range out of bounds")
	}
	return from, to
}

func (e *editor) text(L *lua.LState) int {
	L.Push(lua.LString(e.tr.StartState().JoinLines(e.doc().Lines())))
	return 1
}

func (e *editor) slice(L *lua.LState) int {
	from, to := e.checkRange(L, 1)
	L.Push(lua.LString(e.tr.StartState().JoinLines(e.doc().SliceLines(from, to))))
	return 1
}

func (e *editor) length(L *lua.LState) int {
	L.Push(lua.LNumber(e.doc().Len()))
	return 1
}

func (e *editor) lineCount(L *lua.LState) int {
	L.Push(lua.LNumber(e.doc().LineCount()))
	return 1
}

// line returns the text of a 0-based line.
func (e *editor) line(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 || n >= e.doc().LineCount() {
		L.ArgError(1, "line out of range")
	}
	L.Push(lua.LString(e.doc().Line(n)))
	return 1
}

// lineAt returns the number, start and end of the line holding pos.
func (e *editor) lineAt(L *lua.LState) int {
	info := e.doc().LineAt(L.CheckInt(1))
	L.Push(lua.LNumber(info.Number))
	L.Push(lua.LNumber(info.From))
	L.Push(lua.LNumber(info.To))
	return 3
}

// selection returns the ranges and the 1-based primary index.
func (e *editor) selection(L *lua.LState) int {
	sel := e.tr.Selection()
	L.Push(selectionToTable(L, sel))
	L.Push(lua.LNumber(sel.PrimaryIndex() + 1))
	return 2
}

func (e *editor) cursor(L *lua.LState) int {
	L.Push(lua.LNumber(e.tr.Selection().Primary().Head))
	return 1
}

// find returns the first match of needle at or after from, or nil.
func (e *editor) find(L *lua.LState) int {
	needle := L.CheckString(1)
	from := L.OptInt(2, 0)
	fold := L.OptBool(3, false)
	c := text.NewSearchCursor(e.doc(), needle, from, e.doc().Len(), fold)
	if c.Next().Done {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(c.Value.From))
	L.Push(lua.LNumber(c.Value.To))
	return 2
}

func (e *editor) replace(L *lua.LState) int {
	from, to := e.checkRange(L, 1)
	e.tr.Replace(from, to, L.CheckString(3))
	e.check(L)
	return 0
}

func (e *editor) insert(L *lua.LState) int {
	pos := L.CheckInt(1)
	if pos < 0 || pos > e.doc().Len() {
		L.ArgError(1, "position out of bounds")
	}
	e.tr.Replace(pos, pos, L.CheckString(2))
	e.check(L)
	return 0
}

func (e *editor) delete(L *lua.LState) int {
	from, to := e.checkRange(L, 1)
	e.tr.Replace(from, to, "")
	e.check(L)
	return 0
}

func (e *editor) replaceSelection(L *lua.LState) int {
	e.tr.ReplaceSelection(L.CheckString(1))
	e.check(L)
	return 0
}

// selectRange selects anchor..head, or places a cursor when head is omitted.
func (e *editor) selectRange(L *lua.LState) int {
	anchor := L.CheckInt(1)
	head := L.OptInt(2, anchor)
	n := e.doc().Len()
	if anchor < 0 || anchor > n || head < 0 || head > n {
		L.ArgError(1, "selection out of bounds")
	}
	e.tr.SetSelection(state.SingleSelection(anchor, head))
	e.check(L)
	return 0
}

// setSelection takes an array of ranges and an optional 1-based primary
// index.
func (e *editor) setSelection(L *lua.LState) int {
	primary := L.OptInt(2, 1) - 1
	sel := checkSelection(L, 1, primary)
	for _, r := range sel.Ranges() {
		if r.To() > e.doc().Len() {
			L.ArgError(1, "selection out of bounds")
		}
	}
	e.tr.SetSelection(sel)
	e.check(L)
	return 0
}
