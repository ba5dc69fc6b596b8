package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/quill/internal/state"
)

// Selections cross into Lua as an array of {anchor=, head=} tables plus a
// 1-based primary index. Document positions stay 0-based offsets.

// rangeToTable converts a selection range.
func rangeToTable(L *lua.LState, r state.SelectionRange) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("anchor", lua.LNumber(r.Anchor))
	t.RawSetString("head", lua.LNumber(r.Head))
	t.RawSetString("from", lua.LNumber(r.From()))
	t.RawSetString("to", lua.LNumber(r.To()))
	return t
}

// selectionToTable converts a selection to an array of ranges.
func selectionToTable(L *lua.LState, sel state.EditorSelection) *lua.LTable {
	t := L.CreateTable(sel.Len(), 0)
	for _, r := range sel.Ranges() {
		t.Append(rangeToTable(L, r))
	}
	return t
}

// tableToRange reads a range table. head defaults to anchor.
func tableToRange(L *lua.LState, lv lua.LValue) (state.SelectionRange, bool) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return state.SelectionRange{}, false
	}
	anchor, ok := t.RawGetString("anchor").(lua.LNumber)
	if !ok {
		return state.SelectionRange{}, false
	}
	head := anchor
	if h, ok := t.RawGetString("head").(lua.LNumber); ok {
		head = h
	}
	return state.Range(int(anchor), int(head)), true
}

// checkSelection reads the selection table at argument n, raising a Lua
// argument error when it is malformed.
func checkSelection(L *lua.LState, n int, primary int) state.EditorSelection {
	t := L.CheckTable(n)
	var ranges []state.SelectionRange
	for i := 1; i <= t.Len(); i++ {
		r, ok := tableToRange(L, t.RawGetInt(i))
		if !ok {
			L.ArgError(n, "range tables need a numeric anchor")
		}
		ranges = append(ranges, r)
	}
	sel, err := state.CreateSelection(ranges, primary)
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return sel
}
