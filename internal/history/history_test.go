package history

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/quill/internal/state"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// editor applies transactions and records them, as a dispatch hook would.
type editor struct {
	t *testing.T
	h *History
	s *state.EditorState
}

func newEditor(t *testing.T, doc string, opts ...Option) *editor {
	t.Helper()
	s, err := state.CreateState(state.StateConfig{Doc: doc})
	if err != nil {
		t.Fatalf("CreateState: %v", err)
	}
	return &editor{t: t, h: New(opts...), s: s}
}

func (e *editor) apply(tr *state.Transaction) {
	e.t.Helper()
	next, err := tr.Apply()
	if err != nil {
		e.t.Fatalf("Apply: %v", err)
	}
	e.s = next
	e.h.Record(tr)
}

// insert types str at pos, ms milliseconds after base.
func (e *editor) insert(pos int, str string, ms int) {
	e.t.Helper()
	e.apply(e.s.TAt(base.Add(time.Duration(ms)*time.Millisecond)).
		Replace(pos, pos, str).
		SetSelection(state.Cursor(pos + len(str))).
		Annotate(state.UserEventAnnotation.Of("dom")))
}

func (e *editor) undo() error {
	tr, err := e.h.Undo(e.s)
	if err != nil {
		return err
	}
	e.apply(tr)
	return nil
}

func (e *editor) redo() error {
	tr, err := e.h.Redo(e.s)
	if err != nil {
		return err
	}
	e.apply(tr)
	return nil
}

func (e *editor) doc() string { return e.s.Doc().String() }

func TestUndoRedo(t *testing.T) {
	e := newEditor(t, "abc", WithGroupDelay(0))
	e.insert(3, "d", 0)
	e.apply(e.s.T().Replace(0, 1, "X\nY"))

	if got := e.doc(); got != "X\nYbcd" {
		t.Fatalf("doc = %q", got)
	}
	if e.h.UndoCount() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", e.h.UndoCount())
	}

	if err := e.undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := e.doc(); got != "abcd" {
		t.Errorf("after one undo doc = %q", got)
	}
	if !e.s.Selection().Eq(state.Cursor(4)) {
		t.Errorf("selection after undo = %v, want cursor 4", e.s.Selection())
	}
	if err := e.undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := e.doc(); got != "abc" {
		t.Errorf("after two undos doc = %q", got)
	}
	if !e.s.Selection().Eq(state.Cursor(0)) {
		t.Errorf("selection after undo = %v, want cursor 0", e.s.Selection())
	}
	if err := e.undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo on empty stack = %v", err)
	}

	if err := e.redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if err := e.redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := e.doc(); got != "X\nYbcd" {
		t.Errorf("after redo doc = %q", got)
	}
	if err := e.redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo on empty stack = %v", err)
	}
	if e.h.UndoCount() != 2 || e.h.RedoCount() != 0 {
		t.Errorf("counts = %d/%d, want 2/0", e.h.UndoCount(), e.h.RedoCount())
	}
}

func TestUndoTransactionAnnotations(t *testing.T) {
	e := newEditor(t, "abc")
	e.insert(0, "x", 0)

	tr, err := e.h.Undo(e.s)
	if err != nil {
		t.Fatal(err)
	}
	if ev, _ := state.AnnotationValue(tr, state.UserEventAnnotation); ev != UndoEvent {
		t.Errorf("userEvent = %q, want %q", ev, UndoEvent)
	}
	if !tr.ScrolledIntoView() {
		t.Error("undo does not scroll into view")
	}
	e.apply(tr)
	if e.h.UndoCount() != 0 || e.h.RedoCount() != 1 {
		t.Errorf("recording the undo changed the stacks: %d/%d", e.h.UndoCount(), e.h.RedoCount())
	}
}

func TestGroupingByTime(t *testing.T) {
	e := newEditor(t, "", WithGroupDelay(100*time.Millisecond))
	e.insert(0, "a", 0)
	e.insert(1, "b", 50)
	e.insert(2, "c", 120)
	e.insert(3, "d", 400)

	if e.h.UndoCount() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", e.h.UndoCount())
	}
	if err := e.undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.doc(); got != "abc" {
		t.Errorf("doc = %q, want abc", got)
	}
	if err := e.undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.doc(); got != "" {
		t.Errorf("doc = %q, want empty", got)
	}

	if err := e.redo(); err != nil {
		t.Fatal(err)
	}
	if got := e.doc(); got != "abc" {
		t.Errorf("redo doc = %q, want abc", got)
	}
	if !e.s.Selection().Eq(state.Cursor(3)) {
		t.Errorf("redo selection = %v, want cursor 3", e.s.Selection())
	}
}

func TestGroupingNeedsSameEvent(t *testing.T) {
	e := newEditor(t, "")
	e.insert(0, "a", 0)
	e.apply(e.s.TAt(base.Add(10*time.Millisecond)).Replace(1, 1, "b").Annotate(state.UserEventAnnotation.Of("script")))
	if e.h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", e.h.UndoCount())
	}
}

func TestUndoClosesGroup(t *testing.T) {
	e := newEditor(t, "")
	e.insert(0, "a", 0)
	if err := e.undo(); err != nil {
		t.Fatal(err)
	}
	e.insert(0, "b", 10)
	if e.h.UndoCount() != 1 || e.h.RedoCount() != 0 {
		t.Errorf("counts = %d/%d, want 1/0", e.h.UndoCount(), e.h.RedoCount())
	}
	if err := e.undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.doc(); got != "" {
		t.Errorf("doc = %q, want empty", got)
	}
}

func TestExplicitGroup(t *testing.T) {
	e := newEditor(t, "12345", WithGroupDelay(0))
	e.insert(0, "x", 0)
	e.h.BeginGroup()
	e.apply(e.s.T().Replace(1, 2, ""))
	e.apply(e.s.T().Replace(3, 4, "--"))
	e.h.EndGroup()
	e.insert(0, "y", 0)

	if e.h.UndoCount() != 3 {
		t.Fatalf("UndoCount() = %d, want 3", e.h.UndoCount())
	}
	if err := e.undo(); err != nil {
		t.Fatal(err)
	}
	if err := e.undo(); err != nil {
		t.Fatal(err)
	}
	if got := e.doc(); got != "x12345" {
		t.Errorf("doc = %q, want x12345", got)
	}
}

func TestSkipAndClear(t *testing.T) {
	e := newEditor(t, "abc")
	e.insert(0, "x", 0)

	e.apply(e.s.T().SetSelection(state.Cursor(2)))
	if e.h.UndoCount() != 1 {
		t.Errorf("selection-only transaction recorded: %d entries", e.h.UndoCount())
	}

	e.apply(e.s.T().Replace(0, 0, "remote").Annotate(AddToHistory.Of(false)))
	if e.h.CanUndo() || e.h.CanRedo() {
		t.Error("untracked change did not clear the history")
	}
}

func TestMaxEntries(t *testing.T) {
	e := newEditor(t, "", WithMaxEntries(2), WithGroupDelay(0))
	for i := range 4 {
		e.insert(i, "a", i*1000)
	}
	if e.h.UndoCount() != 2 {
		t.Errorf("UndoCount() = %d, want 2", e.h.UndoCount())
	}

	e.h.Clear()
	if e.h.CanUndo() {
		t.Error("CanUndo() after Clear")
	}
}

func TestUndoFromWrongState(t *testing.T) {
	e := newEditor(t, "abc")
	e.insert(3, "def", 0)

	short, err := state.CreateState(state.StateConfig{Doc: "a"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.h.Undo(short); err == nil {
		t.Fatal("Undo against a shorter document succeeded")
	}
	if e.h.UndoCount() != 1 {
		t.Errorf("failed undo dropped the entry")
	}
}
