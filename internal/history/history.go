package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/quill/internal/state"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// User events of the transactions Undo and Redo build.
const (
	UndoEvent = "undo"
	RedoEvent = "redo"
)

// AddToHistory set to false keeps a transaction out of the history.
var AddToHistory = state.DefineAnnotation[bool]("addToHistory")

// Defaults for New.
const (
	DefaultMaxEntries = 1000
	DefaultGroupDelay = 500 * time.Millisecond
)

// entry is one undo unit.
type entry struct {
	changes   state.ChangeSet
	inverted  state.ChangeSet
	selBefore state.EditorSelection
	selAfter  state.EditorSelection
	event     string
	time      time.Time
}

// History manages undo and redo stacks.
type History struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	grouping bool
	open     bool // the top undo entry still accepts a grouped transaction

	maxEntries int
	groupDelay time.Duration
}

// Option configures a History.
type Option func(*History)

// WithMaxEntries limits the undo stack. Non-positive values are ignored.
func WithMaxEntries(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.maxEntries = n
		}
	}
}

// WithGroupDelay sets how close in time transactions must be to merge. Zero
// disables time-based grouping.
func WithGroupDelay(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.groupDelay = d
		}
	}
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{
		maxEntries: DefaultMaxEntries,
		groupDelay: DefaultGroupDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record adds an applied transaction. Selection-only transactions and the
// transactions built by Undo and Redo are ignored.
func (h *History) Record(tr *state.Transaction) {
	if !tr.DocChanged() {
		return
	}
	event, _ := state.AnnotationValue(tr, state.UserEventAnnotation)
	if event == UndoEvent || event == RedoEvent {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if add, ok := state.AnnotationValue(tr, AddToHistory); ok && !add {
		h.clearLocked()
		return
	}

	e := &entry{
		changes:   tr.Changes(),
		inverted:  tr.InvertedChanges(),
		selBefore: tr.StartState().Selection(),
		selAfter:  tr.Selection(),
		event:     event,
		time:      tr.Time(),
	}
	h.redoStack = nil

	if top := h.topLocked(); top != nil && h.joins(top, e) {
		top.changes = top.changes.AppendSet(e.changes)
		top.inverted = e.inverted.AppendSet(top.inverted)
		top.selAfter = e.selAfter
		top.time = e.time
		return
	}

	h.undoStack = append(h.undoStack, e)
	h.open = true
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// joins reports whether e merges into top.
func (h *History) joins(top, e *entry) bool {
	if !h.open {
		return false
	}
	if h.grouping {
		return true
	}
	if h.groupDelay == 0 || e.event == "" || e.event != top.event {
		return false
	}
	return e.time.Sub(top.time) < h.groupDelay
}

func (h *History) topLocked() *entry {
	if len(h.undoStack) == 0 {
		return nil
	}
	return h.undoStack[len(h.undoStack)-1]
}

// Undo pops the last entry and returns a transaction from s that reverts
// it. s must be the state the entry's changes produced. The caller
// dispatches the transaction.
func (h *History) Undo(s *state.EditorState) (*state.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	e := h.undoStack[len(h.undoStack)-1]
	tr := build(s, e.inverted, e.selBefore, UndoEvent)
	if err := tr.Err(); err != nil {
		return nil, err
	}
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, e)
	h.open = false
	return tr, nil
}

// Redo pops the last undone entry and returns a transaction from s that
// reapplies it.
func (h *History) Redo(s *state.EditorState) (*state.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	e := h.redoStack[len(h.redoStack)-1]
	tr := build(s, e.changes, e.selAfter, RedoEvent)
	if err := tr.Err(); err != nil {
		return nil, err
	}
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, e)
	h.open = false
	return tr, nil
}

// build replays cs on a transaction from s, keeping mirror pairs.
func build(s *state.EditorState, cs state.ChangeSet, sel state.EditorSelection, event string) *state.Transaction {
	tr := s.T()
	for i, c := range cs.Changes {
		mirror := -1
		if m, ok := cs.GetMirror(i); ok && m < i {
			mirror = m
		}
		tr.Change(c, mirror)
	}
	return tr.SetSelection(sel).
		ScrollIntoView().
		Annotate(state.UserEventAnnotation.Of(event))
}

// BeginGroup merges every transaction recorded until EndGroup into one
// entry.
func (h *History) BeginGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.grouping {
		return
	}
	h.grouping = true
	h.open = false
}

// EndGroup closes the group started by BeginGroup.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.grouping = false
	h.open = false
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear removes all entries.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
}

func (h *History) clearLocked() {
	h.undoStack = nil
	h.redoStack = nil
	h.open = false
}
