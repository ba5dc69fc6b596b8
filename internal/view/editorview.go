package view

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view/dom"
)

// EditorView displays an EditorState in a rendered tree and keeps the two
// in sync in both directions: state updates are synced into the tree, and
// outside mutations of the tree are read back as transactions on Flush.
//
// An EditorView is not safe for concurrent use.
type EditorView struct {
	id              uuid.UUID
	state           *state.EditorState
	tree            *dom.Tree
	docView         *DocView
	observer        *DOMObserver
	input           InputState
	log             *logging.Logger
	backspaceWindow time.Duration
	now             func() time.Time
	dispatchFn      DispatchFunc
	lastSel         dom.Selection
}

// NewEditorView creates a view showing s in a fresh rendered tree.
func NewEditorView(s *state.EditorState, opts ...Option) *EditorView {
	v := &EditorView{
		id:              uuid.New(),
		state:           s,
		tree:            dom.NewTree(),
		log:             logging.Nop(),
		backspaceWindow: DefaultBackspaceWindow,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.WithComponent("view").WithField("view", v.id.String())
	v.docView = NewDocView(v.tree, s.Doc())
	v.observer = newDOMObserver(v)
	v.docView.Sync()
	v.writeSelection()
	v.tree.Observer().Start()
	return v
}

// ID returns the view's unique id.
func (v *EditorView) ID() uuid.UUID {
	return v.id
}

// State returns the current state.
func (v *EditorView) State() *state.EditorState {
	return v.state
}

// Tree returns the rendered tree.
func (v *EditorView) Tree() *dom.Tree {
	return v.tree
}

// ContentDOM returns the content element.
func (v *EditorView) ContentDOM() *html.Node {
	return v.tree.Root()
}

// DocView returns the root of the content-view tree.
func (v *EditorView) DocView() *DocView {
	return v.docView
}

// SetBackspaceWindow changes the window set by WithBackspaceWindow.
// Non-positive durations are ignored.
func (v *EditorView) SetBackspaceWindow(d time.Duration) {
	if d > 0 {
		v.backspaceWindow = d
	}
}

// InputState returns the input state the frontend records key presses in.
func (v *EditorView) InputState() *InputState {
	return &v.input
}

// Dispatch sends tr to the view, through the dispatch interceptor if one is
// configured.
func (v *EditorView) Dispatch(tr *state.Transaction) error {
	if v.dispatchFn != nil {
		return v.dispatchFn(v, tr)
	}
	return v.Update(tr)
}

// Update applies tr, which must start from the current state, and syncs the
// rendered tree.
func (v *EditorView) Update(tr *state.Transaction) error {
	if tr.StartState() != v.state {
		return ErrStaleTransaction
	}
	next, err := tr.Apply()
	if err != nil {
		return err
	}
	v.log.Debug("update: docChanged=%t selection=%v", tr.DocChanged(), next.Selection())
	v.observer.clear()
	v.state = next
	v.ignore(func() {
		v.docView.Update(next.Doc(), tr.Changes())
		v.docView.Sync()
	})
	v.writeSelection()
	return nil
}

// SetState replaces the state without a transaction, rebuilding the view
// when the document differs.
func (v *EditorView) SetState(s *state.EditorState) {
	v.observer.clear()
	v.state = s
	v.ignore(func() {
		v.docView.Update(s.Doc(), state.EmptyChangeSet)
		v.docView.Sync()
	})
	v.writeSelection()
}

// Flush reconciles outside mutations of the rendered tree. It reports
// whether the state changed.
func (v *EditorView) Flush() bool {
	return v.observer.Flush()
}

// PosFromDOM maps a DOM point to a document position.
func (v *EditorView) PosFromDOM(n *html.Node, offset int) (int, error) {
	return v.docView.PosFromDOM(n, offset)
}

// DOMAtPos maps a document position to a DOM point.
func (v *EditorView) DOMAtPos(pos int) dom.Point {
	return v.docView.DOMAtPos(pos)
}

// IgnoresEvent reports whether the view owning n handles the named event
// itself.
func (v *EditorView) IgnoresEvent(n *html.Node, name string) bool {
	if cv := v.docView.Nearest(n); cv != nil {
		return cv.IgnoreEvent(name)
	}
	return false
}

// ignore runs f with mutation observation suspended.
func (v *EditorView) ignore(f func()) {
	obs := v.tree.Observer()
	active := obs.Active()
	obs.Stop()
	defer func() {
		if active {
			obs.Start()
		}
	}()
	f()
}

// resetDOM rebuilds the content-view tree from the current state.
func (v *EditorView) resetDOM() {
	v.ignore(func() {
		v.docView.resetTo(v.state.Doc())
		v.docView.Sync()
	})
	v.writeSelection()
}

// writeSelection puts the primary state selection into the DOM.
func (v *EditorView) writeSelection() {
	sel := v.state.Selection().Primary()
	anchor := v.docView.DOMAtPos(sel.Anchor)
	head := v.docView.DOMAtPos(sel.Head)
	v.tree.SetSelection(anchor.Node, anchor.Offset, head.Node, head.Offset)
	v.lastSel = v.tree.Selection()
}

func (v *EditorView) domSelectionChanged() bool {
	cur := v.tree.Selection()
	return !cur.IsZero() && cur != v.lastSel
}
