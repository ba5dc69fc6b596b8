package term

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/history"
	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view"
	"github.com/dshills/quill/internal/view/dom"
)

// Key codes recorded in the view's input state for keys without a rune.
const (
	keyCodeEnter = 13
	keyCodeTab   = 9
)

// Terminal hosts an EditorView on a tcell screen. Typing, Backspace and
// Enter edit the view's rendered tree directly and are read back by the
// view; other keys dispatch transactions.
//
// All methods except Post must be called from the goroutine running Run.
type Terminal struct {
	screen  tcell.Screen
	view    *view.EditorView
	history *history.History
	log     *logging.Logger
	now     func() time.Time
	name    string
	save    func() error

	top     int
	message string
	quit    bool
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithHistory enables Ctrl-Z and Ctrl-Y. The view's dispatch must record
// into h.
func WithHistory(h *history.History) Option {
	return func(t *Terminal) {
		t.history = h
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) Option {
	return func(t *Terminal) {
		if log != nil {
			t.log = log
		}
	}
}

// WithClock sets the clock key presses are stamped with. It should match
// the view's clock.
func WithClock(now func() time.Time) Option {
	return func(t *Terminal) {
		if now != nil {
			t.now = now
		}
	}
}

// WithSave binds Ctrl-S to save.
func WithSave(save func() error) Option {
	return func(t *Terminal) {
		t.save = save
	}
}

// WithName sets the name shown in the status line.
func WithName(name string) Option {
	return func(t *Terminal) {
		t.name = name
	}
}

// New creates a terminal host for v on screen.
func New(screen tcell.Screen, v *view.EditorView, opts ...Option) *Terminal {
	t := &Terminal{
		screen: screen,
		view:   v,
		log:    logging.Nop(),
		now:    time.Now,
		name:   "quill",
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.WithComponent("term")
	return t
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.SetStyle(styleText)
	t.screen.EnableMouse()
	return nil
}

// Fini restores the terminal.
func (t *Terminal) Fini() {
	t.screen.Fini()
}

// Post runs f on the event loop. It is safe to call from any goroutine.
func (t *Terminal) Post(f func()) error {
	return t.screen.PostEvent(tcell.NewEventInterrupt(f))
}

// Run draws the view and handles events until the user quits or ctx is
// done.
func (t *Terminal) Run(ctx context.Context) error {
	t.quit = false
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.Post(func() { t.quit = true })
		case <-done:
		}
	}()

	t.Draw()
	for !t.quit {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}
		t.HandleEvent(ev)
		if !t.quit {
			t.Draw()
		}
	}
	return ctx.Err()
}

// Quit ends Run after the current event.
func (t *Terminal) Quit() {
	t.quit = true
}

// HandleEvent processes one screen event.
func (t *Terminal) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		t.message = ""
		t.handleKey(ev)
	case *tcell.EventMouse:
		t.handleMouse(ev)
	case *tcell.EventResize:
		t.screen.Sync()
	case *tcell.EventInterrupt:
		if f, ok := ev.Data().(func()); ok {
			f()
		}
	}
	t.scrollToCursor()
}

func (t *Terminal) handleKey(ev *tcell.EventKey) {
	extend := ev.Modifiers()&tcell.ModShift != 0
	s := t.view.State()

	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyCtrlC:
		t.quit = true
	case tcell.KeyRune:
		t.typeText(string(ev.Rune()), int(ev.Rune()))
	case tcell.KeyTab:
		t.typeText("\t", keyCodeTab)
	case tcell.KeyEnter:
		t.enter()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		t.backspace()
	case tcell.KeyDelete:
		t.dispatch(deleteForward(s))
	case tcell.KeyLeft:
		t.dispatch(moveSelection(s, charLeft, extend))
	case tcell.KeyRight:
		t.dispatch(moveSelection(s, charRight, extend))
	case tcell.KeyUp:
		t.dispatch(moveSelection(s, lineBy(-1), extend))
	case tcell.KeyDown:
		t.dispatch(moveSelection(s, lineBy(1), extend))
	case tcell.KeyPgUp:
		t.dispatch(moveSelection(s, lineBy(-t.textRows()), extend))
	case tcell.KeyPgDn:
		t.dispatch(moveSelection(s, lineBy(t.textRows()), extend))
	case tcell.KeyHome:
		t.dispatch(moveSelection(s, lineHome, extend))
	case tcell.KeyEnd:
		t.dispatch(moveSelection(s, lineEnd, extend))
	case tcell.KeyCtrlA:
		t.dispatch(selectAll(s))
	case tcell.KeyCtrlS:
		t.saveDoc()
	case tcell.KeyCtrlZ:
		t.undo(false)
	case tcell.KeyCtrlY:
		t.undo(true)
	}
}

func (t *Terminal) handleMouse(ev *tcell.EventMouse) {
	if ev.Buttons()&tcell.Button1 == 0 {
		return
	}
	x, y := ev.Position()
	if y >= t.textRows() {
		return
	}
	doc := t.view.State().Doc()
	n := t.top + y
	if n >= doc.LineCount() {
		t.dispatch(t.view.State().T().SetSelection(state.Cursor(doc.Len())).
			Annotate(state.UserEventAnnotation.Of("select.pointer")))
		return
	}
	info := doc.LineAt(lineStart(doc, n))
	pos := info.From + offsetAt(info.Text, x)
	t.dispatch(t.view.State().T().SetSelection(state.Cursor(pos)).
		Annotate(state.UserEventAnnotation.Of("select.pointer")))
}

// caret returns the rendered point of a single collapsed selection, or
// false when the edit must go through a transaction instead.
func (t *Terminal) caret() (dom.Point, bool) {
	sel := t.view.State().Selection()
	if sel.Len() != 1 || !sel.Primary().Empty() {
		return dom.Point{}, false
	}
	p := t.view.DOMAtPos(sel.Primary().Head)
	if p.Node == nil || p.Node == t.view.ContentDOM() {
		return dom.Point{}, false
	}
	return p, true
}

// editDOM applies edit to the rendered tree at the caret and lets the view
// read the result back.
func (t *Terminal) editDOM(p dom.Point, edit func(tree *dom.Tree, root *html.Node, p dom.Point) (dom.Point, bool)) {
	tree := t.view.Tree()
	at, ok := edit(tree, t.view.ContentDOM(), p)
	if !ok {
		return
	}
	tree.Collapse(at.Node, at.Offset)
	if !t.view.Flush() {
		t.log.Debug("rendered edit produced no change")
	}
}

func (t *Terminal) typeText(s string, code int) {
	t.view.InputState().RecordKey(code, t.now())
	p, ok := t.caret()
	if !ok {
		t.dispatch(insertAll(t.view.State(), s))
		return
	}
	t.editDOM(p, func(tree *dom.Tree, _ *html.Node, p dom.Point) (dom.Point, bool) {
		return insertText(tree, p, s), true
	})
}

func (t *Terminal) enter() {
	t.view.InputState().RecordKey(keyCodeEnter, t.now())
	p, ok := t.caret()
	if !ok {
		t.dispatch(insertAll(t.view.State(), "\n"))
		return
	}
	t.editDOM(p, func(tree *dom.Tree, root *html.Node, p dom.Point) (dom.Point, bool) {
		return splitLine(tree, root, p), true
	})
}

func (t *Terminal) backspace() {
	t.view.InputState().RecordKey(view.KeyBackspace, t.now())
	p, ok := t.caret()
	if !ok {
		t.dispatch(deleteBackwardAll(t.view.State()))
		return
	}
	t.editDOM(p, deleteBackward)
}

func (t *Terminal) undo(redo bool) {
	if t.history == nil {
		return
	}
	var (
		tr  *state.Transaction
		err error
	)
	if redo {
		tr, err = t.history.Redo(t.view.State())
	} else {
		tr, err = t.history.Undo(t.view.State())
	}
	switch {
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		t.message = err.Error()
		return
	case err != nil:
		t.log.Warn("history: %v", err)
		t.history.Clear()
		t.message = err.Error()
		return
	}
	t.dispatch(tr)
}

func (t *Terminal) saveDoc() {
	if t.save == nil {
		return
	}
	if err := t.save(); err != nil {
		t.log.Error("save: %v", err)
		t.message = err.Error()
		return
	}
	t.message = "saved"
}

// dispatch sends tr to the view, reporting failures in the status line.
func (t *Terminal) dispatch(tr *state.Transaction) {
	if !tr.DocChanged() && !tr.SelectionSet() {
		return
	}
	if err := t.view.Dispatch(tr); err != nil {
		t.log.Warn("dispatch: %v", err)
		t.message = err.Error()
	}
}

// SetMessage shows msg in the status line until the next key press.
func (t *Terminal) SetMessage(msg string) {
	t.message = msg
}
