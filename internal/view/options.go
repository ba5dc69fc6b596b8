package view

import (
	"time"

	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/state"
)

// Option configures an EditorView.
type Option func(*EditorView)

// WithLogger sets the logger. The view adds its component and id fields.
func WithLogger(l *logging.Logger) Option {
	return func(v *EditorView) {
		if l != nil {
			v.log = l
		}
	}
}

// WithBackspaceWindow sets how long after a Backspace an ambiguous deletion
// is attributed to it.
func WithBackspaceWindow(d time.Duration) Option {
	return func(v *EditorView) {
		if d > 0 {
			v.backspaceWindow = d
		}
	}
}

// WithClock sets the time source used for input timing.
func WithClock(now func() time.Time) Option {
	return func(v *EditorView) {
		if now != nil {
			v.now = now
		}
	}
}

// DispatchFunc intercepts transactions sent to the view. It normally ends by
// calling v.Update(tr).
type DispatchFunc func(v *EditorView, tr *state.Transaction) error

// WithDispatch routes every dispatched transaction through f.
func WithDispatch(f DispatchFunc) Option {
	return func(v *EditorView) {
		v.dispatchFn = f
	}
}
