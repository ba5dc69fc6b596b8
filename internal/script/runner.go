package script

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/state"
)

// UserEvent is the user event annotation script transactions carry.
const UserEvent = "script"

// Target is the editor a script edits. *view.EditorView implements it.
type Target interface {
	State() *state.EditorState
	Dispatch(tr *state.Transaction) error
}

// Runner runs scripts against a target. Each run gets a fresh Lua state and
// one transaction started from the target's current state; the transaction
// is dispatched once, after the script returns.
type Runner struct {
	target Target
	log    *logging.Logger
	opts   []StateOption
}

// NewRunner creates a runner. opts apply to every Lua state it creates.
func NewRunner(target Target, log *logging.Logger, opts ...StateOption) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{
		target: target,
		log:    log.WithComponent("script"),
		opts:   opts,
	}
}

// Run runs Lua source. name identifies the chunk in logs.
func (r *Runner) Run(ctx context.Context, name, code string) error {
	return r.exec(ctx, name, func(s *State) error {
		return s.DoString(ctx, code)
	})
}

// RunFile runs the Lua file at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	return r.exec(ctx, filepath.Base(path), func(s *State) error {
		return s.DoFile(ctx, path)
	})
}

func (r *Runner) exec(ctx context.Context, name string, do func(*State) error) error {
	log := r.log.WithField("script", name)

	s := NewState(append([]StateOption{WithLogger(log)}, r.opts...)...)
	defer s.Close()

	ed := newEditor(r.target.State().T())
	s.RegisterModule("editor", ed.funcs())

	if err := do(s); err != nil {
		log.Error("script failed: %v", err)
		return fmt.Errorf("script %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tr := ed.tr
	if !tr.DocChanged() && !tr.SelectionSet() {
		log.Debug("script made no edits")
		return nil
	}
	tr.Annotate(state.UserEventAnnotation.Of(UserEvent))
	if tr.SelectionSet() {
		tr.ScrollIntoView()
	}
	if err := r.target.Dispatch(tr); err != nil {
		log.Error("dispatch failed: %v", err)
		return fmt.Errorf("script %s: %w", name, err)
	}
	log.Debug("applied %d changes", tr.Changes().Len())
	return nil
}
