package state

import (
	"fmt"
	"time"

	"github.com/dshills/quill/internal/text"
)

type transactionFlag uint8

const (
	flagSelectionSet transactionFlag = 1 << iota
	flagScrollIntoView
	flagReconfigured
)

// Transaction accumulates changes, a selection update, annotations and an
// optional new configuration against a start state. Apply derives exactly
// one new state; afterwards the transaction is frozen.
//
// Mutators return the transaction itself so calls can be chained. The first
// failure is recorded and turns every later mutator into a no-op; it is
// reported by Err and by Apply.
type Transaction struct {
	startState    *EditorState
	changes       ChangeSet
	docs          []*text.Document
	selection     EditorSelection
	flags         transactionFlag
	configuration *Configuration
	annotations   annotationLog

	state *EditorState
	err   error
}

func newTransaction(start *EditorState, at time.Time) *Transaction {
	return &Transaction{
		startState:  start,
		selection:   start.selection,
		annotations: annotationLog{TimeAnnotation.Of(at)},
	}
}

// mutable reports whether a mutator may proceed, recording
// ErrTransactionApplied on a frozen transaction.
func (tr *Transaction) mutable() bool {
	if tr.err != nil {
		return false
	}
	if tr.state != nil {
		tr.err = ErrTransactionApplied
		return false
	}
	return true
}

func (tr *Transaction) fail(err error) *Transaction {
	if tr.err == nil {
		tr.err = err
	}
	return tr
}

// Change appends a change. mirror is the index of an earlier change in this
// transaction that c inverts, or -1. An empty edit is ignored.
func (tr *Transaction) Change(c Change, mirror int) *Transaction {
	if !tr.mutable() || c.IsEmpty() {
		return tr
	}
	doc := tr.Doc()
	if c.From < 0 || c.To < c.From || c.To > doc.Len() {
		return tr.fail(fmt.Errorf("%w: change %d-%d in document of length %d", ErrInvalidRange, c.From, c.To, doc.Len()))
	}
	next, err := c.Apply(doc)
	if err != nil {
		return tr.fail(err)
	}
	tr.changes = tr.changes.Append(c, mirror)
	tr.docs = append(tr.docs, next)
	tr.selection = tr.selection.Map(c)
	return tr
}

// Replace replaces [from, to) with str, split on the start state's line
// separator policy.
func (tr *Transaction) Replace(from, to int, str string) *Transaction {
	return tr.ReplaceLines(from, to, tr.startState.SplitLines(str))
}

// ReplaceLines replaces [from, to) with lines.
func (tr *Transaction) ReplaceLines(from, to int, lines []string) *Transaction {
	return tr.Change(NewChange(from, to, lines), -1)
}

// ReplaceSelection replaces every selection range with str and leaves a
// cursor after each inserted block.
func (tr *Transaction) ReplaceSelection(str string) *Transaction {
	lines := tr.startState.SplitLines(str)
	n := text.LinesLen(lines)
	return tr.ForEachRange(func(r SelectionRange, tr *Transaction) SelectionRange {
		tr.ReplaceLines(r.From(), r.To(), lines)
		return Range(r.From()+n, r.From()+n)
	})
}

// ForEachRange calls f for each range of the selection as it was when the
// call started, left to right. Each range passed to f is mapped through the
// changes made by earlier calls, and ranges already returned are mapped
// through the changes f makes. The returned ranges become the selection,
// keeping the primary index.
func (tr *Transaction) ForEachRange(f func(r SelectionRange, tr *Transaction) SelectionRange) *Transaction {
	if !tr.mutable() {
		return tr
	}
	sel := tr.selection
	start := tr.changes.Len()
	ranges := make([]SelectionRange, 0, sel.Len())
	for _, r := range sel.ranges {
		before := tr.changes.Len()
		result := f(r.Map(tr.changes.PartialMapping(start, before)), tr)
		if tr.err != nil {
			return tr
		}
		if tr.changes.Len() > before {
			m := tr.changes.PartialMapping(before, tr.changes.Len())
			for i := range ranges {
				ranges[i] = ranges[i].Map(m)
			}
		}
		ranges = append(ranges, result)
	}
	next, err := CreateSelection(ranges, sel.primaryIndex)
	if err != nil {
		return tr.fail(err)
	}
	return tr.SetSelection(next)
}

// SetSelection replaces the pending selection. It is collapsed to its
// primary range when multiple selections are not allowed.
func (tr *Transaction) SetSelection(sel EditorSelection) *Transaction {
	if !tr.mutable() {
		return tr
	}
	if sel.Len() == 0 {
		return tr.fail(fmt.Errorf("%w: no ranges", ErrInvalidSelection))
	}
	if !AllowMultipleSelections.Last(tr.Configuration(), tr.startState, false) {
		sel = sel.AsSingle()
	}
	tr.selection = sel
	tr.flags |= flagSelectionSet
	return tr
}

// ScrollIntoView asks the view to scroll the selection into view.
func (tr *Transaction) ScrollIntoView() *Transaction {
	if tr.mutable() {
		tr.flags |= flagScrollIntoView
	}
	return tr
}

// Annotate attaches annotations.
func (tr *Transaction) Annotate(anns ...Annotation) *Transaction {
	if tr.mutable() {
		tr.annotations = append(tr.annotations, anns...)
	}
	return tr
}

// ReplaceExtensions swaps the content of named slots in the configuration.
func (tr *Transaction) ReplaceExtensions(repl []Replacement) *Transaction {
	if !tr.mutable() {
		return tr
	}
	cfg, err := tr.Configuration().ReplaceExtensions(repl)
	if err != nil {
		return tr.fail(err)
	}
	tr.configuration = cfg
	tr.flags |= flagReconfigured
	return tr
}

// Reconfigure replaces the configuration with one resolved from exts.
func (tr *Transaction) Reconfigure(exts []Extension) *Transaction {
	if !tr.mutable() {
		return tr
	}
	cfg, err := ResolveConfiguration(exts)
	if err != nil {
		return tr.fail(err)
	}
	tr.configuration = cfg
	tr.flags |= flagReconfigured
	return tr
}

// Err returns the first failure recorded by a mutator.
func (tr *Transaction) Err() error {
	return tr.err
}

// Apply derives the new state. Repeated calls return the same state.
func (tr *Transaction) Apply() (*EditorState, error) {
	if tr.state != nil {
		return tr.state, nil
	}
	if tr.err != nil {
		return nil, tr.err
	}
	s, err := tr.startState.derive(tr)
	if err != nil {
		tr.err = err
		return nil, err
	}
	tr.state = s
	return s, nil
}

// StartState returns the state the transaction was started from.
func (tr *Transaction) StartState() *EditorState {
	return tr.startState
}

// Doc returns the document after the changes made so far.
func (tr *Transaction) Doc() *text.Document {
	if len(tr.docs) == 0 {
		return tr.startState.doc
	}
	return tr.docs[len(tr.docs)-1]
}

// Selection returns the pending selection.
func (tr *Transaction) Selection() EditorSelection {
	return tr.selection
}

// Changes returns the changes made so far.
func (tr *Transaction) Changes() ChangeSet {
	return tr.changes
}

// DocChanged reports whether the transaction changes the document.
func (tr *Transaction) DocChanged() bool {
	return !tr.changes.IsEmpty()
}

// SelectionSet reports whether the selection was set explicitly.
func (tr *Transaction) SelectionSet() bool {
	return tr.flags&flagSelectionSet != 0
}

// ScrolledIntoView reports whether ScrollIntoView was called.
func (tr *Transaction) ScrolledIntoView() bool {
	return tr.flags&flagScrollIntoView != 0
}

// Reconfigured reports whether the configuration was replaced.
func (tr *Transaction) Reconfigured() bool {
	return tr.flags&flagReconfigured != 0
}

// Configuration returns the configuration the new state will have.
func (tr *Transaction) Configuration() *Configuration {
	if tr.configuration != nil {
		return tr.configuration
	}
	return tr.startState.config
}

// Time returns the transaction's timestamp.
func (tr *Transaction) Time() time.Time {
	t, _ := AnnotationValue(tr, TimeAnnotation)
	return t
}

// InvertedChanges returns changes that, applied to the end document, restore
// the start document. Mirror pairs are carried over with reversed indices.
func (tr *Transaction) InvertedChanges() ChangeSet {
	n := tr.changes.Len()
	if n == 0 {
		return EmptyChangeSet
	}
	changes := make([]Change, 0, n)
	for i := n - 1; i >= 0; i-- {
		doc := tr.startState.doc
		if i > 0 {
			doc = tr.docs[i-1]
		}
		changes = append(changes, tr.changes.Changes[i].Invert(doc))
	}
	var mirror []int
	if len(tr.changes.Mirror) > 0 {
		mirror = make([]int, len(tr.changes.Mirror))
		for i, m := range tr.changes.Mirror {
			mirror[i] = n - 1 - m
		}
	}
	return ChangeSet{Changes: changes, Mirror: mirror}
}
