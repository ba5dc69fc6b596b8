package view

import (
	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view/dom"
)

// DOMObserver reads mutations of the rendered tree made by someone other
// than the view and turns them into transactions.
type DOMObserver struct {
	view     *EditorView
	observer *dom.Observer
	flushing bool
}

func newDOMObserver(v *EditorView) *DOMObserver {
	return &DOMObserver{view: v, observer: v.tree.Observer()}
}

type mutationRange struct {
	from, to int
}

// readMutation marks the view owning the mutated node dirty and returns the
// document range the mutation touched.
func (o *DOMObserver) readMutation(rec dom.MutationRecord) (mutationRange, bool) {
	dv := o.view.docView
	cView := dv.Nearest(rec.Target)
	if cView == nil || cView.IgnoreMutation(rec) {
		return mutationRange{}, false
	}
	cView.MarkDirty()
	switch rec.Type {
	case dom.MutationChildList:
		r := mutationRange{from: cView.PosAtStart(), to: cView.PosAtEnd()}
		if before := findChild(dv, cView, rec.PreviousSibling, -1); before != nil {
			r.from = cView.PosAfter(before)
		}
		if after := findChild(dv, cView, rec.NextSibling, 1); after != nil {
			r.to = cView.PosBefore(after)
		}
		return r, true
	case dom.MutationCharacterData:
		return mutationRange{from: cView.PosAtStart(), to: cView.PosAtEnd()}, true
	}
	return mutationRange{}, false
}

// findChild finds the child view of cView at or next to n, moving in
// direction dir past nodes no child view owns.
func findChild(dv *DocView, cView ContentView, n *html.Node, dir int) ContentView {
	for n != nil {
		if v := dv.ViewOf(n); v != nil && v.Parent() == cView {
			return v
		}
		parent := n.Parent
		switch {
		case parent != cView.DOM():
			n = parent
		case dir > 0:
			n = n.NextSibling
		default:
			n = n.PrevSibling
		}
	}
	return nil
}

// clear drops pending records, marking the views they touched dirty so the
// next sync restores their content.
func (o *DOMObserver) clear() {
	for _, rec := range o.observer.TakeRecords() {
		if v := o.view.docView.Nearest(rec.Target); v != nil {
			v.MarkDirty()
		}
	}
}

// Flush reconciles the mutations recorded since the last flush. It reports
// whether a transaction was dispatched.
func (o *DOMObserver) Flush() bool {
	if o.flushing {
		return false
	}
	o.flushing = true
	defer func() { o.flushing = false }()

	v := o.view
	from, to := -1, -1
	for _, rec := range o.observer.TakeRecords() {
		r, ok := o.readMutation(rec)
		if !ok {
			continue
		}
		if from < 0 {
			from, to = r.from, r.to
			continue
		}
		from, to = min(from, r.from), max(to, r.to)
	}

	start := v.state
	switch {
	case from >= 0:
		o.applyDOMChange(from, to)
	case v.domSelectionChanged():
		o.applySelectionChange()
	}
	if v.state == start {
		if v.docView.Dirty() != DirtyNot {
			v.ignore(v.docView.Sync)
		}
		v.writeSelection()
	}
	return v.state != start
}

// applyDOMChange reads the rendered content covering [from, to) and
// dispatches the smallest change that reproduces it.
func (o *DOMObserver) applyDOMChange(from, to int) {
	v := o.view
	log := v.log.WithField("range", [2]int{from, to})
	bounds := v.docView.DOMBoundsAround(from, to, 0)
	if bounds == nil {
		log.Warn("no DOM bounds for mutated range, resetting view")
		v.resetDOM()
		return
	}
	from, to = bounds.From, bounds.To

	points := selectionPoints(v.tree.Selection())
	reader := newDOMReader(v.docView.reg, points...)
	reader.readRange(bounds.StartDOM, bounds.EndDOM)
	newText := reader.String()

	var newSel *state.EditorSelection
	if len(points) == 2 && points[0].pos >= 0 && points[1].pos >= 0 {
		sel := state.SingleSelection(from+points[0].pos, from+points[1].pos)
		newSel = &sel
	}

	cur := v.state
	sel := cur.Selection().Primary()
	preferredPos, side := sel.From(), sideStart
	if v.input.recentBackspace(v.now(), v.backspaceWindow) {
		preferredPos, side = sel.To(), sideEnd
	}
	oldText := cur.Doc().SliceString(from, to, "\n")
	diff := findDiff(oldText, newText, preferredPos-from, side)

	if diff == nil {
		if newSel != nil && !newSel.Primary().Eq(sel) {
			o.dispatch(cur.T().SetSelection(*newSel).Annotate(state.UserEventAnnotation.Of("select")))
		}
		return
	}

	tr := cur.T().Replace(from+diff.From, from+diff.ToA, newText[diff.From:diff.ToB])
	if tr.Err() != nil {
		log.Warn("derived change failed (%v), replacing the whole range", tr.Err())
		tr = cur.T().Replace(from, to, newText)
	}
	if newSel != nil && !newSel.Primary().Eq(tr.Selection().Primary()) {
		tr.SetSelection(*newSel)
	}
	tr.Annotate(state.UserEventAnnotation.Of("dom")).ScrollIntoView()
	o.dispatch(tr)
}

// applySelectionChange dispatches the DOM selection as the state selection.
func (o *DOMObserver) applySelectionChange() {
	v := o.view
	sel := v.tree.Selection()
	anchor, err := v.docView.PosFromDOM(sel.Anchor.Node, sel.Anchor.Offset)
	if err != nil {
		v.log.Debug("ignoring selection outside the document: %v", err)
		return
	}
	head, err := v.docView.PosFromDOM(sel.Focus.Node, sel.Focus.Offset)
	if err != nil {
		v.log.Debug("ignoring selection outside the document: %v", err)
		return
	}
	next := state.SingleSelection(anchor, head)
	if next.Primary().Eq(v.state.Selection().Primary()) {
		return
	}
	o.dispatch(v.state.T().SetSelection(next).Annotate(state.UserEventAnnotation.Of("select")))
}

// dispatch sends tr through the view. Failures reset the rendered tree to
// the current state instead of reaching the caller.
func (o *DOMObserver) dispatch(tr *state.Transaction) {
	v := o.view
	if err := v.Dispatch(tr); err != nil {
		v.log.Warn("reconciled transaction rejected: %v", err)
		v.resetDOM()
	}
}
