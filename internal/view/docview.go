package view

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/text"
	"github.com/dshills/quill/internal/view/dom"
)

// DocView is the root of the content-view tree. It owns the content element
// of a dom.Tree and holds one LineView per document line.
type DocView struct {
	viewBase
	tree *dom.Tree
	doc  *text.Document
}

// NewDocView creates a doc view for doc rendering into tree. Nothing is
// written to the tree until Sync.
func NewDocView(tree *dom.Tree, doc *text.Document) *DocView {
	d := &DocView{
		viewBase: viewBase{dom: tree.Root(), dirty: DirtyNode, reg: newRegistry()},
		tree:     tree,
		doc:      doc,
	}
	d.reg.set(d.dom, d)
	replaceChildren(d, 0, 0, d.buildLines(0, doc.LineCount()))
	d.fixBreaks()
	return d
}

// Doc returns the document the view currently reflects.
func (d *DocView) Doc() *text.Document {
	return d.doc
}

// Lines returns the line views.
func (d *DocView) Lines() []*LineView {
	out := make([]*LineView, len(d.children))
	for i, c := range d.children {
		out[i] = c.(*LineView)
	}
	return out
}

func (d *DocView) buildLines(from, to int) []ContentView {
	out := make([]ContentView, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, NewLineView(d.doc.Line(i)))
	}
	return out
}

func (d *DocView) fixBreaks() {
	for i, c := range d.children {
		if i < len(d.children)-1 {
			c.base().breakAfter = 1
		} else {
			c.base().breakAfter = 0
		}
	}
}

// ReplaceChildren replaces line views [from, to) with children.
func (d *DocView) ReplaceChildren(from, to int, children []ContentView) {
	replaceChildren(d, from, to, children)
	d.fixBreaks()
}

// Update brings the view tree in line with doc, which is the result of
// applying changes to the current document. Lines touched by the changes are
// updated in place where the line counts allow, keeping their rendered
// nodes, and replaced otherwise. An empty change set with a different
// document rebuilds every line.
func (d *DocView) Update(doc *text.Document, changes state.ChangeSet) {
	old := d.doc
	d.doc = doc
	if changes.IsEmpty() {
		if !old.Eq(doc) {
			d.Reset()
		}
		return
	}
	ranges := changes.ChangedRanges()
	for i := len(ranges) - 1; i >= 0; i-- {
		d.updateRange(old, ranges[i])
	}
	d.fixBreaks()
	if len(d.children) != doc.LineCount() {
		d.Reset()
	}
}

func (d *DocView) updateRange(old *text.Document, r state.ChangedRange) {
	a0, a1 := old.LineAt(r.FromA).Number, old.LineAt(r.ToA).Number
	b0, b1 := d.doc.LineAt(r.FromB).Number, d.doc.LineAt(r.ToB).Number
	countA, countB := a1-a0+1, b1-b0+1
	shared := min(countA, countB)
	for i := 0; i < shared; i++ {
		d.children[a0+i].(*LineView).SetText(d.doc.Line(b0 + i))
	}
	switch {
	case countA > shared:
		replaceChildren(d, a0+shared, a1+1, nil)
	case countB > shared:
		replaceChildren(d, a0+shared, a0+shared, d.buildLines(b0+shared, b1+1))
	}
}

// Reset replaces every line view with fresh views for the current document.
// Rendered nodes are adopted where possible on the next Sync.
func (d *DocView) Reset() {
	replaceChildren(d, 0, len(d.children), d.buildLines(0, d.doc.LineCount()))
	d.fixBreaks()
}

func (d *DocView) resetTo(doc *text.Document) {
	d.doc = doc
	d.Reset()
}

// Sync writes pending view changes to the rendered tree.
func (d *DocView) Sync() {
	d.sync(d.tree)
	d.dirty = DirtyNot
}

func (d *DocView) sync(tree *dom.Tree) {
	d.syncChildren(tree)
}

// Nearest returns the view owning n or its closest owned ancestor.
func (d *DocView) Nearest(n *html.Node) ContentView {
	return d.reg.nearest(n)
}

// ViewOf returns the view owning exactly n.
func (d *DocView) ViewOf(n *html.Node) ContentView {
	return d.reg.get(n)
}

// PosFromDOM maps a DOM point to a document position.
func (d *DocView) PosFromDOM(n *html.Node, offset int) (int, error) {
	v := d.Nearest(n)
	if v == nil {
		return 0, fmt.Errorf("%w: node %q", ErrNotInDocument, n.Data)
	}
	return v.LocalPosFromDOM(n, offset) + v.PosAtStart(), nil
}

// DOMAtPos returns the DOM point for a document position.
func (d *DocView) DOMAtPos(pos int) dom.Point {
	return d.domAtPos(pos)
}
