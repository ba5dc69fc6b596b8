package view

import (
	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/view/dom"
)

// TextView renders a run of text as a single text node.
type TextView struct {
	viewBase
	text string
}

// NewTextView creates a detached text view.
func NewTextView(text string) *TextView {
	return &TextView{viewBase: viewBase{dirty: DirtyNode}, text: text}
}

// Text returns the view's text.
func (t *TextView) Text() string {
	return t.text
}

// Length implements ContentView.
func (t *TextView) Length() int {
	return len(t.text)
}

// PosAtEnd implements ContentView.
func (t *TextView) PosAtEnd() int {
	return t.PosAtStart() + len(t.text)
}

func (t *TextView) setText(s string) {
	if t.text == s {
		return
	}
	t.text = s
	t.MarkDirty()
}

// ReuseDOM adopts text nodes.
func (t *TextView) ReuseDOM(n *html.Node) bool {
	if n.Type != html.TextNode {
		return false
	}
	t.dom = n
	return true
}

func (t *TextView) sync(tree *dom.Tree) {
	if t.dom == nil {
		t.dom = dom.CreateText(t.text)
		return
	}
	tree.SetText(t.dom, t.text)
}

// LocalPosFromDOM implements ContentView.
func (t *TextView) LocalPosFromDOM(node *html.Node, offset int) int {
	if node == t.dom {
		return min(max(offset, 0), len(t.text))
	}
	if offset == 0 {
		return 0
	}
	return len(t.text)
}

// DOMBoundsAround implements ContentView.
func (t *TextView) DOMBoundsAround(_, _, offset int) *DOMBounds {
	b := &DOMBounds{From: offset, To: offset + len(t.text), StartDOM: t.dom}
	if t.dom != nil {
		b.EndDOM = t.dom.NextSibling
	}
	return b
}

func (t *TextView) domAtPos(pos int) dom.Point {
	return dom.Point{Node: t.dom, Offset: min(pos, len(t.text))}
}
