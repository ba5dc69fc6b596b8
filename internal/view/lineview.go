package view

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/quill/internal/view/dom"
)

// LineView renders one document line as a <div>. A non-empty line holds a
// single TextView; an empty line holds nothing.
type LineView struct {
	viewBase
}

// NewLineView creates a detached line view for text.
func NewLineView(text string) *LineView {
	l := &LineView{viewBase: viewBase{dirty: DirtyNode}}
	if text != "" {
		replaceChildren(l, 0, 0, []ContentView{NewTextView(text)})
	}
	return l
}

// Text returns the line's text.
func (l *LineView) Text() string {
	if len(l.children) == 1 {
		if tv, ok := l.children[0].(*TextView); ok {
			return tv.text
		}
	}
	return ""
}

// SetText updates the line in place, keeping its rendered node.
func (l *LineView) SetText(s string) {
	if len(l.children) == 1 {
		if tv, ok := l.children[0].(*TextView); ok && s != "" {
			tv.setText(s)
			return
		}
	}
	if s == "" {
		if len(l.children) > 0 {
			replaceChildren(l, 0, len(l.children), nil)
		}
		return
	}
	replaceChildren(l, 0, len(l.children), []ContentView{NewTextView(s)})
}

// ReplaceChildren replaces children [from, to) with children.
func (l *LineView) ReplaceChildren(from, to int, children []ContentView) {
	replaceChildren(l, from, to, children)
}

// ReuseDOM adopts <div> elements. The adopted node's content is re-synced.
func (l *LineView) ReuseDOM(n *html.Node) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	l.dom = n
	l.dirty = DirtyNode
	return true
}

func (l *LineView) sync(tree *dom.Tree) {
	if l.dom == nil {
		l.dom = dom.CreateElement("div")
		l.dirty = DirtyNode
	}
	l.syncChildren(tree)
}
