package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ContentClass is the class attribute of the content element.
const ContentClass = "cm-content"

// Tree is a rendered tree rooted at a content element. It owns the mutation
// observer and the DOM selection for that element.
type Tree struct {
	root     *html.Node
	observer *Observer
	sel      Selection
}

// NewTree creates a tree with an empty content element.
func NewTree() *Tree {
	root := CreateElement("div")
	root.Attr = []html.Attribute{
		{Key: "class", Val: ContentClass},
		{Key: "contenteditable", Val: "true"},
	}
	return &Tree{root: root, observer: &Observer{}}
}

// Root returns the content element.
func (t *Tree) Root() *html.Node {
	return t.root
}

// Observer returns the tree's mutation observer.
func (t *Tree) Observer() *Observer {
	return t.observer
}

// Contains reports whether n is the root or one of its descendants.
func (t *Tree) Contains(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == t.root {
			return true
		}
	}
	return false
}

// CreateElement creates a detached element node.
func CreateElement(tag string) *html.Node {
	a := atom.Lookup([]byte(tag))
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: a}
}

// CreateText creates a detached text node.
func CreateText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// CloneNode copies n without its position in the tree. With deep set, the
// children are copied too.
func CloneNode(n *html.Node, deep bool) *html.Node {
	out := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		out.Attr = make([]html.Attribute, len(n.Attr))
		copy(out.Attr, n.Attr)
	}
	if deep {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			out.AppendChild(CloneNode(c, true))
		}
	}
	return out
}

// SetText replaces the value of a text node.
func (t *Tree) SetText(n *html.Node, s string) {
	if n.Data == s {
		return
	}
	old := n.Data
	n.Data = s
	t.sel.clampText(n, len(s))
	if t.Contains(n) {
		t.observer.record(MutationRecord{Type: MutationCharacterData, Target: n, OldValue: old})
	}
}

// AppendChild appends child to parent, detaching it from its current parent
// first.
func (t *Tree) AppendChild(parent, child *html.Node) {
	t.InsertBefore(parent, child, nil)
}

// InsertBefore inserts child into parent before ref, or at the end when ref
// is nil. A child that is already attached is moved.
func (t *Tree) InsertBefore(parent, child, ref *html.Node) {
	if child == ref {
		return
	}
	if child.Parent != nil {
		t.RemoveChild(child.Parent, child)
	}
	parent.InsertBefore(child, ref)
	t.sel.inserted(parent, ChildIndex(child))
	if t.Contains(parent) {
		t.observer.record(MutationRecord{
			Type:            MutationChildList,
			Target:          parent,
			Added:           []*html.Node{child},
			PreviousSibling: child.PrevSibling,
			NextSibling:     child.NextSibling,
		})
	}
}

// RemoveChild detaches child from parent.
func (t *Tree) RemoveChild(parent, child *html.Node) {
	if child.Parent != parent {
		return
	}
	prev, next := child.PrevSibling, child.NextSibling
	idx := ChildIndex(child)
	parent.RemoveChild(child)
	t.sel.removed(parent, child, idx)
	if t.Contains(parent) {
		t.observer.record(MutationRecord{
			Type:            MutationChildList,
			Target:          parent,
			Removed:         []*html.Node{child},
			PreviousSibling: prev,
			NextSibling:     next,
		})
	}
}

// RemoveChildren detaches every child of parent.
func (t *Tree) RemoveChildren(parent *html.Node) {
	for parent.LastChild != nil {
		t.RemoveChild(parent, parent.LastChild)
	}
}

// SetTextContent replaces the children of el with a single text node, or
// with nothing when s is empty.
func (t *Tree) SetTextContent(el *html.Node, s string) {
	t.RemoveChildren(el)
	if s != "" {
		t.AppendChild(el, CreateText(s))
	}
}
