package dom

import "golang.org/x/net/html"

// Point is a position in the tree. For a text node Offset counts bytes into
// its value; for an element it counts children.
type Point struct {
	Node   *html.Node
	Offset int
}

// Selection is the DOM selection: an anchor and a focus point. The zero
// value means nothing is selected.
type Selection struct {
	Anchor Point
	Focus  Point
}

// IsZero reports whether the selection is unset.
func (s Selection) IsZero() bool {
	return s.Anchor.Node == nil
}

// Collapsed reports whether anchor and focus are the same point.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// SetSelection sets the DOM selection.
func (t *Tree) SetSelection(anchorNode *html.Node, anchorOffset int, focusNode *html.Node, focusOffset int) {
	t.sel = Selection{
		Anchor: Point{Node: anchorNode, Offset: anchorOffset},
		Focus:  Point{Node: focusNode, Offset: focusOffset},
	}
}

// Collapse sets a collapsed DOM selection.
func (t *Tree) Collapse(node *html.Node, offset int) {
	t.SetSelection(node, offset, node, offset)
}

// ClearSelection unsets the DOM selection.
func (t *Tree) ClearSelection() {
	t.sel = Selection{}
}

// Selection returns the DOM selection.
func (t *Tree) Selection() Selection {
	return t.sel
}

func (s *Selection) inserted(parent *html.Node, idx int) {
	for _, p := range []*Point{&s.Anchor, &s.Focus} {
		if p.Node == parent && p.Offset > idx {
			p.Offset++
		}
	}
}

// clampText keeps points inside a text node within its new length.
func (s *Selection) clampText(n *html.Node, length int) {
	for _, p := range []*Point{&s.Anchor, &s.Focus} {
		if p.Node == n && p.Offset > length {
			p.Offset = length
		}
	}
}

// removed moves points inside a removed subtree to where it used to be.
func (s *Selection) removed(parent, child *html.Node, idx int) {
	for _, p := range []*Point{&s.Anchor, &s.Focus} {
		if p.Node == nil {
			continue
		}
		switch {
		case isInside(p.Node, child):
			*p = Point{Node: parent, Offset: idx}
		case p.Node == parent && p.Offset > idx:
			p.Offset--
		}
	}
}

func isInside(n, ancestor *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}
