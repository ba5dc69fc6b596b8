package view

import (
	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/view/dom"
)

// Dirty records what part of a view needs to be synchronized with the
// rendered tree.
type Dirty uint8

const (
	// DirtyNot means the view and its descendants are in sync.
	DirtyNot Dirty = iota
	// DirtyChild means some descendant needs syncing; the view's own
	// children are in the right order.
	DirtyChild
	// DirtyNode means the view's child list must be re-synced.
	DirtyNode
)

// String returns the name of the dirty state.
func (d Dirty) String() string {
	switch d {
	case DirtyNot:
		return "clean"
	case DirtyChild:
		return "child"
	case DirtyNode:
		return "node"
	default:
		return "unknown"
	}
}

// ContentView is a node of the content-view tree. Each view owns at most one
// rendered node and covers a range of the document.
type ContentView interface {
	// Length is the number of document positions the view covers, not
	// counting its trailing break.
	Length() int
	DOM() *html.Node
	Parent() ContentView
	Children() []ContentView
	Dirty() Dirty
	// BreakAfter is 1 when a line break follows the view.
	BreakAfter() int

	PosAtStart() int
	PosAtEnd() int
	PosBefore(child ContentView) int
	PosAfter(child ContentView) int
	MarkDirty()

	// LocalPosFromDOM maps a DOM point inside the view to an offset
	// relative to the view's start.
	LocalPosFromDOM(node *html.Node, offset int) int
	// DOMBoundsAround returns the smallest run of rendered nodes covering
	// [from, to). offset is the view's start position.
	DOMBoundsAround(from, to, offset int) *DOMBounds

	// ReuseDOM offers an unclaimed rendered node to a view that has none.
	ReuseDOM(node *html.Node) bool
	// IgnoreMutation reports whether a mutation inside the view can be
	// ignored by the reconciler.
	IgnoreMutation(rec dom.MutationRecord) bool
	// IgnoreEvent reports whether the view handles the named event itself.
	IgnoreEvent(name string) bool

	base() *viewBase
	sync(tree *dom.Tree)
	domAtPos(pos int) dom.Point
}

// DOMBounds is a run of sibling rendered nodes and the document range they
// cover. EndDOM is exclusive; nil means the end of the parent.
type DOMBounds struct {
	From, To int
	StartDOM *html.Node
	EndDOM   *html.Node
}

// viewBase holds the state shared by all views. Container views use its
// methods directly; leaf views override the length-dependent ones.
type viewBase struct {
	dom        *html.Node
	parent     ContentView
	children   []ContentView
	dirty      Dirty
	breakAfter int
	reg        *registry
}

func (b *viewBase) base() *viewBase { return b }

func (b *viewBase) DOM() *html.Node     { return b.dom }
func (b *viewBase) Parent() ContentView { return b.parent }
func (b *viewBase) Dirty() Dirty        { return b.dirty }
func (b *viewBase) BreakAfter() int     { return b.breakAfter }

// ReuseDOM declines by default.
func (b *viewBase) ReuseDOM(*html.Node) bool { return false }

// IgnoreMutation declines by default.
func (b *viewBase) IgnoreMutation(dom.MutationRecord) bool { return false }

// IgnoreEvent declines by default.
func (b *viewBase) IgnoreEvent(string) bool { return false }

// Children returns a copy of the child list.
func (b *viewBase) Children() []ContentView {
	out := make([]ContentView, len(b.children))
	copy(out, b.children)
	return out
}

// Length sums the children and the breaks between them.
func (b *viewBase) Length() int {
	n := 0
	for _, c := range b.children {
		n += c.Length() + c.base().breakAfter
	}
	return n
}

// PosAtStart returns the document position where the view starts.
func (b *viewBase) PosAtStart() int {
	if b.parent == nil {
		return 0
	}
	return b.parent.base().posBefore(b)
}

// PosAtEnd returns the document position where the view ends.
func (b *viewBase) PosAtEnd() int {
	return b.PosAtStart() + b.Length()
}

// PosBefore returns the position where child starts.
func (b *viewBase) PosBefore(child ContentView) int {
	return b.posBefore(child.base())
}

// PosAfter returns the position where child ends.
func (b *viewBase) PosAfter(child ContentView) int {
	return b.PosBefore(child) + child.Length()
}

func (b *viewBase) posBefore(child *viewBase) int {
	pos := b.PosAtStart()
	for _, c := range b.children {
		cb := c.base()
		if cb == child {
			return pos
		}
		pos += c.Length() + cb.breakAfter
	}
	return pos
}

// MarkDirty marks the view for a full sync and its ancestors for a
// descendant sync.
func (b *viewBase) MarkDirty() {
	b.markDirtyCounted()
}

// markDirtyCounted marks the view and returns the number of views visited.
// Propagation stops at the first ancestor that is already dirty.
func (b *viewBase) markDirtyCounted() int {
	if b.dirty == DirtyNode {
		return 0
	}
	b.dirty = DirtyNode
	return 1 + b.markParentsDirty()
}

func (b *viewBase) markParentsDirty() int {
	visited := 0
	for p := b.parent; p != nil; p = p.base().parent {
		pb := p.base()
		visited++
		if pb.dirty != DirtyNot {
			return visited
		}
		pb.dirty = DirtyChild
	}
	return visited
}

func (b *viewBase) setParent(parent ContentView) {
	if b.parent == parent {
		return
	}
	b.parent = parent
	b.setRegistry(parent.base().reg)
	if b.dirty != DirtyNot {
		b.markParentsDirty()
	}
}

func (b *viewBase) setRegistry(reg *registry) {
	b.reg = reg
	for _, c := range b.children {
		c.base().setRegistry(reg)
	}
}

// replaceChildren replaces v's children [from, to) with children. Removed
// children are detached before the splice so their dirt does not reach v.
func replaceChildren(v ContentView, from, to int, children []ContentView) {
	b := v.base()
	b.MarkDirty()
	for _, c := range b.children[from:to] {
		if c.base().parent == v {
			destroy(c)
		}
	}
	tail := append([]ContentView(nil), b.children[to:]...)
	b.children = append(append(b.children[:from], children...), tail...)
	for _, c := range children {
		c.base().setParent(v)
	}
}

// destroy detaches v and its descendants from the tree and the registry.
func destroy(v ContentView) {
	b := v.base()
	for _, c := range b.children {
		if c.base().parent == v {
			destroy(c)
		}
	}
	if b.reg != nil && b.dom != nil {
		b.reg.remove(b.dom, v)
	}
	b.parent = nil
	b.reg = nil
}

// syncChildren brings the rendered children of b.dom in line with the child
// views. A node-dirty view walks its whole child list, adopting unclaimed
// rendered nodes where it can and removing nodes no view claims. A
// child-dirty view only syncs its dirty children.
func (b *viewBase) syncChildren(tree *dom.Tree) {
	switch b.dirty {
	case DirtyNode:
		parent := b.dom
		next := parent.FirstChild
		for _, child := range b.children {
			cb := child.base()
			if cb.dirty != DirtyNot {
				if cb.dom == nil && next != nil && b.reg.get(next) == nil {
					child.ReuseDOM(next)
				}
				child.sync(tree)
				cb.dirty = DirtyNot
			}
			b.reg.set(cb.dom, child)
			next = syncNodeInto(tree, parent, next, cb.dom)
		}
		for next != nil {
			n := next.NextSibling
			tree.RemoveChild(parent, next)
			next = n
		}
	case DirtyChild:
		for _, child := range b.children {
			cb := child.base()
			if cb.dirty != DirtyNot {
				child.sync(tree)
				cb.dirty = DirtyNot
			}
		}
	}
}

// syncNodeInto makes n the rendered child at next and returns the node
// following it. Stale nodes between next and n are removed.
func syncNodeInto(tree *dom.Tree, parent, next, n *html.Node) *html.Node {
	if n.Parent == parent {
		for next != nil && next != n {
			rm := next
			next = next.NextSibling
			tree.RemoveChild(parent, rm)
		}
		if next == n {
			return n.NextSibling
		}
	}
	tree.InsertBefore(parent, n, next)
	return n.NextSibling
}

// LocalPosFromDOM maps a DOM point to an offset in a container view. A
// point inside a child maps to the child's start or end depending on where
// in the child it sits.
func (b *viewBase) LocalPosFromDOM(node *html.Node, offset int) int {
	var after *html.Node
	if node == b.dom {
		after = dom.ChildAt(b.dom, offset)
	} else {
		bias := 1
		switch {
		case dom.MaxOffset(node) == 0:
			bias = 0
		case offset == 0:
			bias = -1
		}
		for {
			parent := node.Parent
			if parent == nil {
				return 0
			}
			if parent == b.dom {
				break
			}
			if bias == 0 && parent.FirstChild != parent.LastChild {
				if node == parent.FirstChild {
					bias = -1
				} else {
					bias = 1
				}
			}
			node = parent
		}
		if bias < 0 {
			after = node
		} else {
			after = node.NextSibling
		}
	}
	if after == b.dom.FirstChild {
		return 0
	}
	for after != nil && b.reg.get(after) == nil {
		after = after.NextSibling
	}
	if after == nil {
		return b.Length()
	}
	pos := 0
	for _, c := range b.children {
		if c.DOM() == after {
			return pos
		}
		pos += c.Length() + c.BreakAfter()
	}
	return pos
}

// DOMBoundsAround implements ContentView for container views.
func (b *viewBase) DOMBoundsAround(from, to, offset int) *DOMBounds {
	fromI, fromStart, toI, toEnd := -1, -1, -1, -1
	pos, prevEnd := offset, offset
	for i, child := range b.children {
		end := pos + child.Length()
		if pos < from && end > to {
			return child.DOMBoundsAround(from, to, pos)
		}
		if end >= from && fromI == -1 {
			fromI, fromStart = i, pos
		}
		if pos > to && child.DOM() != nil && child.DOM().Parent == b.dom {
			toI, toEnd = i, prevEnd
			break
		}
		prevEnd = end
		pos = end + child.BreakAfter()
	}
	if fromI == -1 {
		if len(b.children) > 0 {
			return nil
		}
		fromStart = offset
	}

	bounds := &DOMBounds{From: fromStart, To: toEnd}
	if toEnd < 0 {
		bounds.To = offset + b.Length()
	}
	if fromI > 0 {
		if prev := b.children[fromI-1].DOM(); prev != nil && prev.Parent == b.dom {
			bounds.StartDOM = prev.NextSibling
		}
	}
	if bounds.StartDOM == nil {
		bounds.StartDOM = b.dom.FirstChild
	}
	if toI >= 0 {
		bounds.EndDOM = b.children[toI].DOM()
	}
	return bounds
}

// domAtPos returns the DOM point for an offset in a container view.
func (b *viewBase) domAtPos(pos int) dom.Point {
	off := 0
	for i, c := range b.children {
		end := off + c.Length()
		if pos <= end && c.DOM() != nil {
			return c.domAtPos(pos - off)
		}
		off = end + c.BreakAfter()
		if pos < off {
			return dom.Point{Node: b.dom, Offset: i + 1}
		}
	}
	return dom.Point{Node: b.dom, Offset: dom.ChildCount(b.dom)}
}
