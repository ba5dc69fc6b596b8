package term

import (
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/view/dom"
)

// The functions in this file edit the rendered tree the way a
// contenteditable host does for typing, Backspace and Enter. Each returns
// the point the caret ends up at. The view reads the edits back through
// Flush.

// lineOf returns the child of root that contains n.
func lineOf(root, n *html.Node) *html.Node {
	for n != nil && n.Parent != root {
		n = n.Parent
	}
	return n
}

// endOf returns the point after the last content of a line element.
func endOf(line *html.Node) dom.Point {
	if last := line.LastChild; last != nil && last.Type == html.TextNode {
		return dom.Point{Node: last, Offset: len(last.Data)}
	}
	return dom.Point{Node: line, Offset: dom.ChildCount(line)}
}

// insertText inserts s at p.
func insertText(tree *dom.Tree, p dom.Point, s string) dom.Point {
	if p.Node.Type == html.TextNode {
		data := p.Node.Data
		tree.SetText(p.Node, data[:p.Offset]+s+data[p.Offset:])
		return dom.Point{Node: p.Node, Offset: p.Offset + len(s)}
	}
	n := dom.CreateText(s)
	tree.InsertBefore(p.Node, n, dom.ChildAt(p.Node, p.Offset))
	return dom.Point{Node: n, Offset: len(s)}
}

// deleteBackward removes the character before p. At the start of a line the
// line is joined onto the previous one. ok is false when there is nothing
// before p.
func deleteBackward(tree *dom.Tree, root *html.Node, p dom.Point) (dom.Point, bool) {
	if p.Node.Type != html.TextNode && p.Offset > 0 {
		if prev := dom.ChildAt(p.Node, p.Offset-1); prev != nil && prev.Type == html.TextNode {
			p = dom.Point{Node: prev, Offset: len(prev.Data)}
		}
	}
	if p.Node.Type == html.TextNode && p.Offset > 0 {
		data := p.Node.Data
		_, size := utf8.DecodeLastRuneInString(data[:p.Offset])
		tree.SetText(p.Node, data[:p.Offset-size]+data[p.Offset:])
		return dom.Point{Node: p.Node, Offset: p.Offset - size}, true
	}

	line := lineOf(root, p.Node)
	if line == nil || line.PrevSibling == nil {
		return p, false
	}
	prev := line.PrevSibling
	at := endOf(prev)
	for c := line.FirstChild; c != nil; c = line.FirstChild {
		tree.AppendChild(prev, c)
	}
	tree.RemoveChild(root, line)
	return at, true
}

// splitLine breaks the line at p, moving the content after p into a new
// line element.
func splitLine(tree *dom.Tree, root *html.Node, p dom.Point) dom.Point {
	line := lineOf(root, p.Node)
	next := dom.CreateElement("div")

	var rest *html.Node
	if p.Node.Type == html.TextNode {
		data := p.Node.Data
		if after := data[p.Offset:]; after != "" {
			tree.SetText(p.Node, data[:p.Offset])
			tree.AppendChild(next, dom.CreateText(after))
		}
		rest = p.Node.NextSibling
	} else {
		rest = dom.ChildAt(p.Node, p.Offset)
	}
	for rest != nil {
		c := rest
		rest = rest.NextSibling
		tree.AppendChild(next, c)
	}

	tree.InsertBefore(root, next, line.NextSibling)
	if first := next.FirstChild; first != nil && first.Type == html.TextNode {
		return dom.Point{Node: first, Offset: 0}
	}
	return dom.Point{Node: next, Offset: 0}
}
