package view

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/view/dom"
)

// selPoint is a DOM selection point whose text position is filled in when
// the reader passes it. pos stays -1 when the point lies outside the range
// that was read.
type selPoint struct {
	node   *html.Node
	offset int
	pos    int
}

// domReader turns a run of rendered nodes back into document text. Text
// nodes contribute their value, a <br> a line break unless it is the last
// child, and block boundaries a line break.
type domReader struct {
	reg    *registry
	text   strings.Builder
	points []*selPoint
}

func newDOMReader(reg *registry, points ...*selPoint) *domReader {
	return &domReader{reg: reg, points: points}
}

func selectionPoints(sel dom.Selection) []*selPoint {
	if sel.IsZero() {
		return nil
	}
	return []*selPoint{
		{node: sel.Anchor.Node, offset: sel.Anchor.Offset, pos: -1},
		{node: sel.Focus.Node, offset: sel.Focus.Offset, pos: -1},
	}
}

func (r *domReader) String() string {
	return r.text.String()
}

// readRange reads the siblings from start up to, not including, end.
func (r *domReader) readRange(start, end *html.Node) {
	if start == nil {
		return
	}
	parent := start.Parent
	for cur := start; ; {
		r.findPointBefore(parent, cur)
		r.readNode(cur)
		next := cur.NextSibling
		if next == end || next == nil {
			break
		}
		if r.breakBetween(cur, next) {
			r.text.WriteByte('\n')
		}
		cur = next
	}
	r.findPointBefore(parent, end)
}

func (r *domReader) breakBetween(cur, next *html.Node) bool {
	var brk bool
	if v := r.reg.get(cur); v != nil {
		brk = v.BreakAfter() > 0
	} else {
		brk = dom.IsBlock(cur)
	}
	return brk || (dom.IsBlock(next) && !dom.IsBR(cur))
}

func (r *domReader) readNode(n *html.Node) {
	switch {
	case n.Type == html.TextNode:
		r.addText(n, n.Data)
	case dom.IsBR(n):
		if n.NextSibling != nil {
			r.addText(n, "\n")
		} else {
			r.addText(n, "")
		}
	case n.Type == html.ElementNode:
		if n.FirstChild == nil {
			r.findPointIn(n, 0)
			return
		}
		r.readRange(n.FirstChild, nil)
	}
}

func (r *domReader) addText(n *html.Node, s string) {
	r.findPointIn(n, len(s))
	r.text.WriteString(s)
}

func (r *domReader) findPointBefore(parent, cur *html.Node) {
	for _, p := range r.points {
		if p.node == parent && dom.ChildAt(parent, p.offset) == cur {
			p.pos = r.text.Len()
		}
	}
}

func (r *domReader) findPointIn(n *html.Node, maxLen int) {
	for _, p := range r.points {
		if p.node == n {
			p.pos = r.text.Len() + min(p.offset, maxLen)
		}
	}
}
