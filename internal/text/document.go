package text

import (
	"fmt"
	"strings"
)

// Tree shape constants.
const (
	// MaxLeafLines is the maximum number of lines stored in one leaf.
	MaxLeafLines = 32

	// MaxChildren is the maximum number of children of a branch node.
	MaxChildren = 16
)

// node is a persistent tree node. Leaves hold lines; branches hold children.
// Nodes are never modified after construction, so subtrees are shared freely
// between document versions.
type node struct {
	lines    []string // leaf only
	children []*node  // branch only

	length    int // bytes, counting one byte per line break inside the node
	lineCount int
}

func newLeaf(lines []string) *node {
	n := &node{lines: lines, lineCount: len(lines)}
	for _, l := range lines {
		n.length += len(l)
	}
	n.length += len(lines) - 1
	return n
}

func newBranch(children []*node) *node {
	n := &node{children: children}
	for _, c := range children {
		n.length += c.length
		n.lineCount += c.lineCount
	}
	n.length += len(children) - 1
	return n
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

// build creates a balanced subtree holding lines.
func build(lines []string) *node {
	if len(lines) <= MaxLeafLines {
		return newLeaf(lines)
	}
	var nodes []*node
	for i := 0; i < len(lines); i += MaxLeafLines {
		end := min(i+MaxLeafLines, len(lines))
		nodes = append(nodes, newLeaf(lines[i:end:end]))
	}
	for len(nodes) > MaxChildren {
		var parents []*node
		for i := 0; i < len(nodes); i += MaxChildren {
			end := min(i+MaxChildren, len(nodes))
			parents = append(parents, newBranch(nodes[i:end:end]))
		}
		nodes = parents
	}
	return newBranch(nodes)
}

func (n *node) collect(out []string) []string {
	if n.isLeaf() {
		return append(out, n.lines...)
	}
	for _, c := range n.children {
		out = c.collect(out)
	}
	return out
}

// replaceLines replaces lines [from, to) of the subtree with repl and returns
// the new subtree. Children untouched by the range are shared.
func (n *node) replaceLines(from, to int, repl []string) *node {
	if n.isLeaf() {
		lines := make([]string, 0, len(n.lines)-(to-from)+len(repl))
		lines = append(lines, n.lines[:from]...)
		lines = append(lines, repl...)
		lines = append(lines, n.lines[to:]...)
		return build(lines)
	}

	first, last := -1, -1
	firstStart := 0
	pos := 0
	for i, c := range n.children {
		end := pos + c.lineCount
		if first < 0 && from < end {
			first, firstStart = i, pos
		}
		if to <= end {
			last = i
			break
		}
		pos = end
	}

	var replaced *node
	if first == last {
		replaced = n.children[first].replaceLines(from-firstStart, to-firstStart, repl)
	} else {
		var lines []string
		for _, c := range n.children[first : last+1] {
			lines = c.collect(lines)
		}
		local := lines[: from-firstStart : from-firstStart]
		local = append(local, repl...)
		local = append(local, lines[to-firstStart:]...)
		replaced = build(local)
	}

	children := make([]*node, 0, len(n.children))
	children = append(children, n.children[:first]...)
	children = append(children, replaced)
	children = append(children, n.children[last+1:]...)
	if len(children) > MaxChildren {
		return build(newBranch(children).collect(nil))
	}
	if len(children) == 1 {
		return children[0]
	}
	return newBranch(children)
}

// Document is an immutable, persistent text buffer stored as a tree of lines.
// A document always has at least one line. Editing returns a new document
// that shares unmodified subtrees with the original.
type Document struct {
	root *node
}

// Empty is the document holding a single empty line.
var Empty = &Document{root: newLeaf([]string{""})}

// Of creates a document from its lines.
func Of(lines []string) (*Document, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyLines
	}
	cp := make([]string, len(lines))
	copy(cp, lines)
	return &Document{root: build(cp)}, nil
}

// FromString creates a document by splitting s with the given separator
// policy (see SplitLines).
func FromString(s, sep string) *Document {
	return &Document{root: build(SplitLines(s, sep))}
}

// Len returns the document length, counting one per line break.
func (d *Document) Len() int {
	return d.root.length
}

// LineCount returns the number of lines. It is always at least 1.
func (d *Document) LineCount() int {
	return d.root.lineCount
}

// Line returns the text of the 0-based line n.
func (d *Document) Line(n int) string {
	if n < 0 || n >= d.root.lineCount {
		return ""
	}
	cur := d.root
	for !cur.isLeaf() {
		for _, c := range cur.children {
			if n < c.lineCount {
				cur = c
				break
			}
			n -= c.lineCount
		}
	}
	return cur.lines[n]
}

// LineInfo describes one line of a document.
type LineInfo struct {
	Number int // 0-based
	From   int // offset of the line start
	To     int // offset of the line end, excluding the break
	Text   string
}

// LineAt returns the line containing pos. Positions past the end resolve to
// the last line.
func (d *Document) LineAt(pos int) LineInfo {
	pos = max(0, min(pos, d.Len()))
	cur, number, start := d.root, 0, 0
	for !cur.isLeaf() {
		for i, c := range cur.children {
			if pos <= start+c.length || i == len(cur.children)-1 {
				cur = c
				break
			}
			start += c.length + 1
			number += c.lineCount
		}
	}
	for i, l := range cur.lines {
		if pos <= start+len(l) || i == len(cur.lines)-1 {
			return LineInfo{Number: number, From: start, To: start + len(l), Text: l}
		}
		start += len(l) + 1
		number++
	}
	return LineInfo{}
}

// Lines returns a copy of all lines.
func (d *Document) Lines() []string {
	return d.root.collect(nil)
}

// SliceLines returns the content of [from, to) as lines.
func (d *Document) SliceLines(from, to int) []string {
	if from >= to {
		return []string{""}
	}
	a, b := d.LineAt(from), d.LineAt(to)
	if a.Number == b.Number {
		return []string{a.Text[from-a.From : to-a.From]}
	}
	out := make([]string, 0, b.Number-a.Number+1)
	out = append(out, a.Text[from-a.From:])
	for n := a.Number + 1; n < b.Number; n++ {
		out = append(out, d.Line(n))
	}
	return append(out, b.Text[:to-b.From])
}

// SliceString returns the content of [from, to) with line breaks written as
// sep. An empty sep means "\n".
func (d *Document) SliceString(from, to int, sep string) string {
	if sep == "" {
		sep = "\n"
	}
	return strings.Join(d.SliceLines(from, to), sep)
}

// String returns the whole document with "\n" line breaks.
func (d *Document) String() string {
	return strings.Join(d.Lines(), "\n")
}

// Replace returns a new document with [from, to) replaced by lines. The
// receiver is unchanged.
func (d *Document) Replace(from, to int, lines []string) (*Document, error) {
	if from < 0 || to < from || to > d.Len() {
		return nil, fmt.Errorf("%w: replace %d-%d in document of length %d", ErrOutOfRange, from, to, d.Len())
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	a, b := d.LineAt(from), d.LineAt(to)
	repl := make([]string, len(lines))
	copy(repl, lines)
	repl[0] = a.Text[:from-a.From] + repl[0]
	repl[len(repl)-1] += b.Text[to-b.From:]
	return &Document{root: d.root.replaceLines(a.Number, b.Number+1, repl)}, nil
}

// Eq reports whether two documents hold the same text.
func (d *Document) Eq(other *Document) bool {
	if d == other {
		return true
	}
	if d.Len() != other.Len() || d.LineCount() != other.LineCount() {
		return false
	}
	return d.String() == other.String()
}

// SplitLines splits s into lines. With an empty sep, "\r\n", "\r" and "\n"
// are all treated as line breaks.
func SplitLines(s, sep string) []string {
	if sep != "" {
		return strings.Split(s, sep)
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case '\r':
			lines = append(lines, s[start:i])
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			start = i + 1
		}
	}
	return append(lines, s[start:])
}

// LinesLen returns the length of lines joined by single line breaks.
func LinesLen(lines []string) int {
	n := len(lines) - 1
	for _, l := range lines {
		n += len(l)
	}
	return max(n, 0)
}
