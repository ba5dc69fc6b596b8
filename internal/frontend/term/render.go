package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view/dom"
)

const tabWidth = 4

var (
	styleText      = tcell.StyleDefault
	styleSelection = tcell.StyleDefault.Reverse(true)
	styleStatus    = tcell.StyleDefault.Reverse(true).Bold(true)
)

// cell is one grapheme cluster laid out on a row.
type cell struct {
	runes    []rune
	from, to int // byte offsets in the line
	x, width int
}

// layout places the graphemes of a line. Tabs expand to the next tab stop.
func layout(line string) []cell {
	var cells []cell
	x := 0
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		from, to := g.Positions()
		runes := g.Runes()
		w := g.Width()
		if runes[0] == '\t' {
			w = tabWidth - x%tabWidth
		}
		cells = append(cells, cell{runes: runes, from: from, to: to, x: x, width: w})
		x += w
	}
	return cells
}

// column returns the screen column of byte offset off in line.
func column(line string, off int) int {
	x := 0
	for _, c := range layout(line) {
		if c.from >= off {
			return c.x
		}
		x = c.x + c.width
	}
	return x
}

// offsetAt returns the byte offset in line displayed at column x.
func offsetAt(line string, x int) int {
	for _, c := range layout(line) {
		if x < c.x+c.width {
			return c.from
		}
	}
	return len(line)
}

// renderedLines reads the line texts out of the rendered tree.
func (t *Terminal) renderedLines() []string {
	var lines []string
	for c := t.view.ContentDOM().FirstChild; c != nil; c = c.NextSibling {
		lines = append(lines, dom.TextContent(c))
	}
	return lines
}

// textRows is the number of rows available for document lines.
func (t *Terminal) textRows() int {
	_, h := t.screen.Size()
	return max(h-1, 1)
}

// scrollToCursor adjusts the first visible line so the primary head shows.
func (t *Terminal) scrollToCursor() {
	line := t.view.State().Doc().LineAt(t.view.State().Selection().Primary().Head).Number
	rows := t.textRows()
	if line < t.top {
		t.top = line
	} else if line >= t.top+rows {
		t.top = line - rows + 1
	}
}

// Draw paints the visible lines, the selection and the status line.
func (t *Terminal) Draw() {
	t.screen.Clear()
	w, _ := t.screen.Size()
	rows := t.textRows()
	s := t.view.State()
	doc := s.Doc()
	lines := t.renderedLines()
	from := lineStart(doc, min(t.top, doc.LineCount()-1))

	for y := 0; y < rows && t.top+y < len(lines); y++ {
		text := lines[t.top+y]
		for _, c := range layout(text) {
			if c.x >= w {
				break
			}
			style := styleText
			if selected(s.Selection(), from+c.from, from+c.to) {
				style = styleSelection
			}
			if c.runes[0] == '\t' {
				for i := 0; i < c.width; i++ {
					t.screen.SetContent(c.x+i, y, ' ', nil, style)
				}
				continue
			}
			t.screen.SetContent(c.x, y, c.runes[0], c.runes[1:], style)
		}
		from += len(text) + 1
	}

	t.drawStatus(rows, w)

	head := s.Selection().Primary().Head
	info := doc.LineAt(head)
	if y := info.Number - t.top; y >= 0 && y < rows {
		t.screen.ShowCursor(column(info.Text, head-info.From), y)
	} else {
		t.screen.HideCursor()
	}
	t.screen.Show()
}

func (t *Terminal) drawStatus(y, w int) {
	s := t.view.State()
	head := s.Selection().Primary().Head
	info := s.Doc().LineAt(head)
	left := fmt.Sprintf(" %s  Ln %d, Col %d  %d lines", t.name, info.Number+1, head-info.From+1, s.Doc().LineCount())
	if n := s.Selection().Len(); n > 1 {
		left += fmt.Sprintf("  %d ranges", n)
	}
	status := left
	if t.message != "" {
		status += "  " + t.message
	}
	x := 0
	for _, r := range status {
		if x >= w {
			break
		}
		t.screen.SetContent(x, y, r, nil, styleStatus)
		x += uniseg.StringWidth(string(r))
	}
	for ; x < w; x++ {
		t.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
}

// selected reports whether [from, to) lies inside a non-empty range.
func selected(sel state.EditorSelection, from, to int) bool {
	for _, r := range sel.Ranges() {
		if !r.Empty() && from >= r.From() && to <= r.To() {
			return true
		}
	}
	return false
}
