package term

import (
	"unicode/utf8"

	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/text"
)

// motion computes a new head for a range head in doc.
type motion func(doc *text.Document, head int) int

// moveSelection builds a transaction moving every range head by m. When
// extend is false each range collapses to its new head.
func moveSelection(s *state.EditorState, m motion, extend bool) *state.Transaction {
	sel := s.Selection()
	ranges := make([]state.SelectionRange, 0, sel.Len())
	for _, r := range sel.Ranges() {
		head := m(s.Doc(), r.Head)
		anchor := head
		if extend {
			anchor = r.Anchor
		}
		ranges = append(ranges, state.Range(anchor, head))
	}
	next, err := state.CreateSelection(ranges, sel.PrimaryIndex())
	tr := s.T()
	if err != nil {
		return tr
	}
	return tr.SetSelection(next).
		ScrollIntoView().
		Annotate(state.UserEventAnnotation.Of("select"))
}

// charLeft moves one character back, crossing line breaks.
func charLeft(doc *text.Document, head int) int {
	line := doc.LineAt(head)
	if head == line.From {
		return max(head-1, 0)
	}
	_, size := utf8.DecodeLastRuneInString(line.Text[:head-line.From])
	return head - size
}

// charRight moves one character forward, crossing line breaks.
func charRight(doc *text.Document, head int) int {
	line := doc.LineAt(head)
	if head == line.To {
		return min(head+1, doc.Len())
	}
	_, size := utf8.DecodeRuneInString(line.Text[head-line.From:])
	return head + size
}

// lineBy returns a motion moving n lines, keeping the byte column where the
// target line allows it.
func lineBy(n int) motion {
	return func(doc *text.Document, head int) int {
		line := doc.LineAt(head)
		target := line.Number + n
		if target < 0 {
			return 0
		}
		if target >= doc.LineCount() {
			return doc.Len()
		}
		dest := doc.LineAt(lineStart(doc, target))
		col := min(head-line.From, len(dest.Text))
		for col > 0 && col < len(dest.Text) && !utf8.RuneStart(dest.Text[col]) {
			col--
		}
		return dest.From + col
	}
}

// lineStart returns the offset of line number n.
func lineStart(doc *text.Document, n int) int {
	pos := 0
	for i := 0; i < n; i++ {
		pos += len(doc.Line(i)) + 1
	}
	return pos
}

func lineHome(doc *text.Document, head int) int {
	return doc.LineAt(head).From
}

func lineEnd(doc *text.Document, head int) int {
	return doc.LineAt(head).To
}

// selectAll selects the whole document.
func selectAll(s *state.EditorState) *state.Transaction {
	return s.T().
		SetSelection(state.SingleSelection(0, s.Doc().Len())).
		Annotate(state.UserEventAnnotation.Of("select"))
}

// deleteForward removes the character after each cursor, or the selected
// text of non-empty ranges.
func deleteForward(s *state.EditorState) *state.Transaction {
	return s.T().ForEachRange(func(r state.SelectionRange, tr *state.Transaction) state.SelectionRange {
		from, to := r.From(), r.To()
		if r.Empty() {
			to = charRight(tr.Doc(), from)
		}
		tr.Replace(from, to, "")
		return state.Range(from, from)
	}).ScrollIntoView().Annotate(state.UserEventAnnotation.Of("delete"))
}

// deleteBackwardAll removes the character before each cursor, or the
// selected text of non-empty ranges.
func deleteBackwardAll(s *state.EditorState) *state.Transaction {
	return s.T().ForEachRange(func(r state.SelectionRange, tr *state.Transaction) state.SelectionRange {
		from, to := r.From(), r.To()
		if r.Empty() {
			from = charLeft(tr.Doc(), to)
		}
		tr.Replace(from, to, "")
		return state.Range(from, from)
	}).ScrollIntoView().Annotate(state.UserEventAnnotation.Of("delete"))
}

// insertAll replaces every range with str.
func insertAll(s *state.EditorState, str string) *state.Transaction {
	return s.T().ReplaceSelection(str).
		ScrollIntoView().
		Annotate(state.UserEventAnnotation.Of("input"))
}
