package state

import (
	"fmt"

	"github.com/dshills/quill/internal/text"
)

// MapMode controls how position mapping treats positions inside deleted
// content.
type MapMode uint8

const (
	// MapSimple always returns a position, moving deleted positions to the
	// side selected by the bias.
	MapSimple MapMode = iota

	// MapTrackDel returns -1 when the content around the position was deleted.
	MapTrackDel

	// MapTrackBefore returns -1 when the character before the position was deleted.
	MapTrackBefore

	// MapTrackAfter returns -1 when the character after the position was deleted.
	MapTrackAfter
)

// Mapping maps positions in one document to positions in another.
// A negative bias keeps positions at an insertion point before the inserted
// text; a positive bias moves them after it.
type Mapping interface {
	MapPos(pos, bias int, mode MapMode) int
}

// ChangeDesc describes the shape of a change without its content: the range
// [From, To) was replaced by Length characters.
type ChangeDesc struct {
	From   int
	To     int
	Length int
}

// Inverted returns the description of the change that undoes this one.
func (d ChangeDesc) Inverted() ChangeDesc {
	return ChangeDesc{From: d.From, To: d.From + d.Length, Length: d.To - d.From}
}

// MapPos maps a position in the document before the change to the document
// after it.
func (d ChangeDesc) MapPos(pos, bias int, mode MapMode) int {
	from, to, length := d.From, d.To, d.Length
	if pos < from {
		return pos
	}
	if pos > to {
		return pos + (length - (to - from))
	}
	if pos == to || pos == from {
		if (from < pos && mode == MapTrackBefore) || (to > pos && mode == MapTrackAfter) {
			return -1
		}
		if from == to {
			if bias <= 0 {
				return from
			}
			return from + length
		}
		if pos == from {
			return from
		}
		return from + length
	}
	if mode != MapSimple {
		return -1
	}
	if bias <= 0 {
		return from
	}
	return from + length
}

// Change replaces the document range [From, To) with Text, given as lines.
// Text always holds at least one element; an insertion of nothing is [""].
type Change struct {
	From int
	To   int
	Text []string
}

// NewChange creates a change. A nil or empty text means deletion.
func NewChange(from, to int, lines []string) Change {
	if len(lines) == 0 {
		lines = []string{""}
	}
	return Change{From: from, To: to, Text: lines}
}

// InsertLen returns the length of the inserted text.
func (c Change) InsertLen() int {
	return text.LinesLen(c.Text)
}

// Delta returns the net change in document length.
func (c Change) Delta() int {
	return c.InsertLen() - (c.To - c.From)
}

// IsEmpty reports whether the change neither deletes nor inserts anything.
func (c Change) IsEmpty() bool {
	return c.From == c.To && len(c.Text) == 1 && c.Text[0] == ""
}

// Desc returns the change's description.
func (c Change) Desc() ChangeDesc {
	return ChangeDesc{From: c.From, To: c.To, Length: c.InsertLen()}
}

// MapPos maps a position through this change.
func (c Change) MapPos(pos, bias int, mode MapMode) int {
	return c.Desc().MapPos(pos, bias, mode)
}

// Apply applies the change to doc.
func (c Change) Apply(doc *text.Document) (*text.Document, error) {
	return doc.Replace(c.From, c.To, c.Text)
}

// Invert returns the change that undoes c. doc must be the document the
// change was applied to.
func (c Change) Invert(doc *text.Document) Change {
	return Change{From: c.From, To: c.From + c.InsertLen(), Text: doc.SliceLines(c.From, c.To)}
}

// Map maps the change through a mapping. The second result is false when the
// mapped range collapsed past itself, meaning the change no longer applies.
func (c Change) Map(m Mapping) (Change, bool) {
	from := m.MapPos(c.From, 1, MapSimple)
	to := m.MapPos(c.To, -1, MapSimple)
	if from > to {
		return Change{}, false
	}
	return Change{From: from, To: to, Text: c.Text}, true
}

// String returns a short representation for debugging.
func (c Change) String() string {
	return fmt.Sprintf("Change(%d-%d %q)", c.From, c.To, c.Text)
}
