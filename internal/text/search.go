package text

import (
	"strings"

	"golang.org/x/text/cases"
)

// Match is a single search result.
type Match struct {
	From int
	To   int
}

// SearchCursor scans a document range for occurrences of a needle. It is lazy:
// each call to Next finds at most one further match. Matches never overlap.
//
// Usage:
//
//	c := text.NewSearchCursor(doc, "foo", 0, doc.Len(), false)
//	for !c.Next().Done {
//	    use(c.Value)
//	}
type SearchCursor struct {
	// Done is set once no further match exists.
	Done bool

	// Value is the current match, valid while Done is false.
	Value Match

	doc    *Document
	needle string
	from   int
	to     int
	fold   cases.Caser
	folded bool

	text string // folded slice of [from, to) with "\n" breaks
	pos  int    // scan offset into text
	init bool
}

// NewSearchCursor creates a cursor over [from, to). When fold is true,
// matching is case-insensitive.
func NewSearchCursor(doc *Document, needle string, from, to int, fold bool) *SearchCursor {
	from = max(0, min(from, doc.Len()))
	to = max(from, min(to, doc.Len()))
	c := &SearchCursor{doc: doc, needle: needle, from: from, to: to, folded: fold}
	if fold {
		c.fold = cases.Fold()
		c.needle = c.fold.String(needle)
	}
	return c
}

func (c *SearchCursor) load() {
	if c.init {
		return
	}
	c.init = true
	c.text = c.doc.SliceString(c.from, c.to, "\n")
	if c.folded {
		c.text = c.foldPreservingOffsets(c.text)
	}
}

// foldPreservingOffsets folds s rune by rune, keeping a rune's original text
// whenever folding would change its byte length so offsets stay aligned.
func (c *SearchCursor) foldPreservingOffsets(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		orig := string(r)
		f := c.fold.String(orig)
		if len(f) == len(orig) {
			sb.WriteString(f)
		} else {
			sb.WriteString(orig)
		}
	}
	return sb.String()
}

// Next advances to the next match and returns the cursor.
func (c *SearchCursor) Next() *SearchCursor {
	c.load()
	if c.Done {
		return c
	}
	if c.needle == "" || c.pos > len(c.text) {
		c.Done = true
		return c
	}
	idx := strings.Index(c.text[c.pos:], c.needle)
	if idx < 0 {
		c.Done = true
		c.pos = len(c.text) + 1
		return c
	}
	start := c.pos + idx
	c.Value = Match{From: c.from + start, To: c.from + start + len(c.needle)}
	c.pos = start + len(c.needle)
	return c
}

// Reset restarts the scan from the beginning of the range.
func (c *SearchCursor) Reset() {
	c.Done = false
	c.Value = Match{}
	c.pos = 0
}

// All collects the remaining matches.
func (c *SearchCursor) All() []Match {
	var out []Match
	for !c.Next().Done {
		out = append(out, c.Value)
	}
	return out
}
