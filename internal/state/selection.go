package state

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SelectionRange is a single selection range. Anchor is the fixed side, Head
// the side that moves when the selection is extended. When Anchor equals
// Head the range is a cursor.
type SelectionRange struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Range creates a selection range.
func Range(anchor, head int) SelectionRange {
	return SelectionRange{Anchor: anchor, Head: head}
}

// From returns the lower bound.
func (r SelectionRange) From() int {
	return min(r.Anchor, r.Head)
}

// To returns the upper bound.
func (r SelectionRange) To() int {
	return max(r.Anchor, r.Head)
}

// Empty reports whether the range is a cursor.
func (r SelectionRange) Empty() bool {
	return r.Anchor == r.Head
}

// Map maps the range through a mapping.
func (r SelectionRange) Map(m Mapping) SelectionRange {
	return SelectionRange{
		Anchor: m.MapPos(r.Anchor, -1, MapSimple),
		Head:   m.MapPos(r.Head, -1, MapSimple),
	}
}

// Eq reports whether two ranges have the same anchor and head.
func (r SelectionRange) Eq(other SelectionRange) bool {
	return r.Anchor == other.Anchor && r.Head == other.Head
}

// String returns a short representation for debugging.
func (r SelectionRange) String() string {
	if r.Empty() {
		return fmt.Sprintf("Cursor(%d)", r.Head)
	}
	return fmt.Sprintf("Range(%d→%d)", r.Anchor, r.Head)
}

// EditorSelection is a non-empty set of sorted, non-overlapping ranges, one of
// which is primary. It is an immutable value.
type EditorSelection struct {
	ranges       []SelectionRange
	primaryIndex int
}

// CreateSelection builds a selection, sorting the ranges and merging any
// that overlap. The primary range keeps its role through the normalization.
func CreateSelection(ranges []SelectionRange, primaryIndex int) (EditorSelection, error) {
	if len(ranges) == 0 {
		return EditorSelection{}, fmt.Errorf("%w: no ranges", ErrInvalidSelection)
	}
	if primaryIndex < 0 || primaryIndex >= len(ranges) {
		return EditorSelection{}, fmt.Errorf("%w: primary index %d of %d ranges", ErrInvalidSelection, primaryIndex, len(ranges))
	}
	for _, r := range ranges {
		if r.Anchor < 0 || r.Head < 0 {
			return EditorSelection{}, fmt.Errorf("%w: negative position in %v", ErrInvalidSelection, r)
		}
	}
	pos := 0
	for i, r := range ranges {
		if i > 0 && overlapsPrevious(r, pos) {
			return normalized(ranges, primaryIndex), nil
		}
		pos = r.To()
	}
	cp := make([]SelectionRange, len(ranges))
	copy(cp, ranges)
	return EditorSelection{ranges: cp, primaryIndex: primaryIndex}, nil
}

// overlapsPrevious reports whether r must be merged with a range ending at
// prevTo. A cursor merges when it touches the previous range; a non-empty
// range only when it overlaps it.
func overlapsPrevious(r SelectionRange, prevTo int) bool {
	if r.Empty() {
		return r.From() <= prevTo
	}
	return r.From() < prevTo
}

func normalized(in []SelectionRange, primaryIndex int) EditorSelection {
	type indexed struct {
		r       SelectionRange
		primary bool
	}
	items := make([]indexed, len(in))
	for i, r := range in {
		items[i] = indexed{r: r, primary: i == primaryIndex}
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].r.From() < items[b].r.From() })

	out := make([]indexed, 0, len(items))
	for _, it := range items {
		if len(out) > 0 && overlapsPrevious(it.r, out[len(out)-1].r.To()) {
			prev := out[len(out)-1]
			from, to := prev.r.From(), max(it.r.To(), prev.r.To())
			merged := SelectionRange{Anchor: from, Head: to}
			if it.r.Anchor > it.r.Head {
				merged = SelectionRange{Anchor: to, Head: from}
			}
			out[len(out)-1] = indexed{r: merged, primary: prev.primary || it.primary}
			continue
		}
		out = append(out, it)
	}

	sel := EditorSelection{ranges: make([]SelectionRange, len(out))}
	for i, it := range out {
		sel.ranges[i] = it.r
		if it.primary {
			sel.primaryIndex = i
		}
	}
	return sel
}

// SingleSelection creates a selection holding one range.
func SingleSelection(anchor, head int) EditorSelection {
	return EditorSelection{ranges: []SelectionRange{{Anchor: anchor, Head: head}}}
}

// Cursor creates a selection holding one cursor.
func Cursor(pos int) EditorSelection {
	return SingleSelection(pos, pos)
}

// Ranges returns a copy of the ranges, sorted by position.
func (s EditorSelection) Ranges() []SelectionRange {
	out := make([]SelectionRange, len(s.ranges))
	copy(out, s.ranges)
	return out
}

// Len returns the number of ranges.
func (s EditorSelection) Len() int {
	return len(s.ranges)
}

// PrimaryIndex returns the index of the primary range.
func (s EditorSelection) PrimaryIndex() int {
	return s.primaryIndex
}

// Primary returns the primary range.
func (s EditorSelection) Primary() SelectionRange {
	if len(s.ranges) == 0 {
		return SelectionRange{}
	}
	return s.ranges[s.primaryIndex]
}

// Map maps every range through a mapping and renormalizes.
func (s EditorSelection) Map(m Mapping) EditorSelection {
	if len(s.ranges) == 0 {
		return s
	}
	mapped := make([]SelectionRange, len(s.ranges))
	for i, r := range s.ranges {
		mapped[i] = r.Map(m)
	}
	sel, err := CreateSelection(mapped, s.primaryIndex)
	if err != nil {
		// Mapping never produces negative positions or drops ranges.
		return s
	}
	return sel
}

// Eq reports whether two selections hold the same ranges and primary index.
func (s EditorSelection) Eq(other EditorSelection) bool {
	if len(s.ranges) != len(other.ranges) || s.primaryIndex != other.primaryIndex {
		return false
	}
	for i, r := range s.ranges {
		if !r.Eq(other.ranges[i]) {
			return false
		}
	}
	return true
}

// AsSingle collapses the selection to its primary range.
func (s EditorSelection) AsSingle() EditorSelection {
	if len(s.ranges) <= 1 {
		return s
	}
	return EditorSelection{ranges: []SelectionRange{s.Primary()}}
}

// AddRange returns a selection with r added. When primary is true, r becomes
// the primary range.
func (s EditorSelection) AddRange(r SelectionRange, primary bool) EditorSelection {
	ranges := append([]SelectionRange{r}, s.ranges...)
	idx := s.primaryIndex + 1
	if primary {
		idx = 0
	}
	sel, err := CreateSelection(ranges, idx)
	if err != nil {
		return s
	}
	return sel
}

// ReplaceRange returns a selection with the range at index which replaced.
func (s EditorSelection) ReplaceRange(r SelectionRange, which int) EditorSelection {
	if which < 0 || which >= len(s.ranges) {
		return s
	}
	ranges := s.Ranges()
	ranges[which] = r
	sel, err := CreateSelection(ranges, s.primaryIndex)
	if err != nil {
		return s
	}
	return sel
}

// String returns a short representation for debugging.
func (s EditorSelection) String() string {
	return fmt.Sprintf("Selection(%v, primary=%d)", s.ranges, s.primaryIndex)
}

type selectionJSON struct {
	Ranges       []SelectionRange `json:"ranges"`
	PrimaryIndex int              `json:"primaryIndex"`
}

// MarshalJSON writes a single range as {anchor, head} and several ranges as
// {ranges, primaryIndex}.
func (s EditorSelection) MarshalJSON() ([]byte, error) {
	if len(s.ranges) == 1 {
		return json.Marshal(s.ranges[0])
	}
	return json.Marshal(selectionJSON{Ranges: s.ranges, PrimaryIndex: s.primaryIndex})
}

// UnmarshalJSON reads either form written by MarshalJSON.
func (s *EditorSelection) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: selection: %v", ErrInvalidJSON, err)
	}
	if _, ok := probe["ranges"]; ok {
		var in selectionJSON
		if err := json.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("%w: selection: %v", ErrInvalidJSON, err)
		}
		sel, err := CreateSelection(in.Ranges, in.PrimaryIndex)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		*s = sel
		return nil
	}
	_, hasAnchor := probe["anchor"]
	_, hasHead := probe["head"]
	if !hasAnchor || !hasHead {
		return fmt.Errorf("%w: selection needs anchor and head", ErrInvalidJSON)
	}
	var r SelectionRange
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("%w: selection: %v", ErrInvalidJSON, err)
	}
	sel, err := CreateSelection([]SelectionRange{r}, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	*s = sel
	return nil
}

// SelectionFromJSON decodes a selection in either JSON form.
func SelectionFromJSON(data []byte) (EditorSelection, error) {
	var sel EditorSelection
	if err := json.Unmarshal(data, &sel); err != nil {
		return EditorSelection{}, err
	}
	return sel, nil
}
