package state

import (
	"encoding/json"
	"fmt"
)

// ChangeSet is an ordered sequence of changes, stored in application order,
// plus an optional list of mirror pairs. Mirror holds index pairs
// (a0, b0, a1, b1, ...) of changes that are inverses of each other, which
// lets mapping recover positions that one change deleted and its mirror
// restored.
//
// ChangeSet is an immutable value: Append and AppendSet return new sets.
type ChangeSet struct {
	Changes []Change
	Mirror  []int
}

// EmptyChangeSet holds no changes.
var EmptyChangeSet = ChangeSet{}

// Len returns the number of changes.
func (cs ChangeSet) Len() int {
	return len(cs.Changes)
}

// IsEmpty reports whether the set holds no changes.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs.Changes) == 0
}

// Append returns a new set with change added at the end. When mirror is
// non-negative, the new change is recorded as the mirror of change mirror.
func (cs ChangeSet) Append(change Change, mirror int) ChangeSet {
	changes := make([]Change, len(cs.Changes), len(cs.Changes)+1)
	copy(changes, cs.Changes)
	out := ChangeSet{Changes: append(changes, change), Mirror: cs.Mirror}
	if mirror >= 0 {
		m := make([]int, len(cs.Mirror), len(cs.Mirror)+2)
		copy(m, cs.Mirror)
		out.Mirror = append(m, len(cs.Changes), mirror)
	}
	return out
}

// AppendSet returns a new set holding the changes of cs followed by those of
// other. Mirror indices of other are shifted accordingly.
func (cs ChangeSet) AppendSet(other ChangeSet) ChangeSet {
	if other.IsEmpty() {
		return cs
	}
	if cs.IsEmpty() {
		return other
	}
	changes := make([]Change, 0, len(cs.Changes)+len(other.Changes))
	changes = append(changes, cs.Changes...)
	changes = append(changes, other.Changes...)
	mirror := make([]int, 0, len(cs.Mirror)+len(other.Mirror))
	mirror = append(mirror, cs.Mirror...)
	for _, i := range other.Mirror {
		mirror = append(mirror, i+len(cs.Changes))
	}
	return ChangeSet{Changes: changes, Mirror: mirror}
}

// GetMirror returns the index of the change mirroring change n.
func (cs ChangeSet) GetMirror(n int) (int, bool) {
	for i, m := range cs.Mirror {
		if m != n {
			continue
		}
		if i%2 == 0 {
			return cs.Mirror[i+1], true
		}
		return cs.Mirror[i-1], true
	}
	return 0, false
}

// MapPos maps a position from the start document of the set to its end
// document.
func (cs ChangeSet) MapPos(pos, bias int, mode MapMode) int {
	return cs.mapInner(pos, bias, mode, 0, len(cs.Changes))
}

// PartialMapping returns a mapping through changes [from, to). When to is
// less than from, the mapping runs backwards, from the document after change
// from-1 to the document before change to.
func (cs ChangeSet) PartialMapping(from, to int) Mapping {
	if from == 0 && to == len(cs.Changes) {
		return cs
	}
	return partialMapping{set: cs, from: from, to: to}
}

type partialMapping struct {
	set      ChangeSet
	from, to int
}

func (m partialMapping) MapPos(pos, bias int, mode MapMode) int {
	return m.set.mapInner(pos, bias, mode, m.from, m.to)
}

func (cs ChangeSet) mapInner(pos, bias int, mode MapMode, fromI, toI int) int {
	dir := 1
	i, end := fromI, toI
	if toI < fromI {
		dir = -1
		i, end = fromI-1, toI-1
	}
	var recoverables map[int]int
	hasMirrors := len(cs.Mirror) > 0

	for ; i != end; i += dir {
		desc := cs.descAt(i, dir)
		from, to, length := desc.From, desc.To, desc.Length
		if pos < from {
			continue
		}
		if pos > to {
			pos += length - (to - from)
			continue
		}
		if rec, ok := recoverables[i]; ok {
			pos = from + rec
			continue
		}
		if hasMirrors {
			if mirror, ok := cs.GetMirror(i); ok &&
				((dir > 0 && mirror > i && mirror < toI) || (dir < 0 && mirror < i && mirror >= toI)) {
				if pos > from && pos < to {
					// Deleted here, restored by the mirror: continue from there.
					i = mirror
					pos = cs.descAt(mirror, dir).From + (pos - from)
					continue
				}
				if recoverables == nil {
					recoverables = make(map[int]int)
				}
				recoverables[mirror] = pos - from
			}
		}
		pos = desc.MapPos(pos, bias, mode)
		if pos < 0 {
			return pos
		}
	}
	return pos
}

func (cs ChangeSet) descAt(i, dir int) ChangeDesc {
	desc := cs.Changes[i].Desc()
	if dir < 0 {
		return desc.Inverted()
	}
	return desc
}

// ChangedRange describes a region touched by a change set: [FromA, ToA) in
// the start document corresponds to [FromB, ToB) in the end document.
type ChangedRange struct {
	FromA, ToA int
	FromB, ToB int
}

// ChangedRanges returns the sorted, non-overlapping regions touched by the
// set. Adjacent or overlapping edits are merged into one region.
func (cs ChangeSet) ChangedRanges() []ChangedRange {
	var set []ChangedRange
	for _, c := range cs.Changes {
		from, to, delta := c.From, c.To, c.Delta()

		i := 0
		offset := 0 // end-minus-start size difference of ranges before i
		for i < len(set) && set[i].ToB < from {
			offset += rangeDelta(set[i])
			i++
		}
		j := i
		offsetJ := offset
		for j < len(set) && set[j].FromB <= to {
			offsetJ += rangeDelta(set[j])
			j++
		}

		merged := ChangedRange{FromA: from - offset, FromB: from, ToA: to - offsetJ, ToB: to}
		if i < j {
			if set[i].FromB <= from {
				merged.FromA, merged.FromB = set[i].FromA, set[i].FromB
			}
			if set[j-1].ToB >= to {
				merged.ToA, merged.ToB = set[j-1].ToA, set[j-1].ToB
			}
		}
		merged.ToB += delta

		next := make([]ChangedRange, 0, len(set)-(j-i)+1)
		next = append(next, set[:i]...)
		next = append(next, merged)
		for _, r := range set[j:] {
			r.FromB += delta
			r.ToB += delta
			next = append(next, r)
		}
		set = next
	}
	return set
}

func rangeDelta(r ChangedRange) int {
	return (r.ToB - r.FromB) - (r.ToA - r.FromA)
}

type changeJSON struct {
	From int      `json:"from"`
	To   int      `json:"to"`
	Text []string `json:"text"`
}

type changeSetJSON struct {
	Changes []changeJSON `json:"changes"`
	Mirror  []int        `json:"mirror,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (cs ChangeSet) MarshalJSON() ([]byte, error) {
	out := changeSetJSON{Changes: make([]changeJSON, len(cs.Changes)), Mirror: cs.Mirror}
	for i, c := range cs.Changes {
		out.Changes[i] = changeJSON(c)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (cs *ChangeSet) UnmarshalJSON(data []byte) error {
	var in changeSetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: change set: %v", ErrInvalidJSON, err)
	}
	if len(in.Mirror)%2 != 0 {
		return fmt.Errorf("%w: odd mirror list", ErrInvalidJSON)
	}
	out := ChangeSet{Mirror: in.Mirror}
	for _, c := range in.Changes {
		if c.From < 0 || c.To < c.From {
			return fmt.Errorf("%w: change %d-%d", ErrInvalidJSON, c.From, c.To)
		}
		out.Changes = append(out.Changes, NewChange(c.From, c.To, c.Text))
	}
	*cs = out
	return nil
}
