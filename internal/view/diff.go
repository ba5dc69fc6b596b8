package view

// textDiff describes the differing middle of two strings: a[From:ToA] was
// replaced by b[From:ToB].
type textDiff struct {
	From, ToA, ToB int
}

type diffSide uint8

const (
	sideStart diffSide = iota
	sideEnd
)

// findDiff returns the smallest replacement turning a into b, or nil when
// they are equal. When the replaced span is ambiguous, as when deleting one
// of two equal characters, preferredPos picks the candidate nearest to the
// selection. side tells whether preferredPos marks the end of the deleted
// text, which is the case after a backspace.
func findDiff(a, b string, preferredPos int, side diffSide) *textDiff {
	minLen := min(len(a), len(b))
	from := 0
	for from < minLen && a[from] == b[from] {
		from++
	}
	if from == minLen && len(a) == len(b) {
		return nil
	}
	toA, toB := len(a), len(b)
	for toA > 0 && toB > 0 && a[toA-1] == b[toB-1] {
		toA--
		toB--
	}

	if side == sideEnd {
		adjust := max(0, from-min(toA, toB))
		preferredPos -= toA + adjust - from
	}
	switch {
	case toA < from && len(a) < len(b):
		move := 0
		if preferredPos <= from && preferredPos >= toA {
			move = from - preferredPos
		}
		from -= move
		toB = from + (toB - toA)
		toA = from
	case toB < from:
		move := 0
		if preferredPos <= from && preferredPos >= toB {
			move = from - preferredPos
		}
		from -= move
		toA = from + (toA - toB)
		toB = from
	}
	return &textDiff{From: from, ToA: toA, ToB: toB}
}
