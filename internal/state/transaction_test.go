package state

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTransactionFrozenAfterApply(t *testing.T) {
	s := newTestState(t, "abc")
	tr := s.T().Replace(0, 0, "x")
	first, err := tr.Apply()
	if err != nil {
		t.Fatal(err)
	}
	tr.Replace(0, 0, "y")
	if !errors.Is(tr.Err(), ErrTransactionApplied) {
		t.Errorf("Err() = %v, want ErrTransactionApplied", tr.Err())
	}
	second, err := tr.Apply()
	if err != nil || second != first {
		t.Errorf("second Apply = %p, %v; want %p", second, err, first)
	}
	if second.Doc().String() != "xabc" {
		t.Errorf("doc = %q", second.Doc().String())
	}
}

func TestTransactionInvalidRange(t *testing.T) {
	s := newTestState(t, "abc")
	tests := []struct {
		name     string
		from, to int
	}{
		{"negative", -1, 1},
		{"reversed", 2, 1},
		{"past end", 2, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := s.T().Replace(tt.from, tt.to, "x")
			if !errors.Is(tr.Err(), ErrInvalidRange) {
				t.Errorf("Err() = %v, want ErrInvalidRange", tr.Err())
			}
			tr.Replace(0, 0, "y")
			if tr.DocChanged() {
				t.Error("mutator ran after a recorded failure")
			}
			if _, err := tr.Apply(); !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Apply error = %v", err)
			}
		})
	}
}

func TestTransactionEmptyChange(t *testing.T) {
	s := newTestState(t, "abc")
	tr := s.T().Replace(1, 1, "")
	if tr.DocChanged() {
		t.Error("empty edit changed the document")
	}
	if tr.Err() != nil {
		t.Errorf("Err() = %v", tr.Err())
	}
}

func TestTransactionChangesMapSelection(t *testing.T) {
	sel := SingleSelection(2, 3)
	s, err := CreateState(StateConfig{Doc: "abcd", Selection: &sel})
	if err != nil {
		t.Fatal(err)
	}
	tr := s.T().Replace(0, 0, "xx")
	if got := tr.Selection().Primary(); got != Range(4, 5) {
		t.Errorf("selection = %v, want Range(4→5)", got)
	}
	if tr.SelectionSet() {
		t.Error("SelectionSet() = true without SetSelection")
	}
}

func TestReplaceSelectionMultiCursor(t *testing.T) {
	sel := mustSelection(t, []SelectionRange{Range(0, 0), Range(3, 3), Range(6, 6)}, 1)
	s, err := CreateState(StateConfig{
		Doc:        "ab cd ef",
		Selection:  &sel,
		Extensions: []Extension{AllowMultipleSelections.Of(true)},
	})
	if err != nil {
		t.Fatal(err)
	}
	next, err := s.T().ReplaceSelection("XY").Apply()
	if err != nil {
		t.Fatal(err)
	}
	if next.Doc().String() != "XYab XYcd XYef" {
		t.Errorf("doc = %q", next.Doc().String())
	}
	want := []SelectionRange{Range(2, 2), Range(7, 7), Range(12, 12)}
	if diff := cmp.Diff(want, next.Selection().Ranges()); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	if next.Selection().PrimaryIndex() != 1 {
		t.Errorf("PrimaryIndex() = %d, want 1", next.Selection().PrimaryIndex())
	}
}

func TestForEachRangeSeesMappedRanges(t *testing.T) {
	sel := mustSelection(t, []SelectionRange{Range(1, 2), Range(4, 5)}, 0)
	s, err := CreateState(StateConfig{
		Doc:        "abcdef",
		Selection:  &sel,
		Extensions: []Extension{AllowMultipleSelections.Of(true)},
	})
	if err != nil {
		t.Fatal(err)
	}
	var seen []SelectionRange
	tr := s.T().ForEachRange(func(r SelectionRange, tr *Transaction) SelectionRange {
		seen = append(seen, r)
		tr.ReplaceLines(r.From(), r.To(), nil)
		return Range(r.From(), r.From())
	})
	if tr.Err() != nil {
		t.Fatal(tr.Err())
	}
	if diff := cmp.Diff([]SelectionRange{Range(1, 2), Range(3, 4)}, seen); diff != "" {
		t.Errorf("ranges seen by callback (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]SelectionRange{Range(1, 1), Range(3, 3)}, tr.Selection().Ranges()); diff != "" {
		t.Errorf("final selection (-want +got):\n%s", diff)
	}
	if tr.Doc().String() != "acdf" {
		t.Errorf("doc = %q", tr.Doc().String())
	}
}

func TestSetSelectionCollapses(t *testing.T) {
	s := newTestState(t, "abcdef")
	sel := mustSelection(t, []SelectionRange{Range(0, 1), Range(3, 4)}, 1)
	tr := s.T().SetSelection(sel)
	if tr.Selection().Len() != 1 || tr.Selection().Primary() != Range(3, 4) {
		t.Errorf("selection = %v", tr.Selection())
	}
	if !tr.SelectionSet() {
		t.Error("SelectionSet() = false")
	}
}

func TestInvertedChanges(t *testing.T) {
	s := newTestState(t, "hello\nworld")
	tr := s.T().
		Replace(0, 5, "bye").
		Replace(4, 4, "big ").
		Change(NewChange(0, 3, nil), -1)
	tr.Change(NewChange(0, 0, []string{"bye"}), 2)

	inv := tr.InvertedChanges()
	if inv.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", inv.Len())
	}
	doc := tr.Doc()
	for _, c := range inv.Changes {
		var err error
		if doc, err = c.Apply(doc); err != nil {
			t.Fatalf("Apply inverse: %v", err)
		}
	}
	if !doc.Eq(s.Doc()) {
		t.Errorf("inverse produced %q, want %q", doc.String(), s.Doc().String())
	}
	if diff := cmp.Diff([]int{0, 1}, inv.Mirror); diff != "" {
		t.Errorf("mirror mismatch (-want +got):\n%s", diff)
	}
}

func TestInvertedChangesEmpty(t *testing.T) {
	s := newTestState(t, "abc")
	if inv := s.T().InvertedChanges(); !inv.IsEmpty() {
		t.Errorf("InvertedChanges() = %v, want empty", inv)
	}
}

func TestTransactionAnnotations(t *testing.T) {
	s := newTestState(t, "")
	tag := DefineAnnotation[int]("tag")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := s.TAt(at).Annotate(tag.Of(1), UserEventAnnotation.Of("input")).Annotate(tag.Of(2))

	if v, ok := AnnotationValue(tr, tag); !ok || v != 2 {
		t.Errorf("AnnotationValue = %d, %v; want 2", v, ok)
	}
	if diff := cmp.Diff([]int{1, 2}, AnnotationValues(tr, tag)); diff != "" {
		t.Errorf("AnnotationValues mismatch (-want +got):\n%s", diff)
	}
	if ev, _ := AnnotationValue(tr, UserEventAnnotation); ev != "input" {
		t.Errorf("user event = %q", ev)
	}
	if !tr.Time().Equal(at) {
		t.Errorf("Time() = %v, want %v", tr.Time(), at)
	}
	other := DefineAnnotation[int]("tag")
	if _, ok := AnnotationValue(tr, other); ok {
		t.Error("annotation types with equal names should be distinct")
	}
}

func TestScrollIntoViewFlag(t *testing.T) {
	s := newTestState(t, "")
	tr := s.T()
	if tr.ScrolledIntoView() {
		t.Error("flag set on a fresh transaction")
	}
	if !tr.ScrollIntoView().ScrolledIntoView() {
		t.Error("flag not set")
	}
}
