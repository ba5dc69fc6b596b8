package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/dshills/quill/internal/logging"
	"github.com/dshills/quill/internal/state"
	"github.com/dshills/quill/internal/view/dom"
)

func newTestView(t *testing.T, doc string, opts ...Option) *EditorView {
	t.Helper()
	s, err := state.CreateState(state.StateConfig{Doc: doc})
	if err != nil {
		t.Fatalf("CreateState: %v", err)
	}
	return NewEditorView(s, opts...)
}

// renderedLines returns the text content of each line element.
func renderedLines(v *EditorView) []string {
	var out []string
	for c := v.ContentDOM().FirstChild; c != nil; c = c.NextSibling {
		out = append(out, dom.TextContent(c))
	}
	return out
}

func docText(v *EditorView) string {
	return v.State().Doc().String()
}

func line(v *EditorView, i int) *html.Node {
	return dom.ChildAt(v.ContentDOM(), i)
}

func lineText(v *EditorView, i int) *html.Node {
	return line(v, i).FirstChild
}

func mustDispatch(t *testing.T, v *EditorView, tr *state.Transaction) {
	t.Helper()
	if err := v.Dispatch(tr); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
}

func TestNewEditorViewRendersLines(t *testing.T) {
	v := newTestView(t, "foo\n\nbar")

	if diff := cmp.Diff([]string{"foo", "", "bar"}, renderedLines(v)); diff != "" {
		t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
	}
	if n := dom.ChildCount(line(v, 1)); n != 0 {
		t.Errorf("empty line has %d children, want 0", n)
	}
	if v.DocView().Dirty() != DirtyNot {
		t.Errorf("doc view dirty = %v after construction", v.DocView().Dirty())
	}
	if v.Tree().Observer().Pending() {
		t.Error("construction left pending mutation records")
	}
	if v.ID().String() == "" {
		t.Error("view has no id")
	}
}

func TestFlushTextEdit(t *testing.T) {
	v := newTestView(t, "foo\nbar")
	textNode := lineText(v, 0)

	v.Tree().SetText(textNode, "froo")
	if !v.Flush() {
		t.Fatal("Flush reported no change")
	}

	if got := docText(v); got != "froo\nbar" {
		t.Errorf("doc = %q, want %q", got, "froo\nbar")
	}
	if lineText(v, 0) != textNode {
		t.Error("text node was replaced instead of reused")
	}
	if v.Tree().Observer().Pending() {
		t.Error("sync after flush left pending records")
	}
}

func TestFlushRecordsSmallestChange(t *testing.T) {
	var trs []*state.Transaction
	v := newTestView(t, "foo\nbar", WithDispatch(func(v *EditorView, tr *state.Transaction) error {
		trs = append(trs, tr)
		return v.Update(tr)
	}))

	v.Tree().SetText(lineText(v, 0), "froo")
	v.Flush()

	if len(trs) != 1 {
		t.Fatalf("dispatched %d transactions, want 1", len(trs))
	}
	tr := trs[0]
	want := []state.Change{state.NewChange(1, 1, []string{"r"})}
	if diff := cmp.Diff(want, tr.Changes().Changes); diff != "" {
		t.Errorf("changes mismatch (-want +got):\n%s", diff)
	}
	if ev, _ := state.AnnotationValue(tr, state.UserEventAnnotation); ev != "dom" {
		t.Errorf("userEvent = %q, want %q", ev, "dom")
	}
	if !tr.ScrolledIntoView() {
		t.Error("reconciled transaction does not scroll into view")
	}
}

func TestFlushRemovedLines(t *testing.T) {
	v := newTestView(t, "1\n2\n3\n4\n5\n6")
	root := v.ContentDOM()

	for i := 0; i < 4; i++ {
		v.Tree().RemoveChild(root, line(v, 1))
	}
	v.Flush()

	if got := docText(v); got != "1\n6" {
		t.Errorf("doc = %q, want %q", got, "1\n6")
	}
	if diff := cmp.Diff([]string{"1", "6"}, renderedLines(v)); diff != "" {
		t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
	}
	if n := len(v.DocView().Lines()); n != 2 {
		t.Errorf("line views = %d, want 2", n)
	}
}

func TestFlushCollapsedContent(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *EditorView)
		want   string
		change state.Change
	}{
		{
			name: "keep prefix",
			mutate: func(v *EditorView) {
				v.Tree().SetText(lineText(v, 0), "f")
				v.Tree().RemoveChild(v.ContentDOM(), line(v, 1))
			},
			want:   "f",
			change: state.NewChange(1, 7, nil),
		},
		{
			name: "keep suffix",
			mutate: func(v *EditorView) {
				v.Tree().RemoveChild(v.ContentDOM(), line(v, 0))
				v.Tree().SetText(lineText(v, 0), "r")
			},
			want:   "r",
			change: state.NewChange(0, 6, nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trs []*state.Transaction
			v := newTestView(t, "foo\nbar", WithDispatch(func(v *EditorView, tr *state.Transaction) error {
				trs = append(trs, tr)
				return v.Update(tr)
			}))
			mustDispatch(t, v, v.State().T().SetSelection(state.SingleSelection(0, 7)))
			trs = nil

			tt.mutate(v)
			v.Flush()

			if got := docText(v); got != tt.want {
				t.Errorf("doc = %q, want %q", got, tt.want)
			}
			if len(trs) != 1 {
				t.Fatalf("dispatched %d transactions, want 1", len(trs))
			}
			if diff := cmp.Diff([]state.Change{tt.change}, trs[0].Changes().Changes); diff != "" {
				t.Errorf("changes mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{tt.want}, renderedLines(v)); diff != "" {
				t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlushBackspaceHeuristic(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		key        int
		keyAge     time.Duration
		wantChange state.Change
		wantAnchor int
	}{
		{"recent backspace", KeyBackspace, 10 * time.Millisecond, state.NewChange(1, 2, nil), 1},
		{"stale backspace", KeyBackspace, time.Second, state.NewChange(2, 3, nil), 2},
		{"other key", 65, 10 * time.Millisecond, state.NewChange(2, 3, nil), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var trs []*state.Transaction
			v := newTestView(t, "foo",
				WithClock(func() time.Time { return now }),
				WithDispatch(func(v *EditorView, tr *state.Transaction) error {
					trs = append(trs, tr)
					return v.Update(tr)
				}))
			mustDispatch(t, v, v.State().T().SetSelection(state.Cursor(2)))
			trs = nil

			v.Tree().ClearSelection()
			v.InputState().RecordKey(tt.key, now.Add(-tt.keyAge))
			v.Tree().SetText(lineText(v, 0), "fo")
			v.Flush()

			if got := docText(v); got != "fo" {
				t.Errorf("doc = %q, want %q", got, "fo")
			}
			if len(trs) != 1 {
				t.Fatalf("dispatched %d transactions, want 1", len(trs))
			}
			if diff := cmp.Diff([]state.Change{tt.wantChange}, trs[0].Changes().Changes); diff != "" {
				t.Errorf("changes mismatch (-want +got):\n%s", diff)
			}
			if got := v.State().Selection().Primary().Anchor; got != tt.wantAnchor {
				t.Errorf("anchor = %d, want %d", got, tt.wantAnchor)
			}
		})
	}
}

func TestFlushBackspaceWindowOption(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	v := newTestView(t, "foo",
		WithClock(func() time.Time { return now }),
		WithBackspaceWindow(2*time.Second))
	mustDispatch(t, v, v.State().T().SetSelection(state.Cursor(2)))

	v.Tree().ClearSelection()
	v.InputState().RecordKey(KeyBackspace, now.Add(-time.Second))
	v.Tree().SetText(lineText(v, 0), "fo")
	v.Flush()

	if got := v.State().Selection().Primary().Anchor; got != 1 {
		t.Errorf("anchor = %d, want 1", got)
	}
}

func TestSetBackspaceWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	v := newTestView(t, "foo", WithClock(func() time.Time { return now }))
	v.SetBackspaceWindow(2 * time.Second)
	v.SetBackspaceWindow(0)
	mustDispatch(t, v, v.State().T().SetSelection(state.Cursor(2)))

	v.Tree().ClearSelection()
	v.InputState().RecordKey(KeyBackspace, now.Add(-time.Second))
	v.Tree().SetText(lineText(v, 0), "fo")
	v.Flush()

	if got := v.State().Selection().Primary().Anchor; got != 1 {
		t.Errorf("anchor = %d, want 1", got)
	}
}

func TestFlushEnterWithBreaks(t *testing.T) {
	v := newTestView(t, "foo\nbar")
	div := line(v, 0)

	v.Tree().AppendChild(div, dom.CreateElement("br"))
	v.Tree().AppendChild(div, dom.CreateElement("br"))
	v.Flush()

	if got := docText(v); got != "foo\n\nbar" {
		t.Errorf("doc = %q, want %q", got, "foo\n\nbar")
	}
	if diff := cmp.Diff([]string{"foo", "", "bar"}, renderedLines(v)); diff != "" {
		t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
	}
	if line(v, 0) != div {
		t.Error("first line element was replaced")
	}
	if n := dom.ChildCount(div); n != 1 {
		t.Errorf("first line has %d children after sync, want 1", n)
	}
}

func TestFlushLargeInsertion(t *testing.T) {
	v := newTestView(t, "okay")
	proto := dom.CreateElement("div")
	proto.AppendChild(dom.CreateText("ayayayayayay"))

	var added []*html.Node
	for i := 0; i < 100; i++ {
		n := dom.CloneNode(proto, true)
		added = append(added, n)
		v.Tree().AppendChild(v.ContentDOM(), n)
	}
	v.Flush()

	want := "okay" + strings.Repeat("\nayayayayayay", 100)
	if got := docText(v); got != want {
		t.Errorf("doc length %d, want %d", len(got), len(want))
	}
	if n := dom.ChildCount(v.ContentDOM()); n != 101 {
		t.Fatalf("content has %d lines, want 101", n)
	}
	for i, n := range added {
		if line(v, i+1) != n {
			t.Fatalf("line %d was not adopted from the inserted element", i+1)
		}
		if got := v.DocView().ViewOf(n); got != v.DocView().Lines()[i+1] {
			t.Fatalf("line %d element is not owned by its line view", i+1)
		}
	}
}

func TestFlushReadsDOMSelection(t *testing.T) {
	v := newTestView(t, "foo\nbar")
	textNode := lineText(v, 0)

	v.Tree().SetText(textNode, "fooX")
	v.Tree().Collapse(textNode, 4)
	v.Flush()

	if got := docText(v); got != "fooX\nbar" {
		t.Errorf("doc = %q, want %q", got, "fooX\nbar")
	}
	if got := v.State().Selection().Primary(); !got.Eq(state.Range(4, 4)) {
		t.Errorf("selection = %v, want Cursor(4)", got)
	}
}

func TestFlushSelectionOnly(t *testing.T) {
	var trs []*state.Transaction
	v := newTestView(t, "foo\nbar", WithDispatch(func(v *EditorView, tr *state.Transaction) error {
		trs = append(trs, tr)
		return v.Update(tr)
	}))

	v.Tree().SetSelection(lineText(v, 0), 1, lineText(v, 1), 2)
	if !v.Flush() {
		t.Fatal("Flush reported no change")
	}

	if got := v.State().Selection().Primary(); !got.Eq(state.Range(1, 6)) {
		t.Errorf("selection = %v, want Range(1→6)", got)
	}
	if len(trs) != 1 || trs[0].DocChanged() {
		t.Fatalf("want one selection-only transaction, got %d", len(trs))
	}
	if ev, _ := state.AnnotationValue(trs[0], state.UserEventAnnotation); ev != "select" {
		t.Errorf("userEvent = %q, want %q", ev, "select")
	}

	if v.Flush() {
		t.Error("second Flush reported a change")
	}
}

func TestFlushWithoutChanges(t *testing.T) {
	v := newTestView(t, "foo")
	if v.Flush() {
		t.Error("Flush on an untouched view reported a change")
	}
}

func TestFlushRejectedTransactionResets(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	v := newTestView(t, "foo\nbar",
		WithLogger(log),
		WithDispatch(func(*EditorView, *state.Transaction) error {
			return errors.New("read only")
		}))

	v.Tree().SetText(lineText(v, 0), "froo")
	if v.Flush() {
		t.Error("Flush reported a change for a rejected transaction")
	}

	if got := docText(v); got != "foo\nbar" {
		t.Errorf("doc = %q, want %q", got, "foo\nbar")
	}
	if diff := cmp.Diff([]string{"foo", "bar"}, renderedLines(v)); diff != "" {
		t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(buf.String(), "[WARN]") || !strings.Contains(buf.String(), "read only") {
		t.Errorf("log does not report the rejection: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "component=view") {
		t.Errorf("log lacks the view component: %q", buf.String())
	}
}

func TestUpdateKeepsRenderedNodes(t *testing.T) {
	v := newTestView(t, "abc\ndef")
	div, textNode := line(v, 0), lineText(v, 0)

	mustDispatch(t, v, v.State().T().Replace(1, 2, "X"))

	if line(v, 0) != div || lineText(v, 0) != textNode {
		t.Error("edited line was re-created")
	}
	if diff := cmp.Diff([]string{"aXc", "def"}, renderedLines(v)); diff != "" {
		t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
	}
	if v.Tree().Observer().Pending() {
		t.Error("view update was recorded as an outside mutation")
	}
}

func TestUpdateLineStructure(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		from    int
		to      int
		insert  string
		want    []string
		regSize int
	}{
		{"split line", "abc\ndef", 2, 2, "\nnew\n", []string{"ab", "new", "c", "def"}, 9},
		{"join lines", "abc\n\ndef", 3, 4, "", []string{"abc", "def"}, 5},
		{"clear line", "abc\ndef", 0, 3, "", []string{"", "def"}, 4},
		{"replace all", "a\nb\nc", 0, 5, "x", []string{"x"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestView(t, tt.doc)
			mustDispatch(t, v, v.State().T().Replace(tt.from, tt.to, tt.insert))

			if diff := cmp.Diff(tt.want, renderedLines(v)); diff != "" {
				t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
			}
			if got := v.DocView().reg.len(); got != tt.regSize {
				t.Errorf("registry holds %d nodes, want %d", got, tt.regSize)
			}
		})
	}
}

func TestUpdateStaleTransaction(t *testing.T) {
	v := newTestView(t, "foo")
	stale := v.State().T().Replace(0, 1, "x")
	mustDispatch(t, v, v.State().T().Replace(0, 0, "y"))

	if err := v.Update(stale); !errors.Is(err, ErrStaleTransaction) {
		t.Errorf("Update(stale) = %v, want ErrStaleTransaction", err)
	}
	if got := docText(v); got != "yfoo" {
		t.Errorf("doc = %q, want %q", got, "yfoo")
	}
}

func TestUpdateWritesSelection(t *testing.T) {
	v := newTestView(t, "foo\nbar")
	mustDispatch(t, v, v.State().T().SetSelection(state.SingleSelection(1, 5)))

	sel := v.Tree().Selection()
	want := dom.Selection{
		Anchor: dom.Point{Node: lineText(v, 0), Offset: 1},
		Focus:  dom.Point{Node: lineText(v, 1), Offset: 1},
	}
	if sel != want {
		t.Errorf("DOM selection = %+v, want %+v", sel, want)
	}
}

func TestSetState(t *testing.T) {
	v := newTestView(t, "foo\nbar")
	s, err := state.CreateState(state.StateConfig{Doc: "one\ntwo\nthree"})
	if err != nil {
		t.Fatal(err)
	}
	v.SetState(s)

	if v.State() != s {
		t.Error("SetState did not replace the state")
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, renderedLines(v)); diff != "" {
		t.Errorf("rendered lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	v := newTestView(t, "foo\n\nbar\nbaz")
	obs := v.Tree().Observer()

	v.DocView().Sync()
	if obs.Pending() {
		t.Fatal("second Sync wrote to the tree")
	}

	v.DocView().MarkDirty()
	for _, l := range v.DocView().Lines() {
		l.MarkDirty()
		for _, c := range l.Children() {
			c.MarkDirty()
		}
	}
	v.DocView().Sync()
	if recs := obs.TakeRecords(); len(recs) != 0 {
		t.Errorf("Sync of an unchanged tree produced %d records", len(recs))
	}
}

func TestMarkDirtyPropagation(t *testing.T) {
	v := newTestView(t, strings.Repeat("line\n", 49)+"line")
	lines := v.DocView().Lines()
	text3 := lines[3].Children()[0].base()
	text7 := lines[7].Children()[0].base()

	// text view, its line and the doc view
	if got := text3.markDirtyCounted(); got != 3 {
		t.Errorf("first mark visited %d views, want 3", got)
	}
	if got := text3.markDirtyCounted(); got != 0 {
		t.Errorf("repeated mark visited %d views, want 0", got)
	}
	if got := text7.markDirtyCounted(); got != 3 {
		t.Errorf("sibling mark visited %d views, want 3", got)
	}
	if got := lines[3].markDirtyCounted(); got != 2 {
		t.Errorf("marking a child-dirty line visited %d views, want 2", got)
	}
	if lines[5].Dirty() != DirtyNot {
		t.Errorf("untouched line dirty = %v", lines[5].Dirty())
	}
	if v.DocView().Dirty() != DirtyChild {
		t.Errorf("doc view dirty = %v, want %v", v.DocView().Dirty(), DirtyChild)
	}
}

func TestPosFromDOM(t *testing.T) {
	v := newTestView(t, "foo\nbar\n\nbaz")
	root := v.ContentDOM()
	tests := []struct {
		name   string
		node   *html.Node
		offset int
		want   int
	}{
		{"start of text", lineText(v, 0), 0, 0},
		{"inside text", lineText(v, 1), 2, 6},
		{"empty line", line(v, 2), 0, 8},
		{"after text in line", line(v, 0), 1, 3},
		{"before second line", root, 1, 4},
		{"end of content", root, 4, 12},
		{"start of content", root, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.PosFromDOM(tt.node, tt.offset)
			if err != nil {
				t.Fatalf("PosFromDOM: %v", err)
			}
			if got != tt.want {
				t.Errorf("PosFromDOM = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := v.PosFromDOM(dom.CreateText("x"), 0); !errors.Is(err, ErrNotInDocument) {
		t.Errorf("detached node error = %v, want ErrNotInDocument", err)
	}
}

func TestDOMAtPos(t *testing.T) {
	v := newTestView(t, "foo\nbar\n\nbaz")
	tests := []struct {
		pos  int
		want dom.Point
	}{
		{0, dom.Point{Node: lineText(v, 0), Offset: 0}},
		{3, dom.Point{Node: lineText(v, 0), Offset: 3}},
		{5, dom.Point{Node: lineText(v, 1), Offset: 1}},
		{8, dom.Point{Node: line(v, 2), Offset: 0}},
		{12, dom.Point{Node: lineText(v, 3), Offset: 3}},
	}
	for _, tt := range tests {
		if got := v.DOMAtPos(tt.pos); got != tt.want {
			t.Errorf("DOMAtPos(%d) = %+v, want %+v", tt.pos, got, tt.want)
		}
		back, err := v.PosFromDOM(tt.want.Node, tt.want.Offset)
		if err != nil || back != tt.pos {
			t.Errorf("PosFromDOM(DOMAtPos(%d)) = %d, %v", tt.pos, back, err)
		}
	}
}

func TestDOMBoundsAround(t *testing.T) {
	v := newTestView(t, "foo\nbar\nbaz")
	dv := v.DocView()
	tests := []struct {
		name     string
		from, to int
		want     DOMBounds
	}{
		{"inside a line", 5, 6, DOMBounds{From: 4, To: 7, StartDOM: lineText(v, 1)}},
		{"first line", 0, 3, DOMBounds{From: 0, To: 3, StartDOM: line(v, 0), EndDOM: line(v, 1)}},
		{"middle line", 4, 7, DOMBounds{From: 4, To: 7, StartDOM: line(v, 1), EndDOM: line(v, 2)}},
		{"to the end", 9, 11, DOMBounds{From: 8, To: 11, StartDOM: line(v, 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dv.DOMBoundsAround(tt.from, tt.to, 0)
			if got == nil {
				t.Fatal("DOMBoundsAround returned nil")
			}
			if *got != tt.want {
				t.Errorf("DOMBoundsAround(%d, %d) = %+v, want %+v", tt.from, tt.to, *got, tt.want)
			}
		})
	}
}

func TestIgnoresEvent(t *testing.T) {
	v := newTestView(t, "foo")
	if v.IgnoresEvent(lineText(v, 0), "keydown") {
		t.Error("plain text view claims to handle events")
	}
	if v.IgnoresEvent(dom.CreateText("x"), "keydown") {
		t.Error("detached node claims to handle events")
	}
}

func TestDirtyString(t *testing.T) {
	for d, want := range map[Dirty]string{DirtyNot: "clean", DirtyChild: "child", DirtyNode: "node", Dirty(9): "unknown"} {
		if got := d.String(); got != want {
			t.Errorf("Dirty(%d).String() = %q, want %q", d, got, want)
		}
	}
}
