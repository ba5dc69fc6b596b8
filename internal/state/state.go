package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/quill/internal/text"
)

// StateConfig holds the inputs for CreateState.
type StateConfig struct {
	// Doc is the initial document text. Ignored when DocValue is set.
	Doc string

	// DocValue is an already built document.
	DocValue *text.Document

	// Selection is the initial selection. Defaults to a cursor at 0.
	Selection *EditorSelection

	// Extensions configure fields and behaviors.
	Extensions []Extension
}

type fieldSlot struct {
	value any
	set   bool
}

// EditorState is an immutable snapshot of the editor: configuration, field
// values, document and selection. New states are derived through
// transactions; an existing state is never modified.
type EditorState struct {
	config    *Configuration
	values    []fieldSlot
	doc       *text.Document
	selection EditorSelection
}

func newState(cfg *Configuration, doc *text.Document, sel EditorSelection) (*EditorState, error) {
	for _, r := range sel.ranges {
		if r.From() < 0 || r.To() > doc.Len() {
			return nil, fmt.Errorf("%w: selection %v points outside document of length %d", ErrInvalidRange, r, doc.Len())
		}
	}
	return &EditorState{
		config:    cfg,
		values:    make([]fieldSlot, len(cfg.fields)),
		doc:       doc,
		selection: sel,
	}, nil
}

// CreateState creates a new state from a configuration.
func CreateState(cfg StateConfig) (*EditorState, error) {
	conf, err := ResolveConfiguration(cfg.Extensions)
	if err != nil {
		return nil, err
	}
	doc := cfg.DocValue
	if doc == nil {
		doc = text.FromString(cfg.Doc, LineSeparator.Last(conf, nil, ""))
	}
	sel := Cursor(0)
	if cfg.Selection != nil && cfg.Selection.Len() > 0 {
		sel = *cfg.Selection
	}
	if !AllowMultipleSelections.Last(conf, nil, false) {
		sel = sel.AsSingle()
	}

	s, err := newState(conf, doc, sel)
	if err != nil {
		return nil, err
	}
	for i, f := range conf.fields {
		if s.values[i].set {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, f.fieldName())
		}
		s.values[i] = fieldSlot{value: f.initAny(s), set: true}
	}
	return s, nil
}

// Doc returns the document.
func (s *EditorState) Doc() *text.Document {
	return s.doc
}

// Selection returns the selection.
func (s *EditorState) Selection() EditorSelection {
	return s.selection
}

// Config returns the resolved configuration.
func (s *EditorState) Config() *Configuration {
	return s.config
}

// MultipleSelections reports whether the configuration allows selections
// with several ranges.
func (s *EditorState) MultipleSelections() bool {
	return AllowMultipleSelections.Last(s.config, s, false)
}

// LineSeparator returns the configured line separator, or "" for the
// default policy.
func (s *EditorState) LineSeparator() string {
	return LineSeparator.Last(s.config, s, "")
}

// SplitLines splits str using the state's line separator policy.
func (s *EditorState) SplitLines(str string) []string {
	return text.SplitLines(str, s.LineSeparator())
}

// JoinLines joins lines with the state's line separator, "\n" by default.
func (s *EditorState) JoinLines(lines []string) string {
	sep := s.LineSeparator()
	if sep == "" {
		sep = "\n"
	}
	return strings.Join(lines, sep)
}

// T starts a transaction stamped with the current time.
func (s *EditorState) T() *Transaction {
	return newTransaction(s, time.Now())
}

// TAt starts a transaction stamped with the given time.
func (s *EditorState) TAt(at time.Time) *Transaction {
	return newTransaction(s, at)
}

// ApplyTransaction returns the state produced by tr, which must have been
// started from s. It is equivalent to tr.Apply.
func (s *EditorState) ApplyTransaction(tr *Transaction) (*EditorState, error) {
	if tr.startState != s {
		return nil, ErrForeignTransaction
	}
	return tr.Apply()
}

// derive computes the state following tr. Fields present under the previous
// configuration are updated; fields new to the configuration are initialized.
func (s *EditorState) derive(tr *Transaction) (*EditorState, error) {
	conf := tr.Configuration()
	sel := tr.Selection()
	if !AllowMultipleSelections.Last(conf, nil, false) {
		sel = sel.AsSingle()
	}
	next, err := newState(conf, tr.Doc(), sel)
	if err != nil {
		return nil, err
	}
	for i, f := range conf.fields {
		if old, ok := s.config.hasField(f.fieldID()); ok && s.values[old].set {
			next.values[i] = fieldSlot{value: f.updateAny(tr, s.values[old].value, next), set: true}
		} else {
			next.values[i] = fieldSlot{value: f.initAny(next), set: true}
		}
	}
	return next, nil
}

// FieldValue returns the value of f in s. It fails with ErrFieldMissing when
// f is not part of the state's configuration.
func FieldValue[T any](s *EditorState, f *Field[T]) (T, error) {
	v, ok, err := LookupField(s, f)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrFieldMissing, f.spec.Name)
	}
	return v, nil
}

// LookupField returns the value of f in s, with ok=false when the field is
// not part of the configuration. A declared field that has not been
// initialized yet always fails with ErrFieldUninitialized.
func LookupField[T any](s *EditorState, f *Field[T]) (T, bool, error) {
	var zero T
	i, ok := s.config.hasField(f.id)
	if !ok {
		return zero, false, nil
	}
	if !s.values[i].set {
		return zero, false, fmt.Errorf("%w: %s", ErrFieldUninitialized, f.spec.Name)
	}
	return s.values[i].value.(T), true, nil
}

type stateJSON struct {
	Doc       *string          `json:"doc"`
	Selection *EditorSelection `json:"selection"`
}

// MarshalJSON serializes the document and selection. Field values are not
// serialized.
func (s *EditorState) MarshalJSON() ([]byte, error) {
	doc := s.JoinLines(s.doc.Lines())
	sel := s.selection
	return json.Marshal(stateJSON{Doc: &doc, Selection: &sel})
}

// StateFromJSON restores a state serialized with MarshalJSON, configured
// with exts.
func StateFromJSON(data []byte, exts ...Extension) (*EditorState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	var doc string
	docRaw, ok := raw["doc"]
	if !ok {
		return nil, fmt.Errorf("%w: missing doc", ErrInvalidJSON)
	}
	if err := json.Unmarshal(docRaw, &doc); err != nil {
		return nil, fmt.Errorf("%w: doc must be a string", ErrInvalidJSON)
	}
	cfg := StateConfig{Doc: doc, Extensions: exts}
	if selRaw, ok := raw["selection"]; ok && string(selRaw) != "null" {
		var sel EditorSelection
		if err := json.Unmarshal(selRaw, &sel); err != nil {
			return nil, err
		}
		cfg.Selection = &sel
	}
	return CreateState(cfg)
}
