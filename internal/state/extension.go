package state

import (
	"fmt"
	"sync/atomic"
)

var nextExtensionID atomic.Int64

// Extension is a piece of editor configuration: a state field, a behavior
// value, a group of extensions or a named slot. Extensions are resolved into
// a Configuration when a state is created or reconfigured.
type Extension interface {
	resolve(r *resolver) error
}

type resolver struct {
	cfg *Configuration
}

// fieldSpec is the untyped view of a Field used by the configuration.
type fieldSpec interface {
	fieldID() int64
	fieldName() string
	initAny(s *EditorState) any
	updateAny(tr *Transaction, value any, s *EditorState) any
}

// FieldSpec describes how a state field is created and updated.
type FieldSpec[T any] struct {
	// Name is used in error messages.
	Name string

	// Init computes the value for a state that did not have the field.
	Init func(s *EditorState) T

	// Update computes the new value from the previous one. When nil, the
	// value is carried over unchanged.
	Update func(tr *Transaction, value T, s *EditorState) T
}

// Field is a typed handle to a per-state value. The handle is also the
// extension that declares the field.
type Field[T any] struct {
	id   int64
	spec FieldSpec[T]
}

// DefineField creates a new state field.
func DefineField[T any](spec FieldSpec[T]) *Field[T] {
	if spec.Name == "" {
		spec.Name = "field"
	}
	return &Field[T]{id: nextExtensionID.Add(1), spec: spec}
}

func (f *Field[T]) fieldID() int64    { return f.id }
func (f *Field[T]) fieldName() string { return f.spec.Name }

func (f *Field[T]) initAny(s *EditorState) any {
	return f.spec.Init(s)
}

func (f *Field[T]) updateAny(tr *Transaction, value any, s *EditorState) any {
	if f.spec.Update == nil {
		return value
	}
	return f.spec.Update(tr, value.(T), s)
}

func (f *Field[T]) resolve(r *resolver) error {
	if _, ok := r.cfg.index[f.id]; ok {
		return nil
	}
	r.cfg.index[f.id] = len(r.cfg.fields)
	r.cfg.fields = append(r.cfg.fields, f)
	return nil
}

// Behavior is a kind of configurable behavior whose values are supplied by
// extensions. Values are kept in declaration order.
type Behavior[T any] struct {
	id   int64
	name string
}

// DefineBehavior creates a new behavior kind.
func DefineBehavior[T any](name string) *Behavior[T] {
	return &Behavior[T]{id: nextExtensionID.Add(1), name: name}
}

// Of returns an extension supplying a static value for the behavior.
func (b *Behavior[T]) Of(value T) Extension {
	return behaviorValue{behavior: b.id, value: value}
}

// Compute returns an extension supplying a value derived from the state.
func (b *Behavior[T]) Compute(f func(s *EditorState) T) Extension {
	return behaviorValue{behavior: b.id, compute: func(s *EditorState) any { return f(s) }}
}

// Values returns the behavior's values under cfg. Computed values are only
// included when s is non-nil.
func (b *Behavior[T]) Values(cfg *Configuration, s *EditorState) []T {
	if cfg == nil {
		return nil
	}
	var out []T
	for _, v := range cfg.behaviors[b.id] {
		switch {
		case v.compute != nil && s != nil:
			out = append(out, v.compute(s).(T))
		case v.compute == nil:
			out = append(out, v.value.(T))
		}
	}
	return out
}

// Last returns the last value supplied for the behavior, or def.
func (b *Behavior[T]) Last(cfg *Configuration, s *EditorState, def T) T {
	vals := b.Values(cfg, s)
	if len(vals) == 0 {
		return def
	}
	return vals[len(vals)-1]
}

// BehaviorValues returns the values of b under cfg. It is equivalent to
// b.Values(cfg, s).
func BehaviorValues[T any](cfg *Configuration, b *Behavior[T], s *EditorState) []T {
	return b.Values(cfg, s)
}

type behaviorValue struct {
	behavior int64
	value    any
	compute  func(s *EditorState) any
}

func (v behaviorValue) resolve(r *resolver) error {
	r.cfg.behaviors[v.behavior] = append(r.cfg.behaviors[v.behavior], v)
	return nil
}

type group []Extension

// Extensions groups several extensions into one.
func Extensions(exts ...Extension) Extension {
	return group(exts)
}

func (g group) resolve(r *resolver) error {
	for _, e := range g {
		if e == nil {
			continue
		}
		if err := e.resolve(r); err != nil {
			return err
		}
	}
	return nil
}

type slot struct {
	name string
	ext  Extension
}

// Slot wraps ext in a named slot whose content can later be swapped with
// Configuration.ReplaceExtensions or Transaction.ReplaceExtensions.
func Slot(name string, ext Extension) Extension {
	return slot{name: name, ext: ext}
}

func (s slot) resolve(r *resolver) error {
	if _, dup := r.cfg.slots[s.name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateSlot, s.name)
	}
	r.cfg.slots[s.name] = struct{}{}
	if s.ext == nil {
		return nil
	}
	return s.ext.resolve(r)
}

// Replacement swaps the content of the named slot.
type Replacement struct {
	Slot string
	With Extension
}

// Built-in behaviors.
var (
	// AllowMultipleSelections enables selections with more than one range.
	AllowMultipleSelections = DefineBehavior[bool]("allowMultipleSelections")

	// LineSeparator sets the string documents are split on. An empty value
	// splits on "\r\n", "\r" and "\n".
	LineSeparator = DefineBehavior[string]("lineSeparator")
)

// Configuration is the resolved form of a list of extensions. Each field is
// assigned a dense index into the per-state value array.
type Configuration struct {
	source    []Extension
	fields    []fieldSpec
	index     map[int64]int
	behaviors map[int64][]behaviorValue
	slots     map[string]struct{}
}

// ResolveConfiguration resolves extensions into a configuration.
func ResolveConfiguration(exts []Extension) (*Configuration, error) {
	cfg := &Configuration{
		source:    exts,
		index:     make(map[int64]int),
		behaviors: make(map[int64][]behaviorValue),
		slots:     make(map[string]struct{}),
	}
	if err := group(exts).resolve(&resolver{cfg: cfg}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FieldCount returns the number of declared fields.
func (c *Configuration) FieldCount() int {
	return len(c.fields)
}

// hasField returns the dense index of the field with the given id.
func (c *Configuration) hasField(id int64) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// ReplaceExtensions returns a configuration with the content of the named
// slots replaced.
func (c *Configuration) ReplaceExtensions(repl []Replacement) (*Configuration, error) {
	byName := make(map[string]Extension, len(repl))
	for _, r := range repl {
		if _, ok := c.slots[r.Slot]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, r.Slot)
		}
		byName[r.Slot] = r.With
	}
	source := make([]Extension, len(c.source))
	for i, e := range c.source {
		source[i] = replaceInSlots(e, byName)
	}
	return ResolveConfiguration(source)
}

func replaceInSlots(e Extension, repl map[string]Extension) Extension {
	switch v := e.(type) {
	case slot:
		if with, ok := repl[v.name]; ok {
			return slot{name: v.name, ext: with}
		}
		return slot{name: v.name, ext: replaceInSlots(v.ext, repl)}
	case group:
		out := make(group, len(v))
		for i, sub := range v {
			out[i] = replaceInSlots(sub, repl)
		}
		return out
	default:
		return e
	}
}
