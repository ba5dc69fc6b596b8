package state

import (
	"sync/atomic"
	"time"
)

var nextAnnotationID atomic.Int64

// AnnotationType tags annotation values of type T.
type AnnotationType[T any] struct {
	id   int64
	name string
}

// DefineAnnotation creates a new annotation type. Each call yields a distinct
// type, even for equal names.
func DefineAnnotation[T any](name string) *AnnotationType[T] {
	return &AnnotationType[T]{id: nextAnnotationID.Add(1), name: name}
}

// Name returns the name given at definition.
func (t *AnnotationType[T]) Name() string {
	return t.name
}

// Of creates an annotation carrying value.
func (t *AnnotationType[T]) Of(value T) Annotation {
	return Annotation{typeID: t.id, value: value}
}

// Annotation is a tagged value attached to a transaction.
type Annotation struct {
	typeID int64
	value  any
}

// Built-in annotation types.
var (
	// TimeAnnotation records when a transaction was created.
	TimeAnnotation = DefineAnnotation[time.Time]("time")

	// UserEventAnnotation names the kind of user action behind a transaction,
	// such as "input", "dom" or "script".
	UserEventAnnotation = DefineAnnotation[string]("userEvent")
)

// annotationLog is an append-only list of annotations.
type annotationLog []Annotation

// last returns the most recently added value of type id.
func (l annotationLog) last(id int64) (any, bool) {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].typeID == id {
			return l[i].value, true
		}
	}
	return nil, false
}

// all returns every value of type id in the order added.
func (l annotationLog) all(id int64) []any {
	var out []any
	for _, a := range l {
		if a.typeID == id {
			out = append(out, a.value)
		}
	}
	return out
}

// AnnotationValue returns the most recent value of typ on tr.
func AnnotationValue[T any](tr *Transaction, typ *AnnotationType[T]) (T, bool) {
	v, ok := tr.annotations.last(typ.id)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// AnnotationValues returns every value of typ on tr, in the order added.
func AnnotationValues[T any](tr *Transaction, typ *AnnotationType[T]) []T {
	raw := tr.annotations.all(typ.id)
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = v.(T)
	}
	return out
}
