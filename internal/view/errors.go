package view

import "errors"

// Errors returned by the view.
var (
	// ErrNotInDocument indicates a DOM point outside the content element.
	ErrNotInDocument = errors.New("DOM position outside of the document")

	// ErrStaleTransaction indicates a transaction started from a state the
	// view no longer shows.
	ErrStaleTransaction = errors.New("transaction does not start from the view's current state")
)
