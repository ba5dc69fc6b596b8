package text

import "errors"

// Errors returned by document operations.
var (
	// ErrEmptyLines indicates a document was built from zero lines.
	ErrEmptyLines = errors.New("a document must have at least one line")

	// ErrOutOfRange indicates a position outside the document.
	ErrOutOfRange = errors.New("position out of range")
)
