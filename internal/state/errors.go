package state

import "errors"

// Errors returned by state operations.
var (
	// ErrInvalidRange indicates a change or selection outside the document.
	ErrInvalidRange = errors.New("invalid range")

	// ErrTransactionApplied indicates a mutation of an applied transaction.
	ErrTransactionApplied = errors.New("transaction may not be modified after being applied")

	// ErrForeignTransaction indicates a transaction applied to a state it was
	// not started from.
	ErrForeignTransaction = errors.New("transaction belongs to another state")

	// ErrFieldMissing indicates a lookup of a field that is not part of the
	// state's configuration.
	ErrFieldMissing = errors.New("field is not present in this state")

	// ErrFieldUninitialized indicates a lookup of a declared field before it
	// was initialized, typically from another field's Init.
	ErrFieldUninitialized = errors.New("field is declared but not initialized")

	// ErrDuplicateField indicates a field initialized twice.
	ErrDuplicateField = errors.New("duplicate field")

	// ErrDuplicateSlot indicates two slots with the same name.
	ErrDuplicateSlot = errors.New("duplicate extension slot")

	// ErrUnknownSlot indicates a replacement for a slot that does not exist.
	ErrUnknownSlot = errors.New("unknown extension slot")

	// ErrInvalidSelection indicates a malformed selection.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrInvalidJSON indicates a malformed serialized state.
	ErrInvalidJSON = errors.New("invalid JSON representation")
)
