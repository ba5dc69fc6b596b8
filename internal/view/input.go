package view

import "time"

// KeyBackspace is the key code reported for Backspace.
const KeyBackspace = 8

// DefaultBackspaceWindow is how long after a Backspace key press an
// ambiguous deletion is attributed to it.
const DefaultBackspaceWindow = 100 * time.Millisecond

// InputState records recent input events that the reconciler consults.
type InputState struct {
	LastKeyCode int
	LastKeyTime time.Time
}

// RecordKey notes a key press.
func (s *InputState) RecordKey(code int, at time.Time) {
	s.LastKeyCode = code
	s.LastKeyTime = at
}

// recentBackspace reports whether Backspace was pressed within window
// before now.
func (s *InputState) recentBackspace(now time.Time, window time.Duration) bool {
	return s.LastKeyCode == KeyBackspace && now.Sub(s.LastKeyTime) < window
}
