// Package state implements the editor state model: immutable EditorState
// snapshots, the changes and change sets that edit them, selections, and
// the Transaction builder that derives one state from another.
//
// A typical update:
//
//	s, _ := state.CreateState(state.StateConfig{Doc: "abc"})
//	next, err := s.T().Replace(1, 2, "X").Apply()
//	// next.Doc().String() == "aXc", s is unchanged
//
// Per-state data is declared with DefineField and behaviors with
// DefineBehavior; both are Extensions resolved into a Configuration when a
// state is created or a transaction reconfigures it.
package state
