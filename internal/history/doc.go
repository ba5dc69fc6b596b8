// Package history provides undo and redo for an editor.
//
// A History records the document changes of dispatched transactions. Each
// entry keeps the forward changes, their inverse, and the selections before
// and after:
//
//	h := history.New(history.WithMaxEntries(500))
//	v := view.NewEditorView(s, view.WithDispatch(func(v *view.EditorView, tr *state.Transaction) error {
//	    if err := v.Update(tr); err != nil {
//	        return err
//	    }
//	    h.Record(tr)
//	    return nil
//	}))
//
//	tr, err := h.Undo(v.State())
//	if err == nil {
//	    err = v.Dispatch(tr)
//	}
//
// # Grouping
//
// Consecutive transactions with the same user event that arrive within the
// group delay of each other form one entry, so a run of typed characters
// undoes together. BeginGroup and EndGroup force grouping regardless of
// timing.
//
// Transactions annotated with AddToHistory.Of(false) are not recorded. Since
// the recorded changes no longer apply to the document they produce, such a
// transaction clears both stacks.
package history
