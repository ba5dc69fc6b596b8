// Package view keeps a rendered tree in sync with an editor state.
//
// The content-view tree (DocView, LineView, TextView) mirrors the document's
// line structure. Each view owns at most one node of the rendered tree;
// a side table maps rendered nodes back to their views. State updates mark
// views dirty and Sync writes the difference into the tree, adopting
// existing nodes where it can.
//
// The other direction is handled by the reconciler. Mutations of the tree
// made by a frontend are recorded by the tree's observer; Flush reads the
// affected range back as text, diffs it against the document and dispatches
// the smallest change that explains it.
package view
