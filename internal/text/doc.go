// Package text provides the persistent document used by the editor state.
//
// A Document is an immutable tree of lines. Edits produce new documents that
// share every untouched subtree with their predecessor, so keeping the
// intermediate documents of a transaction around is cheap.
//
// Positions are byte offsets where every line break counts as exactly one
// position, regardless of the separator the text was split on:
//
//	doc := text.FromString("foo\nbar", "")
//	doc.Len()              // 7
//	doc.LineAt(5).Number   // 1
//	doc.SliceString(2, 5, "") // "o\nb"
//
// The package also provides SearchCursor, a lazy restartable scanner over
// substring matches.
package text
