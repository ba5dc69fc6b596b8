// Package dom provides the mutable rendered tree the editor view draws into.
//
// The tree is made of golang.org/x/net/html nodes rooted at a content
// element. All writes go through Tree so they can be reported to an
// Observer as MutationRecords, the same way a browser reports changes to a
// contenteditable element. Node identity is the *html.Node pointer.
package dom
