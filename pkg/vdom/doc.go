// Package vdom provides the snapshot tree, differ and patch applier for vpatch.
//
// A snapshot is an immutable VNode tree describing the UI at one point in
// time. Diff walks two snapshots in lockstep and produces an ordered edit
// script; Apply replays that script against a live tree owned by a render
// target so that the live tree comes to represent the newer snapshot
// without rebuilding unaffected nodes.
//
// # Core Types
//
// VNode is a closed two-variant node: KindElement (tag, attributes,
// children) or KindText (text content). Attr and EventHandler are used to
// build elements.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    P(Text("Content")),
//	)
//
// # Addressing
//
// Patches address nodes by preorder index in the old snapshot: the root is
// 0, a parent is numbered before its children, and siblings left to right.
//
//	      0
//	    /   \
//	   1     4
//	  / \    |
//	 2   3   5
//
// There are no persistent node identities. The applier reconstructs the
// same numbering over the live tree before mutating it.
//
// # Diffing
//
// Children are matched by position only. Growing a child list emits
// AppendChildren, shrinking it emits TruncateChildren, and a tag or kind
// mismatch emits Replace for the whole subtree.
package vdom
