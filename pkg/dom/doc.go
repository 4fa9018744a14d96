// Package dom is an in-memory render target for vdom.Apply.
//
// A Document creates and mutates *Node values, keeping children in
// insertion order as the preorder addressing requires. It also owns the
// event listener registry: listeners declared on a snapshot are bound when
// the node is created and released when the node leaves the tree through a
// Replace or TruncateChildren. The diff/patch core never sees them.
//
//	doc := dom.NewDocument()
//	root, _ := doc.Create(prev)
//	root, err := vdom.Apply[*dom.Node](doc, root, vdom.Diff(prev, next))
package dom
