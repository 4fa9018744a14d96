package dom

import (
	"github.com/vango-dev/vpatch/pkg/render"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Node is a live node. Element nodes have a tag, attributes and children;
// text nodes have only text.
type Node struct {
	kind     vdom.VKind
	tag      string
	attrs    map[string]string
	text     string
	children []*Node
	parent   *Node
}

// Kind returns the node type.
func (n *Node) Kind() vdom.VKind { return n.kind }

// Tag returns the element tag name, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// Text returns the text content of a text node.
func (n *Node) Text() string { return n.text }

// Parent returns the node's parent, or nil for a detached node.
func (n *Node) Parent() *Node { return n.parent }

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// ChildNodes returns the node's children in order. The slice must not be
// modified.
func (n *Node) ChildNodes() []*Node { return n.children }

// Snapshot converts the live subtree back into an immutable snapshot.
func (n *Node) Snapshot() *vdom.VNode {
	if n == nil {
		return nil
	}
	if n.kind == vdom.KindText {
		return vdom.Text(n.text)
	}
	v := &vdom.VNode{Kind: vdom.KindElement, Tag: n.tag}
	if len(n.attrs) > 0 {
		v.Attrs = make(map[string]string, len(n.attrs))
		for k, val := range n.attrs {
			v.Attrs[k] = val
		}
	}
	if len(n.children) > 0 {
		v.Children = make([]*vdom.VNode, len(n.children))
		for i, c := range n.children {
			v.Children[i] = c.Snapshot()
		}
	}
	return v
}

// OuterHTML renders the live subtree as HTML.
func (n *Node) OuterHTML() string {
	html, err := render.NewRenderer(render.RendererConfig{}).RenderToString(n.Snapshot())
	if err != nil {
		return ""
	}
	return html
}

// walk visits n and its descendants in preorder.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		c.walk(fn)
	}
}
