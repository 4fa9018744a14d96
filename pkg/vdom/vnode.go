package vdom

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement VKind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	default:
		return "Unknown"
	}
}

// VNode is an immutable snapshot node.
//
// Text nodes carry only Text. Element nodes carry Tag, Attrs, Children and
// optionally Events. Children order is rendering order.
type VNode struct {
	Kind     VKind             // Node type
	Tag      string            // Element tag name (e.g., "div")
	Attrs    map[string]string // Element attributes
	Children []*VNode          // Child nodes
	Text     string            // For KindText
	Events   map[string]Handler
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value string
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// Invariant violations reported by Validate.
var (
	ErrTextHasChildren   = errors.New("vdom: text node has children")
	ErrTextHasAttributes = errors.New("vdom: text node has attributes")
	ErrTextHasEvents     = errors.New("vdom: text node has event handlers")
	ErrEmptyTag          = errors.New("vdom: element has empty tag")
	ErrNilNode           = errors.New("vdom: nil node")
	ErrUnknownKind       = errors.New("vdom: unknown node kind")
)

// Validate checks that every node in the tree satisfies the Text/Element
// invariants. The error names the preorder index of the offending node.
func Validate(node *VNode) error {
	if node == nil {
		return ErrNilNode
	}
	var err error
	Walk(node, func(idx int, n *VNode) bool {
		switch n.Kind {
		case KindText:
			switch {
			case len(n.Children) > 0:
				err = ErrTextHasChildren
			case len(n.Attrs) > 0:
				err = ErrTextHasAttributes
			case len(n.Events) > 0:
				err = ErrTextHasEvents
			}
		case KindElement:
			if n.Tag == "" {
				err = ErrEmptyTag
			}
			for _, child := range n.Children {
				if child == nil {
					err = ErrNilNode
				}
			}
		default:
			err = ErrUnknownKind
		}
		if err != nil {
			err = fmt.Errorf("node %d: %w", idx, err)
			return false
		}
		return true
	})
	return err
}

// Equal reports whether a and b are structurally equal: same kind, tag,
// text, attributes and children, recursively. Event handlers are ignored.
func Equal(a, b *VNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindText {
		return a.Text == b.Text
	}
	if a.Tag != b.Tag || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for k, v := range a.Attrs {
		if bv, ok := b.Attrs[k]; !ok || bv != v {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the tree. Event handlers are shared.
func (v *VNode) Clone() *VNode {
	if v == nil {
		return nil
	}
	c := &VNode{Kind: v.Kind, Tag: v.Tag, Text: v.Text}
	if v.Attrs != nil {
		c.Attrs = make(map[string]string, len(v.Attrs))
		for k, val := range v.Attrs {
			c.Attrs[k] = val
		}
	}
	if v.Events != nil {
		c.Events = make(map[string]Handler, len(v.Events))
		for k, h := range v.Events {
			c.Events[k] = h
		}
	}
	if len(v.Children) > 0 {
		c.Children = make([]*VNode, len(v.Children))
		for i, child := range v.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// String returns a compact HTML-like rendering for debugging. Attributes
// are printed in sorted order; nothing is escaped.
func (v *VNode) String() string {
	var b strings.Builder
	v.writeTo(&b)
	return b.String()
}

func (v *VNode) writeTo(b *strings.Builder) {
	if v == nil {
		b.WriteString("<nil>")
		return
	}
	if v.Kind == KindText {
		b.WriteString(v.Text)
		return
	}
	b.WriteByte('<')
	b.WriteString(v.Tag)
	for _, k := range SortedKeys(v.Attrs) {
		fmt.Fprintf(b, " %s=%q", k, v.Attrs[k])
	}
	b.WriteByte('>')
	for _, child := range v.Children {
		child.writeTo(b)
	}
	b.WriteString("</")
	b.WriteString(v.Tag)
	b.WriteByte('>')
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
