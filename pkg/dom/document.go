package dom

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Op names a primitive mutation, for fault injection.
type Op string

const (
	OpCreate          Op = "create"
	OpSetAttribute    Op = "set-attribute"
	OpRemoveAttribute Op = "remove-attribute"
	OpSetText         Op = "set-text"
	OpAppendChild     Op = "append-child"
	OpReplaceChild    Op = "replace-child"
	OpTruncate        Op = "truncate"
)

// Errors reported by Document primitives.
var (
	ErrNotElement   = errors.New("dom: node is not an element")
	ErrNotText      = errors.New("dom: node is not a text node")
	ErrOutOfRange   = errors.New("dom: child position out of range")
	ErrHasParent    = errors.New("dom: node is already attached")
	ErrInvalidVNode = errors.New("dom: invalid snapshot node")
)

// Document creates and mutates live nodes and owns their listeners.
//
// A Document is not safe for concurrent use; one render cycle owns it at
// a time.
type Document struct {
	listeners map[*Node]map[string]vdom.Handler

	// Fail, if set, is consulted before every primitive. A non-nil return
	// aborts the primitive with that error.
	Fail func(op Op, n *Node) error
}

var (
	_ vdom.Target[*Node]   = (*Document)(nil)
	_ vdom.Releaser[*Node] = (*Document)(nil)
)

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{listeners: make(map[*Node]map[string]vdom.Handler)}
}

func (d *Document) check(op Op, n *Node) error {
	if d.Fail == nil {
		return nil
	}
	if err := d.Fail(op, n); err != nil {
		return errors.Wrapf(err, "dom: %s", op)
	}
	return nil
}

// Create materializes a detached live subtree from a snapshot and binds
// its listeners.
func (d *Document) Create(v *vdom.VNode) (*Node, error) {
	if err := d.check(OpCreate, nil); err != nil {
		return nil, err
	}
	return d.create(v)
}

func (d *Document) create(v *vdom.VNode) (*Node, error) {
	if v == nil {
		return nil, errors.Wrap(ErrInvalidVNode, "nil node")
	}
	switch v.Kind {
	case vdom.KindText:
		return &Node{kind: vdom.KindText, text: v.Text}, nil
	case vdom.KindElement:
	default:
		return nil, errors.Wrapf(ErrInvalidVNode, "kind %s", v.Kind)
	}

	n := &Node{kind: vdom.KindElement, tag: v.Tag}
	if len(v.Attrs) > 0 {
		n.attrs = make(map[string]string, len(v.Attrs))
		for k, val := range v.Attrs {
			n.attrs[k] = val
		}
	}
	for _, cv := range v.Children {
		c, err := d.create(cv)
		if err != nil {
			return nil, err
		}
		c.parent = n
		n.children = append(n.children, c)
	}
	if len(v.Events) > 0 {
		bound := make(map[string]vdom.Handler, len(v.Events))
		for name, h := range v.Events {
			bound[name] = h
		}
		d.listeners[n] = bound
	}
	return n, nil
}

// Children returns the live children of parent in order.
func (d *Document) Children(parent *Node) []*Node {
	if parent == nil {
		return nil
	}
	return parent.children
}

// SetAttribute sets or overwrites an attribute.
func (d *Document) SetAttribute(n *Node, key, value string) error {
	if err := d.check(OpSetAttribute, n); err != nil {
		return err
	}
	if n.kind != vdom.KindElement {
		return ErrNotElement
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
	return nil
}

// RemoveAttribute removes an attribute if present.
func (d *Document) RemoveAttribute(n *Node, key string) error {
	if err := d.check(OpRemoveAttribute, n); err != nil {
		return err
	}
	if n.kind != vdom.KindElement {
		return ErrNotElement
	}
	delete(n.attrs, key)
	return nil
}

// SetText sets the content of a text node.
func (d *Document) SetText(n *Node, text string) error {
	if err := d.check(OpSetText, n); err != nil {
		return err
	}
	if n.kind != vdom.KindText {
		return ErrNotText
	}
	n.text = text
	return nil
}

// AppendChild attaches a detached child after the last child of parent.
func (d *Document) AppendChild(parent, child *Node) error {
	if err := d.check(OpAppendChild, parent); err != nil {
		return err
	}
	if parent.kind != vdom.KindElement {
		return ErrNotElement
	}
	if child.parent != nil {
		return ErrHasParent
	}
	child.parent = parent
	parent.children = append(parent.children, child)
	return nil
}

// ReplaceChild substitutes child for the child at pos and releases the old
// subtree's listeners.
func (d *Document) ReplaceChild(parent *Node, pos int, child *Node) error {
	if err := d.check(OpReplaceChild, parent); err != nil {
		return err
	}
	if parent.kind != vdom.KindElement {
		return ErrNotElement
	}
	if pos < 0 || pos >= len(parent.children) {
		return errors.Wrapf(ErrOutOfRange, "position %d of %d", pos, len(parent.children))
	}
	if child.parent != nil {
		return ErrHasParent
	}
	old := parent.children[pos]
	old.parent = nil
	d.Release(old)
	child.parent = parent
	parent.children[pos] = child
	return nil
}

// TruncateChildren removes every child at position >= keep and releases
// their listeners. Keeping more children than exist is a no-op.
func (d *Document) TruncateChildren(parent *Node, keep int) error {
	if err := d.check(OpTruncate, parent); err != nil {
		return err
	}
	if parent.kind != vdom.KindElement {
		return ErrNotElement
	}
	if keep < 0 {
		return errors.Wrapf(ErrOutOfRange, "keep %d", keep)
	}
	if keep >= len(parent.children) {
		return nil
	}
	for _, c := range parent.children[keep:] {
		c.parent = nil
		d.Release(c)
	}
	clear(parent.children[keep:])
	parent.children = parent.children[:keep]
	return nil
}

// Release drops the listeners of n and all its descendants.
func (d *Document) Release(n *Node) {
	n.walk(func(c *Node) {
		delete(d.listeners, c)
	})
}

// Dispatch invokes the listener for event on n. It reports whether a
// listener was bound.
func (d *Document) Dispatch(n *Node, event string) bool {
	h, ok := d.listeners[n][event]
	if !ok {
		return false
	}
	h()
	return true
}

// ListenerCount returns the number of nodes with at least one listener.
func (d *Document) ListenerCount() int {
	return len(d.listeners)
}

// String describes the document for debugging.
func (d *Document) String() string {
	return fmt.Sprintf("Document{listeners: %d}", len(d.listeners))
}
