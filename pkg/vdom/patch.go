package vdom

import (
	"fmt"
	"sort"
	"strings"
)

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchAddAttributes    PatchOp = 0x01 // Set or overwrite attributes
	PatchRemoveAttributes PatchOp = 0x02 // Remove attributes
	PatchAppendChildren   PatchOp = 0x03 // Append new trailing children
	PatchTruncateChildren PatchOp = 0x04 // Drop children at position >= Len
	PatchReplace          PatchOp = 0x05 // Replace the whole subtree
	PatchChangeText       PatchOp = 0x06 // Update text content
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchAddAttributes:
		return "AddAttributes"
	case PatchRemoveAttributes:
		return "RemoveAttributes"
	case PatchAppendChildren:
		return "AppendChildren"
	case PatchTruncateChildren:
		return "TruncateChildren"
	case PatchReplace:
		return "Replace"
	case PatchChangeText:
		return "ChangeText"
	default:
		return "Unknown"
	}
}

// Patch is one mutation addressed by the preorder index of its target in
// the old snapshot. Which payload field is set depends on Op.
//
// Nodes and Node reference subtrees of the new snapshot; they are
// materialized into the live tree only when the patch is applied.
type Patch struct {
	Op    PatchOp
	Index int               // Preorder index of the target node
	Attrs map[string]string // AddAttributes
	Keys  []string          // RemoveAttributes, sorted
	Nodes []*VNode          // AppendChildren
	Len   int               // TruncateChildren: number of children kept
	Node  *VNode            // Replace
	Text  string            // ChangeText
}

// AddAttributes creates a patch that sets each attribute on the node at index.
func AddAttributes(index int, attrs map[string]string) Patch {
	return Patch{Op: PatchAddAttributes, Index: index, Attrs: attrs}
}

// RemoveAttributes creates a patch that removes the named attributes.
// The keys are sorted in place.
func RemoveAttributes(index int, keys ...string) Patch {
	sort.Strings(keys)
	return Patch{Op: PatchRemoveAttributes, Index: index, Keys: keys}
}

// AppendChildren creates a patch that appends nodes to the node at index.
func AppendChildren(index int, nodes ...*VNode) Patch {
	return Patch{Op: PatchAppendChildren, Index: index, Nodes: nodes}
}

// TruncateChildren creates a patch that keeps only the first keep children.
func TruncateChildren(index, keep int) Patch {
	return Patch{Op: PatchTruncateChildren, Index: index, Len: keep}
}

// Replace creates a patch that substitutes node for the subtree at index.
func Replace(index int, node *VNode) Patch {
	return Patch{Op: PatchReplace, Index: index, Node: node}
}

// ChangeText creates a patch that sets the text of the text node at index.
func ChangeText(index int, text string) Patch {
	return Patch{Op: PatchChangeText, Index: index, Text: text}
}

// String returns a one-line description of the patch.
func (p Patch) String() string {
	switch p.Op {
	case PatchAddAttributes:
		parts := make([]string, 0, len(p.Attrs))
		for _, k := range SortedKeys(p.Attrs) {
			parts = append(parts, fmt.Sprintf("%s=%q", k, p.Attrs[k]))
		}
		return fmt.Sprintf("AddAttributes(%d, {%s})", p.Index, strings.Join(parts, ", "))
	case PatchRemoveAttributes:
		return fmt.Sprintf("RemoveAttributes(%d, [%s])", p.Index, strings.Join(p.Keys, ", "))
	case PatchAppendChildren:
		parts := make([]string, len(p.Nodes))
		for i, n := range p.Nodes {
			parts[i] = n.String()
		}
		return fmt.Sprintf("AppendChildren(%d, [%s])", p.Index, strings.Join(parts, ", "))
	case PatchTruncateChildren:
		return fmt.Sprintf("TruncateChildren(%d, %d)", p.Index, p.Len)
	case PatchReplace:
		return fmt.Sprintf("Replace(%d, %s)", p.Index, p.Node)
	case PatchChangeText:
		return fmt.Sprintf("ChangeText(%d, %q)", p.Index, p.Text)
	default:
		return fmt.Sprintf("Unknown(%d)", p.Index)
	}
}

// Indices returns the distinct target indices of patches in ascending order.
func Indices(patches []Patch) []int {
	seen := make(map[int]struct{}, len(patches))
	out := make([]int, 0, len(patches))
	for _, p := range patches {
		if _, ok := seen[p.Index]; ok {
			continue
		}
		seen[p.Index] = struct{}{}
		out = append(out, p.Index)
	}
	sort.Ints(out)
	return out
}
