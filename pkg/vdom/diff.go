package vdom

// Diff compares two snapshot trees and returns the patches needed to
// transform prev into next. Patch indices address nodes of prev in
// preorder. Both trees are only read; Replace and AppendChildren patches
// reference subtrees of next.
//
// Diff is deterministic: the same inputs always yield the same patches in
// the same order. A nil tree on either side yields no patches.
func Diff(prev, next *VNode) []Patch {
	if prev == nil || next == nil {
		return nil
	}
	var patches []Patch
	idx := 0
	diff(prev, next, &idx, &patches)
	return patches
}

// diff compares prev and next, whose shared index is *idx, and appends
// patches. On return *idx is the index of the last node in prev's subtree.
func diff(prev, next *VNode, idx *int, patches *[]Patch) {
	// Different kinds or tags - replace, but keep counting prev's subtree
	// so later siblings keep their indices.
	if prev.Kind != next.Kind || (prev.Kind == KindElement && prev.Tag != next.Tag) {
		*patches = append(*patches, Replace(*idx, next))
		skipSubtree(prev, idx)
		return
	}

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			*patches = append(*patches, ChangeText(*idx, next.Text))
		}
	case KindElement:
		diffElement(prev, next, idx, patches)
	}
}

// diffElement compares two elements with the same tag.
func diffElement(prev, next *VNode, idx *int, patches *[]Patch) {
	self := *idx

	diffAttrs(self, prev, next, patches)

	prevLen, nextLen := len(prev.Children), len(next.Children)
	if nextLen > prevLen {
		*patches = append(*patches, AppendChildren(self, next.Children[prevLen:]...))
	}
	if nextLen < prevLen {
		*patches = append(*patches, TruncateChildren(self, nextLen))
	}

	matched := min(prevLen, nextLen)
	for i := 0; i < matched; i++ {
		*idx++
		diff(prev.Children[i], next.Children[i], idx, patches)
	}

	// Dropped children are gone from the new tree but still occupy
	// indices in the old one.
	for _, child := range prev.Children[matched:] {
		*idx++
		skipSubtree(child, idx)
	}
}

// diffAttrs emits AddAttributes for new or changed keys, then
// RemoveAttributes for keys only present in prev. A changed key appears
// only in the add set.
func diffAttrs(index int, prev, next *VNode, patches *[]Patch) {
	var add map[string]string
	for key, nextVal := range next.Attrs {
		if prevVal, ok := prev.Attrs[key]; ok && prevVal == nextVal {
			continue
		}
		if add == nil {
			add = make(map[string]string)
		}
		add[key] = nextVal
	}

	var remove []string
	for key := range prev.Attrs {
		if _, ok := next.Attrs[key]; ok {
			continue
		}
		remove = append(remove, key)
	}

	if len(add) > 0 {
		*patches = append(*patches, AddAttributes(index, add))
	}
	if len(remove) > 0 {
		*patches = append(*patches, RemoveAttributes(index, remove...))
	}
}
