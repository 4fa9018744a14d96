package vdom

// Count returns the number of nodes in the tree, which is one past the
// largest preorder index.
func Count(node *VNode) int {
	if node == nil {
		return 0
	}
	n := 1
	for _, child := range node.Children {
		n += Count(child)
	}
	return n
}

// Walk visits every node in depth-first preorder, passing each node's
// index. Visiting stops as soon as fn returns false. Nil children are
// skipped without consuming an index.
func Walk(node *VNode, fn func(idx int, n *VNode) bool) {
	idx := 0
	walk(node, &idx, fn)
}

func walk(node *VNode, idx *int, fn func(int, *VNode) bool) bool {
	if node == nil {
		return true
	}
	if !fn(*idx, node) {
		return false
	}
	for _, child := range node.Children {
		if child == nil {
			continue
		}
		*idx++
		if !walk(child, idx, fn) {
			return false
		}
	}
	return true
}

// NodeAt returns the node at the given preorder index, or nil if the tree
// has no such node.
func NodeAt(root *VNode, index int) *VNode {
	if index < 0 {
		return nil
	}
	var found *VNode
	Walk(root, func(idx int, n *VNode) bool {
		if idx == index {
			found = n
			return false
		}
		return true
	})
	return found
}

// skipSubtree advances the index counter over every node below node
// without emitting anything. The caller has already consumed node's own
// index.
func skipSubtree(node *VNode, idx *int) {
	for _, child := range node.Children {
		if child == nil {
			continue
		}
		*idx++
		skipSubtree(child, idx)
	}
}
