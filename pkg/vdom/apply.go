package vdom

import "github.com/cockroachdb/errors"

// Target is the render target adapter that owns a live tree of N handles.
//
// Children must enumerate live children in insertion order; the applier
// numbers live nodes with the same preorder scheme the differ uses on the
// old snapshot, so any reordering by the adapter breaks addressing.
type Target[N any] interface {
	// Create materializes a live subtree equivalent to node.
	Create(node *VNode) (N, error)
	// Children returns the live children of parent in order.
	Children(parent N) []N
	SetAttribute(node N, key, value string) error
	RemoveAttribute(node N, key string) error
	// SetText sets the content of a live text node.
	SetText(node N, text string) error
	AppendChild(parent, child N) error
	// ReplaceChild substitutes child for the live child at pos, discarding
	// the old child and its subtree.
	ReplaceChild(parent N, pos int, child N) error
	// TruncateChildren removes every child at position >= keep.
	TruncateChildren(parent N, keep int) error
}

// Releaser is implemented by targets that need to be told when a live root
// is dropped by a root-level Replace. Targets without it are not notified.
type Releaser[N any] interface {
	Release(node N)
}

// ErrUnresolvedIndex is the base of errors returned when a patch index does
// not address any node of the live tree. It indicates that the live tree is
// not shaped like the snapshot the patches were computed against, and is
// reported as an assertion failure.
var ErrUnresolvedIndex = errors.New("vdom: patch index does not resolve to a live node")

// location is a resolved patch target.
type location[N any] struct {
	node   N
	parent N
	pos    int
	root   bool
}

// Apply mutates the live tree rooted at root so that it represents the
// snapshot the patches were diffed towards. It returns the live root, which
// differs from root only if a patch replaced the root.
//
// All patch targets are resolved in one preorder traversal before any
// mutation, so earlier patches cannot shift the addresses of later ones.
// Apply is not transactional: on error the live tree may reflect a mix of
// old and new state.
func Apply[N any](t Target[N], root N, patches []Patch) (N, error) {
	if len(patches) == 0 {
		return root, nil
	}

	locs, err := resolve(t, root, Indices(patches))
	if err != nil {
		return root, err
	}

	for i := range patches {
		p := &patches[i]
		loc := locs[p.Index]
		if p.Op == PatchReplace && loc.root {
			created, err := t.Create(p.Node)
			if err != nil {
				return root, errors.Wrapf(err, "apply %s at %d", p.Op, p.Index)
			}
			if r, ok := t.(Releaser[N]); ok {
				r.Release(root)
			}
			root = created
			continue
		}
		if err := applyPatch(t, loc, p); err != nil {
			return root, errors.Wrapf(err, "apply %s at %d", p.Op, p.Index)
		}
	}
	return root, nil
}

func applyPatch[N any](t Target[N], loc location[N], p *Patch) error {
	switch p.Op {
	case PatchAddAttributes:
		for _, key := range SortedKeys(p.Attrs) {
			if err := t.SetAttribute(loc.node, key, p.Attrs[key]); err != nil {
				return err
			}
		}

	case PatchRemoveAttributes:
		for _, key := range p.Keys {
			if err := t.RemoveAttribute(loc.node, key); err != nil {
				return err
			}
		}

	case PatchAppendChildren:
		for _, n := range p.Nodes {
			child, err := t.Create(n)
			if err != nil {
				return err
			}
			if err := t.AppendChild(loc.node, child); err != nil {
				return err
			}
		}

	case PatchTruncateChildren:
		return t.TruncateChildren(loc.node, p.Len)

	case PatchReplace:
		child, err := t.Create(p.Node)
		if err != nil {
			return err
		}
		return t.ReplaceChild(loc.parent, loc.pos, child)

	case PatchChangeText:
		return t.SetText(loc.node, p.Text)

	default:
		return errors.Newf("unknown patch op %d", p.Op)
	}
	return nil
}

// resolver finds the live nodes at a sorted set of preorder indices.
type resolver[N any] struct {
	t     Target[N]
	want  []int
	next  int
	idx   int
	found map[int]location[N]
}

// resolve walks the live tree once in preorder, recording the location of
// every wanted index. The walk stops as soon as the last index is found.
func resolve[N any](t Target[N], root N, want []int) (map[int]location[N], error) {
	r := &resolver[N]{
		t:     t,
		want:  want,
		found: make(map[int]location[N], len(want)),
	}
	for r.next < len(want) && want[r.next] < 0 {
		r.next++
	}
	if r.next > 0 {
		return nil, unresolved(want[0], 0)
	}

	var zero N
	r.visit(location[N]{node: root, parent: zero, root: true})

	if r.next < len(want) {
		return nil, unresolved(want[r.next], r.idx+1)
	}
	return r.found, nil
}

func (r *resolver[N]) visit(loc location[N]) {
	if r.want[r.next] == r.idx {
		r.found[r.idx] = loc
		r.next++
	}
	for i, child := range r.t.Children(loc.node) {
		if r.next >= len(r.want) {
			return
		}
		r.idx++
		r.visit(location[N]{node: child, parent: loc.node, pos: i})
	}
}

func unresolved(index, visited int) error {
	return errors.WithAssertionFailure(
		errors.Wrapf(ErrUnresolvedIndex, "index %d (visited %d live nodes)", index, visited))
}
