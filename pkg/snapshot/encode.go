package snapshot

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Marshal encodes a tree as YAML in the format Parse reads. Keys are
// written in a fixed order and attributes are sorted, so equal trees
// encode identically.
func Marshal(node *vdom.VNode) ([]byte, error) {
	if node == nil {
		return nil, errors.Wrap(vdom.ErrNilNode, "snapshot: marshal")
	}
	return yaml.Marshal(toYAML(node))
}

// Encode writes each tree to w as a separate YAML document.
func Encode(w io.Writer, trees ...*vdom.VNode) error {
	for i, node := range trees {
		if i > 0 {
			if _, err := io.WriteString(w, "---\n"); err != nil {
				return err
			}
		}
		data, err := Marshal(node)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

func toYAML(node *vdom.VNode) any {
	if node.Kind == vdom.KindText {
		return node.Text
	}
	out := yaml.MapSlice{{Key: "tag", Value: node.Tag}}
	if len(node.Attrs) > 0 {
		attrs := make(yaml.MapSlice, 0, len(node.Attrs))
		for _, k := range vdom.SortedKeys(node.Attrs) {
			attrs = append(attrs, yaml.MapItem{Key: k, Value: node.Attrs[k]})
		}
		out = append(out, yaml.MapItem{Key: "attrs", Value: attrs})
	}
	if len(node.Children) > 0 {
		children := make([]any, len(node.Children))
		for i, c := range node.Children {
			children[i] = toYAML(c)
		}
		out = append(out, yaml.MapItem{Key: "children", Value: children})
	}
	return out
}
