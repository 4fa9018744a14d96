package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-yaml"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// ErrMalformed is the base of every shape error returned by the decoder.
var ErrMalformed = errors.New("snapshot: malformed tree")

// Parse decodes a single tree from YAML. Trailing documents are rejected.
func Parse(data []byte) (*vdom.VNode, error) {
	trees, err := ParseAll(data)
	if err != nil {
		return nil, err
	}
	if len(trees) != 1 {
		return nil, errors.Wrapf(ErrMalformed, "expected 1 document, found %d", len(trees))
	}
	return trees[0], nil
}

// ParseAll decodes every YAML document in data as a tree.
func ParseAll(data []byte) ([]*vdom.VNode, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads every YAML document from r as a tree. Each tree is checked
// with vdom.Validate.
func Decode(r io.Reader) ([]*vdom.VNode, error) {
	dec := yaml.NewDecoder(r)
	var trees []*vdom.VNode
	for doc := 0; ; doc++ {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrapf(err, "document %d", doc)
		}
		if raw == nil {
			continue
		}
		node, err := convert(raw, "$")
		if err != nil {
			return nil, errors.Wrapf(err, "document %d", doc)
		}
		if err := vdom.Validate(node); err != nil {
			return nil, errors.Wrapf(err, "document %d", doc)
		}
		trees = append(trees, node)
	}
	return trees, nil
}

// Load reads every tree from the named file.
func Load(path string) ([]*vdom.VNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot: read")
	}
	trees, err := ParseAll(data)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot: %s", path)
	}
	return trees, nil
}

func convert(raw any, path string) (*vdom.VNode, error) {
	switch v := raw.(type) {
	case string:
		return vdom.Text(v), nil
	case map[string]any:
		return convertMap(v, path)
	case []any, nil:
		return nil, errors.Wrapf(ErrMalformed, "%s: unexpected %T", path, raw)
	default:
		// Unquoted numbers and booleans are text too.
		return vdom.Text(scalar(v)), nil
	}
}

func convertMap(m map[string]any, path string) (*vdom.VNode, error) {
	if text, ok := m["text"]; ok {
		if len(m) != 1 {
			return nil, errors.Wrapf(ErrMalformed, "%s: text node with extra keys", path)
		}
		return vdom.Text(scalar(text)), nil
	}

	tag, ok := m["tag"].(string)
	if !ok || tag == "" {
		return nil, errors.Wrapf(ErrMalformed, "%s: element without tag", path)
	}
	node := &vdom.VNode{Kind: vdom.KindElement, Tag: tag}

	for key, val := range m {
		switch key {
		case "tag":
		case "attrs":
			attrs, err := convertAttrs(val, path)
			if err != nil {
				return nil, err
			}
			node.Attrs = attrs
		case "children":
			if val == nil {
				continue
			}
			list, ok := val.([]any)
			if !ok {
				return nil, errors.Wrapf(ErrMalformed, "%s.children: expected a sequence", path)
			}
			node.Children = make([]*vdom.VNode, 0, len(list))
			for i, item := range list {
				child, err := convert(item, fmt.Sprintf("%s.children[%d]", path, i))
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, child)
			}
		default:
			return nil, errors.Wrapf(ErrMalformed, "%s: unknown key %q", path, key)
		}
	}
	return node, nil
}

func convertAttrs(val any, path string) (map[string]string, error) {
	if val == nil {
		return nil, nil
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "%s.attrs: expected a mapping", path)
	}
	if len(m) == 0 {
		return nil, nil
	}
	attrs := make(map[string]string, len(m))
	for k, v := range m {
		attrs[k] = scalar(v)
	}
	return attrs, nil
}

func scalar(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
