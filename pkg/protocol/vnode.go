package protocol

import (
	"github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// ErrInvalidNode is returned for a node that cannot be encoded or decoded.
var ErrInvalidNode = errors.New("protocol: invalid node")

// EncodeVNode encodes a snapshot tree to bytes.
func EncodeVNode(node *vdom.VNode) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeVNodeTo(e, node); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodeVNodeTo encodes a snapshot tree using the provided encoder.
// Event handlers are not part of the wire format and are dropped.
// Attributes are written in ascending key order.
func EncodeVNodeTo(e *Encoder, node *vdom.VNode) error {
	if node == nil {
		return errors.Wrap(ErrInvalidNode, "nil node")
	}

	switch node.Kind {
	case vdom.KindText:
		e.WriteByte(byte(vdom.KindText))
		e.WriteString(node.Text)

	case vdom.KindElement:
		e.WriteByte(byte(vdom.KindElement))
		e.WriteString(node.Tag)

		keys := vdom.SortedKeys(node.Attrs)
		e.WriteUvarint(uint64(len(keys)))
		for _, k := range keys {
			e.WriteString(k)
			e.WriteString(node.Attrs[k])
		}

		e.WriteUvarint(uint64(len(node.Children)))
		for _, child := range node.Children {
			if err := EncodeVNodeTo(e, child); err != nil {
				return err
			}
		}

	default:
		return errors.Wrapf(ErrInvalidNode, "kind %s", node.Kind)
	}
	return nil
}

// DecodeVNode decodes a snapshot tree from bytes. The whole input must be
// consumed.
func DecodeVNode(data []byte) (*vdom.VNode, error) {
	d := NewDecoder(data)
	node, err := DecodeVNodeFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.expectEOF(); err != nil {
		return nil, err
	}
	return node, nil
}

// DecodeVNodeFrom decodes a snapshot tree from the decoder, enforcing the
// decoder's depth limit.
func DecodeVNodeFrom(d *Decoder) (*vdom.VNode, error) {
	return decodeVNode(d, 0)
}

func decodeVNode(d *Decoder, depth int) (*vdom.VNode, error) {
	if depth > d.limits.MaxDepth {
		return nil, errors.Wrapf(ErrMaxDepthExceeded, "depth %d", depth)
	}

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	switch vdom.VKind(kind) {
	case vdom.KindText:
		text, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return vdom.Text(text), nil

	case vdom.KindElement:
		tag, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if tag == "" {
			return nil, errors.Wrap(ErrInvalidNode, "empty tag")
		}
		node := &vdom.VNode{Kind: vdom.KindElement, Tag: tag}

		attrs, err := decodeAttrs(d)
		if err != nil {
			return nil, err
		}
		node.Attrs = attrs

		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		if count > 0 {
			node.Children = make([]*vdom.VNode, count)
			for i := range node.Children {
				child, err := decodeVNode(d, depth+1)
				if err != nil {
					return nil, err
				}
				node.Children[i] = child
			}
		}
		return node, nil

	default:
		return nil, errors.Wrapf(ErrInvalidNode, "kind byte 0x%02x at offset %d", kind, d.pos-1)
	}
}

func decodeAttrs(d *Decoder) (map[string]string, error) {
	count, err := d.ReadCollectionCount()
	if err != nil || count == 0 {
		return nil, err
	}
	attrs := make(map[string]string, count)
	for i := 0; i < count; i++ {
		key, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		value, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		attrs[key] = value
	}
	return attrs, nil
}
