package protocol

import (
	"github.com/cockroachdb/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// ErrInvalidPatch is returned for a patch that cannot be encoded or decoded.
var ErrInvalidPatch = errors.New("protocol: invalid patch")

// PatchesFrame is one render cycle's patch script with its sequence number.
type PatchesFrame struct {
	Seq     uint64
	Patches []vdom.Patch
}

// EncodePatches encodes a patches frame payload to bytes.
func EncodePatches(pf *PatchesFrame) ([]byte, error) {
	e := NewEncoder()
	if err := EncodePatchesTo(e, pf); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// EncodePatchesTo encodes a patches frame payload using the provided encoder.
func EncodePatchesTo(e *Encoder, pf *PatchesFrame) error {
	e.WriteUvarint(pf.Seq)
	e.WriteUvarint(uint64(len(pf.Patches)))

	for i := range pf.Patches {
		if err := encodePatch(e, &pf.Patches[i]); err != nil {
			return errors.Wrapf(err, "patch %d", i)
		}
	}
	return nil
}

func encodePatch(e *Encoder, p *vdom.Patch) error {
	if p.Index < 0 {
		return errors.Wrapf(ErrInvalidPatch, "negative index %d", p.Index)
	}
	e.WriteByte(byte(p.Op))
	e.WriteUvarint(uint64(p.Index))

	switch p.Op {
	case vdom.PatchAddAttributes:
		keys := vdom.SortedKeys(p.Attrs)
		e.WriteUvarint(uint64(len(keys)))
		for _, k := range keys {
			e.WriteString(k)
			e.WriteString(p.Attrs[k])
		}

	case vdom.PatchRemoveAttributes:
		e.WriteUvarint(uint64(len(p.Keys)))
		for _, k := range p.Keys {
			e.WriteString(k)
		}

	case vdom.PatchAppendChildren:
		e.WriteUvarint(uint64(len(p.Nodes)))
		for _, n := range p.Nodes {
			if err := EncodeVNodeTo(e, n); err != nil {
				return err
			}
		}

	case vdom.PatchTruncateChildren:
		if p.Len < 0 {
			return errors.Wrapf(ErrInvalidPatch, "negative length %d", p.Len)
		}
		e.WriteUvarint(uint64(p.Len))

	case vdom.PatchReplace:
		return EncodeVNodeTo(e, p.Node)

	case vdom.PatchChangeText:
		e.WriteString(p.Text)

	default:
		return errors.Wrapf(ErrInvalidPatch, "unknown op 0x%02x", byte(p.Op))
	}
	return nil
}

// DecodePatches decodes a patches frame payload. The whole input must be
// consumed.
func DecodePatches(data []byte) (*PatchesFrame, error) {
	d := NewDecoder(data)
	pf, err := DecodePatchesFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.expectEOF(); err != nil {
		return nil, err
	}
	return pf, nil
}

// DecodePatchesFrom decodes a patches frame payload from a decoder.
func DecodePatchesFrom(d *Decoder) (*PatchesFrame, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}

	pf := &PatchesFrame{Seq: seq}
	if count > 0 {
		pf.Patches = make([]vdom.Patch, count)
	}
	for i := range pf.Patches {
		if err := decodePatch(d, &pf.Patches[i]); err != nil {
			return nil, errors.Wrapf(err, "patch %d", i)
		}
	}
	return pf, nil
}

func decodePatch(d *Decoder, p *vdom.Patch) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	p.Op = vdom.PatchOp(op)
	if p.Index, err = d.ReadInt(); err != nil {
		return err
	}

	switch p.Op {
	case vdom.PatchAddAttributes:
		attrs, err := decodeAttrs(d)
		if err != nil {
			return err
		}
		if attrs == nil {
			attrs = map[string]string{}
		}
		p.Attrs = attrs

	case vdom.PatchRemoveAttributes:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return err
		}
		p.Keys = make([]string, count)
		for i := range p.Keys {
			if p.Keys[i], err = d.ReadString(); err != nil {
				return err
			}
		}

	case vdom.PatchAppendChildren:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return err
		}
		p.Nodes = make([]*vdom.VNode, count)
		for i := range p.Nodes {
			if p.Nodes[i], err = DecodeVNodeFrom(d); err != nil {
				return err
			}
		}

	case vdom.PatchTruncateChildren:
		if p.Len, err = d.ReadInt(); err != nil {
			return err
		}

	case vdom.PatchReplace:
		if p.Node, err = DecodeVNodeFrom(d); err != nil {
			return err
		}

	case vdom.PatchChangeText:
		if p.Text, err = d.ReadString(); err != nil {
			return err
		}

	default:
		return errors.Wrapf(ErrInvalidPatch, "unknown op 0x%02x", op)
	}
	return nil
}

// SnapshotFrame carries the full tree a session starts from.
type SnapshotFrame struct {
	Seq  uint64
	Root *vdom.VNode
}

// EncodeSnapshot encodes a snapshot frame payload to bytes.
func EncodeSnapshot(sf *SnapshotFrame) ([]byte, error) {
	e := NewEncoder()
	e.WriteUvarint(sf.Seq)
	if err := EncodeVNodeTo(e, sf.Root); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DecodeSnapshot decodes a snapshot frame payload.
func DecodeSnapshot(data []byte) (*SnapshotFrame, error) {
	d := NewDecoder(data)
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	root, err := DecodeVNodeFrom(d)
	if err != nil {
		return nil, err
	}
	if err := d.expectEOF(); err != nil {
		return nil, err
	}
	return &SnapshotFrame{Seq: seq, Root: root}, nil
}
