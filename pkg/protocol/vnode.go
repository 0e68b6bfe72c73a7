package protocol

import (
	"sort"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// nullNode marks an absent node.
const nullNode byte = 0xFF

// EncodeVNode appends a snapshot. Element attributes are written in sorted
// order so equal snapshots encode to equal bytes. Owners are not encoded.
//
//	Element:  [Kind][Tag][Key][AttrCount]([Name][Value])...[ChildCount][Child]...
//	Text:     [Kind][Value]
//	Fragment: [Kind][ChildCount][Child]...
func EncodeVNode(e *Encoder, v *vdom.VNode) error {
	if v == nil {
		e.WriteByte(nullNode)
		return nil
	}
	e.WriteByte(byte(v.Kind))

	switch v.Kind {
	case vdom.KindElement:
		e.WriteString(v.Tag)
		e.WriteString(v.Key)
		names := make([]string, 0, len(v.Props))
		for name := range v.Props {
			names = append(names, name)
		}
		sort.Strings(names)
		e.WriteInt(len(names))
		for _, name := range names {
			e.WriteString(name)
			if err := e.WriteValue(v.Props[name]); err != nil {
				return err
			}
		}
		return encodeChildren(e, v.Children)

	case vdom.KindText:
		return e.WriteValue(v.Value)

	case vdom.KindFragment:
		return encodeChildren(e, v.Children)
	}
	return errors.New("E211").WithDetailf("cannot encode node kind %d", v.Kind)
}

func encodeChildren(e *Encoder, children []*vdom.VNode) error {
	e.WriteInt(len(children))
	for _, c := range children {
		if err := EncodeVNode(e, c); err != nil {
			return err
		}
	}
	return nil
}

// DecodeVNode reads a snapshot written by EncodeVNode.
func DecodeVNode(d *Decoder) (*vdom.VNode, error) {
	return decodeVNode(d, d.depth())
}

func decodeVNode(d *Decoder, dc *depthContext) (*vdom.VNode, error) {
	if err := dc.enter(); err != nil {
		return nil, err
	}
	defer dc.leave()

	kind, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if kind == nullNode {
		return nil, nil
	}

	v := &vdom.VNode{Kind: vdom.VKind(kind)}
	switch v.Kind {
	case vdom.KindElement:
		if v.Tag, err = d.ReadString(); err != nil {
			return nil, err
		}
		if v.Key, err = d.ReadString(); err != nil {
			return nil, err
		}
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		v.Props = make(vdom.Props, count)
		for i := 0; i < count; i++ {
			name, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			if v.Props[name], err = d.ReadValue(); err != nil {
				return nil, err
			}
		}
		if v.Children, err = decodeChildren(d, dc); err != nil {
			return nil, err
		}

	case vdom.KindText:
		if v.Value, err = d.ReadValue(); err != nil {
			return nil, err
		}

	case vdom.KindFragment:
		if v.Children, err = decodeChildren(d, dc); err != nil {
			return nil, err
		}

	default:
		return nil, errors.New("E211").WithDetailf("unknown node kind 0x%02x", kind)
	}
	return v, nil
}

func decodeChildren(d *Decoder, dc *depthContext) ([]*vdom.VNode, error) {
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	children := make([]*vdom.VNode, 0, count)
	for i := 0; i < count; i++ {
		c, err := decodeVNode(d, dc)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return children, nil
}

// EncodeSnapshot encodes a snapshot into a fresh byte slice.
func EncodeSnapshot(v *vdom.VNode) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeVNode(e, v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DecodeSnapshot decodes a snapshot and rejects trailing bytes.
func DecodeSnapshot(data []byte, limits Limits) (*vdom.VNode, error) {
	d := NewDecoderWithLimits(data, limits)
	v, err := DecodeVNode(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, errors.New("E211").WithDetailf("%d trailing bytes after snapshot", d.Remaining())
	}
	return v, nil
}
