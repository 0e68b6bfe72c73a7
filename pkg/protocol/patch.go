package protocol

import (
	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/patch"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// EncodeTree appends a patch tree.
func EncodeTree(e *Encoder, t *patch.Tree) error {
	if t == nil {
		t = &patch.Tree{}
	}
	e.WriteInt(len(t.Patches))
	for _, p := range t.Patches {
		if err := EncodePatch(e, p); err != nil {
			return err
		}
	}
	e.WriteInt(len(t.Children))
	for _, c := range t.Children {
		e.WriteInt(c.Index)
		if err := EncodeTree(e, c.Tree); err != nil {
			return err
		}
	}
	return nil
}

// EncodePatch appends one patch: its opcode followed by its operands.
func EncodePatch(e *Encoder, p patch.Patch) error {
	e.WriteByte(byte(p.Op()))
	switch p := p.(type) {
	case patch.AddAttribute:
		e.WriteString(p.Name)
		return e.WriteValue(p.Value)
	case patch.SetAttribute:
		e.WriteString(p.Name)
		if err := e.WriteValue(p.Old); err != nil {
			return err
		}
		return e.WriteValue(p.New)
	case patch.RemoveAttribute:
		e.WriteString(p.Name)
		return e.WriteValue(p.Old)
	case patch.SetText:
		e.WriteString(p.Old)
		e.WriteString(p.New)
	case patch.ReplaceText:
		e.WriteString(p.Old)
		e.WriteString(p.New)
	case patch.RemoveText, patch.RemoveChildren, patch.RemoveElement:
	case patch.AddChildren:
		e.WriteInt(len(p.Nodes))
		for _, n := range p.Nodes {
			if err := EncodeVNode(e, n); err != nil {
				return err
			}
		}
	case patch.RemoveChildrenRange:
		e.WriteInt(p.From)
		e.WriteInt(p.Count)
	case patch.SetChild:
		e.WriteInt(p.Index)
		return EncodeVNode(e, p.Node)
	case patch.MoveChild:
		e.WriteInt(p.From)
		e.WriteInt(p.To)
		e.WriteInt(p.Offset)
	case patch.SetElement:
		return EncodeVNode(e, p.Node)
	case patch.ReplaceElement:
		return EncodeVNode(e, p.Node)
	default:
		return errors.New("E211").WithDetailf("cannot encode patch %T", p)
	}
	return nil
}

// DecodeTree reads a patch tree written by EncodeTree.
func DecodeTree(d *Decoder) (*patch.Tree, error) {
	return decodeTree(d, d.depth())
}

func decodeTree(d *Decoder, dc *depthContext) (*patch.Tree, error) {
	if err := dc.enter(); err != nil {
		return nil, err
	}
	defer dc.leave()

	t := &patch.Tree{}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	if count > 0 {
		t.Patches = make([]patch.Patch, 0, count)
	}
	for i := 0; i < count; i++ {
		p, err := decodePatch(d, dc)
		if err != nil {
			return nil, err
		}
		t.Patches = append(t.Patches, p)
	}

	if count, err = d.ReadCollectionCount(); err != nil {
		return nil, err
	}
	if count > 0 {
		t.Children = make([]patch.ChildTree, 0, count)
	}
	for i := 0; i < count; i++ {
		index, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		sub, err := decodeTree(d, dc)
		if err != nil {
			return nil, err
		}
		t.Children = append(t.Children, patch.ChildTree{Index: index, Tree: sub})
	}
	return t, nil
}

// DecodePatch reads one patch written by EncodePatch.
func DecodePatch(d *Decoder) (patch.Patch, error) {
	return decodePatch(d, d.depth())
}

func decodePatch(d *Decoder, dc *depthContext) (patch.Patch, error) {
	b, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	op := patch.Op(b)

	switch op {
	case patch.OpAddAttribute:
		name, value, err := readNameValue(d)
		return patch.AddAttribute{Name: name, Value: value}, err
	case patch.OpSetAttribute:
		name, old, err := readNameValue(d)
		if err != nil {
			return nil, err
		}
		value, err := d.ReadValue()
		return patch.SetAttribute{Name: name, Old: old, New: value}, err
	case patch.OpRemoveAttribute:
		name, old, err := readNameValue(d)
		return patch.RemoveAttribute{Name: name, Old: old}, err
	case patch.OpSetText, patch.OpReplaceText:
		old, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		value, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		if op == patch.OpSetText {
			return patch.SetText{Old: old, New: value}, nil
		}
		return patch.ReplaceText{Old: old, New: value}, nil
	case patch.OpRemoveText:
		return patch.RemoveText{}, nil
	case patch.OpRemoveChildren:
		return patch.RemoveChildren{}, nil
	case patch.OpRemoveElement:
		return patch.RemoveElement{}, nil
	case patch.OpAddChildren:
		count, err := d.ReadCollectionCount()
		if err != nil {
			return nil, err
		}
		nodes := make([]*vdom.VNode, 0, count)
		for i := 0; i < count; i++ {
			n, err := decodeVNode(d, dc)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		return patch.AddChildren{Nodes: nodes}, nil
	case patch.OpRemoveChildrenRange:
		ints, err := readInts(d, 2)
		if err != nil {
			return nil, err
		}
		return patch.RemoveChildrenRange{From: ints[0], Count: ints[1]}, nil
	case patch.OpSetChild:
		index, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		n, err := decodeVNode(d, dc)
		if err != nil {
			return nil, err
		}
		return patch.SetChild{Index: index, Node: n}, nil
	case patch.OpMoveChild:
		ints, err := readInts(d, 3)
		if err != nil {
			return nil, err
		}
		return patch.MoveChild{From: ints[0], To: ints[1], Offset: ints[2]}, nil
	case patch.OpSetElement, patch.OpReplaceElement:
		n, err := decodeVNode(d, dc)
		if err != nil {
			return nil, err
		}
		if op == patch.OpSetElement {
			return patch.SetElement{Node: n}, nil
		}
		return patch.ReplaceElement{Node: n}, nil
	}
	return nil, errors.New("E211").WithDetailf("unknown patch opcode 0x%02x", b)
}

func readNameValue(d *Decoder) (string, any, error) {
	name, err := d.ReadString()
	if err != nil {
		return "", nil, err
	}
	value, err := d.ReadValue()
	if err != nil {
		return "", nil, err
	}
	return name, value, nil
}

func readInts(d *Decoder, n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := d.ReadInt()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EncodePatchTree encodes a patch tree into a fresh byte slice.
func EncodePatchTree(t *patch.Tree) ([]byte, error) {
	e := NewEncoder()
	if err := EncodeTree(e, t); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DecodePatchTree decodes a patch tree and rejects trailing bytes.
func DecodePatchTree(data []byte, limits Limits) (*patch.Tree, error) {
	d := NewDecoderWithLimits(data, limits)
	t, err := DecodeTree(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, errors.New("E211").WithDetailf("%d trailing bytes after patch tree", d.Remaining())
	}
	return t, nil
}
