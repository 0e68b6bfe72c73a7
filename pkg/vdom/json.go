package vdom

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vango-dev/vpatch/internal/errors"
)

// jsonNode is the snapshot document shape of one node.
type jsonNode struct {
	Kind     string          `json:"kind,omitempty"`
	Tag      string          `json:"tag,omitempty"`
	Key      string          `json:"key,omitempty"`
	Attrs    map[string]any  `json:"attrs,omitempty"`
	Text     json.RawMessage `json:"text,omitempty"`
	Children []*VNode        `json:"children,omitempty"`
}

// MarshalJSON implements json.Marshaler.
// Event handlers are dropped; they cannot be represented in a document.
func (v *VNode) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	var n jsonNode
	switch v.Kind {
	case KindText:
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return nil, err
		}
		n.Text = raw
	case KindFragment:
		n.Kind = "fragment"
		n.Children = v.Children
	case KindElement:
		n.Tag = v.Tag
		n.Key = KeyOf(v)
		for key, value := range v.Props {
			if key == KeyProp || IsEventHandler(key, value) {
				continue
			}
			if n.Attrs == nil {
				n.Attrs = make(map[string]any, len(v.Props))
			}
			n.Attrs[key] = value
		}
		n.Children = v.Children
	default:
		return nil, fmt.Errorf("vdom: cannot marshal node kind %s", v.Kind)
	}
	return json.Marshal(n)
}

// UnmarshalJSON implements json.Unmarshaler.
// Integral numbers decode as int, other numbers as float64.
func (v *VNode) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var n jsonNode
	if err := dec.Decode(&n); err != nil {
		return errors.New("E213").Wrap(err)
	}

	*v = VNode{}
	switch {
	case n.Text != nil:
		tdec := json.NewDecoder(bytes.NewReader(n.Text))
		tdec.UseNumber()
		var value any
		if err := tdec.Decode(&value); err != nil {
			return errors.New("E213").Wrap(err)
		}
		value = normalizeNumber(value)
		if !IsScalar(value) {
			return errors.New("E213").WithDetailf("text payload must be a scalar, got %T", value)
		}
		v.Kind = KindText
		v.Value = value
		return nil

	case n.Kind == "fragment":
		v.Kind = KindFragment
		v.Children = compact(n.Children)
		return nil

	case n.Kind != "" && n.Kind != "element":
		return errors.New("E213").WithDetailf("unknown node kind %q", n.Kind)

	case n.Tag == "":
		return errors.New("E213").WithDetail("element without tag")
	}

	v.Kind = KindElement
	v.Tag = n.Tag
	v.Key = n.Key
	v.Props = make(Props, len(n.Attrs))
	for key, value := range n.Attrs {
		v.Props[key] = normalizeNumber(value)
	}
	if v.Key == "" {
		v.Key = KeyOf(v)
	}
	v.Children = compact(n.Children)
	return nil
}

// ParseSnapshot decodes a snapshot document. The literal null yields nil.
func ParseSnapshot(data []byte) (*VNode, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, nil
	}
	var node VNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, errors.FromError(err, "E213")
	}
	return &node, nil
}

func compact(children []*VNode) []*VNode {
	if len(children) == 0 {
		return nil
	}
	out := children[:0]
	for _, c := range children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func normalizeNumber(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, e := range val {
			val[k] = normalizeNumber(e)
		}
		return val
	case []any:
		for i, e := range val {
			val[i] = normalizeNumber(e)
		}
		return val
	}
	return v
}
