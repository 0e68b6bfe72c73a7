package patch

import (
	"fmt"

	"github.com/vango-dev/vpatch/pkg/vdom"
)

// Op identifies a patch type.
type Op uint8

const (
	OpAddAttribute Op = iota + 1
	OpSetAttribute
	OpRemoveAttribute
	OpSetText
	OpReplaceText
	OpRemoveText
	OpAddChildren
	OpRemoveChildren
	OpRemoveChildrenRange
	OpSetChild
	OpMoveChild
	OpSetElement
	OpReplaceElement
	OpRemoveElement
)

var opNames = [...]string{
	OpAddAttribute:        "AddAttribute",
	OpSetAttribute:        "SetAttribute",
	OpRemoveAttribute:     "RemoveAttribute",
	OpSetText:             "SetText",
	OpReplaceText:         "ReplaceText",
	OpRemoveText:          "RemoveText",
	OpAddChildren:         "AddChildren",
	OpRemoveChildren:      "RemoveChildren",
	OpRemoveChildrenRange: "RemoveChildrenRange",
	OpSetChild:            "SetChild",
	OpMoveChild:           "MoveChild",
	OpSetElement:          "SetElement",
	OpReplaceElement:      "ReplaceElement",
	OpRemoveElement:       "RemoveElement",
}

// String returns the patch type name.
func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// Ops lists every patch type in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, len(opNames)-1)
	for op := OpAddAttribute; op <= OpRemoveElement; op++ {
		ops = append(ops, op)
	}
	return ops
}

// Patch is a single edit against one host node. Patches are plain values
// created by Diff and consumed once by Tree.Apply.
type Patch interface {
	Op() Op
	String() string
	apply(a *applier, s *scope) error
}

// AddAttribute adds an attribute the previous snapshot did not have.
type AddAttribute struct {
	Name  string
	Value any
}

// SetAttribute changes the value of an existing attribute.
type SetAttribute struct {
	Name string
	Old  any
	New  any
}

// RemoveAttribute removes an attribute.
type RemoveAttribute struct {
	Name string
	Old  any
}

// SetText changes the payload of a retained text node in place.
type SetText struct {
	Old string
	New string
}

// ReplaceText swaps the target text node for a new one.
type ReplaceText struct {
	Old string
	New string
}

// RemoveText removes every text child of the target.
type RemoveText struct{}

// AddChildren appends a batch of new children to an empty target.
type AddChildren struct {
	Nodes []*vdom.VNode
}

// RemoveChildren removes every child of the target.
type RemoveChildren struct{}

// RemoveChildrenRange removes Count children starting at From.
type RemoveChildrenRange struct {
	From  int
	Count int
}

// SetChild places a new node at Index, evicting the current occupant.
type SetChild struct {
	Index int
	Node  *vdom.VNode
}

// MoveChild relocates the child originally at From to To. Offset is the
// number of children extracted before From when the move was computed.
type MoveChild struct {
	From   int
	To     int
	Offset int
}

// SetElement inserts a new node where there was none.
type SetElement struct {
	Node *vdom.VNode
}

// ReplaceElement swaps the target for a new node.
type ReplaceElement struct {
	Node *vdom.VNode
}

// RemoveElement removes the target from its parent.
type RemoveElement struct{}

func (AddAttribute) Op() Op        { return OpAddAttribute }
func (SetAttribute) Op() Op        { return OpSetAttribute }
func (RemoveAttribute) Op() Op     { return OpRemoveAttribute }
func (SetText) Op() Op             { return OpSetText }
func (ReplaceText) Op() Op         { return OpReplaceText }
func (RemoveText) Op() Op          { return OpRemoveText }
func (AddChildren) Op() Op         { return OpAddChildren }
func (RemoveChildren) Op() Op      { return OpRemoveChildren }
func (RemoveChildrenRange) Op() Op { return OpRemoveChildrenRange }
func (SetChild) Op() Op            { return OpSetChild }
func (MoveChild) Op() Op           { return OpMoveChild }
func (SetElement) Op() Op          { return OpSetElement }
func (ReplaceElement) Op() Op      { return OpReplaceElement }
func (RemoveElement) Op() Op       { return OpRemoveElement }

func (p AddAttribute) String() string {
	return fmt.Sprintf("AddAttribute %s=%s", p.Name, formatValue(p.Value))
}

func (p SetAttribute) String() string {
	return fmt.Sprintf("SetAttribute %s %s -> %s", p.Name, formatValue(p.Old), formatValue(p.New))
}

func (p RemoveAttribute) String() string {
	return "RemoveAttribute " + p.Name
}

func (p SetText) String() string {
	return fmt.Sprintf("SetText %q -> %q", p.Old, p.New)
}

func (p ReplaceText) String() string {
	return fmt.Sprintf("ReplaceText %q -> %q", p.Old, p.New)
}

func (RemoveText) String() string { return "RemoveText" }

func (p AddChildren) String() string {
	return fmt.Sprintf("AddChildren %s", describeNodes(p.Nodes))
}

func (RemoveChildren) String() string { return "RemoveChildren" }

func (p RemoveChildrenRange) String() string {
	return fmt.Sprintf("RemoveChildrenRange from=%d count=%d", p.From, p.Count)
}

func (p SetChild) String() string {
	return fmt.Sprintf("SetChild %d %s", p.Index, p.Node.Describe())
}

func (p MoveChild) String() string {
	return fmt.Sprintf("MoveChild %d -> %d offset=%d", p.From, p.To, p.Offset)
}

func (p SetElement) String() string {
	return "SetElement " + p.Node.Describe()
}

func (p ReplaceElement) String() string {
	return "ReplaceElement " + p.Node.Describe()
}

func (RemoveElement) String() string { return "RemoveElement" }

func formatValue(v any) string {
	if v == nil {
		return "<nil>"
	}
	if _, ok := v.(string); ok {
		return fmt.Sprintf("%q", v)
	}
	if !vdom.IsScalar(v) {
		return fmt.Sprintf("<%T>", v)
	}
	return vdom.ValueString(v)
}

func describeNodes(nodes []*vdom.VNode) string {
	s := "["
	for i, n := range nodes {
		if i > 0 {
			s += " "
		}
		s += n.Describe()
	}
	return s + "]"
}
