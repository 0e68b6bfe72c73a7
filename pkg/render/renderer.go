package render

import (
	"bufio"
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables pretty-printed HTML output with indentation.
	// Pretty output no longer matches the host serialization.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// EventMarkers adds a data-on-<event> attribute for every handler.
	EventMarkers bool
}

// Renderer serializes snapshots to HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders a snapshot to an HTML string. A nil snapshot
// renders as the empty string.
func (r *Renderer) RenderToString(node *vdom.VNode) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams a snapshot to the given writer.
func (r *Renderer) RenderToWriter(w io.Writer, node *vdom.VNode) error {
	bw := bufio.NewWriter(w)
	if err := r.renderNode(bw, node, nil, 0, false); err != nil {
		return err
	}
	return bw.Flush()
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w *bufio.Writer, node *vdom.VNode, path []int, depth int, raw bool) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case vdom.KindElement:
		return r.renderElement(w, node, path, depth)
	case vdom.KindText:
		text := node.TextContent()
		if !raw {
			text = escapeHTML(text)
		}
		_, err := w.WriteString(text)
		return err
	case vdom.KindFragment:
		for i, child := range node.Children {
			if err := r.renderNode(w, child, append(path, i), depth, raw); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New("E204").WithDetailf("unknown node kind %d", node.Kind).AtPath(path)
}

// renderElement renders an HTML element with its attributes and children.
func (r *Renderer) renderElement(w *bufio.Writer, node *vdom.VNode, path []int, depth int) error {
	tag := node.Tag
	if tag == "" {
		return errors.New("E204").WithDetail("element without tag").AtPath(path)
	}

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	w.WriteByte('<')
	w.WriteString(tag)
	r.renderAttributes(w, node)

	if vdom.IsVoidElement(tag) {
		if len(node.Children) > 0 {
			return errors.New("E204").WithDetailf("void element <%s> has children", tag).AtPath(path)
		}
		w.WriteString("/>")
		if r.config.Pretty {
			w.WriteByte('\n')
		}
		return nil
	}
	w.WriteByte('>')

	if newlineElements[tag] && len(node.Children) > 0 {
		if first := node.Children[0]; first != nil && first.Kind == vdom.KindText &&
			strings.HasPrefix(first.TextContent(), "\n") {
			w.WriteByte('\n')
		}
	}

	hasBlockChildren := len(node.Children) > 0 && !isInlineElement(tag)
	if r.config.Pretty && hasBlockChildren {
		w.WriteByte('\n')
	}

	raw := isRawTextElement(tag)
	for i, child := range node.Children {
		if err := r.renderNode(w, child, append(path, i), depth+1, raw); err != nil {
			return err
		}
	}

	if r.config.Pretty && hasBlockChildren {
		r.writeIndent(w, depth)
	}

	w.WriteString("</")
	w.WriteString(tag)
	w.WriteByte('>')
	if r.config.Pretty {
		w.WriteByte('\n')
	}
	return nil
}

// renderAttributes renders all attributes for an element in sorted order.
func (r *Renderer) renderAttributes(w *bufio.Writer, node *vdom.VNode) {
	if len(node.Props) == 0 {
		return
	}

	keys := make([]string, 0, len(node.Props))
	for key := range node.Props {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var events []string
	for _, key := range keys {
		value := node.Props[key]
		if key == vdom.KeyProp {
			continue
		}
		if vdom.IsEventHandler(key, value) {
			events = append(events, vdom.EventName(key))
			continue
		}
		s, ok := attrString(value)
		if !ok {
			continue
		}
		writeAttr(w, key, s)
	}

	if r.config.EventMarkers {
		sort.Strings(events)
		for _, ev := range events {
			writeAttr(w, "data-on-"+ev, "true")
		}
	}
}

func writeAttr(w *bufio.Writer, name, value string) {
	w.WriteByte(' ')
	w.WriteString(name)
	w.WriteString(`="`)
	w.WriteString(escapeHTML(value))
	w.WriteByte('"')
}

// attrString converts an attribute value to its serialized form. It reports
// false for values that remove the attribute.
func attrString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case bool:
		return "", v
	}
	return vdom.ValueString(value), true
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w *bufio.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(r.config.Indent)
	}
}
