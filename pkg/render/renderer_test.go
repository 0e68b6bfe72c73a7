package render

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/host/htmlhost"
	"github.com/vango-dev/vpatch/pkg/patch"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

func renderString(t *testing.T, node *vdom.VNode) string {
	t.Helper()
	html, err := NewRenderer(RendererConfig{}).RenderToString(node)
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	return html
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		node *vdom.VNode
		want string
	}{
		{"absent", nil, ""},
		{"text", vdom.Text("Hello, World!"), "Hello, World!"},
		{"escaped text", vdom.Text("<b>&"), "&lt;b&gt;&amp;"},
		{"number text", vdom.TextOf(2.5), "2.5"},
		{
			"element",
			vdom.Div(vdom.Class("container"), vdom.H1("Title"), vdom.P("Content")),
			`<div class="container"><h1>Title</h1><p>Content</p></div>`,
		},
		{
			"sorted attributes",
			vdom.Div(vdom.TitleAttr("t"), vdom.ID("x"), vdom.Data("role", "card")),
			`<div data-role="card" id="x" title="t"></div>`,
		},
		{"void", vdom.Input(vdom.Type("text"), vdom.Disabled()), `<input disabled="" type="text"/>`},
		{"br", vdom.Br(), `<br/>`},
		{"false attribute", vdom.Input(vdom.Checked(false)), `<input/>`},
		{"number attribute", vdom.Div(vdom.AttrOf("tabindex", 3)), `<div tabindex="3"></div>`},
		{"escaped attribute", vdom.A(vdom.Href(`/q?a=1&b="2"`)), `<a href="/q?a=1&amp;b=&#34;2&#34;"></a>`},
		{"key skipped", vdom.Li(vdom.Key("a"), "A"), `<li>A</li>`},
		{"handler skipped", vdom.Button(vdom.OnClick(func() {}), "go"), `<button>go</button>`},
		{"fragment", vdom.Fragment(vdom.P("a"), "b"), `<p>a</p>b`},
		{"raw script", vdom.El("script", "if (a < b) {}"), `<script>if (a < b) {}</script>`},
		{"pre newline", vdom.El("pre", "\nx"), "<pre>\n\nx</pre>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderString(t, tt.node); got != tt.want {
				t.Errorf("RenderToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderEventMarkers(t *testing.T) {
	node := vdom.Button(vdom.OnClick(func() {}), vdom.OnInput(func() {}), "go")
	got, err := NewRenderer(RendererConfig{EventMarkers: true}).RenderToString(node)
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	want := `<button data-on-click="true" data-on-input="true">go</button>`
	if got != want {
		t.Errorf("RenderToString() = %q, want %q", got, want)
	}
}

func TestRenderPretty(t *testing.T) {
	node := vdom.Div(vdom.P("a"), vdom.Span("b"))
	got, err := NewRenderer(RendererConfig{Pretty: true}).RenderToString(node)
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	if !strings.Contains(got, "\n  <p>") {
		t.Errorf("pretty output not indented: %q", got)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		node *vdom.VNode
		path errors.Path
	}{
		{"void with children", vdom.Div(&vdom.VNode{Kind: vdom.KindElement, Tag: "br", Children: []*vdom.VNode{vdom.Text("x")}}), errors.Path{0}},
		{"empty tag", vdom.Div(vdom.P(), &vdom.VNode{Kind: vdom.KindElement}), errors.Path{1}},
		{"unknown kind", &vdom.VNode{Kind: 9}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRenderer(RendererConfig{}).RenderToString(tt.node)
			var ve *errors.Error
			if !stderrors.As(err, &ve) || ve.Code != "E204" {
				t.Fatalf("RenderToString() error = %v, want E204", err)
			}
			if ve.Path.String() != tt.path.String() {
				t.Errorf("error path = %s, want %s", ve.Path, tt.path)
			}
		})
	}
}

// TestRenderMatchesHost checks that the renderer and the HTML host agree on
// the serialization of the same snapshot.
func TestRenderMatchesHost(t *testing.T) {
	nodes := []*vdom.VNode{
		vdom.Div(vdom.ID("app"), vdom.Class("a b"), vdom.Hidden(), "x & y"),
		vdom.Ul(vdom.Li(vdom.Key("1"), `"quoted"`), vdom.Li(vdom.Key("2"), "it's")),
		vdom.Section(vdom.Input(vdom.Value(3), vdom.Disabled()), vdom.Br(), vdom.El("style", "a > b {}")),
		vdom.Fragment(vdom.P("one"), vdom.P("two"), "three"),
		vdom.Table(vdom.Tr(vdom.Td("cell"))),
	}
	for i, node := range nodes {
		doc := htmlhost.New()
		if err := doc.Mount(node); err != nil {
			t.Fatalf("Mount(%d) error = %v", i, err)
		}
		want, err := doc.HTML()
		if err != nil {
			t.Fatalf("HTML(%d) error = %v", i, err)
		}
		if got := renderString(t, node); got != want {
			t.Errorf("node %d: render = %q, host = %q", i, got, want)
		}
	}
}

func randomList(rng *rand.Rand) *vdom.VNode {
	n := rng.Intn(8)
	perm := rng.Perm(12)[:n]
	items := make([]*vdom.VNode, 0, n)
	for _, k := range perm {
		key := fmt.Sprintf("k%d", k)
		attrs := []vdom.Attr{vdom.Key(key)}
		if rng.Intn(2) == 0 {
			attrs = append(attrs, vdom.Class(fmt.Sprintf("c%d", rng.Intn(3))))
		}
		items = append(items, vdom.Li(attrs, key))
	}
	return vdom.Div(vdom.H1("list"), vdom.Ul(items))
}

// TestRenderRoundTrip checks that applying Diff(prev, next) to a document
// built from prev yields the HTML rendered from next.
func TestRenderRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for i := 0; i < 150; i++ {
		prev, next := randomList(rng), randomList(rng)

		doc := htmlhost.New()
		if err := doc.Mount(prev); err != nil {
			t.Fatalf("Mount() error = %v", err)
		}
		tree, err := patch.Diff(prev, next)
		if err != nil {
			t.Fatalf("Diff() error = %v", err)
		}
		if err := tree.Apply(doc, doc.Root()); err != nil {
			t.Fatalf("Apply() error = %v\n%s", err, tree)
		}
		got, err := doc.HTML()
		if err != nil {
			t.Fatalf("HTML() error = %v", err)
		}
		if want := renderString(t, next); got != want {
			t.Fatalf("case %d:\n got %s\nwant %s\npatches:\n%s", i, got, want, tree)
		}
	}
}

func TestRenderPage(t *testing.T) {
	var buf bytes.Buffer
	err := NewRenderer(RendererConfig{}).RenderPage(&buf, PageData{
		Title:       "Preview <1>",
		StyleSheets: []string{"/app.css"},
		Scripts:     []ScriptTag{{Src: "/live.js", Module: true}},
		SessionID:   "s-1",
		Body:        vdom.Div(vdom.ID("root"), "hi"),
	})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	page := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<title>Preview &lt;1&gt;</title>",
		`<link href="/app.css" rel="stylesheet"/>`,
		`<body data-session="s-1">`,
		`<div id="root">hi</div>`,
		`<script src="/live.js" type="module"></script>`,
		"</html>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}
}

func TestStreamingRenderPage(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := NewStreamingRenderer(rec, RendererConfig{})
	if err := sr.RenderPage(PageData{Title: "t", Body: vdom.P("body")}); err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if !rec.Flushed {
		t.Error("streaming renderer did not flush")
	}
	if !strings.Contains(rec.Body.String(), "<p>body</p>") {
		t.Errorf("body missing from %q", rec.Body.String())
	}
}
