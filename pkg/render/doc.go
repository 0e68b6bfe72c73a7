// Package render serializes vdom snapshots to HTML.
//
// The output follows the serialization of golang.org/x/net/html, so a
// snapshot rendered here matches a host document built from the same
// snapshot and rendered with html.Render:
//
//   - Attributes are written in sorted order, always quoted
//   - true renders as an empty attribute, false and nil are omitted
//   - Void elements are written as <br/>
//   - Text inside script, style and similar raw-text elements is not escaped
//   - The reserved key prop and event handlers never appear as attributes
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// # Full Page Rendering
//
//	err := renderer.RenderPage(w, render.PageData{Title: "Preview", Body: node})
//
// # Streaming
//
// StreamingRenderer flushes the head of a page before rendering the body.
package render
