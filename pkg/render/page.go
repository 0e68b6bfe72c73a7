package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/vpatch/pkg/vdom"
)

// PageData contains everything needed to render a complete HTML page.
type PageData struct {
	// Body is the snapshot rendered inside <body>.
	Body *vdom.VNode

	// Title is the page title.
	Title string

	// Lang is the language attribute for the html element.
	// Defaults to "en" if not specified.
	Lang string

	// StyleSheets contains paths to external stylesheets.
	StyleSheets []string

	// Scripts contains script tags to include at the end of the body.
	Scripts []ScriptTag

	// SessionID identifies the live session the page streams from, if any.
	SessionID string
}

// ScriptTag represents a script element.
type ScriptTag struct {
	Src    string // src attribute
	Module bool   // type="module"
	Defer  bool   // defer attribute
	Inline string // inline script content
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	if err := r.renderHead(w, page); err != nil {
		return err
	}
	return r.renderBody(w, page)
}

func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n<head>\n", escapeHTML(lang)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, `  <meta charset="utf-8"/>`+"\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link href="%s" rel="stylesheet"/>`+"\n", escapeHTML(href)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n")
	return err
}

func (r *Renderer) renderBody(w io.Writer, page PageData) error {
	if page.SessionID != "" {
		if _, err := fmt.Fprintf(w, "<body data-session=\"%s\">\n", escapeHTML(page.SessionID)); err != nil {
			return err
		}
	} else if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}

	if err := r.RenderToWriter(w, page.Body); err != nil {
		return err
	}

	for _, script := range page.Scripts {
		if err := renderScriptTag(w, script); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n</body>\n</html>\n")
	return err
}

// renderScriptTag renders a script element.
func renderScriptTag(w io.Writer, script ScriptTag) error {
	if _, err := io.WriteString(w, "\n<script"); err != nil {
		return err
	}
	if script.Src != "" {
		if _, err := fmt.Fprintf(w, ` src="%s"`, escapeHTML(script.Src)); err != nil {
			return err
		}
	}
	if script.Module {
		if _, err := io.WriteString(w, ` type="module"`); err != nil {
			return err
		}
	}
	if script.Defer {
		if _, err := io.WriteString(w, ` defer=""`); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, ">%s</script>", script.Inline)
	return err
}
