package render

import "strings"

const escapedChars = "&'<>\"\r"

// escapeHTML escapes text and attribute values. It uses the same entities as
// html.Render so both serializations agree byte for byte.
func escapeHTML(s string) string {
	if !strings.ContainsAny(s, escapedChars) {
		return s
	}
	var buf strings.Builder
	buf.Grow(len(s) + 16)

	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '\'':
			buf.WriteString("&#39;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&#34;")
		case '\r':
			buf.WriteString("&#13;")
		default:
			buf.WriteRune(r)
		}
	}

	return buf.String()
}
