package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/vpatch/pkg/patch"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/render"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// diffRequest is the body of POST /api/diff. Absent snapshots are null.
type diffRequest struct {
	Prev json.RawMessage `json:"prev"`
	Next json.RawMessage `json:"next"`
}

// treeResponse summarizes a patch tree.
type treeResponse struct {
	Seq     uint64         `json:"seq,omitempty"`
	Patches int            `json:"patches"`
	Counts  map[string]int `json:"counts,omitempty"`
	Tree    string         `json:"tree"`
}

func newTreeResponse(t *patch.Tree) treeResponse {
	resp := treeResponse{Patches: t.Len(), Tree: t.String()}
	for op, n := range t.Count() {
		if resp.Counts == nil {
			resp.Counts = make(map[string]int)
		}
		resp.Counts[op.String()] = n
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// readBody reads a request body bounded by MaxBodyBytes.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
			Code:    "E212",
			Message: "Decode limit exceeded",
			Detail:  err.Error(),
		})
		return nil, false
	}
	return data, true
}

// parseSnapshot decodes a nullable JSON snapshot.
func parseSnapshot(raw json.RawMessage) (*vdom.VNode, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	return vdom.ParseSnapshot(raw)
}

// handleDiff diffs two snapshots. The format query parameter selects the
// response: json (default), text or binary.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	var req diffRequest
	if err := json.Unmarshal(data, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	prev, err := parseSnapshot(req.Prev)
	if err != nil {
		writeError(w, err)
		return
	}
	next, err := parseSnapshot(req.Next)
	if err != nil {
		writeError(w, err)
		return
	}

	tree, err := patch.Diff(prev, next)
	if err != nil {
		s.metrics.RecordError(err)
		writeError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, tree.String())
	case "binary":
		payload, err := protocol.EncodePatchTree(tree)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	default:
		writeJSON(w, http.StatusOK, newTreeResponse(tree))
	}
}

// handleRender renders a JSON snapshot as an HTML fragment.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	v, err := vdom.ParseSnapshot(data)
	if err != nil {
		writeError(w, err)
		return
	}
	html, err := s.renderer.RenderToString(v)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID())
	writeJSON(w, http.StatusCreated, map[string]any{"id": sess.ID(), "seq": sess.Seq()})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.sessions.IDs()})
}

// handleSessionRender renders a JSON snapshot into a session.
func (s *Server) handleSessionRender(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}
	v, err := vdom.ParseSnapshot(data)
	if err != nil {
		writeError(w, err)
		return
	}

	update, err := sess.Render(r.Context(), v)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := newTreeResponse(update.Tree)
	resp.Seq = update.Seq
	writeJSON(w, http.StatusOK, resp)
}

// handleSessionHTML streams the session as a full HTML page.
func (s *Server) handleSessionHTML(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	sr := render.NewStreamingRenderer(w, render.RendererConfig{EventMarkers: true})
	page := render.PageData{
		Body:      sess.Snapshot(),
		Title:     r.URL.Query().Get("title"),
		SessionID: sess.ID(),
	}
	if err := sr.RenderPage(page); err != nil {
		// Headers are already out; the error can only be logged.
		s.logger.Warn("render page", "session_id", sess.ID(), "error", err)
	}
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
