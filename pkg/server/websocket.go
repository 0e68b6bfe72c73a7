package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/session"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// SessionHeader carries the session ID on the WebSocket upgrade response.
const SessionHeader = "X-Vpatch-Session"

// wsConn is one WebSocket attached to a session.
type wsConn struct {
	s      *Server
	ws     *websocket.Conn
	sess   *session.Session
	logger *slog.Logger

	writeMu sync.Mutex
	acked   atomic.Uint64
}

// handleWebSocket upgrades the request and serves the session until the
// peer disconnects. The session outlives the connection so the peer can
// resume it.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		sess   *session.Session
		err    error
		resume bool
		after  uint64
	)
	if id := q.Get("session"); id != "" {
		if sess, err = s.sessions.Get(id); err != nil {
			writeError(w, err)
			return
		}
		if a := q.Get("after"); a != "" {
			if after, err = strconv.ParseUint(a, 10, 64); err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody{Code: "E253", Message: "Sequence out of range", Detail: "after must be an unsigned integer"})
				return
			}
			resume = true
		}
	} else if sess, err = s.sessions.Create(); err != nil {
		writeError(w, err)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, http.Header{SessionHeader: {sess.ID()}})
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsConn{
		s:      s,
		ws:     ws,
		sess:   sess,
		logger: s.logger.With("session_id", sess.ID()),
	}
	s.track(c, true)
	defer s.track(c, false)

	c.serve(r.Context(), resume, after)
}

// track registers or forgets a live connection.
func (s *Server) track(c *wsConn, live bool) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	if live {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// closeConns sends a going-away close to every live connection.
func (s *Server) closeConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for c := range s.conns {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, s.writeDeadline())
		_ = c.ws.Close()
	}
}

func (c *wsConn) serve(ctx context.Context, resume bool, after uint64) {
	defer c.ws.Close()

	readTimeout := c.s.config.ReadTimeout
	c.ws.SetReadLimit(c.s.config.MaxBodyBytes)
	c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	if err := c.sync(resume, after); err != nil {
		c.logger.Warn("initial sync failed", "error", err)
		return
	}
	c.logger.Info("websocket connected", "resume", resume, "after", after)

	done := make(chan struct{})
	defer close(done)
	go c.pingLoop(done)

	for {
		mt, msg, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Warn("read error", "error", err)
			}
			c.logger.Info("websocket disconnected", "acked", c.acked.Load())
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(readTimeout))

		var fatal bool
		switch mt {
		case websocket.TextMessage:
			fatal = c.handleJSON(ctx, msg)
		case websocket.BinaryMessage:
			fatal = c.handleFrame(ctx, msg)
		}
		if fatal {
			return
		}
	}
}

// sync brings a new connection up to date: a replay of the frames after
// the peer's last sequence when resuming, the current snapshot otherwise.
func (c *wsConn) sync(resume bool, after uint64) error {
	if resume {
		frames, err := c.sess.Resync(after)
		if err != nil {
			c.sendError(err, true)
			return err
		}
		for _, data := range frames {
			if err := c.write(protocol.FrameType(data[0]), data); err != nil {
				return err
			}
		}
		if len(frames) == 0 {
			return c.writeFrame(protocol.AckFrame(after))
		}
		return nil
	}

	f, err := c.sess.SnapshotFrame()
	if err != nil {
		c.sendError(err, true)
		return err
	}
	return c.writeFrame(f)
}

func (c *wsConn) pingLoop(done <-chan struct{}) {
	ticker := time.NewTicker(c.s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, c.s.writeDeadline()); err != nil {
				c.logger.Debug("ping failed", "error", err)
				return
			}
		case <-done:
			return
		}
	}
}

// handleJSON renders a JSON snapshot message.
func (c *wsConn) handleJSON(ctx context.Context, msg []byte) bool {
	v, err := vdom.ParseSnapshot(msg)
	if err != nil {
		return c.sendError(err, false)
	}
	return c.render(ctx, v)
}

// handleFrame dispatches a binary frame from the peer.
func (c *wsConn) handleFrame(ctx context.Context, msg []byte) bool {
	f, err := protocol.DecodeFrame(msg)
	if err != nil {
		return c.sendError(err, false)
	}

	switch f.Type {
	case protocol.FrameSnapshot:
		_, payload, err := f.Sequence()
		if err != nil {
			return c.sendError(err, false)
		}
		v, err := protocol.DecodeSnapshot(payload, c.s.config.Limits)
		if err != nil {
			return c.sendError(err, false)
		}
		return c.render(ctx, v)

	case protocol.FrameAck:
		seq, _, err := f.Sequence()
		if err != nil {
			return c.sendError(err, false)
		}
		if seq > c.sess.Seq() {
			return c.sendError(errors.New("E253").WithDetailf("ack for seq %d", seq), false)
		}
		c.acked.Store(seq)
		c.logger.Debug("received ack", "seq", seq)
		return false
	}

	return c.sendError(errors.New("E211").WithDetailf("unexpected %s frame from client", f.Type), false)
}

// render reconciles the session with v and sends the result.
func (c *wsConn) render(ctx context.Context, v *vdom.VNode) bool {
	update, err := c.sess.Render(ctx, v)
	if err != nil {
		return c.sendError(err, isFatal(err))
	}
	f := update.Frame
	if f == nil {
		f = protocol.AckFrame(update.Seq)
	}
	if err := c.writeFrame(f); err != nil {
		c.logger.Warn("write error", "error", err)
		return true
	}
	return false
}

// isFatal reports errors after which the connection cannot continue.
func isFatal(err error) bool {
	return stderrors.Is(err, errors.New("E251")) || stderrors.Is(err, errors.New("E252"))
}

// sendError reports err to the peer and returns fatal, or true when the
// error frame itself could not be written.
func (c *wsConn) sendError(err error, fatal bool) bool {
	c.logger.Debug("client error", "error", err, "fatal", fatal)
	c.s.metrics.RecordError(err)
	if werr := c.writeFrame(protocol.ErrorFrame(protocol.NewErrorMessage(err, fatal))); werr != nil {
		return true
	}
	return fatal
}

func (c *wsConn) writeFrame(f *protocol.Frame) error {
	return c.write(f.Type, f.Encode())
}

// write sends one encoded frame. Writes are serialized.
func (c *wsConn) write(ft protocol.FrameType, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(c.s.writeDeadline())
	if err := c.ws.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return err
	}
	c.s.metrics.FrameSent(ft)
	return nil
}
