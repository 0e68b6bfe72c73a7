// Package server exposes the reconciliation engine over HTTP and WebSocket.
//
// Routes:
//
//	GET    /healthz                  liveness and live session count
//	GET    /metrics                  Prometheus exposition (when enabled)
//	POST   /api/diff                 diff two JSON snapshots
//	POST   /api/render               render a JSON snapshot to HTML
//	POST   /sessions                 create a live session
//	GET    /sessions                 list live session IDs
//	PUT    /sessions/{id}            render a JSON snapshot into a session
//	GET    /sessions/{id}/html       stream the session as an HTML page
//	DELETE /sessions/{id}            close a session
//	GET    /ws                       live session over WebSocket
//
// # WebSocket Protocol
//
// The upgrade response carries the session ID in the X-Vpatch-Session
// header. A client may resume a session with ?session=ID&after=SEQ, in which
// case the server replays the frames it missed, or a snapshot frame when
// its history no longer covers the gap. A fresh connection receives the
// current snapshot frame.
//
// Clients send snapshots either as JSON text messages or as binary
// FrameSnapshot frames. Each accepted snapshot is answered with a
// FramePatches frame, or a FrameAck frame carrying the unchanged sequence
// when nothing changed. Clients acknowledge applied frames with FrameAck.
// Failures are reported with FrameError frames; fatal ones close the
// connection.
package server
