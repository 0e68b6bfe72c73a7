package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/host/htmlhost"
	"github.com/vango-dev/vpatch/pkg/metrics"
	"github.com/vango-dev/vpatch/pkg/patch"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/vdom"
)

// DefaultHistorySize is the number of sent frames a session keeps for replay.
const DefaultHistorySize = 100

// Options are the collaborators shared by sessions.
type Options struct {
	// Logger receives session lifecycle and apply debug output.
	// Default: slog.Default().
	Logger *slog.Logger

	// Metrics records diff, apply and hook counts. May be nil.
	Metrics *metrics.Metrics

	// Tracer starts a span per render. Default: otel.Tracer("vpatch").
	Tracer trace.Tracer

	// Hooks are the ambient lifecycle hooks for every apply.
	Hooks patch.Hooks

	// HistorySize bounds the replay history. Default: DefaultHistorySize.
	HistorySize int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = otel.Tracer("vpatch")
	}
	if o.HistorySize <= 0 {
		o.HistorySize = DefaultHistorySize
	}
	return o
}

// Update is the result of one render.
type Update struct {
	// Seq is the session sequence after the render. An empty tree leaves
	// it unchanged.
	Seq uint64

	// Tree is the patch tree that moved the mirror to the new snapshot.
	Tree *patch.Tree

	// Frame carries the encoded tree. It is nil when Tree is empty.
	Frame *protocol.Frame
}

// Session is one reconciliation stream: a previous snapshot, the host tree
// mirroring it and the sequence of frames produced so far.
type Session struct {
	id string

	mu         sync.Mutex
	prev       *vdom.VNode
	doc        *htmlhost.Document
	seq        uint64
	closed     bool
	lastActive time.Time

	history *History
	opts    Options
	logger  *slog.Logger
}

// New creates an empty session. The first Render mounts the whole snapshot.
func New(id string, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		id:         id,
		doc:        htmlhost.New(),
		lastActive: time.Now(),
		history:    NewHistory(opts.HistorySize),
		opts:       opts,
		logger:     opts.Logger.With("session_id", id),
	}
	opts.Metrics.SessionOpened()
	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Render reconciles the session with next.
//
// On a diff error nothing changes. On an apply error the mirror is rebuilt
// from the previous snapshot, which stays current, and the error is returned.
func (s *Session) Render(ctx context.Context, next *vdom.VNode) (*Update, error) {
	_, span := s.opts.Tracer.Start(ctx, "vpatch.render",
		trace.WithAttributes(attribute.String("vpatch.session_id", s.id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, s.fail(span, errors.New("E252").WithDetailf("session %s", s.id))
	}
	s.lastActive = time.Now()

	start := time.Now()
	tree, err := patch.Diff(s.prev, next)
	s.opts.Metrics.ObserveDiff(time.Since(start), tree, err)
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.Int("vpatch.patches", tree.Len()))

	if tree.IsEmpty() {
		return &Update{Seq: s.seq, Tree: tree}, nil
	}

	start = time.Now()
	err = tree.Apply(s.doc, s.doc.Root(),
		patch.WithHooks(s.opts.Hooks),
		patch.WithHookObserver(s.opts.Metrics.HookObserver()),
		patch.WithLogger(s.logger),
	)
	s.opts.Metrics.ObserveApply(time.Since(start), err)
	if err != nil {
		s.logger.Warn("apply failed, rebuilding mirror", "error", err)
		if rerr := s.rebuild(); rerr != nil {
			s.logger.Error("rebuild failed", "error", rerr)
		}
		return nil, s.fail(span, err)
	}
	s.doc.Prune()

	payload, err := protocol.EncodePatchTree(tree)
	if err != nil {
		// The mirror already moved; resync peers from the new snapshot.
		s.prev = vdom.Clone(next)
		s.seq++
		s.history.Clear()
		return nil, s.fail(span, err)
	}

	s.prev = vdom.Clone(next)
	s.seq++
	frame := protocol.PatchFrame(s.seq, payload)
	s.history.Add(s.seq, frame.Encode())
	span.SetAttributes(attribute.Int64("vpatch.seq", int64(s.seq)))

	s.logger.Debug("rendered", "seq", s.seq, "patches", tree.Len(), "bytes", len(payload))
	return &Update{Seq: s.seq, Tree: tree, Frame: frame}, nil
}

func (s *Session) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.opts.Metrics.RecordError(err)
	return err
}

// rebuild replaces the mirror with a fresh materialization of prev.
// Callers hold mu.
func (s *Session) rebuild() error {
	doc := htmlhost.New()
	if s.prev != nil {
		if err := doc.Mount(s.prev); err != nil {
			return err
		}
	}
	s.doc = doc
	return nil
}

// Seq returns the sequence number of the last frame produced.
func (s *Session) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Snapshot returns a copy of the current snapshot.
func (s *Session) Snapshot() *vdom.VNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return vdom.Clone(s.prev)
}

// HTML serializes the mirror.
func (s *Session) HTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.HTML()
}

// SnapshotFrame encodes the current snapshot as a FrameSnapshot tagged with
// the current sequence.
func (s *Session) SnapshotFrame() (*protocol.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotFrame()
}

func (s *Session) snapshotFrame() (*protocol.Frame, error) {
	payload, err := protocol.EncodeSnapshot(s.prev)
	if err != nil {
		return nil, err
	}
	return protocol.SnapshotFrame(s.seq, payload), nil
}

// Resync returns the encoded frames a peer that applied up to after needs
// to catch up. When history no longer covers the gap it returns a single
// snapshot frame instead.
func (s *Session) Resync(after uint64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if after > s.seq {
		return nil, errors.New("E253").WithDetailf("peer acknowledged seq %d, session is at %d", after, s.seq)
	}
	if after == s.seq {
		return nil, nil
	}
	if frames, ok := s.history.Since(after); ok {
		return frames, nil
	}
	f, err := s.snapshotFrame()
	if err != nil {
		return nil, err
	}
	return [][]byte{f.Encode()}, nil
}

// LastActive reports when the session last rendered.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close tears the mirror down so willDisconnect hooks run for every mounted
// node. Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	_, span := s.opts.Tracer.Start(ctx, "vpatch.close",
		trace.WithAttributes(attribute.String("vpatch.session_id", s.id)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.history.Clear()
	s.opts.Metrics.SessionClosed()

	if s.prev == nil {
		return nil
	}
	tree, err := patch.Diff(s.prev, nil)
	if err != nil {
		return s.fail(span, err)
	}
	err = tree.Apply(s.doc, s.doc.Root(),
		patch.WithHooks(s.opts.Hooks),
		patch.WithHookObserver(s.opts.Metrics.HookObserver()),
		patch.WithLogger(s.logger),
	)
	s.prev = nil
	s.doc.Prune()
	if err != nil {
		return s.fail(span, err)
	}
	s.logger.Debug("session closed", "seq", s.seq)
	return nil
}
