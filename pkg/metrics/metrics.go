// Package metrics collects Prometheus metrics for diffing, patch application
// and live sessions.
package metrics

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/patch"
	"github.com/vango-dev/vpatch/pkg/protocol"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "vpatch").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "vpatch",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors. A nil *Metrics records nothing, so callers
// never need to check whether metrics are enabled.
type Metrics struct {
	diffsTotal     *prometheus.CounterVec
	diffDuration   prometheus.Histogram
	patchesTotal   *prometheus.CounterVec
	applyTotal     *prometheus.CounterVec
	applyDuration  prometheus.Histogram
	hooksTotal     *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	activeSessions prometheus.Gauge
	framesSent     *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New registers the collectors with the configured registry.
//
// Metrics collected:
//   - vpatch_diffs_total: Counter of diffs by status
//   - vpatch_diff_duration_seconds: Histogram of diff duration
//   - vpatch_patches_total: Counter of patches produced by op
//   - vpatch_apply_total: Counter of tree applications by status
//   - vpatch_apply_duration_seconds: Histogram of apply duration
//   - vpatch_hooks_total: Counter of lifecycle hooks fired by kind
//   - vpatch_errors_total: Counter of errors by code
//   - vpatch_active_sessions: Gauge of live sessions
//   - vpatch_frames_sent_total: Counter of frames written by type
//   - vpatch_http_requests_total: Counter of HTTP requests by route and status
//   - vpatch_http_request_duration_seconds: Histogram of HTTP request duration
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	histogram := func(name, help string) prometheus.Histogram {
		return factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		})
	}

	return &Metrics{
		diffsTotal:    counter("diffs_total", "Total number of snapshot diffs", "status"),
		diffDuration:  histogram("diff_duration_seconds", "Diff duration in seconds"),
		patchesTotal:  counter("patches_total", "Total number of patches produced", "op"),
		applyTotal:    counter("apply_total", "Total number of patch tree applications", "status"),
		applyDuration: histogram("apply_duration_seconds", "Patch tree application duration in seconds"),
		hooksTotal:    counter("hooks_total", "Total number of lifecycle hooks fired", "kind"),
		errorsTotal:   counter("errors_total", "Total number of errors by code", "code"),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live sessions",
			ConstLabels: config.ConstLabels,
		}),
		framesSent:   counter("frames_sent_total", "Total number of protocol frames written", "type"),
		httpRequests: counter("http_requests_total", "Total number of HTTP requests", "route", "status"),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"route"}),
	}
}

// ObserveDiff records one diff and the patches it produced.
func (m *Metrics) ObserveDiff(d time.Duration, t *patch.Tree, err error) {
	if m == nil {
		return
	}
	m.diffDuration.Observe(d.Seconds())
	if err != nil {
		m.diffsTotal.WithLabelValues("error").Inc()
		m.RecordError(err)
		return
	}
	m.diffsTotal.WithLabelValues("ok").Inc()
	for op, n := range t.Count() {
		m.patchesTotal.WithLabelValues(op.String()).Add(float64(n))
	}
}

// ObserveApply records one patch tree application.
func (m *Metrics) ObserveApply(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.applyDuration.Observe(d.Seconds())
	if err != nil {
		m.applyTotal.WithLabelValues("error").Inc()
		m.RecordError(err)
		return
	}
	m.applyTotal.WithLabelValues("ok").Inc()
}

// HookObserver returns an observer for patch.WithHookObserver that counts
// fired hooks by kind.
func (m *Metrics) HookObserver() func(patch.HookKind) {
	if m == nil {
		return nil
	}
	return func(kind patch.HookKind) {
		m.hooksTotal.WithLabelValues(string(kind)).Inc()
	}
}

// RecordError counts err under its registered code, or "unknown".
func (m *Metrics) RecordError(err error) {
	if m == nil || err == nil {
		return
	}
	m.errorsTotal.WithLabelValues(ErrorCode(err)).Inc()
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// SessionClosed records the end of a live session.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// FrameSent records a frame written to a peer.
func (m *Metrics) FrameSent(ft protocol.FrameType) {
	if m != nil {
		m.framesSent.WithLabelValues(ft.String()).Inc()
	}
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ErrorCode returns the registered code carried by err, or "unknown".
// Codes keep the label cardinality bounded, unlike error messages.
func ErrorCode(err error) string {
	var ve *errors.Error
	if stderrors.As(err, &ve) && ve.Code != "" {
		return ve.Code
	}
	return "unknown"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	case status >= 100:
		return "1xx"
	default:
		return "2xx"
	}
}
