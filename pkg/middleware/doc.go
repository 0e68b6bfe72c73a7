// Package middleware provides HTTP middleware for the vpatch server.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus metrics middleware
//   - Recovery and request logging
//
// All middleware has the func(http.Handler) http.Handler shape used by chi:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Recover(logger))
//	r.Use(middleware.Logger(logger))
//	r.Use(middleware.Metrics(m))
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("vpatch")))
//
// # OpenTelemetry Middleware
//
// Every request gets a server span named after its route pattern. The span
// travels in the request context, so handlers can add attributes:
//
//	if span := middleware.SpanFromContext(r.Context()); span != nil {
//	    span.SetAttributes(attribute.Int("vpatch.patch_count", n))
//	}
//
// # Prometheus Metrics
//
// Requests are counted and timed by route pattern and status class through
// metrics.Metrics. Patterns rather than raw paths keep label cardinality
// bounded.
package middleware
