// Package telemetry sets up the OpenTelemetry tracer provider.
//
// Spans are exported to stdout or dropped, depending on configuration.
// Setup installs the provider globally and returns it so callers can hand
// its tracer to sessions and middleware explicitly.
package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/vpatch/internal/errors"
)

// Config selects the exporter and identifies the service.
type Config struct {
	// ServiceName identifies this service in traces.
	ServiceName string

	// ServiceVersion is the version string for this service.
	ServiceVersion string

	// Exporter is "stdout" or "none".
	Exporter string

	// SampleRatio is the fraction of root spans sampled.
	SampleRatio float64

	// Writer receives stdout exports. Default: os.Stdout.
	Writer io.Writer
}

// Provider is an installed tracer provider.
type Provider struct {
	tp       trace.TracerProvider
	shutdown func(context.Context) error
}

// Setup creates the tracer provider for cfg and installs it with
// otel.SetTracerProvider. The "none" exporter installs a no-op provider.
func Setup(cfg Config) (*Provider, error) {
	switch cfg.Exporter {
	case "", "none":
		p := &Provider{
			tp:       noop.NewTracerProvider(),
			shutdown: func(context.Context) error { return nil },
		}
		otel.SetTracerProvider(p.tp)
		return p, nil

	case "stdout":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, errors.New("E221").WithDetail("create stdout trace exporter").Wrap(err)
		}

		res := resource.NewWithAttributes(
			"",
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		)
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		)
		otel.SetTracerProvider(tp)
		return &Provider{tp: tp, shutdown: tp.Shutdown}, nil
	}
	return nil, errors.New("E221").WithDetailf("unknown trace exporter %q", cfg.Exporter)
}

// TracerProvider returns the installed provider.
func (p *Provider) TracerProvider() trace.TracerProvider {
	return p.tp
}

// Tracer returns a named tracer from the provider.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Shutdown flushes pending spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}
