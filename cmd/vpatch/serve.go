package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vpatch/internal/config"
	"github.com/vango-dev/vpatch/internal/telemetry"
	"github.com/vango-dev/vpatch/pkg/metrics"
	"github.com/vango-dev/vpatch/pkg/server"
	"github.com/vango-dev/vpatch/pkg/session"
)

func serveCmd(a *app) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the session server",
		Long: `Run the HTTP and WebSocket session server.

Clients push snapshots to a session and receive patch frames. See the
server package documentation for the routes and the frame protocol.

Examples:
  vpatch serve
  vpatch serve --port=8080
  vpatch serve --config=deploy/vpatch.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			if host != "" {
				a.cfg.Server.Host = host
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printBanner(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "  serving on http://%s\n\n", a.cfg.Address())
			return a.serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from vpatch.yaml)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from vpatch.yaml)")

	return cmd
}

// serve wires telemetry, metrics and sessions into a server and runs it
// until ctx is done.
func (a *app) serve(ctx context.Context) error {
	tp, err := telemetry.Setup(telemetry.Config{
		ServiceName:    a.cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Exporter:       a.cfg.Tracing.Exporter,
		SampleRatio:    a.cfg.Tracing.SampleRatio,
		Writer:         os.Stderr,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout())
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("tracer shutdown", "error", err)
		}
	}()

	var (
		m        *metrics.Metrics
		registry *prometheus.Registry
	)
	if a.cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(metrics.WithNamespace(a.cfg.Metrics.Namespace), metrics.WithRegistry(registry))
	}

	sessions := session.NewManager(a.cfg.ManagerConfig(), session.Options{
		Logger:      a.logger,
		Metrics:     m,
		Tracer:      tp.Tracer("vpatch"),
		HistorySize: a.cfg.Session.HistorySize,
	})

	opts := []server.Option{
		server.WithLogger(a.logger),
		server.WithTracerProvider(tp.TracerProvider()),
	}
	if m != nil {
		opts = append(opts, server.WithMetrics(m, registry))
	}
	srv := server.New(serverConfig(a.cfg), sessions, opts...)
	return srv.Run(ctx)
}

// serverConfig maps the file configuration onto the server's.
func serverConfig(cfg *config.Config) *server.Config {
	sc := server.DefaultConfig()
	sc.Address = cfg.Address()
	sc.Limits = cfg.Limits()
	sc.ShutdownTimeout = cfg.ShutdownTimeout()
	if cfg.Server.MaxBodyBytes > 0 {
		sc.MaxBodyBytes = cfg.Server.MaxBodyBytes
	}
	if len(cfg.Server.AllowedOrigins) > 0 {
		sc.CheckOrigin = server.AllowOrigins(cfg.Server.AllowedOrigins...)
	}
	return sc
}
