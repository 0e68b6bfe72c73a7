package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/vpatch/pkg/metrics"
)

func newRouter(mw ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw...)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("item " + chi.URLParam(r, "id")))
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	r.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	return r
}

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOpenTelemetryMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	var inHandler bool
	mw := OpenTelemetry(
		WithTracerProvider(tp),
		WithAttributeExtractor(func(*http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		inHandler = SpanFromContext(r.Context()) != nil
	})
	r.Get("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	serve(r, "/items/7")
	serve(r, "/fail")

	if !inHandler {
		t.Error("expected SpanFromContext to return a span inside the handler")
	}
	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended spans = %d, want 2", len(spans))
	}
	if got := spans[0].Name(); got != "GET /items/{id}" {
		t.Errorf("span name = %q, want route pattern", got)
	}
	var found bool
	for _, kv := range spans[0].Attributes() {
		if kv.Key == "test.attr" && kv.Value.AsString() == "ok" {
			found = true
		}
	}
	if !found {
		t.Error("custom attribute missing from span")
	}
	if got := spans[1].Status().Code; got != codes.Error {
		t.Errorf("5xx span status = %v, want Error", got)
	}
}

func TestOpenTelemetryFilterSkipsTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	h := newRouter(OpenTelemetry(
		WithTracerProvider(tp),
		WithFilter(func(r *http.Request) bool { return r.URL.Path != "/items/1" }),
	))
	if rec := serve(h, "/items/1"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if n := len(recorder.Ended()); n != 0 {
		t.Fatalf("ended spans = %d, want 0", n)
	}
}

func TestSpanFromContextNoSpan(t *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		t.Fatal("expected nil span for a bare context")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	h := newRouter(Metrics(m))

	serve(h, "/items/1")
	serve(h, "/items/2")
	serve(h, "/fail")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	counts := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "vpatch_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			var route, status string
			for _, lp := range metric.GetLabel() {
				switch lp.GetName() {
				case "route":
					route = lp.GetValue()
				case "status":
					status = lp.GetValue()
				}
			}
			counts[route+" "+status] = metric.GetCounter().GetValue()
		}
	}
	if counts["/items/{id} 2xx"] != 2 {
		t.Errorf("requests(/items/{id}, 2xx) = %v, want 2", counts["/items/{id} 2xx"])
	}
	if counts["/fail 5xx"] != 1 {
		t.Errorf("requests(/fail, 5xx) = %v, want 1", counts["/fail 5xx"])
	}
}

func TestMetricsMiddlewareNil(t *testing.T) {
	h := newRouter(Metrics(nil))
	if rec := serve(h, "/items/3"); rec.Body.String() != "item 3" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestRecoverAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := newRouter(Recover(logger), Logger(logger))

	rec := serve(h, "/panic")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "handler panic") {
		t.Errorf("panic not logged: %s", buf.String())
	}

	buf.Reset()
	serve(h, "/items/9")
	out := buf.String()
	if !strings.Contains(out, "path=/items/9") || !strings.Contains(out, "status=200") {
		t.Errorf("request log = %q", out)
	}
}
