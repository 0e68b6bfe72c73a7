package config

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/protocol"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Address() != "localhost:7070" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Limits() != protocol.DefaultLimits() {
		t.Errorf("Limits() = %+v, want defaults", cfg.Limits())
	}
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
	if cfg.ManagerConfig().IdleTimeout != 5*time.Minute {
		t.Errorf("IdleTimeout = %v", cfg.ManagerConfig().IdleTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); !stderrors.Is(err, errors.New("E220")) {
		t.Fatalf("Load(empty dir) error = %v, want E220", err)
	}

	writeFile(t, tmpDir, "vpatch.yaml", `
server:
  host: 0.0.0.0
  port: 8080
log:
  level: debug
  format: json
metrics:
  enabled: true
tracing:
  exporter: stdout
  sampleRatio: 0.25
protocol:
  maxDepth: 64
session:
  maxSessions: 3
  idleTimeout: 90s
snapshots:
  dir: snaps
  s3:
    region: eu-west-1
    pathStyle: true
`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Address() != "0.0.0.0:8080" {
		t.Errorf("Address() = %q", cfg.Address())
	}
	if cfg.LogLevel() != slog.LevelDebug || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Tracing.Exporter != "stdout" || cfg.Tracing.SampleRatio != 0.25 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	wantLimits := protocol.Limits{MaxDepth: 64, MaxAllocation: protocol.DefaultMaxAllocation, MaxCollection: protocol.DefaultMaxCollection}
	if cfg.Limits() != wantLimits {
		t.Errorf("Limits() = %+v, want %+v", cfg.Limits(), wantLimits)
	}
	mc := cfg.ManagerConfig()
	if mc.MaxSessions != 3 || mc.IdleTimeout != 90*time.Second {
		t.Errorf("ManagerConfig() = %+v", mc)
	}
	if cfg.Snapshots.S3.Region != "eu-west-1" || !cfg.Snapshots.S3.PathStyle {
		t.Errorf("Snapshots.S3 = %+v", cfg.Snapshots.S3)
	}
	if got, want := cfg.SnapshotPath("a.json"), filepath.Join(tmpDir, "snaps", "a.json"); got != want {
		t.Errorf("SnapshotPath() = %q, want %q", got, want)
	}
	if got := cfg.SnapshotPath("s3://b/a.json"); got != "s3://b/a.json" {
		t.Errorf("SnapshotPath(uri) = %q", got)
	}
	if cfg.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), tmpDir)
	}
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, tmpDir, "vpatch.json", `{"server": {"port": 9090}, "session": {"historySize": 10}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Host != DefaultHost {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Session.HistorySize != 10 {
		t.Errorf("Session.HistorySize = %d", cfg.Session.HistorySize)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode string
	}{
		{"bad yaml", "vpatch.yaml", "server: [", "E220"},
		{"bad json", "vpatch.json", "{", "E220"},
		{"port", "vpatch.yaml", "server:\n  port: 70000\n", "E221"},
		{"level", "vpatch.yaml", "log:\n  level: loud\n", "E221"},
		{"format", "vpatch.yaml", "log:\n  format: xml\n", "E221"},
		{"exporter", "vpatch.yaml", "tracing:\n  exporter: jaeger\n", "E221"},
		{"ratio", "vpatch.yaml", "tracing:\n  sampleRatio: 2\n", "E221"},
		{"allocation", "vpatch.yaml", "protocol:\n  maxAllocation: 999999999\n", "E221"},
		{"idle", "vpatch.yaml", "session:\n  idleTimeout: soon\n", "E221"},
		{"sessions", "vpatch.yaml", "session:\n  maxSessions: -1\n", "E221"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := LoadFile(path)
			if !stderrors.Is(err, errors.New(tt.wantCode)) {
				t.Errorf("LoadFile() error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"vpatch.yaml", "vpatch.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Server.Port = 1234
			cfg.Snapshots.S3.Endpoint = "http://localhost:9000"
			cfg.Server.AllowedOrigins = []string{"https://example.com"}

			path := filepath.Join(t.TempDir(), name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo() error = %v", err)
			}
			if cfg.Path() != path {
				t.Errorf("Path() = %q", cfg.Path())
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vpatch.yml", "log:\n  level: warn\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot() error = %v", err)
	}
	want, _ := filepath.Abs(root)
	if got != want {
		t.Errorf("FindProjectRoot() = %q, want %q", got, want)
	}
	if !Exists(root) || Exists(nested) {
		t.Errorf("Exists(root) = %v, Exists(nested) = %v", Exists(root), Exists(nested))
	}
}
