package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vpatch/internal/errors"
	"github.com/vango-dev/vpatch/pkg/protocol"
	"github.com/vango-dev/vpatch/pkg/session"
)

const (
	// DefaultHost is the default server bind host.
	DefaultHost = "localhost"

	// DefaultPort is the default server port.
	DefaultPort = 7070

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "vpatch"

	// DefaultIdleTimeout is how long an idle session lives by default.
	DefaultIdleTimeout = "5m"

	// DefaultShutdownTimeout bounds graceful shutdown by default.
	DefaultShutdownTimeout = "10s"
)

// FileNames are the configuration file names Load looks for, in order.
var FileNames = []string{"vpatch.yaml", "vpatch.yml", "vpatch.json"}

// Config represents the complete vpatch configuration.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// Protocol contains wire decoding limits.
	Protocol ProtocolConfig `json:"protocol,omitempty" yaml:"protocol,omitempty"`

	// Session contains live session configuration.
	Session SessionConfig `json:"session,omitempty" yaml:"session,omitempty"`

	// Snapshots contains snapshot store configuration.
	Snapshots SnapshotsConfig `json:"snapshots,omitempty" yaml:"snapshots,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// MaxBodyBytes caps request bodies on the diff API. Zero means the
	// protocol allocation limit.
	MaxBodyBytes int64 `json:"maxBodyBytes,omitempty" yaml:"maxBodyBytes,omitempty"`

	// AllowedOrigins lists origins accepted on the WebSocket endpoint.
	// Empty means same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Exporter is "none" or "stdout".
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `json:"serviceName,omitempty" yaml:"serviceName,omitempty"`

	// SampleRatio is the fraction of traces sampled, in [0, 1].
	SampleRatio float64 `json:"sampleRatio,omitempty" yaml:"sampleRatio,omitempty"`
}

// ProtocolConfig contains decoding limits for untrusted frames.
type ProtocolConfig struct {
	MaxDepth      int `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	MaxAllocation int `json:"maxAllocation,omitempty" yaml:"maxAllocation,omitempty"`
	MaxCollection int `json:"maxCollection,omitempty" yaml:"maxCollection,omitempty"`
}

// SessionConfig contains live session settings.
type SessionConfig struct {
	// MaxSessions caps live sessions. Zero means unlimited.
	MaxSessions int `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`

	// IdleTimeout is how long a session may stay idle (e.g., "5m").
	IdleTimeout string `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`

	// HistorySize is the number of frames kept for resync.
	HistorySize int `json:"historySize,omitempty" yaml:"historySize,omitempty"`
}

// SnapshotsConfig contains snapshot store settings.
type SnapshotsConfig struct {
	// Dir is the directory relative snapshot names resolve against.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// S3 configures the client used for s3:// URIs.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config contains S3 client settings.
type S3Config struct {
	// Region is the AWS region. An empty region disables s3:// URIs.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// PathStyle addresses buckets by path instead of virtual host.
	PathStyle bool `json:"pathStyle,omitempty" yaml:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for the first of FileNames present in the directory.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E220").
		WithDetail("No vpatch.yaml or vpatch.json found in " + dir).
		WithSuggestion("Create vpatch.yaml or pass --config")
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension: .json is JSON, anything else YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E220").WithDetail("Failed to read " + path).Wrap(err)
	}

	cfg := &Config{}
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E220").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as JSON or YAML
// by extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("E220").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E220").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	// Server
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	// Tracing
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "none"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "vpatch"
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}

	// Protocol
	def := protocol.DefaultLimits()
	if c.Protocol.MaxDepth == 0 {
		c.Protocol.MaxDepth = def.MaxDepth
	}
	if c.Protocol.MaxAllocation == 0 {
		c.Protocol.MaxAllocation = def.MaxAllocation
	}
	if c.Protocol.MaxCollection == 0 {
		c.Protocol.MaxCollection = def.MaxCollection
	}

	// Session
	if c.Session.IdleTimeout == "" {
		c.Session.IdleTimeout = DefaultIdleTimeout
	}
	if c.Session.HistorySize == 0 {
		c.Session.HistorySize = session.DefaultHistorySize
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New("E221").WithDetail(detail)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port must be between 0 and 65535")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format must be text or json, got " + strconv.Quote(c.Log.Format))
	}
	if c.Tracing.Exporter != "none" && c.Tracing.Exporter != "stdout" {
		return invalid("tracing.exporter must be none or stdout, got " + strconv.Quote(c.Tracing.Exporter))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return invalid("tracing.sampleRatio must be between 0 and 1")
	}
	if c.Protocol.MaxDepth < 0 || c.Protocol.MaxCollection < 0 {
		return invalid("protocol limits must not be negative")
	}
	if c.Protocol.MaxAllocation < 0 || c.Protocol.MaxAllocation > protocol.HardMaxAllocation {
		return invalid("protocol.maxAllocation must be between 0 and " + strconv.Itoa(protocol.HardMaxAllocation))
	}
	if c.Session.MaxSessions < 0 || c.Session.HistorySize < 0 {
		return invalid("session limits must not be negative")
	}
	if _, err := parseDuration("session.idleTimeout", c.Session.IdleTimeout); err != nil {
		return err
	}
	if _, err := parseDuration("server.shutdownTimeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("E221").
			WithDetail(field + " must be a duration like \"30s\", got " + strconv.Quote(s))
	}
	return d, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, errors.New("E221").
			WithDetail("log.level must be debug, info, warn or error, got " + strconv.Quote(s))
	}
	return level, nil
}

// Address returns the server listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// LogLevel returns the configured slog level, or info if invalid.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Limits returns the protocol decoding limits.
func (c *Config) Limits() protocol.Limits {
	return protocol.Limits{
		MaxDepth:      c.Protocol.MaxDepth,
		MaxAllocation: c.Protocol.MaxAllocation,
		MaxCollection: c.Protocol.MaxCollection,
	}
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := parseDuration("server.shutdownTimeout", c.Server.ShutdownTimeout)
	return d
}

// ManagerConfig returns the session manager settings.
func (c *Config) ManagerConfig() session.ManagerConfig {
	mc := session.DefaultManagerConfig()
	mc.MaxSessions = c.Session.MaxSessions
	mc.IdleTimeout, _ = parseDuration("session.idleTimeout", c.Session.IdleTimeout)
	return mc
}

// SnapshotPath resolves a relative snapshot path against Snapshots.Dir.
// URIs and absolute paths are returned unchanged.
func (c *Config) SnapshotPath(p string) string {
	if c.Snapshots.Dir == "" || strings.Contains(p, "://") || filepath.IsAbs(p) {
		return p
	}
	dir := c.Snapshots.Dir
	if !filepath.IsAbs(dir) && c.Dir() != "" {
		dir = filepath.Join(c.Dir(), dir)
	}
	return filepath.Join(dir, p)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E220").
				WithDetail("No vpatch.yaml or vpatch.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest ancestor holding a config file. Without one it returns
// the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}
