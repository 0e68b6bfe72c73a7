package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/vpatch/pkg/protocol"
)

// Config holds server configuration.
type Config struct {
	// Address is the listen address.
	Address string

	// ReadBufferSize and WriteBufferSize size the WebSocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the Origin of WebSocket upgrades.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// MaxBodyBytes caps HTTP request bodies and WebSocket messages.
	// Default: the protocol allocation limit.
	MaxBodyBytes int64

	// Limits bound binary frames decoded from clients.
	Limits protocol.Limits

	// WriteTimeout bounds one WebSocket write.
	WriteTimeout time.Duration

	// ReadTimeout is how long a WebSocket may stay silent before it is
	// dropped. Pings from the server keep healthy peers alive.
	ReadTimeout time.Duration

	// PingInterval is the WebSocket heartbeat period.
	PingInterval time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":7070",
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
		MaxBodyBytes:      protocol.DefaultMaxAllocation,
		Limits:            protocol.DefaultLimits(),
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      25 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.Address == "" {
		out.Address = def.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = def.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = def.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = def.CheckOrigin
	}
	if out.MaxBodyBytes == 0 {
		out.MaxBodyBytes = def.MaxBodyBytes
	}
	if out.Limits == (protocol.Limits{}) {
		out.Limits = def.Limits
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = def.ReadTimeout
	}
	if out.PingInterval == 0 {
		out.PingInterval = def.PingInterval
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = def.ShutdownTimeout
	}
	if out.ReadHeaderTimeout == 0 {
		out.ReadHeaderTimeout = def.ReadHeaderTimeout
	}
	return &out
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// No Origin header (e.g., same-origin request or curl)
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}
	return originURL.Host == host
}

// AllowOrigins returns an origin check that accepts same-origin requests
// and the listed origins.
func AllowOrigins(origins ...string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		if allowed[r.Header.Get("Origin")] {
			return true
		}
		return SameOriginCheck(r)
	}
}
