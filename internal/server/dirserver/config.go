package dirserver

import (
	"time"

	"github.com/yndnr/dirmesh-go/internal/protocol"
)

// Config holds the directory listener configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// Network is "tcp4" or "tcp".
	Network string
	// Serialize waits for each connection to finish before accepting the
	// next one.
	Serialize bool
	// ReadTimeout bounds reading the whole request.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing the whole reply.
	WriteTimeout time.Duration
	// RateLimit is the number of connections per second allowed per client
	// IP. Zero disables limiting.
	RateLimit float64
	// RateBurst is the per-IP burst allowance.
	RateBurst int
	// Codes selects the status code table.
	Codes protocol.Codes
	// RejectMalformed answers malformed requests with a protocol failure
	// status instead of closing silently.
	RejectMalformed bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "0.0.0.0:8888",
		Network:      "tcp4",
		Serialize:    true,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		RateBurst:    10,
		Codes:        protocol.Normalized,
	}
}
