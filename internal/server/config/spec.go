package config

import (
	"path/filepath"
	"time"
)

// ServerConfig is the root configuration for dirmesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Journal JournalSection `koanf:"journal"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the listeners.
type ServerSection struct {
	Protocol ProtocolConfig `koanf:"protocol"`
	HTTP     HTTPConfig     `koanf:"http"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// ProtocolConfig configures the directory protocol listener.
type ProtocolConfig struct {
	Addr    string `koanf:"addr" validate:"required,hostname_port"`
	Network string `koanf:"network" validate:"oneof=tcp4 tcp"`

	// Serialize serves one connection at a time.
	Serialize bool `koanf:"serialize"`

	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`

	// RateLimit is new connections per second per IP; zero disables it.
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`

	// StatusCodes selects the response code table (normalized, legacy).
	StatusCodes string `koanf:"status_codes"`

	// RejectMalformed answers malformed requests with a protocol failure
	// status instead of closing silently.
	RejectMalformed bool `koanf:"reject_malformed"`
}

// HTTPConfig configures the admin HTTP server.
type HTTPConfig struct {
	Enabled   bool    `koanf:"enabled"`
	Addr      string  `koanf:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
	RateLimit float64 `koanf:"rate_limit" validate:"gte=0"`
	RateBurst int     `koanf:"rate_burst" validate:"gte=0"`
}

// StorageSection configures the directory stores.
type StorageSection struct {
	Backend      string        `koanf:"backend" validate:"oneof=file badger memory"`
	DataDir      string        `koanf:"data_dir" validate:"required_unless=Backend memory"`
	ResetOnStart bool          `koanf:"reset_on_start"`
	Badger       BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the badger backend.
type BadgerSection struct {
	GCInterval time.Duration `koanf:"gc_interval" validate:"gt=0"`
	SyncWrites bool          `koanf:"sync_writes"`
}

// JournalSection configures the operation journal.
type JournalSection struct {
	Enabled bool `koanf:"enabled"`

	// Dir defaults to <storage.data_dir>/journal.
	Dir string `koanf:"dir"`

	SyncMode       string        `koanf:"sync_mode" validate:"oneof=batch sync"`
	SyncInterval   time.Duration `koanf:"sync_interval" validate:"gt=0"`
	MaxFileSize    int64         `koanf:"max_file_size" validate:"gt=0"`
	RetainSegments int           `koanf:"retain_segments" validate:"gte=0"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json text"`
}

// JournalDir returns the effective journal directory.
func (c *ServerConfig) JournalDir() string {
	if c.Journal.Dir != "" {
		return c.Journal.Dir
	}
	return filepath.Join(c.Storage.DataDir, "journal")
}
