package config

import "time"

// Default configuration values.
const (
	DefaultProtocolAddr    = "0.0.0.0:8888"
	DefaultProtocolNetwork = "tcp4"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultRateBurst       = 10
	DefaultStatusCodes     = "normalized"

	DefaultHTTPAddr      = "127.0.0.1:8889"
	DefaultHTTPRateLimit = 100
	DefaultHTTPRateBurst = 50

	DefaultShutdownTimeout = 30 * time.Second

	DefaultBackend          = "file"
	DefaultDataDir          = "./data"
	DefaultBadgerGCInterval = 10 * time.Minute

	DefaultJournalSyncMode     = "batch"
	DefaultJournalSyncInterval = time.Second
	DefaultJournalMaxFileSize  = 64 << 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Protocol: ProtocolConfig{
				Addr:         DefaultProtocolAddr,
				Network:      DefaultProtocolNetwork,
				Serialize:    true,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				RateBurst:    DefaultRateBurst,
				StatusCodes:  DefaultStatusCodes,
			},
			HTTP: HTTPConfig{
				Enabled:   true,
				Addr:      DefaultHTTPAddr,
				RateLimit: DefaultHTTPRateLimit,
				RateBurst: DefaultHTTPRateBurst,
			},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Storage: StorageSection{
			Backend:      DefaultBackend,
			DataDir:      DefaultDataDir,
			ResetOnStart: true,
			Badger: BadgerSection{
				GCInterval: DefaultBadgerGCInterval,
				SyncWrites: true,
			},
		},
		Journal: JournalSection{
			Enabled:      true,
			SyncMode:     DefaultJournalSyncMode,
			SyncInterval: DefaultJournalSyncInterval,
			MaxFileSize:  DefaultJournalMaxFileSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
