package storage

import "time"

// KVConfig configures the embedded Badger engine behind the badger backend.
type KVConfig struct {
	Dir    string
	Badger BadgerConfig
}

// BadgerConfig holds Badger tuning knobs.
type BadgerConfig struct {
	// GCInterval spaces automatic value log GC runs. Zero disables them.
	GCInterval time.Duration
	// GCThreshold is the discard ratio (0-1) at which a value log file is
	// rewritten.
	GCThreshold float64

	CacheSize        int64
	ValueLogFileSize int64
	NumMemtables     int
	SyncWrites       bool
}

// KVStats is a point-in-time view of engine disk usage and GC activity.
type KVStats struct {
	LSMSize      int64
	ValueLogSize int64
	LastGC       time.Time
	GCRewrites   uint64
}

// DefaultKVConfig returns the default engine configuration rooted at dir.
func DefaultKVConfig(dir string) KVConfig {
	return KVConfig{Dir: dir, Badger: DefaultBadgerConfig()}
}

// DefaultBadgerConfig returns durable defaults sized for a small directory.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        16 << 20,
		ValueLogFileSize: 64 << 20,
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
