package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrKeyNotFound = errors.New("storage: key not found")
	ErrClosed      = errors.New("storage: engine closed")
)

// BadgerEngine wraps a Badger database with context checks, periodic value
// log GC and Prometheus collection.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	closed     atomic.Bool
	lastGC     atomic.Int64 // unix nanoseconds
	gcRewrites atomic.Uint64

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewBadgerEngine opens or creates the database in cfg.Dir.
func NewBadgerEngine(cfg KVConfig, logger *slog.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := cfg.Badger
	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(badgerLogger{logger}).
		WithSyncWrites(b.SyncWrites)
	if b.CacheSize > 0 {
		opts = opts.WithBlockCacheSize(b.CacheSize)
	}
	if b.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(b.ValueLogFileSize)
	}
	if b.NumMemtables > 0 {
		opts = opts.WithNumMemtables(b.NumMemtables)
	}
	if b.GCThreshold <= 0 || b.GCThreshold >= 1 {
		b.GCThreshold = 0.5
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", cfg.Dir, err)
	}

	e := &BadgerEngine{db: db, cfg: b, logger: logger, stop: make(chan struct{})}
	if b.GCInterval > 0 {
		e.wg.Add(1)
		go e.gcLoop(b.GCInterval)
	}

	logger.Info("badger opened",
		"dir", cfg.Dir,
		"sync_writes", b.SyncWrites,
		"gc_interval", b.GCInterval)
	return e, nil
}

// Get returns a copy of the value under key, or ErrKeyNotFound.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	var out []byte
	err := e.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// Set stores value under key.
func (e *BadgerEngine) Set(ctx context.Context, key, value []byte) error {
	return e.Update(ctx, func(txn *badger.Txn) error { return txn.Set(key, value) })
}

// Delete removes key. Deleting a missing key is not an error.
func (e *BadgerEngine) Delete(ctx context.Context, key []byte) error {
	return e.Update(ctx, func(txn *badger.Txn) error { return txn.Delete(key) })
}

// Scan calls fn for each key under prefix in key order until fn returns
// false.
func (e *BadgerEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	return e.View(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 64})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.KeyCopy(nil), val) {
				return nil
			}
		}
		return nil
	})
}

// View runs fn in a read-only transaction.
func (e *BadgerEngine) View(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := e.usable(ctx); err != nil {
		return err
	}
	return e.db.View(fn)
}

// Update runs fn in a read-write transaction; its writes commit together.
func (e *BadgerEngine) Update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := e.usable(ctx); err != nil {
		return err
	}
	return e.db.Update(fn)
}

// Sequence leases a persistent monotonic counter stored under key. Release
// it before closing the engine.
func (e *BadgerEngine) Sequence(key []byte, bandwidth uint64) (*badger.Sequence, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	return e.db.GetSequence(key, bandwidth)
}

// DropAll deletes every key.
func (e *BadgerEngine) DropAll(ctx context.Context) error {
	if err := e.usable(ctx); err != nil {
		return err
	}
	return e.db.DropAll()
}

// GC rewrites value log files until Badger finds nothing worth rewriting.
// It returns the number of files rewritten.
func (e *BadgerEngine) GC(ctx context.Context) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	start := time.Now()

	var n uint64
	for ctx.Err() == nil {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("badger: value log gc: %w", err)
		}
		n++
	}
	if err := ctx.Err(); err != nil {
		return n, err
	}

	e.lastGC.Store(time.Now().UnixNano())
	e.gcRewrites.Add(n)
	e.logger.Debug("badger gc finished", "rewrites", n, "took", time.Since(start))
	return n, nil
}

// Stats reports current disk usage and GC counters.
func (e *BadgerEngine) Stats() (KVStats, error) {
	if e.closed.Load() {
		return KVStats{}, ErrClosed
	}
	lsm, vlog := e.db.Size()
	st := KVStats{LSMSize: lsm, ValueLogSize: vlog, GCRewrites: e.gcRewrites.Load()}
	if ns := e.lastGC.Load(); ns > 0 {
		st.LastGC = time.Unix(0, ns)
	}
	return st, nil
}

// Close stops GC and closes the database. Later calls are no-ops.
func (e *BadgerEngine) Close() error {
	var err error
	e.once.Do(func() {
		close(e.stop)
		e.wg.Wait()
		e.closed.Store(true)
		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("badger: close: %w", cerr)
		}
		e.logger.Info("badger closed")
	})
	return err
}

// RegisterMetrics exposes engine statistics on reg. Values are read at
// scrape time.
func (e *BadgerEngine) RegisterMetrics(reg prometheus.Registerer) error {
	return reg.Register(&engineCollector{engine: e})
}

func (e *BadgerEngine) usable(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return ctx.Err()
}

func (e *BadgerEngine) gcLoop(every time.Duration) {
	defer e.wg.Done()
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-t.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), every)
		if _, err := e.GC(ctx); err != nil && !errors.Is(err, ErrClosed) {
			e.logger.Warn("badger gc failed", "error", err)
		}
		cancel()
	}
}

var (
	lsmSizeDesc = prometheus.NewDesc("dirmesh_badger_lsm_size_bytes",
		"Size of the Badger LSM tree in bytes.", nil, nil)
	vlogSizeDesc = prometheus.NewDesc("dirmesh_badger_value_log_size_bytes",
		"Size of the Badger value log in bytes.", nil, nil)
	gcRewritesDesc = prometheus.NewDesc("dirmesh_badger_gc_rewrites_total",
		"Value log files rewritten by garbage collection.", nil, nil)
	lastGCDesc = prometheus.NewDesc("dirmesh_badger_last_gc_timestamp_seconds",
		"Unix time of the last completed value log GC.", nil, nil)
)

type engineCollector struct {
	engine *BadgerEngine
}

func (c *engineCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- lsmSizeDesc
	ch <- vlogSizeDesc
	ch <- gcRewritesDesc
	ch <- lastGCDesc
}

func (c *engineCollector) Collect(ch chan<- prometheus.Metric) {
	st, err := c.engine.Stats()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(lsmSizeDesc, prometheus.GaugeValue, float64(st.LSMSize))
	ch <- prometheus.MustNewConstMetric(vlogSizeDesc, prometheus.GaugeValue, float64(st.ValueLogSize))
	ch <- prometheus.MustNewConstMetric(gcRewritesDesc, prometheus.CounterValue, float64(st.GCRewrites))
	if !st.LastGC.IsZero() {
		ch <- prometheus.MustNewConstMetric(lastGCDesc, prometheus.GaugeValue, float64(st.LastGC.UnixNano())/1e9)
	}
}

// badgerLogger routes Badger's printf logging into slog. Badger's info
// chatter is demoted to debug.
type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Error(fmt.Sprintf(f, v...)) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warn(fmt.Sprintf(f, v...)) }
func (b badgerLogger) Infof(f string, v ...any)    { b.l.Debug(fmt.Sprintf(f, v...)) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.l.Debug(fmt.Sprintf(f, v...)) }
