package journal

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// SyncMode selects when journal entries reach disk.
type SyncMode string

const (
	// SyncModeSync writes and fsyncs each entry before Append returns.
	SyncModeSync SyncMode = "sync"
	// SyncModeBatch buffers entries until BatchCount or BatchBytes is
	// reached, and flushes with fsync every SyncInterval.
	SyncModeBatch SyncMode = "batch"
)

const (
	DefaultBatchCount          = 64
	DefaultBatchBytes          = 256 << 10
	DefaultSyncInterval        = time.Second
	DefaultMaxFileSize   int64 = 64 << 20
	DefaultMaxEntryCount       = 100000
)

// Config configures a Writer.
type Config struct {
	Dir string

	SyncMode     SyncMode
	SyncInterval time.Duration
	BatchCount   int
	BatchBytes   int

	// A segment is rotated once it holds MaxFileSize bytes or
	// MaxEntryCount entries.
	MaxFileSize   int64
	MaxEntryCount int

	// RetainSegments bounds the number of segment files kept on disk.
	// Zero keeps all of them.
	RetainSegments int

	Logger *slog.Logger
}

// DefaultConfig returns a batch-mode configuration for dir.
func DefaultConfig(dir string) Config {
	cfg := Config{Dir: dir}
	cfg.withDefaults()
	return cfg
}

func (c *Config) withDefaults() {
	if c.SyncMode == "" {
		c.SyncMode = SyncModeBatch
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.BatchCount <= 0 {
		c.BatchCount = DefaultBatchCount
	}
	if c.BatchBytes <= 0 {
		c.BatchBytes = DefaultBatchBytes
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.MaxEntryCount <= 0 {
		c.MaxEntryCount = DefaultMaxEntryCount
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Writer appends entries to the active segment. Each Writer starts a new
// segment; segments left by earlier processes are never reopened.
type Writer struct {
	cfg    Config
	logger *slog.Logger
	retain *Retainer

	mu      sync.Mutex
	seg     segment
	file    *os.File
	bw      *bufio.Writer
	size    int64
	count   int
	pending int
	dirty   bool
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// NewWriter creates cfg.Dir if needed and opens a fresh segment in it.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("journal: dir is required")
	}
	switch cfg.SyncMode {
	case "", SyncModeSync, SyncModeBatch:
	default:
		return nil, fmt.Errorf("journal: unknown sync mode %q", cfg.SyncMode)
	}
	cfg.withDefaults()

	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}

	w := &Writer{cfg: cfg, logger: cfg.Logger}
	if cfg.RetainSegments > 0 {
		w.retain = NewRetainer(cfg.Dir, cfg.RetainSegments)
	}
	if err := w.openSegmentLocked(); err != nil {
		return nil, err
	}

	if cfg.SyncMode == SyncModeBatch {
		w.stop = make(chan struct{})
		w.done = make(chan struct{})
		go w.syncLoop()
	}

	w.logger.Info("journal opened",
		"dir", cfg.Dir,
		"segment", w.seg.id.String(),
		"sync_mode", string(cfg.SyncMode))
	return w, nil
}

// Record journals a directory event.
func (w *Writer) Record(_ context.Context, ev domain.Event) error {
	return w.Append(FromEvent(ev))
}

// Append writes an entry to the active segment, rotating first when the
// segment is full.
func (w *Writer) Append(e *Entry) error {
	frame, err := encodeEntryFrame(e)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}

	if w.count > 0 && (w.size+int64(len(frame)) > w.cfg.MaxFileSize || w.count >= w.cfg.MaxEntryCount) {
		if err := w.rotateLocked(); err != nil {
			return err
		}
	}

	if _, err := w.bw.Write(frame); err != nil {
		return fmt.Errorf("journal: write entry: %w", err)
	}
	w.size += int64(len(frame))
	w.count++
	w.pending++
	w.dirty = true

	switch {
	case w.cfg.SyncMode == SyncModeSync:
		return w.flushLocked(true)
	case w.pending >= w.cfg.BatchCount || w.bw.Buffered() >= w.cfg.BatchBytes:
		return w.flushLocked(false)
	}
	return nil
}

// Flush writes buffered entries and fsyncs the active segment.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.flushLocked(true)
}

// Segment returns the id of the active segment.
func (w *Writer) Segment() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.seg.id.String()
}

// Close flushes pending entries and closes the active segment.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	if w.stop != nil {
		close(w.stop)
		<-w.done
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeSegmentLocked()
}

func (w *Writer) syncLoop() {
	defer close(w.done)
	t := time.NewTicker(w.cfg.SyncInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if err := w.Flush(); err != nil {
				w.logger.Error("journal flush failed", "error", err)
			}
		case <-w.stop:
			return
		}
	}
}

func (w *Writer) flushLocked(fsync bool) error {
	if w.bw.Buffered() > 0 {
		if err := w.bw.Flush(); err != nil {
			return fmt.Errorf("journal: flush: %w", err)
		}
	}
	w.pending = 0
	if fsync && w.dirty {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("journal: sync: %w", err)
		}
		w.dirty = false
	}
	return nil
}

func (w *Writer) rotateLocked() error {
	if err := w.closeSegmentLocked(); err != nil {
		return err
	}
	if err := w.openSegmentLocked(); err != nil {
		return err
	}
	if w.retain != nil {
		if err := w.retain.Prune(); err != nil {
			w.logger.Warn("journal retention failed", "error", err)
		}
	}
	w.logger.Debug("journal segment rotated", "segment", w.seg.id.String())
	return nil
}

func (w *Writer) openSegmentLocked() error {
	seg := newSegment(w.cfg.Dir, time.Now())
	f, err := os.OpenFile(seg.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("journal: create segment: %w", err)
	}
	if _, err := f.WriteString(segmentMagic); err != nil {
		f.Close()
		return fmt.Errorf("journal: write header: %w", err)
	}

	w.seg = seg
	w.file = f
	w.bw = bufio.NewWriterSize(f, w.cfg.BatchBytes)
	w.size = int64(len(segmentMagic))
	w.count = 0
	w.pending = 0
	w.dirty = false
	return nil
}

func (w *Writer) closeSegmentLocked() error {
	if w.file == nil {
		return nil
	}
	flushErr := w.flushLocked(true)
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return flushErr
	}
	if closeErr != nil {
		return fmt.Errorf("journal: close segment: %w", closeErr)
	}
	return nil
}
