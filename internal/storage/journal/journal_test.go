package journal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

func testEvent(op domain.Op, id, name string, st domain.Status) domain.Event {
	return domain.Event{
		Op:       op,
		Identity: id,
		Name:     name,
		Status:   st,
		Time:     time.UnixMilli(1700000000000),
	}
}

func readAll(t *testing.T, dir string) []*Entry {
	t.Helper()
	r, err := NewReader(dir)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	entries, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return entries
}

func identities(entries []*Entry) string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Identity
	}
	return strings.Join(ids, ",")
}

func openSync(t *testing.T, dir string) *Writer {
	t.Helper()
	w, err := NewWriter(Config{Dir: dir, SyncMode: SyncModeSync})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	return w
}

func register(t *testing.T, w *Writer, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := w.Append(FromEvent(testEvent(domain.OpRegister, id, "", domain.StatusOK))); err != nil {
			t.Fatalf("Append(%s) error = %v", id, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("x")
	if cfg.Dir != "x" || cfg.SyncMode != SyncModeBatch {
		t.Fatalf("DefaultConfig() = %+v", cfg)
	}
	if cfg.MaxFileSize != DefaultMaxFileSize || cfg.BatchBytes != DefaultBatchBytes {
		t.Fatalf("DefaultConfig() limits = %d/%d", cfg.MaxFileSize, cfg.BatchBytes)
	}
}

func TestNewWriter_Rejects(t *testing.T) {
	if _, err := NewWriter(Config{}); err == nil {
		t.Error("NewWriter() without dir should fail")
	}
	if _, err := NewWriter(Config{Dir: t.TempDir(), SyncMode: "never"}); err == nil {
		t.Error("NewWriter() with unknown sync mode should fail")
	}
}

func TestWriterReader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := openSync(t, dir)

	ctx := context.Background()
	events := []domain.Event{
		testEvent(domain.OpRegister, "alice", "", domain.StatusOK),
		testEvent(domain.OpPublish, "alice", "report", domain.StatusOK),
		testEvent(domain.OpListContent, "alice", "bob", domain.StatusNotConnected),
	}
	for _, ev := range events {
		if err := w.Record(ctx, ev); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries := readAll(t, dir)
	if len(entries) != len(events) {
		t.Fatalf("ReadAll() returned %d entries, want %d", len(entries), len(events))
	}
	for i, e := range entries {
		got := e.Event()
		if got.Op != events[i].Op || got.Identity != events[i].Identity ||
			got.Name != events[i].Name || got.Status != events[i].Status ||
			!got.Time.Equal(events[i].Time) {
			t.Errorf("entry %d = %+v, want %+v", i, got, events[i])
		}
	}
}

func TestWriter_SegmentFile(t *testing.T) {
	dir := t.TempDir()
	w := openSync(t, dir)
	seg := w.Segment()
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, seg+segmentExt))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != segmentMagic {
		t.Errorf("empty segment = %q, want header only", data)
	}
}

func TestWriter_EachOpenStartsNewSegment(t *testing.T) {
	dir := t.TempDir()

	w1 := openSync(t, dir)
	register(t, w1, "alice")
	first := w1.Segment()
	w1.Close()

	w2 := openSync(t, dir)
	register(t, w2, "bob")
	if w2.Segment() <= first {
		t.Errorf("Segment() = %s, want after %s", w2.Segment(), first)
	}
	w2.Close()

	segs, err := listSegments(dir)
	if err != nil {
		t.Fatalf("listSegments() error = %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if got := identities(readAll(t, dir)); got != "alice,bob" {
		t.Errorf("identities = %s, want alice,bob", got)
	}
}

func TestReader_StopsAtTornFrame(t *testing.T) {
	dir := t.TempDir()
	w1 := openSync(t, dir)
	register(t, w1, "alice", "bob")
	path := filepath.Join(dir, w1.Segment()+segmentExt)
	w1.Close()

	// half-written trailing frame, as left by a crash
	frame, err := encodeEntryFrame(FromEvent(testEvent(domain.OpRegister, "carol", "", domain.StatusOK)))
	if err != nil {
		t.Fatalf("encodeEntryFrame() error = %v", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	f.Write(frame[:len(frame)/2])
	f.Close()

	w2 := openSync(t, dir)
	register(t, w2, "dave")
	w2.Close()

	if got := identities(readAll(t, dir)); got != "alice,bob,dave" {
		t.Errorf("identities = %s, want alice,bob,dave", got)
	}
}

func TestReader_SkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	w := openSync(t, dir)
	register(t, w, "alice")
	w.Close()

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600)
	os.WriteFile(filepath.Join(dir, "not-a-ulid"+segmentExt), []byte(segmentMagic), 0o600)
	os.WriteFile(filepath.Join(dir, "00000000000000000000000000"+segmentExt), []byte("garbage!"), 0o600)

	if got := identities(readAll(t, dir)); got != "alice" {
		t.Errorf("identities = %s, want alice", got)
	}
}

func TestWriter_RotationAndRetention(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{
		Dir:            dir,
		SyncMode:       SyncModeSync,
		MaxEntryCount:  2,
		RetainSegments: 2,
	})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	register(t, w, "u1", "u2", "u3", "u4", "u5", "u6", "u7")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	segs, err := listSegments(dir)
	if err != nil {
		t.Fatalf("listSegments() error = %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if got := identities(readAll(t, dir)); got != "u5,u6,u7" {
		t.Errorf("identities = %s, want u5,u6,u7", got)
	}
}

func TestWriter_RotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Dir: dir, SyncMode: SyncModeSync, MaxFileSize: 64})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	register(t, w, "alice", "bob", "carol")
	w.Close()

	segs, _ := listSegments(dir)
	if len(segs) < 2 {
		t.Errorf("segments = %d, want rotation on size", len(segs))
	}
	if got := identities(readAll(t, dir)); got != "alice,bob,carol" {
		t.Errorf("identities = %s, want alice,bob,carol", got)
	}
}

func TestWriter_BatchMode(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(Config{Dir: dir, SyncMode: SyncModeBatch, SyncInterval: time.Hour, BatchCount: 3})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	register(t, w, "alice", "bob")
	if n := len(readAll(t, dir)); n != 0 {
		t.Errorf("entries below batch count = %d, want 0", n)
	}

	register(t, w, "carol")
	if n := len(readAll(t, dir)); n != 3 {
		t.Errorf("entries at batch count = %d, want 3", n)
	}

	register(t, w, "dave")
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n := len(readAll(t, dir)); n != 4 {
		t.Errorf("entries after Flush = %d, want 4", n)
	}

	register(t, w, "erin")
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if n := len(readAll(t, dir)); n != 5 {
		t.Errorf("entries after Close = %d, want 5", n)
	}
}

func TestWriter_AppendAfterClose(t *testing.T) {
	w, err := NewWriter(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	err = w.Append(FromEvent(testEvent(domain.OpRegister, "alice", "", domain.StatusOK)))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
}

func TestRetainer_KeepsAtLeastOne(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"alice", "bob"} {
		w := openSync(t, dir)
		register(t, w, id)
		w.Close()
	}

	if err := NewRetainer(dir, 0).Prune(); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if got := identities(readAll(t, dir)); got != "bob" {
		t.Errorf("identities = %s, want bob", got)
	}
}

func TestEncodeEntryFrame_RejectsInvalidOp(t *testing.T) {
	if _, err := encodeEntryFrame(&Entry{Identity: "alice"}); err != ErrInvalidEntryType {
		t.Errorf("encodeEntryFrame() error = %v, want ErrInvalidEntryType", err)
	}
	if _, err := encodeEntryFrame(nil); err == nil {
		t.Error("encodeEntryFrame(nil) should fail")
	}
}

func TestDecodeEntryFrame_Corrupted(t *testing.T) {
	frame, err := encodeEntryFrame(FromEvent(testEvent(domain.OpDelete, "alice", "f", domain.StatusNotFound)))
	if err != nil {
		t.Fatalf("encodeEntryFrame() error = %v", err)
	}

	body := frame[4:]
	if _, err := decodeEntryFrame(body); err != nil {
		t.Fatalf("decodeEntryFrame() error = %v", err)
	}

	body[len(body)-1] ^= 0xff
	if _, err := decodeEntryFrame(body); err != ErrChecksumMismatch {
		t.Errorf("decodeEntryFrame() error = %v, want ErrChecksumMismatch", err)
	}
	if _, err := decodeEntryFrame([]byte{1, 2}); err != ErrCorruptedEntry {
		t.Errorf("decodeEntryFrame(short) error = %v, want ErrCorruptedEntry", err)
	}
}

func TestReader_MissingDir(t *testing.T) {
	entries := readAll(t, filepath.Join(t.TempDir(), "missing"))
	if len(entries) != 0 {
		t.Errorf("ReadAll() = %d entries, want 0", len(entries))
	}
}
