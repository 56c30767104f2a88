package journal

import (
	"errors"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// Errors for journal operations.
var (
	ErrCorruptedEntry   = errors.New("journal: corrupted entry")
	ErrChecksumMismatch = errors.New("journal: checksum mismatch")
	ErrInvalidEntryType = errors.New("journal: invalid entry op")
	ErrClosed           = errors.New("journal: writer is closed")
)

// Entry is one journaled operation outcome.
type Entry struct {
	Op       domain.Op
	Time     time.Time
	Identity string
	Name     string
	Status   domain.Status
}

// FromEvent converts a directory event into a journal entry.
func FromEvent(ev domain.Event) *Entry {
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return &Entry{
		Op:       ev.Op,
		Time:     ts,
		Identity: ev.Identity,
		Name:     ev.Name,
		Status:   ev.Status,
	}
}

// Event converts the entry back into a directory event.
func (e *Entry) Event() domain.Event {
	return domain.Event{
		Op:       e.Op,
		Identity: e.Identity,
		Name:     e.Name,
		Status:   e.Status,
		Time:     e.Time,
	}
}
