package journal

import (
	"errors"
	"fmt"
	"os"
)

// Retainer bounds the number of segment files in a journal directory.
type Retainer struct {
	dir  string
	keep int
}

// NewRetainer keeps the newest keep segments of dir. keep is at least one,
// so the active segment survives.
func NewRetainer(dir string, keep int) *Retainer {
	return &Retainer{dir: dir, keep: max(keep, 1)}
}

// Prune deletes the oldest segments beyond the retained count.
func (r *Retainer) Prune() error {
	segs, err := listSegments(r.dir)
	if err != nil {
		return err
	}
	if len(segs) <= r.keep {
		return nil
	}

	var errs []error
	for _, seg := range segs[:len(segs)-r.keep] {
		if err := os.Remove(seg.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("journal: prune: %w", err)
	}
	return nil
}
