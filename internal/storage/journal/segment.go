package journal

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	segmentExt   = ".jnl"
	segmentMagic = "DIRMJNL\x02"
	filePerm     = 0o600
	dirPerm      = 0o750
)

// segment is one journal file. Segment ids are ULIDs, so file names sort
// in creation order.
type segment struct {
	id   ulid.ULID
	path string
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newSegment(dir string, now time.Time) segment {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), entropy)
	entropyMu.Unlock()
	return segment{id: id, path: filepath.Join(dir, id.String()+segmentExt)}
}

// listSegments returns the segments in dir, oldest first. A missing dir has
// no segments.
func listSegments(dir string) ([]segment, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: read dir: %w", err)
	}

	// ReadDir sorts by name, which is ULID order.
	var segs []segment
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, segmentExt) {
			continue
		}
		id, err := ulid.ParseStrict(strings.TrimSuffix(name, segmentExt))
		if err != nil {
			continue
		}
		segs = append(segs, segment{id: id, path: filepath.Join(dir, name)})
	}
	return segs, nil
}
