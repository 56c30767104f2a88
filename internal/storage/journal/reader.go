package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// maxFrameSize bounds one frame so a damaged length prefix cannot cause a
// huge allocation.
const maxFrameSize = 1 << 20

// Reader walks the entries of every segment, oldest first. A segment with a
// bad header is skipped, and reading moves on to the next segment at the
// first torn or damaged frame.
type Reader struct {
	segs []segment
	next int

	file *os.File
	br   *bufio.Reader
}

// NewReader lists the segments in dir. A missing dir reads as an empty
// journal.
func NewReader(dir string) (*Reader, error) {
	segs, err := listSegments(dir)
	if err != nil {
		return nil, err
	}
	return &Reader{segs: segs}, nil
}

// Read returns the next entry, or io.EOF after the last one.
func (r *Reader) Read() (*Entry, error) {
	for {
		if r.br == nil {
			ok, err := r.advance()
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		e, err := r.readFrame()
		if err == nil {
			return e, nil
		}
		if !endOfSegment(err) {
			return nil, err
		}
		r.closeSegment()
	}
}

// ReadAll returns every remaining entry.
func (r *Reader) ReadAll() ([]*Entry, error) {
	var out []*Entry
	for {
		e, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

// Close releases the open segment, if any.
func (r *Reader) Close() error {
	return r.closeSegment()
}

// advance opens the next segment. It reports false for a segment that
// should be skipped and io.EOF once all segments are consumed.
func (r *Reader) advance() (bool, error) {
	if r.next >= len(r.segs) {
		return false, io.EOF
	}
	seg := r.segs[r.next]
	r.next++

	f, err := os.Open(seg.path)
	if err != nil {
		if os.IsNotExist(err) {
			// pruned since listing
			return false, nil
		}
		return false, fmt.Errorf("journal: open segment: %w", err)
	}

	br := bufio.NewReader(f)
	magic := make([]byte, len(segmentMagic))
	if _, err := io.ReadFull(br, magic); err != nil || string(magic) != segmentMagic {
		f.Close()
		return false, nil
	}
	r.file, r.br = f, br
	return true, nil
}

func (r *Reader) readFrame() (*Entry, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r.br, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n < 5 || n > maxFrameSize {
		return nil, ErrCorruptedEntry
	}
	frame := make([]byte, n)
	if _, err := io.ReadFull(r.br, frame); err != nil {
		return nil, err
	}
	return decodeEntryFrame(frame)
}

func (r *Reader) closeSegment() error {
	r.br = nil
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func endOfSegment(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, ErrCorruptedEntry) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrInvalidEntryType)
}
