package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Field widths in bytes, terminator included.
const (
	OpWidth          = 256
	IdentityWidth    = 256
	NameWidth        = 256
	DescriptionWidth = 256
	PortWidth        = 6
	IPWidth          = 16
	StatusWidth      = 1
	CountWidth       = 11
)

var (
	// ErrProtocol marks a request or response that does not follow the
	// wire format.
	ErrProtocol = errors.New("protocol: malformed message")

	// ErrFieldTooLong is returned when no terminator appears within the
	// field width.
	ErrFieldTooLong = fmt.Errorf("%w: field exceeds width", ErrProtocol)

	// ErrUnknownOp is returned for an operation token outside the opcode set.
	ErrUnknownOp = fmt.Errorf("%w: unknown operation", ErrProtocol)
)

// ReadField reads one NUL-terminated field of at most width bytes.
// It returns io.EOF only if the stream ended before the first byte.
func ReadField(r *bufio.Reader, width int) (string, error) {
	buf := make([]byte, 0, width)
	for len(buf) < width {
		b, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				return "", io.ErrUnexpectedEOF
			}
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
	return "", ErrFieldTooLong
}

// WriteField writes s followed by a NUL terminator.
func WriteField(w *bufio.Writer, s string, width int) error {
	if len(s) >= width {
		return fmt.Errorf("%w: %d bytes do not fit width %d", ErrFieldTooLong, len(s), width)
	}
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	return w.WriteByte(0)
}

// ReadPadded reads a fixed-width record field and returns the bytes before
// the first NUL.
func ReadPadded(r *bufio.Reader, width int) (string, error) {
	buf := make([]byte, width)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i]), nil
		}
	}
	return "", ErrFieldTooLong
}

// WritePadded writes s as a fixed-width record field padded with NUL bytes.
func WritePadded(w *bufio.Writer, s string, width int) error {
	if len(s) >= width {
		return fmt.Errorf("%w: %d bytes do not fit width %d", ErrFieldTooLong, len(s), width)
	}
	buf := make([]byte, width)
	copy(buf, s)
	_, err := w.Write(buf)
	return err
}

// ReadCount reads a listing record count.
func ReadCount(r *bufio.Reader) (int, error) {
	s, err := ReadField(r, CountWidth)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid count %q", ErrProtocol, s)
	}
	return n, nil
}

// WriteCount writes a listing record count.
func WriteCount(w *bufio.Writer, n int) error {
	return WriteField(w, strconv.Itoa(n), CountWidth)
}
