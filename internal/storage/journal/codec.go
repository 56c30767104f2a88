package journal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/pkg/codec"
)

type wirePayload struct {
	Timestamp int64  `cbor:"ts"`
	Identity  string `cbor:"id"`
	Name      string `cbor:"name,omitempty"`
	Status    uint8  `cbor:"st"`
}

func encodeEntryFrame(e *Entry) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("journal: entry is nil")
	}
	if !e.Op.Valid() {
		return nil, ErrInvalidEntryType
	}

	payload, err := codec.Marshal(wirePayload{
		Timestamp: e.Time.UnixMilli(),
		Identity:  e.Identity,
		Name:      e.Name,
		Status:    uint8(e.Status),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: marshal payload: %w", err)
	}

	body := make([]byte, 0, 1+len(payload))
	body = append(body, byte(e.Op))
	body = append(body, payload...)

	// Length = CRC(4) + Op(1) + Payload.
	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(4+len(body)))
	binary.BigEndian.PutUint32(out[4:8], crc32.ChecksumIEEE(body))
	return append(out, body...), nil
}

func decodeEntryFrame(frame []byte) (*Entry, error) {
	// Frame layout: [crc32:4][op:1][payload...]
	if len(frame) < 5 {
		return nil, ErrCorruptedEntry
	}

	wantCRC := binary.BigEndian.Uint32(frame[:4])
	body := frame[4:]
	if crc32.ChecksumIEEE(body) != wantCRC {
		return nil, ErrChecksumMismatch
	}

	op := domain.Op(body[0])
	if !op.Valid() {
		return nil, ErrInvalidEntryType
	}

	var p wirePayload
	if err := codec.Unmarshal(body[1:], &p); err != nil {
		return nil, fmt.Errorf("journal: unmarshal payload: %w", err)
	}

	return &Entry{
		Op:       op,
		Time:     time.UnixMilli(p.Timestamp),
		Identity: p.Identity,
		Name:     p.Name,
		Status:   domain.Status(p.Status),
	}, nil
}
