package protocol

import (
	"fmt"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// Codes selects the status code table.
type Codes uint8

const (
	// Normalized gives every status kind one code across all operations.
	Normalized Codes = iota
	// Legacy uses the per-operation ordinals of older clients.
	Legacy
)

// Table names as they appear in configuration.
const (
	CodesNormalized = "normalized"
	CodesLegacy     = "legacy"
)

// ParseCodes parses a table name.
func ParseCodes(s string) (Codes, error) {
	switch s {
	case CodesNormalized, "":
		return Normalized, nil
	case CodesLegacy:
		return Legacy, nil
	}
	return Normalized, fmt.Errorf("unknown status code table %q", s)
}

func (c Codes) String() string {
	if c == Legacy {
		return CodesLegacy
	}
	return CodesNormalized
}

var normalizedCodes = map[domain.Status]byte{
	domain.StatusOK:               '0',
	domain.StatusNotRegistered:    '1',
	domain.StatusNotConnected:     '2',
	domain.StatusAlreadyConnected: '3',
	domain.StatusAlreadyExists:    '4',
	domain.StatusNotFound:         '5',
	domain.StatusProtocolFailure:  '8',
	domain.StatusInternalError:    '9',
}

// legacyCodes holds the ordinals each operation used. Every operation lists
// its error code under StatusInternalError.
var legacyCodes = map[domain.Op]map[domain.Status]byte{
	domain.OpRegister: {
		domain.StatusOK:            '0',
		domain.StatusAlreadyExists: '1',
		domain.StatusInternalError: '2',
	},
	domain.OpUnregister: {
		domain.StatusOK:            '0',
		domain.StatusNotRegistered: '1',
		domain.StatusInternalError: '2',
	},
	domain.OpConnect: {
		domain.StatusOK:               '0',
		domain.StatusNotRegistered:    '1',
		domain.StatusAlreadyConnected: '2',
		domain.StatusInternalError:    '3',
	},
	domain.OpDisconnect: {
		domain.StatusOK:            '0',
		domain.StatusNotRegistered: '1',
		domain.StatusNotConnected:  '2',
		domain.StatusInternalError: '3',
	},
	domain.OpPublish: {
		domain.StatusOK:            '0',
		domain.StatusNotRegistered: '1',
		domain.StatusNotConnected:  '2',
		domain.StatusAlreadyExists: '3',
		domain.StatusInternalError: '4',
	},
	domain.OpDelete: {
		domain.StatusOK:            '0',
		domain.StatusNotRegistered: '1',
		domain.StatusNotConnected:  '2',
		domain.StatusNotFound:      '3',
		domain.StatusInternalError: '4',
	},
	domain.OpListUsers: {
		domain.StatusOK:            '0',
		domain.StatusNotRegistered: '1',
		domain.StatusNotConnected:  '2',
		domain.StatusInternalError: '3',
	},
	domain.OpListContent: {
		domain.StatusOK:            '0',
		domain.StatusNotRegistered: '1',
		domain.StatusNotConnected:  '2',
		domain.StatusInternalError: '3',
	},
}

// Encode returns the status code byte for st in the context of op.
//
// In the legacy table a status an operation never reported, including
// StatusProtocolFailure, takes that operation's error code. A request whose
// operation is unknown always gets the normalized code.
func (c Codes) Encode(op domain.Op, st domain.Status) byte {
	if c == Legacy {
		if table, ok := legacyCodes[op]; ok {
			if code, ok := table[st]; ok {
				return code
			}
			return table[domain.StatusInternalError]
		}
	}
	if code, ok := normalizedCodes[st]; ok {
		return code
	}
	return normalizedCodes[domain.StatusInternalError]
}

// Decode maps a status code byte received for op back to its status kind.
func (c Codes) Decode(op domain.Op, code byte) (domain.Status, error) {
	table := normalizedCodes
	if c == Legacy {
		if t, ok := legacyCodes[op]; ok {
			table = t
		}
	}
	for st, b := range table {
		if b == code {
			return st, nil
		}
	}
	return domain.StatusInternalError, fmt.Errorf("%w: status code %q for %s", ErrProtocol, code, op)
}
