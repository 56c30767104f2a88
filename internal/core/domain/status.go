package domain

import "errors"

// Status is the outcome kind of a directory operation. Wire values are chosen
// by the transport; the kinds are fixed.
type Status uint8

const (
	StatusOK Status = iota
	StatusNotRegistered
	StatusNotConnected
	StatusAlreadyConnected
	StatusAlreadyExists
	StatusNotFound
	StatusInternalError
	// StatusProtocolFailure is only emitted by transports configured to
	// answer malformed requests instead of dropping them.
	StatusProtocolFailure
)

var statusNames = [...]string{
	StatusOK:               "ok",
	StatusNotRegistered:    "not_registered",
	StatusNotConnected:     "not_connected",
	StatusAlreadyConnected: "already_connected",
	StatusAlreadyExists:    "already_exists",
	StatusNotFound:         "not_found",
	StatusInternalError:    "internal_error",
	StatusProtocolFailure:  "protocol_failure",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// FailureClass groups statuses into the error taxonomy.
type FailureClass string

const (
	ClassNone       FailureClass = ""
	ClassValidation FailureClass = "validation"
	ClassStorage    FailureClass = "storage"
	ClassProtocol   FailureClass = "protocol"
)

// Class returns the failure class of the status.
func (s Status) Class() FailureClass {
	switch s {
	case StatusOK:
		return ClassNone
	case StatusInternalError:
		return ClassStorage
	case StatusProtocolFailure:
		return ClassProtocol
	default:
		return ClassValidation
	}
}

// Terminal reports whether the connection must close right after the status
// is written, without a payload.
func (s Status) Terminal() bool {
	return s == StatusInternalError || s == StatusProtocolFailure
}

// StatusOf maps an operation error to its status kind. A nil error is
// StatusOK; errors this package does not know map to StatusInternalError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	switch {
	case errors.Is(err, ErrNotRegistered):
		return StatusNotRegistered
	case errors.Is(err, ErrNotConnected), errors.Is(err, ErrTargetNotConnected):
		return StatusNotConnected
	case errors.Is(err, ErrAlreadyConnected):
		return StatusAlreadyConnected
	case errors.Is(err, ErrIdentityExists), errors.Is(err, ErrEntryExists):
		return StatusAlreadyExists
	case errors.Is(err, ErrEntryNotFound):
		return StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return StatusProtocolFailure
	default:
		return StatusInternalError
	}
}
