package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDPrefix prefixes request and connection identifiers.
const RequestIDPrefix = "req-"

// NewRequestID returns a time-ordered request identifier of the form
// req-{ulid_lowercase}.
func NewRequestID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader)
	return RequestIDPrefix + strings.ToLower(id.String())
}

// IsRequestID reports whether s has the form produced by NewRequestID.
func IsRequestID(s string) bool {
	rest, ok := strings.CutPrefix(s, RequestIDPrefix)
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(strings.ToUpper(rest))
	return err == nil
}
