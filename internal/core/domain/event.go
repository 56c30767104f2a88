package domain

import "time"

// Op identifies a directory operation. String returns the wire token.
type Op uint8

const (
	OpUnspecified Op = iota
	OpRegister
	OpUnregister
	OpConnect
	OpDisconnect
	OpPublish
	OpDelete
	OpListUsers
	OpListContent
)

var opNames = [...]string{
	OpUnspecified: "",
	OpRegister:    "REGISTER",
	OpUnregister:  "UNREGISTER",
	OpConnect:     "CONNECT",
	OpDisconnect:  "DISCONNECT",
	OpPublish:     "PUBLISH",
	OpDelete:      "DELETE",
	OpListUsers:   "LIST_USERS",
	OpListContent: "LIST_CONTENT",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return ""
}

// Valid reports whether o names a real operation.
func (o Op) Valid() bool {
	return o > OpUnspecified && int(o) < len(opNames)
}

// ParseOp maps a wire token to its Op. Tokens are case-sensitive.
func ParseOp(token string) (Op, bool) {
	for i := OpRegister; int(i) < len(opNames); i++ {
		if opNames[i] == token {
			return i, true
		}
	}
	return OpUnspecified, false
}

// Event is the outcome of one directory operation. Name carries the catalog
// entry name for PUBLISH and DELETE and the target identity for
// LIST_CONTENT.
type Event struct {
	Op       Op
	Identity string
	Name     string
	Status   Status
	Time     time.Time
}
