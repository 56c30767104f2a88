package domain

import (
	"strings"
)

// Field limits. Each value travels in a fixed-width, NUL-terminated wire
// field, so the usable length is one byte less than the field width.
const (
	MaxIdentityLen    = 255
	MaxNameLen        = 255
	MaxDescriptionLen = 255
	MaxIPLen          = 15
	MaxPortLen        = 5
)

// Endpoint is the network address a connected identity advertises.
type Endpoint struct {
	IP   string `json:"ip"`
	Port string `json:"port"`
}

// String returns "ip:port".
func (e Endpoint) String() string {
	return e.IP + ":" + e.Port
}

// Validate checks that the endpoint fits the record widths.
func (e Endpoint) Validate() error {
	if e.IP == "" || len(e.IP) > MaxIPLen {
		return ErrInvalidArgument.WithDetails("endpoint ip must be 1-15 bytes")
	}
	if strings.ContainsAny(e.IP, ";\n\r\x00") {
		return ErrInvalidArgument.WithDetails("endpoint ip contains a reserved character")
	}
	if e.Port == "" || len(e.Port) > MaxPortLen {
		return ErrInvalidArgument.WithDetails("endpoint port must be 1-5 digits")
	}
	for i := 0; i < len(e.Port); i++ {
		if e.Port[i] < '0' || e.Port[i] > '9' {
			return ErrInvalidArgument.WithDetails("endpoint port must be 1-5 digits")
		}
	}
	return nil
}

// Session binds one identity to the endpoint it connected from.
type Session struct {
	Identity string   `json:"identity"`
	Endpoint Endpoint `json:"endpoint"`
}

// CatalogEntry is one published item in a session-scoped catalog.
type CatalogEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// IsBlank reports whether the entry carries no data at all. Listings stop at
// the first blank entry.
func (e CatalogEntry) IsBlank() bool {
	return e.Name == "" && e.Description == ""
}

// Validate checks the entry against the name and description rules.
func (e CatalogEntry) Validate() error {
	if err := ValidateName(e.Name); err != nil {
		return err
	}
	return ValidateDescription(e.Description)
}

// ValidateIdentity checks an identity token.
//
// Identities double as file names in the file backend, so path separators
// and the dot entries are rejected along with the record delimiters.
func ValidateIdentity(id string) error {
	switch {
	case id == "":
		return ErrInvalidArgument.WithDetails("identity is empty")
	case len(id) > MaxIdentityLen:
		return ErrInvalidArgument.WithDetails("identity exceeds 255 bytes")
	case id == "." || id == "..":
		return ErrInvalidArgument.WithDetails("identity is a reserved name")
	case strings.ContainsAny(id, ";\n\r\x00/\\"):
		return ErrInvalidArgument.WithDetails("identity contains a reserved character")
	}
	return nil
}

// ValidateName checks a catalog entry name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return ErrInvalidArgument.WithDetails("name is empty")
	case len(name) > MaxNameLen:
		return ErrInvalidArgument.WithDetails("name exceeds 255 bytes")
	case strings.ContainsAny(name, ";\n\r\x00"):
		return ErrInvalidArgument.WithDetails("name contains a reserved character")
	}
	return nil
}

// ValidateDescription checks a catalog entry description. Descriptions may be
// empty and may contain ';'.
func ValidateDescription(desc string) error {
	switch {
	case len(desc) > MaxDescriptionLen:
		return ErrInvalidArgument.WithDetails("description exceeds 255 bytes")
	case strings.ContainsAny(desc, "\n\r\x00"):
		return ErrInvalidArgument.WithDetails("description contains a reserved character")
	}
	return nil
}
