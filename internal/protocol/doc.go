// Package protocol implements the directory wire format shared by the
// server and the CLI client.
//
// A connection carries exactly one request. The client writes an operation
// token followed by the operation's argument fields, each a NUL-terminated
// string no longer than its field width (terminator included). The server
// answers with a one-byte status code and, for successful listings, a
// NUL-terminated decimal count followed by that many fixed-width records
// padded with NUL bytes.
//
// Status codes come from one of two tables: Normalized, where a code always
// means the same status kind, and Legacy, which reproduces the
// per-operation ordinals of older clients.
package protocol
