// Package journal keeps an append-only record of directory operations.
//
// Every operation outcome (who did what, to which item, with which status)
// is framed and appended to segment files. The journal is an audit trail;
// the stores never replay it.
//
// Segments are named <ulid>.jnl and hold:
//
//	[magic:8 "DIRMJNL\x02"]
//	[Frame]*
//
// Frame:
//
//	[Length:4][CRC32:4][Op:1][Payload:Length-5]
//
// Length counts CRC32, Op and Payload (big-endian). CRC32 (IEEE) covers Op
// and Payload. Payload is deterministic CBOR. A torn final frame ends the
// segment for readers.
package journal
