// Package domain defines the core domain models for dirmesh.
//
// Domain models are plain values without IO dependencies:
//
//   - Identity: the client-chosen account name (validated, never stored here)
//   - Endpoint / Session: the live binding of an identity to an address
//   - CatalogEntry: a published (name, description) pair
//   - Status: the closed set of outcome kinds every operation maps to
//   - Errors: structured domain errors with stable codes
package domain
