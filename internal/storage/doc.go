// Package storage defines the three directory stores and their shared
// error contract, and hosts the Badger-backed implementation.
//
// The stores are:
//
//   - IdentityStore: the set of registered identities
//   - SessionRegistry: connected identities and their endpoints, in
//     insertion order
//   - CatalogStore: per-identity ordered (name, description) lists whose
//     lifetime is bound to the owner's session
//
// Each store serializes its own mutations; no store operation ever holds
// the lock of another store. Callers that need cross-store ordering (the
// directory service) acquire stores one after another.
//
// Other backends live in the filestore and memory subpackages. The
// storagetest subpackage holds the conformance suite every backend runs.
package storage
