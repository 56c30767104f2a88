// Package service implements the directory operations.
//
// Directory orchestrates the identity store, the session registry and the
// catalog store. Each operation checks its preconditions against the stores
// in a fixed order and stops at the first failure, returning a
// domain.DomainError whose kind is recovered with domain.StatusOf.
//
// No operation holds more than one store lock at a time, so an operation is
// not atomic with respect to another operation touching a different store.
// Callers that need strict ordering serialize requests themselves.
package service
