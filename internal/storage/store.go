package storage

import (
	"context"
	"errors"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
)

// Store sentinel errors. Backends return these (possibly wrapped); any
// other error is a storage failure.
var (
	ErrAlreadyExists = errors.New("storage: already exists")
	ErrNotFound      = errors.New("storage: not found")
	ErrConflict      = errors.New("storage: conflict")
	ErrNoCatalog     = errors.New("storage: catalog does not exist")
)

// Backend names accepted by storage.backend.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// IdentityStore is the durable set of registered identities.
type IdentityStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	// Add returns ErrAlreadyExists if id is present.
	Add(ctx context.Context, id string) error
	// Remove returns ErrNotFound if id is absent.
	Remove(ctx context.Context, id string) error
}

// SessionRegistry maps connected identities to their endpoints.
type SessionRegistry interface {
	IsActive(ctx context.Context, id string) (bool, error)
	// Open returns ErrConflict if a session for the identity exists.
	Open(ctx context.Context, s domain.Session) error
	// Close returns ErrNotFound if no session exists.
	Close(ctx context.Context, id string) error
	// ListActive returns sessions in the order they were opened.
	ListActive(ctx context.Context) ([]domain.Session, error)
}

// CatalogStore holds one ordered catalog per connected identity.
type CatalogStore interface {
	// Reset creates an empty catalog, discarding any previous one.
	Reset(ctx context.Context, id string) error
	// Clear deletes the catalog. Clearing an absent catalog is not an error.
	Clear(ctx context.Context, id string) error
	Contains(ctx context.Context, id, name string) (bool, error)
	// Add returns ErrConflict if name is present and ErrNoCatalog if the
	// catalog does not exist.
	Add(ctx context.Context, id string, e domain.CatalogEntry) error
	// Remove returns ErrNotFound if name is absent.
	Remove(ctx context.Context, id, name string) error
	// ListAll returns entries in insertion order, stopping at the first
	// blank record. It returns ErrNoCatalog if the catalog does not exist.
	ListAll(ctx context.Context, id string) ([]domain.CatalogEntry, error)
}

// TruncateAtBlank returns the prefix of entries before the first blank one.
func TruncateAtBlank(entries []domain.CatalogEntry) []domain.CatalogEntry {
	for i, e := range entries {
		if e.IsBlank() {
			return entries[:i]
		}
	}
	return entries
}
