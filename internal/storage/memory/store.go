package memory

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage"
	"github.com/yndnr/dirmesh-go/pkg/cmap"
)

// IdentityStore is the set of registered identities.
type IdentityStore struct {
	ids *cmap.Map[string, struct{}]
}

// NewIdentityStore creates an empty identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{ids: cmap.New[string, struct{}]()}
}

// Exists reports whether id is registered.
func (s *IdentityStore) Exists(_ context.Context, id string) (bool, error) {
	return s.ids.Has(id), nil
}

// Add registers id.
func (s *IdentityStore) Add(_ context.Context, id string) error {
	if !s.ids.SetIfAbsent(id, struct{}{}) {
		return storage.ErrAlreadyExists
	}
	return nil
}

// Remove deletes id.
func (s *IdentityStore) Remove(_ context.Context, id string) error {
	if _, ok := s.ids.Pop(id); !ok {
		return storage.ErrNotFound
	}
	return nil
}

type sessionRecord struct {
	session domain.Session
	seq     uint64
}

// SessionRegistry maps connected identities to their endpoints.
type SessionRegistry struct {
	sessions *cmap.Map[string, sessionRecord]
	seq      atomic.Uint64
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: cmap.New[string, sessionRecord]()}
}

// IsActive reports whether id has an open session.
func (r *SessionRegistry) IsActive(_ context.Context, id string) (bool, error) {
	return r.sessions.Has(id), nil
}

// Open records a session for s.Identity.
func (r *SessionRegistry) Open(_ context.Context, s domain.Session) error {
	if !r.sessions.SetIfAbsent(s.Identity, sessionRecord{session: s, seq: r.seq.Add(1)}) {
		return storage.ErrConflict
	}
	return nil
}

// Close removes the session of id.
func (r *SessionRegistry) Close(_ context.Context, id string) error {
	if _, ok := r.sessions.Pop(id); !ok {
		return storage.ErrNotFound
	}
	return nil
}

// ListActive returns sessions in the order they were opened.
func (r *SessionRegistry) ListActive(_ context.Context) ([]domain.Session, error) {
	records := r.sessions.Values()
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	sessions := make([]domain.Session, len(records))
	for i, rec := range records {
		sessions[i] = rec.session
	}
	return sessions, nil
}

// CatalogStore keeps one entry slice per identity. Stored slices are never
// modified in place; every mutation installs a fresh slice.
type CatalogStore struct {
	catalogs *cmap.Map[string, []domain.CatalogEntry]
}

// NewCatalogStore creates an empty catalog store.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{catalogs: cmap.New[string, []domain.CatalogEntry]()}
}

// Reset installs an empty catalog for id.
func (c *CatalogStore) Reset(_ context.Context, id string) error {
	c.catalogs.Set(id, []domain.CatalogEntry{})
	return nil
}

// Clear deletes id's catalog.
func (c *CatalogStore) Clear(_ context.Context, id string) error {
	c.catalogs.Delete(id)
	return nil
}

// Contains reports whether id's catalog has an entry called name.
func (c *CatalogStore) Contains(_ context.Context, id, name string) (bool, error) {
	entries, _ := c.catalogs.Get(id)
	return indexOf(entries, name) >= 0, nil
}

// Add appends e to id's catalog.
func (c *CatalogStore) Add(_ context.Context, id string, e domain.CatalogEntry) error {
	return c.catalogs.Compute(id, func(entries []domain.CatalogEntry, exists bool) ([]domain.CatalogEntry, bool, error) {
		if !exists {
			return nil, false, storage.ErrNoCatalog
		}
		if !e.IsBlank() && indexOf(entries, e.Name) >= 0 {
			return nil, false, storage.ErrConflict
		}
		next := make([]domain.CatalogEntry, len(entries), len(entries)+1)
		copy(next, entries)
		return append(next, e), true, nil
	})
}

// Remove deletes the entry called name from id's catalog.
func (c *CatalogStore) Remove(_ context.Context, id, name string) error {
	return c.catalogs.Compute(id, func(entries []domain.CatalogEntry, exists bool) ([]domain.CatalogEntry, bool, error) {
		i := indexOf(entries, name)
		if !exists || i < 0 {
			return nil, false, storage.ErrNotFound
		}
		next := make([]domain.CatalogEntry, 0, len(entries)-1)
		next = append(next, entries[:i]...)
		return append(next, entries[i+1:]...), true, nil
	})
}

// ListAll returns id's entries up to the first blank one.
func (c *CatalogStore) ListAll(_ context.Context, id string) ([]domain.CatalogEntry, error) {
	entries, ok := c.catalogs.Get(id)
	if !ok {
		return nil, storage.ErrNoCatalog
	}
	out := make([]domain.CatalogEntry, len(entries))
	copy(out, entries)
	return storage.TruncateAtBlank(out), nil
}

// CatalogCount returns the number of live catalogs.
func (c *CatalogStore) CatalogCount() int {
	return c.catalogs.Count()
}

func indexOf(entries []domain.CatalogEntry, name string) int {
	for i, e := range entries {
		if !e.IsBlank() && e.Name == name {
			return i
		}
	}
	return -1
}
