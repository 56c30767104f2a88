package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/pkg/codec"
)

// Key layout of the badger backend.
const (
	identityPrefix = "identity/"
	sessionPrefix  = "session/"
	catalogPrefix  = "catalog/"
	sessionSeqKey  = "meta/session-seq"
)

// BadgerIdentityStore stores one empty-valued key per identity.
type BadgerIdentityStore struct {
	engine *BadgerEngine
	mu     sync.Mutex
}

// NewBadgerIdentityStore creates an identity store on engine.
func NewBadgerIdentityStore(engine *BadgerEngine) *BadgerIdentityStore {
	return &BadgerIdentityStore{engine: engine}
}

// Exists reports whether id is registered.
func (s *BadgerIdentityStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.engine.Get(ctx, []byte(identityPrefix+id))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Add registers id.
func (s *BadgerIdentityStore) Add(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(identityPrefix + id)
	return s.engine.Update(ctx, func(txn *badger.Txn) error {
		if present, err := hasKey(txn, key); err != nil {
			return err
		} else if present {
			return ErrAlreadyExists
		}
		return txn.Set(key, nil)
	})
}

// Remove deletes id.
func (s *BadgerIdentityStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(identityPrefix + id)
	return s.engine.Update(ctx, func(txn *badger.Txn) error {
		if present, err := hasKey(txn, key); err != nil {
			return err
		} else if !present {
			return ErrNotFound
		}
		return txn.Delete(key)
	})
}

// sessionRecord is the persisted value of a session key. Seq orders
// ListActive by insertion.
type sessionRecord struct {
	IP   string `cbor:"ip"`
	Port string `cbor:"port"`
	Seq  uint64 `cbor:"seq"`
}

// BadgerSessionRegistry stores one CBOR record per connected identity.
type BadgerSessionRegistry struct {
	engine *BadgerEngine
	seq    *badger.Sequence
	mu     sync.Mutex
}

// NewBadgerSessionRegistry creates a session registry on engine. Close
// must be called before the engine is closed.
func NewBadgerSessionRegistry(engine *BadgerEngine) (*BadgerSessionRegistry, error) {
	seq, err := engine.Sequence([]byte(sessionSeqKey), 128)
	if err != nil {
		return nil, fmt.Errorf("session sequence: %w", err)
	}
	return &BadgerSessionRegistry{engine: engine, seq: seq}, nil
}

// IsActive reports whether id has an open session.
func (r *BadgerSessionRegistry) IsActive(ctx context.Context, id string) (bool, error) {
	_, err := r.engine.Get(ctx, []byte(sessionPrefix+id))
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Open records a session for s.Identity.
func (r *BadgerSessionRegistry) Open(ctx context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := []byte(sessionPrefix + s.Identity)
	return r.engine.Update(ctx, func(txn *badger.Txn) error {
		if present, err := hasKey(txn, key); err != nil {
			return err
		} else if present {
			return ErrConflict
		}

		n, err := r.seq.Next()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		value, err := codec.Marshal(sessionRecord{IP: s.Endpoint.IP, Port: s.Endpoint.Port, Seq: n})
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
}

// Close removes the session of id.
func (r *BadgerSessionRegistry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := []byte(sessionPrefix + id)
	return r.engine.Update(ctx, func(txn *badger.Txn) error {
		if present, err := hasKey(txn, key); err != nil {
			return err
		} else if !present {
			return ErrNotFound
		}
		return txn.Delete(key)
	})
}

// ListActive returns every open session in the order it was opened.
func (r *BadgerSessionRegistry) ListActive(ctx context.Context) ([]domain.Session, error) {
	type ordered struct {
		seq     uint64
		session domain.Session
	}
	var rows []ordered
	var decodeErr error

	err := r.engine.Scan(ctx, []byte(sessionPrefix), func(key, value []byte) bool {
		var rec sessionRecord
		if err := codec.Unmarshal(value, &rec); err != nil {
			decodeErr = fmt.Errorf("decode session %q: %w", key, err)
			return false
		}
		rows = append(rows, ordered{
			seq: rec.Seq,
			session: domain.Session{
				Identity: string(key[len(sessionPrefix):]),
				Endpoint: domain.Endpoint{IP: rec.IP, Port: rec.Port},
			},
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	sessions := make([]domain.Session, len(rows))
	for i, row := range rows {
		sessions[i] = row.session
	}
	return sessions, nil
}

// Release returns unused sequence numbers to the engine.
func (r *BadgerSessionRegistry) Release() error {
	return r.seq.Release()
}

type catalogRecord struct {
	Name        string `cbor:"name"`
	Description string `cbor:"desc"`
}

// BadgerCatalogStore stores each catalog as one CBOR list value. A missing
// key means the identity has no catalog.
type BadgerCatalogStore struct {
	engine *BadgerEngine
	mu     sync.Mutex
}

// NewBadgerCatalogStore creates a catalog store on engine.
func NewBadgerCatalogStore(engine *BadgerEngine) *BadgerCatalogStore {
	return &BadgerCatalogStore{engine: engine}
}

// Reset writes an empty catalog for id.
func (c *BadgerCatalogStore) Reset(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, err := codec.Marshal([]catalogRecord{})
	if err != nil {
		return err
	}
	return c.engine.Set(ctx, []byte(catalogPrefix+id), value)
}

// Clear deletes the catalog of id.
func (c *BadgerCatalogStore) Clear(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.engine.Delete(ctx, []byte(catalogPrefix+id))
}

// Contains reports whether id's catalog has an entry called name.
func (c *BadgerCatalogStore) Contains(ctx context.Context, id, name string) (bool, error) {
	records, ok, err := c.load(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	return indexOf(records, name) >= 0, nil
}

// Add appends e to id's catalog.
func (c *BadgerCatalogStore) Add(ctx context.Context, id string, e domain.CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mutate(ctx, id, ErrNoCatalog, func(records []catalogRecord) ([]catalogRecord, error) {
		if indexOf(records, e.Name) >= 0 {
			return nil, ErrConflict
		}
		return append(records, catalogRecord{Name: e.Name, Description: e.Description}), nil
	})
}

// Remove deletes the entry called name from id's catalog.
func (c *BadgerCatalogStore) Remove(ctx context.Context, id, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mutate(ctx, id, ErrNotFound, func(records []catalogRecord) ([]catalogRecord, error) {
		i := indexOf(records, name)
		if i < 0 {
			return nil, ErrNotFound
		}
		return append(records[:i], records[i+1:]...), nil
	})
}

// ListAll returns id's catalog up to the first blank entry.
func (c *BadgerCatalogStore) ListAll(ctx context.Context, id string) ([]domain.CatalogEntry, error) {
	records, ok, err := c.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCatalog
	}

	entries := make([]domain.CatalogEntry, len(records))
	for i, r := range records {
		entries[i] = domain.CatalogEntry{Name: r.Name, Description: r.Description}
	}
	return TruncateAtBlank(entries), nil
}

func (c *BadgerCatalogStore) load(ctx context.Context, id string) ([]catalogRecord, bool, error) {
	value, err := c.engine.Get(ctx, []byte(catalogPrefix+id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []catalogRecord
	if err := codec.Unmarshal(value, &records); err != nil {
		return nil, false, fmt.Errorf("decode catalog %q: %w", id, err)
	}
	return records, true, nil
}

func (c *BadgerCatalogStore) mutate(ctx context.Context, id string, missing error,
	fn func([]catalogRecord) ([]catalogRecord, error)) error {
	key := []byte(catalogPrefix + id)
	return c.engine.Update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return missing
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var records []catalogRecord
		if err := codec.Unmarshal(value, &records); err != nil {
			return fmt.Errorf("decode catalog %q: %w", id, err)
		}
		records, err = fn(records)
		if err != nil {
			return err
		}

		encoded, err := codec.Marshal(records)
		if err != nil {
			return err
		}
		return txn.Set(key, encoded)
	})
}

func indexOf(records []catalogRecord, name string) int {
	for i, r := range records {
		if r.Name == name {
			return i
		}
	}
	return -1
}

func hasKey(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}
