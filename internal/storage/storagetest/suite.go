// Package storagetest provides a conformance suite for the directory
// stores. Every backend runs it from its own tests.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage"
)

// Stores bundles one instance of each store from the backend under test.
type Stores struct {
	Identities storage.IdentityStore
	Sessions   storage.SessionRegistry
	Catalogs   storage.CatalogStore
}

// Factory returns fresh, empty stores. Cleanup is registered on t.
type Factory func(t *testing.T) Stores

// Run executes the full suite.
func Run(t *testing.T, newStores Factory) {
	t.Run("IdentityStore", func(t *testing.T) { testIdentityStore(t, newStores(t).Identities) })
	t.Run("SessionRegistry", func(t *testing.T) { testSessionRegistry(t, newStores(t).Sessions) })
	t.Run("CatalogStore", func(t *testing.T) { testCatalogStore(t, newStores(t).Catalogs) })
	t.Run("ConcurrentIdentityAdd", func(t *testing.T) { testConcurrentIdentityAdd(t, newStores(t).Identities) })
	t.Run("ConcurrentPublish", func(t *testing.T) { testConcurrentPublish(t, newStores(t).Catalogs) })
}

func testIdentityStore(t *testing.T, ids storage.IdentityStore) {
	ctx := context.Background()

	ok, err := ids.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ids.Add(ctx, "alice"))
	require.NoError(t, ids.Add(ctx, "alicia"))
	assert.ErrorIs(t, ids.Add(ctx, "alice"), storage.ErrAlreadyExists)

	ok, err = ids.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// lookups are exact, never prefix or substring matches
	ok, err = ids.Exists(ctx, "ali")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ids.Remove(ctx, "alice"))
	assert.ErrorIs(t, ids.Remove(ctx, "alice"), storage.ErrNotFound)

	ok, err = ids.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ids.Exists(ctx, "alicia")
	require.NoError(t, err)
	assert.True(t, ok, "removing alice must keep alicia")
}

func testSessionRegistry(t *testing.T, reg storage.SessionRegistry) {
	ctx := context.Background()
	alice := domain.Session{Identity: "alice", Endpoint: domain.Endpoint{IP: "10.0.0.1", Port: "9000"}}
	bob := domain.Session{Identity: "bob", Endpoint: domain.Endpoint{IP: "10.0.0.2", Port: "9001"}}
	carol := domain.Session{Identity: "carol", Endpoint: domain.Endpoint{IP: "10.0.0.3", Port: "9002"}}

	sessions, err := reg.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, reg.Open(ctx, bob))
	require.NoError(t, reg.Open(ctx, alice))
	require.NoError(t, reg.Open(ctx, carol))
	assert.ErrorIs(t, reg.Open(ctx, alice), storage.ErrConflict)

	active, err := reg.IsActive(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, active)

	sessions, err = reg.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Session{bob, alice, carol}, sessions, "insertion order")

	require.NoError(t, reg.Close(ctx, "alice"))
	assert.ErrorIs(t, reg.Close(ctx, "alice"), storage.ErrNotFound)

	active, err = reg.IsActive(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, active)

	// reopening appends at the end
	require.NoError(t, reg.Open(ctx, alice))
	sessions, err = reg.ListActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Session{bob, carol, alice}, sessions)
}

func testCatalogStore(t *testing.T, cat storage.CatalogStore) {
	ctx := context.Background()
	report := domain.CatalogEntry{Name: "report", Description: "q1 notes"}
	notes := domain.CatalogEntry{Name: "notes", Description: "a;b"}

	_, err := cat.ListAll(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrNoCatalog)
	assert.ErrorIs(t, cat.Add(ctx, "alice", report), storage.ErrNoCatalog)

	ok, err := cat.Contains(ctx, "alice", "report")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cat.Reset(ctx, "alice"))
	entries, err := cat.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, cat.Add(ctx, "alice", report))
	require.NoError(t, cat.Add(ctx, "alice", notes))
	assert.ErrorIs(t, cat.Add(ctx, "alice", domain.CatalogEntry{Name: "report", Description: "d2"}), storage.ErrConflict)

	ok, err = cat.Contains(ctx, "alice", "report")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err = cat.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{report, notes}, entries)

	require.NoError(t, cat.Remove(ctx, "alice", "report"))
	assert.ErrorIs(t, cat.Remove(ctx, "alice", "report"), storage.ErrNotFound)
	require.NoError(t, cat.Add(ctx, "alice", domain.CatalogEntry{Name: "report", Description: "d2"}))

	entries, err = cat.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{notes, {Name: "report", Description: "d2"}}, entries)

	// Reset discards the previous catalog
	require.NoError(t, cat.Reset(ctx, "alice"))
	entries, err = cat.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, cat.Clear(ctx, "alice"))
	require.NoError(t, cat.Clear(ctx, "alice"), "clearing an absent catalog")
	_, err = cat.ListAll(ctx, "alice")
	assert.ErrorIs(t, err, storage.ErrNoCatalog)

	t.Run("ListAllStopsAtBlank", func(t *testing.T) {
		require.NoError(t, cat.Reset(ctx, "bob"))
		require.NoError(t, cat.Add(ctx, "bob", domain.CatalogEntry{Name: "a", Description: "1"}))
		require.NoError(t, cat.Add(ctx, "bob", domain.CatalogEntry{}))
		require.NoError(t, cat.Add(ctx, "bob", domain.CatalogEntry{Name: "b", Description: "2"}))

		entries, err := cat.ListAll(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []domain.CatalogEntry{{Name: "a", Description: "1"}}, entries)

		ok, err := cat.Contains(ctx, "bob", "b")
		require.NoError(t, err)
		assert.True(t, ok, "entries after the blank record still exist")
	})
}

func testConcurrentIdentityAdd(t *testing.T, ids storage.IdentityStore) {
	ctx := context.Background()
	var wg sync.WaitGroup
	var winners atomic.Int32

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ids.Add(ctx, "alice"); err == nil {
				winners.Add(1)
			} else {
				assert.ErrorIs(t, err, storage.ErrAlreadyExists)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func testConcurrentPublish(t *testing.T, cat storage.CatalogStore) {
	ctx := context.Background()
	require.NoError(t, cat.Reset(ctx, "alice"))

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := domain.CatalogEntry{Name: fmt.Sprintf("file-%02d", i), Description: "d"}
			assert.NoError(t, cat.Add(ctx, "alice", e))
		}(i)
	}
	wg.Wait()

	entries, err := cat.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, entries, n)
}
