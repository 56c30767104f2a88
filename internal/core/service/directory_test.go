package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage"
	"github.com/yndnr/dirmesh-go/internal/storage/memory"
)

var (
	aliceEP = domain.Endpoint{IP: "10.0.0.1", Port: "9000"}
	bobEP   = domain.Endpoint{IP: "10.0.0.2", Port: "9001"}
)

type testEnv struct {
	dir        *Directory
	identities *memory.IdentityStore
	sessions   *memory.SessionRegistry
	catalogs   *memory.CatalogStore
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	env := &testEnv{
		identities: memory.NewIdentityStore(),
		sessions:   memory.NewSessionRegistry(),
		catalogs:   memory.NewCatalogStore(),
	}
	env.dir = NewDirectory(env.identities, env.sessions, env.catalogs, opts...)
	return env
}

func (e *testEnv) connect(t *testing.T, id string, ep domain.Endpoint) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.dir.Register(ctx, id))
	require.NoError(t, e.dir.Connect(ctx, id, ep))
}

// mockRecorder collects events.
type mockRecorder struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *mockRecorder) Record(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

// brokenIdentities fails every call.
type brokenIdentities struct{ err error }

func (b brokenIdentities) Exists(context.Context, string) (bool, error) { return false, b.err }
func (b brokenIdentities) Add(context.Context, string) error { return b.err }
func (b brokenIdentities) Remove(context.Context, string) error { return b.err }

// vanishingCatalog reports no entries and then loses the catalog on Add,
// like a Disconnect landing between the checks and the mutation.
type vanishingCatalog struct {
	*memory.CatalogStore
}

func (v vanishingCatalog) Add(context.Context, string, domain.CatalogEntry) error {
	return storage.ErrNoCatalog
}

func TestDirectory_Register(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.dir.Register(ctx, "alice"))

	exists, err := env.identities.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	err = env.dir.Register(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrIdentityExists)
	assert.Equal(t, domain.StatusAlreadyExists, domain.StatusOf(err))
}

func TestDirectory_Register_InvalidIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, id := range []string{"", "a/b", "..", "semi;colon"} {
		err := env.dir.Register(ctx, id)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument, "identity %q", id)
	}
}

func TestDirectory_Unregister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.dir.Unregister(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	require.NoError(t, env.dir.Unregister(ctx, "alice"))

	exists, err := env.identities.Exists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDirectory_Unregister_CascadesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.connect(t, "alice", aliceEP)
	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f", Description: "d"}))

	require.NoError(t, env.dir.Unregister(ctx, "alice"))

	active, err := env.sessions.IsActive(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, active)
	assert.Zero(t, env.catalogs.CatalogCount())
}

func TestDirectory_Connect(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.dir.Connect(ctx, "alice", aliceEP)
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))

	err = env.dir.Connect(ctx, "alice", bobEP)
	assert.ErrorIs(t, err, domain.ErrAlreadyConnected)
	assert.Equal(t, domain.StatusAlreadyConnected, domain.StatusOf(err))

	sessions, err := env.sessions.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, aliceEP, sessions[0].Endpoint)
}

func TestDirectory_Connect_InvalidEndpoint(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.dir.Register(ctx, "alice"))

	err := env.dir.Connect(ctx, "alice", domain.Endpoint{IP: "10.0.0.1", Port: "90x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDirectory_Disconnect(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.dir.Disconnect(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	err = env.dir.Disconnect(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))
	require.NoError(t, env.dir.Disconnect(ctx, "alice"))

	// Repeating it reports NotConnected and leaves the registry intact.
	err = env.dir.Disconnect(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	sessions, err := env.sessions.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDirectory_Disconnect_EmptiesCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.connect(t, "alice", aliceEP)
	env.connect(t, "bob", bobEP)

	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f", Description: "d"}))
	require.NoError(t, env.dir.Disconnect(ctx, "alice"))
	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))

	entries, err := env.dir.ListContent(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDirectory_Publish(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	entry := domain.CatalogEntry{Name: "f", Description: "d"}
	err := env.dir.Publish(ctx, "alice", entry)
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	err = env.dir.Publish(ctx, "alice", entry)
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))
	require.NoError(t, env.dir.Publish(ctx, "alice", entry))

	err = env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f", Description: "d2"})
	assert.ErrorIs(t, err, domain.ErrEntryExists)
	assert.Equal(t, domain.StatusAlreadyExists, domain.StatusOf(err))

	require.NoError(t, env.dir.Delete(ctx, "alice", "f"))
	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f", Description: "d2"}))

	entries, err := env.dir.Catalog(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{{Name: "f", Description: "d2"}}, entries)
}

func TestDirectory_Publish_InvalidEntry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.connect(t, "alice", aliceEP)

	err := env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "", Description: "d"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestDirectory_Publish_CatalogVanished(t *testing.T) {
	ctx := context.Background()
	identities := memory.NewIdentityStore()
	sessions := memory.NewSessionRegistry()
	catalogs := vanishingCatalog{memory.NewCatalogStore()}
	dir := NewDirectory(identities, sessions, catalogs)

	require.NoError(t, dir.Register(ctx, "alice"))
	require.NoError(t, dir.Connect(ctx, "alice", aliceEP))

	err := dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f"})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestDirectory_Delete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.connect(t, "alice", aliceEP)

	err := env.dir.Delete(ctx, "alice", "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assert.Equal(t, domain.StatusNotFound, domain.StatusOf(err))

	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "a", Description: "1"}))
	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "b", Description: "2"}))
	require.NoError(t, env.dir.Delete(ctx, "alice", "a"))

	entries, err := env.dir.ListContent(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{{Name: "b", Description: "2"}}, entries)
}

func TestDirectory_ListUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.dir.ListUsers(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	_, err = env.dir.ListUsers(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestDirectory_ListContent_PreconditionOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	// Requester checks run before the target check.
	_, err := env.dir.ListContent(ctx, "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	_, err = env.dir.ListContent(ctx, "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))
	_, err = env.dir.ListContent(ctx, "alice", "bob")
	assert.ErrorIs(t, err, domain.ErrTargetNotConnected)
	assert.Equal(t, domain.StatusNotConnected, domain.StatusOf(err))
}

func TestDirectory_ScenarioSingleUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.dir.Register(ctx, "alice"))
	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))
	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "report", Description: "q1 notes"}))

	entries, err := env.dir.ListContent(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{{Name: "report", Description: "q1 notes"}}, entries)

	require.NoError(t, env.dir.Disconnect(ctx, "alice"))

	env.connect(t, "bob", bobEP)
	_, err = env.dir.ListContent(ctx, "bob", "alice")
	assert.ErrorIs(t, err, domain.ErrTargetNotConnected)
}

func TestDirectory_ScenarioTwoUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.connect(t, "alice", aliceEP)
	env.connect(t, "bob", bobEP)

	sessions, err := env.dir.ListUsers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.Session{
		{Identity: "alice", Endpoint: aliceEP},
		{Identity: "bob", Endpoint: bobEP},
	}, sessions)

	require.NoError(t, env.dir.Unregister(ctx, "bob"))

	sessions, err = env.dir.ListUsers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.Session{{Identity: "alice", Endpoint: aliceEP}}, sessions)
}

func TestDirectory_StorageFailure(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("users.csv: permission denied")
	dir := NewDirectory(brokenIdentities{err: cause}, memory.NewSessionRegistry(), memory.NewCatalogStore())

	tests := []struct {
		name string
		call func() error
	}{
		{"register", func() error { return dir.Register(ctx, "alice") }},
		{"unregister", func() error { return dir.Unregister(ctx, "alice") }},
		{"connect", func() error { return dir.Connect(ctx, "alice", aliceEP) }},
		{"disconnect", func() error { return dir.Disconnect(ctx, "alice") }},
		{"publish", func() error { return dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f"}) }},
		{"delete", func() error { return dir.Delete(ctx, "alice", "f") }},
		{"list users", func() error { _, err := dir.ListUsers(ctx, "alice"); return err }},
		{"list content", func() error { _, err := dir.ListContent(ctx, "alice", "bob"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, domain.ErrStorageError)
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, domain.StatusInternalError, domain.StatusOf(err))
		})
	}
}

func TestDirectory_Recorder(t *testing.T) {
	ctx := context.Background()
	rec := &mockRecorder{}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, WithRecorder(rec), WithClock(func() time.Time { return at }))

	require.NoError(t, env.dir.Register(ctx, "alice"))
	assert.Error(t, env.dir.Register(ctx, "alice"))
	require.NoError(t, env.dir.Connect(ctx, "alice", aliceEP))
	require.NoError(t, env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "f", Description: "d"}))
	_, err := env.dir.ListContent(ctx, "alice", "bob")
	assert.Error(t, err)

	want := []domain.Event{
		{Op: domain.OpRegister, Identity: "alice", Status: domain.StatusOK, Time: at},
		{Op: domain.OpRegister, Identity: "alice", Status: domain.StatusAlreadyExists, Time: at},
		{Op: domain.OpConnect, Identity: "alice", Status: domain.StatusOK, Time: at},
		{Op: domain.OpPublish, Identity: "alice", Name: "f", Status: domain.StatusOK, Time: at},
		{Op: domain.OpListContent, Identity: "alice", Name: "bob", Status: domain.StatusNotConnected, Time: at},
	}
	assert.Equal(t, want, rec.events)
}

func TestDirectory_RecorderFailureIgnored(t *testing.T) {
	ctx := context.Background()
	rec := &mockRecorder{err: errors.New("journal closed")}
	env := newTestEnv(t, WithRecorder(rec))

	require.NoError(t, env.dir.Register(ctx, "alice"))
	assert.Len(t, rec.events, 1)
}

func TestDirectory_ReadOnlyViews(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	n, err := env.dir.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = env.dir.Catalog(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNotConnected)

	env.connect(t, "alice", aliceEP)
	env.connect(t, "bob", bobEP)
	require.NoError(t, env.dir.Publish(ctx, "bob", domain.CatalogEntry{Name: "song", Description: "mp3"}))

	n, err = env.dir.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sessions, err := env.dir.ActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "alice", sessions[0].Identity)

	entries, err := env.dir.Catalog(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{{Name: "song", Description: "mp3"}}, entries)
}

func TestDirectory_ConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.connect(t, "alice", aliceEP)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- env.dir.Publish(ctx, "alice", domain.CatalogEntry{Name: "same", Description: "d"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, exists int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrEntryExists):
			exists++
		default:
			t.Fatalf("Publish() error = %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, exists)
}
