package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage/storagetest"
)

func TestFileStores(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Stores {
		dir := t.TempDir()
		require.NoError(t, Prepare(dir, true))
		return storagetest.Stores{
			Identities: NewIdentityStore(dir),
			Sessions:   NewSessionRegistry(dir),
			Catalogs:   NewCatalogStore(dir),
		}
	})
}

func TestOnDiskFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Prepare(dir, true))
	ctx := context.Background()

	ids := NewIdentityStore(dir)
	require.NoError(t, ids.Add(ctx, "alice"))
	require.NoError(t, ids.Add(ctx, "bob"))

	reg := NewSessionRegistry(dir)
	require.NoError(t, reg.Open(ctx, domain.Session{
		Identity: "alice",
		Endpoint: domain.Endpoint{IP: "10.0.0.1", Port: "9000"},
	}))

	cat := NewCatalogStore(dir)
	require.NoError(t, cat.Reset(ctx, "alice"))
	require.NoError(t, cat.Add(ctx, "alice", domain.CatalogEntry{Name: "report", Description: "q1;notes"}))

	assertFile(t, filepath.Join(dir, UsersFile), "alice\nbob\n")
	assertFile(t, filepath.Join(dir, ConnectedFile), "alice;10.0.0.1;9000\n")
	assertFile(t, filepath.Join(dir, CatalogDir, "alice"), "report;q1;notes\n")

	entries, err := cat.ListAll(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{{Name: "report", Description: "q1;notes"}}, entries)
}

func TestRemove_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Prepare(dir, true))
	ctx := context.Background()

	ids := NewIdentityStore(dir)
	require.NoError(t, ids.Add(ctx, "alice"))
	require.NoError(t, ids.Add(ctx, "bob"))
	require.NoError(t, ids.Remove(ctx, "alice"))

	assertFile(t, filepath.Join(dir, UsersFile), "bob\n")

	names, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, n := range names {
		assert.NotContains(t, n.Name(), ".tmp-", "temp file left behind")
	}
}

func TestPrepare(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	require.NoError(t, Prepare(dir, false))

	ids := NewIdentityStore(dir)
	require.NoError(t, ids.Add(ctx, "alice"))
	cat := NewCatalogStore(dir)
	require.NoError(t, cat.Reset(ctx, "alice"))

	t.Run("keep", func(t *testing.T) {
		require.NoError(t, Prepare(dir, false))
		ok, err := ids.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, Prepare(dir, true))
		ok, err := ids.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = os.Stat(filepath.Join(dir, CatalogDir, "alice"))
		assert.True(t, os.IsNotExist(err), "catalog should be removed")
	})
}

func TestCatalogStore_RejectsPathIdentity(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Prepare(dir, true))
	cat := NewCatalogStore(dir)

	for _, id := range []string{"", ".", "..", "../users.csv", `a\b`} {
		assert.Error(t, cat.Reset(context.Background(), id), "id %q", id)
	}
}

func TestSessionRegistry_MalformedLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Prepare(dir, true))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConnectedFile), []byte("alice\n"), 0o644))

	_, err := NewSessionRegistry(dir).ListActive(context.Background())
	assert.Error(t, err)
}

func assertFile(t *testing.T, path, want string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}
