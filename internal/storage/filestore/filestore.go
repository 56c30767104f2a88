package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage"
)

// File names inside the data directory.
const (
	UsersFile     = "users.csv"
	ConnectedFile = "connected.csv"
	CatalogDir    = "files"
)

// Prepare creates the data directory layout. With reset, both logs are
// truncated and every catalog is removed.
func Prepare(dataDir string, reset bool) error {
	catalogs := filepath.Join(dataDir, CatalogDir)
	if reset {
		if err := os.RemoveAll(catalogs); err != nil {
			return fmt.Errorf("filestore: reset catalogs: %w", err)
		}
	}
	if err := os.MkdirAll(catalogs, 0o755); err != nil {
		return fmt.Errorf("filestore: create %s: %w", catalogs, err)
	}

	for _, name := range []string{UsersFile, ConnectedFile} {
		path := filepath.Join(dataDir, name)
		flags := os.O_WRONLY | os.O_CREATE
		if reset {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return fmt.Errorf("filestore: prepare %s: %w", path, err)
		}
		f.Close()
	}
	return nil
}

// IdentityStore keeps one identity per line.
type IdentityStore struct {
	path string
	mu   sync.Mutex
}

// NewIdentityStore creates an identity store backed by dataDir/users.csv.
func NewIdentityStore(dataDir string) *IdentityStore {
	return &IdentityStore{path: filepath.Join(dataDir, UsersFile)}
}

// Exists reports whether id is registered.
func (s *IdentityStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, _, err := readLines(s.path)
	if err != nil {
		return false, err
	}
	return indexLine(lines, func(l string) bool { return l == id }) >= 0, nil
}

// Add registers id.
func (s *IdentityStore) Add(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, _, err := readLines(s.path)
	if err != nil {
		return err
	}
	if indexLine(lines, func(l string) bool { return l == id }) >= 0 {
		return storage.ErrAlreadyExists
	}
	return appendLine(s.path, id)
}

// Remove deletes id.
func (s *IdentityStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, _, err := readLines(s.path)
	if err != nil {
		return err
	}
	kept, removed := without(lines, func(l string) bool { return l == id })
	if !removed {
		return storage.ErrNotFound
	}
	return rewrite(s.path, kept)
}

// SessionRegistry keeps one "identity;ip;port" line per session.
type SessionRegistry struct {
	path string
	mu   sync.Mutex
}

// NewSessionRegistry creates a registry backed by dataDir/connected.csv.
func NewSessionRegistry(dataDir string) *SessionRegistry {
	return &SessionRegistry{path: filepath.Join(dataDir, ConnectedFile)}
}

func sessionOwner(id string) func(string) bool {
	prefix := id + ";"
	return func(l string) bool { return strings.HasPrefix(l, prefix) }
}

// IsActive reports whether id has an open session.
func (r *SessionRegistry) IsActive(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, _, err := readLines(r.path)
	if err != nil {
		return false, err
	}
	return indexLine(lines, sessionOwner(id)) >= 0, nil
}

// Open appends a session line for s.
func (r *SessionRegistry) Open(_ context.Context, s domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, _, err := readLines(r.path)
	if err != nil {
		return err
	}
	if indexLine(lines, sessionOwner(s.Identity)) >= 0 {
		return storage.ErrConflict
	}
	return appendLine(r.path, s.Identity+";"+s.Endpoint.IP+";"+s.Endpoint.Port)
}

// Close removes the session line of id.
func (r *SessionRegistry) Close(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, _, err := readLines(r.path)
	if err != nil {
		return err
	}
	kept, removed := without(lines, sessionOwner(id))
	if !removed {
		return storage.ErrNotFound
	}
	return rewrite(r.path, kept)
}

// ListActive returns sessions in file order.
func (r *SessionRegistry) ListActive(_ context.Context) ([]domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines, _, err := readLines(r.path)
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ";", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("filestore: malformed session line %q", line)
		}
		sessions = append(sessions, domain.Session{
			Identity: parts[0],
			Endpoint: domain.Endpoint{IP: parts[1], Port: parts[2]},
		})
	}
	return sessions, nil
}

// CatalogStore keeps one file per identity under dataDir/files.
type CatalogStore struct {
	dir string
	mu  sync.Mutex
}

// NewCatalogStore creates a catalog store rooted at dataDir/files.
func NewCatalogStore(dataDir string) *CatalogStore {
	return &CatalogStore{dir: filepath.Join(dataDir, CatalogDir)}
}

func (c *CatalogStore) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("filestore: identity %q is not a valid catalog name", id)
	}
	return filepath.Join(c.dir, id), nil
}

func entryLine(e domain.CatalogEntry) string {
	if e.IsBlank() {
		return ""
	}
	return e.Name + ";" + e.Description
}

func parseEntry(line string) domain.CatalogEntry {
	name, desc, _ := strings.Cut(line, ";")
	return domain.CatalogEntry{Name: name, Description: desc}
}

func entryNamed(name string) func(string) bool {
	return func(l string) bool { return l != "" && parseEntry(l).Name == name }
}

// Reset replaces id's catalog with an empty one.
func (c *CatalogStore) Reset(_ context.Context, id string) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return rewrite(path, nil)
}

// Clear deletes id's catalog file.
func (c *CatalogStore) Clear(_ context.Context, id string) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: clear %s: %w", path, err)
	}
	return nil
}

// Contains reports whether id's catalog has an entry called name.
func (c *CatalogStore) Contains(_ context.Context, id, name string) (bool, error) {
	path, err := c.path(id)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines, _, err := readLines(path)
	if err != nil {
		return false, err
	}
	return indexLine(lines, entryNamed(name)) >= 0, nil
}

// Add appends e to id's catalog.
func (c *CatalogStore) Add(_ context.Context, id string, e domain.CatalogEntry) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines, exists, err := readLines(path)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNoCatalog
	}
	if !e.IsBlank() && indexLine(lines, entryNamed(e.Name)) >= 0 {
		return storage.ErrConflict
	}
	return appendLine(path, entryLine(e))
}

// Remove deletes the entry called name from id's catalog.
func (c *CatalogStore) Remove(_ context.Context, id, name string) error {
	path, err := c.path(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines, _, err := readLines(path)
	if err != nil {
		return err
	}
	kept, removed := without(lines, entryNamed(name))
	if !removed {
		return storage.ErrNotFound
	}
	return rewrite(path, kept)
}

// ListAll returns id's entries up to the first empty line.
func (c *CatalogStore) ListAll(_ context.Context, id string) ([]domain.CatalogEntry, error) {
	path, err := c.path(id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines, exists, err := readLines(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.ErrNoCatalog
	}

	entries := make([]domain.CatalogEntry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			break
		}
		entries = append(entries, parseEntry(line))
	}
	return entries, nil
}

func indexLine(lines []string, match func(string) bool) int {
	for i, l := range lines {
		if match(l) {
			return i
		}
	}
	return -1
}

// without drops the first line that matches.
func without(lines []string, match func(string) bool) ([]string, bool) {
	i := indexLine(lines, match)
	if i < 0 {
		return lines, false
	}
	kept := make([]string, 0, len(lines)-1)
	kept = append(kept, lines[:i]...)
	return append(kept, lines[i+1:]...), true
}
