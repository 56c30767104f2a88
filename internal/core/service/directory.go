package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/dirmesh-go/internal/core/domain"
	"github.com/yndnr/dirmesh-go/internal/storage"
)

// Recorder receives the outcome of every directory operation.
type Recorder interface {
	Record(ctx context.Context, ev domain.Event) error
}

// Option configures a Directory.
type Option func(*Directory)

// WithRecorder reports operation outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(d *Directory) {
		d.recorder = r
	}
}

// WithLogger sets the logger used for store and recorder failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithClock overrides the time source used for recorded events.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) {
		if now != nil {
			d.now = now
		}
	}
}

// Directory is the directory service. It is safe for concurrent use as long
// as the stores are.
type Directory struct {
	identities storage.IdentityStore
	sessions   storage.SessionRegistry
	catalogs   storage.CatalogStore

	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewDirectory creates a Directory over the three stores.
func NewDirectory(identities storage.IdentityStore, sessions storage.SessionRegistry, catalogs storage.CatalogStore, opts ...Option) *Directory {
	d := &Directory{
		identities: identities,
		sessions:   sessions,
		catalogs:   catalogs,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ============================================================================
// Identity operations
// ============================================================================

// Register adds id to the identity store.
func (d *Directory) Register(ctx context.Context, id string) (err error) {
	defer func() { d.record(ctx, domain.OpRegister, id, "", err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return err
	}

	exists, err := d.identities.Exists(ctx, id)
	if err != nil {
		return d.storageErr(ctx, domain.OpRegister, err)
	}
	if exists {
		return domain.ErrIdentityExists.WithDetails(id)
	}

	if err := d.identities.Add(ctx, id); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return domain.ErrIdentityExists.WithDetails(id)
		}
		return d.storageErr(ctx, domain.OpRegister, err)
	}
	return nil
}

// Unregister removes id from the identity store. A live session for id is
// closed and its catalog cleared.
func (d *Directory) Unregister(ctx context.Context, id string) (err error) {
	defer func() { d.record(ctx, domain.OpUnregister, id, "", err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return err
	}
	if err := d.requireRegistered(ctx, domain.OpUnregister, id); err != nil {
		return err
	}

	if err := d.identities.Remove(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotRegistered.WithDetails(id)
		}
		return d.storageErr(ctx, domain.OpUnregister, err)
	}

	active, err := d.sessions.IsActive(ctx, id)
	if err != nil {
		return d.storageErr(ctx, domain.OpUnregister, err)
	}
	if !active {
		return nil
	}
	// A concurrent Disconnect may have closed the session already.
	if err := d.sessions.Close(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return d.storageErr(ctx, domain.OpUnregister, err)
	}
	if err := d.catalogs.Clear(ctx, id); err != nil {
		return d.storageErr(ctx, domain.OpUnregister, err)
	}
	return nil
}

// ============================================================================
// Session operations
// ============================================================================

// Connect opens a session for id at ep and starts an empty catalog.
func (d *Directory) Connect(ctx context.Context, id string, ep domain.Endpoint) (err error) {
	defer func() { d.record(ctx, domain.OpConnect, id, "", err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return err
	}
	if err := ep.Validate(); err != nil {
		return err
	}
	if err := d.requireRegistered(ctx, domain.OpConnect, id); err != nil {
		return err
	}

	active, err := d.sessions.IsActive(ctx, id)
	if err != nil {
		return d.storageErr(ctx, domain.OpConnect, err)
	}
	if active {
		return domain.ErrAlreadyConnected.WithDetails(id)
	}

	if err := d.sessions.Open(ctx, domain.Session{Identity: id, Endpoint: ep}); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return domain.ErrAlreadyConnected.WithDetails(id)
		}
		return d.storageErr(ctx, domain.OpConnect, err)
	}
	if err := d.catalogs.Reset(ctx, id); err != nil {
		return d.storageErr(ctx, domain.OpConnect, err)
	}
	return nil
}

// Disconnect closes the session for id and deletes its catalog.
func (d *Directory) Disconnect(ctx context.Context, id string) (err error) {
	defer func() { d.record(ctx, domain.OpDisconnect, id, "", err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return err
	}
	if err := d.requireRegistered(ctx, domain.OpDisconnect, id); err != nil {
		return err
	}
	if err := d.requireConnected(ctx, domain.OpDisconnect, id); err != nil {
		return err
	}

	if err := d.sessions.Close(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotConnected.WithDetails(id)
		}
		return d.storageErr(ctx, domain.OpDisconnect, err)
	}
	if err := d.catalogs.Clear(ctx, id); err != nil {
		return d.storageErr(ctx, domain.OpDisconnect, err)
	}
	return nil
}

// ============================================================================
// Catalog operations
// ============================================================================

// Publish appends entry to the catalog of id.
func (d *Directory) Publish(ctx context.Context, id string, entry domain.CatalogEntry) (err error) {
	defer func() { d.record(ctx, domain.OpPublish, id, entry.Name, err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return err
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := d.requireRegistered(ctx, domain.OpPublish, id); err != nil {
		return err
	}
	if err := d.requireConnected(ctx, domain.OpPublish, id); err != nil {
		return err
	}

	found, err := d.catalogs.Contains(ctx, id, entry.Name)
	if err != nil {
		return d.catalogErr(ctx, domain.OpPublish, id, err)
	}
	if found {
		return domain.ErrEntryExists.WithDetails(entry.Name)
	}

	if err := d.catalogs.Add(ctx, id, entry); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return domain.ErrEntryExists.WithDetails(entry.Name)
		}
		return d.catalogErr(ctx, domain.OpPublish, id, err)
	}
	return nil
}

// Delete removes the entry called name from the catalog of id.
func (d *Directory) Delete(ctx context.Context, id, name string) (err error) {
	defer func() { d.record(ctx, domain.OpDelete, id, name, err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return err
	}
	if err := domain.ValidateName(name); err != nil {
		return err
	}
	if err := d.requireRegistered(ctx, domain.OpDelete, id); err != nil {
		return err
	}
	if err := d.requireConnected(ctx, domain.OpDelete, id); err != nil {
		return err
	}

	found, err := d.catalogs.Contains(ctx, id, name)
	if err != nil {
		return d.catalogErr(ctx, domain.OpDelete, id, err)
	}
	if !found {
		return domain.ErrEntryNotFound.WithDetails(name)
	}

	if err := d.catalogs.Remove(ctx, id, name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrEntryNotFound.WithDetails(name)
		}
		return d.catalogErr(ctx, domain.OpDelete, id, err)
	}
	return nil
}

// ============================================================================
// Listings
// ============================================================================

// ListUsers returns every active session in the order the sessions were
// opened. The requester id must be connected.
func (d *Directory) ListUsers(ctx context.Context, id string) (sessions []domain.Session, err error) {
	defer func() { d.record(ctx, domain.OpListUsers, id, "", err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return nil, err
	}
	if err := d.requireRegistered(ctx, domain.OpListUsers, id); err != nil {
		return nil, err
	}
	if err := d.requireConnected(ctx, domain.OpListUsers, id); err != nil {
		return nil, err
	}

	sessions, err = d.sessions.ListActive(ctx)
	if err != nil {
		return nil, d.storageErr(ctx, domain.OpListUsers, err)
	}
	return sessions, nil
}

// ListContent returns the catalog of target. Both id and target must be
// connected.
func (d *Directory) ListContent(ctx context.Context, id, target string) (entries []domain.CatalogEntry, err error) {
	defer func() { d.record(ctx, domain.OpListContent, id, target, err) }()

	if err := domain.ValidateIdentity(id); err != nil {
		return nil, err
	}
	if err := domain.ValidateIdentity(target); err != nil {
		return nil, err
	}
	if err := d.requireRegistered(ctx, domain.OpListContent, id); err != nil {
		return nil, err
	}
	if err := d.requireConnected(ctx, domain.OpListContent, id); err != nil {
		return nil, err
	}

	active, err := d.sessions.IsActive(ctx, target)
	if err != nil {
		return nil, d.storageErr(ctx, domain.OpListContent, err)
	}
	if !active {
		return nil, domain.ErrTargetNotConnected.WithDetails(target)
	}

	entries, err = d.catalogs.ListAll(ctx, target)
	if err != nil {
		if errors.Is(err, storage.ErrNoCatalog) {
			return nil, domain.ErrTargetNotConnected.WithDetails(target)
		}
		return nil, d.storageErr(ctx, domain.OpListContent, err)
	}
	return entries, nil
}

// ============================================================================
// Read-only views
// ============================================================================

// ActiveSessions returns every active session in opening order. Unlike
// ListUsers it has no requester and records no event.
func (d *Directory) ActiveSessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := d.sessions.ListActive(ctx)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return sessions, nil
}

// CountActive returns the number of active sessions.
func (d *Directory) CountActive(ctx context.Context) (int, error) {
	sessions, err := d.ActiveSessions(ctx)
	if err != nil {
		return 0, err
	}
	return len(sessions), nil
}

// Catalog returns the catalog of a connected identity.
func (d *Directory) Catalog(ctx context.Context, id string) ([]domain.CatalogEntry, error) {
	if err := domain.ValidateIdentity(id); err != nil {
		return nil, err
	}
	active, err := d.sessions.IsActive(ctx, id)
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	if !active {
		return nil, domain.ErrNotConnected.WithDetails(id)
	}
	entries, err := d.catalogs.ListAll(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNoCatalog) {
			return nil, domain.ErrNotConnected.WithDetails(id)
		}
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return entries, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (d *Directory) requireRegistered(ctx context.Context, op domain.Op, id string) error {
	exists, err := d.identities.Exists(ctx, id)
	if err != nil {
		return d.storageErr(ctx, op, err)
	}
	if !exists {
		return domain.ErrNotRegistered.WithDetails(id)
	}
	return nil
}

func (d *Directory) requireConnected(ctx context.Context, op domain.Op, id string) error {
	active, err := d.sessions.IsActive(ctx, id)
	if err != nil {
		return d.storageErr(ctx, op, err)
	}
	if !active {
		return domain.ErrNotConnected.WithDetails(id)
	}
	return nil
}

// catalogErr maps a catalog store error. A missing catalog means the session
// closed between the precondition checks and the mutation.
func (d *Directory) catalogErr(ctx context.Context, op domain.Op, id string, err error) error {
	if errors.Is(err, storage.ErrNoCatalog) {
		return domain.ErrNotConnected.WithDetails(id)
	}
	return d.storageErr(ctx, op, err)
}

func (d *Directory) storageErr(ctx context.Context, op domain.Op, err error) error {
	d.logger.ErrorContext(ctx, "store operation failed", "op", op.String(), "error", err)
	return domain.ErrStorageError.WithDetails(op.String()).WithCause(err)
}

func (d *Directory) record(ctx context.Context, op domain.Op, id, name string, err error) {
	if d.recorder == nil {
		return
	}
	ev := domain.Event{
		Op:       op,
		Identity: id,
		Name:     name,
		Status:   domain.StatusOf(err),
		Time:     d.now(),
	}
	if rerr := d.recorder.Record(ctx, ev); rerr != nil {
		d.logger.WarnContext(ctx, "record operation failed", "op", op.String(), "identity", id, "error", rerr)
	}
}
