// Package backend opens the directory stores for the configured storage
// backend and owns their lifecycle.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/dirmesh-go/internal/storage"
	"github.com/yndnr/dirmesh-go/internal/storage/filestore"
	"github.com/yndnr/dirmesh-go/internal/storage/memory"
)

// BadgerSubdir is the badger database directory inside the data dir.
const BadgerSubdir = "badger"

// Config selects and configures a backend.
type Config struct {
	// Backend is one of storage.BackendFile, storage.BackendBadger or
	// storage.BackendMemory.
	Backend string

	// DataDir is the base directory for file and badger data.
	DataDir string

	// ResetOnStart discards existing directory state on open.
	ResetOnStart bool

	Badger storage.BadgerConfig

	// Registerer receives backend metrics. Optional.
	Registerer prometheus.Registerer

	Logger *slog.Logger
}

// Engine holds the three stores of one backend.
type Engine struct {
	Identities storage.IdentityStore
	Sessions   storage.SessionRegistry
	Catalogs   storage.CatalogStore

	backend string
	closers []func() error
	logger  *slog.Logger
}

// Open creates the stores for cfg.Backend.
func Open(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Engine{backend: cfg.Backend, logger: cfg.Logger}

	var err error
	switch cfg.Backend {
	case storage.BackendFile:
		err = e.openFile(cfg)
	case storage.BackendBadger:
		err = e.openBadger(ctx, cfg)
	case storage.BackendMemory:
		e.Identities = memory.NewIdentityStore()
		e.Sessions = memory.NewSessionRegistry()
		e.Catalogs = memory.NewCatalogStore()
	default:
		err = fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		e.Close()
		return nil, err
	}

	cfg.Logger.Info("storage opened",
		"backend", cfg.Backend,
		"data_dir", cfg.DataDir,
		"reset_on_start", cfg.ResetOnStart)
	return e, nil
}

func (e *Engine) openFile(cfg Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("storage: data_dir is required for the file backend")
	}
	if err := filestore.Prepare(cfg.DataDir, cfg.ResetOnStart); err != nil {
		return err
	}
	e.Identities = filestore.NewIdentityStore(cfg.DataDir)
	e.Sessions = filestore.NewSessionRegistry(cfg.DataDir)
	e.Catalogs = filestore.NewCatalogStore(cfg.DataDir)
	return nil
}

func (e *Engine) openBadger(ctx context.Context, cfg Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("storage: data_dir is required for the badger backend")
	}

	kv := storage.KVConfig{Dir: filepath.Join(cfg.DataDir, BadgerSubdir), Badger: cfg.Badger}
	engine, err := storage.NewBadgerEngine(kv, cfg.Logger.With("component", "badger"))
	if err != nil {
		return err
	}
	e.closers = append(e.closers, engine.Close)

	if cfg.ResetOnStart {
		if err := engine.DropAll(ctx); err != nil {
			return fmt.Errorf("storage: reset badger: %w", err)
		}
	}

	sessions, err := storage.NewBadgerSessionRegistry(engine)
	if err != nil {
		return err
	}
	// released before the engine closes
	e.closers = append(e.closers, sessions.Release)

	if cfg.Registerer != nil {
		if err := engine.RegisterMetrics(cfg.Registerer); err != nil {
			return fmt.Errorf("storage: register badger metrics: %w", err)
		}
	}

	e.Identities = storage.NewBadgerIdentityStore(engine)
	e.Sessions = sessions
	e.Catalogs = storage.NewBadgerCatalogStore(engine)
	return nil
}

// Backend returns the backend name.
func (e *Engine) Backend() string {
	return e.backend
}

// Close releases backend resources in reverse order of acquisition.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
