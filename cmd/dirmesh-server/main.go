package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/dirmesh-go/internal/core/service"
	"github.com/yndnr/dirmesh-go/internal/infra/buildinfo"
	"github.com/yndnr/dirmesh-go/internal/infra/confloader"
	"github.com/yndnr/dirmesh-go/internal/infra/shutdown"
	"github.com/yndnr/dirmesh-go/internal/protocol"
	"github.com/yndnr/dirmesh-go/internal/server/config"
	"github.com/yndnr/dirmesh-go/internal/server/dirserver"
	"github.com/yndnr/dirmesh-go/internal/server/httpserver"
	"github.com/yndnr/dirmesh-go/internal/storage"
	"github.com/yndnr/dirmesh-go/internal/storage/backend"
	"github.com/yndnr/dirmesh-go/internal/storage/journal"
	"github.com/yndnr/dirmesh-go/internal/telemetry/logger"
	"github.com/yndnr/dirmesh-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":             "server.protocol.addr",
	"status-codes":     "server.protocol.status_codes",
	"serialize":        "server.protocol.serialize",
	"reject-malformed": "server.protocol.reject_malformed",
	"http-addr":        "server.http.addr",
	"backend":          "storage.backend",
	"data-dir":         "storage.data_dir",
	"log-level":        "log.level",
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "dirmesh-server",
		Usage:   "Directory service for registered peers and their published catalogs",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to configuration file", EnvVars: []string{"DIRMESH_CONFIG"}},
			&cli.StringFlag{Name: "addr", Usage: "directory protocol listen address"},
			&cli.StringFlag{Name: "status-codes", Usage: "response code table (normalized, legacy)"},
			&cli.BoolFlag{Name: "serialize", Usage: "serve one connection at a time"},
			&cli.BoolFlag{Name: "reject-malformed", Usage: "answer malformed requests with a protocol failure status"},
			&cli.StringFlag{Name: "http-addr", Usage: "admin HTTP listen address"},
			&cli.StringFlag{Name: "backend", Usage: "storage backend (file, badger, memory)"},
			&cli.StringFlag{Name: "data-dir", Usage: "storage data directory"},
			&cli.StringFlag{Name: "log-level", Usage: "log level (debug, info, warn, error)"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	configFile := c.String("config")
	cfg, err := loadConfig(c, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting dirmesh-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sh := shutdown.NewHandler(cfg.Server.ShutdownTimeout, log)
	if err := start(ctx, cfg, configFile, sh, log); err != nil {
		sh.Trigger()
		_ = sh.Wait(ctx)
		return err
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

// start brings components up in dependency order, registering a shutdown
// hook for each so that they stop in reverse.
func start(ctx context.Context, cfg *config.ServerConfig, configFile string, sh *shutdown.Handler, log *slog.Logger) error {
	metrics := metric.Global()

	badgerCfg := storage.DefaultBadgerConfig()
	badgerCfg.GCInterval = cfg.Storage.Badger.GCInterval
	badgerCfg.SyncWrites = cfg.Storage.Badger.SyncWrites

	engine, err := backend.Open(ctx, backend.Config{
		Backend:      cfg.Storage.Backend,
		DataDir:      cfg.Storage.DataDir,
		ResetOnStart: cfg.Storage.ResetOnStart,
		Badger:       badgerCfg,
		Registerer:   metrics.Registerer(),
		Logger:       log.With("component", "storage"),
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	sh.OnShutdown("storage", func(context.Context) error { return engine.Close() })

	opts := []service.Option{service.WithLogger(log.With("component", "directory"))}
	if cfg.Journal.Enabled {
		jw, err := journal.NewWriter(journal.Config{
			Dir:            cfg.JournalDir(),
			SyncMode:       journal.SyncMode(cfg.Journal.SyncMode),
			SyncInterval:   cfg.Journal.SyncInterval,
			MaxFileSize:    cfg.Journal.MaxFileSize,
			RetainSegments: cfg.Journal.RetainSegments,
			Logger:         log.With("component", "journal"),
		})
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		sh.OnShutdown("journal", func(context.Context) error { return jw.Close() })
		opts = append(opts, service.WithRecorder(jw))
	}

	dir := service.NewDirectory(engine.Identities, engine.Sessions, engine.Catalogs, opts...)
	if err := metrics.Registerer().Register(metric.NewCollector(dir)); err != nil {
		return fmt.Errorf("register session collector: %w", err)
	}

	codes, err := protocol.ParseCodes(cfg.Server.Protocol.StatusCodes)
	if err != nil {
		return err
	}
	p := cfg.Server.Protocol
	srv := dirserver.New(&dirserver.Config{
		Addr:            p.Addr,
		Network:         p.Network,
		Serialize:       p.Serialize,
		ReadTimeout:     p.ReadTimeout,
		WriteTimeout:    p.WriteTimeout,
		RateLimit:       p.RateLimit,
		RateBurst:       p.RateBurst,
		Codes:           codes,
		RejectMalformed: p.RejectMalformed,
	}, dir, metrics, log.With("component", "dirserver"))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start directory server: %w", err)
	}
	sh.OnShutdown("directory server", srv.Shutdown)

	if cfg.Server.HTTP.Enabled {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Directory: dir,
			Metrics:   metrics.Handler(),
			Logger:    log.With("component", "http"),
			RateLimit: cfg.Server.HTTP.RateLimit,
			RateBurst: cfg.Server.HTTP.RateBurst,
		})
		hs := httpserver.New(cfg.Server.HTTP.Addr, router, log.With("component", "http"))
		if err := hs.Start(); err != nil {
			return fmt.Errorf("start admin http server: %w", err)
		}
		sh.OnShutdown("admin http server", hs.Shutdown)
	}

	if configFile != "" {
		if err := watchConfig(ctx, configFile, sh, log); err != nil {
			// the server runs fine without live reload
			log.Warn("config watcher disabled", "error", err)
		}
	}
	return nil
}

func loadConfig(c *cli.Context, configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			overrides[key] = c.Value(flag)
		}
	}
	if len(overrides) > 0 {
		if err := loader.LoadMap(overrides); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func watchConfig(ctx context.Context, path string, sh *shutdown.Handler, log *slog.Logger) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.With("component", "config")))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return err
	}
	w.OnChange(confloader.LevelReloader(confloader.DefaultEnvPrefix, logger.SetLevel, log))

	go w.Run(ctx)
	sh.OnShutdown("config watcher", func(context.Context) error { return w.Stop() })
	return nil
}
