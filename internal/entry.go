package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/WayBetterSolutions/LEAF/internal/event"
	"github.com/WayBetterSolutions/LEAF/internal/mcpserver"
	"github.com/WayBetterSolutions/LEAF/internal/notestore"
	"github.com/WayBetterSolutions/LEAF/internal/registry"
	"github.com/WayBetterSolutions/LEAF/internal/watch"
)

// defaultFirstCollection is used when the registry is empty and no name was
// supplied.
const defaultFirstCollection = "Notes"

// Runtime is the application context: every component constructed once at
// startup and passed by reference. There are no package-level singletons.
type Runtime struct {
	Config   *Config
	Logger   *slog.Logger
	Bus      *event.Bus
	Registry *registry.Registry
	Store    *notestore.Store
}

// Bootstrap builds the runtime: logger, event bus, registry, and note
// store, creating the data directories and the first collection when
// needed. The loaded registry self-heals missing backing files.
func Bootstrap(opts ...Option) (*Runtime, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Structured JSON logger on stderr; stdout belongs to the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Data.CollectionsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	bus := event.NewBus()
	bus.Subscribe(func(ev event.Event) {
		switch ev.Type {
		case event.SaveError, event.LoadError:
			logger.Warn("storage event", slog.String("type", ev.Type), slog.Any("detail", ev.Data))
		}
	})

	reg := registry.New(cfg.Data.RegistryFile(), cfg.Data.CollectionsDir(), cfg, bus, logger)
	reg.Load()
	if reg.NeedsSetup() {
		name := app.firstCollection
		if name == "" {
			name = defaultFirstCollection
		}
		if err := reg.SetupFirst(name); err != nil {
			return nil, fmt.Errorf("first collection setup: %w", err)
		}
		logger.Info("created first collection", slog.String("name", name))
	} else {
		reg.EnsureFiles()
	}

	store := notestore.New(reg, bus, logger)
	store.Load()

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Bus:      bus,
		Registry: reg,
		Store:    store,
	}, nil
}

// Run starts serve mode: the stdio MCP server plus the file watcher, wired
// under one errgroup with signal-driven shutdown.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := Bootstrap(opts...)
	if err != nil {
		return err
	}
	cfg, logger := rt.Config, rt.Logger

	logger.Info("Configuration loaded",
		slog.String("data_path", cfg.Data.Path),
		slog.String("active_collection", rt.Registry.Current()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	srv := mcpserver.New(rt.Registry, rt.Store)

	g, gCtx := errgroup.WithContext(ctx)

	// Watch for external edits to the data files.
	g.Go(func() error {
		return watch.Watch(gCtx, rt.Registry, rt.Store,
			cfg.Data.RegistryFile(), cfg.Data.CollectionsDir(), logger)
	})

	// Serve MCP on stdin/stdout; returns when the client disconnects or the
	// group context is cancelled.
	g.Go(func() error {
		logger.Info("Starting MCP server on stdio")
		if err := srv.Listen(gCtx, os.Stdin, os.Stdout); err != nil && err != context.Canceled {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	rt.Bus.Close()
	logger.Info("Stopped")
	return nil
}
