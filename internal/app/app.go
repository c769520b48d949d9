// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hfujimori/agenda-sync/internal/config"
	"github.com/hfujimori/agenda-sync/internal/mirror"
	"github.com/hfujimori/agenda-sync/internal/notify"
	"github.com/hfujimori/agenda-sync/internal/runs"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and passed to the components that need it.
type App struct {
	logger   *zap.Logger
	runStore runs.Provider
	notifier notify.Provider
	mirror   mirror.Provider
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger { return a.logger }

// RunStore exposes the configured run-history store.
func (a *App) RunStore() runs.Provider { return a.runStore }

// Notifier returns the provider used to announce finished runs.
func (a *App) Notifier() notify.Provider { return a.notifier }

// Mirror returns the snapshot store for rendered artifacts.
func (a *App) Mirror() mirror.Provider { return a.mirror }

// New instantiates the providers selected by cfg. It fails fast if any
// critical service cannot be initialized.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger.Info("initializing application services")

	var store runs.Provider
	switch cfg.Runs.Provider {
	case "postgres":
		logger.Info("connecting to postgres run store")
		p, err := runs.NewPostgresProvider(ctx, runs.PostgresConfig{
			DSN:             cfg.Runs.DSN,
			Table:           cfg.Runs.Table,
			MaxConns:        cfg.Runs.MaxConns,
			MaxConnLifetime: cfg.Runs.ConnTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize run store: %w", err)
		}
		store = p
	case "memory":
		logger.Info("using in-memory run store, history is lost on restart")
		store = runs.NewMemoryProvider()
	case "noop":
		logger.Info("using no-op run store, run history will be discarded")
		store = runs.NewNoOpProvider()
	default:
		return nil, fmt.Errorf("unknown runs provider: %s", cfg.Runs.Provider)
	}

	var notifier notify.Provider
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("connecting to gcp pub/sub", zap.String("topic", cfg.Notify.TopicID))
		n, err := notify.NewPubSubProvider(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicID, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("initialize notifier: %w", err)
		}
		notifier = n
	case "noop":
		logger.Info("using no-op notifier, no messages will be sent")
		notifier = &notify.NoOpProvider{}
	default:
		store.Close()
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}

	var mir mirror.Provider
	switch cfg.Mirror.Provider {
	case "gcs":
		logger.Info("using gcs mirror", zap.String("bucket", cfg.Mirror.Bucket))
		m, err := mirror.NewGCSProvider(ctx, cfg.Mirror.Bucket, cfg.Mirror.Prefix, logger)
		if err != nil {
			store.Close()
			closeQuietly(logger, notifier.Close)
			return nil, fmt.Errorf("initialize mirror: %w", err)
		}
		mir = m
	case "local":
		logger.Info("using local mirror", zap.String("dir", cfg.Mirror.LocalDir))
		m, err := mirror.NewLocalProvider(cfg.Mirror.LocalDir)
		if err != nil {
			store.Close()
			closeQuietly(logger, notifier.Close)
			return nil, fmt.Errorf("initialize mirror: %w", err)
		}
		mir = m
	case "noop":
		logger.Info("using no-op mirror, snapshots will be discarded")
		mir = &mirror.NoOpProvider{}
	default:
		store.Close()
		closeQuietly(logger, notifier.Close)
		return nil, fmt.Errorf("unknown mirror provider: %s", cfg.Mirror.Provider)
	}

	logger.Info("application services initialized")
	return &App{
		logger:   logger,
		runStore: store,
		notifier: notifier,
		mirror:   mir,
	}, nil
}

// Close gracefully shuts down all services in the container.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	a.runStore.Close()
	closeQuietly(a.logger, a.notifier.Close)
	closeQuietly(a.logger, a.mirror.Close)
	// Best effort; stderr sync failures are expected on some platforms.
	_ = a.logger.Sync()
}

func closeQuietly(logger *zap.Logger, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("error closing service", zap.Error(err))
	}
}
