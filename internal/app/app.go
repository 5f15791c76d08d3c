// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/webaudit360/internal/api"
	"github.com/JakeFAU/webaudit360/internal/audit"
	"github.com/JakeFAU/webaudit360/internal/clock/system"
	"github.com/JakeFAU/webaudit360/internal/config"
	collyfetcher "github.com/JakeFAU/webaudit360/internal/fetcher/colly"
	"github.com/JakeFAU/webaudit360/internal/logging"
	"github.com/JakeFAU/webaudit360/internal/policy/ratelimit"
	"github.com/JakeFAU/webaudit360/internal/storage"
)

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and handed to the CLI commands.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   storage.Provider
	service *audit.Service
}

// Options adjusts how NewApp opens its dependencies.
type Options struct {
	// Migrate forces schema migration even when db.auto_migrate is off.
	Migrate bool
}

// GetConfig returns the loaded configuration.
func (a *App) GetConfig() config.Config {
	return a.cfg
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStore exposes the configured job store.
func (a *App) GetStore() storage.Provider {
	return a.store
}

// GetService returns the audit service used by the HTTP and CLI surfaces.
func (a *App) GetService() api.AuditService {
	return a.service
}

// NewApp creates and initializes a new App from cfg. It fails fast if the
// logger or the job store cannot be initialized.
func NewApp(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	logger.Info("Initializing application services...", zap.String("db_driver", cfg.DB.Driver))

	store, err := storage.Open(ctx, cfg.DB, storage.Options{Migrate: opts.Migrate}, logger.Named("storage"))
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize job store: %w", err)
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.Fetcher.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: cfg.Fetcher.MaxBodyBytes,
	}, logger.Named("fetcher"))
	var limiter *ratelimit.Limiter
	if cfg.Fetcher.PerHostRPS > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			PerHostRPS:   cfg.Fetcher.PerHostRPS,
			PerHostBurst: cfg.Fetcher.PerHostBurst,
		})
	}

	a := NewWithDependencies(cfg, logger, store, ratelimit.Wrap(fetcher, limiter))
	logger.Info("Application services initialized successfully.")
	return a, nil
}

// NewWithDependencies assembles an App from already-built parts.
func NewWithDependencies(cfg config.Config, logger *zap.Logger, store storage.Provider, fetcher audit.Fetcher) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: audit.NewService(fetcher, store, system.New(), logger.Named("audit")),
	}
}

// Close gracefully shuts down all services in the App container.
// It is called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("Shutting down application services...")
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Error closing job store", zap.Error(err))
		}
	}
	// Sync commonly fails on stdout/stderr; nothing useful can be done about it.
	_ = a.logger.Sync()
}
