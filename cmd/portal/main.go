// Package main is the entry point for the IQ Didactic portal.
//
// The portal is a single-user companion process: it restores the saved
// session on startup, serves the login, dashboard, and admin screens, and
// keeps every screen behind the route gate. The architecture follows Clean
// Architecture and DDD:
//   - Domain: session, identity, and shared types with no external dependencies
//   - Application: the session manager orchestrating auth flows
//   - Infrastructure: credential stores, the API client, the event bus
//   - Interface: the HTTP surface and route gate
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iq-didactic/didactic-portal/config"
	"github.com/iq-didactic/didactic-portal/internal/application/auth"
	"github.com/iq-didactic/didactic-portal/internal/domain/session"
	"github.com/iq-didactic/didactic-portal/internal/infrastructure/credentials"
	"github.com/iq-didactic/didactic-portal/internal/infrastructure/external/didactic"
	"github.com/iq-didactic/didactic-portal/internal/infrastructure/messaging"
	postgrescreds "github.com/iq-didactic/didactic-portal/internal/infrastructure/persistence/postgres"
	rediscreds "github.com/iq-didactic/didactic-portal/internal/infrastructure/persistence/redis"
	httpserver "github.com/iq-didactic/didactic-portal/internal/interface/http"
	"github.com/iq-didactic/didactic-portal/pkg/circuitbreaker"
	"github.com/iq-didactic/didactic-portal/pkg/logger"
	"github.com/iq-didactic/didactic-portal/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting IQ Didactic portal",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. CREDENTIAL STORE
	// ─────────────────────────────────────────────────────────────────────────
	store, closeStore, err := buildCredentialStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	defer closeStore()
	log.Info("credential store ready", logger.String("backend", cfg.Credentials.Backend))

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. API CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	apiConfig := didactic.DefaultClientConfig(cfg.API.BaseURL)
	apiConfig.Timeout = cfg.API.RequestTimeout
	apiConfig.Debug = cfg.App.Debug
	apiConfig.Retrier = retry.New(
		retry.WithMaxAttempts(cfg.API.MaxRetries),
		retry.WithInitialDelay(cfg.API.RetryBaseDelay),
		retry.WithMaxDelay(cfg.API.RetryMaxDelay),
	)
	apiConfig.Breaker = circuitbreaker.New(
		"didactic-api",
		circuitbreaker.WithFailureThreshold(cfg.API.CircuitBreakerThreshold),
		circuitbreaker.WithTimeout(cfg.API.CircuitBreakerTimeout),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	)
	apiClient := didactic.NewClient(apiConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SESSION MANAGER
	// ─────────────────────────────────────────────────────────────────────────
	manager := auth.NewManager(auth.Config{
		Store:  store,
		API:    apiClient,
		Bus:    eventBus,
		Logger: log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 7. NAVIGATOR
	// ─────────────────────────────────────────────────────────────────────────
	navigator, err := httpserver.NewNavigator(eventBus, log)
	if err != nil {
		return fmt.Errorf("failed to create navigator: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SESSION RESTORATION
	// The session reaches a terminal state before the first request is
	// served, so the gate rarely shows its holding page in practice.
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("restoring session")
	if err := manager.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxUploadBytes = cfg.HTTP.MaxUploadBytes

	server := httpserver.NewServer(httpConfig, httpserver.Dependencies{
		Session:   manager,
		API:       apiClient,
		Navigator: navigator,
		Bus:       eventBus,
		Logger:    log,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("portal is running", logger.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("service error", logger.Err(err))
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger configures structured logging from the observability settings.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// buildCredentialStore opens the configured token store backend.
func buildCredentialStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (session.Store, func(), error) {
	switch cfg.Credentials.Backend {
	case config.CredentialBackendFile:
		path := cfg.Credentials.Path
		if path == "" {
			var err error
			path, err = credentials.DefaultPath()
			if err != nil {
				return nil, nil, err
			}
		}
		if cfg.Credentials.Passphrase != "" {
			return credentials.NewEncryptedFileStore(path, cfg.Credentials.Passphrase), func() {}, nil
		}
		return credentials.NewFileStore(path), func() {}, nil

	case config.CredentialBackendRedis:
		redisCfg := rediscreds.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		store, err := rediscreds.NewCredentialStore(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close redis store", logger.Err(err))
			}
		}, nil

	case config.CredentialBackendPostgres:
		pgCfg := postgrescreds.DefaultConfig(cfg.Database.URL)
		pgCfg.Profile = cfg.Database.Profile
		pgCfg.MaxConns = int32(cfg.Database.MaxConns)
		pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout

		store, err := postgrescreds.NewCredentialStore(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown credential backend %q", cfg.Credentials.Backend)
	}
}
