// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/anupam-talentica/bookreview-client/internal/api"
	"github.com/anupam-talentica/bookreview-client/internal/bus"
	"github.com/anupam-talentica/bookreview-client/internal/client"
	"github.com/anupam-talentica/bookreview-client/internal/config"
	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/query"
	"github.com/anupam-talentica/bookreview-client/internal/session"
	"github.com/anupam-talentica/bookreview-client/internal/supervisor"
	"github.com/anupam-talentica/bookreview-client/internal/supervisor/services"
	"github.com/anupam-talentica/bookreview-client/internal/views"
	ws "github.com/anupam-talentica/bookreview-client/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting bookreviewd with supervisor tree")
	logging.Info().
		Str("backend_url", cfg.Backend.URL).
		Str("storage_dir", cfg.Storage.Dir).
		Bool("breaker_enabled", cfg.Backend.BreakerEnabled).
		Bool("encryption_at_rest", cfg.Storage.EncryptionKey != "").
		Msg("Configuration loaded")

	// Open the credential store. Badger holds a single record, so the
	// defaults are fine; its own logger is suppressed in favor of zerolog.
	opts := badger.DefaultOptions(cfg.Storage.Dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		logging.Fatal().Err(err).Str("dir", cfg.Storage.Dir).Msg("Failed to open credential store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}()
	logging.Info().Str("dir", cfg.Storage.Dir).Msg("Credential store opened")

	// Encryption at rest is optional; without a key the record is stored
	// as plaintext JSON, matching a single-user localhost deployment.
	var encryptor *session.Encryptor
	if cfg.Storage.EncryptionKey != "" {
		encryptor, err = session.NewEncryptor(cfg.Storage.EncryptionKey)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize credential encryption")
		}
		logging.Info().Msg("Credential encryption at rest enabled")
	} else {
		logging.Warn().Msg("ENCRYPTION_KEY not set - credentials are persisted unencrypted")
	}

	store := session.NewStore(db, encryptor)

	// Backend client: the store is the token source, so every request
	// reads the freshest persisted token.
	clientOpts := []client.Option{
		client.WithTimeout(cfg.Backend.Timeout),
		client.WithTokenSource(store),
		client.WithRetry(cfg.Backend.MaxRetries, cfg.Backend.RetryBaseDelay),
	}
	if cfg.Backend.RateLimitRPS > 0 {
		clientOpts = append(clientOpts, client.WithRateLimit(cfg.Backend.RateLimitRPS, cfg.Backend.RateLimitBurst))
	}
	apiClient, err := client.New(cfg.Backend.URL, clientOpts...)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create backend client")
	}

	// Circuit breaker wraps the client so sustained backend failures fail
	// fast instead of piling up timeouts.
	backend := client.Backend(apiClient)
	var breaker *client.BreakerClient
	if cfg.Backend.BreakerEnabled {
		breaker = client.NewBreakerClient(apiClient)
		backend = breaker
		logging.Info().Msg("Circuit breaker enabled for backend requests")
	} else {
		logging.Warn().Msg("Circuit breaker disabled (BACKEND_BREAKER_ENABLED=false)")
	}

	// In-process event bus: session transitions and cache invalidations
	// flow through here to the WebSocket hub.
	eventBus := bus.New()
	defer func() {
		if err := eventBus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	sessionManager := session.NewManager(backend, store, eventBus)

	// A 401 on an auth-sensitive path means the backend revoked the token;
	// the manager reacts by clearing the session exactly once.
	apiClient.SetUnauthorizedHandler(sessionManager.HandleUnauthorized)

	queryCache := query.New(cfg.Cache.DefaultStaleTime, eventBus)

	wsHub := ws.NewHub()
	forwarder := ws.NewForwarder(wsHub, eventBus)

	viewBuilder := views.NewBuilder(backend, queryCache, sessionManager, views.Config{
		RecommendationStaleTime:   cfg.Cache.RecommendationStaleTime,
		AIRecommendationStaleTime: cfg.Cache.AIRecommendationStaleTime,
		DefaultPageSize:           cfg.API.DefaultPageSize,
		MaxPageSize:               cfg.API.MaxPageSize,
	})

	handler := api.NewHandler(viewBuilder, sessionManager, queryCache, wsHub, cfg)
	if breaker != nil {
		handler.SetBreaker(breaker)
	}

	chiMw := api.NewChiMiddlewareFromConfig(
		cfg.API.CORSOrigins,
		cfg.API.RateLimitRequests,
		cfg.API.RateLimitWindow,
		cfg.API.RateLimitDisabled,
	)
	if cfg.API.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	router := api.NewRouter(handler, chiMw)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer services
	tree.AddDataService(query.NewJanitor(queryCache, cfg.Cache.CleanupInterval))
	tree.AddDataService(session.NewRefresher(sessionManager, 0, cfg.Backend.TokenRefreshLeeway))
	logging.Info().Msg("Cache janitor and token refresher added to supervisor tree")

	// Messaging layer services
	tree.AddMessagingService(wsHub)
	tree.AddMessagingService(forwarder)
	logging.Info().Msg("WebSocket hub and bus forwarder added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Restore the persisted session before serving traffic. Bootstrap
	// never fails startup: a missing, unreadable, or rejected record just
	// means the daemon starts unauthenticated.
	if err := sessionManager.Bootstrap(ctx); err != nil {
		logging.Warn().Err(err).Msg("Session bootstrap reported an error")
	}

	// === START SUPERVISOR TREE ===

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Daemon stopped gracefully")
}
