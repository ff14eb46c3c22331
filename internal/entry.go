// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lendscan/internal/api"
	"github.com/starford/lendscan/internal/catalog"
	"github.com/starford/lendscan/internal/lending"
	"github.com/starford/lendscan/internal/mcpserver"
	"github.com/starford/lendscan/internal/scan"
	"github.com/starford/lendscan/internal/sse"
	"github.com/starford/lendscan/internal/storage"
)

// EventStoreChanged is published when another process edits the JSON store.
const EventStoreChanged = "store.changed"

func newApplication(opts []Option) (*application, error) {
	app := &application{logWriter: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open initialises the logger and storage backend shared by every command.
func (a *application) open() (*slog.Logger, storage.Provider, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logWriter, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	return logger, store, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger, store, err := app.open()
	if err != nil {
		return err
	}
	defer store.Close()

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.StatsThrottle)
	defer broker.Close()
	broker.SetKeepAlive(cfg.Events.KeepAlive)

	engine := lending.New(store,
		lending.WithLogger(logger),
		lending.WithNotifier(broker),
	)
	sessions := scan.NewRegistry(engine, cfg.Scan.SessionTTL, logger)

	if issues, err := engine.CheckConsistency(ctx); err != nil {
		logger.Warn("consistency check failed", slog.String("error", err.Error()))
	} else if len(issues) > 0 {
		logger.Warn("store has inconsistent books", slog.Int("count", len(issues)))
	}

	apiRouter := api.NewRouter(engine, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if len(cfg.App.HTTP.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.App.HTTP.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", readyHandler(engine))

	// Mount API routes under /api.
	var apiHandler http.Handler = apiRouter
	var limiter *api.RateLimiter
	if rl := cfg.App.HTTP.RateLimit; rl.RPS > 0 {
		limiter = api.NewRateLimiter(rl.RPS, rl.Burst, 10*time.Minute)
		apiHandler = api.RateLimitMiddleware(limiter)(apiHandler)
	}
	r.Mount("/api", apiHandler)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}
	// SSE streams end when the broker closes; Shutdown would wait for them.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Expire idle scan sessions.
	if cfg.Scan.SessionTTL > 0 {
		g.Go(func() error {
			sessions.Run(gCtx, cfg.Scan.SweepInterval)
			return nil
		})
	}

	if limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					limiter.Sweep()
				}
			}
		})
	}

	// Report external edits of the JSON store to SSE clients.
	if fs, ok := store.(*storage.FS); ok && cfg.Store.Watch {
		g.Go(func() error {
			err := storage.Watch(gCtx, fs, logger, func(c storage.Collection) {
				broker.Notify(EventStoreChanged, string(c))
			})
			if err != nil {
				logger.Warn("store watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
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
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stop the sweeper and watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

func readyHandler(engine *lending.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := engine.Stats(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// RunMCP serves the lending tools over stdio until stdin closes, ctx is
// cancelled or the process is interrupted.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger, store, err := app.open()
	if err != nil {
		return err
	}
	defer store.Close()

	engine := lending.New(store, lending.WithLogger(logger))
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio")
	err = mcpserver.New(engine, logger).Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Import loads a YAML catalog file into the store and returns what was added
// and skipped.
func Import(ctx context.Context, path string, opts ...Option) (*catalog.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := catalog.Parse(data)
	if err != nil {
		return nil, err
	}

	logger, store, err := app.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	engine := lending.New(store, lending.WithLogger(logger))
	return catalog.Import(ctx, engine, c, logger)
}
