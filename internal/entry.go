// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/backlink"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/panel"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
)

// env holds the components shared by every command.
type env struct {
	cfg    *Config
	logger *slog.Logger
	store  storage.Provider
	db     *index.DB
	svc    *noteservice.Service
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open initialises logging, storage and the link index, and brings the
// index up to date with the vault.
func (a *application) open() (*env, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("locale", cfg.Panel.LocaleTag().String()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := noteservice.NewService(store, db,
		backlink.WithLogger(logger),
		backlink.WithLocale(cfg.Panel.LocaleTag()),
		backlink.WithConcurrency(cfg.Panel.Concurrency),
	)

	return &env{cfg: cfg, logger: logger, store: store, db: db, svc: svc}, nil
}

// Run starts the HTTP server, the vault watcher and the panel scheduler and
// blocks until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	e, err := app.open()
	if err != nil {
		return err
	}
	defer e.db.Close()

	cfg, logger := e.cfg, e.logger

	broker := sse.NewBroker()
	defer broker.Close()

	scheduler := panel.NewScheduler(cfg.Panel.Debounce, func(ctx context.Context, target string) {
		view, err := e.svc.View(ctx, target)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				logger.Debug("panel: target gone", slog.String("path", target))
				return
			}
			logger.Warn("panel: render failed",
				slog.String("path", target),
				slog.String("error", err.Error()))
			return
		}
		broker.Publish(sse.Event{Type: sse.EventBacklinksRendered, Topic: target, Data: view})
	}, logger)

	// Checkbox toggles re-index eagerly, so the watcher sees nothing new.
	e.svc.OnNoteWritten(func(path string) {
		broker.PublishNoteEvent(string(index.ChangeUpdated), path)
		scheduler.Trigger(panel.TriggerLinksResolved, "")
	})

	var ready atomic.Bool

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		if !ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "starting")
			return
		}
		if err := e.db.Ping(req.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "index unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api.
	events := api.NewEventsHandler(broker, scheduler)
	r.Mount("/api", api.NewRouter(e.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Shutdown waits for active requests; open event streams end once the
	// broker is closed.
	httpServer.RegisterOnShutdown(broker.Close)

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Panel scheduler.
	g.Go(func() error {
		return scheduler.Run(gCtx)
	})

	// File watcher: note events go straight to clients, resolved batches
	// re-render every open panel.
	g.Go(func() error {
		err := index.Watch(gCtx, e.db, e.store, cfg.Vault.Path, logger, index.WatchOptions{
			Settle: cfg.Vault.Settle,
			OnChange: func(kind index.ChangeKind, path string) {
				broker.PublishNoteEvent(string(kind), path)
			},
			OnResolved: func() {
				scheduler.Trigger(panel.TriggerLinksResolved, "")
			},
		})
		if err != nil {
			logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		ready.Store(true)
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
		ready.Store(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunBacklinks prints the backlinks panel of target to out, as JSON when
// asJSON is set and as text otherwise. Text is styled only when out is a
// terminal.
func RunBacklinks(ctx context.Context, target string, out io.Writer, asJSON bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	e, err := app.open()
	if err != nil {
		return err
	}
	defer e.db.Close()

	view, err := e.svc.View(ctx, target)
	if err != nil {
		return fmt.Errorf("backlinks %s: %w", target, err)
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return panel.WriteText(out, view, isTerminal(out))
}

// RunToggle sets the checkbox on line of the note at path and reports the
// outcome on out.
func RunToggle(ctx context.Context, path string, line int, checked bool, out io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	e, err := app.open()
	if err != nil {
		return err
	}
	defer e.db.Close()

	changed, err := e.svc.ToggleCheckbox(ctx, path, line, checked)
	if err != nil {
		return fmt.Errorf("toggle %s:%d: %w", path, line, err)
	}
	state := "unchanged"
	if changed {
		state = "updated"
	}
	_, err = fmt.Fprintf(out, "%s: %s:%d\n", state, path, line)
	return err
}

// RunMCP serves the MCP tools on stdin/stdout while keeping the index in
// step with the vault.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	e, err := app.open()
	if err != nil {
		return err
	}
	defer e.db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		err := index.Watch(ctx, e.db, e.store, e.cfg.Vault.Path, e.logger, index.WatchOptions{Settle: e.cfg.Vault.Settle})
		if err != nil {
			e.logger.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	return mcpserver.New(e.svc, e.store).ServeStdio()
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
