// Package main is the entry point for the My Lanka Journey admin console.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/mylankajourney/admin-console/internal/backend"
	"github.com/mylankajourney/admin-console/internal/catalog"
	"github.com/mylankajourney/admin-console/internal/config"
	"github.com/mylankajourney/admin-console/internal/handler"
	"github.com/mylankajourney/admin-console/internal/middleware"
	"github.com/mylankajourney/admin-console/internal/repo"
	"github.com/mylankajourney/admin-console/internal/service"
	"github.com/mylankajourney/admin-console/internal/session"
	"github.com/mylankajourney/admin-console/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Catalog ----------------------------------------------------------
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load entity catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("entity catalog loaded", "kinds", len(cat.Kinds()))

	// --- Backend ----------------------------------------------------------
	client, err := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithToken(cfg.BackendToken),
		backend.WithLogger(logger),
	)
	if err != nil {
		slog.Error("invalid backend configuration", "error", err)
		os.Exit(1)
	}

	// --- Sessions ---------------------------------------------------------
	var store session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb, err := session.Connect(ctx, session.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
	} else {
		slog.Warn("REDIS_ADDR not set, sessions are kept in memory")
	}

	// --- Audit log --------------------------------------------------------
	auditRepo := repo.NewMemoryAuditRepo()
	if cfg.DatabaseURL != "" {
		pool, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		auditRepo = repo.NewAuditRepo(pool)
	} else {
		slog.Warn("DATABASE_URL not set, the audit log is kept in memory")
	}

	// --- Services ---------------------------------------------------------
	workspaces := service.NewWorkspaces(cat)
	gate := session.NewGate(store, client, cfg.SessionTTL, logger, session.OnEnd(workspaces.Drop))
	audit := service.NewAuditService(auditRepo, logger)

	// Sessions last SessionTTL from login and tokens rotate at login, so a
	// workspace idle that long can no longer belong to a live session.
	janitor := service.NewJanitor(gate, workspaces, logger, time.Minute, cfg.SessionTTL)
	janitor.Start(ctx)
	defer janitor.Stop()

	srvHandler, err := handler.NewServer(handler.Deps{
		Gate:      gate,
		Content:   service.NewContentService(cat, client, workspaces, audit, logger),
		Bookings:  service.NewBookingService(client),
		Dashboard: service.NewDashboardService(client),
		Audit:     audit,
		Cookie:    middleware.CookieConfig{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL},
		Log:       logger,
	})
	if err != nil {
		slog.Error("failed to build handlers", "error", err)
		os.Exit(1)
	}

	// --- Router -----------------------------------------------------------
	// Order: RequestID → RealIP → Logger → Recoverer → body limit → CORS → CSRF.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewCSRF(cfg.CSRFKey, cfg.CookieSecure, logger))
	r.Mount("/", srvHandler.Routes())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout leaves room for a slow backend behind an upload.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 20*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// openDatabase connects to Postgres and applies pending migrations.
func openDatabase(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("database connection established")

	// goose needs database/sql, not a pgx pool.
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer db.Close()

	applied, err := migrations.Up(ctx, db)
	if err != nil {
		pool.Close()
		return nil, err
	}
	slog.Info("migrations applied", "count", applied)
	return pool, nil
}
