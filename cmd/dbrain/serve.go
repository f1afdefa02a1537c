package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ashureev/dbrain/internal/api"
	"github.com/ashureev/dbrain/internal/config"
	"github.com/ashureev/dbrain/internal/identity"
	"github.com/ashureev/dbrain/internal/intent"
	"github.com/ashureev/dbrain/internal/middleware"
	"github.com/ashureev/dbrain/internal/status"
)

const (
	rateLimitRequests = 30
	rateLimitWindow   = time.Minute
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := status.NewHub()
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     newHTTPHandler(ctx, cfg, a, hub),
		ReadTimeout: 30 * time.Second,
		// Delegated runs hold the request open for up to the agent timeout.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.ProjectsFile != "" {
		g.Go(func() error {
			if err := intent.WatchProjects(gctx, cfg.ProjectsFile, a.extractor, logger); err != nil {
				logger.Warn("Projects hot reload disabled", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

func newHTTPHandler(ctx context.Context, cfg *config.Config, a *app, hub *status.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(allowedOrigins(cfg)))

	// Public routes.
	api.NewHealthHandler(a.healthChecks()).RegisterHealth(r)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(identity.NewAllowlist(cfg.AllowedUserIDs), cfg.DefaultUserID))

		limiter := api.NewRateLimiter(ctx, rateLimitRequests, rateLimitWindow)
		api.NewHandler(a.router, a.repo, hub, limiter).RegisterRoutes(r)
		r.Get("/ws/status", status.NewHandler(hub, cfg.FrontendURL, cfg.IsDevelopment()).ServeHTTP)
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
