package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ashureev/dbrain/internal/agent"
	"github.com/ashureev/dbrain/internal/api"
	"github.com/ashureev/dbrain/internal/config"
	"github.com/ashureev/dbrain/internal/intent"
	"github.com/ashureev/dbrain/internal/metrics"
	"github.com/ashureev/dbrain/internal/router"
	"github.com/ashureev/dbrain/internal/store"
	"github.com/ashureev/dbrain/internal/tasks"
	"github.com/ashureev/dbrain/internal/vault"
)

// app is the wired object graph shared by the serve and job commands.
type app struct {
	cfg       *config.Config
	repo      store.Repository
	pool      *pgxpool.Pool
	extractor *intent.Extractor
	router    *router.Router
	registry  *prometheus.Registry
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.repo = repo
	if err := repo.Ping(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	logger.Info("Database connected", "path", cfg.DBPath)

	taskService, err := a.openTasks(ctx, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	projects, err := loadProjects(cfg.ProjectsFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.extractor = intent.NewExtractor(projects)

	v := vault.New(cfg.VaultPath)
	runner := agent.NewRunner(agent.RunnerConfig{
		Binary:        cfg.Agent.Binary,
		MCPConfig:     cfg.Agent.MCPConfig,
		Dir:           cfg.VaultPath,
		Env:           cfg.AgentEnv(),
		Timeout:       cfg.Agent.Timeout,
		MaxConcurrent: cfg.Agent.MaxConcurrent,
	}, logger)
	executor := agent.NewExecutor(runner, repo, cfg.VaultPath, logger)

	a.router, err = router.New(router.Config{
		Tasks:            taskService,
		Agent:            executor,
		Vault:            v,
		Sessions:         repo,
		Jobs:             executor,
		Summaries:        v,
		Git:              vault.NewGit(cfg.VaultPath, cfg.GitPush, logger),
		Extractor:        a.extractor,
		ProgressInterval: cfg.Progress,
		AgentTimeout:     runner.Timeout(),
		Metrics:          metrics.MustNewMetrics(a.registry),
		Logger:           logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("Router ready",
		"tasks_backend", cfg.Tasks.Backend,
		"tasks_configured", a.router.TasksConfigured(),
		"projects", len(a.extractor.Projects().Names()),
	)
	return a, nil
}

// openTasks selects the task backend named by TASKS_BACKEND.
func (a *app) openTasks(ctx context.Context, logger *slog.Logger) (tasks.Service, error) {
	switch a.cfg.Tasks.Backend {
	case config.BackendSQLite:
		s := tasks.NewSQLStore(a.repo.DB())
		if err := s.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare task table: %w", err)
		}
		return s, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, a.cfg.Tasks.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		a.pool = pool
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s := tasks.NewPgStore(pool)
		if err := s.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare task table: %w", err)
		}
		logger.Info("Postgres task store connected")
		return s, nil

	default:
		return tasks.NewNotionClient(tasks.NotionConfig{
			Token:      a.cfg.Tasks.NotionToken,
			DatabaseID: a.cfg.Tasks.NotionDatabaseID,
			BaseURL:    a.cfg.Tasks.NotionAPIURL,
		}, logger), nil
	}
}

// healthChecks lists the dependencies /health pings.
func (a *app) healthChecks() map[string]api.Pinger {
	checks := map[string]api.Pinger{"database": a.repo}
	if a.pool != nil {
		checks["postgres"] = a.pool
	}
	return checks
}

func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			slog.Error("Failed to close repository", "error", err)
		}
	}
}

// loadProjects returns the project table from path, or nil for the
// built-in default when path is empty.
func loadProjects(path string) (*intent.ProjectTable, error) {
	if path == "" {
		return nil, nil
	}
	table, err := intent.LoadProjects(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects file: %w", err)
	}
	return table, nil
}
