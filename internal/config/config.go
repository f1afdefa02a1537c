// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Task backends selectable through TASKS_BACKEND.
const (
	BackendNotion   = "notion"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	VaultPath   string
	LogLevel    slog.Level

	// AllowedUserIDs limits who may talk to the router. Empty allows everyone.
	AllowedUserIDs []int64
	// DefaultUserID is used when a request carries no user header.
	DefaultUserID int64

	Tasks    TasksConfig
	Agent    AgentConfig
	Progress time.Duration

	ProjectsFile string
	GitPush      bool
}

// TasksConfig selects and configures the structured task backend.
type TasksConfig struct {
	Backend          string
	NotionToken      string
	NotionDatabaseID string
	NotionAPIURL     string
	DatabaseURL      string
}

// AgentConfig controls the delegated agent CLI process.
type AgentConfig struct {
	Binary        string
	MCPConfig     string
	Timeout       time.Duration
	MaxConcurrent int64
	TodoistAPIKey string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	allowed, err := parseUserIDs(getEnv("ALLOWED_USER_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/dbrain.db"),
		VaultPath:      getEnv("VAULT_PATH", "./vault"),
		LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
		AllowedUserIDs: allowed,
		DefaultUserID:  int64(getEnvInt("DEFAULT_USER_ID", 0)),
		Tasks: TasksConfig{
			Backend:          strings.ToLower(getEnv("TASKS_BACKEND", BackendNotion)),
			NotionToken:      getEnv("NOTION_TOKEN", ""),
			NotionDatabaseID: getEnv("NOTION_TASKS_DB_ID", ""),
			NotionAPIURL:     getEnv("NOTION_API_URL", ""),
			DatabaseURL:      getEnv("DATABASE_URL", ""),
		},
		Agent: AgentConfig{
			Binary:        getEnv("AGENT_BINARY", "claude"),
			MCPConfig:     getEnv("AGENT_MCP_CONFIG", ""),
			Timeout:       getEnvDuration("AGENT_TIMEOUT", 20*time.Minute),
			MaxConcurrent: int64(getEnvInt("AGENT_MAX_CONCURRENT", 1)),
			TodoistAPIKey: getEnv("TODOIST_API_KEY", ""),
		},
		Progress:     getEnvDuration("PROGRESS_INTERVAL", 30*time.Second),
		ProjectsFile: getEnv("PROJECTS_FILE", ""),
		GitPush:      getEnvBool("GIT_PUSH", true),
	}

	if cfg.DefaultUserID == 0 && len(allowed) == 1 {
		cfg.DefaultUserID = allowed[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.VaultPath == "" {
		return fmt.Errorf("VAULT_PATH cannot be empty")
	}
	switch c.Tasks.Backend {
	case BackendNotion, BackendSQLite:
	case BackendPostgres:
		if c.Tasks.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when TASKS_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("TASKS_BACKEND must be one of notion, sqlite, postgres (got %q)", c.Tasks.Backend)
	}
	if c.Agent.Binary == "" {
		return fmt.Errorf("AGENT_BINARY cannot be empty")
	}
	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT must be > 0")
	}
	if c.Agent.MaxConcurrent <= 0 {
		return fmt.Errorf("AGENT_MAX_CONCURRENT must be > 0")
	}
	if c.Progress <= 0 {
		return fmt.Errorf("PROGRESS_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AgentEnv returns the environment overrides passed to every agent run.
func (c *Config) AgentEnv() map[string]string {
	env := map[string]string{
		"MCP_TIMEOUT":           "30000",
		"MAX_MCP_OUTPUT_TOKENS": "50000",
	}
	if c.Tasks.NotionToken != "" {
		env["NOTION_TOKEN"] = c.Tasks.NotionToken
	}
	if c.Agent.TodoistAPIKey != "" {
		env["TODOIST_API_KEY"] = c.Agent.TodoistAPIKey
	}
	return env
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") and bare seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_USER_IDS: %q is not a user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
