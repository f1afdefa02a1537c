package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ALLOWED_USER_IDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, BackendNotion, cfg.Tasks.Backend)
	assert.Equal(t, 20*time.Minute, cfg.Agent.Timeout)
	assert.Equal(t, int64(1), cfg.Agent.MaxConcurrent)
	assert.Equal(t, 30*time.Second, cfg.Progress)
	assert.True(t, cfg.GitPush)
	assert.Empty(t, cfg.AllowedUserIDs)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_USER_IDS", "42, 7")
	t.Setenv("TASKS_BACKEND", "SQLite")
	t.Setenv("AGENT_TIMEOUT", "90")
	t.Setenv("PROGRESS_INTERVAL", "5s")
	t.Setenv("GIT_PUSH", "off")
	t.Setenv("DEFAULT_USER_ID", "")
	t.Setenv("FRONTEND_URL", "https://brain.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []int64{42, 7}, cfg.AllowedUserIDs)
	assert.Equal(t, BackendSQLite, cfg.Tasks.Backend)
	assert.Equal(t, 90*time.Second, cfg.Agent.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Progress)
	assert.False(t, cfg.GitPush)
	assert.Zero(t, cfg.DefaultUserID)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_SingleAllowedUserBecomesDefault(t *testing.T) {
	t.Setenv("ALLOWED_USER_IDS", "42")
	t.Setenv("DEFAULT_USER_ID", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.DefaultUserID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad user id", "ALLOWED_USER_IDS", "42,abc", "ALLOWED_USER_IDS"},
		{"unknown backend", "TASKS_BACKEND", "todoist", "TASKS_BACKEND"},
		{"postgres without url", "TASKS_BACKEND", "postgres", "DATABASE_URL"},
		{"empty vault", "VAULT_PATH", "", "VAULT_PATH"},
		{"zero concurrency", "AGENT_MAX_CONCURRENT", "0", "AGENT_MAX_CONCURRENT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAgentEnv(t *testing.T) {
	cfg := &Config{
		Tasks: TasksConfig{NotionToken: "secret"},
	}
	env := cfg.AgentEnv()

	assert.Equal(t, "30000", env["MCP_TIMEOUT"])
	assert.Equal(t, "50000", env["MAX_MCP_OUTPUT_TOKENS"])
	assert.Equal(t, "secret", env["NOTION_TOKEN"])
	_, ok := env["TODOIST_API_KEY"]
	assert.False(t, ok)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DURATION", "garbage")
	assert.Equal(t, time.Minute, getEnvDuration("X_DURATION", time.Minute))
	t.Setenv("X_DURATION", "250ms")
	assert.Equal(t, 250*time.Millisecond, getEnvDuration("X_DURATION", time.Minute))
}
