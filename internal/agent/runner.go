// Package agent runs the external long-running assistant CLI and builds the
// prompts handed to it.
package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultTimeout is the hard bound on a single agent run.
const DefaultTimeout = 20 * time.Minute

var (
	// ErrTimeout is returned when a run exceeds its hard timeout.
	ErrTimeout = errors.New("agent run timed out")
	// ErrNotInstalled is returned when the agent binary cannot be found.
	ErrNotInstalled = errors.New("agent binary not installed")
)

// ExitError reports a run that finished with a non-zero exit status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return fmt.Sprintf("agent exited with code %d", e.Code)
}

// Output is the result of a successful run.
type Output struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Binary        string            // defaults to "claude"
	MCPConfig     string            // passed as --mcp-config when set
	Dir           string            // working directory
	Env           map[string]string // overrides applied on top of the process environment
	Timeout       time.Duration     // defaults to DefaultTimeout
	MaxConcurrent int64             // defaults to 1
}

// Runner invokes the agent CLI in print mode with tool permissions pre-granted.
type Runner struct {
	cfg    RunnerConfig
	sem    *semaphore.Weighted
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig, logger *slog.Logger) *Runner {
	if cfg.Binary == "" {
		cfg.Binary = "claude"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		sem:    semaphore.NewWeighted(cfg.MaxConcurrent),
		logger: logger,
	}
}

// Timeout returns the hard bound applied to each run.
func (r *Runner) Timeout() time.Duration {
	return r.cfg.Timeout
}

// Run executes the agent with prompt and waits for it to exit. Runs beyond
// MaxConcurrent queue until a slot frees up; the wait counts against ctx but
// not against the run timeout.
func (r *Runner) Run(ctx context.Context, prompt string) (*Output, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("waiting for agent slot: %w", err)
	}
	defer r.sem.Release(1)

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.cfg.Binary, r.args(prompt)...)
	cmd.Dir = r.cfg.Dir
	cmd.Env = r.environ()
	cmd.WaitDelay = 5 * time.Second

	var stdout bytes.Buffer
	stderr := newTailBuffer(stderrTailSize)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			r.logger.Error("agent run timed out", "timeout", r.cfg.Timeout)
			return nil, ErrTimeout
		case ctx.Err() != nil:
			return nil, fmt.Errorf("agent run cancelled: %w", ctx.Err())
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
			r.logger.Error("agent binary not found", "binary", r.cfg.Binary)
			return nil, ErrNotInstalled
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.logger.Error("agent run failed", "exit_code", exitErr.ExitCode(), "stderr", stderr.String())
			return nil, &ExitError{Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return nil, fmt.Errorf("run agent: %w", err)
	}

	r.logger.Info("agent run finished", "duration", duration)
	return &Output{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

func (r *Runner) args(prompt string) []string {
	args := []string{"--print", "--dangerously-skip-permissions"}
	if r.cfg.MCPConfig != "" {
		args = append(args, "--mcp-config", r.cfg.MCPConfig)
	}
	return append(args, "-p", prompt)
}

// environ inherits the process environment minus CLAUDECODE, which would
// make the child think it is nested in another session.
func (r *Runner) environ() []string {
	env := make([]string, 0, len(os.Environ())+len(r.cfg.Env))
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if key == "CLAUDECODE" {
			continue
		}
		if _, overridden := r.cfg.Env[key]; overridden {
			continue
		}
		env = append(env, kv)
	}
	for k, v := range r.cfg.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// FailureText turns a run error into the message shown to the user.
func FailureText(err error, timeout time.Duration) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return fmt.Sprintf("Превышено время ожидания (%d мин)", int(timeout.Minutes()))
	case errors.Is(err, ErrNotInstalled):
		return "Claude CLI не установлен"
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && strings.TrimSpace(exitErr.Stderr) == "" {
		return "Ошибка выполнения Claude"
	}
	return err.Error()
}
