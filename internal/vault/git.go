package vault

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Git snapshots the vault directory and optionally pushes it.
type Git struct {
	dir    string
	push   bool
	logger *slog.Logger
}

// NewGit creates a Git for the repository at dir.
func NewGit(dir string, push bool, logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{dir: dir, push: push, logger: logger}
}

// CommitAndPush stages everything, commits with message and pushes when
// enabled. A clean tree is not an error and nothing is committed.
func (g *Git) CommitAndPush(ctx context.Context, message string) error {
	status, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return err
	}
	if status == "" {
		g.logger.Debug("vault clean, nothing to commit")
		return nil
	}
	if _, err := g.run(ctx, "add", "-A"); err != nil {
		return err
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	if !g.push {
		return nil
	}
	if _, err := g.run(ctx, "push"); err != nil {
		return err
	}
	g.logger.Info("vault pushed", "message", message)
	return nil
}

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_PAGER=cat")
	out, err := cmd.CombinedOutput()
	result := strings.TrimSpace(string(out))
	if err != nil {
		if result != "" {
			return "", fmt.Errorf("git %s failed: %s", strings.Join(args, " "), result)
		}
		return "", fmt.Errorf("git %s failed: %w", strings.Join(args, " "), err)
	}
	return result, nil
}
