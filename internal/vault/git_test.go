package vault

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "-q"},
		{"config", "user.email", "vault@example.com"},
		{"config", "user.name", "vault"},
		{"config", "commit.gpgsign", "false"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	return dir
}

func TestGit_CommitAndPush(t *testing.T) {
	dir := initRepo(t)
	g := NewGit(dir, false, nil)
	ctx := context.Background()

	// Clean tree: no commit, no error.
	require.NoError(t, g.CommitAndPush(ctx, "empty"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.md"), []byte("x"), 0o644))
	require.NoError(t, g.CommitAndPush(ctx, "chore: process daily 2026-03-11"))

	out, err := g.run(ctx, "log", "--format=%s")
	require.NoError(t, err)
	assert.Equal(t, "chore: process daily 2026-03-11", out)

	status, err := g.run(ctx, "status", "--porcelain")
	require.NoError(t, err)
	assert.Empty(t, status)
}

func TestGit_PushWithoutRemoteFails(t *testing.T) {
	dir := initRepo(t)
	g := NewGit(dir, true, nil)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.md"), []byte("x"), 0o644))
	err := g.CommitAndPush(context.Background(), "msg")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "git push failed"), err.Error())
}

func TestGit_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	err := NewGit(t.TempDir(), false, nil).CommitAndPush(context.Background(), "msg")
	assert.Error(t, err)
}
