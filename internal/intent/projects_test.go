package intent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectTable_Match(t *testing.T) {
	table := NewProjectTable([]Project{
		{Name: "Alpha", Aliases: []string{"al"}},
		{Name: "Alpine", Aliases: []string{"al"}},
		{Name: "Long", Aliases: []string{"al pha"}},
	})

	name, n := table.Match("AL: x")
	assert.Equal(t, "Alpha", name, "first declared wins a tie")
	assert.Equal(t, 2, n)

	name, _ = table.Match("al pha x")
	assert.Equal(t, "Long", name, "longest alias wins")

	name, n = table.Match("alps")
	assert.Empty(t, name)
	assert.Zero(t, n)
}

func TestProjectTable_MatchSkipsHyphenatedCompound(t *testing.T) {
	table := DefaultProjects()

	name, _ := table.Match("видео-ролик снять")
	assert.Empty(t, name)
	name, _ = table.Match("контент-план внести пост")
	assert.Empty(t, name)

	name, _ = table.Match("видео - снять ролик")
	assert.Equal(t, "Видео", name)
	name, _ = table.Match("контент-завод: пост")
	assert.Equal(t, "Контент-завод", name)
}

func TestProjectTable_MatchCyrillicBytes(t *testing.T) {
	name, n := DefaultProjects().Match("ВИДЕО монтаж")
	assert.Equal(t, "Видео", name)
	assert.Equal(t, len("ВИДЕО"), n)
}

func TestDefaultProjects_Names(t *testing.T) {
	names := DefaultProjects().Names()
	assert.Contains(t, names, "Видео")
	assert.Contains(t, names, "Контент-завод")
	assert.Len(t, names, 7)
}

func writeProjects(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadProjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	writeProjects(t, path, `
projects:
  - name: Ремонт
    aliases: [ремонт, квартира]
  - name: Garden
`)

	table, err := LoadProjects(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ремонт", "Garden"}, table.Names())

	name, _ := table.Match("квартира: покрасить стены")
	assert.Equal(t, "Ремонт", name)
	name, _ = table.Match("garden weeds")
	assert.Equal(t, "Garden", name)
}

func TestLoadProjects_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadProjects(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	writeProjects(t, bad, "projects: [name: {")
	_, err = LoadProjects(bad)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	writeProjects(t, empty, "projects: []\n")
	_, err = LoadProjects(empty)
	assert.ErrorContains(t, err, "no projects")
}

func TestExtractor_SetProjectsIgnoresNil(t *testing.T) {
	e := NewExtractor(nil)
	before := e.Projects()
	e.SetProjects(nil)
	assert.Same(t, before, e.Projects())
}

func TestWatchProjects_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.yaml")
	writeProjects(t, path, "projects:\n  - name: First\n")

	table, err := LoadProjects(path)
	require.NoError(t, err)
	e := NewExtractor(table)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchProjects(ctx, path, e, nil) }()

	// Give the watcher time to register before the write.
	time.Sleep(100 * time.Millisecond)
	writeProjects(t, path, "projects:\n  - name: Second\n    aliases: [второй]\n")

	require.Eventually(t, func() bool {
		names := e.Projects().Names()
		return len(names) == 1 && names[0] == "Second"
	}, 3*time.Second, 20*time.Millisecond)

	project, rest := e.ExtractProject("в второй сделать")
	assert.Equal(t, "Second", project)
	assert.Equal(t, "сделать", rest)

	// A broken file keeps the previous table.
	writeProjects(t, path, "projects: [")
	time.Sleep(2 * reloadDebounce)
	assert.Equal(t, []string{"Second"}, e.Projects().Names())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
