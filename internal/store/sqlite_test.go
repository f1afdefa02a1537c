package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/dbrain/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "data", "dbrain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionLog_AppendAndReadToday(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2026, time.March, 11, 0, 0, 0, 0, time.Local)

	entries := []*domain.SessionEntry{
		{UserID: 1, Timestamp: day.Add(9 * time.Hour), Source: domain.SourceVoice, Text: "первая", Tag: "[voice]", MessageID: 10},
		{UserID: 1, Timestamp: day.Add(10 * time.Hour), Source: domain.SourcePhoto, Reference: "attachments/2026-03-11/img.jpg", Tag: "[photo]"},
		{UserID: 2, Timestamp: day.Add(11 * time.Hour), Source: domain.SourceText, Text: "чужая"},
		{UserID: 1, Timestamp: day.Add(-time.Hour), Source: domain.SourceText, Text: "вчера"},
		{UserID: 1, Timestamp: day.Add(12 * time.Hour), Source: domain.SourceText, Text: "последняя", Tag: "[text][task]"},
	}
	for _, e := range entries {
		require.NoError(t, s.AppendSession(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	got, err := s.SessionToday(ctx, 1, day.Add(20*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "первая", got[0].Text)
	assert.Equal(t, domain.SourceVoice, got[0].Source)
	assert.Equal(t, int64(10), got[0].MessageID)
	assert.Equal(t, "attachments/2026-03-11/img.jpg", got[1].Reference)
	assert.Equal(t, "последняя", got[2].Text)
	assert.Equal(t, "[text][task]", got[2].Tag)
	assert.True(t, got[2].Timestamp.Equal(day.Add(12*time.Hour)))

	none, err := s.SessionToday(ctx, 3, day)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionLog_FillsTimestamp(t *testing.T) {
	s := newTestStore(t)
	e := &domain.SessionEntry{UserID: 5, Source: domain.SourceText, Text: "x"}
	require.NoError(t, s.AppendSession(context.Background(), e))
	assert.False(t, e.Timestamp.IsZero())

	got, err := s.SessionToday(context.Background(), 5, time.Now())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSessionLog_ConcurrentAppends(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AppendSession(ctx, &domain.SessionEntry{UserID: 7, Timestamp: now, Source: domain.SourceText, Text: "n"}))
		}()
	}
	wg.Wait()

	got, err := s.SessionToday(ctx, 7, now)
	require.NoError(t, err)
	assert.Len(t, got, 25)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
