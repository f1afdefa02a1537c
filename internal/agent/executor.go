package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/dbrain/internal/domain"
)

// ErrNoDailyNote is returned by ProcessDaily when the day has no note.
var ErrNoDailyNote = errors.New("нет дневника")

// SessionReader exposes today's session log for prompt context.
type SessionReader interface {
	SessionToday(ctx context.Context, userID int64, now time.Time) ([]domain.SessionEntry, error)
}

// Invoker runs a prompt through the agent. *Runner implements it.
type Invoker interface {
	Run(ctx context.Context, prompt string) (*Output, error)
}

// Executor builds prompts from vault and session context and hands them to
// the agent.
type Executor struct {
	invoker   Invoker
	sessions  SessionReader
	vaultPath string
	now       func() time.Time
	logger    *slog.Logger
}

// NewExecutor creates an Executor. sessions may be nil.
func NewExecutor(invoker Invoker, sessions SessionReader, vaultPath string, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		invoker:   invoker,
		sessions:  sessions,
		vaultPath: vaultPath,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the executor's clock.
func (e *Executor) WithClock(now func() time.Time) *Executor {
	e.now = now
	return e
}

// Execute runs a free-form request for userID and returns the agent's report.
// Session context is best effort: a failing read is logged and skipped.
func (e *Executor) Execute(ctx context.Context, userID int64, request string) (string, error) {
	now := e.now()
	session := ""
	if e.sessions != nil && userID != 0 {
		entries, err := e.sessions.SessionToday(ctx, userID, now)
		if err != nil {
			e.logger.Warn("failed to load session context", "user_id", userID, "error", err)
		} else {
			session = SessionContext(entries)
		}
	}

	prompt := ExecutePrompt(domain.DateOf(now), e.vaultPath, session, e.readVaultFile(todoistReferencePath), request)
	return e.run(ctx, prompt)
}

// ProcessDaily runs the daily processing skill over day's note.
func (e *Executor) ProcessDaily(ctx context.Context, day domain.Date) (string, error) {
	note := filepath.Join(e.vaultPath, "daily", day.ISO()+".md")
	if _, err := os.Stat(note); err != nil {
		e.logger.Warn("no daily note", "day", day.ISO())
		return "", fmt.Errorf("%w за %s", ErrNoDailyNote, day.ISO())
	}
	return e.run(ctx, DailyPrompt(day, e.readVaultFile(skillPath)))
}

// GenerateWeekly asks the agent for the weekly digest of the week containing today.
func (e *Executor) GenerateWeekly(ctx context.Context) (string, error) {
	return e.run(ctx, WeeklyPrompt(domain.DateOf(e.now())))
}

func (e *Executor) run(ctx context.Context, prompt string) (string, error) {
	out, err := e.invoker.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

const (
	skillPath            = ".claude/skills/dbrain-processor/SKILL.md"
	todoistReferencePath = ".claude/skills/dbrain-processor/references/todoist.md"
)

// readVaultFile returns the contents of an optional vault file, or "".
func (e *Executor) readVaultFile(rel string) string {
	data, err := os.ReadFile(filepath.Join(e.vaultPath, rel))
	if err != nil {
		return ""
	}
	return string(data)
}
