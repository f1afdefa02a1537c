// Package progress keeps a caller informed while slow work runs.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval is how often the status indicator is refreshed.
const DefaultInterval = 30 * time.Second

// Indicator is a mutable status message shown to the user, such as an
// "executing..." reply that gets edited in place.
type Indicator interface {
	Update(ctx context.Context, text string) error
}

// Supervisor refreshes an Indicator on a fixed interval while work runs.
type Supervisor struct {
	interval time.Duration
	logger   *slog.Logger
	onUpdate func(err error)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger used for swallowed update failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithUpdateHook registers a callback invoked after every update attempt.
func WithUpdateHook(fn func(err error)) Option {
	return func(s *Supervisor) { s.onUpdate = fn }
}

// NewSupervisor creates a Supervisor.
func NewSupervisor(opts ...Option) *Supervisor {
	s := &Supervisor{interval: DefaultInterval, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the refresh interval.
func (s *Supervisor) Interval() time.Duration {
	return s.interval
}

// Run executes work on its own goroutine and blocks until it returns. Until
// then, every interval the indicator is set to "⏳ label (Xm Ys)". Update
// errors are logged and dropped. Once work has finished the indicator is not
// touched again, and its value is returned as is. A nil status disables
// updates. Run does not bound the work; work is expected to honor ctx.
func Run[T any](ctx context.Context, s *Supervisor, status Indicator, label string, work func(context.Context) T) T {
	if s == nil {
		s = NewSupervisor()
	}

	done := make(chan T, 1)
	go func() {
		done <- work(ctx)
	}()

	start := time.Now()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case v := <-done:
			return v
		case <-ticker.C:
			// Work may have finished in the same instant the tick fired.
			select {
			case v := <-done:
				return v
			default:
			}
			if status != nil {
				s.update(ctx, status, Format(label, time.Since(start)))
			}
		}
	}
}

func (s *Supervisor) update(ctx context.Context, status Indicator, text string) {
	err := status.Update(ctx, text)
	if err != nil {
		s.logger.Debug("progress update failed", "error", err)
	}
	if s.onUpdate != nil {
		s.onUpdate(err)
	}
}

// Format renders the elapsed-time annotation.
func Format(label string, elapsed time.Duration) string {
	total := int(elapsed / time.Second)
	return fmt.Sprintf("⏳ %s (%dm %ds)", label, total/60, total%60)
}
