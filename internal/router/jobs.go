package router

import (
	"context"
	"time"

	"github.com/ashureev/dbrain/internal/agent"
	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/progress"
)

// Jobs are the fixed-prompt agent runs. *agent.Executor implements it.
type Jobs interface {
	ProcessDaily(ctx context.Context, day domain.Date) (string, error)
	GenerateWeekly(ctx context.Context) (string, error)
}

// Summaries stores weekly digests in the vault. *vault.Vault implements it.
type Summaries interface {
	SaveWeeklySummary(reportHTML string, day domain.Date) (string, error)
	LinkWeeklySummary(summaryPath string) error
}

// Snapshotter commits the vault after a successful job. *vault.Git implements it.
type Snapshotter interface {
	CommitAndPush(ctx context.Context, message string) error
}

// ProcessDaily runs the daily processing skill over today's note and
// snapshots the vault when it succeeds.
func (r *Router) ProcessDaily(ctx context.Context, status progress.Indicator) domain.Result {
	day := domain.DateOf(r.now())
	return r.job(ctx, "process_daily", status, "Обрабатываю...", func(ctx context.Context) (string, error) {
		return r.jobs.ProcessDaily(ctx, day)
	}, func(ctx context.Context, _ string) string {
		r.snapshot(ctx, "chore: process daily "+day.ISO())
		return ""
	})
}

// Weekly generates the weekly digest, saves it as a summary note linked from
// the weekly MOC, and snapshots the vault.
func (r *Router) Weekly(ctx context.Context, status progress.Indicator) domain.Result {
	day := domain.DateOf(r.now())
	return r.job(ctx, "weekly", status, "Генерирую дайджест...", func(ctx context.Context) (string, error) {
		return r.jobs.GenerateWeekly(ctx)
	}, func(ctx context.Context, report string) string {
		ref := r.saveSummary(report, day)
		r.snapshot(ctx, "chore: weekly digest")
		return ref
	})
}

func (r *Router) job(
	ctx context.Context,
	name string,
	status progress.Indicator,
	label string,
	run func(context.Context) (string, error),
	after func(ctx context.Context, report string) string,
) domain.Result {
	kind := domain.IntentDelegatedAction
	if r.jobs == nil {
		return domain.Failure(kind, "Агент не настроен")
	}

	start := time.Now()
	res := progress.Run(ctx, r.sup, status, label, func(ctx context.Context) domain.Result {
		return r.safely(ctx, kind, func(ctx context.Context) domain.Result {
			done := r.metrics.DelegatedStarted()
			defer done()

			report, err := run(ctx)
			if err != nil {
				r.logger.Error("job failed", "job", name, "error", err)
				return domain.Failure(kind, agent.FailureText(err, r.timeout))
			}
			return domain.Success(kind, report, "")
		})
	})

	if res.OK() {
		ref := r.safely(ctx, kind, func(ctx context.Context) domain.Result {
			return domain.Success(kind, res.Report, after(ctx, res.Report))
		})
		if ref.OK() {
			res.Reference = ref.Reference
		}
	}
	r.metrics.ObserveRoute(name, res.OK(), time.Since(start))
	return res
}

func (r *Router) saveSummary(report string, day domain.Date) string {
	if r.summaries == nil {
		return ""
	}
	path, err := r.summaries.SaveWeeklySummary(report, day)
	if err != nil {
		r.logger.Error("failed to save weekly summary", "error", err)
		return ""
	}
	if err := r.summaries.LinkWeeklySummary(path); err != nil {
		r.logger.Warn("failed to link weekly summary", "path", path, "error", err)
	}
	return path
}

func (r *Router) snapshot(ctx context.Context, message string) {
	if r.git == nil {
		return
	}
	if err := r.git.CommitAndPush(context.WithoutCancel(ctx), message); err != nil {
		r.logger.Error("vault snapshot failed", "message", message, "error", err)
	}
}
