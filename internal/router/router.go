// Package router dispatches classified utterances to the task service, the
// delegated agent or the vault, and turns every outcome into a domain.Result.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/ashureev/dbrain/internal/agent"
	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/intent"
	"github.com/ashureev/dbrain/internal/metrics"
	"github.com/ashureev/dbrain/internal/progress"
	"github.com/ashureev/dbrain/internal/store"
	"github.com/ashureev/dbrain/internal/tasks"
)

// Delegator runs a free-form request through the external agent.
type Delegator interface {
	Execute(ctx context.Context, userID int64, request string) (string, error)
}

// Vault is the append-only archive every utterance ends up in.
type Vault interface {
	Append(text string, ts time.Time, tag string) error
	SaveAttachment(data []byte, ts time.Time, ext string) (string, error)
}

// Config wires a Router to its collaborators.
type Config struct {
	// Tasks may be nil or unconfigured; every utterance is then archived.
	Tasks    tasks.Service
	Agent    Delegator
	Vault    Vault
	Sessions store.SessionLog

	// Jobs, Summaries and Git serve ProcessDaily and Weekly. Any may be nil.
	Jobs      Jobs
	Summaries Summaries
	Git       Snapshotter

	Extractor        *intent.Extractor
	ProgressInterval time.Duration
	AgentTimeout     time.Duration
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
	Now              func() time.Time
}

// Router selects exactly one handling path per utterance.
type Router struct {
	tasks     tasks.Service
	agent     Delegator
	vault     Vault
	sessions  store.SessionLog
	jobs      Jobs
	summaries Summaries
	git       Snapshotter

	extract *intent.Extractor
	sup     *progress.Supervisor
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Router.
func New(cfg Config) (*Router, error) {
	switch {
	case cfg.Agent == nil:
		return nil, errors.New("router: agent is required")
	case cfg.Vault == nil:
		return nil, errors.New("router: vault is required")
	case cfg.Sessions == nil:
		return nil, errors.New("router: session log is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	extract := cfg.Extractor
	if extract == nil {
		extract = intent.NewExtractor(nil).WithClock(now)
	}
	timeout := cfg.AgentTimeout
	if timeout <= 0 {
		timeout = agent.DefaultTimeout
	}

	return &Router{
		tasks:     cfg.Tasks,
		agent:     cfg.Agent,
		vault:     cfg.Vault,
		sessions:  cfg.Sessions,
		jobs:      cfg.Jobs,
		summaries: cfg.Summaries,
		git:       cfg.Git,
		extract:   extract,
		sup: progress.NewSupervisor(
			progress.WithInterval(cfg.ProgressInterval),
			progress.WithLogger(logger),
			progress.WithUpdateHook(cfg.Metrics.ObserveProgressUpdate),
		),
		timeout: timeout,
		metrics: cfg.Metrics,
		logger:  logger,
		now:     now,
	}, nil
}

// TasksConfigured reports whether the fast task paths are available.
func (r *Router) TasksConfigured() bool {
	return r.tasks != nil && r.tasks.Configured()
}

// Classify returns the intent Route would pick for text.
func (r *Router) Classify(text string) domain.Intent {
	if !r.TasksConfigured() {
		return domain.IntentArchive
	}
	return intent.Classify(text)
}

// Route classifies msg and handles it on the matching path. status receives
// progress updates on the delegated path and may be nil. Route never panics
// and never returns an error: failures are carried by the Result.
func (r *Router) Route(ctx context.Context, msg domain.Message, status progress.Indicator) domain.Result {
	msg = r.normalize(msg)
	kind := r.Classify(msg.Text)
	r.metrics.IncClassified(kind.String())

	switch kind {
	case domain.IntentCreateTask:
		return r.handle(ctx, msg, kind, func(ctx context.Context) domain.Result {
			return r.createTask(ctx, func() domain.TaskFields { return r.extract.TaskFields(msg.Text) })
		})
	case domain.IntentQueryTasks:
		return r.handle(ctx, msg, kind, func(ctx context.Context) domain.Result {
			return r.queryTasks(ctx, intent.ClassifyQuery(msg.Text))
		})
	case domain.IntentDelegatedAction:
		return r.handle(ctx, msg, kind, func(ctx context.Context) domain.Result {
			return r.delegate(ctx, msg, status)
		})
	default:
		return r.handle(ctx, msg, domain.IntentArchive, func(context.Context) domain.Result {
			return r.archive(msg.Text, msg.Timestamp, tagFor(msg.Source, domain.IntentArchive), "✓ Сохранено")
		})
	}
}

// handle runs fn and does the bookkeeping every path shares: panic recovery,
// the vault record for non-archive paths, one session entry and metrics.
func (r *Router) handle(ctx context.Context, msg domain.Message, kind domain.Intent, fn func(context.Context) domain.Result) domain.Result {
	start := time.Now()
	res := r.safely(ctx, kind, fn)

	tag := tagFor(msg.Source, kind)
	if kind != domain.IntentArchive {
		if err := r.vault.Append(msg.Text, msg.Timestamp, tag); err != nil {
			r.logger.Error("failed to archive utterance", "user_id", msg.UserID, "intent", kind, "error", err)
		}
	}
	r.appendSession(ctx, msg, tag, res.Reference)

	r.metrics.ObserveRoute(kind.String(), res.OK(), time.Since(start))
	if !res.OK() {
		r.logger.Warn("utterance failed", "user_id", msg.UserID, "intent", kind, "error", res.Error)
	}
	return res
}

func (r *Router) safely(ctx context.Context, kind domain.Intent, fn func(context.Context) domain.Result) (res domain.Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("handler panicked", "intent", kind, "panic", p, "stack", string(debug.Stack()))
			res = domain.Failure(kind, fmt.Sprintf("Внутренняя ошибка: %v", p))
		}
	}()
	return fn(ctx)
}

func (r *Router) appendSession(ctx context.Context, msg domain.Message, tag, reference string) {
	entry := &domain.SessionEntry{
		UserID:    msg.UserID,
		Timestamp: msg.Timestamp,
		Source:    msg.Source,
		Text:      msg.Text,
		Reference: reference,
		Tag:       tag,
		MessageID: msg.MessageID,
	}
	// The reply must not depend on the caller's context surviving.
	if err := r.sessions.AppendSession(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Error("failed to append session entry", "user_id", msg.UserID, "error", err)
	}
}

func (r *Router) normalize(msg domain.Message) domain.Message {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = r.now()
	}
	if msg.Source == "" {
		msg.Source = domain.SourceText
	}
	return msg
}

// tagFor returns the vault tag of a path, e.g. "[voice][task]".
func tagFor(source domain.Source, kind domain.Intent) string {
	tag := "[" + string(source) + "]"
	switch kind {
	case domain.IntentCreateTask:
		return tag + "[task]"
	case domain.IntentQueryTasks:
		return tag + "[query]"
	case domain.IntentDelegatedAction:
		return tag + "[action]"
	default:
		return tag
	}
}
