package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ashureev/dbrain/internal/agent"
	"github.com/ashureev/dbrain/internal/domain"
	"github.com/ashureev/dbrain/internal/progress"
	"github.com/ashureev/dbrain/internal/tasks"
)

const delegateLabel = "Выполняю..."

// CreateTask creates a task from text that is already a task body, without
// classification or trigger stripping.
func (r *Router) CreateTask(ctx context.Context, msg domain.Message) domain.Result {
	msg = r.normalize(msg)
	return r.handle(ctx, msg, domain.IntentCreateTask, func(ctx context.Context) domain.Result {
		return r.createTask(ctx, func() domain.TaskFields { return r.extract.DirectTaskFields(msg.Text) })
	})
}

// Delegate hands msg to the agent regardless of its wording.
func (r *Router) Delegate(ctx context.Context, msg domain.Message, status progress.Indicator) domain.Result {
	msg = r.normalize(msg)
	return r.handle(ctx, msg, domain.IntentDelegatedAction, func(ctx context.Context) domain.Result {
		return r.delegate(ctx, msg, status)
	})
}

// Archive saves msg to the vault without classifying it.
func (r *Router) Archive(ctx context.Context, msg domain.Message) domain.Result {
	msg = r.normalize(msg)
	return r.handle(ctx, msg, domain.IntentArchive, func(context.Context) domain.Result {
		return r.archive(msg.Text, msg.Timestamp, tagFor(msg.Source, domain.IntentArchive), "✓ Сохранено")
	})
}

// ArchivePhoto stores an image attachment and archives an embed of it
// followed by the caption in msg.Text. The session entry references the
// attachment path.
func (r *Router) ArchivePhoto(ctx context.Context, msg domain.Message, data []byte, ext string) domain.Result {
	msg.Source = domain.SourcePhoto
	msg = r.normalize(msg)
	return r.handle(ctx, msg, domain.IntentArchive, func(context.Context) domain.Result {
		rel, err := r.vault.SaveAttachment(data, msg.Timestamp, ext)
		if err != nil {
			return domain.Failure(domain.IntentArchive, fmt.Sprintf("Не удалось сохранить фото: %v", err))
		}
		content := "![[" + rel + "]]"
		if caption := strings.TrimSpace(msg.Text); caption != "" {
			content += "\n\n" + caption
		}
		res := r.archive(content, msg.Timestamp, tagFor(domain.SourcePhoto, domain.IntentArchive), "📷 ✓ Сохранено")
		if !res.OK() {
			return res
		}
		return domain.Success(domain.IntentArchive, res.Report, rel)
	})
}

func (r *Router) createTask(ctx context.Context, fields func() domain.TaskFields) domain.Result {
	if !r.TasksConfigured() {
		return domain.Failure(domain.IntentCreateTask, "Сервис задач не настроен")
	}

	f := fields()
	if strings.TrimSpace(f.Title) == "" {
		return domain.Failure(domain.IntentCreateTask, "Не удалось создать задачу: пустое название")
	}

	ref, err := r.tasks.Create(ctx, f)
	if err != nil {
		r.logger.Error("failed to create task", "title", f.Title, "project", f.Project, "error", err)
		return domain.Failure(domain.IntentCreateTask, fmt.Sprintf("Не удалось создать задачу: %v", err))
	}
	r.logger.Info("task created", "title", f.Title, "project", f.Project, "due", f.DueISO())
	return domain.Success(domain.IntentCreateTask, taskReport(f), ref)
}

func taskReport(f domain.TaskFields) string {
	var b strings.Builder
	b.WriteString("✅ Задача добавлена\n📝 ")
	b.WriteString(f.Title)
	if f.Project != "" {
		b.WriteString("\n📁 Проект: ")
		b.WriteString(f.Project)
	}
	if f.Due != nil {
		b.WriteString("\n📅 Срок: ")
		b.WriteString(f.Due.ISO())
	}
	return b.String()
}

func (r *Router) queryTasks(ctx context.Context, scope domain.QueryScope) domain.Result {
	if !r.TasksConfigured() {
		return domain.Failure(domain.IntentQueryTasks, "Сервис задач не настроен")
	}
	records, err := r.tasks.Query(ctx, scope)
	if err != nil {
		r.logger.Error("failed to query tasks", "scope", scope, "error", err)
		return domain.Failure(domain.IntentQueryTasks, fmt.Sprintf("Не удалось получить задачи: %v", err))
	}
	return domain.Success(domain.IntentQueryTasks, tasks.FormatTaskList(records, scope), "").WithTasks(records)
}

func (r *Router) delegate(ctx context.Context, msg domain.Message, status progress.Indicator) domain.Result {
	kind := domain.IntentDelegatedAction
	return progress.Run(ctx, r.sup, status, delegateLabel, func(ctx context.Context) domain.Result {
		// Work runs on its own goroutine; recover there as well.
		return r.safely(ctx, kind, func(ctx context.Context) domain.Result {
			done := r.metrics.DelegatedStarted()
			defer done()

			report, err := r.agent.Execute(ctx, msg.UserID, msg.Text)
			if err != nil {
				r.logger.Error("delegated action failed", "user_id", msg.UserID, "error", err)
				return domain.Failure(kind, agent.FailureText(err, r.timeout))
			}
			if strings.TrimSpace(report) == "" {
				report = "✓ Выполнено"
			}
			return domain.Success(kind, report, "")
		})
	})
}

func (r *Router) archive(text string, ts time.Time, tag, report string) domain.Result {
	if err := r.vault.Append(text, ts, tag); err != nil {
		r.logger.Error("failed to archive", "tag", tag, "error", err)
		return domain.Failure(domain.IntentArchive, fmt.Sprintf("Не удалось сохранить: %v", err))
	}
	return domain.Success(domain.IntentArchive, report, "")
}
