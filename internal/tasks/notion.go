package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/dbrain/internal/domain"
)

// Notion API defaults.
const (
	DefaultNotionURL     = "https://api.notion.com/v1"
	DefaultNotionDB      = "305289eb-342c-80ec-856d-f1c014cdff68"
	notionVersion        = "2025-02-13"
	notionRequestTimeout = 10 * time.Second
)

// Property names of the tasks database.
const (
	propTitle   = "Задача"
	propStatus  = "Status"
	propDue     = "Срок выполнения"
	propProject = "Проект"
)

// NotionConfig configures a NotionClient.
type NotionConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string
	HTTPClient *http.Client
}

// NotionClient is a thin client for the tasks database: create a page and
// query pages.
type NotionClient struct {
	token   string
	dbID    string
	baseURL string
	http    *http.Client
	now     func() time.Time
	logger  *slog.Logger
}

// NewNotionClient creates a NotionClient.
func NewNotionClient(cfg NotionConfig, logger *slog.Logger) *NotionClient {
	if cfg.DatabaseID == "" {
		cfg.DatabaseID = DefaultNotionDB
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNotionURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: notionRequestTimeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotionClient{
		token:   cfg.Token,
		dbID:    cfg.DatabaseID,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
		now:     time.Now,
		logger:  logger,
	}
}

// Configured reports whether a token is set.
func (c *NotionClient) Configured() bool { return c.token != "" }

type notionText struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

type notionName struct {
	Name string `json:"name"`
}

// Create adds a page to the tasks database and returns its URL.
func (c *NotionClient) Create(ctx context.Context, fields domain.TaskFields) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	title := notionText{}
	title.Text.Content = fields.Title
	props := map[string]any{
		propTitle:  map[string]any{"title": []notionText{title}},
		propStatus: map[string]any{"status": notionName{Name: domain.StatusNotStarted}},
	}
	if fields.Due != nil {
		props[propDue] = map[string]any{"date": map[string]string{"start": fields.Due.ISO()}}
	}
	if fields.Project != "" {
		props[propProject] = map[string]any{"multi_select": []notionName{{Name: fields.Project}}}
	}
	payload := map[string]any{
		"parent":     map[string]string{"database_id": c.dbID},
		"properties": props,
	}

	var page struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/pages", payload, &page); err != nil {
		return "", err
	}
	if page.URL != "" {
		return page.URL, nil
	}
	return page.ID, nil
}

// Query returns up to DefaultLimit pages matching scope, sorted by due date.
// Pages without a title are skipped.
func (c *NotionClient) Query(ctx context.Context, scope domain.QueryScope) ([]domain.TaskRecord, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload := map[string]any{
		"filter":    notionFilter(scope, domain.DateOf(c.now())),
		"sorts":     []map[string]string{{"property": propDue, "direction": "ascending"}},
		"page_size": DefaultLimit,
	}

	var resp notionQueryResponse
	if err := c.post(ctx, "/databases/"+c.dbID+"/query", payload, &resp); err != nil {
		return nil, err
	}
	if resp.HasMore {
		c.logger.Debug("notion query truncated", "scope", scope, "limit", DefaultLimit)
	}

	out := make([]domain.TaskRecord, 0, len(resp.Results))
	for _, page := range resp.Results {
		if r, ok := page.record(); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func notionFilter(scope domain.QueryScope, today domain.Date) map[string]any {
	notDone := map[string]any{"property": propStatus, "status": map[string]string{"does_not_equal": domain.StatusDone}}
	dueOn := func(d domain.Date) map[string]any {
		return map[string]any{"property": propDue, "date": map[string]string{"equals": d.ISO()}}
	}

	switch scope {
	case domain.ScopeOverdue:
		return map[string]any{"and": []map[string]any{
			{"property": propDue, "date": map[string]string{"before": today.ISO()}},
			notDone,
		}}
	case domain.ScopeToday:
		return dueOn(today)
	case domain.ScopeTomorrow:
		return dueOn(today.AddDays(1))
	case domain.ScopeInProgress:
		return map[string]any{"property": propStatus, "status": map[string]string{"equals": domain.StatusInProgress}}
	default:
		return notDone
	}
}

type notionQueryResponse struct {
	Results []notionPage `json:"results"`
	HasMore bool         `json:"has_more"`
}

type notionPage struct {
	ID         string `json:"id"`
	Properties struct {
		Title struct {
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
		} `json:"Задача"`
		Status struct {
			Status *notionName `json:"status"`
		} `json:"Status"`
		Due struct {
			Date *struct {
				Start string `json:"start"`
			} `json:"date"`
		} `json:"Срок выполнения"`
	} `json:"properties"`
}

func (p notionPage) record() (domain.TaskRecord, bool) {
	var name strings.Builder
	for _, part := range p.Properties.Title.Title {
		name.WriteString(part.PlainText)
	}
	r := domain.TaskRecord{ID: p.ID, Name: strings.TrimSpace(name.String())}
	if r.Name == "" {
		return r, false
	}
	if p.Properties.Status.Status != nil {
		r.Status = p.Properties.Status.Status.Name
	}
	if p.Properties.Due.Date != nil {
		r.Due = p.Properties.Due.Date.Start
	}
	return r, true
}

func (c *NotionClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode notion request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", notionVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notion request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read notion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("notion API error", "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("Notion API вернул %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode notion response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
