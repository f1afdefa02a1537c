package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ashureev/dbrain/internal/domain"
)

var htmlRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?s)<b>(.*?)</b>`), "**$1**"},
	{regexp.MustCompile(`(?s)<i>(.*?)</i>`), "*$1*"},
	{regexp.MustCompile(`(?s)<code>(.*?)</code>`), "`$1`"},
	{regexp.MustCompile(`(?s)<s>(.*?)</s>`), "~~$1~~"},
	{regexp.MustCompile(`</?u>`), ""},
	{regexp.MustCompile(`<a href="([^"]+)">([^<]+)</a>`), "[$2]($1)"},
}

// HTMLToMarkdown converts the chat-style HTML produced by the agent into
// vault markdown.
func HTMLToMarkdown(html string) string {
	for _, r := range htmlRules {
		html = r.re.ReplaceAllString(html, r.repl)
	}
	return html
}

// WeekLabel returns the ISO week of day as YYYY-WNN.
func WeekLabel(day domain.Date) string {
	year, week := day.Time().ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// SaveWeeklySummary writes the weekly report to summaries/YYYY-WNN-summary.md
// with front matter and returns the file path.
func (v *Vault) SaveWeeklySummary(reportHTML string, day domain.Date) (string, error) {
	week := WeekLabel(day)
	path := filepath.Join(v.root, "summaries", week+"-summary.md")
	content := fmt.Sprintf("---\ndate: %s\ntype: weekly-summary\nweek: %s\n---\n\n%s", day.ISO(), week, HTMLToMarkdown(reportHTML))

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create summaries dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write weekly summary: %w", err)
	}
	return path, nil
}

const mocAnchor = "## Previous Weeks\n"

// LinkWeeklySummary adds a link to summaryPath under the "Previous Weeks"
// heading of MOC/MOC-weekly.md. A missing MOC file or an existing link is a
// no-op.
func (v *Vault) LinkWeeklySummary(summaryPath string) error {
	moc := filepath.Join(v.root, "MOC", "MOC-weekly.md")
	name := filepath.Base(summaryPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(moc)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read weekly MOC: %w", err)
	}
	content := string(data)
	if strings.Contains(content, stem) {
		return nil
	}
	link := fmt.Sprintf("- [[summaries/%s|%s]]", name, stem)
	content = strings.Replace(content, mocAnchor, mocAnchor+"\n"+link+"\n", 1)
	if err := os.WriteFile(moc, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to update weekly MOC: %w", err)
	}
	return nil
}
