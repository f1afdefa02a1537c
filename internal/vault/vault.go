// Package vault writes the append-only daily notes and attachments of the
// markdown knowledge vault.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/dbrain/internal/domain"
)

// Vault appends records to daily notes under root/daily.
type Vault struct {
	root string
	mu   sync.Mutex
}

// New creates a Vault rooted at root. The directory is created lazily.
func New(root string) *Vault {
	return &Vault{root: root}
}

// Root returns the vault directory.
func (v *Vault) Root() string {
	return v.root
}

// DailyPath returns the note file for day.
func (v *Vault) DailyPath(day domain.Date) string {
	return filepath.Join(v.root, "daily", day.ISO()+".md")
}

// Append adds one record to the daily note of ts:
//
//	## 14:05 [voice][task]
//	text
func (v *Vault) Append(text string, ts time.Time, tag string) error {
	path := v.DailyPath(domain.DateOf(ts))
	record := fmt.Sprintf("\n## %s %s\n%s\n", ts.Format("15:04"), tag, strings.TrimSpace(text))

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create daily dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open daily note: %w", err)
	}
	if _, err := f.WriteString(record); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to daily note: %w", err)
	}
	return f.Close()
}

// SaveAttachment stores data under attachments/YYYY-MM-DD/ and returns the
// vault-relative path, suitable for an ![[embed]].
func (v *Vault) SaveAttachment(data []byte, ts time.Time, ext string) (string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	dir := filepath.Join("attachments", domain.DateOf(ts).ISO())

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(v.root, dir), 0o755); err != nil {
		return "", fmt.Errorf("failed to create attachments dir: %w", err)
	}

	base := "img-" + ts.Format("150405")
	for i := 0; ; i++ {
		name := base + "." + ext
		if i > 0 {
			name = fmt.Sprintf("%s-%d.%s", base, i, ext)
		}
		rel := filepath.ToSlash(filepath.Join(dir, name))
		f, err := os.OpenFile(filepath.Join(v.root, rel), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create attachment: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("failed to write attachment: %w", err)
		}
		return rel, f.Close()
	}
}
