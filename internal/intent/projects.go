package intent

import (
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Project is a canonical project name with the surface forms that refer to it.
type Project struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type projectsFile struct {
	Projects []Project `yaml:"projects"`
}

type alias struct {
	runes   []rune
	project string
}

// ProjectTable resolves project aliases. It is immutable once built.
type ProjectTable struct {
	names   []string
	aliases []alias
}

// NewProjectTable builds a table. The canonical name always counts as an alias.
func NewProjectTable(projects []Project) *ProjectTable {
	t := &ProjectTable{}
	for _, p := range projects {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		t.names = append(t.names, name)
		seen := map[string]bool{}
		for _, a := range append([]string{name}, p.Aliases...) {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			t.aliases = append(t.aliases, alias{runes: []rune(a), project: name})
		}
	}
	return t
}

// DefaultProjects returns the built-in project taxonomy.
func DefaultProjects() *ProjectTable {
	return NewProjectTable([]Project{
		{Name: "Контент-завод", Aliases: []string{"контент завод", "контент-завод", "content factory"}},
		{Name: "Видео", Aliases: []string{"видео", "ютуб", "youtube", "video"}},
		{Name: "Маркетинговые материалы", Aliases: []string{"маркетинговые материалы", "маркетинг", "marketing"}},
		{Name: "Стратегия", Aliases: []string{"стратегия", "стратегию", "стратегии", "strategy"}},
		{Name: "Лидогенерация", Aliases: []string{"лидогенерация", "лидогенерацию", "лидогенерации", "лиды", "leadgen"}},
		{Name: "Мероприятия", Aliases: []string{"мероприятия", "мероприятие", "ивенты", "events"}},
		{Name: "Организации и ассоциации", Aliases: []string{"организации и ассоциации", "ассоциации", "организации"}},
	})
}

// LoadProjects reads a YAML projects file:
//
//	projects:
//	  - name: Видео
//	    aliases: [видео, ютуб]
func LoadProjects(path string) (*ProjectTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects file: %w", err)
	}
	var f projectsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse projects file %s: %w", path, err)
	}
	if len(f.Projects) == 0 {
		return nil, fmt.Errorf("projects file %s defines no projects", path)
	}
	return NewProjectTable(f.Projects), nil
}

// Names returns the canonical project names in declaration order.
func (t *ProjectTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Match looks for an alias at the start of text. It returns the canonical
// name and the number of bytes of text consumed, or ("", 0). The longest
// alias wins; the first declared wins a tie. The alias must not be followed
// by a letter, nor open a hyphenated compound such as "видео-ролик".
func (t *ProjectTable) Match(text string) (string, int) {
	best, bestLen, bestRunes := "", 0, 0
	for _, a := range t.aliases {
		if len(a.runes) <= bestRunes {
			continue
		}
		n, ok := prefixFold(text, a.runes)
		if !ok {
			continue
		}
		if continuesWord(text[n:]) {
			continue
		}
		best, bestLen, bestRunes = a.project, n, len(a.runes)
	}
	return best, bestLen
}

func continuesWord(rest string) bool {
	if rest == "" {
		return false
	}
	next, size := utf8.DecodeRuneInString(rest)
	if unicode.IsLetter(next) {
		return true
	}
	if next == '-' || next == '‐' || next == '‑' {
		after, _ := utf8.DecodeRuneInString(rest[size:])
		return unicode.IsLetter(after)
	}
	return false
}

// prefixFold reports whether text starts with the lower-cased runes of want,
// ignoring case, and how many bytes of text that prefix spans.
func prefixFold(text string, want []rune) (int, bool) {
	i := 0
	for _, w := range want {
		if i >= len(text) {
			return 0, false
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.ToLower(r) != w {
			return 0, false
		}
		i += size
	}
	return i, true
}
