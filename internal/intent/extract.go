package intent

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ashureev/dbrain/internal/domain"
)

var weekdays = map[string]time.Weekday{
	"понедельник": time.Monday,
	"вторник":     time.Tuesday,
	"среда":       time.Wednesday,
	"среду":       time.Wednesday,
	"среды":       time.Wednesday,
	"четверг":     time.Thursday,
	"пятница":     time.Friday,
	"пятницу":     time.Friday,
	"пятницы":     time.Friday,
	"суббота":     time.Saturday,
	"субботу":     time.Saturday,
	"субботы":     time.Saturday,
	"воскресенье": time.Sunday,
	"monday":      time.Monday,
	"tuesday":     time.Tuesday,
	"wednesday":   time.Wednesday,
	"thursday":    time.Thursday,
	"friday":      time.Friday,
	"saturday":    time.Saturday,
	"sunday":      time.Sunday,
}

// ExtractTaskName strips one leading trigger phrase and an optional bare
// "задача:" prefix. Text without a trigger passes through trimmed.
func ExtractTaskName(text string) string {
	t := strings.TrimSpace(text)
	for _, re := range triggerPrefixes {
		if loc := re.FindStringIndex(t); loc != nil {
			t = t[loc[1]:]
			break
		}
	}
	if loc := nounPrefix.FindStringIndex(t); loc != nil {
		t = t[loc[1]:]
	}
	return strings.TrimSpace(t)
}

// ExtractDueDate finds a due date hint relative to today. Rules are tried in
// order: today/tomorrow keyword, weekday name, numeric D.M[.Y] date.
func ExtractDueDate(text string, today domain.Date) (domain.Date, bool) {
	if todayRe.MatchString(text) {
		return today, true
	}
	if tomorrowRe.MatchString(text) {
		return today.AddDays(1), true
	}

	if m := weekdayRe.FindStringSubmatch(text); m != nil {
		if target, ok := weekdays[strings.ToLower(m[1])]; ok {
			ahead := (int(target) - int(today.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return today.AddDays(ahead), true
		}
	}

	if m := numericRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := today.Year
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if d, ok := domain.NewDate(year, time.Month(month), day); ok {
			return d, true
		}
	}

	return domain.Date{}, false
}

// Extractor pulls task fields out of text using a swappable project table
// and an injectable clock.
type Extractor struct {
	projects atomic.Pointer[ProjectTable]
	now      func() time.Time
}

// NewExtractor creates an Extractor. A nil table means DefaultProjects.
func NewExtractor(projects *ProjectTable) *Extractor {
	if projects == nil {
		projects = DefaultProjects()
	}
	e := &Extractor{now: time.Now}
	e.projects.Store(projects)
	return e
}

// WithClock replaces the clock used for relative dates.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// SetProjects swaps the project table. Safe for concurrent use with extraction.
func (e *Extractor) SetProjects(t *ProjectTable) {
	if t != nil {
		e.projects.Store(t)
	}
}

// Projects returns the current project table.
func (e *Extractor) Projects() *ProjectTable {
	return e.projects.Load()
}

// Today returns the current calendar date according to the clock.
func (e *Extractor) Today() domain.Date {
	return domain.DateOf(e.now())
}

// ExtractProject pulls a project reference off the front of text and returns
// the project and the remaining task text. The project is "" when absent, in
// which case the remainder is the trimmed input.
func (e *Extractor) ExtractProject(text string) (string, string) {
	t := strings.TrimSpace(text)
	table := e.Projects()

	if loc := explicitProjectRe.FindStringIndex(t); loc != nil {
		after := t[loc[1]:]
		if name, n := table.Match(after); name != "" {
			return withRemainder(name, consumeSeparator(after[n:]), t)
		}
		word, rest := after, ""
		if sep := projectWordSepRe.FindStringIndex(after); sep != nil {
			word, rest = after[:sep[0]], after[sep[1]:]
		}
		if word != "" {
			return withRemainder(strings.TrimSpace(word), strings.TrimSpace(rest), t)
		}
	}

	if loc := implicitProjectRe.FindStringIndex(t); loc != nil {
		after := t[loc[1]:]
		if name, n := table.Match(after); name != "" {
			return withRemainder(name, consumeSeparator(after[n:]), t)
		}
	}

	return "", t
}

func consumeSeparator(s string) string {
	if loc := projectSepRe.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

// withRemainder refuses a match that would leave an empty task body.
func withRemainder(project, rest, original string) (string, string) {
	if rest == "" {
		return "", original
	}
	return project, rest
}

// ExtractDueDate resolves a due date hint against the extractor's clock.
func (e *Extractor) ExtractDueDate(text string) (domain.Date, bool) {
	return ExtractDueDate(text, e.Today())
}

// TaskFields extracts the fields of a classified creation utterance: the
// trigger phrase is stripped first, then the project. The due date is read
// from the full text.
func (e *Extractor) TaskFields(text string) domain.TaskFields {
	return e.fields(ExtractTaskName(text), text)
}

// DirectTaskFields extracts fields from text that is already a task body,
// such as the argument of an explicit create command.
func (e *Extractor) DirectTaskFields(text string) domain.TaskFields {
	return e.fields(strings.TrimSpace(text), text)
}

func (e *Extractor) fields(name, full string) domain.TaskFields {
	project, title := e.ExtractProject(name)
	f := domain.TaskFields{Title: title, Project: project}
	if due, ok := e.ExtractDueDate(full); ok {
		f.Due = &due
	}
	return f
}
