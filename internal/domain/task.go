package domain

import (
	"fmt"
	"time"
)

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// NewDate builds a Date and reports whether it is a real calendar date.
func NewDate(year int, month time.Month, day int) (Date, bool) {
	if month < time.January || month > time.December || day < 1 {
		return Date{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, false
	}
	return Date{Year: year, Month: month, Day: day}, true
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ISO formats d as YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TaskFields are the structured values extracted from a task creation utterance.
type TaskFields struct {
	Title   string
	Project string // empty when absent
	Due     *Date  // nil when absent
}

// DueISO returns the due date as YYYY-MM-DD, or "" when absent.
func (f TaskFields) DueISO() string {
	if f.Due == nil {
		return ""
	}
	return f.Due.ISO()
}

// TaskRecord is a task as returned by the structured-data service.
type TaskRecord struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
	Due    string `json:"due_date,omitempty"`
}

// Task statuses shared by every task backend.
const (
	StatusNotStarted = "Not started"
	StatusInProgress = "In progress"
	StatusDone       = "Done"
)
