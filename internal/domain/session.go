package domain

import (
	"time"
)

// Source identifies how an utterance reached the router.
type Source string

const (
	SourceVoice Source = "voice"
	SourceText  Source = "text"
	SourcePhoto Source = "photo"
)

// ParseSource maps a label to a Source, defaulting to SourceText.
func ParseSource(label string) Source {
	switch Source(label) {
	case SourceVoice, SourcePhoto:
		return Source(label)
	default:
		return SourceText
	}
}

// Message is one inbound utterance.
type Message struct {
	UserID    int64
	Source    Source
	Text      string
	MessageID int64
	Timestamp time.Time
}

// SessionEntry is one record of the per-user, per-day session log.
type SessionEntry struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"ts"`
	Source    Source    `json:"type"`
	Text      string    `json:"text,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	MessageID int64     `json:"msg_id,omitempty"`
}

// RecentEntries returns the last n entries of a most-recent-last slice.
func RecentEntries(entries []SessionEntry, n int) []SessionEntry {
	if n >= len(entries) {
		return entries
	}
	return entries[len(entries)-n:]
}
