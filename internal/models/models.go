// ABOUTME: Core data models for journal entries, moods, patches, and snapshots.
// ABOUTME: Provides tolerant JSON decoding for entries written by older app versions.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mood is the heuristic tag attached to an entry.
type Mood string

const (
	MoodPositive   Mood = "positive"
	MoodReflective Mood = "reflective"
	MoodNeutral    Mood = "neutral"
)

// ValidMoods lists the allowed mood tags.
var ValidMoods = []Mood{MoodPositive, MoodReflective, MoodNeutral}

// IsValid returns true if m is one of the known mood tags.
func (m Mood) IsValid() bool {
	for _, v := range ValidMoods {
		if v == m {
			return true
		}
	}
	return false
}

// ParseMood converts user input to a Mood. Matching is case-insensitive.
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown mood %q (want positive, reflective, or neutral)", s)
	}
	return m, nil
}

// EntryID identifies an entry. Older exports stored ids as JSON numbers, so
// decoding accepts both numbers and strings and keeps the decimal string form.
type EntryID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *EntryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entry id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = EntryID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = EntryID(n.String())
	return nil
}

// Entry is a single journal record.
type Entry struct {
	ID        EntryID    `json:"id"`
	Text      string     `json:"text"`
	Mood      Mood       `json:"mood,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Source    string     `json:"source,omitempty"`
}

// UnmarshalJSON decodes an entry, accepting the legacy "date" field when
// "timestamp" is absent. Unparseable times decode to the zero time.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        EntryID         `json:"id"`
		Text      string          `json:"text"`
		Mood      Mood            `json:"mood"`
		Timestamp json.RawMessage `json:"timestamp"`
		Date      json.RawMessage `json:"date"`
		UpdatedAt json.RawMessage `json:"updatedAt"`
		Source    string          `json:"source"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = Entry{
		ID:     raw.ID,
		Text:   raw.Text,
		Mood:   raw.Mood,
		Source: raw.Source,
	}

	ts := parseTime(raw.Timestamp)
	if ts.IsZero() {
		ts = parseTime(raw.Date)
	}
	e.Timestamp = ts

	if updated := parseTime(raw.UpdatedAt); !updated.IsZero() {
		e.UpdatedAt = &updated
	}
	return nil
}

// parseTime reads an RFC 3339 string or a Unix millisecond number.
func parseTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t.UTC()
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}

// EntryPatch is a shallow update. Nil fields are left untouched.
type EntryPatch struct {
	Text   *string `json:"text,omitempty"`
	Mood   *Mood   `json:"mood,omitempty"`
	Source *string `json:"source,omitempty"`
}

// IsEmpty returns true if the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Text == nil && p.Mood == nil && p.Source == nil
}

// ApplyTo returns a copy of e with the patch merged over it.
func (p EntryPatch) ApplyTo(e Entry) Entry {
	if p.Text != nil {
		e.Text = *p.Text
	}
	if p.Mood != nil {
		e.Mood = *p.Mood
	}
	if p.Source != nil {
		e.Source = *p.Source
	}
	return e
}

// Snapshot is the portable export document.
type Snapshot struct {
	ExportDate   time.Time `json:"exportDate"`
	Version      string    `json:"version"`
	EntriesCount int       `json:"entriesCount"`
	Entries      []Entry   `json:"entries"`
}

// CloneEntries returns a copy of entries that shares no UpdatedAt pointers.
func CloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.UpdatedAt != nil {
			t := *e.UpdatedAt
			e.UpdatedAt = &t
		}
		out[i] = e
	}
	return out
}
