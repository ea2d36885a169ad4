package model

import (
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
}

// Event is one row of the events table. StartTime and EndTime keep the
// stored naive local text; use StartAt/EndAt to interpret them.
type Event struct {
	ID         int64
	UserID     int64
	Title      string
	StartTime  string
	EndTime    string
	IsAllDay   bool
	RepeatRule string
	Category   string
	Notes      string
	IsReminded bool
}

func (e *Event) StartAt() (time.Time, error) {
	return ParseTimestamp(e.StartTime)
}

// EndAt reports ok=false when the event has no end time.
func (e *Event) EndAt() (t time.Time, ok bool, err error) {
	if strings.TrimSpace(e.EndTime) == "" {
		return time.Time{}, false, nil
	}
	t, err = ParseTimestamp(e.EndTime)
	return t, err == nil, err
}

// EventInput is the user-editable part of an event.
type EventInput struct {
	Title      string
	StartTime  string
	EndTime    string
	IsAllDay   bool
	RepeatRule string
	Category   string
	Notes      string
}

// Normalize validates the input and rewrites timestamps into the stored
// format. Known categories are lowercased; other text is kept.
func (in EventInput) Normalize() (EventInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, ErrMissingTitle
	}

	start, err := ParseTimestamp(in.StartTime)
	if err != nil {
		return in, fmt.Errorf("start time: %w", err)
	}
	in.StartTime = FormatTimestamp(start)

	if strings.TrimSpace(in.EndTime) != "" {
		end, err := ParseTimestamp(in.EndTime)
		if err != nil {
			return in, fmt.Errorf("end time: %w", err)
		}
		in.EndTime = FormatTimestamp(end)
	} else {
		in.EndTime = ""
	}

	in.RepeatRule = strings.TrimSpace(in.RepeatRule)
	in.Category = CleanCategory(in.Category)
	return in, nil
}

// DueReminder is an unreminded event whose start has passed, joined with
// the owner's address.
type DueReminder struct {
	EventID   int64
	Title     string
	StartTime string
	Email     string
}
