package model

import (
	"strings"
	"time"
)

// TimestampLayout is the stored form of event times. Times carry no zone
// and are read as local wall clock.
const TimestampLayout = "2006-01-02 15:04:05"

// accepted input layouts; the first two come from datetime-local inputs
var timestampLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	TimestampLayout,
	"2006-01-02 15:04",
}

func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMalformedTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrMalformedTimestamp
}

func FormatTimestamp(t time.Time) string {
	return t.In(time.Local).Format(TimestampLayout)
}

// InputTimestamp renders a stored timestamp for a datetime-local field.
func InputTimestamp(stored string) string {
	t, err := ParseTimestamp(stored)
	if err != nil {
		return strings.Replace(stored, " ", "T", 1)
	}
	return t.Format("2006-01-02T15:04")
}
