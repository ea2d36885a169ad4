package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"personal-calendar/internal/model"
)

const (
	ProductID = "-//Personal Calendar//EN"

	// floating local date-time, no zone
	localLayout = "20060102T150405"
)

// Export renders events as a VCALENDAR document. Events whose stored times
// do not parse are left out; their ids are returned in skipped.
func Export(events []model.Event, now time.Time) (doc []byte, skipped []int64) {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetVersion("2.0")

	for i := range events {
		e := &events[i]

		start, err := e.StartAt()
		if err != nil {
			skipped = append(skipped, e.ID)
			continue
		}
		end, hasEnd, err := e.EndAt()
		if err != nil {
			skipped = append(skipped, e.ID)
			continue
		}

		ve := cal.AddEvent(UID(e.ID))
		ve.SetDtStampTime(now)
		ve.SetSummary(e.Title)
		ve.SetProperty(ical.ComponentPropertyDtStart, start.Format(localLayout))
		if hasEnd {
			ve.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localLayout))
		}
		if e.Notes != "" {
			ve.SetDescription(e.Notes)
		}
		if e.Category != "" {
			ve.AddProperty(ical.ComponentPropertyCategories, e.Category)
		}
		if rule, ok := recurrence(e.RepeatRule); ok {
			ve.AddProperty(ical.ComponentPropertyRrule, rule)
		}
	}

	return []byte(cal.Serialize()), skipped
}

func UID(eventID int64) string {
	return fmt.Sprintf("event-%d@personal-calendar", eventID)
}

// recurrence returns the stored repeat rule when it is a valid RRULE value.
// Free text such as "every monday" is kept in the database only.
func recurrence(stored string) (string, bool) {
	rule := strings.TrimSpace(stored)
	rule = strings.TrimPrefix(rule, "RRULE:")
	if rule == "" {
		return "", false
	}
	if _, err := rrule.StrToRRule(rule); err != nil {
		return "", false
	}
	return rule, true
}
