package ics

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"
	"golang.org/x/text/encoding/simplifiedchinese"

	"personal-calendar/internal/model"
)

const untitled = "(no title)"

// Result is the outcome of parsing an uploaded calendar.
type Result struct {
	Events  []model.EventInput
	Skipped int
}

// Import parses an uploaded .ics document. Only a failure to read the
// document as a whole is returned as an error; bad events are skipped.
func Import(filename string, data []byte) (*Result, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".ics") {
		return nil, model.ErrUnsupportedFileType
	}
	text, err := decode(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrEmptyFile
	}

	if !terminated(text) {
		return nil, fmt.Errorf("%w: missing END:VCALENDAR", model.ErrMalformedCalendar)
	}
	cal, err := ical.ParseCalendar(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedCalendar, err)
	}

	res := &Result{}
	for _, ve := range cal.Events() {
		in, ok := parseEvent(ve)
		if !ok {
			res.Skipped++
			continue
		}
		res.Events = append(res.Events, in)
	}
	return res, nil
}

// terminated reports whether the last content line closes the calendar.
// The parser accepts documents cut off before it.
func terminated(text string) bool {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	return strings.EqualFold(last, "END:VCALENDAR")
}

// decode reads data as UTF-8 and falls back to GB18030, which covers GBK.
func decode(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return "", model.ErrEmptyFile
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	out, err := simplifiedchinese.GB18030.NewDecoder().Bytes(data)
	if err != nil || !utf8.Valid(out) {
		return "", model.ErrUndecodable
	}
	return string(out), nil
}

func parseEvent(ve *ical.VEvent) (model.EventInput, bool) {
	in := model.EventInput{Title: untitled, Category: model.CategoryOther}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
		in.Title = unescape(p.Value)
	}

	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return in, false
	}
	start, err := parseTime(p.Value, p.ICalParameters)
	if err != nil {
		return in, false
	}
	in.StartTime = model.FormatTimestamp(start)

	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if end, err := parseTime(p.Value, p.ICalParameters); err == nil {
			in.EndTime = model.FormatTimestamp(end)
		}
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil && p.Value != "" {
		in.Notes = unescape(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyCategories); p != nil {
		in.Category = firstCategory(p.Value)
	}

	in, err = in.Normalize()
	return in, err == nil
}

func firstCategory(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return model.NormalizeCategory(unescape(first))
}

// parseTime handles UTC, floating, TZID-qualified and date-only values and
// returns local wall-clock time.
func parseTime(v string, params map[string][]string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, model.ErrMalformedTimestamp
	}

	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return time.Time{}, model.ErrMalformedTimestamp
		}
		return t.In(time.Local), nil
	}

	loc := time.Local
	if tz := params["TZID"]; len(tz) > 0 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			loc = l
		}
	}

	layout := localLayout
	if !strings.Contains(v, "T") {
		layout = "20060102"
	}
	t, err := time.ParseInLocation(layout, v, loc)
	if err != nil {
		return time.Time{}, model.ErrMalformedTimestamp
	}
	return t.In(time.Local), nil
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\,`, `,`, `\;`, `;`, `\n`, "\n", `\N`, "\n")

func unescape(s string) string {
	return textUnescaper.Replace(s)
}
