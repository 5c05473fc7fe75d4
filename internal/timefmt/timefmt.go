// Package timefmt formats the API's timezone-naive timestamps for display and
// drives the event countdown.
package timefmt

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultZoneLabel is appended to formatted times.
const DefaultZoneLabel = "WIB"

// Formatter formats dates and times in one location and locale.
type Formatter struct {
	loc       *time.Location
	tag       language.Tag
	zoneLabel string
	printer   *message.Printer
}

// New creates a Formatter. A nil location falls back to WIB (UTC+7).
func New(loc *time.Location, tag language.Tag) *Formatter {
	if loc == nil {
		loc = wib
	}
	return &Formatter{
		loc:       loc,
		tag:       matchTag(tag),
		zoneLabel: DefaultZoneLabel,
		printer:   message.NewPrinter(matchTag(tag), message.Catalog(relativeCatalog)),
	}
}

// WithZoneLabel returns a copy using a different suffix for time ranges.
func (f *Formatter) WithZoneLabel(label string) *Formatter {
	cp := *f
	cp.zoneLabel = label
	return &cp
}

func (f *Formatter) Location() *time.Location {
	return f.loc
}

var wib = time.FixedZone("WIB", 7*60*60)

// LoadLocation resolves an IANA zone name. Asia/Jakarta falls back to a fixed
// UTC+7 zone when the tz database is unavailable.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return wib, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		if name == "Asia/Jakarta" {
			return wib, nil
		}
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var zoneSuffix = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)

// ToDate parses an ISO-like or space-separated timestamp. Timestamps without
// a zone are read in the formatter's location first; if that fails they are
// retried as UTC.
func (f *Formatter) ToDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if zoneSuffix.MatchString(s) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, f.loc); err == nil {
			return t, true
		}
	}

	utc := strings.Replace(s, " ", "T", 1) + "Z"
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, utc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// FmtDate renders a long weekday+date string, e.g. "Minggu, 1 Juni 2025".
// Unparseable input falls back to its raw date part.
func (f *Formatter) FmtDate(s string) string {
	t, ok := f.ToDate(s)
	if !ok {
		s = strings.TrimSpace(s)
		if m := datePrefix.FindString(s); m != "" {
			return m
		}
		if i := strings.IndexAny(s, "T "); i > 0 {
			return s[:i]
		}
		return s
	}
	t = t.In(f.loc)
	names := namesFor(f.tag)
	if f.tag == language.English {
		return fmt.Sprintf("%s, %s %d, %d", names.weekdays[t.Weekday()], names.months[t.Month()-1], t.Day(), t.Year())
	}
	return fmt.Sprintf("%s, %d %s %d", names.weekdays[t.Weekday()], t.Day(), names.months[t.Month()-1], t.Year())
}

var clockPattern = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// FmtTimeRange renders "HH.MM – HH.MM WIB", collapsing to a single time when
// end is empty or formats identically to start.
func (f *Formatter) FmtTimeRange(start, end string) string {
	from := f.clock(start)
	if from == "" {
		return ""
	}
	to := f.clock(end)
	if to == "" || to == from {
		return from + " " + f.zoneLabel
	}
	return from + " – " + to + " " + f.zoneLabel
}

func (f *Formatter) clock(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if t, ok := f.ToDate(s); ok {
		t = t.In(f.loc)
		return fmt.Sprintf("%02d.%02d", t.Hour(), t.Minute())
	}
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	h := m[1]
	if len(h) == 1 {
		h = "0" + h
	}
	return h + "." + m[2]
}

// DatePart returns the YYYY-MM-DD of s in the formatter's location.
func (f *Formatter) DatePart(s string) string {
	t, ok := f.ToDate(s)
	if !ok {
		return datePrefix.FindString(strings.TrimSpace(s))
	}
	return t.In(f.loc).Format("2006-01-02")
}

// Combine joins a YYYY-MM-DD date with a time of day ("HH:MM" or "HH.MM").
// It returns "" when either part is missing.
func Combine(date, clock string) string {
	date = strings.TrimSpace(date)
	m := clockPattern.FindStringSubmatch(strings.ReplaceAll(clock, ".", ":"))
	if date == "" || m == nil {
		return ""
	}
	h := m[1]
	if len(h) == 1 {
		h = "0" + h
	}
	return date + "T" + h + ":" + m[2] + ":00"
}
