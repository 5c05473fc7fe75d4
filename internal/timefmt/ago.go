package timefmt

import "time"

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
	month  = 30 * day
	year   = 365 * day
)

// TimeAgo buckets the time elapsed between t and now. Future instants read
// as "just now"; there is no future-relative wording.
func (f *Formatter) TimeAgo(t, now time.Time) string {
	s := int(now.Sub(t) / time.Second)
	switch {
	case s < 1:
		return f.printer.Sprintf(keyJustNow)
	case s < minute:
		return f.printer.Sprintf(keySeconds, s)
	case s < hour:
		return f.printer.Sprintf(keyMinutes, s/minute)
	case s < day:
		return f.printer.Sprintf(keyHours, s/hour)
	case s < month:
		return f.printer.Sprintf(keyDays, s/day)
	case s < year:
		return f.printer.Sprintf(keyMonths, s/month)
	default:
		return f.printer.Sprintf(keyYears, s/year)
	}
}

// Ago parses a raw timestamp and formats it relative to now. Unparseable
// input yields "".
func (f *Formatter) Ago(raw string, now time.Time) string {
	t, ok := f.ToDate(raw)
	if !ok {
		return ""
	}
	return f.TimeAgo(t, now)
}
