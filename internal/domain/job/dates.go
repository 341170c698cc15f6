package job

import (
	"strings"
	"time"
)

// DefaultDueBusinessDays is the journal due-date offset when none is given.
const DefaultDueBusinessDays = 5

// DateLayout is the wire format for registry dates.
const DateLayout = "2006-01-02"

var inputDateLayouts = []string{DateLayout, "02/01/2006", "02-01-2006"}

// AddBusinessDays moves forward n weekdays from start, skipping Saturdays
// and Sundays. The start day itself is never counted.
func AddBusinessDays(start time.Time, n int) time.Time {
	current := start
	for added := 0; added < n; {
		current = current.AddDate(0, 0, 1)
		if wd := current.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return current
}

// DefaultDueDate is the due date for a journal entry created at now.
func DefaultDueDate(now time.Time) time.Time {
	return AddBusinessDays(Today(now), DefaultDueBusinessDays)
}

// Today truncates t to midnight in its own location.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate accepts YYYY-MM-DD, DD/MM/YYYY and DD-MM-YYYY.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range inputDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDisplayDate renders a date string as "5 Jan". Unparseable input is
// returned unchanged.
func FormatDisplayDate(value string) string {
	if value == "" {
		return ""
	}
	t, ok := ParseDate(value)
	if !ok {
		return value
	}
	return t.Format("2 Jan")
}
