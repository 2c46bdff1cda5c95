package validation

import (
	"regexp"
	"strings"
	"time"
)

// Wire layouts for report dates.
const (
	DisplayLayout = "02/01/2006" // DD/MM/YYYY, used by GET /report
	ISOLayout     = "2006-01-02" // used by GET /reports-report
)

var (
	slashDatePattern = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`)
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseReportDate accepts D/M/YYYY (one or two digit day and month) or ISO
// YYYY-MM-DD and rejects dates that do not exist on the calendar.
func ParseReportDate(s string) (time.Time, error) {
	return parseDate("date", s)
}

// ValidateDateRange parses both ends of a range and checks their order.
func ValidateDateRange(start, end string) (time.Time, time.Time, error) {
	var v Violations
	from, errFrom := parseDate("startDate", start)
	to, errTo := parseDate("endDate", end)
	for _, err := range []error{errFrom, errTo} {
		if verr, ok := err.(*Error); ok {
			v = append(v, verr.Violations...)
		}
	}
	if len(v) == 0 && from.After(to) {
		v.Add("startDate", MsgDateRangeOrder)
	}
	if err := v.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// FormatDisplay renders t as DD/MM/YYYY.
func FormatDisplay(t time.Time) string {
	return t.Format(DisplayLayout)
}

// FormatISO renders t as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var layout string
	switch {
	case s == "":
		return time.Time{}, Violations{{Field: field, Message: MsgDateRequired}}.Err()
	case slashDatePattern.MatchString(s):
		layout = "2/1/2006"
	case isoDatePattern.MatchString(s):
		layout = ISOLayout
	default:
		return time.Time{}, Violations{{Field: field, Message: MsgDateFormat}}.Err()
	}

	// time.Parse rejects out-of-range days such as 31/02.
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, Violations{{Field: field, Message: MsgDateInvalid}}.Err()
	}
	return t, nil
}
