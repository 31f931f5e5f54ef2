package flows

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Deadline expression grammars, matched in order. Input is lowercased and
// trimmed first, so the keywords are case-insensitive.
var (
	reAbsolute = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})\s+(\d{2}):(\d{2})$`)
	reToday    = regexp.MustCompile(`^today\s+(\d{1,2}):(\d{2})$`)
	reTomorrow = regexp.MustCompile(`^tomorrow\s+(\d{1,2}):(\d{2})$`)
	reInDays   = regexp.MustCompile(`^(\d+)\s*days?$`)
	reInWeeks  = regexp.MustCompile(`^(\d+)\s*weeks?$`)
)

// ParseDeadline evaluates a deadline expression relative to now. Supported
// forms: "DD.MM.YYYY HH:MM", "today HH:MM", "tomorrow HH:MM", "N day(s)" and
// "N week(s)". Relative day/week offsets keep the time of day from now;
// every result has seconds and sub-seconds zeroed. The second return value
// is false when the text matches no grammar or names an impossible moment.
func ParseDeadline(text string, now time.Time) (time.Time, bool) {
	expr := strings.ToLower(strings.TrimSpace(text))

	if m := reAbsolute.FindStringSubmatch(expr); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		if !validClock(hour, minute) {
			return time.Time{}, false
		}
		t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())
		// time.Date normalizes overflow (32.01 becomes 01.02); reject
		// anything that did not survive the round trip.
		if t.Day() != day || int(t.Month()) != month || t.Year() != year {
			return time.Time{}, false
		}
		return t, true
	}

	if m := reToday.FindStringSubmatch(expr); m != nil {
		return atClock(now, 0, m[1], m[2])
	}
	if m := reTomorrow.FindStringSubmatch(expr); m != nil {
		return atClock(now, 1, m[1], m[2])
	}

	if m := reInDays.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.AddDate(0, 0, n).Truncate(time.Minute), true
	}
	if m := reInWeeks.FindStringSubmatch(expr); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		return now.AddDate(0, 0, 7*n).Truncate(time.Minute), true
	}

	return time.Time{}, false
}

func atClock(now time.Time, dayOffset int, hourStr, minuteStr string) (time.Time, bool) {
	hour, _ := strconv.Atoi(hourStr)
	minute, _ := strconv.Atoi(minuteStr)
	if !validClock(hour, minute) {
		return time.Time{}, false
	}
	base := now.AddDate(0, 0, dayOffset)
	return time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, now.Location()), true
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}

// SplitTags tokenizes free text into tags on commas and whitespace,
// dropping empties.
func SplitTags(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}
