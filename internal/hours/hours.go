// Package hours evaluates "open now" from the provider's weekly free-text
// schedule ("Wednesday: 11:00 AM – 2:00 PM, 5:00 PM – 10:00 PM"). An unknown
// schedule is treated as closed, not open.
package hours

import (
	"strconv"
	"strings"
	"time"
)

// IsOpenAt reports whether any range in the schedule entry for instant's
// weekday covers instant. Overnight ranges (end before start) span midnight.
func IsOpenAt(weeklySchedule []string, instant time.Time) bool {
	if len(weeklySchedule) == 0 {
		return false
	}

	day := instant.Weekday().String()
	current := instant.Hour()*100 + instant.Minute()

	for _, entry := range weeklySchedule {
		name, ranges, ok := splitEntry(entry)
		if !ok || !strings.EqualFold(name, day) {
			continue
		}
		for _, r := range splitRanges(ranges) {
			start, end, ok := parseRange(r)
			if !ok {
				continue
			}
			if end < start {
				// Overnight range, e.g. 10:00 PM – 6:00 AM.
				if current >= start || current <= end {
					return true
				}
			} else if start <= current && current <= end {
				return true
			}
		}
		return false
	}
	return false
}

func splitEntry(entry string) (day, ranges string, ok bool) {
	day, ranges, ok = strings.Cut(normalize(entry), ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(day), strings.TrimSpace(ranges), true
}

func splitRanges(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseRange parses "9:00 AM – 5:00 PM" into HHMM integers (900, 1700).
// Returns ok=false for "Closed" or anything unparseable.
func parseRange(r string) (start, end int, ok bool) {
	var sep string
	for _, cand := range []string{"–", "—", "-"} {
		if strings.Contains(r, cand) {
			sep = cand
			break
		}
	}
	if sep == "" {
		return 0, 0, false
	}
	from, to, _ := strings.Cut(r, sep)
	start, okFrom := parseClock(from)
	end, okTo := parseClock(to)
	return start, end, okFrom && okTo
}

// parseClock converts a 12-hour clock string to an HHMM integer:
// 9:00 AM -> 900, 2:00 PM -> 1400, 12:00 AM -> 0, 12:00 PM -> 1200.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	var pm bool
	switch {
	case strings.HasSuffix(upper, "PM"):
		pm = true
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "AM"):
		s = strings.TrimSpace(s[:len(s)-2])
	default:
		return 0, false
	}

	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, false
	}
	hour, err1 := strconv.Atoi(strings.TrimSpace(hh))
	minute, err2 := strconv.Atoi(strings.TrimSpace(mm))
	if err1 != nil || err2 != nil || hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, false
	}

	if hour == 12 {
		hour = 0 // 12:00 AM is midnight; PM adds the 12 back for noon.
	}
	if pm {
		hour += 12
	}
	return hour*100 + minute, true
}

// normalize strips the narrow/thin spaces the provider inserts around AM/PM
// and dashes so the parser only deals with plain spaces.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\u202f', '\u2009', '\u00a0':
			return ' '
		}
		return r
	}, s)
}
