package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Relative-date resolution. Everything here is a pure function of the
// supplied now so the same input always resolves to the same timestamp.

// defaultHour is the time of day assigned to bare date expressions.
const defaultHour = 9

var (
	clockRegex    = regexp.MustCompile(`(\d{1,2})[:.](\d{2})\s*(a\.?m\.?|p\.?m\.?)?`)
	hourOnlyRegex = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm|a\.m\.?|p\.m\.?)\b`)
	isoDateRegex  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	inUnitsRegex  = regexp.MustCompile(`in (\d+) (hour|day|week|month)`)
)

// weekdays in resolution order; names must match whole words.
var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// ResolveDate parses a natural-language date expression relative to now.
// Returns nil if no date is found. Weekday references prefer the next
// future occurrence.
func ResolveDate(text string, now time.Time) *time.Time {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	hour, minute, hasClock := extractClock(lower)

	resolved := resolveDay(lower, now)
	if resolved == nil && hasClock {
		// Bare time of day means today at that time
		t := atTime(now, hour, minute)
		return &t
	}
	if resolved == nil {
		return nil
	}
	if hasClock {
		t := atTime(*resolved, hour, minute)
		return &t
	}
	return resolved
}

// extractClock finds an explicit time of day (HH:MM or "3pm" style).
func extractClock(lower string) (hour, minute int, ok bool) {
	if m := clockRegex.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		return adjustMeridiem(hour, m[3]), minute, true
	}
	if m := hourOnlyRegex.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		return adjustMeridiem(hour, m[2]), 0, true
	}
	return 0, 0, false
}

func adjustMeridiem(hour int, meridiem string) int {
	meridiem = strings.ReplaceAll(meridiem, ".", "")
	switch meridiem {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	return hour
}

// resolveDay resolves the date portion of an expression.
func resolveDay(lower string, now time.Time) *time.Time {
	// Explicit ISO date
	if m := isoDateRegex.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, defaultHour, 0, 0, 0, now.Location())
		return &t
	}

	switch {
	case strings.Contains(lower, "today"):
		t := atTime(now, defaultHour, 0)
		return &t
	case strings.Contains(lower, "tomorrow"):
		t := atTime(now.AddDate(0, 0, 1), defaultHour, 0)
		return &t
	case strings.Contains(lower, "yesterday"):
		t := atTime(now.AddDate(0, 0, -1), defaultHour, 0)
		return &t
	}

	switch {
	case strings.Contains(lower, "next week"):
		t := atTime(now.AddDate(0, 0, 7), defaultHour, 0)
		return &t
	case strings.Contains(lower, "next month"):
		t := atTime(now.AddDate(0, 0, 30), defaultHour, 0)
		return &t
	}

	// Weekday references: "next Monday" always jumps forward; a bare or
	// "this" weekday takes the next future occurrence (never today).
	for _, wd := range weekdays {
		if !containsWord(lower, wd.name) {
			continue
		}
		daysAhead := int(wd.day - now.Weekday())
		if daysAhead <= 0 {
			daysAhead += 7
		}
		if strings.Contains(lower, "next "+wd.name) && daysAhead <= 0 {
			daysAhead += 7
		}
		t := atTime(now.AddDate(0, 0, daysAhead), defaultHour, 0)
		return &t
	}

	// "in N hours/days/weeks/months"
	if m := inUnitsRegex.FindStringSubmatch(lower); m != nil {
		n, _ := strconv.Atoi(m[1])
		var t time.Time
		switch m[2] {
		case "hour":
			t = now.Add(time.Duration(n) * time.Hour)
		case "day":
			t = now.AddDate(0, 0, n)
		case "week":
			t = now.AddDate(0, 0, 7*n)
		case "month":
			t = now.AddDate(0, 0, 30*n)
		}
		return &t
	}

	return nil
}

// atTime returns t's date with the given time of day.
func atTime(t time.Time, hour, minute int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
}

// containsWord reports whether lower contains word bounded by non-letters.
func containsWord(lower, word string) bool {
	idx := strings.Index(lower, word)
	for idx >= 0 {
		before := idx == 0 || !isLetter(lower[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(lower) || !isLetter(lower[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(lower[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
