// Package datetime resolves the loosely formatted dates and times agents
// put in meeting tables ("yesterday at 3:00 PM", "2026-02-17T09:00:00",
// "Tue, 17 Feb 2026 10:00 AM") into calendar timestamps.
package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/markup"
)

// Date parsing regular expressions, tried in the order of resolvers below.
var (
	// today at 3:00 PM, yesterday 10:15, last Monday at 2:30 pm
	relativeWithTimeRegex = regexp.MustCompile(`(?i)^(today|yesterday|last\s+\w+)(?:\s+at)?\s+(\d{1,2}):(\d{2})\s*(AM|PM)?`)

	// today, yesterday, last friday
	relativeDayRegex = regexp.MustCompile(`(?i)^(today|yesterday|last\s+\w+)$`)

	lastWeekdayRegex = regexp.MustCompile(`(?i)^last\s+(\w+)$`)

	// 2026-02-17 09:00, 2026-02-17, 09:00:30, 2026-02-17 3:00 PM
	isoDateTimeRegex = regexp.MustCompile(`(?i)(\d{4})-(\d{1,2})-(\d{1,2})[,\s]+(\d{1,2}):(\d{2})(?::(\d{2}))?(?:\s*(AM|PM))?`)

	// 2026-02-17,09:00-10:00 (range, start wins)
	isoDateRangeRegex = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2}),?\s*(\d{1,2}):(\d{2})`)

	// February 17, 2026 10:00 AM, Feb 17 2026 at 9:30
	monthDayYearRegex = regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2}),?\s*(\d{4}),?\s*(?:at\s+)?(\d{1,2}):(\d{2})\s*(AM|PM)?`)

	// 17/02/2026 09:00
	slashDateRegex = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4}),?\s*(\d{1,2}):(\d{2})`)

	// 2026-02-17
	bareDateRegex = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

	// Tue, 17 Feb 2026, 17 February 2026, 10:00 AM
	dayMonthYearRegex = regexp.MustCompile(`(?i)(?:\w+,?\s+)?(\d{1,2})\s+(\w+)\s+(\d{4})(?:[,\s]+(\d{1,2}):(\d{2})\s*(AM|PM)?)?`)
)

// standardLayouts are tried by the direct parse step. Zone-less layouts are
// interpreted in the caller's location.
var standardLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05Z0700",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon Jan 2 2006 15:04:05",
	"January 2, 2006 15:04",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 3:04 PM",
	"January 2, 2006",
	"Jan 2, 2006",
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Keyed by the first three letters of the month name. Spanish
// abbreviations that differ from English are included.
var months = map[string]time.Month{
	"jan": time.January,
	"ene": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"abr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"ago": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
	"dic": time.December,
}

// resolver is one step of the cascade. s is already normalized.
type resolver func(s string, now time.Time) (time.Time, bool)

var cascade = []resolver{
	resolveRelativeWithTime,
	resolveRelativeDayOnly,
	resolveStandard,
	resolveISODateTime,
	resolveISODateRange,
	resolveMonthDayYear,
	resolveSlashDate,
	resolveBareDate,
	resolveDayMonthYear,
}

// Resolve converts free text to a timestamp relative to the current local
// time. The second result is false when no format matched; that is a
// normal outcome and callers should show the original text instead.
func Resolve(s string) (time.Time, bool) {
	return ResolveAt(s, time.Now())
}

// ResolveAt is Resolve with an explicit reference time. Relative days are
// computed from now, and zone-less formats are read in now's location.
func ResolveAt(s string, now time.Time) (time.Time, bool) {
	s = Normalize(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, r := range cascade {
		if t, ok := r(s, now); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize folds dash variants, strips bold markers and footnote
// references, and trims the result.
func Normalize(s string) string {
	s = markup.Normalize(s)
	s = markup.FoldDashes(s)
	s = markup.StripBold(s)
	s = markup.StripFootnotes(s)
	return strings.TrimSpace(s)
}

// RelativeDay resolves "today", "yesterday" and "last <weekday>" to local
// midnight. "last <weekday>" is the most recent prior occurrence and is
// never today: on a Monday, "last monday" is seven days ago.
func RelativeDay(rel string, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	lower := strings.ToLower(strings.TrimSpace(rel))

	switch lower {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	}

	m := lastWeekdayRegex.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	target, ok := lookupWeekday(m[1])
	if !ok {
		return time.Time{}, false
	}

	diff := int(today.Weekday()) - int(target)
	if diff <= 0 {
		diff += 7
	}
	return today.AddDate(0, 0, -diff), true
}

func resolveRelativeWithTime(s string, now time.Time) (time.Time, bool) {
	m := relativeWithTimeRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	base, ok := RelativeDay(m[1], now)
	if !ok {
		return time.Time{}, false
	}
	hour := applyMeridiem(atoi(m[2]), m[4])
	return build(base.Year(), base.Month(), base.Day(), hour, atoi(m[3]), 0, now.Location())
}

func resolveRelativeDayOnly(s string, now time.Time) (time.Time, bool) {
	m := relativeDayRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return RelativeDay(m[1], now)
}

func resolveStandard(s string, now time.Time) (time.Time, bool) {
	for _, layout := range standardLayouts {
		t, err := time.ParseInLocation(layout, s, now.Location())
		if err == nil {
			return t.In(now.Location()), true
		}
	}
	return time.Time{}, false
}

func resolveISODateTime(s string, now time.Time) (time.Time, bool) {
	m := isoDateTimeRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	hour := applyMeridiem(atoi(m[4]), m[7])
	return build(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), hour, atoi(m[5]), atoi(m[6]), now.Location())
}

func resolveISODateRange(s string, now time.Time) (time.Time, bool) {
	m := isoDateRangeRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return build(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), atoi(m[4]), atoi(m[5]), 0, now.Location())
}

func resolveMonthDayYear(s string, now time.Time) (time.Time, bool) {
	m := monthDayYearRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := lookupMonth(m[1])
	if !ok {
		return time.Time{}, false
	}
	hour := applyMeridiem(atoi(m[4]), m[6])
	return build(atoi(m[3]), month, atoi(m[2]), hour, atoi(m[5]), 0, now.Location())
}

// resolveSlashDate reads NN/NN/YYYY day-first. When that is not a valid
// date (17 as a month) it retries month-first, which is how US-formatted
// agents write it.
func resolveSlashDate(s string, now time.Time) (time.Time, bool) {
	m := slashDateRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
	hour, minute := atoi(m[4]), atoi(m[5])

	if t, ok := build(year, time.Month(second), first, hour, minute, 0, now.Location()); ok {
		return t, true
	}
	return build(year, time.Month(first), second, hour, minute, 0, now.Location())
}

func resolveBareDate(s string, now time.Time) (time.Time, bool) {
	m := bareDateRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	return build(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3]), 0, 0, 0, now.Location())
}

func resolveDayMonthYear(s string, now time.Time) (time.Time, bool) {
	m := dayMonthYearRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, ok := lookupMonth(m[2])
	if !ok {
		return time.Time{}, false
	}
	hour, minute := 0, 0
	if m[4] != "" {
		hour = applyMeridiem(atoi(m[4]), m[6])
		minute = atoi(m[5])
	}
	return build(atoi(m[3]), month, atoi(m[1]), hour, minute, 0, now.Location())
}

// applyMeridiem converts a 12-hour clock value: 12 AM is 0, 12 PM stays
// 12 and PM adds 12 to hours 1 through 11. Without a marker the hour is
// returned unchanged.
func applyMeridiem(hour int, meridiem string) int {
	switch strings.ToUpper(meridiem) {
	case "PM":
		if hour < 12 {
			return hour + 12
		}
	case "AM":
		if hour == 12 {
			return 0
		}
	}
	return hour
}

// build constructs a timestamp and rejects values time.Date would
// silently normalize (Feb 30, 25:00, month 13).
func build(year int, month time.Month, day, hour, minute, second int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, hour, minute, second, 0, loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func lookupMonth(name string) (time.Month, bool) {
	lower := strings.ToLower(name)
	if len(lower) < 3 {
		return 0, false
	}
	m, ok := months[lower[:3]]
	return m, ok
}

// lookupWeekday accepts full names and prefixes of at least three letters.
func lookupWeekday(name string) (time.Weekday, bool) {
	lower := strings.ToLower(name)
	if wd, ok := weekdays[lower]; ok {
		return wd, true
	}
	if len(lower) < 3 {
		return 0, false
	}
	for full, wd := range weekdays {
		if strings.HasPrefix(full, lower) {
			return wd, true
		}
	}
	return 0, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
