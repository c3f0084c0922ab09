package meeting

import (
	"sort"
	"time"
)

// UnknownDay is the key of the group holding meetings without a resolved
// start. It always sorts last.
const UnknownDay = "unknown"

// Business hours shown when a day has no usable hour range.
const (
	defaultFirstHour = 8
	defaultLastHour  = 18
)

// Slot is one hour of a day. A meeting appears in every slot it overlaps.
type Slot struct {
	StartHour int       `json:"start_hour" yaml:"start_hour"`
	EndHour   int       `json:"end_hour" yaml:"end_hour"`
	Meetings  []Meeting `json:"meetings" yaml:"meetings"`
}

// Day groups the meetings that start on one local calendar day.
type Day struct {
	Key      string    `json:"key" yaml:"key"`
	Label    string    `json:"label" yaml:"label"`
	Meetings []Meeting `json:"meetings" yaml:"meetings"`
	// Slots is empty for the UnknownDay group.
	Slots []Slot `json:"slots,omitempty" yaml:"slots,omitempty"`
}

// Schedule is the day-bucketed, hour-sliced view of a meeting list.
type Schedule struct {
	Days []Day `json:"days" yaml:"days"`
}

// BuildSchedule groups meetings by the local day of their start, newest
// day first, and slices each day into hours. Days and labels are computed
// in now's location.
func BuildSchedule(meetings []Meeting, now time.Time) *Schedule {
	loc := now.Location()
	groups := make(map[string][]Meeting)
	var keys []string

	for _, m := range meetings {
		key := UnknownDay
		if m.Start != nil {
			key = m.Start.In(loc).Format(time.DateOnly)
		}
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], m)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == UnknownDay {
			return false
		}
		if keys[j] == UnknownDay {
			return true
		}
		return keys[i] > keys[j]
	})

	schedule := &Schedule{Days: make([]Day, 0, len(keys))}
	for _, key := range keys {
		day := Day{
			Key:      key,
			Label:    DayLabel(key, now),
			Meetings: groups[key],
		}
		if key != UnknownDay {
			day.Slots = buildSlots(key, groups[key], loc)
		}
		schedule.Days = append(schedule.Days, day)
	}
	return schedule
}

// DayLabel names a day key relative to now: "Today - Feb 16, 2026",
// "Yesterday - Feb 15, 2026" or "Friday - Feb 13, 2026". The unknown
// group is labelled "Other".
func DayLabel(key string, now time.Time) string {
	if key == UnknownDay {
		return "Other"
	}
	d, err := time.ParseInLocation(time.DateOnly, key, now.Location())
	if err != nil {
		return key
	}

	date := d.Format("Jan 2, 2006")
	today := startOfDay(now)
	switch {
	case d.Equal(today):
		return "Today - " + date
	case d.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday - " + date
	default:
		return d.Weekday().String() + " - " + date
	}
}

// HourRange returns the hours [first, last) to display for a day's
// meetings: the earliest start hour to the latest end hour, rounding the
// end up on any non-zero minute. Meetings without an end count as one
// hour. The range defaults to business hours when it is empty.
func HourRange(dayMeetings []Meeting, day time.Time) (first, last int) {
	first, last = 24, 0
	nextDay := startOfDay(day).AddDate(0, 0, 1)

	for _, m := range dayMeetings {
		if m.Start == nil {
			continue
		}
		start := m.Start.In(day.Location())
		if start.Hour() < first {
			first = start.Hour()
		}

		endHour := start.Hour() + 1
		if m.End != nil {
			end := m.End.In(day.Location())
			switch {
			case !end.Before(nextDay):
				endHour = 24
			default:
				endHour = end.Hour()
				if end.Minute() > 0 || end.Second() > 0 {
					endHour++
				}
			}
		}
		if endHour > last {
			last = endHour
		}
	}

	if first > last {
		first, last = defaultFirstHour, defaultLastHour
	}
	return max(first, 0), min(last, 24)
}

func buildSlots(key string, dayMeetings []Meeting, loc *time.Location) []Slot {
	day, err := time.ParseInLocation(time.DateOnly, key, loc)
	if err != nil {
		return nil
	}

	first, last := HourRange(dayMeetings, day)
	slots := make([]Slot, 0, last-first)
	for hour := first; hour < last; hour++ {
		slotStart := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
		slotEnd := time.Date(day.Year(), day.Month(), day.Day(), hour+1, 0, 0, 0, loc)

		slot := Slot{StartHour: hour, EndHour: hour + 1, Meetings: make([]Meeting, 0)}
		for _, m := range dayMeetings {
			if Overlaps(m, slotStart, slotEnd) {
				slot.Meetings = append(slot.Meetings, m)
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

// Overlaps reports whether the meeting intersects [from, to). A meeting
// without an end lasts one hour; one without a start overlaps nothing.
func Overlaps(m Meeting, from, to time.Time) bool {
	if m.Start == nil {
		return false
	}
	start := *m.Start
	end := start.Add(time.Hour)
	if m.End != nil {
		end = *m.End
	}
	return start.Before(to) && end.After(from)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
