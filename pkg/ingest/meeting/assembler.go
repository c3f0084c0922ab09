package meeting

import (
	"time"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/datetime"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/table"
)

var (
	meetingRequiredColumns = []table.Column{table.Subject, table.Start}
	meetingOptionalColumns = []table.Column{table.End, table.Organizer}
)

// AssembleMeetings extracts meeting records from a meeting list answer,
// resolving relative dates against the current time.
func AssembleMeetings(text string) []Meeting {
	return AssembleMeetingsAt(text, time.Now())
}

// AssembleMeetingsAt is AssembleMeetings with an explicit reference time.
// Rows come from the first table with subject and start columns, or from
// numbered rows when there is no such table. Rows without a subject are
// dropped. The result is nil when nothing could be extracted.
func AssembleMeetingsAt(text string, now time.Time) []Meeting {
	var meetings []Meeting

	rows := table.Extract(text, meetingRequiredColumns, meetingOptionalColumns)
	if len(rows) > 0 {
		for _, row := range rows {
			if m, ok := newMeeting(row.Get(table.Subject.Name), row.Get(table.Start.Name), row.Get(table.End.Name), row.Get(table.Organizer.Name), now); ok {
				meetings = append(meetings, m)
			}
		}
		return meetings
	}

	for _, cells := range table.ExtractNumbered(text) {
		if m, ok := newMeeting(cells[0], cells[1], cells[2], "", now); ok {
			meetings = append(meetings, m)
		}
	}
	return meetings
}

// ParseMeetingList wraps AssembleMeetingsAt in a MeetingList that keeps the
// raw answer for verbatim display.
func ParseMeetingList(text string, now time.Time) *MeetingList {
	return &MeetingList{
		Meetings: AssembleMeetingsAt(text, now),
		Raw:      text,
	}
}

func newMeeting(subject, startRaw, endRaw, organizer string, now time.Time) (Meeting, bool) {
	if subject == "" {
		return Meeting{}, false
	}
	m := Meeting{
		Subject:   subject,
		Organizer: organizer,
		StartRaw:  startRaw,
		EndRaw:    endRaw,
	}
	if t, ok := datetime.ResolveAt(startRaw, now); ok {
		m.Start = &t
	}
	if t, ok := datetime.ResolveAt(endRaw, now); ok {
		m.End = &t
	}
	return m, true
}
