package assistant

import "fmt"

// MeetingsQuestion asks the agent for the recent meeting list as a table.
const MeetingsQuestion = "List my online Teams meetings from the last 7 days. " +
	"For each meeting, show subject/title, start date/time, end date/time, and organizer. " +
	"For dates, use whatever format is available — relative times like 'today at 10:00 AM' or 'yesterday at 3:00 PM' are fine, " +
	"or ISO 8601 (e.g. 2026-02-17T09:00:00) if available. Do NOT write 'Unknown' for dates — always provide the best available time, even if relative. " +
	"Return them as a markdown table ordered from newest to oldest."

// TranscriptQuestions returns the phrasings tried in order when asking for
// a verbatim transcript. An empty date targets the most recent meeting with
// that subject.
func TranscriptQuestions(subject, date string) []string {
	if date != "" {
		return []string{
			fmt.Sprintf(`Show me the transcript of the meeting %q on %s. `, subject, date) +
				`List each speaker turn as "Speaker: what they said". Include all lines from start to finish. Do not summarize, do not omit lines, and do not use ellipsis.`,
			fmt.Sprintf(`Get the meeting transcript for %q on %s. Show every line with the speaker name and what they said. Return verbatim text only.`, subject, date),
			fmt.Sprintf(`Retrieve the transcript content of %q held on %s. I need the full conversation with speaker names and no omissions.`, subject, date),
		}
	}
	return []string{
		fmt.Sprintf(`Show me the transcript of the most recent meeting called %q. `, subject) +
			`List each speaker turn as "Speaker: what they said". Include all lines from start to finish. Do not summarize, do not omit lines, and do not use ellipsis.`,
		fmt.Sprintf(`Get the meeting transcript for the most recent %q meeting. Show every line with the speaker name and what they said. Return verbatim text only.`, subject),
		fmt.Sprintf(`Retrieve the transcript content of the most recent %q meeting. I need the full conversation with speaker names and no omissions.`, subject),
	}
}

// LocationQuestion asks where the transcript file of a meeting lives.
func LocationQuestion(subject, date string) string {
	if date != "" {
		return fmt.Sprintf(`For the meeting %q on %s, provide ONLY the direct transcript file location (single URL or file path). No explanation.`, subject, date)
	}
	return fmt.Sprintf(`For the most recent meeting %q, provide ONLY the direct transcript file location (single URL or file path). No explanation.`, subject)
}

// InsightsQuestion asks for a summary and the action items of a meeting.
func InsightsQuestion(subject, date string) string {
	if date != "" {
		return fmt.Sprintf(`Give me a summary and key action items from the meeting %q on %s.`, subject, date)
	}
	return fmt.Sprintf(`Give me a summary and key action items from the most recent meeting called %q.`, subject)
}
