// Package meeting turns agent answers into meeting records, transcript
// turns and caption cues.
package meeting

import "time"

// UnknownSpeaker labels turns that cannot be attributed.
const UnknownSpeaker = "Unknown"

// Meeting is one row of a meeting list answer. Start and End are nil when
// the source text could not be resolved; StartRaw and EndRaw always keep
// the original text.
type Meeting struct {
	Subject   string     `json:"subject" yaml:"subject"`
	Start     *time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End       *time.Time `json:"end,omitempty" yaml:"end,omitempty"`
	Organizer string     `json:"organizer,omitempty" yaml:"organizer,omitempty"`
	StartRaw  string     `json:"start_raw,omitempty" yaml:"start_raw,omitempty"`
	EndRaw    string     `json:"end_raw,omitempty" yaml:"end_raw,omitempty"`
}

// DateKey is the value passed to transcript questions for this meeting:
// the raw start text when present, otherwise the resolved start.
func (m Meeting) DateKey() string {
	if m.StartRaw != "" {
		return m.StartRaw
	}
	if m.Start != nil {
		return m.Start.Format(time.RFC3339)
	}
	return ""
}

// Turn is one attributed utterance.
type Turn struct {
	Speaker string `json:"speaker" yaml:"speaker"`
	Text    string `json:"text" yaml:"text"`
}

// Cue is one caption block of a WebVTT transcript.
type Cue struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Speaker   string `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Text      string `json:"text" yaml:"text"`
	StartMs   int    `json:"start_ms" yaml:"start_ms"`
	EndMs     int    `json:"end_ms" yaml:"end_ms"`
}

// Format identifies how a transcript answer was understood.
type Format string

const (
	FormatVTT   Format = "vtt"
	FormatTurns Format = "turns"
	FormatRaw   Format = "raw"
)

// Transcript is the structured view of a transcript answer. When nothing
// could be structured the Format is FormatRaw and only Raw is set.
type Transcript struct {
	Format          Format   `json:"format" yaml:"format"`
	Cues            []Cue    `json:"cues,omitempty" yaml:"cues,omitempty"`
	Turns           []Turn   `json:"turns,omitempty" yaml:"turns,omitempty"`
	Speakers        []string `json:"speakers" yaml:"speakers"`
	DurationSeconds int      `json:"duration_seconds,omitempty" yaml:"duration_seconds,omitempty"`
	Note            string   `json:"note,omitempty" yaml:"note,omitempty"`
	Raw             string   `json:"raw" yaml:"raw"`
}

// Verbatim reports whether the caller must display Raw as-is.
func (t *Transcript) Verbatim() bool {
	return t.Format == FormatRaw
}

// MeetingList is the structured view of a meeting list answer.
type MeetingList struct {
	Meetings []Meeting `json:"meetings" yaml:"meetings"`
	Raw      string    `json:"raw" yaml:"raw"`
}

// Verbatim reports whether no meeting could be extracted and the caller
// must display Raw as-is.
func (l *MeetingList) Verbatim() bool {
	return len(l.Meetings) == 0
}
