// Package render draws meetings, schedules and transcripts for a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/otherjamesbrown/meetprep/client"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/classify"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/meeting"
)

// ruleWidth is the width of the separator under headers.
const ruleWidth = 60

// Styles holds the lipgloss styles used by a Renderer.
type Styles struct {
	Header  lipgloss.Style
	Hour    lipgloss.Style
	Subject lipgloss.Style
	Speaker lipgloss.Style
	Dim     lipgloss.Style
	Warning lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Hour:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Subject: lipgloss.NewStyle().Bold(true),
		Speaker: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Header: plain, Hour: plain, Subject: plain, Speaker: plain, Dim: plain, Warning: plain}
}

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Renderer writes human-readable views to w.
type Renderer struct {
	w      io.Writer
	styles Styles
}

// New creates a Renderer. Color selects DefaultStyles over PlainStyles.
func New(w io.Writer, color bool) *Renderer {
	styles := PlainStyles()
	if color {
		styles = DefaultStyles()
	}
	return &Renderer{w: w, styles: styles}
}

// NewForFile creates a Renderer for f, with color when f is a terminal.
func NewForFile(f *os.File) *Renderer {
	return New(f, ColorEnabled(f))
}

// Schedule writes the meetings grouped by day. Each hour slot lists the
// meetings overlapping it; a meeting that started in an earlier slot is
// marked as continued.
func (r *Renderer) Schedule(s *meeting.Schedule) {
	for i, day := range s.Days {
		if i > 0 {
			fmt.Fprintln(r.w)
		}
		fmt.Fprintln(r.w, r.styles.Header.Render(day.Label))

		if day.Key == meeting.UnknownDay {
			for _, m := range day.Meetings {
				fmt.Fprintf(r.w, "  • %s\n", r.meetingLine(m))
			}
			continue
		}

		for _, slot := range day.Slots {
			hour := r.styles.Hour.Render(fmt.Sprintf("%02d:00", slot.StartHour))
			if len(slot.Meetings) == 0 {
				fmt.Fprintf(r.w, "  %s  %s\n", hour, r.styles.Dim.Render("-"))
				continue
			}
			for j, m := range slot.Meetings {
				prefix := hour
				if j > 0 {
					prefix = strings.Repeat(" ", lipgloss.Width(hour))
				}
				if m.Start != nil && m.Start.Hour() < slot.StartHour {
					fmt.Fprintf(r.w, "  %s  %s\n", prefix, r.styles.Dim.Render("↳ "+m.Subject))
					continue
				}
				fmt.Fprintf(r.w, "  %s  %s\n", prefix, r.meetingLine(m))
			}
		}
	}
}

// meetingLine formats "Subject (09:00-09:30) · Organizer". Meetings with
// no resolved start show their raw start text.
func (r *Renderer) meetingLine(m meeting.Meeting) string {
	line := r.styles.Subject.Render(m.Subject)
	switch {
	case m.Start != nil && m.End != nil:
		line += fmt.Sprintf(" (%s-%s)", m.Start.Format("15:04"), m.End.Format("15:04"))
	case m.Start != nil:
		line += fmt.Sprintf(" (%s)", m.Start.Format("15:04"))
	case m.StartRaw != "":
		line += fmt.Sprintf(" (%s)", m.StartRaw)
	}
	if m.Organizer != "" {
		line += r.styles.Dim.Render(" · " + m.Organizer)
	}
	return line
}

// MeetingList writes the schedule for list, or the raw answer when no
// meeting could be extracted.
func (r *Renderer) MeetingList(list *meeting.MeetingList, now time.Time) {
	if list.Verbatim() {
		fmt.Fprintln(r.w, strings.TrimSpace(list.Raw))
		return
	}
	r.Schedule(meeting.BuildSchedule(list.Meetings, now))
}

// Transcript writes a header with the speakers followed by the cues or
// turns. Raw transcripts are written unchanged.
func (r *Renderer) Transcript(t *meeting.Transcript) {
	if t.Verbatim() {
		fmt.Fprintln(r.w, strings.TrimSpace(t.Raw))
		return
	}

	header := fmt.Sprintf("Transcript (%s)", t.Format)
	if len(t.Speakers) > 0 {
		header += " · " + strings.Join(t.Speakers, ", ")
	}
	if t.DurationSeconds > 0 {
		header += " · " + (time.Duration(t.DurationSeconds) * time.Second).String()
	}
	fmt.Fprintln(r.w, r.styles.Header.Render(header))
	fmt.Fprintln(r.w, r.styles.Dim.Render(strings.Repeat("-", ruleWidth)))
	if t.Note != "" {
		fmt.Fprintln(r.w, r.styles.Dim.Render(t.Note))
		fmt.Fprintln(r.w)
	}

	switch t.Format {
	case meeting.FormatVTT:
		for _, c := range t.Cues {
			fmt.Fprintf(r.w, "%s %s\n", r.styles.Hour.Render("["+c.Timestamp+"]"), r.utterance(c.Speaker, c.Text))
		}
	case meeting.FormatTurns:
		for _, turn := range t.Turns {
			fmt.Fprintln(r.w, r.utterance(turn.Speaker, turn.Text))
		}
	}
}

func (r *Renderer) utterance(speaker, text string) string {
	if speaker == "" {
		return text
	}
	return r.styles.Speaker.Render(speaker+":") + " " + text
}

// Classification writes the verdict followed by the text.
func (r *Renderer) Classification(c classify.Classification) {
	if c.IsRefusal {
		fmt.Fprintln(r.w, r.styles.Warning.Render("Refusal"))
	} else {
		fmt.Fprintln(r.w, r.styles.Header.Render("Usable content"))
	}
	fmt.Fprintln(r.w, r.styles.Dim.Render(strings.Repeat("-", ruleWidth)))
	fmt.Fprintln(r.w, c.Text)
}

// Answer writes an agent answer with its source.
func (r *Renderer) Answer(text, source string) {
	fmt.Fprintln(r.w, strings.TrimSpace(text))
	if source != "" {
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, r.styles.Dim.Render("Source: "+source))
	}
}

// Notice writes a highlighted one-line message.
func (r *Renderer) Notice(msg string) {
	fmt.Fprintln(r.w, r.styles.Warning.Render(msg))
}

// Models writes one aligned row per model.
func (r *Renderer) Models(models []client.ModelInfo) {
	if len(models) == 0 {
		fmt.Fprintln(r.w, "No models available.")
		return
	}
	idWidth, providerWidth := len("ID"), len("PROVIDER")
	for _, m := range models {
		idWidth = max(idWidth, lipgloss.Width(m.ID))
		providerWidth = max(providerWidth, lipgloss.Width(m.Provider))
	}

	row := func(id, provider, name string) string {
		return pad(id, idWidth) + "  " + pad(provider, providerWidth) + "  " + name
	}
	fmt.Fprintln(r.w, r.styles.Header.Render(row("ID", "PROVIDER", "NAME")))
	for _, m := range models {
		fmt.Fprintln(r.w, row(m.ID, m.Provider, m.Name))
	}
}

func pad(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
