package meeting

import "strings"

// ParseTranscript builds the structured view of a transcript answer with
// the default turn parser.
func ParseTranscript(text string) *Transcript {
	return defaultTurnParser.ParseTranscript(text)
}

// ParseTranscript tries caption cues first, then speaker turns. When
// neither yields anything the result is FormatRaw.
func (p *TurnParser) ParseTranscript(text string) *Transcript {
	t := &Transcript{Raw: text, Speakers: make([]string, 0)}

	if cues := ParseVTTCues(text); len(cues) > 0 {
		t.Format = FormatVTT
		t.Cues = cues
		t.Speakers = cueSpeakers(cues)
		t.DurationSeconds = cueDurationSeconds(cues)
		return t
	}

	if turns := p.Parse(text); len(turns) > 0 {
		t.Format = FormatTurns
		t.Turns = turns
		t.Speakers = turnSpeakers(turns)
		t.Note = p.ContextNote(text)
		return t
	}

	t.Format = FormatRaw
	return t
}

// turnSpeakers returns the distinct attributed speakers in first-seen order.
func turnSpeakers(turns []Turn) []string {
	speakers := make([]string, 0)
	seen := make(map[string]bool)
	for _, turn := range turns {
		if turn.Speaker == UnknownSpeaker || seen[turn.Speaker] {
			continue
		}
		seen[turn.Speaker] = true
		speakers = append(speakers, turn.Speaker)
	}
	return speakers
}

// FullText joins every utterance of the transcript, one per line, prefixed
// by its speaker when known. Raw transcripts return Raw unchanged.
func (t *Transcript) FullText() string {
	var b strings.Builder
	write := func(speaker, text string) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if speaker != "" {
			b.WriteString(speaker)
			b.WriteString(": ")
		}
		b.WriteString(text)
	}

	switch t.Format {
	case FormatVTT:
		for _, c := range t.Cues {
			write(c.Speaker, c.Text)
		}
	case FormatTurns:
		for _, turn := range t.Turns {
			write(turn.Speaker, turn.Text)
		}
	default:
		return t.Raw
	}
	return b.String()
}
