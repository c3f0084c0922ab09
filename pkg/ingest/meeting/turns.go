package meeting

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/markup"
)

// Transcript line regular expressions, tried in the order of the dialects
// below.
var (
	// > Speaker: text, > **Speaker**: text
	blockquoteTurnRegex = regexp.MustCompile(`^>\s*(?:\*\*)?([^:*]+?)(?:\*\*)?:\s*(.+)`)

	// - Speaker: text, • **Speaker**: text
	bulletTurnRegex = regexp.MustCompile(`^[-•]\s*(?:\*\*)?([^:*]+?)(?:\*\*)?:\s*(.+)`)

	// Speaker Name: text, **Speaker Name**: text
	namedTurnRegex = regexp.MustCompile(`^(?:\*\*)?(\p{Lu}[\p{L}\s()/,'-]*?)(?:\*\*)?:\s+(.+)`)

	// # heading
	headingRegex = regexp.MustCompile(`^#{1,3}\s`)
)

// maxSpeakerLen bounds speaker labels in runes. Longer labels are
// sentences that happen to contain a colon.
const maxSpeakerLen = 60

// minNoteLen is the shortest context note worth showing.
const minNoteLen = 20

// DefaultAnnouncementPrefixes introduce a speaker change on a line of its
// own ("De: Nombre Apellido.").
var DefaultAnnouncementPrefixes = []string{"De"}

// DefaultAnnouncementStopWords mark an announcement candidate as ordinary
// prose.
var DefaultAnnouncementStopWords = []string{"tipo", "que", "lo", "es", "la", "el", "por", "si", "se", "un", "no"}

// DefaultMetadataLabels are labels that introduce document metadata rather
// than speech.
var DefaultMetadataLabels = []string{
	"meeting", "time", "date", "organizer", "subject", "start", "end",
	"transcribed", "transcript", "transcription", "what", "why", "fastest",
	"note", "important",
}

// TurnParser segments transcript text into turns. The zero value is not
// usable; construct one with NewTurnParser.
type TurnParser struct {
	announcementRegex *regexp.Regexp
	stopWordRegex     *regexp.Regexp
	metadataRegex     *regexp.Regexp
}

// TurnParserOption configures a TurnParser.
type TurnParserOption func(*turnParserConfig)

type turnParserConfig struct {
	announcementPrefixes []string
	stopWords            []string
	metadataLabels       []string
}

// WithAnnouncementPrefixes replaces the speaker announcement prefixes.
func WithAnnouncementPrefixes(prefixes ...string) TurnParserOption {
	return func(c *turnParserConfig) { c.announcementPrefixes = prefixes }
}

// WithAnnouncementStopWords replaces the announcement stop-words.
func WithAnnouncementStopWords(words ...string) TurnParserOption {
	return func(c *turnParserConfig) { c.stopWords = words }
}

// WithMetadataLabels replaces the metadata labels.
func WithMetadataLabels(labels ...string) TurnParserOption {
	return func(c *turnParserConfig) { c.metadataLabels = labels }
}

// NewTurnParser builds a parser from the default word lists and opts.
func NewTurnParser(opts ...TurnParserOption) *TurnParser {
	cfg := turnParserConfig{
		announcementPrefixes: DefaultAnnouncementPrefixes,
		stopWords:            DefaultAnnouncementStopWords,
		metadataLabels:       DefaultMetadataLabels,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &TurnParser{
		metadataRegex: LabelRegex(cfg.metadataLabels),
	}
	if len(cfg.announcementPrefixes) > 0 {
		p.announcementRegex = regexp.MustCompile(`(?i)^(?:` + alternation(cfg.announcementPrefixes) + `):\s*(.+?)\.?\s*$`)
	}
	if len(cfg.stopWords) > 0 {
		p.stopWordRegex = regexp.MustCompile(`(?i)\b(?:` + alternation(cfg.stopWords) + `)\b`)
	}
	return p
}

// LabelRegex matches a label whose first word is one of labels, optionally
// pluralized ("Notes", "Meeting title"). It returns nil when labels is
// empty.
func LabelRegex(labels []string) *regexp.Regexp {
	if len(labels) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)^(?:` + alternation(labels) + `)s?\b`)
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

var defaultTurnParser = NewTurnParser()

// ParseTranscriptTurns segments text into turns with the default word
// lists.
func ParseTranscriptTurns(text string) []Turn {
	return defaultTurnParser.Parse(text)
}

// turnState is the accumulator threaded through the lines of one document.
type turnState struct {
	speaker string
	turns   []Turn
}

func (s turnState) emit(speaker, text string) turnState {
	s.speaker = speaker
	s.turns = append(s.turns, Turn{Speaker: speaker, Text: text})
	return s
}

// Parse segments text into turns in input order. Every non-empty line
// becomes exactly one turn except speaker announcements, which only set
// the current speaker. Lines without a speaker label continue the current
// speaker, or are attributed to UnknownSpeaker when there is none.
func (p *TurnParser) Parse(text string) []Turn {
	var state turnState
	for _, line := range strings.Split(markup.Normalize(text), "\n") {
		state = p.step(state, line)
	}
	return state.turns
}

func (p *TurnParser) step(state turnState, line string) turnState {
	line = cleanLine(line)
	if line == "" {
		return state
	}

	if speaker, ok := p.announcement(line); ok {
		state.speaker = speaker
		return state
	}

	for _, d := range p.dialects() {
		if speaker, text, ok := d(line); ok {
			return state.emit(speaker, text)
		}
	}

	text := markup.CleanText(strings.TrimPrefix(line, ">"))
	if state.speaker != "" && len(state.turns) > 0 {
		return state.emit(state.speaker, text)
	}
	state.turns = append(state.turns, Turn{Speaker: UnknownSpeaker, Text: text})
	return state
}

// dialect extracts a speaker and utterance from one cleaned line.
type dialect func(line string) (speaker, text string, ok bool)

// dialects lists the labelled line forms in priority order.
func (p *TurnParser) dialects() []dialect {
	return []dialect{p.blockquote, p.bullet, p.named}
}

// cleanLine drops record id markers and footnote links.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = markup.StripIDMarkers(line)
	line = markup.StripFootnoteLinks(line)
	return strings.TrimSpace(line)
}

func (p *TurnParser) announcement(line string) (string, bool) {
	if p.announcementRegex == nil {
		return "", false
	}
	m := p.announcementRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	name := m[1]
	if utf8.RuneCountInString(name) >= maxSpeakerLen || strings.Contains(name, ",") {
		return "", false
	}
	if p.stopWordRegex != nil && p.stopWordRegex.MatchString(name) {
		return "", false
	}
	speaker := markup.CleanText(name)
	return speaker, speaker != ""
}

func (p *TurnParser) blockquote(line string) (string, string, bool) {
	m := blockquoteTurnRegex.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return p.turn(m[1], m[2], false)
}

func (p *TurnParser) bullet(line string) (string, string, bool) {
	m := bulletTurnRegex.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return p.turn(m[1], m[2], true)
}

func (p *TurnParser) named(line string) (string, string, bool) {
	m := namedTurnRegex.FindStringSubmatch(line)
	if m == nil || utf8.RuneCountInString(m[1]) >= maxSpeakerLen {
		return "", "", false
	}
	return p.turn(m[1], m[2], true)
}

// turn cleans a matched label and utterance. Metadata labels are rejected
// when checkMeta is set.
func (p *TurnParser) turn(label, text string, checkMeta bool) (string, string, bool) {
	speaker := markup.CleanText(label)
	if speaker == "" {
		return "", "", false
	}
	if checkMeta && p.IsMetadataLabel(speaker) {
		return "", "", false
	}
	return speaker, markup.CleanText(text), true
}

// IsMetadataLabel reports whether label names document metadata such as
// "Meeting", "Date" or "Organizer" rather than a speaker.
func (p *TurnParser) IsMetadataLabel(label string) bool {
	return p.metadataRegex != nil && p.metadataRegex.MatchString(strings.TrimSpace(label))
}

// IsSpeakerLine reports whether line opens a speaker turn in any dialect.
func (p *TurnParser) IsSpeakerLine(line string) bool {
	line = cleanLine(line)
	for _, d := range p.dialects() {
		if _, _, ok := d(line); ok {
			return true
		}
	}
	return false
}

// ContextNote returns the explanation an agent puts before the transcript
// lines, or "" when it is too short to be worth showing. Headings before
// the first note line are skipped.
func (p *TurnParser) ContextNote(text string) string {
	var note []string
	for _, line := range strings.Split(markup.Normalize(text), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ">") || p.IsSpeakerLine(trimmed) {
			break
		}
		if _, ok := p.announcement(cleanLine(trimmed)); ok {
			break
		}
		if trimmed == "" || headingRegex.MatchString(trimmed) {
			if len(note) > 0 {
				note = append(note, trimmed)
			}
			continue
		}
		note = append(note, trimmed)
	}

	joined := strings.TrimSpace(strings.Join(note, "\n"))
	if utf8.RuneCountInString(joined) <= minNoteLen {
		return ""
	}
	return joined
}
