package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranscriptTurns_ContinuationInheritsSpeaker(t *testing.T) {
	turns := ParseTranscriptTurns("> Alice: Hello\nHow are you?\n> Bob: Fine")

	assert.Equal(t, []Turn{
		{Speaker: "Alice", Text: "Hello"},
		{Speaker: "Alice", Text: "How are you?"},
		{Speaker: "Bob", Text: "Fine"},
	}, turns)
}

func TestParseTranscriptTurns_Dialects(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Turn
	}{
		{"blockquote", "> Alice: Hello", Turn{"Alice", "Hello"}},
		{"blockquote bold", "> **Alice Smith**: Hello there", Turn{"Alice Smith", "Hello there"}},
		{"blockquote footnote", "> Alice: We ship Friday [1](https://x.example/1)", Turn{"Alice", "We ship Friday"}},
		{"bullet", "- Bob: Sounds good", Turn{"Bob", "Sounds good"}},
		{"bullet dot", "• **Bob**: Sounds good", Turn{"Bob", "Sounds good"}},
		{"named", "Carol Jones: Let's start", Turn{"Carol Jones", "Let's start"}},
		{"named bold", "**Carol**: Let's start", Turn{"Carol", "Let's start"}},
		{"named pronouns", "Dana Lee (she/her): Thanks", Turn{"Dana Lee (she/her)", "Thanks"}},
		{"named accented", "José Álvarez: Hola a todos", Turn{"José Álvarez", "Hola a todos"}},
		{"apostrophe and hyphen", "Seán O'Neil-Park: Agreed", Turn{"Seán O'Neil-Park", "Agreed"}},
		{"id marker", "Frank: Next item {id=42}", Turn{"Frank", "Next item"}},
		{"unattributed", "the meeting started late", Turn{UnknownSpeaker, "the meeting started late"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := ParseTranscriptTurns(tt.line)
			require.Len(t, turns, 1)
			assert.Equal(t, tt.want, turns[0])
		})
	}
}

func TestParseTranscriptTurns_MetadataLabelsAreNotSpeakers(t *testing.T) {
	text := `Meeting: Weekly Sync
- Date: 2026-02-17
- Organizer: Alice
Notes: recorded
Alice: Welcome everyone
Subject: this line continues Alice`

	turns := ParseTranscriptTurns(text)
	require.Len(t, turns, 6)

	for _, turn := range turns[:4] {
		assert.Equal(t, UnknownSpeaker, turn.Speaker)
	}
	assert.Equal(t, "Meeting: Weekly Sync", turns[0].Text)
	assert.Equal(t, Turn{"Alice", "Welcome everyone"}, turns[4])
	assert.Equal(t, Turn{"Alice", "Subject: this line continues Alice"}, turns[5])
}

func TestParseTranscriptTurns_MetadataPrefixIsWholeWord(t *testing.T) {
	turns := ParseTranscriptTurns("Timothy: I have an update\nEndre: Me too")
	assert.Equal(t, []Turn{
		{Speaker: "Timothy", Text: "I have an update"},
		{Speaker: "Endre", Text: "Me too"},
	}, turns)
}

func TestParseTranscriptTurns_Announcements(t *testing.T) {
	text := `Ana: Buenos días
De: Juan Pérez.
Gracias por venir
De: la reunión empezó tarde, lo siento.`

	turns := ParseTranscriptTurns(text)
	require.Len(t, turns, 3)
	assert.Equal(t, Turn{"Ana", "Buenos días"}, turns[0])
	assert.Equal(t, Turn{"Juan Pérez", "Gracias por venir"}, turns[1])
	// Ordinary prose is not an announcement; it is attributed to "De".
	assert.Equal(t, "De", turns[2].Speaker)
}

func TestParseTranscriptTurns_AnnouncementBeforeFirstTurn(t *testing.T) {
	turns := ParseTranscriptTurns("De: Juan.\nHola")
	require.Len(t, turns, 1)
	assert.Equal(t, Turn{UnknownSpeaker, "Hola"}, turns[0])
}

func TestParseTranscriptTurns_EveryLineIsKept(t *testing.T) {
	text := "intro line\n\n> Alice: one\n>  continued\nplain two\n\n   \n> Bob: three"
	turns := ParseTranscriptTurns(text)

	assert.Equal(t, []Turn{
		{Speaker: UnknownSpeaker, Text: "intro line"},
		{Speaker: "Alice", Text: "one"},
		{Speaker: "Alice", Text: "continued"},
		{Speaker: "Alice", Text: "plain two"},
		{Speaker: "Bob", Text: "three"},
	}, turns)
}

func TestParseTranscriptTurns_UnlabelledLinesAreUnknown(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Turn
	}{
		{"sentence before colon", "Sure. Here it is: the transcript", Turn{UnknownSpeaker, "Sure. Here it is: the transcript"}},
		{"timestamp prefix", "10:30 : Meeting : Weekly sync", Turn{UnknownSpeaker, "10:30 : Meeting : Weekly sync"}},
		{"bare blockquote", ">  quoted without a label", Turn{UnknownSpeaker, "quoted without a label"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns := ParseTranscriptTurns(tt.line)
			require.Len(t, turns, 1)
			assert.Equal(t, tt.want, turns[0])
		})
	}
}

func TestParseTranscriptTurns_LongLabelIsNotASpeaker(t *testing.T) {
	line := "This is a very long sentence that goes on and on before the colon: and more"
	turns := ParseTranscriptTurns(line)
	require.Len(t, turns, 1)
	assert.Equal(t, UnknownSpeaker, turns[0].Speaker)
	assert.Equal(t, line, turns[0].Text)
}

func TestParseTranscriptTurns_Empty(t *testing.T) {
	assert.Empty(t, ParseTranscriptTurns(""))
	assert.Empty(t, ParseTranscriptTurns("\n  \n{id=3}\n"))
}

func TestTurnParser_CustomWordLists(t *testing.T) {
	p := NewTurnParser(
		WithAnnouncementPrefixes("From"),
		WithMetadataLabels("agenda"),
	)

	turns := p.Parse("Alice: hi\nFrom: Bob.\nhello\nAgenda: item one\nDate: tomorrow")
	assert.Equal(t, []Turn{
		{Speaker: "Alice", Text: "hi"},
		{Speaker: "Bob", Text: "hello"},
		{Speaker: "Bob", Text: "Agenda: item one"},
		{Speaker: "Date", Text: "tomorrow"},
	}, turns)
}

func TestTurnParser_IsMetadataLabel(t *testing.T) {
	p := NewTurnParser()
	assert.True(t, p.IsMetadataLabel("Meeting title"))
	assert.True(t, p.IsMetadataLabel("notes"))
	assert.True(t, p.IsMetadataLabel("Start"))
	assert.False(t, p.IsMetadataLabel("Timothy"))
	assert.False(t, p.IsMetadataLabel("Noteworthy Person"))

	none := NewTurnParser(WithMetadataLabels())
	assert.False(t, none.IsMetadataLabel("Meeting"))
}

func TestTurnParser_ContextNote(t *testing.T) {
	p := NewTurnParser()

	text := `## Transcript

I found the transcript for the meeting. Some lines were merged by the recording.

> Alice: Hello
> Bob: Hi`
	assert.Equal(t, "I found the transcript for the meeting. Some lines were merged by the recording.", p.ContextNote(text))

	assert.Equal(t, "", p.ContextNote("Here it is:\n> Alice: Hello"))
	assert.Equal(t, "", p.ContextNote("Alice: Hello\nBob: Hi there, how was the weekend"))
}
