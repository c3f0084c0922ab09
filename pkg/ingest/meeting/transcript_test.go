package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranscript_PrefersCaptions(t *testing.T) {
	text := "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\n<v Alice>Hello</v>\n\n00:00:02.000 --> 00:01:05.000\n<v Bob>Hi Alice</v>\n\n00:01:05.000 --> 00:01:06.000\n<v Alice>Bye</v>"

	tr := ParseTranscript(text)
	require.Equal(t, FormatVTT, tr.Format)
	assert.False(t, tr.Verbatim())
	assert.Len(t, tr.Cues, 3)
	assert.Empty(t, tr.Turns)
	assert.Equal(t, []string{"Alice", "Bob"}, tr.Speakers)
	assert.Equal(t, 66, tr.DurationSeconds)
	assert.Equal(t, "Alice: Hello\nBob: Hi Alice\nAlice: Bye", tr.FullText())
}

func TestParseTranscript_Turns(t *testing.T) {
	text := `Here is the full transcript of the weekly sync you asked for.

> Alice: Hello
> Bob: Hi
Unlabelled follow-up
> Alice: Bye`

	tr := ParseTranscript(text)
	require.Equal(t, FormatTurns, tr.Format)
	assert.Equal(t, []string{"Alice", "Bob"}, tr.Speakers)
	assert.Equal(t, "Here is the full transcript of the weekly sync you asked for.", tr.Note)
	require.Len(t, tr.Turns, 5)
	assert.Equal(t, Turn{UnknownSpeaker, "Here is the full transcript of the weekly sync you asked for."}, tr.Turns[0])
	assert.Equal(t, Turn{"Bob", "Unlabelled follow-up"}, tr.Turns[3])
	assert.Equal(t, text, tr.Raw)
}

func TestParseTranscript_Raw(t *testing.T) {
	tr := ParseTranscript("   \n\n ")
	assert.Equal(t, FormatRaw, tr.Format)
	assert.True(t, tr.Verbatim())
	assert.NotNil(t, tr.Speakers)
	assert.Equal(t, "   \n\n ", tr.FullText())
}
