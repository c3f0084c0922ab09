package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVTTCues_VoiceTags(t *testing.T) {
	vttContent := `WEBVTT

00:00:00.000 --> 00:00:05.579
<v Alan Dickens>Okay, that sounds good.
Thanks.</v>

00:00:05.579 --> 00:00:06.858
<v Mitul Mehta>Go.</v>
`

	cues := ParseVTTCues(vttContent)
	require.Len(t, cues, 2)

	assert.Equal(t, "00:00:00.000 --> 00:00:05.579", cues[0].Timestamp)
	assert.Equal(t, "Alan Dickens", cues[0].Speaker)
	assert.Equal(t, "Okay, that sounds good. Thanks.", cues[0].Text)
	assert.Equal(t, 0, cues[0].StartMs)
	assert.Equal(t, 5579, cues[0].EndMs)

	assert.Equal(t, "Mitul Mehta", cues[1].Speaker)
	assert.Equal(t, "Go.", cues[1].Text)
	assert.Equal(t, 5579, cues[1].StartMs)
}

func TestParseVTTCues_TeamsHeaders(t *testing.T) {
	vttContent := `WEBVTT

1 "" (0)
00:00:00.000 --> 00:00:05.579
Okay, that sounds good. Thanks. All right, 321.

2 "Alan Dickens" (1262511360)
00:00:05.579 --> 00:00:06.858
Go.
`

	cues := ParseVTTCues(vttContent)
	require.Len(t, cues, 2)
	assert.Equal(t, "", cues[0].Speaker)
	assert.Equal(t, "Alan Dickens", cues[1].Speaker)
	assert.Equal(t, "Go.", cues[1].Text)
}

func TestParseVTTCues_NoSpeaker(t *testing.T) {
	cues := ParseVTTCues("00:01.000 --> 00:04.250\nHello there\n\n00:04.250 --> 00:06.000\nGeneral Kenobi")
	require.Len(t, cues, 2)
	assert.Equal(t, "", cues[0].Speaker)
	assert.Equal(t, "Hello there", cues[0].Text)
	assert.Equal(t, 1000, cues[0].StartMs)
	assert.Equal(t, 4250, cues[0].EndMs)
}

func TestParseVTTCues_NotCaptions(t *testing.T) {
	assert.Empty(t, ParseVTTCues(""))
	assert.Empty(t, ParseVTTCues("> Alice: Hello\n> Bob: Hi"))
	// A range line alone is not a block.
	assert.Empty(t, ParseVTTCues("00:00:01.000 --> 00:00:02.000"))
}

func TestParseVTTCues_MalformedRange(t *testing.T) {
	cues := ParseVTTCues("invalid --> timestamp\nSome text here.")
	require.Len(t, cues, 1)
	assert.Equal(t, "invalid --> timestamp", cues[0].Timestamp)
	assert.Equal(t, 0, cues[0].StartMs)
	assert.Equal(t, 0, cues[0].EndMs)
}

func TestParseVTTTimestamp(t *testing.T) {
	assert.Equal(t, 5579, parseVTTTimestamp("00:00:05.579"))
	assert.Equal(t, 345500, parseVTTTimestamp("00:05:45.500"))
	assert.Equal(t, 3723004, parseVTTTimestamp("01:02:03,004"))
	assert.Equal(t, 61000, parseVTTTimestamp("01:01.000"))
	assert.Equal(t, 0, parseVTTTimestamp("bogus"))
}

func TestCueDurationSeconds(t *testing.T) {
	cues := []Cue{{EndMs: 5000}, {EndMs: 345500}, {EndMs: 10000}}
	assert.Equal(t, 345, cueDurationSeconds(cues))
	assert.Equal(t, 0, cueDurationSeconds(nil))
}
