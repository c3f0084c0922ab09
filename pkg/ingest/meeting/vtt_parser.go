package meeting

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/markup"
)

// VTT parsing regular expressions
var (
	// Matches cue range: 00:00:05.579 --> 00:00:06.858 (hours optional)
	vttTimestampRegex = regexp.MustCompile(`^((?:\d+:)?\d{2}:\d{2}[.,]\d{3})\s*-->\s*((?:\d+:)?\d{2}:\d{2}[.,]\d{3})`)

	// Matches Teams cue header: 1 "Speaker Name" (speaker_id)
	vttSegmentHeaderRegex = regexp.MustCompile(`^\d+\s+"([^"]*)"(?:\s+\((\d+)\))?`)

	// Matches voice span: <v Speaker Name>text</v>
	vttVoiceRegex = regexp.MustCompile(`(?s)^<v(?:\.[\w.]+)?\s+([^>]+)>(.*)`)

	blankLinesRegex = regexp.MustCompile(`\n\s*\n`)
)

// ParseVTTCues splits caption text into cues. Blocks are separated by
// blank lines and must contain a "-->" range line; the lines after it are
// joined as the cue text. A leading <v Speaker> tag sets the speaker, as
// does a Teams style `1 "Speaker" (id)` header before the range line.
// Text without any cue block yields nil.
func ParseVTTCues(text string) []Cue {
	var cues []Cue
	for _, block := range blankLinesRegex.Split(markup.Normalize(text), -1) {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}

		rangeIdx := -1
		for i, l := range lines {
			if strings.Contains(l, "-->") {
				rangeIdx = i
				break
			}
		}
		if rangeIdx == -1 {
			continue
		}

		cue := Cue{Timestamp: strings.TrimSpace(lines[rangeIdx])}
		if m := vttTimestampRegex.FindStringSubmatch(cue.Timestamp); m != nil {
			cue.StartMs = parseVTTTimestamp(m[1])
			cue.EndMs = parseVTTTimestamp(m[2])
		}

		for _, l := range lines[:rangeIdx] {
			if m := vttSegmentHeaderRegex.FindStringSubmatch(strings.TrimSpace(l)); m != nil {
				cue.Speaker = strings.TrimSpace(m[1])
			}
		}

		parts := make([]string, 0, len(lines)-rangeIdx-1)
		for _, l := range lines[rangeIdx+1:] {
			if l = strings.TrimSpace(l); l != "" {
				parts = append(parts, l)
			}
		}
		cue.Text = strings.Join(parts, " ")

		if m := vttVoiceRegex.FindStringSubmatch(cue.Text); m != nil {
			cue.Speaker = strings.TrimSpace(m[1])
			cue.Text = strings.TrimSpace(strings.ReplaceAll(m[2], "</v>", ""))
		}

		cues = append(cues, cue)
	}
	return cues
}

// cueSpeakers returns the distinct cue speakers in first-seen order.
func cueSpeakers(cues []Cue) []string {
	speakers := make([]string, 0)
	seen := make(map[string]bool)
	for _, c := range cues {
		if c.Speaker != "" && !seen[c.Speaker] {
			seen[c.Speaker] = true
			speakers = append(speakers, c.Speaker)
		}
	}
	return speakers
}

// cueDurationSeconds is the latest cue end, in seconds.
func cueDurationSeconds(cues []Cue) int {
	var lastEndMs int
	for _, c := range cues {
		if c.EndMs > lastEndMs {
			lastEndMs = c.EndMs
		}
	}
	return lastEndMs / 1000
}

// parseVTTTimestamp parses a VTT timestamp ([HH:]MM:SS.mmm) to milliseconds.
func parseVTTTimestamp(ts string) int {
	ts = strings.Replace(ts, ",", ".", 1)
	parts := strings.Split(ts, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0
	}

	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])

	// Split seconds and milliseconds
	secParts := strings.Split(parts[2], ".")
	seconds, _ := strconv.Atoi(secParts[0])
	milliseconds := 0
	if len(secParts) > 1 {
		milliseconds, _ = strconv.Atoi(secParts[1])
	}

	return hours*3600000 + minutes*60000 + seconds*1000 + milliseconds
}
