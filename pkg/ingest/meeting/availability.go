package meeting

import (
	"regexp"
	"strings"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/markup"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/table"
)

// transcriptAvailableRegex matches availability cells that mean "has a
// transcript".
var transcriptAvailableRegex = regexp.MustCompile(`(?i)^(yes|true|available|exists|1)$`)

// FilterTranscribed rewrites a meeting table answer to the rows whose
// transcript column marks a transcript as available. The result is the
// header, a separator and the surviving rows. It returns false, and the
// caller keeps the original answer, when there is no meeting table, no
// transcript column, or no row survives.
func FilterTranscribed(text string) (string, bool) {
	lines := table.Lines(text)
	header, ok := table.FindHeader(lines, meetingRequiredColumns, []table.Column{table.Transcript})
	if !ok {
		return "", false
	}
	col, ok := header.Index[table.Transcript.Name]
	if !ok {
		return "", false
	}

	separator := "|" + strings.Repeat(" --- |", len(header.Cells))
	if next := header.Line + 1; next < len(lines) && table.IsSeparator(lines[next]) {
		separator = lines[next]
	}

	var kept []string
	for _, line := range lines[header.Line+1:] {
		if !strings.Contains(line, "|") || table.IsSeparator(line) {
			continue
		}
		cells := table.SplitRow(line)
		if col >= len(cells) {
			continue
		}
		if transcriptAvailableRegex.MatchString(markup.CleanCell(cells[col])) {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return "", false
	}

	return strings.Join(append([]string{lines[header.Line], separator}, kept...), "\n"), true
}
