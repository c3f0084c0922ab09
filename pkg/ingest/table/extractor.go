// Package table locates markdown tables inside free-text agent answers and
// decodes their rows by column meaning rather than position.
package table

import (
	"regexp"
	"strings"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/markup"
)

// Column describes a semantic column. A header cell belongs to the column
// when its lowercased text contains any of the Match substrings.
type Column struct {
	Name  string
	Match []string
}

// Columns used by meeting tables.
var (
	Subject    = Column{Name: "subject", Match: []string{"subject", "title"}}
	Start      = Column{Name: "start", Match: []string{"start"}}
	End        = Column{Name: "end", Match: []string{"end"}}
	Organizer  = Column{Name: "organizer", Match: []string{"organizer", "organized"}}
	Transcript = Column{Name: "transcript", Match: []string{"transcript", "transcribed", "ismeetingtranscribed", "has transcript"}}
)

// Row maps column names to cleaned cell text. Optional columns missing from
// the header are absent from the map.
type Row map[string]string

// Get returns the cell for the named column, or "".
func (r Row) Get(name string) string {
	return r[name]
}

// Header is a located table header.
type Header struct {
	// Line is the index of the header in the trimmed, non-empty lines.
	Line int
	// Cells are the raw header cells.
	Cells []string
	// Index maps column names to cell positions.
	Index map[string]int
}

var (
	// | 3 | Subject | Start | End |
	numberedRowRegex = regexp.MustCompile(`^\|?\s*\d+\s*\|\s*(.+?)\s*\|\s*(.+?)\s*\|\s*(.+?)\s*\|`)

	// row consisting only of pipes, dashes, colons and whitespace
	separatorOnlyRegex = regexp.MustCompile(`^\|?[\s\-:|]*$`)

	// lines the numbered-row fallback never treats as data
	looseNoiseRegex  = regexp.MustCompile(`(?i)^(here|i found|below|>|online|timezone)`)
	looseHeaderRegex = regexp.MustCompile(`^\|\s*#`)
)

// Lines splits text into trimmed, non-empty lines.
func Lines(text string) []string {
	raw := strings.Split(markup.Normalize(text), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// SplitRow splits a pipe-delimited row into trimmed cells, ignoring one
// leading and one trailing pipe.
func SplitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	cells := strings.Split(row, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// IsSeparator reports whether a row is a markdown header separator such as
// "|---|:---:|".
func IsSeparator(row string) bool {
	return strings.Contains(row, "-") && separatorOnlyRegex.MatchString(row)
}

// FindHeader returns the first pipe-delimited line whose cells satisfy
// every required column. Optional columns are bound when present. Each
// column binds to one cell no earlier column has taken.
func FindHeader(lines []string, required, optional []Column) (*Header, bool) {
	for i, line := range lines {
		if !strings.Contains(line, "|") || IsSeparator(line) {
			continue
		}
		cells := SplitRow(line)
		index := bindColumns(cells, required, optional)

		complete := true
		for _, col := range required {
			if _, ok := index[col.Name]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return &Header{Line: i, Cells: cells, Index: index}, true
		}
	}
	return nil, false
}

func bindColumns(cells []string, required, optional []Column) map[string]int {
	index := make(map[string]int)
	taken := make(map[int]bool)

	// A cell starting with the pattern wins over one merely containing it,
	// so "Attendees" cannot take the end column from "End Time".
	bind := func(col Column) {
		for _, prefixOnly := range []bool{true, false} {
			for i, cell := range cells {
				if taken[i] {
					continue
				}
				if matchesColumn(cell, col, prefixOnly) {
					index[col.Name] = i
					taken[i] = true
					return
				}
			}
		}
	}

	for _, col := range required {
		bind(col)
	}
	for _, col := range optional {
		bind(col)
	}
	return index
}

func matchesColumn(cell string, col Column, prefixOnly bool) bool {
	lower := strings.ToLower(markup.CleanCell(cell))
	for _, m := range col.Match {
		if prefixOnly && strings.HasPrefix(lower, m) {
			return true
		}
		if !prefixOnly && strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Extract finds the first table whose header carries all required columns
// and returns every following pipe-delimited row, in source order, with
// separator rows skipped. It returns nil when no such header exists.
func Extract(text string, required, optional []Column) []Row {
	lines := Lines(text)
	header, ok := FindHeader(lines, required, optional)
	if !ok {
		return nil
	}

	var rows []Row
	for _, line := range lines[header.Line+1:] {
		if !strings.Contains(line, "|") || IsSeparator(line) {
			continue
		}
		cells := SplitRow(line)
		row := make(Row, len(header.Index))
		for name, idx := range header.Index {
			if idx < len(cells) {
				row[name] = markup.CleanCell(cells[idx])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ExtractNumbered is the loose fallback for tables without a recognizable
// header. It returns the three cells that follow a leading row number on
// lines shaped like "| 1 | a | b | c |".
func ExtractNumbered(text string) [][3]string {
	var rows [][3]string
	for _, line := range Lines(text) {
		if IsSeparator(line) || looseNoiseRegex.MatchString(line) || looseHeaderRegex.MatchString(line) {
			continue
		}
		m := numberedRowRegex.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rows = append(rows, [3]string{
			markup.CleanCell(m[1]),
			markup.CleanCell(m[2]),
			markup.CleanCell(m[3]),
		})
	}
	return rows
}
