// Package markup strips the formatting artifacts agents leave in their
// answers: bold markers, footnote references, record id markers and
// markdown links.
package markup

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// [1](https://...) footnote links
	footnoteLinkRegex = regexp.MustCompile(`\s*\[\d+\]\([^)]*\)`)

	// bare [1] footnote markers
	footnoteRegex = regexp.MustCompile(`\s*\[\d+\]`)

	// {id=12} record markers
	idMarkerRegex = regexp.MustCompile(`\s*\{id=\d+\}`)

	// [text](url) links
	linkRegex = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
)

// dashReplacer folds the hyphen and dash variants (U+2010 to U+2015) and
// unusual spaces agents emit into their ASCII equivalents.
var dashReplacer = strings.NewReplacer(
	"\u2010", "-",
	"\u2011", "-",
	"\u2012", "-",
	"\u2013", "-",
	"\u2014", "-",
	"\u2015", "-",
	"\u00a0", " ",
	"\u2009", " ",
	"\u202f", " ",
)

// Normalize applies Unicode NFC composition and unifies line endings so
// accented speaker names and CRLF answers compare like their plain forms.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}

// FoldDashes replaces dash variants with "-" and exotic spaces with " ".
func FoldDashes(s string) string {
	return dashReplacer.Replace(s)
}

// StripBold removes markdown bold markers.
func StripBold(s string) string {
	return strings.ReplaceAll(s, "**", "")
}

// StripFootnoteLinks removes "[N](url)" references including the
// whitespace before them.
func StripFootnoteLinks(s string) string {
	return footnoteLinkRegex.ReplaceAllString(s, "")
}

// StripFootnotes removes both "[N](url)" references and bare "[N]" markers.
func StripFootnotes(s string) string {
	return footnoteRegex.ReplaceAllString(footnoteLinkRegex.ReplaceAllString(s, ""), "")
}

// StripIDMarkers removes "{id=N}" markers.
func StripIDMarkers(s string) string {
	return idMarkerRegex.ReplaceAllString(s, "")
}

// UnwrapLinks rewrites "[text](url)" as "text".
func UnwrapLinks(s string) string {
	return linkRegex.ReplaceAllString(s, "$1")
}

// CleanCell cleans a markdown table cell: bold markers, links and numeric
// footnotes are removed.
func CleanCell(s string) string {
	s = StripBold(s)
	s = StripFootnoteLinks(s)
	s = UnwrapLinks(s)
	s = footnoteRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// CleanText cleans an utterance: footnotes, bold markers and surrounding
// whitespace are removed.
func CleanText(s string) string {
	s = StripFootnotes(s)
	s = StripBold(s)
	return strings.TrimSpace(s)
}
