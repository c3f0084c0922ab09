// Package classify decides whether an agent answer carries data or is a
// conversational refusal, and strips the chatter around embedded data.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/otherjamesbrown/meetprep/pkg/ingest/markup"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/meeting"
)

var (
	// ```text ... ``` and ``` ... ``` fenced blocks
	codeBlockRegex = regexp.MustCompile("```(?:text)?\\s*\\n((?s:.*?))```")

	// first line of a speaker turn: Name: text, > Name: text, **Name**: text
	speakerLineRegex = regexp.MustCompile(`^>?\s*(?:[-•]\s*)?(?:\*\*)?[\p{L}][\p{L}\s(),/'-]*(?:\*\*)?:\s+\S`)

	leadingLabelRegex = regexp.MustCompile(`^>?\s*(?:[-•]\s*)?(?:\*\*)?`)

	urlRegex = regexp.MustCompile(`(?i)https?://[^\s)\]>"']+`)

	apostropheReplacer = strings.NewReplacer("\u2019", "'", "\u2018", "'")
)

// captionMarker identifies caption text, which has no preamble to strip.
const captionMarker = "-->"

// Config holds the tuning of the classifier. The thresholds are measured
// in characters (runes).
type Config struct {
	// Answers shorter than MinLength are always refusals.
	MinLength int `yaml:"min_length"`
	// Answers shorter than RefusalMaxLength are refusals when they contain
	// a refusal phrase.
	RefusalMaxLength int      `yaml:"refusal_max_length"`
	RefusalPhrases   []string `yaml:"refusal_phrases"`
	FooterPhrases    []string `yaml:"footer_phrases"`
	PreambleLabels   []string `yaml:"preamble_labels"`
}

// DefaultConfig returns the thresholds and phrase lists tuned against the
// agent's answers.
func DefaultConfig() Config {
	return Config{
		MinLength:        100,
		RefusalMaxLength: 1000,
		RefusalPhrases: []string{
			"i can't provide",
			"i cannot provide",
			"unable to provide",
			"unable to retrieve",
			"no transcript available",
			"transcript is not available",
			"don't have access to the transcript",
		},
		FooterPhrases: []string{
			"meeting details confirmed",
			"if you want, i can",
			"just tell me how",
			"do you want me to",
			"would you like me to",
			"fastest way to get",
			"why i can't",
			"what i can access",
		},
		PreambleLabels: []string{
			"meeting", "time", "date", "organizer", "subject", "start", "end",
			"note", "important", "below", "here",
		},
	}
}

// Classification is the verdict on one answer. Text is the cleaned payload
// for usable answers and the trimmed answer for refusals.
type Classification struct {
	IsRefusal bool   `json:"is_refusal" yaml:"is_refusal"`
	Text      string `json:"text" yaml:"text"`
}

// Classifier applies a Config. It holds no mutable state and is safe for
// concurrent use.
type Classifier struct {
	cfg            Config
	refusalPhrases []string
	footerPhrases  []string
	preambleRegex  *regexp.Regexp
}

// New builds a Classifier. Zero thresholds are taken from DefaultConfig,
// and so are nil phrase lists; an empty non-nil list disables the check.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.MinLength == 0 {
		cfg.MinLength = def.MinLength
	}
	if cfg.RefusalMaxLength == 0 {
		cfg.RefusalMaxLength = def.RefusalMaxLength
	}
	if cfg.RefusalPhrases == nil {
		cfg.RefusalPhrases = def.RefusalPhrases
	}
	if cfg.FooterPhrases == nil {
		cfg.FooterPhrases = def.FooterPhrases
	}
	if cfg.PreambleLabels == nil {
		cfg.PreambleLabels = def.PreambleLabels
	}

	return &Classifier{
		cfg:            cfg,
		refusalPhrases: foldAll(cfg.RefusalPhrases),
		footerPhrases:  foldAll(cfg.FooterPhrases),
		preambleRegex:  meeting.LabelRegex(cfg.PreambleLabels),
	}
}

// Config returns the effective configuration.
func (c *Classifier) Config() Config {
	return c.cfg
}

// Classify returns the refusal verdict and, for usable answers, the
// extracted content.
func (c *Classifier) Classify(text string) Classification {
	if c.IsRefusal(text) {
		return Classification{IsRefusal: true, Text: strings.TrimSpace(text)}
	}
	return Classification{Text: c.ExtractContent(text)}
}

// IsRefusal reports whether the answer declines to provide data: it is
// shorter than MinLength, or shorter than RefusalMaxLength and contains a
// refusal phrase. Lengths count the answer as received, surrounding
// whitespace included. Long answers are never refusals because a real
// transcript can quote those phrases.
func (c *Classifier) IsRefusal(text string) bool {
	n := utf8.RuneCountInString(text)
	if n < c.cfg.MinLength {
		return true
	}
	if n >= c.cfg.RefusalMaxLength {
		return false
	}
	lower := fold(text)
	for _, p := range c.refusalPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// ExtractContent pulls the data out of a usable answer. Fenced code
// blocks win when present and are joined with a blank line; otherwise the
// preamble before the first speaker line is dropped. Record markers and
// footnote links are removed and the answer is cut at the first footer
// phrase. ExtractContent(ExtractContent(s)) == ExtractContent(s).
func (c *Classifier) ExtractContent(text string) string {
	text = markup.Normalize(text)
	if blocks := codeBlocks(text); len(blocks) > 0 {
		text = strings.Join(blocks, "\n\n")
	}

	text = markup.StripIDMarkers(text)
	text = markup.StripFootnoteLinks(text)
	text = c.stripPreamble(text)
	text = c.stripFooter(text)
	return strings.TrimSpace(text)
}

func codeBlocks(text string) []string {
	var blocks []string
	for _, m := range codeBlockRegex.FindAllStringSubmatch(text, -1) {
		if b := strings.TrimSpace(m[1]); b != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// stripPreamble drops the lines before the first speaker line whose label
// is not a preamble label. Caption text and text without any speaker line
// are returned unchanged. Only the part above the footer counts as
// caption text, since the footer is cut afterwards.
func (c *Classifier) stripPreamble(text string) string {
	if strings.Contains(c.stripFooter(text), captionMarker) {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !speakerLineRegex.MatchString(trimmed) {
			continue
		}
		label := leadingLabelRegex.ReplaceAllString(trimmed, "")
		label, _, _ = strings.Cut(label, ":")
		label = strings.TrimSpace(markup.StripBold(label))
		if c.preambleRegex != nil && c.preambleRegex.MatchString(label) {
			continue
		}
		return strings.Join(lines[i:], "\n")
	}
	return text
}

// stripFooter cuts the text at the first line containing a footer phrase.
func (c *Classifier) stripFooter(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lower := fold(line)
		for _, p := range c.footerPhrases {
			if strings.Contains(lower, p) {
				return strings.TrimRight(strings.Join(lines[:i], "\n"), " \t\n")
			}
		}
	}
	return text
}

// ExtractFirstURL returns the first http(s) URL in text, or "". Sentence
// punctuation after the URL is not part of it.
func ExtractFirstURL(text string) string {
	return strings.TrimRight(urlRegex.FindString(text), ".,;:!?")
}

// fold lowercases s and replaces typographic apostrophes with ASCII ones.
func fold(s string) string {
	return strings.ToLower(apostropheReplacer.Replace(s))
}

func foldAll(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, fold(p))
		}
	}
	return out
}
