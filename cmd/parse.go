package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/classify"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/datetime"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetprep/pkg/render"
)

// ParseCommandDeps holds the dependencies for the offline parse commands.
type ParseCommandDeps struct {
	LoadConfig func() (*config.CLIConfig, error)
	In         io.Reader
	Out        io.Writer
	Color      bool
	Now        func() time.Time
}

// DefaultParseDeps returns the default dependencies for production use.
func DefaultParseDeps() *ParseCommandDeps {
	return &ParseCommandDeps{
		LoadConfig: config.LoadConfig,
		In:         os.Stdin,
		Out:        os.Stdout,
		Color:      render.ColorEnabled(os.Stdout),
		Now:        time.Now,
	}
}

// NewParseCommand creates the 'parse' command group, which runs the parsers
// on saved agent answers without contacting the agent.
func NewParseCommand(deps *ParseCommandDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultParseDeps()
	}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse saved agent answers offline",
		Long: `Run the answer parsers on text saved from the agent.

Each subcommand reads a file, or stdin when the file is "-" or omitted.

Commands:
  meetings    - Extract meetings and build the day schedule
  transcript  - Extract speaker turns or caption cues
  classify    - Decide whether an answer is a refusal
  date        - Resolve a date/time phrase

Examples:
  meetprep parse meetings answer.md
  pbpaste | meetprep parse transcript --output json
  meetprep parse date "yesterday at 4:30 PM"`,
	}

	cmd.AddCommand(newParseMeetingsCommand(deps))
	cmd.AddCommand(newParseTranscriptCommand(deps))
	cmd.AddCommand(newParseClassifyCommand(deps))
	cmd.AddCommand(newParseDateCommand(deps))
	return cmd
}

func (d *ParseCommandDeps) load(args []string) (*config.CLIConfig, string, error) {
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, "", fmt.Errorf("loading configuration: %w", err)
	}
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	text, err := readInput(d.In, path)
	if err != nil {
		return nil, "", err
	}
	return cfg, text, nil
}

func (d *ParseCommandDeps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// parsedMeetings is the machine-readable output of 'parse meetings'.
type parsedMeetings struct {
	Filtered bool              `json:"filtered" yaml:"filtered"`
	Verbatim bool              `json:"verbatim" yaml:"verbatim"`
	Meetings []meeting.Meeting `json:"meetings" yaml:"meetings"`
	Schedule *meeting.Schedule `json:"schedule" yaml:"schedule"`
	Raw      string            `json:"raw,omitempty" yaml:"raw,omitempty"`
}

func newParseMeetingsCommand(deps *ParseCommandDeps) *cobra.Command {
	var transcribedOnly bool
	cmd := &cobra.Command{
		Use:   "meetings [file]",
		Short: "Extract meetings from a meeting list answer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, text, err := deps.load(args)
			if err != nil {
				return err
			}

			out := parsedMeetings{}
			if transcribedOnly {
				if filtered, ok := meeting.FilterTranscribed(text); ok {
					text, out.Filtered = filtered, true
				}
			}
			now := deps.now()
			list := meeting.ParseMeetingList(text, now)
			out.Meetings = list.Meetings
			out.Verbatim = list.Verbatim()
			out.Schedule = meeting.BuildSchedule(list.Meetings, now)
			if out.Verbatim {
				out.Raw = list.Raw
			}

			if cfg.OutputFormat != config.OutputFormatText {
				return render.Encode(deps.Out, cfg.OutputFormat, out)
			}
			render.New(deps.Out, deps.Color).MeetingList(list, now)
			return nil
		},
	}
	cmd.Flags().BoolVar(&transcribedOnly, "transcribed-only", false, "Keep only rows whose transcript column says it is available")
	return cmd
}

// parsedTranscript is the machine-readable output of 'parse transcript'.
type parsedTranscript struct {
	Refusal    bool                `json:"refusal" yaml:"refusal"`
	Text       string              `json:"text,omitempty" yaml:"text,omitempty"`
	Transcript *meeting.Transcript `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

func newParseTranscriptCommand(deps *ParseCommandDeps) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "transcript [file]",
		Short: "Extract speaker turns or caption cues from a transcript answer",
		Long: `Extract speaker turns or caption cues from a transcript answer.

The answer is classified first: refusals are reported, usable answers have
their preamble and footer stripped before parsing. Use --raw to parse the
text as-is.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, text, err := deps.load(args)
			if err != nil {
				return err
			}

			out := parsedTranscript{}
			if !raw {
				c := classify.New(cfg.Classifier).Classify(text)
				out.Refusal, text = c.IsRefusal, c.Text
			}
			if out.Refusal {
				out.Text = text
			} else {
				out.Transcript = meeting.ParseTranscript(text)
			}

			if cfg.OutputFormat != config.OutputFormatText {
				return render.Encode(deps.Out, cfg.OutputFormat, out)
			}
			r := render.New(deps.Out, deps.Color)
			if out.Refusal {
				r.Notice("The answer is a refusal.")
				r.Answer(out.Text, "")
				return nil
			}
			r.Transcript(out.Transcript)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip refusal detection and content extraction")
	return cmd
}

func newParseClassifyCommand(deps *ParseCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file]",
		Short: "Decide whether an answer is a refusal and extract its content",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, text, err := deps.load(args)
			if err != nil {
				return err
			}
			c := classify.New(cfg.Classifier).Classify(text)
			if cfg.OutputFormat != config.OutputFormatText {
				return render.Encode(deps.Out, cfg.OutputFormat, c)
			}
			render.New(deps.Out, deps.Color).Classification(c)
			return nil
		},
	}
}

// resolvedDate is the machine-readable output of 'parse date'.
type resolvedDate struct {
	Input    string     `json:"input" yaml:"input"`
	Resolved bool       `json:"resolved" yaml:"resolved"`
	Time     *time.Time `json:"time,omitempty" yaml:"time,omitempty"`
}

func newParseDateCommand(deps *ParseCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "date <text>",
		Short: "Resolve a date/time phrase to a timestamp",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}

			input := strings.Join(args, " ")
			out := resolvedDate{Input: input}
			if t, ok := datetime.ResolveAt(input, deps.now()); ok {
				out.Resolved, out.Time = true, &t
			}

			if cfg.OutputFormat != config.OutputFormatText {
				return render.Encode(deps.Out, cfg.OutputFormat, out)
			}
			if !out.Resolved {
				return fmt.Errorf("could not resolve %q", input)
			}
			fmt.Fprintln(deps.Out, out.Time.Format(time.RFC3339))
			return nil
		},
	}
}
