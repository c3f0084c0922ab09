package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/meetprep/client"
	"github.com/otherjamesbrown/meetprep/config"
	"github.com/otherjamesbrown/meetprep/pkg/assistant"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetprep/pkg/render"
	"github.com/otherjamesbrown/meetprep/pkg/server"
)

// AssistantCommandDeps holds the dependencies for the agent-backed commands.
type AssistantCommandDeps struct {
	LoadConfig func() (*config.CLIConfig, error)
	// Connect builds the service and returns a function releasing it.
	Connect func(ctx context.Context, cfg *config.CLIConfig) (server.Service, func() error, error)
	In      io.Reader
	Out     io.Writer
	Color   bool
	Now     func() time.Time
}

// DefaultAssistantDeps returns the default dependencies for production use.
func DefaultAssistantDeps() *AssistantCommandDeps {
	return &AssistantCommandDeps{
		LoadConfig: config.LoadConfig,
		Connect:    connectRuntime,
		In:         os.Stdin,
		Out:        os.Stdout,
		Color:      render.ColorEnabled(os.Stdout),
		Now:        time.Now,
	}
}

func connectRuntime(ctx context.Context, cfg *config.CLIConfig) (server.Service, func() error, error) {
	rt, err := NewRuntime(ctx, cfg, RuntimeOptions{Logger: NewLogger(cfg, "cli")})
	if err != nil {
		return nil, nil, err
	}
	return rt.Service, rt.Close, nil
}

// session is one command invocation's loaded config and service.
type session struct {
	cfg   *config.CLIConfig
	svc   server.Service
	close func() error
}

func (d *AssistantCommandDeps) open(ctx context.Context) (*session, error) {
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	svc, closeFn, err := d.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing assistant: %w", err)
	}
	return &session{cfg: cfg, svc: svc, close: closeFn}, nil
}

func (d *AssistantCommandDeps) renderer() *render.Renderer {
	return render.New(d.Out, d.Color)
}

func (d *AssistantCommandDeps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// NewAssistantCommands creates the agent-backed top-level commands.
func NewAssistantCommands(deps *AssistantCommandDeps) []*cobra.Command {
	if deps == nil {
		deps = DefaultAssistantDeps()
	}
	return []*cobra.Command{
		newMeetingsCommand(deps),
		newTranscriptCommand(deps),
		newInsightsCommand(deps),
		newAskCommand(deps),
		newPlanCommand(deps),
		newModelsCommand(deps),
	}
}

func newMeetingsCommand(deps *AssistantCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "meetings",
		Short: "List recent meetings that have transcripts",
		Long: `Ask the agent for your online meetings of the last 7 days and show the
ones with a transcript, grouped by day and hour.

When the answer holds no recognizable meeting table the agent's text is
shown as-is.

Examples:
  meetprep meetings
  meetprep meetings --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeetings(cmd.Context(), deps)
		},
	}
}

func runMeetings(ctx context.Context, deps *AssistantCommandDeps) error {
	s, err := deps.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.svc.Meetings(ctx)
	if err != nil {
		return fmt.Errorf("fetching meetings: %w", err)
	}
	if s.cfg.OutputFormat != config.OutputFormatText {
		return render.Encode(deps.Out, s.cfg.OutputFormat, res)
	}

	r := deps.renderer()
	if res.Verbatim {
		r.Answer(res.Text, res.Source)
		return nil
	}
	r.Schedule(meeting.BuildSchedule(res.Meetings, deps.now()))
	return nil
}

func newTranscriptCommand(deps *AssistantCommandDeps) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "transcript <subject>",
		Short: "Fetch the transcript of a meeting",
		Long: `Ask the agent for the full transcript of a meeting.

The question is rephrased up to three times when the agent declines. If it
still declines, meetprep asks where the transcript is stored and downloads
the file from the first link in the answer.

Examples:
  meetprep transcript "Weekly Sync" --date "today at 10:00 AM"
  meetprep transcript "Design Review" --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranscript(cmd.Context(), deps, strings.Join(args, " "), date)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Meeting start as listed by 'meetprep meetings'")
	return cmd
}

func runTranscript(ctx context.Context, deps *AssistantCommandDeps, subject, date string) error {
	s, err := deps.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := s.svc.Transcript(ctx, subject, date)
	if err != nil {
		return fmt.Errorf("fetching transcript: %w", err)
	}
	if s.cfg.OutputFormat != config.OutputFormatText {
		return render.Encode(deps.Out, s.cfg.OutputFormat, res)
	}

	r := deps.renderer()
	switch {
	case res.Refusal:
		r.Notice("The agent did not provide the transcript.")
		r.Answer(res.Text, res.Source)
		if res.TranscriptURL != "" {
			fmt.Fprintf(deps.Out, "Transcript location: %s\n", res.TranscriptURL)
		}
	case res.Transcript != nil:
		r.Transcript(res.Transcript)
	default:
		r.Answer(res.Text, res.Source)
	}
	return nil
}

func newInsightsCommand(deps *AssistantCommandDeps) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "insights <subject>",
		Short: "Summarize a meeting",
		Long: `Ask the agent for the key points, decisions and action items of a meeting.

Examples:
  meetprep insights "Weekly Sync" --date "yesterday at 9:00 AM"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(cmd.Context(), deps, "fetching insights", func(ctx context.Context, svc server.Service) (*assistant.AnswerResult, error) {
				return svc.Insights(ctx, strings.Join(args, " "), date)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Meeting start as listed by 'meetprep meetings'")
	return cmd
}

func newAskCommand(deps *AssistantCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the agent a free-form question",
		Long: `Send a question to the agent and print its answer.

Examples:
  meetprep ask "What did we decide about the migration last week?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnswer(cmd.Context(), deps, "asking agent", func(ctx context.Context, svc server.Service) (*assistant.AnswerResult, error) {
				return svc.Ask(ctx, strings.Join(args, " "))
			})
		},
	}
}

func runAnswer(ctx context.Context, deps *AssistantCommandDeps, op string, fn func(context.Context, server.Service) (*assistant.AnswerResult, error)) error {
	s, err := deps.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	res, err := fn(ctx, s.svc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.cfg.OutputFormat != config.OutputFormatText {
		return render.Encode(deps.Out, s.cfg.OutputFormat, res)
	}
	deps.renderer().Answer(res.Text, res.Source)
	return nil
}

func newPlanCommand(deps *AssistantCommandDeps) *cobra.Command {
	var (
		file  string
		date  string
		model string
	)
	cmd := &cobra.Command{
		Use:   "plan [subject]",
		Short: "Generate an architecture proposal from a transcript",
		Long: `Stream an architecture proposal generated from a meeting transcript.

The transcript is read from --file ("-" for stdin). Without --file the
transcript of the named meeting is fetched from the agent first.

Requires an AI token: run 'meetprep auth login' or set MEETPREP_AI_TOKEN.

Examples:
  meetprep plan "Customer Kickoff" --date "2026-02-16T14:00:00"
  meetprep plan "Customer Kickoff" --file kickoff.vtt --model openai/o3
  cat notes.txt | meetprep plan --file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := ""
			if len(args) == 1 {
				subject = args[0]
			}
			return runPlan(cmd.Context(), deps, subject, date, file, model)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the transcript from a file (- for stdin)")
	cmd.Flags().StringVar(&date, "date", "", "Meeting start, used when fetching the transcript")
	cmd.Flags().StringVar(&model, "model", "", "Model id (default from configuration)")
	return cmd
}

func runPlan(ctx context.Context, deps *AssistantCommandDeps, subject, date, file, model string) error {
	if file == "" && subject == "" {
		return errors.New("a meeting subject or --file is required")
	}

	s, err := deps.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	var transcript string
	if file != "" {
		transcript, err = readInput(deps.In, file)
		if err != nil {
			return err
		}
	} else {
		res, err := s.svc.Transcript(ctx, subject, date)
		if err != nil {
			return fmt.Errorf("fetching transcript: %w", err)
		}
		if res.Refusal {
			return fmt.Errorf("no transcript available for %q", subject)
		}
		transcript = res.Text
	}

	stream := s.cfg.OutputFormat == config.OutputFormatText
	onDelta := func(delta string) error {
		if stream {
			_, err := io.WriteString(deps.Out, delta)
			return err
		}
		return nil
	}

	res, err := s.svc.Plan(ctx, assistant.PlanRequest{Transcript: transcript, Subject: subject, Model: model}, onDelta)
	if err != nil {
		return fmt.Errorf("generating plan: %w", err)
	}
	if !stream {
		return render.Encode(deps.Out, s.cfg.OutputFormat, res)
	}
	fmt.Fprintln(deps.Out)
	return nil
}

func newModelsCommand(deps *AssistantCommandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the AI models available for plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), deps)
		},
	}
}

func runModels(ctx context.Context, deps *AssistantCommandDeps) error {
	s, err := deps.open(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	models, err := s.svc.Models(ctx)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	if s.cfg.OutputFormat != config.OutputFormatText {
		return render.Encode(deps.Out, s.cfg.OutputFormat, struct {
			Models []client.ModelInfo `json:"models" yaml:"models"`
		}{models})
	}
	deps.renderer().Models(models)
	return nil
}

// readInput reads path, or in when path is "-" or empty.
func readInput(in io.Reader, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
