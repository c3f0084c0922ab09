// Package assistant turns user requests into agent questions and agent
// answers into meeting lists, transcripts and plans.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/meetprep/client"
	"github.com/otherjamesbrown/meetprep/config"
	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/classify"
	"github.com/otherjamesbrown/meetprep/pkg/ingest/meeting"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/observability"
)

// Answer sources.
const (
	SourceAgent    = "workiq"
	SourceDownload = "workiq-url-download"
)

// Parse result labels for metrics.
const (
	parseStructured = "structured"
	parseVerbatim   = "verbatim"
)

// Fetcher downloads a transcript file. It returns "" when the location
// holds nothing usable.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Completer streams chat completions and lists models.
type Completer interface {
	StreamChat(ctx context.Context, req client.ChatRequest, onDelta func(string) error) (string, error)
	ListModels(ctx context.Context) ([]client.ModelInfo, error)
	DefaultModel() string
}

// Timeouts bounds each kind of agent question.
type Timeouts struct {
	Default    time.Duration
	Meetings   time.Duration
	Transcript time.Duration
	Location   time.Duration
}

// TimeoutsFromConfig reads the question timeouts from cfg.
func TimeoutsFromConfig(cfg *config.CLIConfig) Timeouts {
	return Timeouts{
		Default:    cfg.Timeout,
		Meetings:   cfg.Agent.MeetingsTimeout,
		Transcript: cfg.Agent.TranscriptTimeout,
		Location:   cfg.Agent.LocationTimeout,
	}
}

// Deps holds the collaborators of a Service. Agent is required; Downloader
// and AI may be nil, which disables the download fallback and plans.
type Deps struct {
	Agent      client.Asker
	Downloader Fetcher
	AI         Completer
	Classifier *classify.Classifier
	TurnParser *meeting.TurnParser
	Timeouts   Timeouts
	Metrics    *observability.Metrics
	Logger     logging.Logger
	Now        func() time.Time
}

// Service answers meeting requests.
type Service struct {
	agent      client.Asker
	downloader Fetcher
	ai         Completer
	classifier *classify.Classifier
	parser     *meeting.TurnParser
	timeouts   Timeouts
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     logging.Logger
	now        func() time.Time
}

// New creates a Service, filling unset dependencies with defaults.
func New(deps Deps) *Service {
	s := &Service{
		agent:      deps.Agent,
		downloader: deps.Downloader,
		ai:         deps.AI,
		classifier: deps.Classifier,
		parser:     deps.TurnParser,
		timeouts:   deps.Timeouts,
		metrics:    deps.Metrics,
		tracer:     observability.NewTracer(),
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.classifier == nil {
		s.classifier = classify.New(classify.DefaultConfig())
	}
	if s.parser == nil {
		s.parser = meeting.NewTurnParser()
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// MeetingsResult is the outcome of a meeting list request. When no meeting
// could be extracted Verbatim is set and Text must be shown as-is.
type MeetingsResult struct {
	Text     string            `json:"text" yaml:"text"`
	Source   string            `json:"source" yaml:"source"`
	Filtered bool              `json:"filtered" yaml:"filtered"`
	Verbatim bool              `json:"verbatim" yaml:"verbatim"`
	Meetings []meeting.Meeting `json:"meetings" yaml:"meetings"`
}

// TranscriptResult is the outcome of a transcript request. Refusal is set
// when the agent declined and no file could be downloaded; Text then holds
// the refusal.
type TranscriptResult struct {
	Text          string              `json:"text" yaml:"text"`
	Source        string              `json:"source" yaml:"source"`
	TranscriptURL string              `json:"transcript_url,omitempty" yaml:"transcript_url,omitempty"`
	Refusal       bool                `json:"refusal" yaml:"refusal"`
	Transcript    *meeting.Transcript `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

// AnswerResult is a plain agent answer.
type AnswerResult struct {
	Text   string `json:"text" yaml:"text"`
	Source string `json:"source" yaml:"source"`
}

// Meetings asks for the recent meeting list. Rows without an available
// transcript are dropped when the answer says which rows have one.
func (s *Service) Meetings(ctx context.Context) (*MeetingsResult, error) {
	log := s.logger.WithContext(ctx)

	answer, err := s.ask(ctx, observability.KindMeetings, 1, MeetingsQuestion, s.timeouts.Meetings)
	if err != nil {
		return nil, fmt.Errorf("fetching meetings: %w", err)
	}

	res := &MeetingsResult{Text: answer, Source: SourceAgent}
	if filtered, ok := meeting.FilterTranscribed(answer); ok {
		res.Text = filtered
		res.Filtered = true
	}
	log.Debug("Meeting list answered",
		logging.F("answer_length", len(answer)),
		logging.F("filtered", res.Filtered))

	_, span := s.tracer.StartParseSpan(ctx, "meetings")
	list := meeting.ParseMeetingList(res.Text, s.now())
	res.Meetings = list.Meetings
	res.Verbatim = list.Verbatim()
	if res.Meetings == nil {
		res.Meetings = []meeting.Meeting{}
	}
	result := parseStructured
	if res.Verbatim {
		result = parseVerbatim
	}
	observability.NewSpanHelper(span).SetResult(result)
	span.End()

	s.metrics.RecordParse("meetings", result)
	s.metrics.RecordMeetings(len(res.Meetings))
	return res, nil
}

// Transcript asks for the verbatim transcript of a meeting, rephrasing the
// question until the agent stops refusing. When every phrasing is refused
// it asks where the transcript file is and downloads it.
func (s *Service) Transcript(ctx context.Context, subject, date string) (*TranscriptResult, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", apperrors.ErrValidation)
	}
	date = strings.TrimSpace(date)
	log := s.logger.WithContext(ctx).With(logging.F("subject", subject))

	var verdict classify.Classification
	for i, q := range TranscriptQuestions(subject, date) {
		answer, err := s.ask(ctx, observability.KindTranscript, i+1, q, s.timeouts.Transcript)
		if err != nil {
			return nil, fmt.Errorf("fetching transcript: %w", err)
		}
		verdict = s.classifier.Classify(answer)
		if !verdict.IsRefusal {
			break
		}
		log.Info("Transcript attempt refused", logging.F("attempt", i+1))
	}

	if !verdict.IsRefusal {
		return &TranscriptResult{
			Text:       verdict.Text,
			Source:     SourceAgent,
			Transcript: s.parseTranscript(ctx, verdict.Text),
		}, nil
	}

	url, text := s.downloadFromLocation(ctx, subject, date)
	if text != "" {
		log.Info("Transcript downloaded from agent location", logging.F("length", len(text)))
		return &TranscriptResult{
			Text:          text,
			Source:        SourceDownload,
			TranscriptURL: url,
			Transcript:    s.parseTranscript(ctx, text),
		}, nil
	}

	return &TranscriptResult{
		Text:          verdict.Text,
		Source:        SourceAgent,
		TranscriptURL: url,
		Refusal:       true,
	}, nil
}

// downloadFromLocation asks for the transcript file location and fetches
// it. Failures are logged and yield empty values.
func (s *Service) downloadFromLocation(ctx context.Context, subject, date string) (url, text string) {
	log := s.logger.WithContext(ctx)

	answer, err := s.ask(ctx, observability.KindLocation, 1, LocationQuestion(subject, date), s.timeouts.Location)
	if err != nil {
		log.Warn("Transcript location question failed", logging.Err(err))
		return "", ""
	}
	url = classify.ExtractFirstURL(answer)
	if url == "" || s.downloader == nil {
		return url, ""
	}

	text, err = s.downloader.Fetch(ctx, url)
	if err != nil {
		log.Warn("Transcript download failed", logging.Err(err))
		return url, ""
	}
	return url, text
}

func (s *Service) parseTranscript(ctx context.Context, text string) *meeting.Transcript {
	_, span := s.tracer.StartParseSpan(ctx, "transcript")
	defer span.End()

	t := s.parser.ParseTranscript(text)
	observability.NewSpanHelper(span).SetResult(string(t.Format))
	s.metrics.RecordParse("transcript", string(t.Format))
	return t
}

// Insights asks for a summary and action items of a meeting.
func (s *Service) Insights(ctx context.Context, subject, date string) (*AnswerResult, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: missing subject", apperrors.ErrValidation)
	}
	answer, err := s.ask(ctx, observability.KindInsights, 1, InsightsQuestion(subject, strings.TrimSpace(date)), s.timeouts.Default)
	if err != nil {
		return nil, fmt.Errorf("fetching meeting insights: %w", err)
	}
	return &AnswerResult{Text: answer, Source: SourceAgent}, nil
}

// Ask forwards a free-form question to the agent.
func (s *Service) Ask(ctx context.Context, question string) (*AnswerResult, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: missing 'question'", apperrors.ErrValidation)
	}
	answer, err := s.ask(ctx, observability.KindAsk, 1, question, s.timeouts.Default)
	if err != nil {
		return nil, fmt.Errorf("querying agent: %w", err)
	}
	return &AnswerResult{Text: answer, Source: SourceAgent}, nil
}

// ask sends one question and records its span and metrics.
func (s *Service) ask(ctx context.Context, kind string, attempt int, question string, timeout time.Duration) (string, error) {
	ctx, span := s.tracer.StartAgentSpan(ctx, kind, attempt)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	start := time.Now()

	answer, err := s.agent.Ask(ctx, question, timeout)
	if err != nil {
		helper.SetError(err, string(apperrors.CodeOf(err)), apperrors.IsErrorRetryable(err))
		s.metrics.RecordQuestion(kind, observability.StatusError, time.Since(start))
		return "", err
	}

	status := observability.StatusAnswered
	if s.classifier.IsRefusal(answer) {
		status = observability.StatusRefusal
	}
	helper.SetAnswer(len(answer), false)
	helper.SetResult(status)
	helper.SetSuccess()
	s.metrics.RecordQuestion(kind, status, time.Since(start))
	return answer, nil
}

// PlanRequest asks for a technical plan from a transcript.
type PlanRequest struct {
	Transcript string `json:"transcript"`
	Subject    string `json:"subject,omitempty"`
	Model      string `json:"model,omitempty"`
}

// PlanResult describes a finished plan.
type PlanResult struct {
	RequestID string `json:"request_id" yaml:"request_id"`
	Model     string `json:"model" yaml:"model"`
	Content   string `json:"content" yaml:"content"`
}

// NewPlanID returns a request id for a plan.
func NewPlanID() string {
	return "plan-" + uuid.NewString()
}

// Plan streams a technical plan for req to onDelta and returns the whole
// document. The model defaults to the AI client's default model.
func (s *Service) Plan(ctx context.Context, req PlanRequest, onDelta func(string) error) (*PlanResult, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, fmt.Errorf("%w: missing transcript", apperrors.ErrValidation)
	}
	if s.ai == nil {
		return nil, fmt.Errorf("%w: AI completion is not configured, run: meetprep auth login", apperrors.ErrUnauthorized)
	}

	res := &PlanResult{RequestID: NewPlanID(), Model: req.Model}
	if res.Model == "" {
		res.Model = s.ai.DefaultModel()
	}
	log := s.logger.WithContext(ctx).With(
		logging.F("plan_id", res.RequestID),
		logging.F("model", res.Model))
	log.Info("Generating plan",
		logging.F("subject", req.Subject),
		logging.F("transcript_length", len(req.Transcript)))

	content, err := s.ai.StreamChat(ctx, client.ChatRequest{
		Model: res.Model,
		Messages: []client.Message{
			{Role: "system", Content: PlanSystemPrompt},
			{Role: "user", Content: PlanUserMessage(req.Subject, req.Transcript)},
		},
	}, onDelta)
	res.Content = content
	if err != nil {
		return res, fmt.Errorf("generating plan: %w", err)
	}

	log.Info("Plan generated", logging.F("content_length", len(content)))
	return res, nil
}

// Models lists the models available for plans.
func (s *Service) Models(ctx context.Context) ([]client.ModelInfo, error) {
	if s.ai == nil {
		return nil, fmt.Errorf("%w: AI completion is not configured, run: meetprep auth login", apperrors.ErrUnauthorized)
	}
	models, err := s.ai.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching models: %w", err)
	}
	return models, nil
}
