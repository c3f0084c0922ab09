package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/otherjamesbrown/meetprep/config"
	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
	"github.com/otherjamesbrown/meetprep/pkg/logging"
	"github.com/otherjamesbrown/meetprep/pkg/observability"
)

// AI operation names, used as metric and span labels.
const (
	OpChatStream = "chat_stream"
	OpListModels = "list_models"
)

// sseDone terminates an OpenAI-compatible event stream.
const sseDone = "[DONE]"

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a streaming chat completion request.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ModelInfo describes one model offered by the completion service.
type ModelInfo struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Provider    string `json:"provider" yaml:"provider"`
	Description string `json:"description" yaml:"description"`
}

// catalogModel is an entry of the model catalog response.
type catalogModel struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Publisher    string   `json:"publisher"`
	Summary      string   `json:"summary"`
	Capabilities []string `json:"capabilities"`
	Policy       *struct {
		State string `json:"state"`
	} `json:"policy,omitempty"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AIClient calls an OpenAI-compatible chat completion service with a bearer
// token.
type AIClient struct {
	httpClient   *http.Client
	baseURL      string
	modelsURL    string
	defaultModel string
	options      *ClientOptions
	metrics      *observability.Metrics
	tracer       *observability.Tracer
	logger       logging.Logger
}

// NewAIClient creates a client that authenticates every request with tokens
// from ts. Streaming responses are not bounded by a client timeout; callers
// bound them with ctx.
func NewAIClient(cfg config.AIConfig, ts oauth2.TokenSource, metrics *observability.Metrics, opts *ClientOptions) *AIClient {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &AIClient{
		httpClient:   oauth2.NewClient(context.Background(), oauth2.ReuseTokenSource(nil, ts)),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		modelsURL:    cfg.ModelsURL,
		defaultModel: cfg.DefaultModel,
		options:      opts,
		metrics:      metrics,
		tracer:       observability.NewTracer(),
		logger:       opts.logger(),
	}
}

// DefaultModel returns the model used when a request names none.
func (c *AIClient) DefaultModel() string {
	return c.defaultModel
}

// ListModels returns the enabled models of the catalog.
func (c *AIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, span := c.tracer.StartAISpan(ctx, OpListModels, "")
	defer span.End()
	helper := observability.NewSpanHelper(span)
	start := time.Now()

	var catalog []catalogModel
	err := WithRetry(ctx, c.options, OpListModels, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.modelsURL, nil)
		if err != nil {
			return fmt.Errorf("building catalog request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return apperrors.ClassifyError(err, OpListModels)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return statusError(resp, OpListModels)
		}
		catalog = nil
		if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
			return apperrors.ClassifyError(fmt.Errorf("decoding catalog: %w", err), OpListModels)
		}
		return nil
	})
	if err != nil {
		helper.SetError(err, string(apperrors.CodeOf(err)), apperrors.IsErrorRetryable(err))
		c.metrics.RecordAICompletion(OpListModels, "", observability.StatusError, time.Since(start))
		return nil, err
	}

	models := make([]ModelInfo, 0, len(catalog))
	for _, m := range catalog {
		if m.Policy != nil && m.Policy.State == "disabled" {
			continue
		}
		models = append(models, toModelInfo(m))
	}
	helper.SetSuccess()
	c.metrics.RecordAICompletion(OpListModels, "", observability.StatusAnswered, time.Since(start))
	return models, nil
}

func toModelInfo(m catalogModel) ModelInfo {
	info := ModelInfo{
		ID:       m.ID,
		Name:     m.Name,
		Provider: InferProvider(m.ID),
	}
	if info.Name == "" {
		info.Name = m.ID
	}
	if info.Provider == "Other" && m.Publisher != "" {
		info.Provider = m.Publisher
	}
	info.Description = m.Summary
	if info.Description == "" {
		info.Description = strings.Join(m.Capabilities, " • ")
	}
	return info
}

// InferProvider names the vendor of a model from its id. A "publisher/"
// prefix is ignored.
func InferProvider(modelID string) string {
	id := strings.ToLower(modelID)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	for _, p := range []string{"gpt", "o1", "o3", "o4", "o5"} {
		if strings.HasPrefix(id, p) {
			return "OpenAI"
		}
	}
	switch {
	case strings.Contains(id, "claude"):
		return "Anthropic"
	case strings.Contains(id, "gemini"):
		return "Google"
	case strings.Contains(id, "llama"):
		return "Meta"
	case strings.Contains(id, "mistral"):
		return "Mistral"
	case strings.Contains(id, "deepseek"):
		return "DeepSeek"
	}
	return "Other"
}

// StreamChat posts req with streaming enabled and calls onDelta for every
// non-empty content delta, in order. It returns the concatenated content.
// An onDelta error stops the stream and is returned. Connecting is retried
// on transient errors; once a delta has been delivered nothing is retried.
func (c *AIClient) StreamChat(ctx context.Context, req ChatRequest, onDelta func(string) error) (string, error) {
	if req.Model == "" {
		req.Model = c.defaultModel
	}
	ctx, span := c.tracer.StartAISpan(ctx, OpChatStream, req.Model)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	log := c.logger.WithContext(ctx).With(logging.F("model", req.Model))
	start := time.Now()

	content, err := c.streamChat(ctx, req, func(delta string) error {
		c.metrics.RecordChunk(req.Model)
		return onDelta(delta)
	})
	if err != nil {
		helper.SetError(err, string(apperrors.CodeOf(err)), apperrors.IsErrorRetryable(err))
		c.metrics.RecordAICompletion(OpChatStream, req.Model, observability.StatusError, time.Since(start))
		log.Warn("Chat stream failed", logging.Err(err))
		return content, err
	}

	helper.SetAnswer(len(content), false)
	helper.SetSuccess()
	c.metrics.RecordAICompletion(OpChatStream, req.Model, observability.StatusAnswered, time.Since(start))
	log.Debug("Chat stream finished",
		logging.F("content_length", len(content)),
		logging.F("duration_ms", time.Since(start).Milliseconds()))
	return content, nil
}

func (c *AIClient) streamChat(ctx context.Context, req ChatRequest, onDelta func(string) error) (string, error) {
	payload, err := json.Marshal(struct {
		ChatRequest
		Stream bool `json:"stream"`
	}{req, true})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	var resp *http.Response
	err = WithRetry(ctx, c.options, OpChatStream, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("building chat request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")

		r, err := c.httpClient.Do(httpReq)
		if err != nil {
			return apperrors.ClassifyError(err, OpChatStream)
		}
		if r.StatusCode != http.StatusOK {
			defer r.Body.Close()
			return statusError(r, OpChatStream)
		}
		resp = r
		return nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	err = ReadSSE(resp.Body, func(data string) (bool, error) {
		if data == sseDone {
			return false, nil
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return false, apperrors.ClassifyError(fmt.Errorf("decoding stream chunk: %w", err), OpChatStream)
		}
		if chunk.Error != nil {
			return false, apperrors.NewAgentError(apperrors.CodeModelUnavailable, OpChatStream, chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			full.WriteString(choice.Delta.Content)
			if err := onDelta(choice.Delta.Content); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return full.String(), apperrors.ClassifyError(ctx.Err(), OpChatStream)
		}
		return full.String(), err
	}
	return full.String(), nil
}

// ReadSSE reads server-sent events from r and calls fn with the data of
// each event. Multi-line data fields are joined with "\n". fn returns false
// to stop reading.
func ReadSSE(r io.Reader, fn func(data string) (bool, error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	var data []string
	flush := func() (bool, error) {
		if len(data) == 0 {
			return true, nil
		}
		event := strings.Join(data, "\n")
		data = data[:0]
		return fn(event)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			more, err := flush()
			if err != nil || !more {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		data = append(data, strings.TrimPrefix(value, " "))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	_, err := flush()
	return err
}

// statusError turns a non-2xx completion service response into an error.
func statusError(resp *http.Response, op string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", op, apperrors.ErrUnauthorized, msg)
	case http.StatusTooManyRequests:
		return apperrors.NewAgentError(apperrors.CodeRateLimit, op, msg)
	case http.StatusNotFound, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return apperrors.NewAgentError(apperrors.CodeModelUnavailable, op, msg)
	}
	return apperrors.NewAgentError(apperrors.CodeInternal, op, msg)
}
