package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/otherjamesbrown/meetprep/config"
	apperrors "github.com/otherjamesbrown/meetprep/pkg/errors"
)

func fastOptions() *ClientOptions {
	opts := DefaultOptions()
	opts.InitialBackoff = time.Millisecond
	opts.MaxBackoff = time.Millisecond
	return opts
}

func newTestAIClient(srv *httptest.Server) *AIClient {
	cfg := config.AIConfig{
		BaseURL:      srv.URL + "/inference/",
		ModelsURL:    srv.URL + "/catalog/models",
		DefaultModel: "gpt-4.1",
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return NewAIClient(cfg, ts, nil, fastOptions())
}

func TestAIClient_StreamChat(t *testing.T) {
	var got struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
		Stream   bool      `json:"stream"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inference/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive\n\n")
		for _, delta := range []string{"## Executive", "", " Summary"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	}))
	defer srv.Close()

	var deltas []string
	content, err := newTestAIClient(srv).StreamChat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
	}, func(d string) error {
		deltas = append(deltas, d)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "## Executive Summary", content)
	assert.Equal(t, []string{"## Executive", " Summary"}, deltas)
	assert.Equal(t, "Bearer test-token", auth)
	assert.Equal(t, "gpt-4.1", got.Model)
	assert.True(t, got.Stream)
	assert.Len(t, got.Messages, 2)
}

func TestAIClient_StreamChat_CallbackStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 5; i++ {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":\"c%d\"}}]}\n\n", i)
		}
	}))
	defer srv.Close()

	stop := errors.New("client went away")
	n := 0
	content, err := newTestAIClient(srv).StreamChat(context.Background(), ChatRequest{Model: "m"}, func(string) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, "c0c1", content)
}

func TestAIClient_StreamChat_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{"unauthorized", http.StatusUnauthorized, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		}},
		{"rate limited", http.StatusTooManyRequests, func(t *testing.T, err error) {
			assert.Equal(t, apperrors.CodeRateLimit, apperrors.CodeOf(err))
		}},
		{"unknown model", http.StatusNotFound, func(t *testing.T, err error) {
			assert.Equal(t, apperrors.CodeModelUnavailable, apperrors.CodeOf(err))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := newTestAIClient(srv).StreamChat(context.Background(), ChatRequest{}, func(string) error { return nil })
			require.Error(t, err)
			tt.check(t, err)
			if apperrors.IsErrorRetryable(err) {
				assert.Equal(t, DefaultMaxRetries+1, calls)
			} else {
				assert.Equal(t, 1, calls)
			}
		})
	}
}

func TestAIClient_StreamChat_ErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"model overloaded\"}}\n\n")
	}))
	defer srv.Close()

	_, err := newTestAIClient(srv).StreamChat(context.Background(), ChatRequest{}, func(string) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestAIClient_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/catalog/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id":"openai/gpt-4.1","name":"OpenAI GPT-4.1","publisher":"OpenAI","summary":"Flagship model"},
			{"id":"phi-4","publisher":"Microsoft","capabilities":["streaming","tool-calling"]},
			{"id":"claude-x","name":"Claude X","policy":{"state":"disabled"}}
		]`)
	}))
	defer srv.Close()

	models, err := newTestAIClient(srv).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)

	assert.Equal(t, ModelInfo{ID: "openai/gpt-4.1", Name: "OpenAI GPT-4.1", Provider: "OpenAI", Description: "Flagship model"}, models[0])
	assert.Equal(t, ModelInfo{ID: "phi-4", Name: "phi-4", Provider: "Microsoft", Description: "streaming • tool-calling"}, models[1])
}

func TestInferProvider(t *testing.T) {
	tests := map[string]string{
		"gpt-4.1":              "OpenAI",
		"o3-mini":              "OpenAI",
		"openai/o4-mini":       "OpenAI",
		"claude-sonnet-4":      "Anthropic",
		"gemini-2.5-pro":       "Google",
		"meta/Llama-3.3-70B":   "Meta",
		"mistral-large":        "Mistral",
		"deepseek/DeepSeek-R1": "DeepSeek",
		"phi-4":                "Other",
		"":                     "Other",
	}
	for id, want := range tests {
		assert.Equal(t, want, InferProvider(id), id)
	}
}

func TestReadSSE(t *testing.T) {
	stream := "event: message\ndata: first\r\n\ndata: line one\ndata:line two\n\n: comment\nid: 3\n\ndata: tail"

	var events []string
	err := ReadSSE(strings.NewReader(stream), func(data string) (bool, error) {
		events = append(events, data)
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "line one\nline two", "tail"}, events)
}
