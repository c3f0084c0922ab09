package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// eventStream writes OpenAI-compatible chunk events.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	chunks  int
}

type chunkEvent struct {
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Delta chunkDelta `json:"delta"`
}

type chunkDelta struct {
	Content string `json:"content"`
}

// newEventStream sends the event-stream headers and a 200 status.
func newEventStream(w http.ResponseWriter) (*eventStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("streaming unsupported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher}, nil
}

// Delta sends one content chunk. It fails once the client has gone away.
func (s *eventStream) Delta(content string) error {
	s.chunks++
	return s.send(chunkEvent{Choices: []chunkChoice{{Delta: chunkDelta{Content: content}}}})
}

// Error sends an error event.
func (s *eventStream) Error(msg string) error {
	return s.send(map[string]string{"error": msg})
}

// Done terminates the stream.
func (s *eventStream) Done() error {
	return s.write("[DONE]")
}

func (s *eventStream) send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return s.write(string(data))
}

func (s *eventStream) write(data string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
